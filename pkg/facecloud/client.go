package facecloud

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"
)

var (
	ErrNotLoggedIn  = errors.New("facecloud: not logged in")
	ErrUnauthorized = errors.New("facecloud: credentials rejected")
)

// StatusError is a non-2xx response from the service.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("facecloud: HTTP %d: %s", e.StatusCode, e.Body)
}

// Client talks to the detection service. Login must succeed before Detect;
// a Detect that comes back 401 logs in again once.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client

	email    string
	password string

	mu    sync.RWMutex
	token string
}

func New(baseURL, email, password string) *Client {
	return &Client{
		BaseURL:    strings.TrimSuffix(baseURL, "/"),
		HTTPClient: &http.Client{Timeout: 15 * time.Second},
		email:      email,
		password:   password,
	}
}

// Login fetches an access token.
func (c *Client) Login(ctx context.Context) error {
	body, err := json.Marshal(LoginRequest{Email: c.email, Password: c.password})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/login", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("facecloud: build login: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	var out LoginResponse
	if err := c.do(req, &out); err != nil {
		var se *StatusError
		if errors.As(err, &se) && (se.StatusCode == http.StatusUnauthorized || se.StatusCode == http.StatusForbidden) {
			return fmt.Errorf("%w: %v", ErrUnauthorized, err)
		}
		return err
	}
	if out.Data.AccessToken == "" {
		return errors.New("facecloud: login returned no access token")
	}

	c.mu.Lock()
	c.token = out.Data.AccessToken
	c.mu.Unlock()
	return nil
}

// Detect returns the faces found in image.
func (c *Client) Detect(ctx context.Context, image []byte, contentType string) ([]Face, error) {
	faces, err := c.detect(ctx, image, contentType)

	var se *StatusError
	if errors.As(err, &se) && se.StatusCode == http.StatusUnauthorized {
		if lerr := c.Login(ctx); lerr != nil {
			return nil, lerr
		}
		return c.detect(ctx, image, contentType)
	}
	return faces, err
}

func (c *Client) detect(ctx context.Context, image []byte, contentType string) ([]Face, error) {
	c.mu.RLock()
	token := c.token
	c.mu.RUnlock()
	if token == "" {
		return nil, ErrNotLoggedIn
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/detect", bytes.NewReader(image))
	if err != nil {
		return nil, fmt.Errorf("facecloud: build detect: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", contentType)

	var out DetectResponse
	if err := c.do(req, &out); err != nil {
		return nil, err
	}
	return out.Data, nil
}

func (c *Client) do(req *http.Request, target any) error {
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("facecloud: %s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("facecloud: read body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	if err := json.Unmarshal(body, target); err != nil {
		return fmt.Errorf("facecloud: decode: %w", err)
	}
	return nil
}
