package authsdk

import (
	"net/http"
	"strings"
	"time"
)

// SDKClient is a client for the stockdesk authentication service.
type SDKClient struct {
	BaseURL    string
	HTTPClient *http.Client

	// Headers are applied to every request this client sends.
	Headers *DefaultHeaders
}

// NewSDKClient creates a client with a 10 second request timeout.
func NewSDKClient(baseURL string) *SDKClient {
	return &SDKClient{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		Headers: NewDefaultHeaders(),
	}
}
