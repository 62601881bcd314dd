package cryptox

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// LoadOrCreatePepper reads the pepper stored at path, generating and writing
// a new one first if the file does not exist yet. Losing this file
// invalidates every stored password hash.
func LoadOrCreatePepper(path string) (string, error) {
	data, err := loadOrCreateFile(path, func() ([]byte, error) {
		buf := make([]byte, keyLength)
		if _, err := rand.Read(buf); err != nil {
			return nil, err
		}
		return []byte(base64.RawURLEncoding.EncodeToString(buf)), nil
	})
	if err != nil {
		return "", fmt.Errorf("cryptox: pepper: %w", err)
	}

	pepper := strings.TrimSpace(string(data))
	if pepper == "" {
		return "", fmt.Errorf("cryptox: pepper file %s is empty", path)
	}
	return pepper, nil
}

// loadOrCreateFile returns the contents of path. When it is missing, generate
// is called and its output is written with owner-only permissions.
func loadOrCreateFile(path string, generate func() ([]byte, error)) ([]byte, error) {
	path = filepath.Clean(path)

	data, err := os.ReadFile(path)
	if err == nil {
		return data, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, err
	}

	data, err = generate()
	if err != nil {
		return nil, err
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return nil, err
	}
	return data, nil
}
