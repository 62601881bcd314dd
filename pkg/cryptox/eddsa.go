package cryptox

import (
	"crypto/ed25519"
	"crypto/rand"
	"crypto/x509"
	"encoding/pem"
	"fmt"
)

// GenerateEd25519Key generates a new Ed25519 private key and returns it as a
// PKCS8 PEM block.
func GenerateEd25519Key() ([]byte, error) {
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("cryptox: failed to generate Ed25519 key: %w", err)
	}

	der, err := x509.MarshalPKCS8PrivateKey(priv)
	if err != nil {
		return nil, fmt.Errorf("cryptox: failed to marshal PKCS8 key: %w", err)
	}

	return pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der}), nil
}

// LoadOrCreateEd25519Key returns the PEM signing key stored at path, creating
// one on first start. Tokens signed before a key rotation stop verifying.
func LoadOrCreateEd25519Key(path string) ([]byte, error) {
	data, err := loadOrCreateFile(path, GenerateEd25519Key)
	if err != nil {
		return nil, fmt.Errorf("cryptox: signing key: %w", err)
	}

	if block, _ := pem.Decode(data); block == nil || block.Type != "PRIVATE KEY" {
		return nil, fmt.Errorf("cryptox: %s is not a PKCS8 PEM key", path)
	}
	return data, nil
}
