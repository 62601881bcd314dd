package app

import (
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"log/slog"

	"github.com/aussiebroadwan/stockdesk/pkg/cryptox"
	"github.com/aussiebroadwan/stockdesk/pkg/jwtx"
)

// InitAuthKeys loads the token signing key and builds the matching verifier.
//
// With cfg.SigningKeyFile set the key is read from that file, and generated
// into it on first start, so issued tokens survive restarts. Without it a
// fresh key is generated in memory and every restart logs all consoles out.
func InitAuthKeys(cfg Config, logger *slog.Logger) (*jwtx.EdDSASigner, *jwtx.KeySet, *jwtx.EdDSAVerifier, error) {
	var (
		pemKey []byte
		err    error
	)

	if cfg.SigningKeyFile != "" {
		pemKey, err = cryptox.LoadOrCreateEd25519Key(cfg.SigningKeyFile)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("load signing key: %w", err)
		}
	} else {
		pemKey, err = cryptox.GenerateEd25519Key()
		if err != nil {
			return nil, nil, nil, fmt.Errorf("generate signing key: %w", err)
		}
		logger.Warn("using an ephemeral signing key; existing tokens are invalid after restart")
	}

	// Parse once without a kid to learn the public key the kid derives from.
	probe, err := jwtx.NewSignerEdDSA("", pemKey)
	if err != nil {
		return nil, nil, nil, err
	}
	signer, err := jwtx.NewSignerEdDSA(keyID(probe.PublicKey()), pemKey)
	if err != nil {
		return nil, nil, nil, err
	}

	keys := jwtx.NewKeySet()
	keys.AddSigner(signer)
	verifier := jwtx.NewVerifierEdDSA(keys, cfg.Issuer)

	logger.Info("signing key ready",
		"algorithm", signer.Alg(),
		"kid", signer.KID(),
		"issuer", cfg.Issuer,
		"persistent", cfg.SigningKeyFile != "",
	)
	return signer, keys, verifier, nil
}

// keyID is a stable identifier for a public key, so a key loaded from disk
// keeps the same kid across restarts.
func keyID(pub []byte) string {
	sum := sha256.Sum256(pub)
	return base64.RawURLEncoding.EncodeToString(sum[:12])
}
