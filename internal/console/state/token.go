package state

import (
	"context"

	"github.com/aussiebroadwan/stockdesk/internal/console/session"
)

// TokenKey is the metadata key holding the raw bearer token.
const TokenKey = "auth_token"

// TokenStore persists the session token in the metadata table.
type TokenStore struct {
	meta *Metadata
}

var _ session.TokenStore = (*TokenStore)(nil)

func NewTokenStore(db DBTX) *TokenStore {
	return &TokenStore{meta: NewMetadata(db)}
}

func (s *TokenStore) Load(ctx context.Context) (string, error) {
	v, err := s.meta.Get(ctx, TokenKey)
	if err != nil {
		return "", err
	}
	return string(v), nil
}

func (s *TokenStore) Save(ctx context.Context, token string) error {
	return s.meta.Set(ctx, TokenKey, []byte(token))
}

func (s *TokenStore) Clear(ctx context.Context) error {
	return s.meta.Delete(ctx, TokenKey)
}
