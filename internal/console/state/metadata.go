package state

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// Metadata is a key/value view over the metadata table.
type Metadata struct {
	db DBTX
}

func NewMetadata(db DBTX) *Metadata {
	return &Metadata{db: db}
}

// Get returns the value for key, or nil when the key is absent.
func (m *Metadata) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := m.db.QueryRowContext(ctx, `SELECT value FROM metadata WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get metadata[%s]: %w", key, err)
	}
	return value, nil
}

func (m *Metadata) Set(ctx context.Context, key string, value []byte) error {
	_, err := m.db.ExecContext(ctx, `
		INSERT INTO metadata (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	if err != nil {
		return fmt.Errorf("set metadata[%s]: %w", key, err)
	}
	return nil
}

// Delete removes key. Deleting an absent key is not an error.
func (m *Metadata) Delete(ctx context.Context, key string) error {
	if _, err := m.db.ExecContext(ctx, `DELETE FROM metadata WHERE key = ?`, key); err != nil {
		return fmt.Errorf("delete metadata[%s]: %w", key, err)
	}
	return nil
}
