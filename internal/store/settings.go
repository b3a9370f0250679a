package store

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/erazemk/igralnica/internal/docstore"
)

const jwtSecretKey = "jwt_secret"

type setting struct {
	ID    string `json:"id"`
	Value string `json:"value"`
}

// GetJWTSecret retrieves the JWT signing secret.
// If no secret exists, it generates one, stores it, and returns it.
// The create fails if another process stored one first, in which case the
// stored secret wins.
func GetJWTSecret(ctx context.Context, ds docstore.Store) (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generating jwt secret: %w", err)
	}
	candidate := hex.EncodeToString(buf)

	err := ds.Batch(ctx, []docstore.Op{
		docstore.CreateOp(CollectionSettings, jwtSecretKey, map[string]any{"value": candidate}),
	})
	if err != nil && !errors.Is(err, docstore.ErrExists) {
		return "", fmt.Errorf("storing jwt secret: %w", err)
	}

	s, err := get[setting](ctx, ds, CollectionSettings, jwtSecretKey)
	if err != nil {
		return "", fmt.Errorf("querying jwt secret: %w", err)
	}
	if s == nil || s.Value == "" {
		return "", errors.New("jwt secret missing after store")
	}
	return s.Value, nil
}
