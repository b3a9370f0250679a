// Package auth verifies bearer tokens. Local deployments sign their own JWTs;
// Firebase deployments verify Firebase ID tokens.
package auth

import (
	"context"
	"errors"
)

// ErrNoVerifier is returned by Chain when no verifier is configured.
var ErrNoVerifier = errors.New("no token verifier configured")

// Identity is the authenticated principal behind a token.
type Identity struct {
	ID          string
	Email       string
	DisplayName string
}

// Verifier turns a bearer token into an identity.
type Verifier interface {
	Verify(ctx context.Context, token string) (*Identity, error)
}

// Chain tries each verifier in order and returns the first success.
type Chain []Verifier

// Verify implements Verifier. The error of the last verifier is returned
// when none accepts the token.
func (c Chain) Verify(ctx context.Context, token string) (*Identity, error) {
	err := ErrNoVerifier
	for _, v := range c {
		id, verr := v.Verify(ctx, token)
		if verr == nil {
			return id, nil
		}
		err = verr
	}
	return nil, err
}
