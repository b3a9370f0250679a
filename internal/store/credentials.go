package store

import (
	"context"
	"fmt"

	"github.com/erazemk/igralnica/internal/docstore"
	"github.com/erazemk/igralnica/internal/model"
)

// SetPassword stores the password hash of a local account. The credential
// shares its ID with the user profile.
func SetPassword(ctx context.Context, ds docstore.Store, user *model.User, passwordHash string) error {
	fields, err := docstore.Encode(model.Credential{
		Email:        user.Email,
		PasswordHash: passwordHash,
		CreatedAt:    model.Timestamp(now()),
	})
	if err != nil {
		return err
	}
	if err := ds.Set(ctx, CollectionCredentials, user.ID, fields); err != nil {
		return fmt.Errorf("storing credential: %w", err)
	}
	return nil
}

// GetCredentialByEmail returns the local credential for email, or nil.
func GetCredentialByEmail(ctx context.Context, ds docstore.Store, email string) (*model.Credential, error) {
	creds, err := list[model.Credential](ctx, ds, docstore.From(CollectionCredentials).
		Where("email", docstore.Eq, email).
		Take(1))
	if err != nil || len(creds) == 0 {
		return nil, err
	}
	return &creds[0], nil
}
