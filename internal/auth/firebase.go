package auth

import (
	"context"
	"fmt"

	firebase "firebase.google.com/go/v4"
	firebaseauth "firebase.google.com/go/v4/auth"
	"google.golang.org/api/option"
)

// FirebaseVerifier verifies Firebase ID tokens.
type FirebaseVerifier struct {
	client *firebaseauth.Client
}

// NewFirebaseVerifier creates a verifier for the given Firebase project.
func NewFirebaseVerifier(ctx context.Context, projectID string, opts ...option.ClientOption) (*FirebaseVerifier, error) {
	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: projectID}, opts...)
	if err != nil {
		return nil, fmt.Errorf("initializing firebase app: %w", err)
	}
	client, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("initializing firebase auth: %w", err)
	}
	return &FirebaseVerifier{client: client}, nil
}

// Verify implements Verifier.
func (f *FirebaseVerifier) Verify(ctx context.Context, token string) (*Identity, error) {
	t, err := f.client.VerifyIDToken(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("verifying id token: %w", err)
	}
	return identityFromToken(t), nil
}

func identityFromToken(t *firebaseauth.Token) *Identity {
	id := &Identity{ID: t.UID}
	if email, ok := t.Claims["email"].(string); ok {
		id.Email = email
	}
	if name, ok := t.Claims["name"].(string); ok {
		id.DisplayName = name
	}
	return id
}
