package auth

import (
	"context"
	"errors"
	"testing"

	firebaseauth "firebase.google.com/go/v4/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedVerifier struct {
	token string
	id    *Identity
}

var errRejected = errors.New("rejected")

func (f fixedVerifier) Verify(_ context.Context, token string) (*Identity, error) {
	if token != f.token {
		return nil, errRejected
	}
	return f.id, nil
}

func TestChain(t *testing.T) {
	ctx := context.Background()
	chain := Chain{
		fixedVerifier{token: "a", id: &Identity{ID: "from-a"}},
		fixedVerifier{token: "b", id: &Identity{ID: "from-b"}},
	}

	id, err := chain.Verify(ctx, "b")
	require.NoError(t, err)
	assert.Equal(t, "from-b", id.ID)

	_, err = chain.Verify(ctx, "c")
	assert.ErrorIs(t, err, errRejected)

	_, err = Chain{}.Verify(ctx, "a")
	assert.ErrorIs(t, err, ErrNoVerifier)
}

func TestIdentityFromToken(t *testing.T) {
	id := identityFromToken(&firebaseauth.Token{
		UID: "fb-123",
		Claims: map[string]any{
			"email": "child.life@example.org",
			"name":  "Child Life",
		},
	})
	assert.Equal(t, &Identity{ID: "fb-123", Email: "child.life@example.org", DisplayName: "Child Life"}, id)

	bare := identityFromToken(&firebaseauth.Token{UID: "fb-456"})
	assert.Equal(t, "fb-456", bare.ID)
	assert.Empty(t, bare.Email)
}
