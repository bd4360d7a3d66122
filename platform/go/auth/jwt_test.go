package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestHS256VerifierRoundTrip(t *testing.T) {
	t.Parallel()

	secret := []byte("dev-secret")
	token, err := BuildDevToken(secret, DevTokenParams{
		UserID: "u-1",
		Email:  "mechanic@example.com",
		Role:   "staff",
		Tenant: "acme",
	}, time.Now().UTC())
	require.NoError(t, err)

	claims, err := HS256Verifier(secret)(context.Background(), token)
	require.NoError(t, err)

	creds, err := DefaultCredentialExtractor(claims)
	require.NoError(t, err)
	require.Equal(t, "u-1", creds.ID)
	require.Equal(t, "staff", creds.Role)
	require.NotNil(t, creds.TenantID)
	require.Equal(t, "acme", *creds.TenantID)
}

func TestHS256VerifierRejectsWrongSecret(t *testing.T) {
	t.Parallel()

	token, err := BuildDevToken([]byte("secret-a"), DevTokenParams{UserID: "u-1"}, time.Now().UTC())
	require.NoError(t, err)

	_, err = HS256Verifier([]byte("secret-b"))(context.Background(), token)
	require.Error(t, err)
}

func TestHS256VerifierRejectsExpiredToken(t *testing.T) {
	t.Parallel()

	secret := []byte("dev-secret")
	token, err := BuildDevToken(secret, DevTokenParams{
		UserID:    "u-1",
		ExpiresIn: time.Minute,
	}, time.Now().UTC().Add(-time.Hour))
	require.NoError(t, err)

	_, err = HS256Verifier(secret)(context.Background(), token)
	require.Error(t, err)
}

func TestBuildDevTokenRequiresUser(t *testing.T) {
	t.Parallel()

	_, err := BuildDevToken([]byte("s"), DevTokenParams{}, time.Time{})
	require.Error(t, err)
}
