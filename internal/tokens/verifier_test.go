package tokens

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/finsim/auth-service/internal/config"
	"github.com/finsim/auth-service/internal/signing"
)

func requireDenied(t *testing.T, err error, reason string) {
	t.Helper()
	require.Error(t, err)
	ice, ok := AsInvalid(err)
	require.True(t, ok, "expected a credential denial, got: %v", err)
	require.Equal(t, reason, ice.Reason)
}

func TestVerifier_BadSignature(t *testing.T) {
	_, issuer, verifier := newTestEngine(t, config.ModeJWT, time.Hour)
	ctx := context.Background()

	cred, err := issuer.Create(ctx, "u1", "1.2.3.4", "web")
	require.NoError(t, err)

	// re-sign the same claims with a different key
	other, err := signing.NewFromSecret("other-secret-32-bytes-yyyyyyyyyyy")
	require.NoError(t, err)
	forged := signToken(t, other, "u1", "1.2.3.4", "web", time.Hour)
	_, err = verifier.Verify(ctx, forged)
	requireDenied(t, err, ReasonBadSignature)

	// garbage input
	_, err = verifier.Verify(ctx, "not.a.jwt")
	requireDenied(t, err, ReasonBadSignature)

	// the original still verifies
	_, err = verifier.Verify(ctx, cred)
	require.NoError(t, err)
}

func TestVerifier_EmbeddedExpiryWinsOverStore(t *testing.T) {
	_, _, verifier := newTestEngine(t, config.ModeJWT, time.Hour)

	signer, err := signing.NewFromSecret("test-secret-32-bytes-xxxxxxxxxxxx")
	require.NoError(t, err)
	expired := signToken(t, signer, "u1", "1.2.3.4", "web", -time.Minute)

	// no record exists either, but the embedded expiry is reported first
	_, err = verifier.Verify(context.Background(), expired)
	requireDenied(t, err, ReasonExpired)
}

func TestVerifier_RevokedEvenThoughSignatureValid(t *testing.T) {
	_, issuer, verifier := newTestEngine(t, config.ModeJWT, time.Hour)
	ctx := context.Background()

	cred, err := issuer.Create(ctx, "u1", "1.2.3.4", "web")
	require.NoError(t, err)
	require.NoError(t, verifier.Revoke(ctx, cred))

	_, err = verifier.Verify(ctx, cred)
	requireDenied(t, err, ReasonRevokedOrExpired)
}

func TestVerifier_RecordReapedByTTL(t *testing.T) {
	m, issuer, verifier := newTestEngine(t, config.ModeJWT, time.Hour)
	ctx := context.Background()

	cred, err := issuer.Create(ctx, "u1", "1.2.3.4", "web")
	require.NoError(t, err)

	// simulate the store losing the record while the JWT itself is still valid
	m.Del("token:" + cred)

	_, err = verifier.Verify(ctx, cred)
	requireDenied(t, err, ReasonRevokedOrExpired)
}

func TestVerifier_TamperedRecord(t *testing.T) {
	m, issuer, verifier := newTestEngine(t, config.ModeJWT, time.Hour)
	ctx := context.Background()

	cred, err := issuer.Create(ctx, "u1", "1.2.3.4", "web")
	require.NoError(t, err)

	// mutate a stored field independently of the embedded claim
	m.HSet("token:"+cred, "ipAddress", "6.6.6.6")

	_, err = verifier.Verify(ctx, cred)
	requireDenied(t, err, ReasonTampered)
}

func TestVerifier_TouchUpdatesLastUsedAt(t *testing.T) {
	m, issuer, verifier := newTestEngine(t, config.ModeJWT, time.Hour)
	ctx := context.Background()

	cred, err := issuer.Create(ctx, "u1", "1.2.3.4", "web")
	require.NoError(t, err)
	before := m.HGet("token:"+cred, "lastUsedAt")

	time.Sleep(1100 * time.Millisecond)
	_, err = verifier.Verify(ctx, cred)
	require.NoError(t, err)

	after := m.HGet("token:"+cred, "lastUsedAt")
	require.NotEqual(t, before, after)
}

func TestVerifier_OpaqueUnknownCredential(t *testing.T) {
	_, _, verifier := newTestEngine(t, config.ModeOpaque, time.Hour)

	_, err := verifier.Verify(context.Background(), "deadbeef")
	requireDenied(t, err, ReasonRevokedOrExpired)
}

func TestVerifier_StoreDownIsNotADenial(t *testing.T) {
	m, issuer, verifier := newTestEngine(t, config.ModeJWT, time.Hour)
	cred, err := issuer.Create(context.Background(), "u1", "1.2.3.4", "web")
	require.NoError(t, err)

	m.Close()

	_, err = verifier.Verify(context.Background(), cred)
	require.ErrorIs(t, err, ErrStoreUnavailable)
	_, isDenial := AsInvalid(err)
	require.False(t, isDenial)
}

// End-to-end lifecycle: issue, reuse, second device, verify, revoke.
func TestLifecycleScenario(t *testing.T) {
	_, issuer, verifier := newTestEngine(t, config.ModeJWT, time.Hour)
	ctx := context.Background()

	t1, err := issuer.Create(ctx, "u1", "1.2.3.4", "web")
	require.NoError(t, err)

	t1again, err := issuer.Create(ctx, "u1", "1.2.3.4", "web")
	require.NoError(t, err)
	require.Equal(t, t1, t1again)

	t2, err := issuer.Create(ctx, "u1", "9.9.9.9", "mobile")
	require.NoError(t, err)
	require.NotEqual(t, t1, t2)

	id, err := verifier.Verify(ctx, t1)
	require.NoError(t, err)
	require.Equal(t, &Identity{UserID: "u1", IPAddress: "1.2.3.4", SessionType: "web"}, id)

	require.NoError(t, verifier.Revoke(ctx, t1))
	_, err = verifier.Verify(ctx, t1)
	requireDenied(t, err, ReasonRevokedOrExpired)

	// the second device's token is unaffected
	id2, err := verifier.Verify(ctx, t2)
	require.NoError(t, err)
	require.Equal(t, "mobile", id2.SessionType)
}

func signToken(t *testing.T, signer *signing.Provider, userID, ip, sessionType string, ttl time.Duration) string {
	t.Helper()
	now := time.Now().UTC()
	claims := SessionClaims{
		UserID:      userID,
		IPAddress:   ip,
		SessionType: sessionType,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now.Add(-time.Minute)),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(signer.Key())
	require.NoError(t, err)
	return s
}
