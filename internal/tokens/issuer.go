package tokens

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/finsim/auth-service/internal/config"
	"github.com/finsim/auth-service/internal/signing"
	"github.com/finsim/auth-service/internal/tokenstore"
	"github.com/finsim/auth-service/pkg/metrics"
)

// Issuer mints session credentials and records them server-side. Issuance is
// idempotent per (userId, ipAddress, sessionType): a live credential for the
// same device/session is returned unchanged instead of minting a new one.
//
// The dedup scan and the subsequent write are not one atomic operation, so
// two concurrent creates for the same new device/session can both mint. The
// guarantee is at-least-one-token, not exactly-one; the extra token is
// harmless (both verify, both expire).
type Issuer struct {
	repo     tokenstore.Repository
	signer   *signing.Provider
	mode     string
	lifetime time.Duration
}

func NewIssuer(repo tokenstore.Repository, signer *signing.Provider, mode string, lifetime time.Duration) *Issuer {
	return &Issuer{repo: repo, signer: signer, mode: mode, lifetime: lifetime}
}

// Create returns a credential for the tuple, reusing a live one when the
// exact device/session combination already holds a token. Reuse does not
// extend the existing token's TTL.
func (i *Issuer) Create(ctx context.Context, userID, ipAddress, sessionType string) (string, error) {
	now := time.Now().UTC()

	members, err := i.repo.IndexMembers(ctx, userID)
	if err != nil {
		return "", storeFault(err)
	}
	for _, candidate := range members {
		rec, err := i.repo.Get(ctx, candidate)
		if err != nil {
			return "", storeFault(err)
		}
		// index entries outlive their records; skip the stale ones
		if !rec.Live(now) {
			continue
		}
		if rec.Matches(ipAddress, sessionType) {
			metrics.TokensReused.WithLabelValues(i.mode).Inc()
			return candidate, nil
		}
	}

	credential, err := i.mint(userID, ipAddress, sessionType, now)
	if err != nil {
		return "", err
	}

	rec := &tokenstore.TokenRecord{
		UserID:      userID,
		IPAddress:   ipAddress,
		SessionType: sessionType,
		CreatedAt:   now,
		ExpiresAt:   now.Add(i.lifetime),
		LastUsedAt:  now,
		Status:      tokenstore.StatusActive,
	}
	if err := i.repo.Put(ctx, credential, rec, i.lifetime); err != nil {
		return "", storeFault(err)
	}
	if err := i.repo.IndexAdd(ctx, userID, credential); err != nil {
		return "", storeFault(err)
	}

	metrics.TokensIssued.WithLabelValues(i.mode).Inc()
	return credential, nil
}

func (i *Issuer) mint(userID, ipAddress, sessionType string, now time.Time) (string, error) {
	if i.mode == config.ModeOpaque {
		b := make([]byte, 32)
		if _, err := rand.Read(b); err != nil {
			return "", fmt.Errorf("%w: %v", ErrSigningFailure, err)
		}
		return hex.EncodeToString(b), nil
	}

	claims := SessionClaims{
		UserID:      userID,
		IPAddress:   ipAddress,
		SessionType: sessionType,
		RegisteredClaims: jwt.RegisteredClaims{
			// jti keeps identical tuples minted within the same second distinct
			ID:        uuid.NewString(),
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.lifetime)),
		},
	}
	jt := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	credential, err := jt.SignedString(i.signer.Key())
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrSigningFailure, err)
	}
	return credential, nil
}
