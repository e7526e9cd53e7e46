package tokens

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/finsim/auth-service/internal/config"
	"github.com/finsim/auth-service/internal/signing"
	"github.com/finsim/auth-service/internal/tokenstore"
	"github.com/finsim/auth-service/pkg/logger"
	"github.com/finsim/auth-service/pkg/metrics"
)

// Verifier validates presented credentials. In JWT mode a credential must
// pass its own signature and expiry checks and still match a live server-side
// record field by field; the store stays the source of truth for revocation
// even when the signature is valid. In opaque mode only the store lookup
// applies.
type Verifier struct {
	repo   tokenstore.Repository
	signer *signing.Provider
	mode   string
}

func NewVerifier(repo tokenstore.Repository, signer *signing.Provider, mode string) *Verifier {
	return &Verifier{repo: repo, signer: signer, mode: mode}
}

// Verify returns the session identity, or an InvalidCredentialError denial.
// Store faults come back wrapping ErrStoreUnavailable so callers can tell
// "deny" from "cannot determine".
func (v *Verifier) Verify(ctx context.Context, credential string) (*Identity, error) {
	id, err := v.verify(ctx, credential)
	switch {
	case err == nil:
		metrics.Verifications.WithLabelValues("ok").Inc()
	case errors.Is(err, ErrStoreUnavailable):
		metrics.Verifications.WithLabelValues("error").Inc()
	default:
		if ice, ok := AsInvalid(err); ok {
			metrics.Verifications.WithLabelValues(outcomeLabel(ice.Reason)).Inc()
		}
	}
	return id, err
}

func (v *Verifier) verify(ctx context.Context, credential string) (*Identity, error) {
	now := time.Now().UTC()

	var claims *SessionClaims
	if v.mode == config.ModeJWT {
		var err error
		claims, err = v.parseClaims(credential)
		if err != nil {
			return nil, err
		}
	}

	rec, err := v.repo.Get(ctx, credential)
	if err != nil {
		return nil, storeFault(err)
	}
	if rec == nil || rec.Status != tokenstore.StatusActive {
		return nil, invalid(ReasonRevokedOrExpired)
	}
	if now.After(rec.ExpiresAt) {
		// store has not reaped the record yet
		return nil, invalid(ReasonExpired)
	}

	identity := &Identity{
		UserID:      rec.UserID,
		IPAddress:   rec.IPAddress,
		SessionType: rec.SessionType,
	}
	if claims != nil {
		// a valid signature with a diverging record means the record was
		// edited or confused with another credential's state
		if claims.UserID != rec.UserID ||
			claims.IPAddress != rec.IPAddress ||
			claims.SessionType != rec.SessionType {
			return nil, invalid(ReasonTampered)
		}
	}

	// best effort; a failed touch must not fail an otherwise valid credential
	if err := v.repo.Touch(ctx, credential, now); err != nil {
		logger.Debugf("verify: lastUsedAt touch failed: %v", err)
	}
	return identity, nil
}

func (v *Verifier) parseClaims(credential string) (*SessionClaims, error) {
	claims := &SessionClaims{}
	_, err := jwt.ParseWithClaims(credential, claims, func(t *jwt.Token) (interface{}, error) {
		return v.signer.Key(), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, invalid(ReasonExpired)
		}
		return nil, invalid(ReasonBadSignature)
	}
	return claims, nil
}

// Revoke invalidates a credential ahead of its natural expiry. Subsequent
// verifications fail with REVOKED_OR_EXPIRED even while the embedded
// signature (if any) still validates.
func (v *Verifier) Revoke(ctx context.Context, credential string) error {
	if err := v.repo.Revoke(ctx, credential); err != nil {
		return storeFault(err)
	}
	metrics.TokensRevoked.Inc()
	return nil
}

func outcomeLabel(reason string) string {
	switch reason {
	case ReasonBadSignature:
		return "bad_signature"
	case ReasonExpired:
		return "expired"
	case ReasonRevokedOrExpired:
		return "revoked_or_expired"
	case ReasonTampered:
		return "tampered"
	}
	return "invalid"
}
