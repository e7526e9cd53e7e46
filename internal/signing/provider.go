package signing

import (
	"crypto/rand"
	"fmt"

	"github.com/finsim/auth-service/pkg/logger"
)

// Provider holds the process-wide symmetric signing key. It is constructed
// once at startup and passed by reference to the issuer and verifier; the key
// bytes never leave the process.
type Provider struct {
	key       []byte
	ephemeral bool
}

// NewFromSecret derives the signing key deterministically from an operator
// supplied secret, so restarts and horizontally scaled instances sharing the
// same secret verify each other's tokens.
func NewFromSecret(secret string) (*Provider, error) {
	if secret == "" {
		return nil, fmt.Errorf("signing secret must not be empty")
	}
	return &Provider{key: []byte(secret)}, nil
}

// NewEphemeral generates a random 256-bit key. Tokens signed with it become
// unverifiable after a restart.
func NewEphemeral() (*Provider, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return nil, fmt.Errorf("generate signing key: %w", err)
	}
	return &Provider{key: b, ephemeral: true}, nil
}

// Load picks the key source based on whether a secret was configured.
func Load(secret string) (*Provider, error) {
	if secret != "" {
		logger.Infof("signing: using configured JWT secret")
		return NewFromSecret(secret)
	}
	p, err := NewEphemeral()
	if err != nil {
		return nil, err
	}
	logger.Warnf("signing: no JWT_SECRET configured; generated an ephemeral key. Tokens will not survive a restart and horizontal scaling requires a shared secret")
	return p, nil
}

// Key returns the raw key bytes for HMAC signing and verification.
func (p *Provider) Key() []byte { return p.key }

// Ephemeral reports whether the key was generated at startup rather than
// derived from a configured secret.
func (p *Provider) Ephemeral() bool { return p.ephemeral }
