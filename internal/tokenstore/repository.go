package tokenstore

import (
	"context"
	"time"
)

// Repository provides token record persistence. Implementations must write a
// record's fields atomically (a reader never observes a partial record) and
// must report connectivity problems as errors, never as an absent record.
//
// The per-user index has no expiry of its own; members whose record has
// already lapsed are expected and must be skipped by callers.
type Repository interface {
	// Put writes the full record under the credential with an absolute TTL.
	Put(ctx context.Context, credential string, rec *TokenRecord, ttl time.Duration) error
	// Get returns the record, or (nil, nil) when the credential is unknown
	// or its record has expired.
	Get(ctx context.Context, credential string) (*TokenRecord, error)
	// IndexAdd registers the credential in the owner's token set.
	IndexAdd(ctx context.Context, userID, credential string) error
	// IndexMembers lists credentials recorded for the user. Membership is a
	// hint: entries may refer to records that no longer exist.
	IndexMembers(ctx context.Context, userID string) ([]string, error)
	// Revoke marks the record revoked so verification reports invalid.
	// Revoking an unknown credential is not an error.
	Revoke(ctx context.Context, credential string) error
	// Touch updates lastUsedAt without extending the record's TTL.
	Touch(ctx context.Context, credential string, at time.Time) error
}
