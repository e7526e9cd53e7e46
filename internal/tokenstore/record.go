package tokenstore

import "time"

// Record status values. A revoked record may stay in the store until its TTL
// fires; verification treats it the same as an absent record.
const (
	StatusActive  = "active"
	StatusRevoked = "revoked"
)

// TokenRecord is the server-side authoritative state for a session credential.
// A credential is only considered valid while a live, active record exists.
type TokenRecord struct {
	UserID      string    `bson:"userId" json:"userId"`
	IPAddress   string    `bson:"ipAddress" json:"ipAddress"`
	SessionType string    `bson:"sessionType" json:"sessionType"`
	CreatedAt   time.Time `bson:"createdAt" json:"createdAt"`
	ExpiresAt   time.Time `bson:"expiresAt" json:"expiresAt"`
	LastUsedAt  time.Time `bson:"lastUsedAt" json:"lastUsedAt"`
	Status      string    `bson:"status" json:"status"`
}

// Live reports whether the record is active and not past its expiry.
func (r *TokenRecord) Live(now time.Time) bool {
	return r != nil && r.Status == StatusActive && now.Before(r.ExpiresAt)
}

// Matches reports whether the record belongs to the same device/session
// combination, used by the issuer to dedup repeated logins.
func (r *TokenRecord) Matches(ipAddress, sessionType string) bool {
	return r.IPAddress == ipAddress && r.SessionType == sessionType
}
