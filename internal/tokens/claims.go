package tokens

import "github.com/golang-jwt/jwt/v5"

// SessionClaims is the payload embedded in self-contained (JWT mode)
// credentials. The same three identity fields are mirrored in the server-side
// token record and cross-checked on every verification.
type SessionClaims struct {
	UserID      string `json:"userId"`
	IPAddress   string `json:"ipAddress"`
	SessionType string `json:"sessionType"`
	jwt.RegisteredClaims
}

// Identity is the verified result returned to callers.
type Identity struct {
	UserID      string `json:"userId"`
	IPAddress   string `json:"ipAddress"`
	SessionType string `json:"sessionType"`
}
