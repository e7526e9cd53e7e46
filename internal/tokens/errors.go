package tokens

import (
	"errors"
	"fmt"
)

// Denial reasons carried by InvalidCredentialError.
const (
	ReasonBadSignature     = "BAD_SIGNATURE"
	ReasonExpired          = "EXPIRED"
	ReasonRevokedOrExpired = "REVOKED_OR_EXPIRED"
	ReasonTampered         = "TAMPERED"
)

var (
	// ErrStoreUnavailable marks infrastructure faults talking to the record
	// store. Callers must treat it as "cannot determine", never as a denial.
	ErrStoreUnavailable = errors.New("token store unavailable")
	// ErrSigningFailure marks a crypto failure while minting a credential.
	ErrSigningFailure = errors.New("token signing failure")
)

// InvalidCredentialError is the expected verification outcome for a bad
// credential. It is a denial, not a system fault.
type InvalidCredentialError struct {
	Reason string
}

func (e *InvalidCredentialError) Error() string {
	return fmt.Sprintf("invalid credential: %s", e.Reason)
}

func invalid(reason string) error {
	return &InvalidCredentialError{Reason: reason}
}

// AsInvalid unwraps an InvalidCredentialError when err is a denial.
func AsInvalid(err error) (*InvalidCredentialError, bool) {
	var ice *InvalidCredentialError
	if errors.As(err, &ice) {
		return ice, true
	}
	return nil, false
}

func storeFault(err error) error {
	return errors.Join(ErrStoreUnavailable, err)
}
