package credentials

import (
	"errors"
	"fmt"

	"github.com/allyfhpontes/reutilizaif/internal/auth"
	"github.com/allyfhpontes/reutilizaif/internal/auth/provider"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrNotEligible        = errors.New("account is not an active student")
	ErrAlreadyRegistered  = errors.New("account already registered")
	ErrNotRegistered      = errors.New("account not registered")
	ErrNoCachedToken      = errors.New("no cached token")
)

// Pending is a registration in progress: the caller proved their SUAP
// credentials and must now choose a local password.
type Pending struct {
	Matricula string              `json:"matricula"`
	Token     string              `json:"token"`
	Profile   auth.ProfileSummary `json:"profile"`
}

// LoginResult holds exactly one of Account (local login succeeded) or
// Pending (first login, registration required).
type LoginResult struct {
	Account *auth.Account
	Pending *Pending
}

// ExchangeError wraps a provider failure so callers can pick a message
// by reason.
type ExchangeError struct {
	Failure *provider.Failure
}

func (e *ExchangeError) Error() string {
	return fmt.Sprintf("credential exchange failed: %s", e.Failure.Error())
}

func (e *ExchangeError) Unwrap() error {
	return e.Failure
}
