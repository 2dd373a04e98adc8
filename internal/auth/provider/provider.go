package provider

import (
	"context"

	"github.com/allyfhpontes/reutilizaif/internal/auth"
)

// CredentialProvider defines the contract of the institutional identity
// API. Implementations return identity facts only and must not create
// accounts or sessions.
type CredentialProvider interface {
	// Name returns the provider identifier (e.g. "suap").
	Name() string

	// ExchangeCredentials trades a matricula/password pair for a token
	// pair and the caller's normalized profile. Failures are returned as
	// values, never as errors.
	ExchangeCredentials(ctx context.Context, matricula, password string) Result

	// FetchProfile returns the normalized profile for a bearer token, or
	// nil when no profile endpoint answered.
	FetchProfile(ctx context.Context, token string) auth.Profile

	// Summarize extracts the canonical subset of a normalized profile.
	Summarize(p auth.Profile) auth.ProfileSummary
}
