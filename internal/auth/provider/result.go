package provider

import (
	"fmt"
	"time"

	"github.com/allyfhpontes/reutilizaif/internal/auth"
)

// Result is the outcome of a credential exchange: either *Success or
// *Failure.
type Result interface {
	isResult()
}

type Success struct {
	AccessToken  string
	RefreshToken string
	// Expiry is zero when the token carries no readable exp claim.
	Expiry  time.Time
	Profile auth.Profile
	Summary auth.ProfileSummary

	Eligible bool
	// EligibilityBasis records which rule decided Eligible.
	EligibilityBasis string
}

func (*Success) isResult() {}

type Reason string

const (
	NetworkUnreachable Reason = "network_unreachable"
	Timeout            Reason = "timeout"
	TLSError           Reason = "tls_error"
	InvalidCredentials Reason = "invalid_credentials"
	TokenMissing       Reason = "token_missing"
	ProfileUnavailable Reason = "profile_unavailable"
	MalformedResponse  Reason = "malformed_response"
	UpstreamError      Reason = "upstream_error"
)

// Failure carries a reason plus diagnostic detail. Detail is meant for
// server-side logs only; Message is what end users see.
type Failure struct {
	Reason     Reason
	HTTPStatus int // set for UpstreamError
	Detail     string
}

func (*Failure) isResult() {}

func (f *Failure) Error() string {
	if f.HTTPStatus != 0 {
		return fmt.Sprintf("%s (http %d): %s", f.Reason, f.HTTPStatus, f.Detail)
	}
	if f.Detail != "" {
		return fmt.Sprintf("%s: %s", f.Reason, f.Detail)
	}
	return string(f.Reason)
}

// MessageClass groups reasons by what the user should do next.
type MessageClass string

const (
	ClassRetry       MessageClass = "retry"
	ClassCredentials MessageClass = "credentials"
	ClassIntegration MessageClass = "integration"
)

func (r Reason) Class() MessageClass {
	switch r {
	case NetworkUnreachable, Timeout, TLSError:
		return ClassRetry
	case InvalidCredentials:
		return ClassCredentials
	default:
		return ClassIntegration
	}
}

// Message is the user-facing text for the failure. It never includes
// upstream detail.
func (f *Failure) Message() string {
	switch f.Reason {
	case NetworkUnreachable:
		return "Could not reach SUAP. Check your connection and try again."
	case Timeout:
		return "SUAP took too long to respond. Please try again."
	case TLSError:
		return "Secure connection to SUAP failed. Please try again later."
	case InvalidCredentials:
		return "Invalid credentials. Check your matricula and password."
	default:
		return "Communication with SUAP failed. Please try again later."
	}
}
