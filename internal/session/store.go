package session

import (
	"context"
	"time"

	"github.com/allyfhpontes/reutilizaif/internal/auth"
)

type Kind string

const (
	// KindPending marks a registration in progress: SUAP accepted the
	// credentials but no local password exists yet.
	KindPending Kind = "pending"
	// KindActive is a logged-in session.
	KindActive Kind = "active"
)

// Session is the server-side state behind a session cookie. It carries
// the cached SUAP token and profile summary so requests never need to
// reach SUAP.
type Session struct {
	SessionID string              `json:"session_id"`
	Kind      Kind                `json:"kind"`
	Matricula string              `json:"matricula"`
	Token     string              `json:"token,omitempty"`
	Profile   auth.ProfileSummary `json:"profile"`
	CreatedAt time.Time           `json:"created_at"`
	ExpiresAt time.Time           `json:"expires_at"`
}

func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// Store defines how sessions are stored and retrieved.
type Store interface {
	Create(ctx context.Context, s Session) error
	// Get returns nil, nil when the session does not exist.
	Get(ctx context.Context, sessionID string) (*Session, error)
	Update(ctx context.Context, s Session) error
	Delete(ctx context.Context, sessionID string) error
}
