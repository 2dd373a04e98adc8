package session

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/allyfhpontes/reutilizaif/internal/auth"
)

const idBytes = 32

// GenerateID returns a random URL-safe session ID with 256 bits of
// entropy.
func GenerateID() (string, error) {
	b := make([]byte, idBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("session: failed to generate id: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// New builds a session of the given kind with a fresh ID, expiring ttl
// from now.
func New(
	kind Kind,
	matricula string,
	token string,
	profile auth.ProfileSummary,
	ttl time.Duration,
) (Session, error) {

	id, err := GenerateID()
	if err != nil {
		return Session{}, err
	}

	now := time.Now()
	return Session{
		SessionID: id,
		Kind:      kind,
		Matricula: matricula,
		Token:     token,
		Profile:   profile,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}, nil
}
