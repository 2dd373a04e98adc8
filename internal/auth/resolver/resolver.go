package resolver

import (
	"context"
	"errors"

	"github.com/allyfhpontes/reutilizaif/internal/auth"
)

var ErrNotFound = errors.New("account not found")

// Mutation edits an account inside a resolver transaction. Returning an
// error aborts the transaction and leaves the record untouched.
type Mutation func(a *auth.Account) error

// Resolver owns the local account records. It is the ONLY place where
// accounts are created or changed.
type Resolver interface {
	// Lookup returns ErrNotFound when no record exists.
	Lookup(ctx context.Context, matricula string) (*auth.Account, error)

	// Resolve loads the record for matricula, creating it if missing, and
	// applies fn atomically. Concurrent calls for the same matricula are
	// serialized.
	Resolve(ctx context.Context, matricula string, fn Mutation) (*auth.Account, error)

	// Update applies fn to an existing record, or returns ErrNotFound.
	Update(ctx context.Context, matricula string, fn Mutation) (*auth.Account, error)

	// List returns every account, newest first.
	List(ctx context.Context) ([]auth.Account, error)

	Count(ctx context.Context) (int, error)
}
