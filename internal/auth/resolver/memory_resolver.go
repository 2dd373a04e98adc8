package resolver

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/allyfhpontes/reutilizaif/internal/auth"
)

var _ Resolver = (*MemoryResolver)(nil)

// MemoryResolver keeps accounts in process memory. Used when no database
// is configured and in tests.
type MemoryResolver struct {
	mu       sync.Mutex
	accounts map[string]auth.Account
	now      func() time.Time
}

func NewMemoryResolver() *MemoryResolver {
	return &MemoryResolver{
		accounts: make(map[string]auth.Account),
		now:      time.Now,
	}
}

func (r *MemoryResolver) Lookup(_ context.Context, matricula string) (*auth.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	acc, ok := r.accounts[matricula]
	if !ok {
		return nil, ErrNotFound
	}
	return &acc, nil
}

func (r *MemoryResolver) Resolve(ctx context.Context, matricula string, fn Mutation) (*auth.Account, error) {
	return r.mutate(ctx, matricula, fn, true)
}

func (r *MemoryResolver) Update(ctx context.Context, matricula string, fn Mutation) (*auth.Account, error) {
	return r.mutate(ctx, matricula, fn, false)
}

func (r *MemoryResolver) mutate(
	ctx context.Context,
	matricula string,
	fn Mutation,
	create bool,
) (*auth.Account, error) {

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	matricula = strings.TrimSpace(matricula)
	if matricula == "" {
		return nil, errors.New("matricula is empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	acc, ok := r.accounts[matricula]
	if !ok {
		if !create {
			return nil, ErrNotFound
		}
		acc = auth.Account{Matricula: matricula, CreatedAt: now}
	}

	// work on a copy so a failed mutation leaves no trace
	draft := acc
	if fn != nil {
		if err := fn(&draft); err != nil {
			return nil, err
		}
	}
	draft.Matricula = matricula
	draft.CreatedAt = acc.CreatedAt
	draft.UpdatedAt = now

	r.accounts[matricula] = draft
	out := draft
	return &out, nil
}

func (r *MemoryResolver) List(context.Context) ([]auth.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]auth.Account, 0, len(r.accounts))
	for _, acc := range r.accounts {
		out = append(out, acc)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].Matricula < out[j].Matricula
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (r *MemoryResolver) Count(context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.accounts), nil
}
