package resolver

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/allyfhpontes/reutilizaif/internal/auth"
)

func TestMemoryResolver_ResolveCreatesOnce(t *testing.T) {
	r := NewMemoryResolver()
	ctx := context.Background()

	_, err := r.Lookup(ctx, "2023")
	require.ErrorIs(t, err, ErrNotFound)

	acc, err := r.Resolve(ctx, "2023", func(a *auth.Account) error {
		a.DisplayName = "Ana"
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, "2023", acc.Matricula)
	assert.False(t, acc.CreatedAt.IsZero())

	again, err := r.Resolve(ctx, "2023", nil)
	require.NoError(t, err)
	assert.Equal(t, "Ana", again.DisplayName)
	assert.Equal(t, acc.CreatedAt, again.CreatedAt)

	n, err := r.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestMemoryResolver_UpdateRequiresRecord(t *testing.T) {
	r := NewMemoryResolver()

	_, err := r.Update(context.Background(), "2023", func(a *auth.Account) error {
		a.Phone = "84 99999-0000"
		return nil
	})
	require.ErrorIs(t, err, ErrNotFound)

	n, _ := r.Count(context.Background())
	assert.Zero(t, n)
}

func TestMemoryResolver_FailedMutationLeavesNoTrace(t *testing.T) {
	r := NewMemoryResolver()
	ctx := context.Background()
	boom := errors.New("boom")

	_, err := r.Resolve(ctx, "2023", func(a *auth.Account) error {
		a.PasswordHash = "hash"
		return boom
	})
	require.ErrorIs(t, err, boom)

	_, err = r.Lookup(ctx, "2023")
	require.ErrorIs(t, err, ErrNotFound)

	_, err = r.Resolve(ctx, "2023", func(a *auth.Account) error {
		a.PasswordHash = "hash"
		return nil
	})
	require.NoError(t, err)

	_, err = r.Update(ctx, "2023", func(a *auth.Account) error {
		a.PasswordHash = "other"
		return boom
	})
	require.ErrorIs(t, err, boom)

	acc, err := r.Lookup(ctx, "2023")
	require.NoError(t, err)
	assert.Equal(t, "hash", acc.PasswordHash)
}

func TestMemoryResolver_ConcurrentResolveNoLostUpdates(t *testing.T) {
	r := NewMemoryResolver()
	ctx := context.Background()

	const workers = 64

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := r.Resolve(ctx, "2023", func(a *auth.Account) error {
				a.Phone += fmt.Sprintf("%d;", i)
				return nil
			})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	n, err := r.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	acc, err := r.Lookup(ctx, "2023")
	require.NoError(t, err)
	for i := 0; i < workers; i++ {
		assert.Contains(t, acc.Phone, fmt.Sprintf("%d;", i))
	}
}

func TestMemoryResolver_ListNewestFirst(t *testing.T) {
	r := NewMemoryResolver()
	ctx := context.Background()

	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	tick := 0
	r.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Minute)
	}

	for _, m := range []string{"a", "b", "c"} {
		_, err := r.Resolve(ctx, m, nil)
		require.NoError(t, err)
	}

	list, err := r.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "c", list[0].Matricula)
	assert.Equal(t, "a", list[2].Matricula)
}

func TestMemoryResolver_RejectsBlankMatricula(t *testing.T) {
	_, err := NewMemoryResolver().Resolve(context.Background(), "  ", nil)
	require.Error(t, err)
}
