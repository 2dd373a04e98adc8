package session

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/allyfhpontes/reutilizaif/internal/auth"
)

func newTestStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return NewRedisStore(client), mr
}

func TestRedisStore_RoundTrip(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	s, err := New(KindActive, "2023", "tok", auth.ProfileSummary{DisplayName: "Ana"}, time.Hour)
	require.NoError(t, err)
	require.NoError(t, store.Create(ctx, s))

	assert.True(t, mr.Exists("session:"+s.SessionID))
	ttl := mr.TTL("session:" + s.SessionID)
	assert.True(t, ttl > 59*time.Minute && ttl <= time.Hour, "ttl %s", ttl)

	got, err := store.Get(ctx, s.SessionID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, KindActive, got.Kind)
	assert.Equal(t, "2023", got.Matricula)
	assert.Equal(t, "tok", got.Token)
	assert.Equal(t, "Ana", got.Profile.DisplayName)

	require.NoError(t, store.Delete(ctx, s.SessionID))
	got, err = store.Get(ctx, s.SessionID)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestRedisStore_ExpiresWithTTL(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	s, err := New(KindPending, "2023", "tok", auth.ProfileSummary{}, 10*time.Minute)
	require.NoError(t, err)
	require.NoError(t, store.Create(ctx, s))

	mr.FastForward(11 * time.Minute)

	got, err := store.Get(ctx, s.SessionID)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestRedisStore_CreateValidation(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()
	future := time.Now().Add(time.Hour)

	cases := map[string]Session{
		"missing id":        {Kind: KindActive, Matricula: "2023", ExpiresAt: future},
		"missing matricula": {SessionID: "x", Kind: KindActive, ExpiresAt: future},
		"unknown kind":      {SessionID: "x", Kind: "other", Matricula: "2023", ExpiresAt: future},
		"already expired":   {SessionID: "x", Kind: KindActive, Matricula: "2023", ExpiresAt: time.Now().Add(-time.Second)},
	}

	for name, s := range cases {
		t.Run(name, func(t *testing.T) {
			assert.Error(t, store.Create(ctx, s))
		})
	}
}

func TestRedisStore_UpdateExpiredDeletes(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	s, err := New(KindActive, "2023", "tok", auth.ProfileSummary{}, time.Hour)
	require.NoError(t, err)
	require.NoError(t, store.Create(ctx, s))

	s.Profile.DisplayName = "Ana"
	require.NoError(t, store.Update(ctx, s))
	got, err := store.Get(ctx, s.SessionID)
	require.NoError(t, err)
	assert.Equal(t, "Ana", got.Profile.DisplayName)

	s.ExpiresAt = time.Now().Add(-time.Minute)
	require.NoError(t, store.Update(ctx, s))
	assert.False(t, mr.Exists("session:"+s.SessionID))
}

func TestGenerateID_Unique(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		id, err := GenerateID()
		require.NoError(t, err)
		assert.Len(t, id, 43)
		assert.False(t, seen[id])
		seen[id] = true
	}
}
