package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/allyfhpontes/reutilizaif/internal/auth"
	"github.com/allyfhpontes/reutilizaif/internal/httpx"
	"github.com/allyfhpontes/reutilizaif/internal/session"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func setup(t *testing.T, admins ...string) (*gin.Engine, *session.RedisStore) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	store := session.NewRedisStore(client)

	isAdmin := func(_ context.Context, matricula string) bool {
		for _, a := range admins {
			if a == matricula {
				return true
			}
		}
		return false
	}
	mw := NewAuthMiddleware(store, isAdmin)

	r := gin.New()
	r.Use(RequestID())

	api := r.Group("/api", GinRequireAuth(mw))
	api.GET("/me", func(c *gin.Context) {
		user, ok := CurrentUser(c)
		require.True(t, ok)
		c.JSON(http.StatusOK, gin.H{"matricula": user.Matricula, "name": user.DisplayName(), "admin": user.IsAdmin})
	})
	api.GET("/admin", GinRequireAdmin(), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	return r, store
}

func newSession(t *testing.T, store session.Store, kind session.Kind, matricula string) string {
	t.Helper()

	s, err := session.New(kind, matricula, "tok", auth.ProfileSummary{DisplayName: "Ana"}, time.Hour)
	require.NoError(t, err)
	require.NoError(t, store.Create(context.Background(), s))
	return s.SessionID
}

func do(r http.Handler, path, sid string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if sid != "" {
		req.AddCookie(&http.Cookie{Name: session.CookieName, Value: sid})
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestRequireAuth_ActiveSession(t *testing.T) {
	r, store := setup(t)
	sid := newSession(t, store, session.KindActive, "2023")

	rec := do(r, "/api/me", sid)

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "2023", body["matricula"])
	assert.Equal(t, "Ana", body["name"])
	assert.Equal(t, false, body["admin"])
}

func TestRequireAuth_Rejections(t *testing.T) {
	r, store := setup(t)
	pending := newSession(t, store, session.KindPending, "2023")

	cases := map[string]string{
		"no cookie":       "",
		"unknown session": "nope",
		"pending session": pending,
	}

	for name, sid := range cases {
		t.Run(name, func(t *testing.T) {
			rec := do(r, "/api/me", sid)

			require.Equal(t, http.StatusUnauthorized, rec.Code)
			var body httpx.ErrorBody
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, httpx.CodeUnauthorized, body.Code)
		})
	}
}

func TestRequireAuth_ExpiredSessionIsDeleted(t *testing.T) {
	r, store := setup(t)
	sid := newSession(t, store, session.KindActive, "2023")

	mw := NewAuthMiddleware(store, nil)
	mw.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	r2 := gin.New()
	r2.GET("/x", GinRequireAuth(mw), func(c *gin.Context) { c.Status(http.StatusOK) })

	rec := do(r2, "/x", sid)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	got, err := store.Get(context.Background(), sid)
	require.NoError(t, err)
	assert.Nil(t, got)

	assert.Equal(t, http.StatusUnauthorized, do(r, "/api/me", sid).Code)
}

func TestRequireAdmin(t *testing.T) {
	r, store := setup(t, "admin1")

	user := newSession(t, store, session.KindActive, "2023")
	admin := newSession(t, store, session.KindActive, "admin1")

	assert.Equal(t, http.StatusForbidden, do(r, "/api/admin", user).Code)
	assert.Equal(t, http.StatusNoContent, do(r, "/api/admin", admin).Code)
}

func TestRequestID(t *testing.T) {
	r, _ := setup(t)

	rec := do(r, "/api/me", "")
	id := rec.Header().Get(RequestIDHeader)
	_, err := uuid.Parse(id)
	assert.NoError(t, err)

	given := uuid.NewString()
	req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
	req.Header.Set(RequestIDHeader, given)
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, given, rec.Header().Get(RequestIDHeader))
}
