package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/allyfhpontes/reutilizaif/internal/auth"
	"github.com/allyfhpontes/reutilizaif/internal/httpx"
	"github.com/allyfhpontes/reutilizaif/internal/session"
)

// unexported, collision-proof context key
type currentUserKeyType struct{}

var currentUserKey = currentUserKeyType{}

// WithCurrentUser attaches u to ctx.
func WithCurrentUser(ctx context.Context, u auth.CurrentUser) context.Context {
	return context.WithValue(ctx, currentUserKey, u)
}

// CurrentUserFromContext extracts the authenticated caller from ctx.
func CurrentUserFromContext(ctx context.Context) (auth.CurrentUser, bool) {
	u, ok := ctx.Value(currentUserKey).(auth.CurrentUser)
	return u, ok
}

// AdminCheck reports whether matricula has admin rights.
type AdminCheck func(ctx context.Context, matricula string) bool

type AuthMiddleware struct {
	Store   session.Store
	IsAdmin AdminCheck
	now     func() time.Time
}

func NewAuthMiddleware(store session.Store, isAdmin AdminCheck) *AuthMiddleware {
	return &AuthMiddleware{Store: store, IsAdmin: isAdmin, now: time.Now}
}

// RequireAuth resolves the session cookie into an auth.CurrentUser and
// rejects the request when there is no active session.
func (a *AuthMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// 1. Read session cookie
		sessionID := session.ReadCookie(r, session.CookieName)
		if sessionID == "" {
			unauthorized(w)
			return
		}

		// 2. Load session
		sess, err := a.Store.Get(r.Context(), sessionID)
		if err != nil || sess == nil {
			unauthorized(w)
			return
		}

		// 3. Pending registrations are not logins
		if sess.Kind != session.KindActive {
			unauthorized(w)
			return
		}

		// 4. Enforce expiry even if the store kept the entry
		if sess.Expired(a.now()) {
			_ = a.Store.Delete(r.Context(), sessionID)
			unauthorized(w)
			return
		}

		// 5. Attach the caller
		user := auth.CurrentUser{
			Matricula: sess.Matricula,
			Token:     sess.Token,
			Profile:   sess.Profile,
		}
		if a.IsAdmin != nil {
			user.IsAdmin = a.IsAdmin(r.Context(), sess.Matricula)
		}

		next.ServeHTTP(w, r.WithContext(WithCurrentUser(r.Context(), user)))
	})
}

func unauthorized(w http.ResponseWriter) {
	httpx.WriteError(w, http.StatusUnauthorized, httpx.CodeUnauthorized, "authentication required")
}
