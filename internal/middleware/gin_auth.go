package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/allyfhpontes/reutilizaif/internal/auth"
	"github.com/allyfhpontes/reutilizaif/internal/httpx"
)

// GinRequireAuth adapts the net/http AuthMiddleware to Gin.
func GinRequireAuth(a *AuthMiddleware) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Bridge handler to allow net/http middleware execution
		next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			c.Request = r
			c.Next()
		})

		a.RequireAuth(next).ServeHTTP(c.Writer, c.Request)

		// If auth middleware already handled the response, stop Gin chain
		if c.Writer.Written() {
			c.Abort()
		}
	}
}

// GinRequireAdmin must run after GinRequireAuth.
func GinRequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := CurrentUser(c)
		if !ok {
			httpx.Error(c, http.StatusUnauthorized, httpx.CodeUnauthorized, "authentication required")
			return
		}
		if !user.IsAdmin {
			httpx.Error(c, http.StatusForbidden, httpx.CodeForbidden, "admin access required")
			return
		}
		c.Next()
	}
}

// CurrentUser returns the caller resolved by GinRequireAuth.
func CurrentUser(c *gin.Context) (auth.CurrentUser, bool) {
	return CurrentUserFromContext(c.Request.Context())
}
