package handler

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/allyfhpontes/reutilizaif/internal/auth"
	"github.com/allyfhpontes/reutilizaif/internal/auth/credentials"
	"github.com/allyfhpontes/reutilizaif/internal/auth/provider"
	"github.com/allyfhpontes/reutilizaif/internal/auth/resolver"
	"github.com/allyfhpontes/reutilizaif/internal/httpx"
	"github.com/allyfhpontes/reutilizaif/internal/logger"
	"github.com/allyfhpontes/reutilizaif/internal/session"
)

type Config struct {
	SessionTTL      time.Duration
	RegistrationTTL time.Duration
	CookieSecure    bool
	// ConfigAdmin reports admins granted by configuration, which cannot
	// be revoked through the API.
	ConfigAdmin func(matricula string) bool
}

type Handler struct {
	credentials *credentials.Service
	sessions    session.Store
	accounts    resolver.Resolver
	cfg         Config
	cookies     session.CookieOptions
}

func NewHandler(
	creds *credentials.Service,
	sessions session.Store,
	accounts resolver.Resolver,
	cfg Config,
) *Handler {
	if cfg.ConfigAdmin == nil {
		cfg.ConfigAdmin = func(string) bool { return false }
	}
	return &Handler{
		credentials: creds,
		sessions:    sessions,
		accounts:    accounts,
		cfg:         cfg,
		cookies:     session.DefaultCookieOptions(cfg.CookieSecure),
	}
}

// RegisterRoutes mounts the public authentication routes.
func (h *Handler) RegisterRoutes(r gin.IRouter) {
	g := r.Group("/auth")
	g.POST("/login", h.Login)
	g.POST("/register", h.Register)
	g.POST("/password/reset", h.ResetPassword)
	g.POST("/logout", h.Logout)
}

// RegisterAPIRoutes mounts the routes that need an authenticated caller.
// api must already run the auth middleware.
func (h *Handler) RegisterAPIRoutes(api gin.IRouter, requireAdmin gin.HandlerFunc) {
	api.GET("/me", h.Me)
	api.GET("/me/profile", h.Profile)
	api.PUT("/me/phone", h.UpdatePhone)
	api.GET("/users/:matricula", h.PublicUser)
	api.PUT("/users/:matricula/phone", requireAdmin, h.AdminSetPhone)
}

// RegisterAdminRoutes mounts the account administration routes. admin
// must already run the auth and admin middleware.
func (h *Handler) RegisterAdminRoutes(admin gin.IRouter) {
	admin.GET("/users", h.ListUsers)
	admin.POST("/users/:matricula/toggle-admin", h.ToggleAdmin)
}

// startSession stores an active session for acc and issues its cookie.
func (h *Handler) startSession(c *gin.Context, acc *auth.Account, token string) error {
	if token == "" {
		token = acc.CachedToken
	}

	sess, err := session.New(session.KindActive, acc.Matricula, token, summaryOf(acc), h.cfg.SessionTTL)
	if err != nil {
		return err
	}
	if err := h.sessions.Create(c.Request.Context(), sess); err != nil {
		return err
	}

	session.SetCookie(c.Writer, session.CookieName, sess.SessionID, sess.ExpiresAt, h.cookies)
	return nil
}

func summaryOf(acc *auth.Account) auth.ProfileSummary {
	return auth.ProfileSummary{
		DisplayName: acc.DisplayName,
		Course:      acc.Course,
		Campus:      acc.Campus,
		PhotoURL:    acc.PhotoURL,
	}
}

// fail maps service errors to HTTP responses.
func fail(c *gin.Context, err error) {
	var exErr *credentials.ExchangeError

	switch {
	case errors.Is(err, credentials.ErrInvalidCredentials):
		httpx.Error(c, http.StatusUnauthorized, "invalid_credentials",
			"Invalid credentials. Check your matricula and password.")
	case errors.Is(err, credentials.ErrNotEligible):
		httpx.Error(c, http.StatusForbidden, "not_eligible",
			"Access is restricted to students with an active enrollment at IFRN.")
	case errors.Is(err, credentials.ErrPasswordTooShort):
		httpx.Error(c, http.StatusBadRequest, "password_too_short",
			fmt.Sprintf("Password must have at least %d characters.", credentials.MinPasswordLength))
	case errors.Is(err, credentials.ErrPasswordMismatch):
		httpx.Error(c, http.StatusBadRequest, "password_mismatch", "Passwords do not match.")
	case errors.Is(err, credentials.ErrAlreadyRegistered):
		httpx.Error(c, http.StatusConflict, "already_registered", "Account already registered. Log in instead.")
	case errors.Is(err, credentials.ErrNotRegistered):
		httpx.Error(c, http.StatusNotFound, "not_registered", "No registered account for this matricula.")
	case errors.Is(err, credentials.ErrNoCachedToken):
		httpx.Error(c, http.StatusConflict, "no_cached_token", "Log in again to refresh your profile.")
	case errors.Is(err, resolver.ErrNotFound):
		httpx.Error(c, http.StatusNotFound, httpx.CodeNotFound, "user not found")
	case errors.As(err, &exErr):
		f := exErr.Failure
		logger.Warn("suap exchange failed", map[string]any{
			"reason":      string(f.Reason),
			"http_status": f.HTTPStatus,
			"detail":      f.Detail,
		})
		httpx.Error(c, exchangeStatus(f.Reason), string(f.Reason), f.Message())
	default:
		httpx.Internal(c, err)
	}
}

func exchangeStatus(r provider.Reason) int {
	switch r.Class() {
	case provider.ClassRetry:
		return http.StatusServiceUnavailable
	case provider.ClassCredentials:
		return http.StatusUnauthorized
	default:
		return http.StatusBadGateway
	}
}

func bindError(c *gin.Context, err error) {
	httpx.Error(c, http.StatusBadRequest, httpx.CodeBadRequest, "invalid request: "+err.Error())
}
