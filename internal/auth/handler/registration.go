package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/allyfhpontes/reutilizaif/internal/auth/credentials"
	"github.com/allyfhpontes/reutilizaif/internal/httpx"
	"github.com/allyfhpontes/reutilizaif/internal/session"
)

type registerRequest struct {
	Password        string `json:"password" form:"password" binding:"required"`
	ConfirmPassword string `json:"confirm_password" form:"confirm_password" binding:"required"`
}

// Register completes a pending registration with a local password and
// logs the caller in.
func (h *Handler) Register(c *gin.Context) {
	pending, sid, ok := h.loadRegistration(c)
	if !ok {
		httpx.Error(c, http.StatusUnauthorized, "registration_expired",
			"Registration expired. Log in with your SUAP credentials again.")
		return
	}

	var req registerRequest
	if err := c.ShouldBind(&req); err != nil {
		bindError(c, err)
		return
	}

	acc, err := h.credentials.Register(c.Request.Context(), pending, req.Password, req.ConfirmPassword)
	if err != nil {
		fail(c, err)
		return
	}

	_ = h.sessions.Delete(c.Request.Context(), sid)
	session.ClearCookie(c.Writer, session.RegistrationCookieName, h.cookies)

	if err := h.startSession(c, acc, pending.Token); err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"status":       "registered",
		"matricula":    acc.Matricula,
		"display_name": acc.DisplayName,
	})
}

// startRegistration stores a pending session and issues the short-lived
// registration cookie.
func (h *Handler) startRegistration(c *gin.Context, p *credentials.Pending) error {
	sess, err := session.New(session.KindPending, p.Matricula, p.Token, p.Profile, h.cfg.RegistrationTTL)
	if err != nil {
		return err
	}
	if err := h.sessions.Create(c.Request.Context(), sess); err != nil {
		return err
	}

	session.SetCookie(c.Writer, session.RegistrationCookieName, sess.SessionID, sess.ExpiresAt, h.cookies)
	return nil
}

func (h *Handler) loadRegistration(c *gin.Context) (credentials.Pending, string, bool) {
	sid := session.ReadCookie(c.Request, session.RegistrationCookieName)
	if sid == "" {
		return credentials.Pending{}, "", false
	}

	sess, err := h.sessions.Get(c.Request.Context(), sid)
	if err != nil || sess == nil || sess.Kind != session.KindPending {
		return credentials.Pending{}, "", false
	}

	return credentials.Pending{
		Matricula: sess.Matricula,
		Token:     sess.Token,
		Profile:   sess.Profile,
	}, sid, true
}

func (h *Handler) dropRegistration(c *gin.Context) {
	if sid := session.ReadCookie(c.Request, session.RegistrationCookieName); sid != "" {
		_ = h.sessions.Delete(c.Request.Context(), sid)
		session.ClearCookie(c.Writer, session.RegistrationCookieName, h.cookies)
	}
}

func sessionCookie(c *gin.Context) string {
	return session.ReadCookie(c.Request, session.CookieName)
}
