package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/allyfhpontes/reutilizaif/internal/logger"
	"github.com/allyfhpontes/reutilizaif/internal/session"
)

type loginRequest struct {
	Matricula string `json:"matricula" form:"matricula" binding:"required,matricula"`
	Password  string `json:"password" form:"password" binding:"required"`
}

// Login authenticates a matricula/password pair. Registered accounts get
// an active session; first logins get a pending registration instead.
func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBind(&req); err != nil {
		bindError(c, err)
		return
	}

	res, err := h.credentials.Login(c.Request.Context(), req.Matricula, req.Password)
	if err != nil {
		fail(c, err)
		return
	}

	if res.Pending != nil {
		if err := h.startRegistration(c, res.Pending); err != nil {
			fail(c, err)
			return
		}

		c.JSON(http.StatusAccepted, gin.H{
			"status":    "registration_required",
			"matricula": res.Pending.Matricula,
			"profile":   res.Pending.Profile,
		})
		return
	}

	if err := h.startSession(c, res.Account, ""); err != nil {
		fail(c, err)
		return
	}
	h.dropRegistration(c)

	logger.Info("login success", map[string]any{
		"matricula": res.Account.Matricula,
		"ip":        c.ClientIP(),
	})

	c.JSON(http.StatusOK, gin.H{
		"status":       "authenticated",
		"matricula":    res.Account.Matricula,
		"display_name": res.Account.DisplayName,
	})
}

// Logout drops both the active session and any pending registration.
// It always succeeds.
func (h *Handler) Logout(c *gin.Context) {
	if sid := sessionCookie(c); sid != "" {
		_ = h.sessions.Delete(c.Request.Context(), sid)
		logger.Info("logout", map[string]any{
			"ip": c.ClientIP(),
		})
	}
	h.dropRegistration(c)

	session.ClearCookie(c.Writer, session.CookieName, h.cookies)
	c.Status(http.StatusNoContent)
}
