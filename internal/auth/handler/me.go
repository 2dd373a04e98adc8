package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/allyfhpontes/reutilizaif/internal/auth"
	"github.com/allyfhpontes/reutilizaif/internal/auth/resolver"
	"github.com/allyfhpontes/reutilizaif/internal/httpx"
	"github.com/allyfhpontes/reutilizaif/internal/logger"
	"github.com/allyfhpontes/reutilizaif/internal/middleware"
)

type meResponse struct {
	Matricula   string              `json:"matricula"`
	DisplayName string              `json:"display_name"`
	Profile     auth.ProfileSummary `json:"profile"`
	Phone       string              `json:"phone"`
	IsAdmin     bool                `json:"is_admin"`
}

type phoneRequest struct {
	Phone string `json:"phone" form:"phone" binding:"omitempty,max=30"`
}

func (h *Handler) Me(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		httpx.Error(c, http.StatusUnauthorized, httpx.CodeUnauthorized, "authentication required")
		return
	}

	resp := meResponse{
		Matricula:   user.Matricula,
		DisplayName: user.DisplayName(),
		Profile:     user.Profile,
		IsAdmin:     user.IsAdmin,
	}

	acc, err := h.accounts.Lookup(c.Request.Context(), user.Matricula)
	switch {
	case err == nil:
		resp.Phone = acc.Phone
	case !errors.Is(err, resolver.ErrNotFound):
		httpx.Internal(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// Profile returns the cached profile summary. With ?refresh=1 it reloads
// the profile from SUAP first and updates both the account and the
// session.
func (h *Handler) Profile(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		httpx.Error(c, http.StatusUnauthorized, httpx.CodeUnauthorized, "authentication required")
		return
	}

	if c.Query("refresh") != "1" {
		c.JSON(http.StatusOK, gin.H{"profile": user.Profile, "refreshed": false})
		return
	}

	acc, err := h.credentials.RefreshProfile(c.Request.Context(), user.Matricula, user.Token)
	if err != nil {
		fail(c, err)
		return
	}

	summary := summaryOf(acc)
	if sid := sessionCookie(c); sid != "" {
		if sess, err := h.sessions.Get(c.Request.Context(), sid); err == nil && sess != nil {
			sess.Profile = summary
			if err := h.sessions.Update(c.Request.Context(), *sess); err != nil {
				logger.Warn("session profile update failed", map[string]any{
					"matricula": user.Matricula,
					"error":     err.Error(),
				})
			}
		}
	}

	c.JSON(http.StatusOK, gin.H{"profile": summary, "refreshed": true})
}

func (h *Handler) UpdatePhone(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		httpx.Error(c, http.StatusUnauthorized, httpx.CodeUnauthorized, "authentication required")
		return
	}
	h.setPhone(c, user.Matricula)
}

// AdminSetPhone sets another user's phone, creating the record if needed.
func (h *Handler) AdminSetPhone(c *gin.Context) {
	h.setPhone(c, c.Param("matricula"))
}

func (h *Handler) setPhone(c *gin.Context, matricula string) {
	var req phoneRequest
	if err := c.ShouldBind(&req); err != nil {
		bindError(c, err)
		return
	}

	acc, err := h.accounts.Resolve(c.Request.Context(), matricula, func(a *auth.Account) error {
		a.Phone = strings.TrimSpace(req.Phone)
		return nil
	})
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"matricula": acc.Matricula, "phone": acc.Phone})
}
