package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/allyfhpontes/reutilizaif/internal/auth"
	"github.com/allyfhpontes/reutilizaif/internal/httpx"
	"github.com/allyfhpontes/reutilizaif/internal/logger"
	"github.com/allyfhpontes/reutilizaif/internal/middleware"
)

type publicUser struct {
	Matricula   string `json:"matricula"`
	DisplayName string `json:"display_name"`
	Course      string `json:"course,omitempty"`
	Campus      string `json:"campus,omitempty"`
	PhotoURL    string `json:"photo_url,omitempty"`
	Phone       string `json:"phone,omitempty"`
}

func (h *Handler) PublicUser(c *gin.Context) {
	acc, err := h.accounts.Lookup(c.Request.Context(), c.Param("matricula"))
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, publicUser{
		Matricula:   acc.Matricula,
		DisplayName: displayName(acc),
		Course:      acc.Course,
		Campus:      acc.Campus,
		PhotoURL:    acc.PhotoURL,
		Phone:       acc.Phone,
	})
}

type adminUser struct {
	Matricula   string    `json:"matricula"`
	DisplayName string    `json:"display_name"`
	Course      string    `json:"course,omitempty"`
	Campus      string    `json:"campus,omitempty"`
	Phone       string    `json:"phone,omitempty"`
	Registered  bool      `json:"registered"`
	IsAdmin     bool      `json:"is_admin"`
	ConfigAdmin bool      `json:"config_admin"`
	CreatedAt   time.Time `json:"created_at"`
}

func (h *Handler) ListUsers(c *gin.Context) {
	accounts, err := h.accounts.List(c.Request.Context())
	if err != nil {
		httpx.Internal(c, err)
		return
	}

	out := make([]adminUser, 0, len(accounts))
	for i := range accounts {
		acc := &accounts[i]
		configAdmin := h.cfg.ConfigAdmin(acc.Matricula)
		out = append(out, adminUser{
			Matricula:   acc.Matricula,
			DisplayName: displayName(acc),
			Course:      acc.Course,
			Campus:      acc.Campus,
			Phone:       acc.Phone,
			Registered:  acc.Bootstrapped(),
			IsAdmin:     configAdmin || acc.IsAdmin,
			ConfigAdmin: configAdmin,
			CreatedAt:   acc.CreatedAt,
		})
	}

	c.JSON(http.StatusOK, gin.H{"users": out})
}

// ToggleAdmin flips the stored admin flag. Admins granted by
// configuration stay admins whatever the flag says.
func (h *Handler) ToggleAdmin(c *gin.Context) {
	acc, err := h.accounts.Update(c.Request.Context(), c.Param("matricula"), func(a *auth.Account) error {
		a.IsAdmin = !a.IsAdmin
		return nil
	})
	if err != nil {
		fail(c, err)
		return
	}

	actor, _ := middleware.CurrentUser(c)
	logger.Info("admin flag toggled", map[string]any{
		"matricula": acc.Matricula,
		"is_admin":  acc.IsAdmin,
		"by":        actor.Matricula,
	})

	c.JSON(http.StatusOK, gin.H{
		"matricula":    acc.Matricula,
		"is_admin":     acc.IsAdmin || h.cfg.ConfigAdmin(acc.Matricula),
		"config_admin": h.cfg.ConfigAdmin(acc.Matricula),
	})
}

func displayName(acc *auth.Account) string {
	if acc.DisplayName != "" {
		return acc.DisplayName
	}
	return acc.Matricula
}
