package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type resetPasswordRequest struct {
	Matricula       string `json:"matricula" form:"matricula" binding:"required,matricula"`
	SUAPPassword    string `json:"suap_password" form:"suap_password" binding:"required"`
	NewPassword     string `json:"new_password" form:"new_password" binding:"required"`
	ConfirmPassword string `json:"confirm_password" form:"confirm_password" binding:"required"`
}

// ResetPassword lets a registered user who forgot the local password set
// a new one by proving their SUAP credentials again.
func (h *Handler) ResetPassword(c *gin.Context) {
	var req resetPasswordRequest
	if err := c.ShouldBind(&req); err != nil {
		bindError(c, err)
		return
	}

	acc, err := h.credentials.ResetPassword(
		c.Request.Context(),
		req.Matricula,
		req.SUAPPassword,
		req.NewPassword,
		req.ConfirmPassword,
	)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":    "password_reset",
		"matricula": acc.Matricula,
	})
}
