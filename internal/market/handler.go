package market

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/allyfhpontes/reutilizaif/internal/httpx"
	"github.com/allyfhpontes/reutilizaif/internal/middleware"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterPublicRoutes mounts the routes open to anonymous visitors.
func (h *Handler) RegisterPublicRoutes(r gin.IRouter) {
	r.GET("/stats", h.Stats)
}

// RegisterAPIRoutes mounts the product routes. api must already run the
// auth middleware.
func (h *Handler) RegisterAPIRoutes(api gin.IRouter) {
	g := api.Group("/products")
	g.GET("", h.ListAvailable)
	g.GET("/mine", h.ListMine)
	g.POST("", h.Create)
	g.GET("/:id", h.Get)
	g.PUT("/:id", h.Update)
	g.DELETE("/:id", h.Delete)
	g.POST("/:id/ratings", h.Rate)
}

// RegisterAdminRoutes mounts the admin listing. admin must already run
// the auth and admin middleware.
func (h *Handler) RegisterAdminRoutes(admin gin.IRouter) {
	admin.GET("/products", h.ListAll)
}

// flexString accepts a JSON string or number, so clients can send prices
// and coordinates either way.
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*f = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*f = flexString(n.String())
	return nil
}

type productRequest struct {
	Name        string     `json:"name" binding:"required,max=100"`
	Price       flexString `json:"price"`
	Description string     `json:"description" binding:"max=500"`
	Kind        Kind       `json:"kind" binding:"omitempty,oneof=venda troca doacao"`
	Status      Status     `json:"status" binding:"omitempty,oneof=disponivel vendido trocado reservado"`
	Address     string     `json:"address" binding:"max=200"`
	Latitude    flexString `json:"latitude"`
	Longitude   flexString `json:"longitude"`
}

func (r productRequest) input() ProductInput {
	return ProductInput{
		Name:        r.Name,
		Price:       string(r.Price),
		Description: r.Description,
		Kind:        r.Kind,
		Status:      r.Status,
		Address:     r.Address,
		Latitude:    string(r.Latitude),
		Longitude:   string(r.Longitude),
	}
}

type ratingRequest struct {
	Score   int    `json:"score" binding:"required,min=1,max=5"`
	Comment string `json:"comment" binding:"max=500"`
}

func (h *Handler) Stats(c *gin.Context) {
	stats, err := h.service.Stats(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *Handler) ListAvailable(c *gin.Context) {
	kind := Kind(c.Query("kind"))
	if kind != "" && !kind.Valid() {
		httpx.Error(c, http.StatusBadRequest, "invalid_kind", "kind must be venda, troca or doacao")
		return
	}

	products, err := h.service.ListAvailable(c.Request.Context(), kind)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"products": products})
}

func (h *Handler) ListMine(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		httpx.Error(c, http.StatusUnauthorized, httpx.CodeUnauthorized, "authentication required")
		return
	}

	products, err := h.service.ListByOwner(c.Request.Context(), user.Matricula)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"products": products})
}

func (h *Handler) ListAll(c *gin.Context) {
	products, err := h.service.ListAll(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"products": products})
}

func (h *Handler) Create(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		httpx.Error(c, http.StatusUnauthorized, httpx.CodeUnauthorized, "authentication required")
		return
	}

	var req productRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.Error(c, http.StatusBadRequest, httpx.CodeBadRequest, "invalid request: "+err.Error())
		return
	}

	p, err := h.service.Create(c.Request.Context(), user, req.input())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

func (h *Handler) Get(c *gin.Context) {
	id, ok := productID(c)
	if !ok {
		return
	}

	p, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *Handler) Update(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)
	id, ok := productID(c)
	if !ok {
		return
	}

	var req productRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.Error(c, http.StatusBadRequest, httpx.CodeBadRequest, "invalid request: "+err.Error())
		return
	}

	p, err := h.service.Update(c.Request.Context(), user, id, req.input())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *Handler) Delete(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)
	id, ok := productID(c)
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), user, id); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) Rate(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)
	id, ok := productID(c)
	if !ok {
		return
	}

	var req ratingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.Error(c, http.StatusBadRequest, "invalid_score", "score must be between 1 and 5")
		return
	}

	summary, err := h.service.Rate(c.Request.Context(), user, id, req.Score, req.Comment)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

func productID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpx.Error(c, http.StatusNotFound, httpx.CodeNotFound, "product not found")
		return uuid.Nil, false
	}
	return id, true
}

func fail(c *gin.Context, err error) {
	var vErr *ValidationError

	switch {
	case errors.As(err, &vErr):
		httpx.Error(c, http.StatusBadRequest, "invalid_"+vErr.Field, vErr.Message)
	case errors.Is(err, ErrNotFound):
		httpx.Error(c, http.StatusNotFound, httpx.CodeNotFound, "product not found")
	case errors.Is(err, ErrForbidden):
		httpx.Error(c, http.StatusForbidden, httpx.CodeForbidden, err.Error())
	case errors.Is(err, ErrInvalidScore):
		httpx.Error(c, http.StatusBadRequest, "invalid_score", err.Error())
	default:
		httpx.Internal(c, err)
	}
}
