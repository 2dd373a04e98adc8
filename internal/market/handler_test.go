package market

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/allyfhpontes/reutilizaif/internal/auth"
	"github.com/allyfhpontes/reutilizaif/internal/httpx"
	"github.com/allyfhpontes/reutilizaif/internal/middleware"
)

const testUserHeader = "X-Test-User"

// asUser stands in for the session middleware: the header names the caller.
func asUser(c *gin.Context) {
	m := c.GetHeader(testUserHeader)
	if m == "" {
		httpx.Error(c, http.StatusUnauthorized, httpx.CodeUnauthorized, "authentication required")
		return
	}
	u := auth.CurrentUser{Matricula: m, IsAdmin: m == admin.Matricula}
	if m == ana.Matricula {
		u.Profile = ana.Profile
	}
	c.Request = c.Request.WithContext(middleware.WithCurrentUser(c.Request.Context(), u))
	c.Next()
}

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	svc, _ := newTestService()
	h := NewHandler(svc)

	r := gin.New()
	h.RegisterPublicRoutes(r)
	api := r.Group("/api", asUser)
	h.RegisterAPIRoutes(api)
	h.RegisterAdminRoutes(api.Group("/admin", middleware.GinRequireAdmin()))
	return r
}

func do(t *testing.T, r http.Handler, method, path, user string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		switch b := body.(type) {
		case string:
			buf.WriteString(b)
		default:
			require.NoError(t, json.NewEncoder(&buf).Encode(b))
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if user != "" {
		req.Header.Set(testUserHeader, user)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func createProduct(t *testing.T, r http.Handler, user, body string) RatedProduct {
	t.Helper()
	w := do(t, r, http.MethodPost, "/api/products", user, body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return RatedProduct{Product: decode[Product](t, w)}
}

func TestHandler_CreateAcceptsNumericPrice(t *testing.T) {
	r := newTestRouter(t)

	p := createProduct(t, r, ana.Matricula,
		`{"name":"Calculadora","price":35.9,"kind":"venda","latitude":-5.81,"longitude":"-35.2"}`)

	assert.InDelta(t, 35.9, p.Price, 1e-9)
	assert.Equal(t, "Ana", p.OwnerName)
	assert.Equal(t, StatusAvailable, p.Status)
	require.True(t, p.Located())
	assert.InDelta(t, -5.81, *p.Latitude, 1e-9)
}

func TestHandler_CreateRejections(t *testing.T) {
	r := newTestRouter(t)

	cases := []struct {
		name string
		user string
		body string
		code int
		err  string
	}{
		{"anonymous", "", `{"name":"x","price":"1"}`, http.StatusUnauthorized, httpx.CodeUnauthorized},
		{"malformed json", ana.Matricula, `{"name":`, http.StatusBadRequest, httpx.CodeBadRequest},
		{"missing name", ana.Matricula, `{"price":"1"}`, http.StatusBadRequest, httpx.CodeBadRequest},
		{"unknown kind", ana.Matricula, `{"name":"x","kind":"aluguel"}`, http.StatusBadRequest, httpx.CodeBadRequest},
		{"sale without price", ana.Matricula, `{"name":"x"}`, http.StatusBadRequest, "invalid_price"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := do(t, r, http.MethodPost, "/api/products", tc.user, tc.body)

			assert.Equal(t, tc.code, w.Code)
			assert.Equal(t, tc.err, decode[httpx.ErrorBody](t, w).Code)
		})
	}
}

func TestHandler_ListingsAndMine(t *testing.T) {
	r := newTestRouter(t)

	createProduct(t, r, ana.Matricula, `{"name":"Livro","price":"10"}`)
	createProduct(t, r, bia.Matricula, `{"name":"Jaleco","kind":"troca"}`)

	w := do(t, r, http.MethodGet, "/api/products", bia.Matricula, nil)
	require.Equal(t, http.StatusOK, w.Code)
	all := decode[struct {
		Products []RatedProduct `json:"products"`
	}](t, w)
	assert.Len(t, all.Products, 2)

	w = do(t, r, http.MethodGet, "/api/products?kind=troca", bia.Matricula, nil)
	swaps := decode[struct {
		Products []RatedProduct `json:"products"`
	}](t, w)
	require.Len(t, swaps.Products, 1)
	assert.Equal(t, "Jaleco", swaps.Products[0].Name)

	w = do(t, r, http.MethodGet, "/api/products?kind=aluguel", bia.Matricula, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, r, http.MethodGet, "/api/products/mine", ana.Matricula, nil)
	require.Equal(t, http.StatusOK, w.Code)
	mine := decode[struct {
		Products []RatedProduct `json:"products"`
	}](t, w)
	require.Len(t, mine.Products, 1)
	assert.Equal(t, "Livro", mine.Products[0].Name)
}

func TestHandler_GetUnknownOrMalformedID(t *testing.T) {
	r := newTestRouter(t)

	for _, path := range []string{
		"/api/products/not-a-uuid",
		"/api/products/6f1c2d8e-6a7b-4f39-9a3e-2f0c1b7d9e11",
	} {
		w := do(t, r, http.MethodGet, path, ana.Matricula, nil)
		assert.Equal(t, http.StatusNotFound, w.Code, path)
		assert.Equal(t, httpx.CodeNotFound, decode[httpx.ErrorBody](t, w).Code)
	}
}

func TestHandler_UpdateDeleteOwnership(t *testing.T) {
	r := newTestRouter(t)
	p := createProduct(t, r, ana.Matricula, `{"name":"Livro","price":"10"}`)
	path := "/api/products/" + p.ID.String()

	w := do(t, r, http.MethodPut, path, bia.Matricula, `{"name":"Meu","price":"1"}`)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = do(t, r, http.MethodPut, path, ana.Matricula, `{"name":"Livro","price":"8","status":"reservado"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	updated := decode[Product](t, w)
	assert.Equal(t, StatusReserved, updated.Status)
	assert.InDelta(t, 8.0, updated.Price, 1e-9)

	w = do(t, r, http.MethodDelete, path, bia.Matricula, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = do(t, r, http.MethodDelete, path, admin.Matricula, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = do(t, r, http.MethodGet, path, ana.Matricula, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandler_Rate(t *testing.T) {
	r := newTestRouter(t)
	p := createProduct(t, r, ana.Matricula, `{"name":"Livro","price":"10"}`)
	path := "/api/products/" + p.ID.String() + "/ratings"

	w := do(t, r, http.MethodPost, path, bia.Matricula, `{"score":6}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid_score", decode[httpx.ErrorBody](t, w).Code)

	w = do(t, r, http.MethodPost, path, bia.Matricula, `{"score":4,"comment":"ok"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	w = do(t, r, http.MethodPost, path, admin.Matricula, `{"score":5}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, RatingSummary{Average: 4.5, Count: 2}, decode[RatingSummary](t, w))

	w = do(t, r, http.MethodGet, "/api/products/"+p.ID.String(), bia.Matricula, nil)
	require.Equal(t, http.StatusOK, w.Code)
	got := decode[RatedProduct](t, w)
	assert.Equal(t, 2, got.Count)

	w = do(t, r, http.MethodPost, "/api/products/6f1c2d8e-6a7b-4f39-9a3e-2f0c1b7d9e11/ratings", bia.Matricula, `{"score":3}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandler_StatsIsPublic(t *testing.T) {
	r := newTestRouter(t)
	createProduct(t, r, ana.Matricula, `{"name":"Livro","price":"10"}`)

	w := do(t, r, http.MethodGet, "/stats", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	stats := decode[Stats](t, w)
	assert.Equal(t, 3, stats.TotalUsers)
	assert.Equal(t, 1, stats.TotalProducts)
	assert.Equal(t, map[Kind]int{KindSale: 1, KindExchange: 0, KindDonation: 0}, stats.AvailableByKind)
}

func TestHandler_AdminListing(t *testing.T) {
	r := newTestRouter(t)
	createProduct(t, r, ana.Matricula, `{"name":"Livro","price":"10"}`)

	w := do(t, r, http.MethodGet, "/api/admin/products", ana.Matricula, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = do(t, r, http.MethodGet, "/api/admin/products", admin.Matricula, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"Livro"`)
}
