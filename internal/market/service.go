package market

import (
	"context"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/allyfhpontes/reutilizaif/internal/auth"
	"github.com/allyfhpontes/reutilizaif/internal/logger"
)

// UserCounter reports how many local accounts exist.
type UserCounter interface {
	Count(ctx context.Context) (int, error)
}

// ProductInput is the user-editable part of a product. Price and
// coordinates arrive as text and accept a comma as decimal separator.
type ProductInput struct {
	Name        string
	Price       string
	Description string
	Kind        Kind
	// Status is only honored on update; new products are always available.
	Status    Status
	Address   string
	Latitude  string
	Longitude string
}

type Service struct {
	store Store
	users UserCounter
	now   func() time.Time
}

func NewService(store Store, users UserCounter) *Service {
	return &Service{store: store, users: users, now: time.Now}
}

func (s *Service) Create(ctx context.Context, owner auth.CurrentUser, in ProductInput) (*Product, error) {
	p := Product{
		ID:             uuid.New(),
		OwnerMatricula: owner.Matricula,
		OwnerName:      owner.DisplayName(),
		Status:         StatusAvailable,
	}
	in.Status = ""
	if err := apply(&p, in); err != nil {
		return nil, err
	}

	p.CreatedAt = s.now()
	p.UpdatedAt = p.CreatedAt
	if err := s.store.CreateProduct(ctx, p); err != nil {
		return nil, err
	}

	logger.Info("product created", map[string]any{
		"product_id": p.ID.String(),
		"owner":      p.OwnerMatricula,
		"kind":       string(p.Kind),
	})
	return &p, nil
}

func (s *Service) Update(
	ctx context.Context,
	user auth.CurrentUser,
	id uuid.UUID,
	in ProductInput,
) (*Product, error) {

	p, err := s.editable(ctx, user, id)
	if err != nil {
		return nil, err
	}
	if err := apply(p, in); err != nil {
		return nil, err
	}

	p.UpdatedAt = s.now()
	if err := s.store.UpdateProduct(ctx, *p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Service) Delete(ctx context.Context, user auth.CurrentUser, id uuid.UUID) error {
	p, err := s.editable(ctx, user, id)
	if err != nil {
		return err
	}
	if err := s.store.DeleteProduct(ctx, p.ID); err != nil {
		return err
	}

	logger.Info("product deleted", map[string]any{
		"product_id": p.ID.String(),
		"by":         user.Matricula,
	})
	return nil
}

// editable loads a product the caller may change.
func (s *Service) editable(ctx context.Context, user auth.CurrentUser, id uuid.UUID) (*Product, error) {
	p, err := s.store.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.OwnerMatricula != user.Matricula && !user.IsAdmin {
		return nil, ErrForbidden
	}
	return p, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*RatedProduct, error) {
	p, err := s.store.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}

	rated, err := s.withRatings(ctx, []Product{*p})
	if err != nil {
		return nil, err
	}
	return &rated[0], nil
}

// ListAvailable lists available products, optionally of one kind.
func (s *Service) ListAvailable(ctx context.Context, kind Kind) ([]RatedProduct, error) {
	return s.list(ctx, Filter{Kind: kind, Status: StatusAvailable})
}

func (s *Service) ListByOwner(ctx context.Context, matricula string) ([]RatedProduct, error) {
	return s.list(ctx, Filter{Owner: matricula})
}

// ListAll lists every product regardless of status.
func (s *Service) ListAll(ctx context.Context) ([]RatedProduct, error) {
	return s.list(ctx, Filter{})
}

func (s *Service) list(ctx context.Context, f Filter) ([]RatedProduct, error) {
	products, err := s.store.ListProducts(ctx, f)
	if err != nil {
		return nil, err
	}
	return s.withRatings(ctx, products)
}

// withRatings attaches rating summaries, fetched in a single query.
func (s *Service) withRatings(ctx context.Context, products []Product) ([]RatedProduct, error) {
	ids := make([]uuid.UUID, len(products))
	for i := range products {
		ids[i] = products[i].ID
	}

	summaries, err := s.store.RatingSummaries(ctx, ids)
	if err != nil {
		return nil, err
	}

	out := make([]RatedProduct, len(products))
	for i := range products {
		out[i] = RatedProduct{Product: products[i], RatingSummary: summaries[products[i].ID]}
	}
	return out, nil
}

// Rate records the caller's score for a product and returns the new
// summary.
func (s *Service) Rate(
	ctx context.Context,
	rater auth.CurrentUser,
	productID uuid.UUID,
	score int,
	comment string,
) (RatingSummary, error) {

	if score < 1 || score > 5 {
		return RatingSummary{}, ErrInvalidScore
	}

	err := s.store.UpsertRating(ctx, Rating{
		ID:             uuid.New(),
		ProductID:      productID,
		RaterMatricula: rater.Matricula,
		Score:          score,
		Comment:        strings.TrimSpace(comment),
		CreatedAt:      s.now(),
	})
	if err != nil {
		return RatingSummary{}, err
	}

	summaries, err := s.store.RatingSummaries(ctx, []uuid.UUID{productID})
	if err != nil {
		return RatingSummary{}, err
	}
	return summaries[productID], nil
}

func (s *Service) Stats(ctx context.Context) (Stats, error) {
	users, err := s.users.Count(ctx)
	if err != nil {
		return Stats{}, err
	}
	products, err := s.store.CountProducts(ctx)
	if err != nil {
		return Stats{}, err
	}
	byKind, err := s.store.CountAvailableByKind(ctx)
	if err != nil {
		return Stats{}, err
	}

	for _, k := range Kinds {
		if _, ok := byKind[k]; !ok {
			byKind[k] = 0
		}
	}

	return Stats{
		TotalUsers:      users,
		TotalProducts:   products,
		AvailableByKind: byKind,
	}, nil
}

// apply validates in and copies it onto p.
func apply(p *Product, in ProductInput) error {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return &ValidationError{Field: "name", Message: "name is required"}
	}

	kind := in.Kind
	if kind == "" {
		kind = KindSale
	}
	if !kind.Valid() {
		return &ValidationError{Field: "kind", Message: "kind must be venda, troca or doacao"}
	}

	price := 0.0
	if kind == KindSale {
		raw := strings.TrimSpace(in.Price)
		if raw == "" {
			return &ValidationError{Field: "price", Message: "price is required for products on sale"}
		}
		v, err := parseDecimal(raw)
		if err != nil || v < 0 {
			return &ValidationError{Field: "price", Message: "price must be a non-negative number"}
		}
		price = v
	}

	if in.Status != "" {
		if !in.Status.Valid() {
			return &ValidationError{Field: "status", Message: "unknown status"}
		}
		p.Status = in.Status
	}

	p.Name = name
	p.Kind = kind
	p.Price = price
	p.Description = strings.TrimSpace(in.Description)
	p.Address = strings.TrimSpace(in.Address)
	p.Latitude, p.Longitude = parseCoordinates(in.Latitude, in.Longitude)
	return nil
}

// parseCoordinates keeps a pair only when both halves parse and fall in
// range; anything else clears the location.
func parseCoordinates(lat, lon string) (*float64, *float64) {
	lat, lon = strings.TrimSpace(lat), strings.TrimSpace(lon)
	if lat == "" || lon == "" {
		return nil, nil
	}

	la, err := parseDecimal(lat)
	if err != nil || la < -90 || la > 90 {
		return nil, nil
	}
	lo, err := parseDecimal(lon)
	if err != nil || lo < -180 || lo > 180 {
		return nil, nil
	}
	return &la, &lo
}

func parseDecimal(s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", "."), 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, strconv.ErrSyntax
	}
	return v, nil
}
