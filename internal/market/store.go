package market

import (
	"context"

	"github.com/google/uuid"
)

// Store persists products and ratings.
type Store interface {
	CreateProduct(ctx context.Context, p Product) error
	// GetProduct returns ErrNotFound when no product has id.
	GetProduct(ctx context.Context, id uuid.UUID) (*Product, error)
	UpdateProduct(ctx context.Context, p Product) error
	DeleteProduct(ctx context.Context, id uuid.UUID) error
	// ListProducts returns matching products, newest first.
	ListProducts(ctx context.Context, f Filter) ([]Product, error)
	CountProducts(ctx context.Context) (int, error)
	// CountAvailableByKind counts available products per kind.
	CountAvailableByKind(ctx context.Context) (map[Kind]int, error)

	// UpsertRating inserts r, or replaces the score and comment of the
	// rater's previous rating for the same product.
	UpsertRating(ctx context.Context, r Rating) error
	// RatingSummaries aggregates ratings for ids in one pass. Products
	// without ratings are absent from the result.
	RatingSummaries(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]RatingSummary, error)
}
