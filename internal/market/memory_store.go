package market

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
)

var _ Store = (*MemoryStore)(nil)

type ratingKey struct {
	product uuid.UUID
	rater   string
}

// MemoryStore keeps products and ratings in process memory. Used when no
// database is configured and in tests.
type MemoryStore struct {
	mu       sync.RWMutex
	products map[uuid.UUID]Product
	ratings  map[ratingKey]Rating
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		products: make(map[uuid.UUID]Product),
		ratings:  make(map[ratingKey]Rating),
	}
}

func (s *MemoryStore) CreateProduct(_ context.Context, p Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.products[p.ID] = p
	return nil
}

func (s *MemoryStore) GetProduct(_ context.Context, id uuid.UUID) (*Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.products[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &p, nil
}

func (s *MemoryStore) UpdateProduct(_ context.Context, p Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.products[p.ID]; !ok {
		return ErrNotFound
	}
	s.products[p.ID] = p
	return nil
}

func (s *MemoryStore) DeleteProduct(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.products[id]; !ok {
		return ErrNotFound
	}
	delete(s.products, id)
	for k := range s.ratings {
		if k.product == id {
			delete(s.ratings, k)
		}
	}
	return nil
}

func (s *MemoryStore) ListProducts(_ context.Context, f Filter) ([]Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Product
	for _, p := range s.products {
		if f.Kind != "" && p.Kind != f.Kind {
			continue
		}
		if f.Status != "" && p.Status != f.Status {
			continue
		}
		if f.Owner != "" && p.OwnerMatricula != f.Owner {
			continue
		}
		out = append(out, p)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID.String() < out[j].ID.String()
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (s *MemoryStore) CountProducts(context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.products), nil
}

func (s *MemoryStore) CountAvailableByKind(context.Context) (map[Kind]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[Kind]int, len(Kinds))
	for _, p := range s.products {
		if p.Status == StatusAvailable {
			out[p.Kind]++
		}
	}
	return out, nil
}

func (s *MemoryStore) UpsertRating(_ context.Context, r Rating) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.products[r.ProductID]; !ok {
		return ErrNotFound
	}

	key := ratingKey{product: r.ProductID, rater: r.RaterMatricula}
	if prev, ok := s.ratings[key]; ok {
		prev.Score = r.Score
		prev.Comment = r.Comment
		s.ratings[key] = prev
		return nil
	}
	s.ratings[key] = r
	return nil
}

func (s *MemoryStore) RatingSummaries(_ context.Context, ids []uuid.UUID) (map[uuid.UUID]RatingSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	wanted := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		wanted[id] = true
	}

	sums := make(map[uuid.UUID]int)
	counts := make(map[uuid.UUID]int)
	for k, r := range s.ratings {
		if wanted[k.product] {
			sums[k.product] += r.Score
			counts[k.product]++
		}
	}

	out := make(map[uuid.UUID]RatingSummary, len(counts))
	for id, n := range counts {
		out[id] = RatingSummary{
			Average: roundAverage(float64(sums[id]) / float64(n)),
			Count:   n,
		}
	}
	return out, nil
}
