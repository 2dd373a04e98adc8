package market

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/allyfhpontes/reutilizaif/internal/db"
)

var _ Store = (*PostgresStore)(nil)

const productColumns = `
	id, name, price, description, owner_matricula, owner_name, kind, status,
	address, latitude, longitude, created_at, updated_at`

type PostgresStore struct {
	db *db.DB
}

func NewPostgresStore(db *db.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) CreateProduct(ctx context.Context, p Product) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO public.products (
			id, name, price, description, owner_matricula, owner_name, kind, status,
			address, latitude, longitude, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`,
		p.ID,
		p.Name,
		p.Price,
		p.Description,
		p.OwnerMatricula,
		p.OwnerName,
		string(p.Kind),
		string(p.Status),
		p.Address,
		nullFloat(p.Latitude),
		nullFloat(p.Longitude),
		p.CreatedAt,
		p.UpdatedAt,
	)
	return err
}

func (s *PostgresStore) GetProduct(ctx context.Context, id uuid.UUID) (*Product, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+productColumns+`
		FROM public.products
		WHERE id = $1
	`, id)

	return scanProduct(row)
}

func (s *PostgresStore) UpdateProduct(ctx context.Context, p Product) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE public.products
		SET name = $2,
		    price = $3,
		    description = $4,
		    kind = $5,
		    status = $6,
		    address = $7,
		    latitude = $8,
		    longitude = $9,
		    updated_at = $10
		WHERE id = $1
	`,
		p.ID,
		p.Name,
		p.Price,
		p.Description,
		string(p.Kind),
		string(p.Status),
		p.Address,
		nullFloat(p.Latitude),
		nullFloat(p.Longitude),
		p.UpdatedAt,
	)
	if err != nil {
		return err
	}
	return expectOne(res)
}

func (s *PostgresStore) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM public.products WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return expectOne(res)
}

func (s *PostgresStore) ListProducts(ctx context.Context, f Filter) ([]Product, error) {
	var (
		where []string
		args  []any
	)
	if f.Kind != "" {
		args = append(args, string(f.Kind))
		where = append(where, fmt.Sprintf("kind = $%d", len(args)))
	}
	if f.Status != "" {
		args = append(args, string(f.Status))
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	if f.Owner != "" {
		args = append(args, f.Owner)
		where = append(where, fmt.Sprintf("owner_matricula = $%d", len(args)))
	}

	query := `SELECT ` + productColumns + ` FROM public.products`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY created_at DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

func (s *PostgresStore) CountProducts(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM public.products`).Scan(&n)
	return n, err
}

func (s *PostgresStore) CountAvailableByKind(ctx context.Context) (map[Kind]int, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT kind, COUNT(*)
		FROM public.products
		WHERE status = $1
		GROUP BY kind
	`, string(StatusAvailable))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[Kind]int, len(Kinds))
	for rows.Next() {
		var (
			kind string
			n    int
		)
		if err := rows.Scan(&kind, &n); err != nil {
			return nil, err
		}
		out[Kind(kind)] = n
	}
	return out, rows.Err()
}

func (s *PostgresStore) UpsertRating(ctx context.Context, r Rating) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO public.ratings (id, product_id, rater_matricula, score, comment, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (product_id, rater_matricula)
		DO UPDATE SET score = EXCLUDED.score, comment = EXCLUDED.comment
	`,
		r.ID,
		r.ProductID,
		r.RaterMatricula,
		r.Score,
		r.Comment,
		r.CreatedAt,
	)

	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code.Name() == "foreign_key_violation" {
		return ErrNotFound
	}
	return err
}

func (s *PostgresStore) RatingSummaries(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]RatingSummary, error) {
	out := make(map[uuid.UUID]RatingSummary, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = id.String()
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT product_id, COUNT(*), AVG(score)::float8
		FROM public.ratings
		WHERE product_id = ANY($1::uuid[])
		GROUP BY product_id
	`, pq.Array(keys))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			id    uuid.UUID
			count int
			avg   float64
		)
		if err := rows.Scan(&id, &count, &avg); err != nil {
			return nil, err
		}
		out[id] = RatingSummary{Average: roundAverage(avg), Count: count}
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanProduct(s scanner) (*Product, error) {
	var (
		p         Product
		kind      string
		status    string
		latitude  sql.NullFloat64
		longitude sql.NullFloat64
	)
	err := s.Scan(
		&p.ID,
		&p.Name,
		&p.Price,
		&p.Description,
		&p.OwnerMatricula,
		&p.OwnerName,
		&kind,
		&status,
		&p.Address,
		&latitude,
		&longitude,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	p.Kind = Kind(kind)
	p.Status = Status(status)
	if latitude.Valid && longitude.Valid {
		p.Latitude = &latitude.Float64
		p.Longitude = &longitude.Float64
	}
	return &p, nil
}

func nullFloat(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}

func expectOne(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func roundAverage(avg float64) float64 {
	return math.Round(avg*10) / 10
}
