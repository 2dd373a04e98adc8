package resolver

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/allyfhpontes/reutilizaif/internal/auth"
	"github.com/allyfhpontes/reutilizaif/internal/db"
)

const accountColumns = `
	matricula, password_hash, cached_token, display_name, course, campus,
	photo_url, phone, is_admin, created_at, updated_at`

var _ Resolver = (*DBResolver)(nil)

// DBResolver stores accounts in Postgres.
type DBResolver struct {
	db *db.DB
}

func NewDBResolver(db *db.DB) *DBResolver {
	return &DBResolver{db: db}
}

func (r *DBResolver) Lookup(ctx context.Context, matricula string) (*auth.Account, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+accountColumns+`
		FROM public.accounts
		WHERE matricula = $1
	`, matricula)

	return scanAccount(row)
}

func (r *DBResolver) Resolve(ctx context.Context, matricula string, fn Mutation) (*auth.Account, error) {
	return r.mutate(ctx, matricula, fn, true)
}

func (r *DBResolver) Update(ctx context.Context, matricula string, fn Mutation) (*auth.Account, error) {
	return r.mutate(ctx, matricula, fn, false)
}

func (r *DBResolver) mutate(
	ctx context.Context,
	matricula string,
	fn Mutation,
	create bool,
) (*auth.Account, error) {

	matricula = strings.TrimSpace(matricula)
	if matricula == "" {
		return nil, errors.New("matricula is empty")
	}

	var out *auth.Account
	err := r.db.WithTx(ctx, func(tx *sql.Tx) error {
		// 1. Create the row if needed; a concurrent creator makes this a no-op
		if create {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO public.accounts (matricula)
				VALUES ($1)
				ON CONFLICT (matricula) DO NOTHING
			`, matricula); err != nil {
				return err
			}
		}

		// 2. Lock it for the rest of the transaction
		acc, err := scanAccount(tx.QueryRowContext(ctx, `
			SELECT `+accountColumns+`
			FROM public.accounts
			WHERE matricula = $1
			FOR UPDATE
		`, matricula))
		if err != nil {
			return err
		}

		// 3. Apply the caller's change
		if fn != nil {
			if err := fn(acc); err != nil {
				return err
			}
		}
		acc.Matricula = matricula

		// 4. Persist
		err = tx.QueryRowContext(ctx, `
			UPDATE public.accounts
			SET password_hash = $2,
			    cached_token = $3,
			    display_name = $4,
			    course = $5,
			    campus = $6,
			    photo_url = $7,
			    phone = $8,
			    is_admin = $9,
			    updated_at = NOW()
			WHERE matricula = $1
			RETURNING updated_at
		`,
			acc.Matricula,
			acc.PasswordHash,
			acc.CachedToken,
			acc.DisplayName,
			acc.Course,
			acc.Campus,
			acc.PhotoURL,
			acc.Phone,
			acc.IsAdmin,
		).Scan(&acc.UpdatedAt)
		if err != nil {
			return err
		}

		out = acc
		return nil
	})
	if err != nil {
		return nil, err
	}

	return out, nil
}

func (r *DBResolver) List(ctx context.Context) ([]auth.Account, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+accountColumns+`
		FROM public.accounts
		ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []auth.Account
	for rows.Next() {
		acc, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *acc)
	}
	return out, rows.Err()
}

func (r *DBResolver) Count(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM public.accounts`).Scan(&n)
	return n, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanAccount(s scanner) (*auth.Account, error) {
	var a auth.Account
	err := s.Scan(
		&a.Matricula,
		&a.PasswordHash,
		&a.CachedToken,
		&a.DisplayName,
		&a.Course,
		&a.Campus,
		&a.PhotoURL,
		&a.Phone,
		&a.IsAdmin,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}
