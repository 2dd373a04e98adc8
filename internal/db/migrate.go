package db

import (
	"context"
	"database/sql"
)

const schema = `
CREATE TABLE IF NOT EXISTS accounts (
    matricula text PRIMARY KEY,
    password_hash text NOT NULL DEFAULT '',
    cached_token text NOT NULL DEFAULT '',
    display_name text NOT NULL DEFAULT '',
    course text NOT NULL DEFAULT '',
    campus text NOT NULL DEFAULT '',
    photo_url text NOT NULL DEFAULT '',
    phone text NOT NULL DEFAULT '',
    is_admin boolean NOT NULL DEFAULT false,
    created_at timestamptz NOT NULL DEFAULT NOW(),
    updated_at timestamptz NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS products (
    id uuid PRIMARY KEY,
    name text NOT NULL,
    price numeric(12,2) NOT NULL DEFAULT 0,
    description text NOT NULL DEFAULT '',
    owner_matricula text NOT NULL,
    owner_name text NOT NULL DEFAULT '',
    kind text NOT NULL DEFAULT 'venda',
    status text NOT NULL DEFAULT 'disponivel',
    address text NOT NULL DEFAULT '',
    latitude double precision,
    longitude double precision,
    created_at timestamptz NOT NULL DEFAULT NOW(),
    updated_at timestamptz NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS products_owner_idx
ON products (owner_matricula);

CREATE INDEX IF NOT EXISTS products_kind_status_idx
ON products (kind, status);

CREATE TABLE IF NOT EXISTS ratings (
    id uuid PRIMARY KEY,
    product_id uuid NOT NULL REFERENCES products(id) ON DELETE CASCADE,
    rater_matricula text NOT NULL,
    score smallint NOT NULL CHECK (score BETWEEN 1 AND 5),
    comment text NOT NULL DEFAULT '',
    created_at timestamptz NOT NULL DEFAULT NOW(),
    CONSTRAINT ratings_rater_unique
        UNIQUE (product_id, rater_matricula)
);
`

// Migrate creates the schema. It is safe to run on every start.
func Migrate(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, schema)
	return err
}
