// pkg/db/schema.go
package db

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id UUID PRIMARY KEY,
		full_name TEXT NOT NULL,
		email TEXT NOT NULL UNIQUE,
		role TEXT NOT NULL CHECK (role IN ('Vendor', 'Admin')),
		balance NUMERIC(20, 4) NOT NULL DEFAULT 0 CHECK (balance >= 0),
		currency TEXT NOT NULL DEFAULT '',
		products_sold_count INTEGER NOT NULL DEFAULT 0,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`ALTER TABLE users ADD COLUMN IF NOT EXISTS products_sold_count INTEGER NOT NULL DEFAULT 0`,
	`CREATE TABLE IF NOT EXISTS listings (
		id UUID PRIMARY KEY,
		title TEXT NOT NULL,
		description TEXT NOT NULL,
		image_urls TEXT[] NOT NULL,
		category TEXT NOT NULL DEFAULT '',
		price NUMERIC(20, 4) NOT NULL CHECK (price >= 0),
		currency TEXT NOT NULL CHECK (currency IN ('TND', 'USD')),
		quantity INTEGER NOT NULL CHECK (quantity >= 0),
		owner_id UUID NOT NULL REFERENCES users(id),
		status TEXT NOT NULL CHECK (status IN ('pending', 'approved', 'rejected', 'sold')),
		approved_by UUID REFERENCES users(id),
		approved_at TIMESTAMPTZ,
		sold BOOLEAN NOT NULL DEFAULT FALSE,
		buyer_id UUID REFERENCES users(id),
		sold_at TIMESTAMPTZ,
		version BIGINT NOT NULL DEFAULT 1,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		CHECK (status <> 'sold' OR (quantity = 0 AND buyer_id IS NOT NULL))
	)`,
	`CREATE INDEX IF NOT EXISTS listings_status_idx ON listings (status, created_at)`,
	`CREATE INDEX IF NOT EXISTS listings_owner_idx ON listings (owner_id)`,
	`CREATE TABLE IF NOT EXISTS bids (
		seq BIGSERIAL PRIMARY KEY,
		listing_id UUID NOT NULL REFERENCES listings(id) ON DELETE CASCADE,
		bidder_id UUID NOT NULL REFERENCES users(id),
		amount NUMERIC(20, 4) NOT NULL CHECK (amount > 0),
		currency TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS bids_listing_amount_idx ON bids (listing_id, amount DESC, seq)`,
	`CREATE TABLE IF NOT EXISTS listing_likes (
		listing_id UUID NOT NULL REFERENCES listings(id) ON DELETE CASCADE,
		user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		PRIMARY KEY (listing_id, user_id)
	)`,
	`CREATE TABLE IF NOT EXISTS notifications (
		id CHAR(26) PRIMARY KEY,
		user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		type TEXT NOT NULL,
		title TEXT NOT NULL,
		message TEXT NOT NULL,
		related_id UUID NOT NULL,
		related_model TEXT NOT NULL,
		is_read BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS notifications_user_idx ON notifications (user_id, created_at DESC)`,
}

// Migrate creates the tables the service needs if they are missing.
func Migrate(ctx context.Context, conn *sqlx.DB) error {
	for i, stmt := range schema {
		if _, err := conn.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema statement %d: %w", i, err)
		}
	}
	return nil
}
