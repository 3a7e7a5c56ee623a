package db

import (
	"fmt"
	"log"
)

const schema = `
CREATE TABLE IF NOT EXISTS products (
	id SERIAL PRIMARY KEY,
	seller_id INTEGER NOT NULL,
	name TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	price NUMERIC(10,2) NOT NULL CHECK (price >= 0),
	category TEXT NOT NULL DEFAULT '',
	brand TEXT NOT NULL DEFAULT '',
	quantity INTEGER NOT NULL DEFAULT 0 CHECK (quantity >= 0),
	in_stock BOOLEAN NOT NULL DEFAULT TRUE,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_products_name ON products (name);
CREATE INDEX IF NOT EXISTS idx_products_category ON products (category);
CREATE INDEX IF NOT EXISTS idx_products_brand ON products (brand);

CREATE TABLE IF NOT EXISTS orders (
	id SERIAL PRIMARY KEY,
	user_id INTEGER NOT NULL,
	total_price NUMERIC(10,2) NOT NULL DEFAULT 0,
	status TEXT NOT NULL DEFAULT 'pending',
	tracking_number TEXT,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_orders_user ON orders (user_id);

CREATE TABLE IF NOT EXISTS order_items (
	id SERIAL PRIMARY KEY,
	order_id INTEGER NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
	product_id INTEGER NOT NULL,
	quantity INTEGER NOT NULL CHECK (quantity > 0),
	price NUMERIC(10,2) NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_order_items_order ON order_items (order_id);

CREATE TABLE IF NOT EXISTS group_buys (
	id SERIAL PRIMARY KEY,
	product_id INTEGER NOT NULL,
	discount_price NUMERIC(10,2) NOT NULL,
	min_participants INTEGER NOT NULL CHECK (min_participants > 0),
	max_participants INTEGER NOT NULL CHECK (max_participants >= min_participants),
	current_participants INTEGER NOT NULL DEFAULT 0
		CHECK (current_participants >= 0 AND current_participants <= max_participants),
	start_date TIMESTAMPTZ NOT NULL DEFAULT now(),
	end_date TIMESTAMPTZ NOT NULL,
	status TEXT NOT NULL DEFAULT 'active'
);

CREATE TABLE IF NOT EXISTS group_buy_participations (
	id SERIAL PRIMARY KEY,
	group_buy_id INTEGER NOT NULL REFERENCES group_buys(id) ON DELETE CASCADE,
	user_id INTEGER NOT NULL,
	quantity INTEGER NOT NULL DEFAULT 1 CHECK (quantity > 0),
	joined_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE (group_buy_id, user_id)
);

CREATE TABLE IF NOT EXISTS notifications (
	id SERIAL PRIMARY KEY,
	user_id INTEGER NOT NULL,
	type TEXT NOT NULL,
	message TEXT NOT NULL,
	related_id INTEGER,
	is_read BOOLEAN NOT NULL DEFAULT FALSE,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_notifications_user ON notifications (user_id);
`

// Migrate applies the schema. Every statement is idempotent, so running it
// on every boot is safe.
func (db *PostgresDB) Migrate() error {
	if _, err := db.Conn.Exec(schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	log.Println("✅ Database schema up to date")
	return nil
}
