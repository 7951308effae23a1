package database

import (
	"context"
	"database/sql"
)

// schema contains the DDL for all tables, executed idempotently at startup.
// MySQL 8 syntax; JSON is used for the denormalized client->pool id list.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		email VARCHAR(255) NOT NULL UNIQUE,
		password_hash VARCHAR(255) NOT NULL,
		role VARCHAR(32) NOT NULL DEFAULT 'OPERATOR',
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS refresh_tokens (
		id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		user_id BIGINT UNSIGNED NOT NULL,
		token_hash CHAR(64) NOT NULL,
		expires_at TIMESTAMP NOT NULL,
		revoked_at TIMESTAMP NULL,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		INDEX idx_refresh_hash (token_hash),
		FOREIGN KEY (user_id) REFERENCES users(id)
	)`,
	`CREATE TABLE IF NOT EXISTS calendar_credentials (
		user_id BIGINT UNSIGNED PRIMARY KEY,
		access_token TEXT NOT NULL,
		refresh_token TEXT NOT NULL,
		expires_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		FOREIGN KEY (user_id) REFERENCES users(id)
	)`,
	`CREATE TABLE IF NOT EXISTS clients (
		id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		user_id BIGINT UNSIGNED NOT NULL,
		name VARCHAR(255) NOT NULL,
		email VARCHAR(255) NOT NULL DEFAULT '',
		phone VARCHAR(64) NOT NULL DEFAULT '',
		address VARCHAR(512) NOT NULL DEFAULT '',
		member_since DATE NULL,
		notes TEXT,
		pool_ids JSON NOT NULL,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		INDEX idx_clients_user (user_id),
		FOREIGN KEY (user_id) REFERENCES users(id)
	)`,
	`CREATE TABLE IF NOT EXISTS pools (
		id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		client_id BIGINT UNSIGNED NOT NULL,
		label VARCHAR(255) NOT NULL DEFAULT '',
		shape VARCHAR(16) NOT NULL DEFAULT 'quadrilateral',
		length_m DOUBLE NULL,
		width_m DOUBLE NULL,
		avg_depth_m DOUBLE NULL,
		volume_liters INT NULL,
		volume_mode VARCHAR(8) NOT NULL DEFAULT 'auto',
		ph DOUBLE NULL,
		free_chlorine DOUBLE NULL,
		alkalinity DOUBLE NULL,
		calcium_hardness DOUBLE NULL,
		has_stains BOOLEAN NOT NULL DEFAULT FALSE,
		has_scale BOOLEAN NOT NULL DEFAULT FALSE,
		water_quality VARCHAR(16) NOT NULL DEFAULT 'clear',
		filter_type VARCHAR(64) NOT NULL DEFAULT '',
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		INDEX idx_pools_client (client_id),
		FOREIGN KEY (client_id) REFERENCES clients(id)
	)`,
	`CREATE TABLE IF NOT EXISTS visits (
		id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		client_id BIGINT UNSIGNED NOT NULL,
		pool_id BIGINT UNSIGNED NOT NULL,
		scheduled_at DATETIME NOT NULL,
		status VARCHAR(16) NOT NULL DEFAULT 'PENDING',
		completed_at DATETIME NULL,
		notes TEXT,
		calendar_event_id VARCHAR(255) NOT NULL DEFAULT '',
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		INDEX idx_visits_pool (pool_id),
		INDEX idx_visits_client (client_id),
		FOREIGN KEY (client_id) REFERENCES clients(id)
	)`,
	`CREATE TABLE IF NOT EXISTS products (
		id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		name VARCHAR(255) NOT NULL UNIQUE,
		description TEXT,
		unit_cost_cents INT UNSIGNED NOT NULL DEFAULT 0,
		stock INT NOT NULL DEFAULT 0,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS visit_products (
		visit_id BIGINT UNSIGNED NOT NULL,
		product_id BIGINT UNSIGNED NOT NULL,
		quantity DOUBLE NOT NULL,
		PRIMARY KEY (visit_id, product_id),
		FOREIGN KEY (visit_id) REFERENCES visits(id),
		FOREIGN KEY (product_id) REFERENCES products(id)
	)`,
	`CREATE TABLE IF NOT EXISTS payments (
		id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		client_id BIGINT UNSIGNED NOT NULL,
		amount_cents INT UNSIGNED NOT NULL,
		due_date DATE NOT NULL,
		paid_date DATE NULL,
		status VARCHAR(16) NOT NULL DEFAULT 'PENDING',
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		INDEX idx_payments_client (client_id),
		FOREIGN KEY (client_id) REFERENCES clients(id)
	)`,
}

// EnsureSchema creates any missing tables.  Statements are idempotent so the
// server can run it unconditionally on boot.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
