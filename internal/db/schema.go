package db

import (
	"context"
	"database/sql"
	"fmt"
)

// ifta_trips is owned by this service. The other tables are written by the
// fuel tracker, dispatch, mileage tracker, ELD sync and fleet modules; they
// are created here only so a fresh database is usable end to end.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS ifta_trips (
		id CHAR(36) NOT NULL PRIMARY KEY,
		user_id VARCHAR(64) NOT NULL,
		quarter VARCHAR(7) NOT NULL,
		vehicle_id VARCHAR(64) NOT NULL DEFAULT '',
		trip_date DATE NULL,
		start_jurisdiction VARCHAR(4) NOT NULL DEFAULT '',
		end_jurisdiction VARCHAR(4) NOT NULL DEFAULT '',
		start_odometer DECIMAL(12,1) NULL,
		end_odometer DECIMAL(12,1) NULL,
		total_miles DECIMAL(12,3) NOT NULL DEFAULT 0,
		gallons_consumed DECIMAL(12,3) NULL,
		source_kind VARCHAR(32) NOT NULL,
		source_ref VARCHAR(191) NULL,
		notes VARCHAR(500) NOT NULL DEFAULT '',
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL,
		UNIQUE KEY uq_ifta_trips_source (user_id, quarter, source_kind, source_ref),
		KEY idx_ifta_trips_scope (user_id, quarter)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS fuel_purchases (
		id CHAR(36) NOT NULL PRIMARY KEY,
		user_id VARCHAR(64) NOT NULL,
		vehicle_id VARCHAR(64) NOT NULL DEFAULT '',
		purchase_date DATE NOT NULL,
		jurisdiction VARCHAR(4) NOT NULL DEFAULT '',
		gallons DECIMAL(12,3) NOT NULL DEFAULT 0,
		total_amount DECIMAL(12,2) NOT NULL DEFAULT 0,
		KEY idx_fuel_purchases_scope (user_id, purchase_date)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS vehicles (
		id VARCHAR(64) NOT NULL PRIMARY KEY,
		user_id VARCHAR(64) NOT NULL,
		unit_number VARCHAR(64) NOT NULL DEFAULT '',
		make VARCHAR(64) NOT NULL DEFAULT '',
		model VARCHAR(64) NOT NULL DEFAULT '',
		KEY idx_vehicles_user (user_id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}

// EnsureSchema creates the ledger tables when missing.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}
