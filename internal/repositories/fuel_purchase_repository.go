package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	intconfig "fleetledger/internal/config"
	"fleetledger/internal/domain"
	"fleetledger/internal/domain/models"
)

// FuelPurchaseRepository reads purchases recorded by the fuel tracker. It
// never writes.
type FuelPurchaseRepository struct {
	DB *sql.DB
}

func (r FuelPurchaseRepository) db() *sql.DB {
	if r.DB != nil {
		return r.DB
	}
	return intconfig.DB
}

// FindFuelPurchases returns the user's purchases dated inside the quarter.
func (r FuelPurchaseRepository) FindFuelPurchases(ctx context.Context, userID, quarter string) ([]models.FuelPurchaseRecord, error) {
	window, err := domain.ParseQuarter(quarter)
	if err != nil {
		return nil, err
	}
	db := r.db()
	if db == nil {
		return nil, errors.New("db not connected")
	}

	rows, err := db.QueryContext(ctx, `
		SELECT id, user_id, COALESCE(vehicle_id,''), purchase_date, COALESCE(jurisdiction,''), gallons, total_amount
		FROM fuel_purchases
		WHERE user_id=? AND purchase_date>=? AND purchase_date<=?
		ORDER BY purchase_date ASC, id ASC`, userID, window.StartDate(), window.EndDate())
	if err != nil {
		return nil, fmt.Errorf("query fuel_purchases: %w", err)
	}
	defer rows.Close()

	out := []models.FuelPurchaseRecord{}
	for rows.Next() {
		var rec models.FuelPurchaseRecord
		if err := rows.Scan(&rec.ID, &rec.UserID, &rec.VehicleID, &rec.Date, &rec.Jurisdiction, &rec.Gallons, &rec.TotalAmount); err != nil {
			return nil, fmt.Errorf("scan fuel_purchases: %w", err)
		}
		rec.Jurisdiction = domain.NormalizeJurisdiction(rec.Jurisdiction)
		out = append(out, rec)
	}
	return out, rows.Err()
}
