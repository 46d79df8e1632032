package repositories

import (
	"context"
	"database/sql"
	"fmt"

	intconfig "fleetledger/internal/config"
	intdb "fleetledger/internal/db"
	"fleetledger/internal/domain"
	"fleetledger/internal/domain/models"
)

// StateMileageRepository reads the GPS state-crossing tracker's tables.
type StateMileageRepository struct {
	DB *sql.DB
}

func (r StateMileageRepository) db() *sql.DB {
	if r.DB != nil {
		return r.DB
	}
	return intconfig.DB
}

// ListCompletedTrips returns tracker trips that ended inside window.
func (r StateMileageRepository) ListCompletedTrips(ctx context.Context, userID string, window domain.QuarterWindow) ([]models.ForeignMileageTrip, error) {
	db := r.db()
	if db == nil {
		return []models.ForeignMileageTrip{}, nil
	}
	ok, err := intdb.HasTable(ctx, db, "state_mileage_trips")
	if err != nil {
		return nil, fmt.Errorf("check state_mileage_trips table: %w", err)
	}
	if !ok {
		return []models.ForeignMileageTrip{}, nil
	}

	rows, err := db.QueryContext(ctx, `
		SELECT id, COALESCE(vehicle_id,''), start_date, end_date
		FROM state_mileage_trips
		WHERE user_id=? AND status='completed' AND end_date>=? AND end_date<=?
		ORDER BY end_date ASC, id ASC`, userID, window.StartDate(), window.EndDate())
	if err != nil {
		return nil, fmt.Errorf("query state_mileage_trips: %w", err)
	}
	defer rows.Close()

	out := []models.ForeignMileageTrip{}
	for rows.Next() {
		var t models.ForeignMileageTrip
		if err := rows.Scan(&t.ID, &t.VehicleID, &t.StartDate, &t.EndDate); err != nil {
			return nil, fmt.Errorf("scan state_mileage_trips: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// ListCrossings returns a trip's crossings ordered by time.
func (r StateMileageRepository) ListCrossings(ctx context.Context, tripID string) ([]models.Crossing, error) {
	db := r.db()
	if db == nil {
		return []models.Crossing{}, nil
	}
	ok, err := intdb.HasTable(ctx, db, "state_mileage_crossings")
	if err != nil {
		return nil, fmt.Errorf("check state_mileage_crossings table: %w", err)
	}
	if !ok {
		return []models.Crossing{}, nil
	}

	rows, err := db.QueryContext(ctx, `
		SELECT COALESCE(state_code,''), odometer, crossed_at
		FROM state_mileage_crossings
		WHERE trip_id=?
		ORDER BY crossed_at ASC, id ASC`, tripID)
	if err != nil {
		return nil, fmt.Errorf("query state_mileage_crossings: %w", err)
	}
	defer rows.Close()

	out := []models.Crossing{}
	for rows.Next() {
		var c models.Crossing
		if err := rows.Scan(&c.Jurisdiction, &c.Odometer, &c.Timestamp); err != nil {
			return nil, fmt.Errorf("scan state_mileage_crossings: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
