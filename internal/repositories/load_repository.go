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

// LoadRepository reads completed loads from the dispatch module's loads table.
type LoadRepository struct {
	DB *sql.DB
}

func (r LoadRepository) db() *sql.DB {
	if r.DB != nil {
		return r.DB
	}
	return intconfig.DB
}

// ListCompletedLoads returns delivered loads with a delivery date in window.
// A deployment without the dispatch module has no loads table; that reads as
// no loads. Older dispatch schemas have no distance column, so every load
// then goes through distance estimation.
func (r LoadRepository) ListCompletedLoads(ctx context.Context, userID string, window domain.QuarterWindow) ([]models.ForeignLoad, error) {
	db := r.db()
	if db == nil {
		return []models.ForeignLoad{}, nil
	}
	ok, err := intdb.HasTable(ctx, db, "loads")
	if err != nil {
		return nil, fmt.Errorf("check loads table: %w", err)
	}
	if !ok {
		return []models.ForeignLoad{}, nil
	}

	distanceCol := "NULL"
	hasDistance, err := intdb.HasColumn(ctx, db, "loads", "distance")
	if err != nil {
		return nil, fmt.Errorf("check loads.distance column: %w", err)
	}
	if hasDistance {
		distanceCol = "distance"
	}

	rows, err := db.QueryContext(ctx, `
		SELECT id, COALESCE(origin,''), COALESCE(destination,''), delivery_date, `+distanceCol+`,
		       COALESCE(vehicle_id,''), COALESCE(driver_id,'')
		FROM loads
		WHERE user_id=? AND status='completed' AND delivery_date>=? AND delivery_date<=?
		ORDER BY delivery_date ASC, id ASC`, userID, window.StartDate(), window.EndDate())
	if err != nil {
		return nil, fmt.Errorf("query loads: %w", err)
	}
	defer rows.Close()

	out := []models.ForeignLoad{}
	for rows.Next() {
		var (
			l        models.ForeignLoad
			distance sql.NullFloat64
		)
		if err := rows.Scan(&l.ID, &l.OriginText, &l.DestinationText, &l.DeliveryDate, &distance, &l.VehicleID, &l.DriverID); err != nil {
			return nil, fmt.Errorf("scan loads: %w", err)
		}
		l.RecordedDistance = intdb.FloatPtr(distance)
		out = append(out, l)
	}
	return out, rows.Err()
}
