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

// EldRepository reads the per-day jurisdiction mileage the ELD sync job
// stores in eld_jurisdiction_mileage.
type EldRepository struct {
	DB *sql.DB
}

func (r EldRepository) db() *sql.DB {
	if r.DB != nil {
		return r.DB
	}
	return intconfig.DB
}

// GetMileageSummary sums ELD miles per jurisdiction across window.
func (r EldRepository) GetMileageSummary(ctx context.Context, userID string, window domain.QuarterWindow) (models.EldMileageSummary, error) {
	summary := models.EldMileageSummary{PerJurisdiction: []models.EldJurisdictionMiles{}}
	db := r.db()
	if db == nil {
		return summary, nil
	}
	ok, err := intdb.HasTable(ctx, db, "eld_jurisdiction_mileage")
	if err != nil {
		return summary, fmt.Errorf("check eld_jurisdiction_mileage table: %w", err)
	}
	if !ok {
		return summary, nil
	}

	rows, err := db.QueryContext(ctx, `
		SELECT jurisdiction, COALESCE(SUM(miles),0)
		FROM eld_jurisdiction_mileage
		WHERE user_id=? AND report_date>=? AND report_date<=?
		GROUP BY jurisdiction
		ORDER BY jurisdiction ASC`, userID, window.StartDate(), window.EndDate())
	if err != nil {
		return summary, fmt.Errorf("query eld_jurisdiction_mileage: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var line models.EldJurisdictionMiles
		if err := rows.Scan(&line.Jurisdiction, &line.Miles); err != nil {
			return summary, fmt.Errorf("scan eld_jurisdiction_mileage: %w", err)
		}
		summary.PerJurisdiction = append(summary.PerJurisdiction, line)
		summary.TotalMiles += line.Miles
	}
	return summary, rows.Err()
}
