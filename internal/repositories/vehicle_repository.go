package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	intconfig "fleetledger/internal/config"
)

// VehicleRepository is the single vehicle directory backed by the vehicles
// table.
type VehicleRepository struct {
	DB *sql.DB
}

func (r VehicleRepository) db() *sql.DB {
	if r.DB != nil {
		return r.DB
	}
	return intconfig.DB
}

// VehicleLabels maps vehicle id to a display label ("unit - make model") for
// every vehicle the user owns.
func (r VehicleRepository) VehicleLabels(ctx context.Context, userID string) (map[string]string, error) {
	out := map[string]string{}
	db := r.db()
	if db == nil {
		return out, nil
	}

	rows, err := db.QueryContext(ctx, `
		SELECT id, COALESCE(unit_number,''), COALESCE(make,''), COALESCE(model,'')
		FROM vehicles
		WHERE user_id=?`, userID)
	if err != nil {
		return nil, fmt.Errorf("query vehicles: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id, unit, mk, model string
		if err := rows.Scan(&id, &unit, &mk, &model); err != nil {
			return nil, fmt.Errorf("scan vehicles: %w", err)
		}
		out[id] = vehicleLabel(id, unit, mk, model)
	}
	return out, rows.Err()
}

func vehicleLabel(id, unit, mk, model string) string {
	name := strings.TrimSpace(strings.TrimSpace(mk) + " " + strings.TrimSpace(model))
	unit = strings.TrimSpace(unit)
	switch {
	case unit != "" && name != "":
		return unit + " - " + name
	case unit != "":
		return unit
	case name != "":
		return name
	default:
		return id
	}
}
