package domain

import (
	"math"

	"fleetledger/internal/domain/models"
)

// DefaultFleetMPG is used when no usable fallback is configured.
const DefaultFleetMPG = 6.0

// FleetEfficiency is the fleet-wide miles-per-gallon for a quarter.
type FleetEfficiency struct {
	TotalMiles   float64 `json:"totalMiles"`
	TotalGallons float64 `json:"totalGallons"`
	MPG          float64 `json:"mpg"`
	UsedFallback bool    `json:"usedFallback"`
}

// EstimateFleetMPG divides all trip miles (apportioned or not) by all gallons
// consumed on those trips. When either total is not positive, or the ratio is
// not a finite positive number, it returns fallback instead. An unusable
// fallback is replaced by DefaultFleetMPG.
func EstimateFleetMPG(trips []models.TripRecord, fallback float64) FleetEfficiency {
	if !usableMPG(fallback) {
		fallback = DefaultFleetMPG
	}

	var miles, gallons float64
	for _, t := range trips {
		if t.TotalMiles > 0 {
			miles += t.TotalMiles
		}
		gallons += t.Gallons()
	}

	out := FleetEfficiency{TotalMiles: miles, TotalGallons: gallons}
	if miles > 0 && gallons > 0 {
		if mpg := miles / gallons; usableMPG(mpg) {
			out.MPG = mpg
			return out
		}
	}
	out.MPG = fallback
	out.UsedFallback = true
	return out
}

func usableMPG(v float64) bool {
	return v > 0 && !math.IsInf(v, 0) && !math.IsNaN(v)
}
