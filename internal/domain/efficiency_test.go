package domain

import (
	"math"
	"testing"

	"fleetledger/internal/domain/models"
)

func gallons(v float64) *float64 { return &v }

func TestEstimateFleetMPG_FromTrips(t *testing.T) {
	trips := []models.TripRecord{
		{TotalMiles: 600, GallonsConsumed: gallons(100)},
		{TotalMiles: 400, GallonsConsumed: gallons(60)},
		{TotalMiles: 200}, // no fuel recorded, still counts toward miles
	}
	eff := EstimateFleetMPG(trips, 6.0)
	if eff.UsedFallback {
		t.Fatalf("expected computed mpg")
	}
	if math.Abs(eff.MPG-7.5) > 1e-9 {
		t.Fatalf("mpg got %v want 7.5", eff.MPG)
	}
	if eff.TotalMiles != 1200 || eff.TotalGallons != 160 {
		t.Fatalf("totals got %v/%v", eff.TotalMiles, eff.TotalGallons)
	}
}

func TestEstimateFleetMPG_Fallbacks(t *testing.T) {
	cases := []struct {
		name     string
		trips    []models.TripRecord
		fallback float64
		want     float64
	}{
		{"no trips", nil, 6.0, 6.0},
		{"no gallons", []models.TripRecord{{TotalMiles: 100}}, 6.5, 6.5},
		{"no miles", []models.TripRecord{{GallonsConsumed: gallons(10)}}, 6.0, 6.0},
		{"bad fallback", nil, 0, DefaultFleetMPG},
		{"nan fallback", nil, math.NaN(), DefaultFleetMPG},
		{"negative gallons ignored", []models.TripRecord{{TotalMiles: 100, GallonsConsumed: gallons(-5)}}, 6.0, 6.0},
	}
	for _, tc := range cases {
		eff := EstimateFleetMPG(tc.trips, tc.fallback)
		if !eff.UsedFallback || eff.MPG != tc.want {
			t.Fatalf("%s: got %+v want fallback %v", tc.name, eff, tc.want)
		}
	}
}
