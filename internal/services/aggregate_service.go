package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"fleetledger/internal/domain"
	"fleetledger/internal/domain/models"
	"fleetledger/internal/utils"
)

// AggregateService loads a quarter's ledger inputs and runs the jurisdiction
// aggregation over them.
type AggregateService struct {
	Trips       TripStore
	Fuel        FuelPurchaseStore
	FallbackMPG float64
	RequestID   string
}

// AggregateInputs is the exact record set an aggregate was computed from.
type AggregateInputs struct {
	Trips []models.TripRecord
	Fuel  []models.FuelPurchaseRecord
}

func (s AggregateService) fallback() float64 {
	if s.FallbackMPG > 0 {
		return s.FallbackMPG
	}
	return domain.DefaultFleetMPG
}

// Aggregate returns the jurisdiction rows and totals for (userID, quarter).
func (s AggregateService) Aggregate(ctx context.Context, userID, quarter string, sortSpec *domain.Sort) (domain.Aggregate, error) {
	agg, _, err := s.aggregate(ctx, userID, quarter, sortSpec)
	return agg, err
}

func (s AggregateService) aggregate(ctx context.Context, userID, quarter string, sortSpec *domain.Sort) (domain.Aggregate, AggregateInputs, error) {
	window, err := scope(userID, quarter)
	if err != nil {
		return domain.Aggregate{}, AggregateInputs{}, err
	}
	if sortSpec != nil && sortSpec.Field == "" {
		sortSpec = nil
	}

	trips, err := s.Trips.FindTripRecords(ctx, userID, window.Label)
	if err != nil {
		return domain.Aggregate{}, AggregateInputs{}, fmt.Errorf("load trips: %w", err)
	}
	fuel, err := s.Fuel.FindFuelPurchases(ctx, userID, window.Label)
	if err != nil {
		return domain.Aggregate{}, AggregateInputs{}, fmt.Errorf("load fuel purchases: %w", err)
	}

	agg, err := domain.BuildAggregate(userID, window.Label, trips, fuel, s.fallback(), sortSpec)
	if err != nil {
		return domain.Aggregate{}, AggregateInputs{}, err
	}
	utils.LogEvent(s.RequestID, "ifta_aggregate", "aggregate", "aggregate built",
		zap.String("user_id", userID),
		zap.String("quarter", window.Label),
		zap.Int("rows", len(agg.Rows)),
		zap.Float64("fleet_mpg", agg.Totals.FleetMPG),
		zap.Bool("fleet_mpg_fallback", agg.Totals.FleetMPGFromFallback),
	)
	return agg, AggregateInputs{Trips: trips, Fuel: fuel}, nil
}
