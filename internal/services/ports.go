package services

import (
	"context"

	"fleetledger/internal/domain"
	"fleetledger/internal/domain/models"
)

// TripStore is the trip ledger repository.
type TripStore interface {
	FindTripRecords(ctx context.Context, userID, quarter string) ([]models.TripRecord, error)
	FindTripRecordsBySourceRefs(ctx context.Context, userID, quarter string, kind models.SourceKind, refs []string) (map[string]bool, error)
	InsertTripRecords(ctx context.Context, records []models.TripRecord) error
}

// FuelPurchaseStore reads fuel purchases for a quarter.
type FuelPurchaseStore interface {
	FindFuelPurchases(ctx context.Context, userID, quarter string) ([]models.FuelPurchaseRecord, error)
}

// LoadSource is the dispatch subsystem.
type LoadSource interface {
	ListCompletedLoads(ctx context.Context, userID string, window domain.QuarterWindow) ([]models.ForeignLoad, error)
}

// MileageTrackerSource is the GPS state-crossing tracker.
type MileageTrackerSource interface {
	ListCompletedTrips(ctx context.Context, userID string, window domain.QuarterWindow) ([]models.ForeignMileageTrip, error)
	ListCrossings(ctx context.Context, tripID string) ([]models.Crossing, error)
}

// EldSource is the ELD/telematics integration.
type EldSource interface {
	GetMileageSummary(ctx context.Context, userID string, window domain.QuarterWindow) (models.EldMileageSummary, error)
}

// VehicleDirectory resolves vehicle ids to display labels.
type VehicleDirectory interface {
	VehicleLabels(ctx context.Context, userID string) (map[string]string, error)
}

// ScopeLocker serializes imports for one (user, quarter, source kind) scope.
type ScopeLocker interface {
	Acquire(ctx context.Context, key string) (func(), error)
}
