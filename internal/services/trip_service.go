package services

import (
	"context"
	"strings"
	"time"

	"fleetledger/internal/domain"
	"fleetledger/internal/domain/models"
	"fleetledger/internal/utils"
)

// ManualTripInput is a trip entered by hand.
type ManualTripInput struct {
	Quarter           string   `json:"quarter"`
	VehicleID         string   `json:"vehicleId"`
	TripDate          string   `json:"tripDate"`
	StartJurisdiction string   `json:"startJurisdiction"`
	EndJurisdiction   string   `json:"endJurisdiction"`
	StartOdometer     *float64 `json:"startOdometer"`
	EndOdometer       *float64 `json:"endOdometer"`
	TotalMiles        *float64 `json:"totalMiles"`
	GallonsConsumed   *float64 `json:"gallonsConsumed"`
	Notes             string   `json:"notes"`
}

// TripService covers manual ledger entry and listing.
type TripService struct {
	Trips     TripStore
	RequestID string
}

// ListTrips returns every ledger record of the quarter.
func (s TripService) ListTrips(ctx context.Context, userID, quarter string) ([]models.TripRecord, error) {
	window, err := scope(userID, quarter)
	if err != nil {
		return nil, err
	}
	trips, err := s.Trips.FindTripRecords(ctx, userID, window.Label)
	if err != nil {
		return nil, err
	}
	if trips == nil {
		trips = []models.TripRecord{}
	}
	return trips, nil
}

// CreateManualTrip validates and stores one manual trip record.
func (s TripService) CreateManualTrip(ctx context.Context, userID string, in ManualTripInput) (models.TripRecord, error) {
	if strings.TrimSpace(userID) == "" {
		return models.TripRecord{}, domain.InvalidQuery("userId", "userId is required")
	}
	rec, err := buildManualTrip(userID, in)
	if err != nil {
		return models.TripRecord{}, err
	}
	batch := []models.TripRecord{rec}
	if err := s.Trips.InsertTripRecords(ctx, batch); err != nil {
		return models.TripRecord{}, err
	}
	utils.LogEvent(s.RequestID, "ifta_trips", "create_manual", "manual trip "+batch[0].ID+" stored")
	return batch[0], nil
}

func buildManualTrip(userID string, in ManualTripInput) (models.TripRecord, error) {
	date, err := utils.ParseDate(in.TripDate)
	if err != nil {
		return models.TripRecord{}, domain.ValidationError{Field: "tripDate", Msg: "tripDate must be YYYY-MM-DD"}
	}

	quarter := domain.QuarterFor(date)
	if label := strings.TrimSpace(in.Quarter); label != "" {
		window, err := domain.ParseQuarter(label)
		if err != nil {
			return models.TripRecord{}, err
		}
		if !window.Contains(date) {
			return models.TripRecord{}, domain.ValidationError{Field: "tripDate", Msg: "tripDate is outside " + window.Label}
		}
		quarter = window.Label
	}

	start := domain.NormalizeJurisdiction(in.StartJurisdiction)
	end := domain.NormalizeJurisdiction(in.EndJurisdiction)
	if !domain.IsKnownJurisdiction(start) {
		return models.TripRecord{}, domain.ValidationError{Field: "startJurisdiction", Msg: "unknown jurisdiction " + in.StartJurisdiction}
	}
	if !domain.IsKnownJurisdiction(end) {
		return models.TripRecord{}, domain.ValidationError{Field: "endJurisdiction", Msg: "unknown jurisdiction " + in.EndJurisdiction}
	}

	miles, err := manualMiles(in)
	if err != nil {
		return models.TripRecord{}, err
	}
	if in.GallonsConsumed != nil && *in.GallonsConsumed < 0 {
		return models.TripRecord{}, domain.ValidationError{Field: "gallonsConsumed", Msg: "gallonsConsumed must not be negative"}
	}

	return models.TripRecord{
		UserID:            userID,
		Quarter:           quarter,
		VehicleID:         strings.TrimSpace(in.VehicleID),
		TripDate:          time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC),
		StartJurisdiction: start,
		EndJurisdiction:   end,
		StartOdometer:     in.StartOdometer,
		EndOdometer:       in.EndOdometer,
		TotalMiles:        miles,
		GallonsConsumed:   in.GallonsConsumed,
		SourceKind:        models.SourceManual,
		Notes:             strings.TrimSpace(in.Notes),
	}, nil
}

// manualMiles prefers a consistent odometer delta over the typed total.
func manualMiles(in ManualTripInput) (float64, error) {
	if in.StartOdometer != nil && in.EndOdometer != nil && *in.EndOdometer > *in.StartOdometer {
		return *in.EndOdometer - *in.StartOdometer, nil
	}
	if in.TotalMiles == nil {
		return 0, domain.ValidationError{Field: "totalMiles", Msg: "totalMiles is required without a valid odometer range"}
	}
	if *in.TotalMiles < 0 {
		return 0, domain.ValidationError{Field: "totalMiles", Msg: "totalMiles must not be negative"}
	}
	return *in.TotalMiles, nil
}
