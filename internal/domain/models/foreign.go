package models

import "time"

// ForeignLoad is a completed load from the dispatch subsystem.
type ForeignLoad struct {
	ID               string    `json:"id"`
	OriginText       string    `json:"originText"`
	DestinationText  string    `json:"destinationText"`
	DeliveryDate     time.Time `json:"deliveryDate"`
	RecordedDistance *float64  `json:"recordedDistance,omitempty"`
	VehicleID        string    `json:"vehicleId"`
	DriverID         string    `json:"driverId"`
}

// ForeignMileageTrip is a completed trip recorded by the state-crossing tracker.
type ForeignMileageTrip struct {
	ID        string    `json:"id"`
	VehicleID string    `json:"vehicleId"`
	StartDate time.Time `json:"startDate"`
	EndDate   time.Time `json:"endDate"`
}

// Crossing is an odometer reading taken when a vehicle enters a jurisdiction.
type Crossing struct {
	Jurisdiction string    `json:"jurisdiction"`
	Odometer     float64   `json:"odometer"`
	Timestamp    time.Time `json:"timestamp"`
}

// EldJurisdictionMiles is one line of an ELD mileage summary.
type EldJurisdictionMiles struct {
	Jurisdiction string  `json:"jurisdiction"`
	Miles        float64 `json:"miles"`
}

// EldMileageSummary is the pre-aggregated per-jurisdiction mileage an ELD
// provider reports for a date window.
type EldMileageSummary struct {
	PerJurisdiction []EldJurisdictionMiles `json:"perJurisdiction"`
	TotalMiles      float64                `json:"totalMiles"`
}
