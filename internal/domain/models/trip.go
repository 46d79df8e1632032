package models

import "time"

// SourceKind identifies the system a trip record originated from.
type SourceKind string

const (
	SourceManual               SourceKind = "manual"
	SourceLoadImport           SourceKind = "load_import"
	SourceMileageTrackerImport SourceKind = "state_mileage_import"
	SourceEldImport            SourceKind = "eld_import"
)

// ImportKinds lists the source kinds that have a reconciler.
var ImportKinds = []SourceKind{SourceLoadImport, SourceMileageTrackerImport, SourceEldImport}

func (k SourceKind) Valid() bool {
	switch k {
	case SourceManual, SourceLoadImport, SourceMileageTrackerImport, SourceEldImport:
		return true
	}
	return false
}

// IsImport reports whether records of this kind carry a SourceRef.
func (k SourceKind) IsImport() bool {
	return k.Valid() && k != SourceManual
}

// TripRecord is one vehicle movement counted toward a reporting quarter.
// Records are immutable once created; (UserID, Quarter, SourceKind, SourceRef)
// is unique whenever SourceRef is set.
type TripRecord struct {
	ID                string     `json:"id"`
	UserID            string     `json:"userId"`
	Quarter           string     `json:"quarter"`
	VehicleID         string     `json:"vehicleId"`
	TripDate          time.Time  `json:"tripDate"`
	StartJurisdiction string     `json:"startJurisdiction"`
	EndJurisdiction   string     `json:"endJurisdiction"`
	StartOdometer     *float64   `json:"startOdometer,omitempty"`
	EndOdometer       *float64   `json:"endOdometer,omitempty"`
	TotalMiles        float64    `json:"totalMiles"`
	GallonsConsumed   *float64   `json:"gallonsConsumed,omitempty"`
	SourceKind        SourceKind `json:"sourceKind"`
	SourceRef         string     `json:"sourceRef,omitempty"`
	Notes             string     `json:"notes,omitempty"`
	CreatedAt         time.Time  `json:"createdAt"`
	UpdatedAt         time.Time  `json:"updatedAt"`
}

// Gallons returns the consumed gallons, or 0 when not recorded.
func (t TripRecord) Gallons() float64 {
	if t.GallonsConsumed == nil || *t.GallonsConsumed < 0 {
		return 0
	}
	return *t.GallonsConsumed
}

// FuelPurchaseRecord is a read-only fuel purchase owned by the fuel tracker.
type FuelPurchaseRecord struct {
	ID           string    `json:"id"`
	UserID       string    `json:"userId"`
	VehicleID    string    `json:"vehicleId,omitempty"`
	Date         time.Time `json:"date"`
	Jurisdiction string    `json:"jurisdiction"`
	Gallons      float64   `json:"gallons"`
	TotalAmount  float64   `json:"totalAmount"`
}
