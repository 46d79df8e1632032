package domain

import "fleetledger/internal/domain/models"

// MileageShare is the part of a trip's miles credited to one jurisdiction.
type MileageShare struct {
	Jurisdiction string  `json:"jurisdiction"`
	Miles        float64 `json:"miles"`
}

// Apportion splits a trip's miles across its jurisdictions.
//
// Same start and end: one share with all miles. Different start and end: two
// equal shares, the second taking the remainder so the pair always sums to
// TotalMiles. If either end is blank no shares are returned; those miles still
// count toward fleet totals but toward no jurisdiction.
//
// The 50/50 split is a fixed filing rule, not a distance estimate. Changing it
// changes every past filing, so it stays as is until product signs off on a
// routing-based policy.
func Apportion(t models.TripRecord) []MileageShare {
	start := NormalizeJurisdiction(t.StartJurisdiction)
	end := NormalizeJurisdiction(t.EndJurisdiction)
	if start == "" || end == "" {
		return nil
	}
	miles := t.TotalMiles
	if miles < 0 {
		miles = 0
	}
	if start == end {
		return []MileageShare{{Jurisdiction: start, Miles: miles}}
	}
	half := miles / 2
	return []MileageShare{
		{Jurisdiction: start, Miles: half},
		{Jurisdiction: end, Miles: miles - half},
	}
}
