package services

import (
	"fmt"
	"strconv"
	"strings"

	"fleetledger/internal/domain"
)

// DistanceEstimator gives a deterministic mileage for a load that has no
// recorded distance.
type DistanceEstimator interface {
	Estimate(originCode, destinationCode string) (float64, bool)
}

// LaneTable is a fixed origin/destination mileage table. Lanes are
// symmetric: "CA-NV" also answers NV to CA.
type LaneTable map[string]float64

// ParseLaneTable reads "CA-NV:450,TX-OK:300".
func ParseLaneTable(raw string) (LaneTable, error) {
	table := LaneTable{}
	for _, entry := range strings.Split(raw, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		lane, milesText, ok := strings.Cut(entry, ":")
		if !ok {
			return nil, fmt.Errorf("lane %q: expected FROM-TO:MILES", entry)
		}
		from, to, ok := strings.Cut(strings.TrimSpace(lane), "-")
		if !ok || !domain.IsKnownJurisdiction(from) || !domain.IsKnownJurisdiction(to) {
			return nil, fmt.Errorf("lane %q: unknown jurisdiction", entry)
		}
		miles, err := strconv.ParseFloat(strings.TrimSpace(milesText), 64)
		if err != nil || miles < 0 {
			return nil, fmt.Errorf("lane %q: invalid miles", entry)
		}
		table[laneKey(from, to)] = miles
	}
	return table, nil
}

func (t LaneTable) Estimate(originCode, destinationCode string) (float64, bool) {
	if miles, ok := t[laneKey(originCode, destinationCode)]; ok {
		return miles, true
	}
	miles, ok := t[laneKey(destinationCode, originCode)]
	return miles, ok
}

func laneKey(from, to string) string {
	return domain.NormalizeJurisdiction(from) + "-" + domain.NormalizeJurisdiction(to)
}
