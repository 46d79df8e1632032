package services

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"fleetledger/internal/domain"
	"fleetledger/internal/domain/models"
)

// mileageReconciler turns a tracker trip's ordered state crossings into one
// single-jurisdiction trip record per segment.
type mileageReconciler struct {
	tracker MileageTrackerSource
}

func (r mileageReconciler) enumerate(ctx context.Context, userID string, window domain.QuarterWindow) (sourceBatch, error) {
	trips, err := r.tracker.ListCompletedTrips(ctx, userID, window)
	if err != nil {
		return sourceBatch{}, err
	}
	sort.SliceStable(trips, func(i, j int) bool {
		if !trips[i].EndDate.Equal(trips[j].EndDate) {
			return trips[i].EndDate.Before(trips[j].EndDate)
		}
		return trips[i].ID < trips[j].ID
	})

	candidates := make([]ImportCandidate, 0, len(trips))
	for _, trip := range trips {
		ref := strings.TrimSpace(trip.ID)
		if ref == "" || !window.Contains(trip.EndDate) {
			continue
		}
		crossings, err := r.tracker.ListCrossings(ctx, trip.ID)
		if err != nil {
			return sourceBatch{}, fmt.Errorf("list crossings for trip %s: %w", trip.ID, err)
		}

		c := ImportCandidate{
			SourceRef:     ref,
			Description:   fmt.Sprintf("tracker trip %s (%d crossings)", trip.ID, len(crossings)),
			Date:          trip.EndDate,
			Jurisdictions: []string{},
		}
		records, terr := segmentTrip(trip, crossings)
		if terr != nil {
			c.Error = terr
		} else {
			c.Records = records
			c.Miles = sumMiles(records)
			c.Jurisdictions = jurisdictionsOf(records)
		}
		candidates = append(candidates, c)
	}
	return sourceBatch{candidates: candidates}, nil
}

// segmentRef is the dedup key of one emitted segment.
func segmentRef(tripID string, seq int) string {
	return tripID + "#" + strconv.Itoa(seq)
}

// segmentTrip walks crossings in timestamp order. Each segment runs from one
// crossing to the next; consecutive crossings into the same jurisdiction are
// one segment and zero-mile segments are dropped.
func segmentTrip(trip models.ForeignMileageTrip, crossings []models.Crossing) ([]models.TripRecord, *domain.TranslationError) {
	fail := func(reason, raw string) *domain.TranslationError {
		return &domain.TranslationError{Source: string(models.SourceMileageTrackerImport), SourceRef: trip.ID, Reason: reason, Raw: raw}
	}
	if len(crossings) < 2 {
		return nil, fail(fmt.Sprintf("need at least 2 crossings, got %d", len(crossings)), "")
	}

	ordered := append([]models.Crossing(nil), crossings...)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Timestamp.Before(ordered[j].Timestamp) })

	type segment struct {
		code  string
		miles float64
		start models.Crossing
	}
	var segments []segment
	for i := 0; i < len(ordered)-1; i++ {
		cur, next := ordered[i], ordered[i+1]
		code := domain.NormalizeJurisdiction(cur.Jurisdiction)
		if !domain.IsKnownJurisdiction(code) {
			return nil, fail("crossing jurisdiction not recognised", cur.Jurisdiction)
		}
		delta := next.Odometer - cur.Odometer
		if delta < 0 {
			return nil, fail(fmt.Sprintf("odometer went backwards in %s (%.1f -> %.1f)", code, cur.Odometer, next.Odometer), "")
		}
		if n := len(segments); n > 0 && segments[n-1].code == code {
			segments[n-1].miles += delta
			continue
		}
		segments = append(segments, segment{code: code, miles: delta, start: cur})
	}

	records := []models.TripRecord{}
	for _, seg := range segments {
		if seg.miles <= 0 {
			continue
		}
		startOdo := seg.start.Odometer
		endOdo := startOdo + seg.miles
		date := seg.start.Timestamp
		if date.IsZero() {
			date = trip.EndDate
		}
		records = append(records, models.TripRecord{
			VehicleID:         trip.VehicleID,
			TripDate:          date,
			StartJurisdiction: seg.code,
			EndJurisdiction:   seg.code,
			StartOdometer:     &startOdo,
			EndOdometer:       &endOdo,
			TotalMiles:        seg.miles,
			SourceRef:         segmentRef(trip.ID, len(records)+1),
			Notes:             "tracker trip " + trip.ID,
		})
	}
	if len(records) == 0 {
		return nil, fail("trip has no driven miles", "")
	}
	return records, nil
}
