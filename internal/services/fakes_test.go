package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"fleetledger/internal/domain"
	"fleetledger/internal/domain/models"
)

// memTripStore is an in-memory ledger that enforces the dedup key and
// all-or-nothing batch inserts.
type memTripStore struct {
	mu         sync.Mutex
	records    []models.TripRecord
	nextID     int
	failInsert error
	insertWait time.Duration
}

func dedupKey(r models.TripRecord) string {
	return r.UserID + "|" + r.Quarter + "|" + string(r.SourceKind) + "|" + r.SourceRef
}

func (m *memTripStore) FindTripRecords(_ context.Context, userID, quarter string) ([]models.TripRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.TripRecord{}
	for _, r := range m.records {
		if r.UserID == userID && r.Quarter == quarter {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memTripStore) FindTripRecordsBySourceRefs(_ context.Context, userID, quarter string, kind models.SourceKind, refs []string) (map[string]bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	want := map[string]bool{}
	for _, ref := range refs {
		want[ref] = true
	}
	found := map[string]bool{}
	for _, r := range m.records {
		if r.UserID == userID && r.Quarter == quarter && r.SourceKind == kind && want[r.SourceRef] {
			found[r.SourceRef] = true
		}
	}
	return found, nil
}

func (m *memTripStore) InsertTripRecords(_ context.Context, records []models.TripRecord) error {
	if m.insertWait > 0 {
		time.Sleep(m.insertWait)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failInsert != nil {
		return domain.PersistenceError{Op: "insert ifta_trips", Err: m.failInsert}
	}
	seen := map[string]bool{}
	for _, r := range m.records {
		if r.SourceRef != "" {
			seen[dedupKey(r)] = true
		}
	}
	for _, r := range records {
		if r.SourceRef == "" {
			continue
		}
		if seen[dedupKey(r)] {
			return domain.PersistenceError{Op: "insert ifta_trips", Err: domain.ConflictError{Resource: "ifta_trip", Msg: "duplicate " + r.SourceRef}}
		}
		seen[dedupKey(r)] = true
	}
	for i := range records {
		m.nextID++
		records[i].ID = fmt.Sprintf("trip-%d", m.nextID)
		m.records = append(m.records, records[i])
	}
	return nil
}

func (m *memTripStore) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.records)
}

type memFuelStore struct {
	purchases []models.FuelPurchaseRecord
	err       error
}

func (m memFuelStore) FindFuelPurchases(_ context.Context, userID, _ string) ([]models.FuelPurchaseRecord, error) {
	if m.err != nil {
		return nil, m.err
	}
	out := []models.FuelPurchaseRecord{}
	for _, p := range m.purchases {
		if p.UserID == userID {
			out = append(out, p)
		}
	}
	return out, nil
}

type fakeLoads struct {
	loads  []models.ForeignLoad
	onList func()
}

func (f fakeLoads) ListCompletedLoads(_ context.Context, _ string, _ domain.QuarterWindow) ([]models.ForeignLoad, error) {
	if f.onList != nil {
		f.onList()
	}
	return append([]models.ForeignLoad(nil), f.loads...), nil
}

type fakeTracker struct {
	trips     []models.ForeignMileageTrip
	crossings map[string][]models.Crossing
}

func (f fakeTracker) ListCompletedTrips(_ context.Context, _ string, _ domain.QuarterWindow) ([]models.ForeignMileageTrip, error) {
	return append([]models.ForeignMileageTrip(nil), f.trips...), nil
}

func (f fakeTracker) ListCrossings(_ context.Context, tripID string) ([]models.Crossing, error) {
	c, ok := f.crossings[tripID]
	if !ok {
		return nil, errors.New("no such trip")
	}
	return c, nil
}

type fakeEld struct {
	summary models.EldMileageSummary
	err     error
}

func (f fakeEld) GetMileageSummary(_ context.Context, _ string, _ domain.QuarterWindow) (models.EldMileageSummary, error) {
	return f.summary, f.err
}

type fakeVehicles map[string]string

func (f fakeVehicles) VehicleLabels(_ context.Context, _ string) (map[string]string, error) {
	return f, nil
}

func miles(v float64) *float64 { return &v }

func day(s string) time.Time {
	t, err := time.ParseInLocation("2006-01-02", s, time.UTC)
	if err != nil {
		panic(err)
	}
	return t
}

func at(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return t
}
