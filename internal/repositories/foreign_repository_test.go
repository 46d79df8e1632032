package repositories

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"fleetledger/internal/domain"
)

func q1(t *testing.T) domain.QuarterWindow {
	t.Helper()
	w, err := domain.ParseQuarter("2025-Q1")
	if err != nil {
		t.Fatalf("parse quarter: %v", err)
	}
	return w
}

func expectTable(mock sqlmock.Sqlmock, table string, present bool) {
	rows := sqlmock.NewRows([]string{"table_name"})
	if present {
		rows.AddRow(table)
	}
	mock.ExpectQuery("information_schema\\.tables").WithArgs(table).WillReturnRows(rows)
}

func expectColumn(mock sqlmock.Sqlmock, table, column string, present bool) {
	rows := sqlmock.NewRows([]string{"column_name"})
	if present {
		rows.AddRow(column)
	}
	mock.ExpectQuery("information_schema\\.columns").WithArgs(table, column).WillReturnRows(rows)
}

func TestFuelPurchases_FilteredByQuarterWindow(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()

	day := time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery("FROM fuel_purchases").
		WithArgs("u1", "2025-01-01", "2025-03-31").
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "vehicle_id", "purchase_date", "jurisdiction", "gallons", "total_amount"}).
			AddRow("f1", "u1", "truck-1", day, " tx ", 40.0, 151.2))

	recs, err := FuelPurchaseRepository{DB: db}.FindFuelPurchases(context.Background(), "u1", "2025-Q1")
	if err != nil {
		t.Fatalf("query error: %v", err)
	}
	if len(recs) != 1 || recs[0].Jurisdiction != "TX" || recs[0].Gallons != 40 {
		t.Fatalf("unexpected purchases %+v", recs)
	}
	if _, err := (FuelPurchaseRepository{DB: db}).FindFuelPurchases(context.Background(), "u1", "2025-Q9"); !domain.IsValidation(err) {
		t.Fatalf("bad quarter must fail before I/O, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestLoads_MissingTableReadsEmpty(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()

	expectTable(mock, "loads", false)
	loads, err := LoadRepository{DB: db}.ListCompletedLoads(context.Background(), "u1", q1(t))
	if err != nil || len(loads) != 0 {
		t.Fatalf("expected no loads, got %v %v", loads, err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

var errConnLost = errors.New("connection lost")

func TestForeignSources_SchemaLookupErrorsAreReturned(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()
	ctx := context.Background()

	mock.ExpectQuery("information_schema\\.tables").WithArgs("loads").WillReturnError(errConnLost)
	if loads, err := (LoadRepository{DB: db}).ListCompletedLoads(ctx, "u1", q1(t)); !errors.Is(err, errConnLost) {
		t.Fatalf("loads: expected connection error, got %v %v", loads, err)
	}

	expectTable(mock, "loads", true)
	mock.ExpectQuery("information_schema\\.columns").WithArgs("loads", "distance").WillReturnError(errConnLost)
	if _, err := (LoadRepository{DB: db}).ListCompletedLoads(ctx, "u1", q1(t)); !errors.Is(err, errConnLost) {
		t.Fatalf("loads column: expected connection error, got %v", err)
	}

	mock.ExpectQuery("information_schema\\.tables").WithArgs("state_mileage_trips").WillReturnError(errConnLost)
	if _, err := (StateMileageRepository{DB: db}).ListCompletedTrips(ctx, "u1", q1(t)); !errors.Is(err, errConnLost) {
		t.Fatalf("tracker trips: expected connection error, got %v", err)
	}

	mock.ExpectQuery("information_schema\\.tables").WithArgs("state_mileage_crossings").WillReturnError(errConnLost)
	if _, err := (StateMileageRepository{DB: db}).ListCrossings(ctx, "T1"); !errors.Is(err, errConnLost) {
		t.Fatalf("crossings: expected connection error, got %v", err)
	}

	mock.ExpectQuery("information_schema\\.tables").WithArgs("eld_jurisdiction_mileage").WillReturnError(errConnLost)
	if _, err := (EldRepository{DB: db}).GetMileageSummary(ctx, "u1", q1(t)); !errors.Is(err, errConnLost) {
		t.Fatalf("eld: expected connection error, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestLoads_CompletedInWindow(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()

	delivered := time.Date(2025, 2, 3, 0, 0, 0, 0, time.UTC)
	expectTable(mock, "loads", true)
	expectColumn(mock, "loads", "distance", true)
	mock.ExpectQuery("FROM loads").
		WithArgs("u1", "2025-01-01", "2025-03-31").
		WillReturnRows(sqlmock.NewRows([]string{"id", "origin", "destination", "delivery_date", "distance", "vehicle_id", "driver_id"}).
			AddRow("L-1", "Fresno, CA", "Reno, NV", delivered, 210.0, "truck-1", "d-1").
			AddRow("L-2", "Dallas, TX", "Tulsa, OK", delivered, nil, "truck-2", "d-2"))

	loads, err := LoadRepository{DB: db}.ListCompletedLoads(context.Background(), "u1", q1(t))
	if err != nil {
		t.Fatalf("query error: %v", err)
	}
	if len(loads) != 2 || loads[0].RecordedDistance == nil || *loads[0].RecordedDistance != 210 || loads[1].RecordedDistance != nil {
		t.Fatalf("unexpected loads %+v", loads)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestLoads_NoDistanceColumn(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()

	expectTable(mock, "loads", true)
	expectColumn(mock, "loads", "distance", false)
	mock.ExpectQuery("delivery_date, NULL,").
		WithArgs("u1", "2025-01-01", "2025-03-31").
		WillReturnRows(sqlmock.NewRows([]string{"id", "origin", "destination", "delivery_date", "distance", "vehicle_id", "driver_id"}).
			AddRow("L-9", "Fresno, CA", "Reno, NV", time.Date(2025, 1, 9, 0, 0, 0, 0, time.UTC), nil, "", ""))

	loads, err := LoadRepository{DB: db}.ListCompletedLoads(context.Background(), "u1", q1(t))
	if err != nil || len(loads) != 1 || loads[0].RecordedDistance != nil {
		t.Fatalf("unexpected loads %+v %v", loads, err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestStateMileage_TripsAndCrossings(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()

	start := time.Date(2025, 1, 10, 6, 0, 0, 0, time.UTC)
	expectTable(mock, "state_mileage_trips", true)
	mock.ExpectQuery("FROM state_mileage_trips").
		WithArgs("u1", "2025-01-01", "2025-03-31").
		WillReturnRows(sqlmock.NewRows([]string{"id", "vehicle_id", "start_date", "end_date"}).
			AddRow("SM-1", "truck-1", start, start.Add(10*time.Hour)))
	expectTable(mock, "state_mileage_crossings", true)
	mock.ExpectQuery("FROM state_mileage_crossings").
		WithArgs("SM-1").
		WillReturnRows(sqlmock.NewRows([]string{"state_code", "odometer", "crossed_at"}).
			AddRow("CA", 1000.0, start).
			AddRow("NV", 1180.0, start.Add(3*time.Hour)))

	repo := StateMileageRepository{DB: db}
	trips, err := repo.ListCompletedTrips(context.Background(), "u1", q1(t))
	if err != nil || len(trips) != 1 || trips[0].ID != "SM-1" {
		t.Fatalf("unexpected trips %+v %v", trips, err)
	}
	crossings, err := repo.ListCrossings(context.Background(), "SM-1")
	if err != nil || len(crossings) != 2 || crossings[1].Odometer != 1180 {
		t.Fatalf("unexpected crossings %+v %v", crossings, err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestEldSummary_SumsPerJurisdiction(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()

	expectTable(mock, "eld_jurisdiction_mileage", true)
	mock.ExpectQuery("FROM eld_jurisdiction_mileage").
		WithArgs("u1", "2025-01-01", "2025-03-31").
		WillReturnRows(sqlmock.NewRows([]string{"jurisdiction", "miles"}).
			AddRow("CA", 300.5).
			AddRow("NV", 99.5))

	summary, err := EldRepository{DB: db}.GetMileageSummary(context.Background(), "u1", q1(t))
	if err != nil {
		t.Fatalf("query error: %v", err)
	}
	if len(summary.PerJurisdiction) != 2 || summary.TotalMiles != 400 {
		t.Fatalf("unexpected summary %+v", summary)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestVehicleLabels(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery("FROM vehicles").
		WithArgs("u1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "unit_number", "make", "model"}).
			AddRow("v1", "101", "Freightliner", "Cascadia").
			AddRow("v2", "", "", ""))

	labels, err := VehicleRepository{DB: db}.VehicleLabels(context.Background(), "u1")
	if err != nil {
		t.Fatalf("query error: %v", err)
	}
	if labels["v1"] != "101 - Freightliner Cascadia" || labels["v2"] != "v2" {
		t.Fatalf("unexpected labels %v", labels)
	}
}

func TestNamedLock_AcquireAndRelease(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery("SELECT GET_LOCK").WithArgs("ifta:u1:2025-Q1:load_import", 5).
		WillReturnRows(sqlmock.NewRows([]string{"got"}).AddRow(1))
	mock.ExpectExec("SELECT RELEASE_LOCK").WithArgs("ifta:u1:2025-Q1:load_import").
		WillReturnResult(sqlmock.NewResult(0, 0))

	release, err := NamedLock{DB: db}.Acquire(context.Background(), "ifta:u1:2025-Q1:load_import")
	if err != nil {
		t.Fatalf("acquire error: %v", err)
	}
	release()
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestNamedLock_TimeoutIsConflict(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery("SELECT GET_LOCK").WillReturnRows(sqlmock.NewRows([]string{"got"}).AddRow(0))

	if _, err := (NamedLock{DB: db, TimeoutSeconds: 1}).Acquire(context.Background(), "k"); !domain.IsConflict(err) {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestLockName_ShortensLongKeys(t *testing.T) {
	short := "ifta:u1:2025-Q1:eld_import"
	if lockName(short) != short {
		t.Fatalf("short key changed: %s", lockName(short))
	}
	long := "ifta:4f6c1d0e-7a52-4a8e-9c1b-2b8f3e9d7a10:2025-Q1:state_mileage_import"
	got := lockName(long)
	if len(got) > maxLockName || got == lockName(long+"x") {
		t.Fatalf("unexpected lock name %q", got)
	}
}
