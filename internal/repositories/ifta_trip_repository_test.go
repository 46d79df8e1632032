package repositories

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"

	"fleetledger/internal/domain"
	"fleetledger/internal/domain/models"
)

func newMock(t *testing.T) (IftaTripRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return IftaTripRepository{DB: db}, mock
}

func TestInsertTripRecords_CommitsBatch(t *testing.T) {
	repo, mock := newMock(t)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO ifta_trips").
		WithArgs(sqlmock.AnyArg(), "u1", "2025-Q1", "truck-1", "2025-02-10", "CA", "NV",
			nil, nil, 200.0, nil, "load_import", "L-1", "", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO ifta_trips").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	recs := []models.TripRecord{
		{UserID: "u1", Quarter: "2025-Q1", VehicleID: "truck-1", TripDate: time.Date(2025, 2, 10, 0, 0, 0, 0, time.UTC),
			StartJurisdiction: "CA", EndJurisdiction: "NV", TotalMiles: 200, SourceKind: models.SourceLoadImport, SourceRef: "L-1"},
		{UserID: "u1", Quarter: "2025-Q1", StartJurisdiction: "TX", EndJurisdiction: "TX", TotalMiles: 50, SourceKind: models.SourceManual},
	}
	if err := repo.InsertTripRecords(context.Background(), recs); err != nil {
		t.Fatalf("insert error: %v", err)
	}
	if recs[0].ID == "" || recs[1].CreatedAt.IsZero() {
		t.Fatalf("ids and timestamps should be filled after commit: %+v", recs)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestInsertTripRecords_DuplicateRollsBack(t *testing.T) {
	repo, mock := newMock(t)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO ifta_trips").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO ifta_trips").WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry"})
	mock.ExpectRollback()

	recs := []models.TripRecord{
		{UserID: "u1", Quarter: "2025-Q1", SourceKind: models.SourceLoadImport, SourceRef: "L-1"},
		{UserID: "u1", Quarter: "2025-Q1", SourceKind: models.SourceLoadImport, SourceRef: "L-2"},
	}
	err := repo.InsertTripRecords(context.Background(), recs)
	if !domain.IsPersistence(err) || !domain.IsConflict(err) {
		t.Fatalf("expected persistence conflict, got %v", err)
	}
	if recs[0].ID != "" {
		t.Fatalf("caller records must stay untouched when the batch fails")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestInsertTripRecords_BeginFailure(t *testing.T) {
	repo, mock := newMock(t)
	mock.ExpectBegin().WillReturnError(errors.New("conn reset"))

	err := repo.InsertTripRecords(context.Background(), []models.TripRecord{{UserID: "u1"}})
	if !domain.IsPersistence(err) {
		t.Fatalf("expected persistence error, got %v", err)
	}
}

func TestFindTripRecordsBySourceRefs(t *testing.T) {
	repo, mock := newMock(t)

	mock.ExpectQuery("SELECT source_ref FROM ifta_trips").
		WithArgs("u1", "2025-Q1", "load_import", "L-1", "L-2", "L-3").
		WillReturnRows(sqlmock.NewRows([]string{"source_ref"}).AddRow("L-2"))

	found, err := repo.FindTripRecordsBySourceRefs(context.Background(), "u1", "2025-Q1", models.SourceLoadImport, []string{"L-1", "L-2", "L-3"})
	if err != nil {
		t.Fatalf("query error: %v", err)
	}
	if len(found) != 1 || !found["L-2"] {
		t.Fatalf("unexpected refs %v", found)
	}

	found, err = repo.FindTripRecordsBySourceRefs(context.Background(), "u1", "2025-Q1", models.SourceLoadImport, nil)
	if err != nil || len(found) != 0 {
		t.Fatalf("empty ref list should not hit the database: %v %v", found, err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestFindTripRecordsBySourceRefs_Chunks(t *testing.T) {
	repo, mock := newMock(t)
	prev := sourceRefChunk
	sourceRefChunk = 2
	defer func() { sourceRefChunk = prev }()

	mock.ExpectQuery("SELECT source_ref FROM ifta_trips").
		WithArgs("u1", "2025-Q2", "state_mileage_import", "T1#1", "T1#2").
		WillReturnRows(sqlmock.NewRows([]string{"source_ref"}).AddRow("T1#1"))
	mock.ExpectQuery("SELECT source_ref FROM ifta_trips").
		WithArgs("u1", "2025-Q2", "state_mileage_import", "T2#1").
		WillReturnRows(sqlmock.NewRows([]string{"source_ref"}).AddRow("T2#1"))

	found, err := repo.FindTripRecordsBySourceRefs(context.Background(), "u1", "2025-Q2", models.SourceMileageTrackerImport, []string{"T1#1", "T1#2", "T2#1"})
	if err != nil {
		t.Fatalf("query error: %v", err)
	}
	if len(found) != 2 || !found["T1#1"] || !found["T2#1"] {
		t.Fatalf("unexpected refs %v", found)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestFindTripRecords_Scans(t *testing.T) {
	repo, mock := newMock(t)
	now := time.Date(2025, 1, 5, 8, 0, 0, 0, time.UTC)

	cols := []string{"id", "user_id", "quarter", "vehicle_id", "trip_date", "start_jurisdiction", "end_jurisdiction",
		"start_odometer", "end_odometer", "total_miles", "gallons_consumed", "source_kind", "source_ref",
		"notes", "created_at", "updated_at"}
	mock.ExpectQuery("FROM ifta_trips").
		WithArgs("u1", "2025-Q1").
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow("t1", "u1", "2025-Q1", "truck-1", now, "CA", "CA", 1000.0, 1500.0, 500.0, 80.0, "manual", "", "", now, now).
			AddRow("t2", "u1", "2025-Q1", "truck-1", nil, "CA", "NV", nil, nil, 200.0, nil, "load_import", "L-1", "", now, now))

	recs, err := repo.FindTripRecords(context.Background(), "u1", "2025-Q1")
	if err != nil {
		t.Fatalf("query error: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("expected 2 records, got %d", len(recs))
	}
	if recs[0].Gallons() != 80 || recs[0].StartOdometer == nil || *recs[0].EndOdometer != 1500 {
		t.Fatalf("optional fields not scanned: %+v", recs[0])
	}
	if recs[1].SourceKind != models.SourceLoadImport || recs[1].SourceRef != "L-1" || recs[1].GallonsConsumed != nil {
		t.Fatalf("unexpected second record %+v", recs[1])
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
