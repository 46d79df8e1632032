package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/google/uuid"

	intconfig "fleetledger/internal/config"
	intdb "fleetledger/internal/db"
	"fleetledger/internal/domain"
	"fleetledger/internal/domain/models"
)

const mysqlDuplicateEntry = 1062

// IftaTripRepository stores the trip ledger in ifta_trips.
type IftaTripRepository struct {
	DB *sql.DB
}

func (r IftaTripRepository) db() *sql.DB {
	if r.DB != nil {
		return r.DB
	}
	return intconfig.DB
}

const tripColumns = `id, user_id, quarter, vehicle_id, trip_date, start_jurisdiction, end_jurisdiction,
	start_odometer, end_odometer, total_miles, gallons_consumed, source_kind, COALESCE(source_ref,''),
	notes, created_at, updated_at`

// FindTripRecords returns every trip for the user's quarter in creation order.
func (r IftaTripRepository) FindTripRecords(ctx context.Context, userID, quarter string) ([]models.TripRecord, error) {
	db := r.db()
	if db == nil {
		return nil, errors.New("db not connected")
	}
	rows, err := db.QueryContext(ctx, `SELECT `+tripColumns+`
		FROM ifta_trips
		WHERE user_id=? AND quarter=?
		ORDER BY created_at ASC, id ASC`, userID, quarter)
	if err != nil {
		return nil, fmt.Errorf("query ifta_trips: %w", err)
	}
	defer rows.Close()

	out := []models.TripRecord{}
	for rows.Next() {
		var (
			rec                    models.TripRecord
			tripDate               sql.NullTime
			startOdo, endOdo, gals sql.NullFloat64
			kind                   string
		)
		if err := rows.Scan(
			&rec.ID,
			&rec.UserID,
			&rec.Quarter,
			&rec.VehicleID,
			&tripDate,
			&rec.StartJurisdiction,
			&rec.EndJurisdiction,
			&startOdo,
			&endOdo,
			&rec.TotalMiles,
			&gals,
			&kind,
			&rec.SourceRef,
			&rec.Notes,
			&rec.CreatedAt,
			&rec.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan ifta_trips: %w", err)
		}
		if tripDate.Valid {
			rec.TripDate = tripDate.Time
		}
		rec.StartOdometer = intdb.FloatPtr(startOdo)
		rec.EndOdometer = intdb.FloatPtr(endOdo)
		rec.GallonsConsumed = intdb.FloatPtr(gals)
		rec.SourceKind = models.SourceKind(kind)
		out = append(out, rec)
	}
	return out, rows.Err()
}

// sourceRefChunk bounds the IN list of one dedup query.
var sourceRefChunk = 500

// FindTripRecordsBySourceRefs returns which of refs are already stored for
// the (user, quarter, kind) scope. Refs are looked up in chunks.
func (r IftaTripRepository) FindTripRecordsBySourceRefs(ctx context.Context, userID, quarter string, kind models.SourceKind, refs []string) (map[string]bool, error) {
	found := map[string]bool{}
	if len(refs) == 0 {
		return found, nil
	}
	db := r.db()
	if db == nil {
		return nil, errors.New("db not connected")
	}

	for start := 0; start < len(refs); start += sourceRefChunk {
		end := start + sourceRefChunk
		if end > len(refs) {
			end = len(refs)
		}
		if err := findRefChunk(ctx, db, userID, quarter, kind, refs[start:end], found); err != nil {
			return nil, err
		}
	}
	return found, nil
}

func findRefChunk(ctx context.Context, db *sql.DB, userID, quarter string, kind models.SourceKind, refs []string, found map[string]bool) error {
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(refs)), ",")
	args := make([]any, 0, len(refs)+3)
	args = append(args, userID, quarter, string(kind))
	for _, ref := range refs {
		args = append(args, ref)
	}

	rows, err := db.QueryContext(ctx, `SELECT source_ref FROM ifta_trips
		WHERE user_id=? AND quarter=? AND source_kind=? AND source_ref IN (`+placeholders+`)`, args...)
	if err != nil {
		return fmt.Errorf("query imported refs: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var ref string
		if err := rows.Scan(&ref); err != nil {
			return fmt.Errorf("scan imported refs: %w", err)
		}
		found[ref] = true
	}
	return rows.Err()
}

// InsertTripRecords writes the batch in one transaction. Either every record
// is stored or none is. Missing ids and timestamps are filled in on the
// passed slice only after commit.
func (r IftaTripRepository) InsertTripRecords(ctx context.Context, records []models.TripRecord) error {
	if len(records) == 0 {
		return nil
	}
	db := r.db()
	if db == nil {
		return domain.PersistenceError{Op: "insert ifta_trips", Err: errors.New("db not connected")}
	}

	prepared := make([]models.TripRecord, len(records))
	copy(prepared, records)
	now := time.Now().UTC().Truncate(time.Second)
	for i := range prepared {
		if prepared[i].ID == "" {
			prepared[i].ID = uuid.NewString()
		}
		if prepared[i].CreatedAt.IsZero() {
			prepared[i].CreatedAt = now
		}
		prepared[i].UpdatedAt = prepared[i].CreatedAt
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return domain.PersistenceError{Op: "begin insert ifta_trips", Err: err}
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	for _, rec := range prepared {
		var tripDate any
		if !rec.TripDate.IsZero() {
			tripDate = rec.TripDate.Format("2006-01-02")
		}
		_, err := tx.ExecContext(ctx, `INSERT INTO ifta_trips
			(id, user_id, quarter, vehicle_id, trip_date, start_jurisdiction, end_jurisdiction,
			 start_odometer, end_odometer, total_miles, gallons_consumed, source_kind, source_ref,
			 notes, created_at, updated_at)
			VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
			rec.ID, rec.UserID, rec.Quarter, rec.VehicleID, tripDate,
			rec.StartJurisdiction, rec.EndJurisdiction,
			intdb.NullFloat(rec.StartOdometer), intdb.NullFloat(rec.EndOdometer),
			rec.TotalMiles, intdb.NullFloat(rec.GallonsConsumed),
			string(rec.SourceKind), intdb.NullIfEmpty(rec.SourceRef),
			rec.Notes, rec.CreatedAt, rec.UpdatedAt,
		)
		if err != nil {
			if isDuplicateEntry(err) {
				err = domain.ConflictError{Resource: "ifta_trip", Msg: "source record already imported: " + rec.SourceRef, Err: err}
			}
			return domain.PersistenceError{Op: "insert ifta_trips", Err: err}
		}
	}

	if err := tx.Commit(); err != nil {
		return domain.PersistenceError{Op: "commit ifta_trips", Err: err}
	}
	committed = true
	copy(records, prepared)
	return nil
}

func isDuplicateEntry(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == mysqlDuplicateEntry
}
