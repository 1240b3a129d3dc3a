package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"attendance.service/internal/core/model"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// AttendanceRepository is the PostgreSQL implementation of AttendanceStore.
//
// The read-modify-write runs inside one transaction holding an advisory
// lock on the (employee, date) key, so concurrent punches for the same day
// serialize at the database regardless of which worker instance handles
// them. Insert-vs-update races cannot occur: whoever holds the lock sees
// the other writer's committed row or its absence.
type AttendanceRepository struct {
	DB *sql.DB
}

func NewAttendanceRepository(db *sql.DB) *AttendanceRepository {
	return &AttendanceRepository{DB: db}
}

// Update applies fn to the day's record under the per-key lock and persists
// the result. The zero-candidate path matches only shift-less records;
// otherwise the earliest record keyed by one of the candidate shifts wins.
func (r *AttendanceRepository) Update(ctx context.Context, businessID, employeeID, date string, candidateShiftIDs []string,
	apply func(existing *model.DayAttendanceRecord) (*model.DayAttendanceRecord, error)) error {

	trace.SpanFromContext(ctx).SetAttributes(
		attribute.String("app.employee_id", employeeID),
		attribute.String("app.attendance_date", date),
	)

	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin attendance tx: %w", err)
	}
	defer tx.Rollback()

	// Serialize all writers for this employee/day.
	lockKey := employeeID + "|" + date
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtextextended($1, 0))`, lockKey); err != nil {
		return fmt.Errorf("acquire day lock: %w", err)
	}

	existing, err := r.findForDay(ctx, tx, businessID, employeeID, date, candidateShiftIDs)
	if err != nil {
		return err
	}

	merged, err := apply(existing)
	if err != nil {
		return err
	}
	if merged == nil {
		return tx.Commit()
	}

	if existing == nil {
		err = r.insert(ctx, tx, merged)
	} else {
		err = r.update(ctx, tx, merged)
	}
	if err != nil {
		return err
	}

	return tx.Commit()
}

const attendanceColumns = `id, business_id, employee_id, attendance_date, shift_id, shift_snapshot,
	check_in, late_in_seconds, check_out, early_out_seconds,
	overtime_in, overtime_out, overtime_seconds, working_seconds,
	raw_punches, created_at, updated_at`

// findForDay loads the day's rows and picks the one matching the candidate
// shift set, or the shift-less row when there are no candidates. Days have
// very few rows, so filtering happens here rather than in SQL.
func (r *AttendanceRepository) findForDay(ctx context.Context, tx *sql.Tx, businessID, employeeID, date string, candidateShiftIDs []string) (*model.DayAttendanceRecord, error) {
	query := `SELECT ` + attendanceColumns + `
	          FROM attendance_days
	          WHERE business_id = $1 AND employee_id = $2 AND attendance_date = $3
	          ORDER BY created_at`

	rows, err := tx.QueryContext(ctx, query, businessID, employeeID, date)
	if err != nil {
		return nil, fmt.Errorf("query attendance day: %w", err)
	}
	defer rows.Close()

	candidates := make(map[string]struct{}, len(candidateShiftIDs))
	for _, id := range candidateShiftIDs {
		candidates[id] = struct{}{}
	}

	for rows.Next() {
		rec, err := scanAttendance(rows)
		if err != nil {
			return nil, fmt.Errorf("scan attendance day: %w", err)
		}
		if rec.ShiftID == nil {
			if len(candidates) == 0 {
				return rec, nil
			}
			continue
		}
		if _, ok := candidates[*rec.ShiftID]; ok {
			return rec, nil
		}
	}
	return nil, rows.Err()
}

func (r *AttendanceRepository) insert(ctx context.Context, tx *sql.Tx, rec *model.DayAttendanceRecord) error {
	snapshot, rawPunches, err := marshalJSONFields(rec)
	if err != nil {
		return err
	}

	query := `INSERT INTO attendance_days (` + attendanceColumns + `)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`

	_, err = tx.ExecContext(ctx, query,
		rec.ID, rec.BusinessID, rec.EmployeeID, rec.Date, rec.ShiftID, snapshot,
		rec.CheckIn, durationSeconds(rec.LateIn), rec.CheckOut, durationSeconds(rec.EarlyOut),
		rec.OvertimeIn, rec.OvertimeOut, durationSeconds(rec.OvertimeDuration), durationSeconds(rec.WorkingHours),
		rawPunches, rec.CreatedAt, rec.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert attendance day: %w", err)
	}
	return nil
}

func (r *AttendanceRepository) update(ctx context.Context, tx *sql.Tx, rec *model.DayAttendanceRecord) error {
	snapshot, rawPunches, err := marshalJSONFields(rec)
	if err != nil {
		return err
	}

	query := `UPDATE attendance_days
	          SET check_in = $1, late_in_seconds = $2,
	              check_out = $3, early_out_seconds = $4,
	              overtime_in = $5, overtime_out = $6, overtime_seconds = $7,
	              working_seconds = $8, shift_snapshot = $9, raw_punches = $10,
	              updated_at = $11
	          WHERE id = $12`

	res, err := tx.ExecContext(ctx, query,
		rec.CheckIn, durationSeconds(rec.LateIn), rec.CheckOut, durationSeconds(rec.EarlyOut),
		rec.OvertimeIn, rec.OvertimeOut, durationSeconds(rec.OvertimeDuration), durationSeconds(rec.WorkingHours),
		snapshot, rawPunches, rec.UpdatedAt, rec.ID,
	)
	if err != nil {
		return fmt.Errorf("update attendance day: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("attendance day %s vanished during update", rec.ID)
	}
	return nil
}

func marshalJSONFields(rec *model.DayAttendanceRecord) (snapshot, rawPunches []byte, err error) {
	if rec.ShiftSnapshot != nil {
		snapshot, err = json.Marshal(rec.ShiftSnapshot)
		if err != nil {
			return nil, nil, fmt.Errorf("marshal shift snapshot: %w", err)
		}
	}
	rawPunches, err = json.Marshal(rec.RawPunches)
	if err != nil {
		return nil, nil, fmt.Errorf("marshal raw punches: %w", err)
	}
	return snapshot, rawPunches, nil
}

func scanAttendance(rows *sql.Rows) (*model.DayAttendanceRecord, error) {
	var (
		rec          model.DayAttendanceRecord
		date         time.Time
		shiftID      sql.NullString
		snapshot     []byte
		checkIn      sql.NullTime
		lateInSecs   sql.NullInt64
		checkOut     sql.NullTime
		earlyOutSecs sql.NullInt64
		overtimeIn   sql.NullTime
		overtimeOut  sql.NullTime
		overtimeSecs sql.NullInt64
		workingSecs  sql.NullInt64
		rawPunches   []byte
	)

	err := rows.Scan(
		&rec.ID, &rec.BusinessID, &rec.EmployeeID, &date, &shiftID, &snapshot,
		&checkIn, &lateInSecs, &checkOut, &earlyOutSecs,
		&overtimeIn, &overtimeOut, &overtimeSecs, &workingSecs,
		&rawPunches, &rec.CreatedAt, &rec.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	rec.Date = date.Format("2006-01-02")
	if shiftID.Valid {
		rec.ShiftID = &shiftID.String
	}
	if len(snapshot) > 0 {
		var s model.ShiftDefinition
		if err := json.Unmarshal(snapshot, &s); err != nil {
			return nil, fmt.Errorf("unmarshal shift snapshot: %w", err)
		}
		rec.ShiftSnapshot = &s
	}
	rec.CheckIn = nullTimePtr(checkIn)
	rec.LateIn = secondsDuration(lateInSecs)
	rec.CheckOut = nullTimePtr(checkOut)
	rec.EarlyOut = secondsDuration(earlyOutSecs)
	rec.OvertimeIn = nullTimePtr(overtimeIn)
	rec.OvertimeOut = nullTimePtr(overtimeOut)
	rec.OvertimeDuration = secondsDuration(overtimeSecs)
	rec.WorkingHours = secondsDuration(workingSecs)
	if len(rawPunches) > 0 {
		if err := json.Unmarshal(rawPunches, &rec.RawPunches); err != nil {
			return nil, fmt.Errorf("unmarshal raw punches: %w", err)
		}
	}
	return &rec, nil
}

func nullTimePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	return &t.Time
}

func secondsDuration(n sql.NullInt64) *time.Duration {
	if !n.Valid {
		return nil
	}
	d := time.Duration(n.Int64) * time.Second
	return &d
}

func durationSeconds(d *time.Duration) *int64 {
	if d == nil {
		return nil
	}
	secs := int64(*d / time.Second)
	return &secs
}
