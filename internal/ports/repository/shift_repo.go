package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"attendance.service/internal/core/model"
)

// ShiftRepository is the PostgreSQL implementation of ShiftStore. Shift
// boundaries are stored as minutes from local midnight.
type ShiftRepository struct {
	DB *sql.DB
}

func NewShiftRepository(db *sql.DB) *ShiftRepository {
	return &ShiftRepository{DB: db}
}

const shiftColumns = `id, business_id, name, start_minute, end_minute, grace_minutes, min_overtime_minutes, overtime_eligible, active`

// GetByIDs hydrates the assigned shift ids, preserving the assignment
// order. Ids that no longer resolve to an active shift are skipped.
func (r *ShiftRepository) GetByIDs(ctx context.Context, businessID string, ids []string) ([]model.ShiftDefinition, error) {
	query := `SELECT ` + shiftColumns + `
	          FROM shifts
	          WHERE id = $1 AND business_id = $2 AND active`

	shifts := make([]model.ShiftDefinition, 0, len(ids))
	for _, id := range ids {
		var shift model.ShiftDefinition
		err := scanShift(r.DB.QueryRowContext(ctx, query, id, businessID), &shift)
		if errors.Is(err, sql.ErrNoRows) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("query shift %s: %w", id, err)
		}
		shifts = append(shifts, shift)
	}
	return shifts, nil
}

// ListActive returns every active shift for the tenant, ordered by start
// time. This is the fallback candidate set when no assignment exists.
func (r *ShiftRepository) ListActive(ctx context.Context, businessID string) ([]model.ShiftDefinition, error) {
	query := `SELECT ` + shiftColumns + `
	          FROM shifts
	          WHERE business_id = $1 AND active
	          ORDER BY start_minute`

	rows, err := r.DB.QueryContext(ctx, query, businessID)
	if err != nil {
		return nil, fmt.Errorf("query active shifts: %w", err)
	}
	defer rows.Close()

	var shifts []model.ShiftDefinition
	for rows.Next() {
		var shift model.ShiftDefinition
		if err := scanShift(rows, &shift); err != nil {
			return nil, fmt.Errorf("scan shift: %w", err)
		}
		shifts = append(shifts, shift)
	}
	return shifts, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanShift(row rowScanner, shift *model.ShiftDefinition) error {
	var startMin, endMin, graceMin, minOvertimeMin int64
	err := row.Scan(
		&shift.ID, &shift.BusinessID, &shift.Name,
		&startMin, &endMin, &graceMin, &minOvertimeMin,
		&shift.OvertimeEligible, &shift.Active,
	)
	if err != nil {
		return err
	}

	shift.StartTime = time.Duration(startMin) * time.Minute
	shift.EndTime = time.Duration(endMin) * time.Minute
	shift.GracePeriod = time.Duration(graceMin) * time.Minute
	if shift.GracePeriod <= 0 {
		shift.GracePeriod = model.DefaultGracePeriod
	}
	shift.MinOvertime = time.Duration(minOvertimeMin) * time.Minute
	return nil
}
