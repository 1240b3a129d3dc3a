package repository

import (
	"context"

	"attendance.service/internal/core/model"
)

// PunchStore persists and loads punch events.
type PunchStore interface {
	// GetPunch returns the active punch row or model.ErrPunchNotFound.
	GetPunch(ctx context.Context, punchID, businessID string) (*model.PunchEvent, error)
	CreatePunch(ctx context.Context, punch model.PunchEvent) error
}

// EmployeeStore resolves directory rows for a punch.
type EmployeeStore interface {
	// GetEmployee returns the active employee row or model.ErrEmployeeNotFound.
	GetEmployee(ctx context.Context, employeeID, businessID string) (*model.Employee, error)
	// GetDepartment is best effort; (nil, nil) when the row is missing.
	GetDepartment(ctx context.Context, departmentID string) (*model.Department, error)
}

// ShiftStore supplies shift definitions.
type ShiftStore interface {
	// GetByIDs hydrates the given shift ids, preserving order and
	// skipping ids that resolve to no active shift.
	GetByIDs(ctx context.Context, businessID string, ids []string) ([]model.ShiftDefinition, error)
	ListActive(ctx context.Context, businessID string) ([]model.ShiftDefinition, error)
}

// AttendanceStore is the single point of mutual exclusion for the engine.
// Update runs apply against the current record for (employee, date) under a
// per-key lock: apply receives the persisted record (nil if none exists for
// the candidate shift set) and returns the merged record, which the store
// inserts or updates before releasing the lock. Two punches for the same
// key can therefore never lose an update.
type AttendanceStore interface {
	Update(ctx context.Context, businessID, employeeID, date string, candidateShiftIDs []string,
		apply func(existing *model.DayAttendanceRecord) (*model.DayAttendanceRecord, error)) error
}
