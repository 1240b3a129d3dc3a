package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"attendance.service/internal/core/model"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// PunchRepository is the PostgreSQL implementation of PunchStore and
// EmployeeStore.
type PunchRepository struct {
	DB *sql.DB
}

func NewPunchRepository(db *sql.DB) *PunchRepository {
	return &PunchRepository{DB: db}
}

// GetPunch fetches an active punch row. Soft-deleted or missing rows map
// to model.ErrPunchNotFound, a terminal outcome for the caller.
func (r *PunchRepository) GetPunch(ctx context.Context, punchID, businessID string) (*model.PunchEvent, error) {
	trace.SpanFromContext(ctx).SetAttributes(attribute.String("app.punch_id", punchID))

	query := `SELECT id, business_id, employee_id, occurred_at, method, device_context
	          FROM punches
	          WHERE id = $1 AND business_id = $2 AND active`

	var (
		punch  model.PunchEvent
		method string
		device sql.NullString
	)
	err := r.DB.QueryRowContext(ctx, query, punchID, businessID).Scan(
		&punch.ID, &punch.BusinessID, &punch.EmployeeID, &punch.OccurredAt, &method, &device,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrPunchNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query punch: %w", err)
	}

	punch.Method = model.ParsePunchMethod(method)
	punch.DeviceContext = device.String
	return &punch, nil
}

// CreatePunch persists a freshly captured punch.
func (r *PunchRepository) CreatePunch(ctx context.Context, punch model.PunchEvent) error {
	trace.SpanFromContext(ctx).SetAttributes(attribute.String("app.employee_id", punch.EmployeeID))

	query := `INSERT INTO punches (id, business_id, employee_id, occurred_at, method, device_context, active, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, TRUE, NOW())`

	_, err := r.DB.ExecContext(ctx, query,
		punch.ID, punch.BusinessID, punch.EmployeeID, punch.OccurredAt, string(punch.Method), punch.DeviceContext,
	)
	return err
}

// GetEmployee fetches an active employee row or model.ErrEmployeeNotFound.
func (r *PunchRepository) GetEmployee(ctx context.Context, employeeID, businessID string) (*model.Employee, error) {
	trace.SpanFromContext(ctx).SetAttributes(attribute.String("app.employee_id", employeeID))

	query := `SELECT id, business_id, full_name, department_id, timezone, active
	          FROM employees
	          WHERE id = $1 AND business_id = $2 AND active`

	var (
		emp  model.Employee
		dept sql.NullString
		tz   sql.NullString
	)
	err := r.DB.QueryRowContext(ctx, query, employeeID, businessID).Scan(
		&emp.ID, &emp.BusinessID, &emp.FullName, &dept, &tz, &emp.Active,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrEmployeeNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query employee: %w", err)
	}

	if dept.Valid {
		emp.DepartmentID = &dept.String
	}
	emp.Timezone = tz.String
	if emp.Timezone == "" {
		emp.Timezone = "UTC"
	}
	return &emp, nil
}

// GetDepartment is best effort: (nil, nil) when the row is missing.
func (r *PunchRepository) GetDepartment(ctx context.Context, departmentID string) (*model.Department, error) {
	query := `SELECT id, name FROM departments WHERE id = $1`

	var dept model.Department
	err := r.DB.QueryRowContext(ctx, query, departmentID).Scan(&dept.ID, &dept.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query department: %w", err)
	}
	return &dept, nil
}
