package core

import (
	"context"
	"fmt"
	"time"

	"attendance.service/internal/core/model"
	"attendance.service/internal/ports/repository"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Reconciler turns one punch event into a durable change of the day's
// attendance record: load punch and employee, resolve candidate shifts,
// classify the punch against their windows and merge the outcome into the
// record under the store's per-key lock.
type Reconciler struct {
	punches   repository.PunchStore
	employees repository.EmployeeStore
	resolver  *ShiftResolver
	store     repository.AttendanceStore
	audit     AuditSink
	// now is swappable for tests.
	now func() time.Time
}

func NewReconciler(punches repository.PunchStore, employees repository.EmployeeStore, resolver *ShiftResolver, store repository.AttendanceStore, audit AuditSink) *Reconciler {
	if audit == nil {
		audit = NopAuditSink{}
	}
	return &Reconciler{
		punches:   punches,
		employees: employees,
		resolver:  resolver,
		store:     store,
		audit:     audit,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Reconcile processes one punch end to end. Terminal failures (missing or
// soft-deleted punch/employee) return a model sentinel wrapped error; the
// caller drops the event. Store failures propagate so the job framework
// can retry.
func (r *Reconciler) Reconcile(ctx context.Context, punchID, businessID, deviceContext string) error {
	span := trace.SpanFromContext(ctx)
	span.SetAttributes(attribute.String("app.punch_id", punchID))

	punch, err := r.punches.GetPunch(ctx, punchID, businessID)
	if err != nil {
		r.auditDrop(ctx, punchID, businessID, err)
		return fmt.Errorf("load punch %s: %w", punchID, err)
	}
	if punch.DeviceContext == "" {
		punch.DeviceContext = deviceContext
	}
	span.SetAttributes(attribute.String("app.employee_id", punch.EmployeeID))

	employee, err := r.employees.GetEmployee(ctx, punch.EmployeeID, businessID)
	if err != nil {
		r.auditDrop(ctx, punchID, businessID, err)
		return fmt.Errorf("load employee %s: %w", punch.EmployeeID, err)
	}

	// Department is audit context only; its absence is non-fatal.
	var departmentName string
	if employee.DepartmentID != nil {
		if dept, err := r.employees.GetDepartment(ctx, *employee.DepartmentID); err != nil {
			log.Ctx(ctx).Debug().Err(err).Str("department_id", *employee.DepartmentID).Msg("Department lookup failed")
		} else if dept != nil {
			departmentName = dept.Name
		}
	}

	loc, err := time.LoadLocation(employee.Timezone)
	if err != nil {
		loc = time.UTC
	}
	local := punch.OccurredAt.In(loc)
	date := local.Format("2006-01-02")
	dayStart := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)

	candidates := r.resolver.Resolve(ctx, businessID, punch.EmployeeID, date)
	candidateIDs := make([]string, 0, len(candidates))
	for _, s := range candidates {
		candidateIDs = append(candidateIDs, s.ID)
	}

	var outcome model.Outcome
	err = r.store.Update(ctx, businessID, punch.EmployeeID, date, candidateIDs,
		func(existing *model.DayAttendanceRecord) (*model.DayAttendanceRecord, error) {
			outcome = Classify(*punch, dayStart, candidates, existing)
			return Merge(existing, *punch, businessID, date, outcome, r.now()), nil
		})
	if err != nil {
		log.Ctx(ctx).Error().Err(err).
			Str("punch_id", punch.ID).
			Str("employee_id", punch.EmployeeID).
			Str("date", date).
			Msg("Attendance record merge failed")
		return fmt.Errorf("merge punch %s into %s/%s: %w", punch.ID, punch.EmployeeID, date, err)
	}

	fields := map[string]any{
		"punch_id":    punch.ID,
		"employee_id": punch.EmployeeID,
		"date":        date,
		"method":      string(punch.Method),
		"outcome":     string(outcome.Kind),
		"forced":      outcome.Forced,
		"candidates":  len(candidates),
	}
	if outcome.Shift != nil {
		fields["shift_id"] = outcome.Shift.ID
	}
	if departmentName != "" {
		fields["department"] = departmentName
	}
	r.audit.Emit(ctx, "info", "punch reconciled", fields)

	log.Ctx(ctx).Info().
		Str("punch_id", punch.ID).
		Str("employee_id", punch.EmployeeID).
		Str("date", date).
		Str("outcome", string(outcome.Kind)).
		Bool("forced", outcome.Forced).
		Msg("Punch reconciled")

	return nil
}

func (r *Reconciler) auditDrop(ctx context.Context, punchID, businessID string, cause error) {
	if !model.IsNotFound(cause) {
		return
	}
	log.Ctx(ctx).Warn().Err(cause).Str("punch_id", punchID).Msg("Dropping punch, referenced row is missing")
	r.audit.Emit(ctx, "warn", "punch dropped", map[string]any{
		"punch_id":    punchID,
		"business_id": businessID,
		"reason":      cause.Error(),
	})
}
