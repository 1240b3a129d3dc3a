package core

import (
	"context"

	"attendance.service/internal/core/model"
	"attendance.service/internal/ports/repository"
	"attendance.service/internal/shiftdir"
	"github.com/rs/zerolog/log"
)

// ShiftResolver produces the ordered candidate shift set for an employee
// and date. The authoritative assignment directory is preferred; any
// failure there is a defined fallback to all active shifts for the tenant,
// never an error. An empty result means the raw-logging path.
type ShiftResolver struct {
	directory shiftdir.Client
	shifts    repository.ShiftStore
	audit     AuditSink
}

func NewShiftResolver(directory shiftdir.Client, shifts repository.ShiftStore, audit AuditSink) *ShiftResolver {
	if audit == nil {
		audit = NopAuditSink{}
	}
	return &ShiftResolver{
		directory: directory,
		shifts:    shifts,
		audit:     audit,
	}
}

// Resolve never fails: every error on the way down degrades to the next
// fallback and is logged.
func (r *ShiftResolver) Resolve(ctx context.Context, businessID, employeeID, date string) []model.ShiftDefinition {
	if r.directory != nil {
		ids, err := r.directory.GetShifts(ctx, businessID, employeeID, date)
		if err != nil {
			log.Ctx(ctx).Warn().Err(err).
				Str("employee_id", employeeID).
				Str("date", date).
				Msg("Shift assignment lookup failed, falling back to active shifts")
			r.audit.Emit(ctx, "warn", "shift assignment lookup failed", map[string]any{
				"employee_id": employeeID,
				"date":        date,
				"error":       err.Error(),
			})
		} else if len(ids) > 0 {
			defs, err := r.shifts.GetByIDs(ctx, businessID, ids)
			if err != nil {
				log.Ctx(ctx).Warn().Err(err).
					Str("employee_id", employeeID).
					Msg("Failed to hydrate assigned shifts, falling back to active shifts")
			} else if len(defs) > 0 {
				return defs
			}
		}
	}

	defs, err := r.shifts.ListActive(ctx, businessID)
	if err != nil {
		log.Ctx(ctx).Warn().Err(err).
			Str("business_id", businessID).
			Msg("Active shift lookup failed, proceeding with zero candidates")
		return nil
	}
	return defs
}
