package core

import (
	"time"

	"attendance.service/internal/core/model"
	"github.com/google/uuid"
)

// Merge folds a classified punch into the day record and returns the merged
// copy. The input record is never mutated.
//
// Semantics:
//   - structured fields are first-writer-wins; a later punch never
//     overwrites check_in, check_out, overtime_in or overtime_out.
//   - the punch is appended to raw_punches unconditionally, so replays and
//     stray scans always leave a durable trace.
//   - working_hours is computed exactly once, at the moment both check_in
//     and check_out are known.
//   - the record key (employee, date, shift) is fixed at creation; the
//     shift and its snapshot are frozen only for a brand-new record.
func Merge(existing *model.DayAttendanceRecord, punch model.PunchEvent, businessID, date string, out model.Outcome, now time.Time) *model.DayAttendanceRecord {
	var rec model.DayAttendanceRecord
	if existing != nil {
		rec = *existing
		rec.RawPunches = append([]model.RawPunch(nil), existing.RawPunches...)
	} else {
		rec = model.DayAttendanceRecord{
			ID:         uuid.NewString(),
			BusinessID: businessID,
			EmployeeID: punch.EmployeeID,
			Date:       date,
			CreatedAt:  now,
		}
		if out.Shift != nil {
			shiftID := out.Shift.ID
			snapshot := *out.Shift
			rec.ShiftID = &shiftID
			rec.ShiftSnapshot = &snapshot
		}
	}
	rec.UpdatedAt = now

	t := punch.OccurredAt

	switch out.Kind {
	case model.OutcomeCheckIn:
		if rec.CheckIn == nil {
			rec.CheckIn = &t
			rec.LateIn = out.LateIn
		}
	case model.OutcomeCheckOut:
		if rec.CheckOut == nil {
			rec.CheckOut = &t
			rec.EarlyOut = out.EarlyOut
		}
	case model.OutcomeOvertimeOpen:
		if rec.OvertimeIn == nil {
			rec.OvertimeIn = &t
			rec.OvertimeDuration = out.OvertimeDuration
		}
	case model.OutcomeOvertimeClose:
		if rec.OvertimeOut == nil {
			rec.OvertimeOut = &t
			rec.OvertimeDuration = out.OvertimeDuration
		}
	case model.OutcomeOvertimeHold, model.OutcomeRawOnly:
		// Raw trail only.
	}

	if rec.CheckIn != nil && rec.CheckOut != nil && rec.WorkingHours == nil {
		hours := rec.CheckOut.Sub(*rec.CheckIn)
		rec.WorkingHours = &hours
	}

	rec.RawPunches = append(rec.RawPunches, model.RawPunch{
		PunchID:    punch.ID,
		OccurredAt: t,
		Method:     punch.Method,
		Outcome:    out.Kind,
		RecordedAt: now,
	})

	return &rec
}
