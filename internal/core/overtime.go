package core

import (
	"time"

	"attendance.service/internal/core/model"
)

// overtimeStep advances the record's overtime state for one punch. The
// machine is NoOvertime -> OvertimeOpen -> OvertimeClosed and is derived
// entirely from the persisted record:
//
//   - no overtime_in yet: open overtime at the punch instant.
//   - open, punch within overtime_in + min_overtime: hold. Repeated scans
//     inside the minimum-overtime window are coalesced into the raw trail
//     instead of closing overtime prematurely.
//   - open, punch past that window: close overtime.
//   - already closed: raw log only, no further transitions.
//
// Durations are measured from shift end, not from overtime_in.
func overtimeStep(rec *model.DayAttendanceRecord, shift *model.ShiftDefinition, t, shiftEnd time.Time) model.Outcome {
	switch {
	case rec.OvertimeIn == nil:
		dur := t.Sub(shiftEnd)
		return model.Outcome{Kind: model.OutcomeOvertimeOpen, Shift: shift, OvertimeDuration: &dur}

	case rec.OvertimeOut == nil:
		if t.Before(rec.OvertimeIn.Add(shift.MinOvertime)) {
			return model.Outcome{Kind: model.OutcomeOvertimeHold, Shift: shift}
		}
		dur := t.Sub(shiftEnd)
		return model.Outcome{Kind: model.OutcomeOvertimeClose, Shift: shift, OvertimeDuration: &dur}

	default:
		return model.Outcome{Kind: model.OutcomeRawOnly, Shift: shift}
	}
}
