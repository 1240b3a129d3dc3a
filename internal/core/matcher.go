package core

import (
	"time"

	"attendance.service/internal/core/model"
)

// Classify decides what a punch means for the employee's day. It walks the
// candidate shifts in order and returns the first window match; if no shift
// produces a match, the punch is forced onto the temporally closest shift so
// that a scan with at least one candidate is never silently dropped.
//
// dayStart is local midnight of the attendance day in the employee's
// timezone. existing is the persisted record for the day, nil if none; the
// overtime branches are derived from it rather than any in-memory state so
// that concurrent punches always evaluate against durable truth.
func Classify(punch model.PunchEvent, dayStart time.Time, shifts []model.ShiftDefinition, existing *model.DayAttendanceRecord) model.Outcome {
	if len(shifts) == 0 {
		return model.Outcome{Kind: model.OutcomeRawOnly}
	}

	t := punch.OccurredAt

	var (
		closest         *model.ShiftDefinition
		closestDist     time.Duration
		closestIsArrive bool
	)

	for i := range shifts {
		shift := &shifts[i]
		start := dayStart.Add(shift.StartTime)
		end := dayStart.Add(shift.EndTime)
		grace := shift.GracePeriod
		if grace <= 0 {
			grace = model.DefaultGracePeriod
		}

		// Overtime takes precedence once the day is checked out: a punch
		// after end_time on an overtime-eligible shift is an overtime
		// boundary even when it still sits inside the end window.
		if shift.OvertimeEligible && existing != nil && existing.CheckOut != nil && t.After(end) {
			return overtimeStep(existing, shift, t, end)
		}

		if inWindow(t, start, grace) {
			out := model.Outcome{Kind: model.OutcomeCheckIn, Shift: shift}
			if t.After(start) {
				late := t.Sub(start)
				out.LateIn = &late
			}
			return out
		}

		if inWindow(t, end, grace) {
			out := model.Outcome{Kind: model.OutcomeCheckOut, Shift: shift}
			if t.Before(end) {
				early := end.Sub(t)
				out.EarlyOut = &early
			}
			return out
		}

		distIn := absDuration(t.Sub(start))
		distOut := absDuration(t.Sub(end))
		dist := distIn
		isArrive := true
		if distOut < distIn {
			dist = distOut
			isArrive = false
		}
		if closest == nil || dist < closestDist {
			closest = shift
			closestDist = dist
			closestIsArrive = isArrive
		}
	}

	return forceOntoClosest(t, dayStart, closest, closestIsArrive)
}

// forceOntoClosest attributes an out-of-window punch to the closest shift,
// as whichever of check-in/check-out is nearer in time.
func forceOntoClosest(t, dayStart time.Time, shift *model.ShiftDefinition, asArrival bool) model.Outcome {
	out := model.Outcome{Shift: shift, Forced: true}
	if asArrival {
		out.Kind = model.OutcomeCheckIn
		start := dayStart.Add(shift.StartTime)
		if t.After(start) {
			late := t.Sub(start)
			out.LateIn = &late
		}
		return out
	}
	out.Kind = model.OutcomeCheckOut
	end := dayStart.Add(shift.EndTime)
	if t.Before(end) {
		early := end.Sub(t)
		out.EarlyOut = &early
	}
	return out
}

// inWindow reports whether t falls inside [boundary-grace, boundary+grace],
// bounds included.
func inWindow(t, boundary time.Time, grace time.Duration) bool {
	return !t.Before(boundary.Add(-grace)) && !t.After(boundary.Add(grace))
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}
