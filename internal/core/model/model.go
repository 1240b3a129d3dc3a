package model

import (
	"time"
)

// PunchMethod is the closed set of capture methods a punch can arrive with.
// Unknown is the fallback for anything the capture flow sends that we do
// not recognise; it is never an error.
type PunchMethod string

const (
	MethodBiometric PunchMethod = "biometric"
	MethodFace      PunchMethod = "face"
	MethodQR        PunchMethod = "qr"
	MethodGeo       PunchMethod = "geo"
	MethodFaceGeo   PunchMethod = "face_geo"
	MethodQRGeo     PunchMethod = "qr_geo"
	MethodUnknown   PunchMethod = "unknown"
)

// ParsePunchMethod maps a raw method string onto the enum, falling back to
// MethodUnknown rather than failing on values from newer capture devices.
func ParsePunchMethod(s string) PunchMethod {
	switch PunchMethod(s) {
	case MethodBiometric, MethodFace, MethodQR, MethodGeo, MethodFaceGeo, MethodQRGeo:
		return PunchMethod(s)
	default:
		return MethodUnknown
	}
}

// PunchEvent is a single attendance scan. It is immutable once captured;
// the reconciliation engine only ever reads it.
type PunchEvent struct {
	ID            string      `json:"id"`
	BusinessID    string      `json:"businessId"`
	EmployeeID    string      `json:"employeeId"`
	OccurredAt    time.Time   `json:"occurredAt"`
	Method        PunchMethod `json:"method"`
	DeviceContext string      `json:"deviceContext,omitempty"`
}

// Employee is the directory row the loader resolves for a punch.
type Employee struct {
	ID           string  `json:"id"`
	BusinessID   string  `json:"businessId"`
	FullName     string  `json:"fullName"`
	DepartmentID *string `json:"departmentId,omitempty"`
	Timezone     string  `json:"timezone"`
	Active       bool    `json:"active"`
}

// Department carries scope metadata used only for audit context.
type Department struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// ShiftDefinition describes one work shift. StartTime and EndTime are
// offsets from local midnight, not bound to a specific date.
type ShiftDefinition struct {
	ID               string        `json:"id"`
	BusinessID       string        `json:"businessId"`
	Name             string        `json:"name"`
	StartTime        time.Duration `json:"startTime"`
	EndTime          time.Duration `json:"endTime"`
	GracePeriod      time.Duration `json:"gracePeriod"`
	MinOvertime      time.Duration `json:"minOvertime"`
	OvertimeEligible bool          `json:"overtimeEligible"`
	Active           bool          `json:"active"`
}

// DefaultGracePeriod applies when a shift row carries no explicit grace.
const DefaultGracePeriod = 15 * time.Minute

// OutcomeKind classifies what a punch meant for a day record.
type OutcomeKind string

const (
	OutcomeCheckIn       OutcomeKind = "check_in"
	OutcomeCheckOut      OutcomeKind = "check_out"
	OutcomeOvertimeOpen  OutcomeKind = "overtime_open"
	OutcomeOvertimeHold  OutcomeKind = "overtime_hold"
	OutcomeOvertimeClose OutcomeKind = "overtime_close"
	OutcomeRawOnly       OutcomeKind = "raw_only"
)

// Outcome is the result of classifying one punch against the candidate
// shifts and the existing day record.
type Outcome struct {
	Kind     OutcomeKind
	Shift    *ShiftDefinition
	LateIn   *time.Duration
	EarlyOut *time.Duration
	// OvertimeDuration is set for overtime_open and overtime_close.
	OvertimeDuration *time.Duration
	// Forced marks the closest-shift fallback: the punch landed in no
	// window but was still attributed to the temporally closest shift.
	Forced bool
}

// RawPunch is one entry of a record's append-only punch trail. Every punch
// that touches a record lands here, whatever its classification.
type RawPunch struct {
	PunchID    string      `json:"punchId"`
	OccurredAt time.Time   `json:"occurredAt"`
	Method     PunchMethod `json:"method"`
	Outcome    OutcomeKind `json:"outcome"`
	RecordedAt time.Time   `json:"recordedAt"`
}

// DayAttendanceRecord is the per (employee, date, shift-or-nil) attendance
// row the engine folds punches into. Structured fields follow
// first-writer-wins: once set, a later punch never overwrites them.
type DayAttendanceRecord struct {
	ID         string `json:"id"`
	BusinessID string `json:"businessId"`
	EmployeeID string `json:"employeeId"`
	// Date is the attendance day in the employee's timezone, YYYY-MM-DD.
	Date    string  `json:"date"`
	ShiftID *string `json:"shiftId,omitempty"`
	// ShiftSnapshot freezes the shift definition at match time; the live
	// definition may change afterwards.
	ShiftSnapshot    *ShiftDefinition `json:"shiftSnapshot,omitempty"`
	CheckIn          *time.Time       `json:"checkIn,omitempty"`
	LateIn           *time.Duration   `json:"lateIn,omitempty"`
	CheckOut         *time.Time       `json:"checkOut,omitempty"`
	EarlyOut         *time.Duration   `json:"earlyOut,omitempty"`
	OvertimeIn       *time.Time       `json:"overtimeIn,omitempty"`
	OvertimeOut      *time.Time       `json:"overtimeOut,omitempty"`
	OvertimeDuration *time.Duration   `json:"overtimeDuration,omitempty"`
	WorkingHours     *time.Duration   `json:"workingHours,omitempty"`
	RawPunches       []RawPunch       `json:"rawPunches"`
	CreatedAt        time.Time        `json:"createdAt"`
	UpdatedAt        time.Time        `json:"updatedAt"`
}

// Complete reports whether both boundary punches have arrived.
func (r *DayAttendanceRecord) Complete() bool {
	return r.CheckIn != nil && r.CheckOut != nil
}
