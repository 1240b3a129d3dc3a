package messaging

import "time"

// PunchCapturedEvent is the JSON payload published for every captured
// punch. The worker receives identifiers only and loads the punch row at
// reconcile time.
type PunchCapturedEvent struct {
	PunchID       string `json:"punchId"`
	BusinessID    string `json:"businessId"`
	EmployeeID    string `json:"employeeId"`
	DeviceContext string `json:"deviceContext,omitempty"`
}

// AuditEvent is the JSON payload sent to the audit queue.
type AuditEvent struct {
	Level     string         `json:"level"`
	Message   string         `json:"message"`
	Context   map[string]any `json:"context,omitempty"`
	EmittedAt time.Time      `json:"emittedAt"`
}
