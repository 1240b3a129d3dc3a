package core

import "context"

// AuditSink receives structured trace events from the engine. Emit is
// fire-and-forget: implementations must never block reconciliation or
// surface their own failures to the caller.
type AuditSink interface {
	Emit(ctx context.Context, level, message string, fields map[string]any)
}

// NopAuditSink discards everything. Used in tests and as a safe default.
type NopAuditSink struct{}

func (NopAuditSink) Emit(context.Context, string, string, map[string]any) {}
