package audit

import (
	"context"
	"time"

	"attendance.service/internal/ports/messaging"
	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"
)

// Publisher is the slice of the queue producer the sink needs.
type Publisher interface {
	PublishAudit(ctx context.Context, body any) error
}

// SQSSink ships audit events to the audit queue. It sits behind a circuit
// breaker so an unhealthy audit pipeline stops being called instead of
// adding latency to every reconciliation; emission failures are swallowed
// into a debug log and never reach the caller.
type SQSSink struct {
	producer Publisher
	cb       *gobreaker.CircuitBreaker
	now      func() time.Time
}

func NewSQSSink(producer Publisher) *SQSSink {
	settings := gobreaker.Settings{
		Name:        "Audit-Queue",
		MaxRequests: 5,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			// Trip if failure rate exceeds 50% after at least 10 requests
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 10 && failureRatio >= 0.5
		},
	}

	return &SQSSink{
		producer: producer,
		cb:       gobreaker.NewCircuitBreaker(settings),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Emit publishes one audit event, fire-and-forget.
func (s *SQSSink) Emit(ctx context.Context, level, message string, fields map[string]any) {
	event := messaging.AuditEvent{
		Level:     level,
		Message:   message,
		Context:   fields,
		EmittedAt: s.now(),
	}

	_, err := s.cb.Execute(func() (any, error) {
		return nil, s.producer.PublishAudit(ctx, event)
	})
	if err != nil {
		log.Ctx(ctx).Debug().Err(err).Str("audit_message", message).Msg("Audit event dropped")
	}
}
