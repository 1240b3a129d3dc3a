package core

import (
	"context"
	"fmt"
	"time"

	"attendance.service/internal/core/model"
	"attendance.service/internal/ports/messaging"
	"github.com/google/uuid"
)

// PunchPublisher is the output port for handing a captured punch to the
// reconciliation queue.
type PunchPublisher interface {
	PublishPunch(ctx context.Context, body any) error
}

// CaptureService records an incoming punch and enqueues it for asynchronous
// reconciliation. This is the thin upstream of the engine; it does no
// classification of its own.
type CaptureService struct {
	punches  punchCreator
	producer PunchPublisher
	now      func() time.Time
}

type punchCreator interface {
	CreatePunch(ctx context.Context, punch model.PunchEvent) error
}

func NewCaptureService(punches punchCreator, producer PunchPublisher) *CaptureService {
	return &CaptureService{
		punches:  punches,
		producer: producer,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// CapturePunch persists the punch and publishes its identifier. The punch
// row is durable before the queue send, so a lost publish can be replayed
// without re-capturing.
func (s *CaptureService) CapturePunch(ctx context.Context, businessID, employeeID string, method model.PunchMethod, deviceContext string) (string, error) {
	punch := model.PunchEvent{
		ID:            uuid.NewString(),
		BusinessID:    businessID,
		EmployeeID:    employeeID,
		OccurredAt:    s.now(),
		Method:        method,
		DeviceContext: deviceContext,
	}

	if err := s.punches.CreatePunch(ctx, punch); err != nil {
		return "", fmt.Errorf("store punch: %w", err)
	}

	event := messaging.PunchCapturedEvent{
		PunchID:       punch.ID,
		BusinessID:    businessID,
		EmployeeID:    employeeID,
		DeviceContext: deviceContext,
	}
	if err := s.producer.PublishPunch(ctx, event); err != nil {
		return "", fmt.Errorf("publish punch %s: %w", punch.ID, err)
	}

	return punch.ID, nil
}
