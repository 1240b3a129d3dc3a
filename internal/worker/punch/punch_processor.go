package punch

import (
	"context"
	"encoding/json"
	"math"
	"strconv"

	"attendance.service/internal/core/model"
	"attendance.service/internal/ports/messaging"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/rs/zerolog/log"
)

// Reconciler is the engine contract the processor drives.
type Reconciler interface {
	Reconcile(ctx context.Context, punchID, businessID, deviceContext string) error
}

// Processor handles punch messages from the reconciliation queue. It maps
// engine errors onto queue outcomes: missing rows are terminal drops,
// everything else retries with exponential backoff.
type Processor struct {
	engine Reconciler
}

func NewProcessor(engine Reconciler) *Processor {
	return &Processor{engine: engine}
}

// Process is the entry point for one queue message.
func (p *Processor) Process(ctx context.Context, msg types.Message) (bool, int32, error) {
	var event messaging.PunchCapturedEvent
	if err := json.Unmarshal([]byte(*msg.Body), &event); err != nil {
		log.Ctx(ctx).Error().Err(err).Msg("Failed to unmarshal punch event")
		return false, 0, err // Do not retry on malformed message
	}

	err := p.engine.Reconcile(ctx, event.PunchID, event.BusinessID, event.DeviceContext)
	if err == nil {
		return false, 0, nil
	}

	if model.IsNotFound(err) {
		// Terminal: the punch or its employee is gone. Drop the event.
		return false, 0, err
	}

	delay := calculateBackoff(receiveCount(msg))
	return true, delay, err
}

// receiveCount reads how many times SQS has delivered this message.
func receiveCount(msg types.Message) int {
	raw, ok := msg.Attributes[string(types.MessageSystemAttributeNameApproximateReceiveCount)]
	if !ok {
		return 1
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 1
	}
	return n
}

// calculateBackoff determines how long to wait before retrying a failed
// job. It increases the delay exponentially with each delivery.
func calculateBackoff(retryCount int) int32 {
	backoff := int32(math.Pow(2, float64(retryCount)) * 10)
	if backoff > 3600 {
		return 3600 // max at 1 hour
	}
	return backoff
}
