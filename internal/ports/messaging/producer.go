package messaging

import (
	"context"
	"encoding/json"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Producer publishes domain events to the punch and audit queues through a
// MessageSender.
type Producer struct {
	sender        MessageSender
	punchQueueURL string
	auditQueueURL string
}

func NewProducer(sender MessageSender, punchQueueURL, auditQueueURL string) *Producer {
	return &Producer{
		sender:        sender,
		punchQueueURL: punchQueueURL,
		auditQueueURL: auditQueueURL,
	}
}

// NewSQSProducer wires a Producer to AWS SQS.
func NewSQSProducer(client SQSClient, punchQueueURL, auditQueueURL string) *Producer {
	return NewProducer(&SQSSender{client: client}, punchQueueURL, auditQueueURL)
}

func (p *Producer) PublishPunch(ctx context.Context, body any) error {
	return p.publish(ctx, p.punchQueueURL, body)
}

func (p *Producer) PublishAudit(ctx context.Context, body any) error {
	return p.publish(ctx, p.auditQueueURL, body)
}

func (p *Producer) publish(ctx context.Context, destination string, body any) error {
	b, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal body: %w", err)
	}

	// Enrich the current span with identifiers if available
	span := trace.SpanFromContext(ctx)
	if span.IsRecording() {
		var payload struct {
			PunchID    string `json:"punchId"`
			EmployeeID string `json:"employeeId"`
		}
		if err := json.Unmarshal(b, &payload); err == nil {
			if payload.PunchID != "" {
				span.SetAttributes(attribute.String("app.punch_id", payload.PunchID))
			}
			if payload.EmployeeID != "" {
				span.SetAttributes(attribute.String("app.employee_id", payload.EmployeeID))
			}
		}
	}

	if err := p.sender.SendMessage(ctx, destination, b); err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}
	return nil
}
