package main

import (
	"context"
	"errors"

	"github.com/aws/aws-lambda-go/events"
	"go.uber.org/zap"

	"github.com/imrishuroy/merch-order-admin/internal/orders"
)

// Processor retries failed confirmation emails delivered as SQS order events.
type Processor struct {
	resender Resender
	log      *zap.Logger
}

// NewProcessor creates a new worker processor.
func NewProcessor(resender Resender, log *zap.Logger) *Processor {
	return &Processor{resender: resender, log: log}
}

// Handle processes an SQS batch and reports the messages that should be
// redelivered. Malformed messages and permanent failures are dropped.
func (p *Processor) Handle(ctx context.Context, ev events.SQSEvent) (events.SQSEventResponse, error) {
	var resp events.SQSEventResponse
	for _, rec := range ev.Records {
		if err := p.processMessage(ctx, rec); err != nil {
			// Lambda redelivers only these; after maxReceiveCount the message goes to the DLQ.
			p.log.Warn("message will be retried", zap.String("message_id", rec.MessageId), zap.Error(err))
			resp.BatchItemFailures = append(resp.BatchItemFailures, events.SQSBatchItemFailure{ItemIdentifier: rec.MessageId})
		}
	}
	return resp, nil
}

func (p *Processor) processMessage(ctx context.Context, rec events.SQSMessage) error {
	msg, err := decodeMessage(rec.Body)
	if err != nil {
		p.log.Error("dropping malformed message", zap.String("message_id", rec.MessageId), zap.Error(err))
		return nil
	}

	l := p.log.With(zap.String("order_id", msg.OrderID), zap.String("type", string(msg.Type)))
	if msg.Status != orders.StatusAccepted || msg.EmailStatus != orders.EmailFailed {
		l.Debug("nothing to retry")
		return nil
	}

	res, err := p.resender.Resend(ctx, msg.OrderID)
	switch {
	case errors.Is(err, orders.ErrRetryExhausted):
		l.Warn("email retries exhausted", zap.Int("attempts", msg.EmailAttempts))
		return nil
	case errors.Is(err, orders.ErrInvalidState), errors.Is(err, orders.ErrMissingContact), errors.Is(err, orders.ErrNotFound):
		l.Info("order no longer eligible for resend", zap.Error(err))
		return nil
	case err != nil:
		return err
	}

	// A failed resend publishes another event, so retries continue until the ceiling.
	l.Info("email resend attempted",
		zap.String("email_status", string(res.EmailStatus)),
		zap.Int("attempts", res.Attempts),
	)
	return nil
}
