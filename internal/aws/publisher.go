package aws

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/sqs"
	sqstypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"

	"github.com/imrishuroy/merch-order-admin/internal/orders"
)

// Publisher wraps an SQS client and a queue URL.
type Publisher struct {
	SQS      SQSAPI
	QueueURL string
	// RetryDelaySeconds delays delivery of events for failed emails so the
	// worker does not retry immediately. SQS caps it at 900.
	RetryDelaySeconds int32
}

// NewPublisher returns a Publisher bound to a queue URL.
func NewPublisher(sqsClient SQSAPI, queueURL string, retryDelaySeconds int32) *Publisher {
	return &Publisher{
		SQS:               sqsClient,
		QueueURL:          queueURL,
		RetryDelaySeconds: retryDelaySeconds,
	}
}

// PublishOrderEvent implements orders.EventPublisher.
func (p *Publisher) PublishOrderEvent(ctx context.Context, ev orders.Event) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	var delay int32
	if ev.EmailStatus == orders.EmailFailed {
		delay = min(p.RetryDelaySeconds, 900)
	}

	return p.SendOrderMessage(ctx, string(body), delay, map[string]string{
		"event_type":   string(ev.Type),
		"order_id":     ev.OrderID,
		"email_status": string(ev.EmailStatus),
	})
}

// SendOrderMessage sends a JSON message body to SQS.
// attributes map[string]string -> sent as MessageAttributes.
func (p *Publisher) SendOrderMessage(ctx context.Context, messageBody string, delaySeconds int32, attributes map[string]string) error {
	input := &sqs.SendMessageInput{
		QueueUrl:     &p.QueueURL,
		MessageBody:  &messageBody,
		DelaySeconds: delaySeconds,
	}
	if len(attributes) > 0 {
		msgAttrs := map[string]sqstypes.MessageAttributeValue{}
		for k, v := range attributes {
			// using string type for all attrs
			msgAttrs[k] = sqstypes.MessageAttributeValue{
				DataType:    awsString("String"),
				StringValue: &v,
			}
		}
		input.MessageAttributes = msgAttrs
	}

	_, err := p.SQS.SendMessage(ctx, input)
	if err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	return nil
}

// awsString helper
func awsString(s string) *string { return &s }
