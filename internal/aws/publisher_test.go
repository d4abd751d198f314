package aws

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/imrishuroy/merch-order-admin/internal/orders"
)

type mockSQS struct {
	inputs []*sqs.SendMessageInput
	err    error
}

func (m *mockSQS) SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error) {
	m.inputs = append(m.inputs, params)
	if m.err != nil {
		return nil, m.err
	}
	return &sqs.SendMessageOutput{MessageId: awsString("m-1")}, nil
}

func sampleEvent(status orders.EmailStatus) orders.Event {
	return orders.Event{
		Type:          orders.EventEmailAttempted,
		OrderID:       "ord-1",
		Status:        orders.StatusAccepted,
		EmailStatus:   status,
		EmailAttempts: 2,
		OccurredAt:    "2025-03-01T12:30:00Z",
	}
}

func TestPublishOrderEvent_Body(t *testing.T) {
	m := &mockSQS{}
	p := NewPublisher(m, "https://sqs.local/queue", 60)

	require.NoError(t, p.PublishOrderEvent(context.Background(), sampleEvent(orders.EmailSent)))
	require.Len(t, m.inputs, 1)

	in := m.inputs[0]
	assert.Equal(t, "https://sqs.local/queue", *in.QueueUrl)
	assert.Equal(t, int32(0), in.DelaySeconds)
	assert.Equal(t, "ord-1", *in.MessageAttributes["order_id"].StringValue)
	assert.Equal(t, "order.email_attempted", *in.MessageAttributes["event_type"].StringValue)

	var ev orders.Event
	require.NoError(t, json.Unmarshal([]byte(*in.MessageBody), &ev))
	assert.Equal(t, sampleEvent(orders.EmailSent), ev)
}

func TestPublishOrderEvent_FailedEmailIsDelayed(t *testing.T) {
	m := &mockSQS{}
	p := NewPublisher(m, "q", 5000)

	require.NoError(t, p.PublishOrderEvent(context.Background(), sampleEvent(orders.EmailFailed)))
	assert.Equal(t, int32(900), m.inputs[0].DelaySeconds)
}

func TestPublishOrderEvent_Error(t *testing.T) {
	p := NewPublisher(&mockSQS{err: errors.New("throttled")}, "q", 0)

	err := p.PublishOrderEvent(context.Background(), sampleEvent(orders.EmailSent))
	assert.ErrorContains(t, err, "throttled")
}

type mockCloudWatch struct {
	inputs []*cloudwatch.PutMetricDataInput
	err    error
}

func (m *mockCloudWatch) PutMetricData(ctx context.Context, params *cloudwatch.PutMetricDataInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error) {
	m.inputs = append(m.inputs, params)
	return &cloudwatch.PutMetricDataOutput{}, m.err
}

func TestCloudWatchRecorder(t *testing.T) {
	m := &mockCloudWatch{}
	r := NewCloudWatchRecorder(m, "MerchAdmin", zaptest.NewLogger(t))
	fixed := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	r.nowFunc = func() time.Time { return fixed }

	r.EmailAttempt(context.Background(), "failed")
	r.StatusTransition(context.Background(), "accepted")

	require.Len(t, m.inputs, 2)
	d := m.inputs[0].MetricData[0]
	assert.Equal(t, "MerchAdmin", *m.inputs[0].Namespace)
	assert.Equal(t, "EmailAttempts", *d.MetricName)
	assert.Equal(t, "failed", *d.Dimensions[0].Value)
	assert.Equal(t, 1.0, *d.Value)
	assert.Equal(t, fixed, *d.Timestamp)
	assert.Equal(t, "OrderStatusTransitions", *m.inputs[1].MetricData[0].MetricName)
}

func TestCloudWatchRecorder_ErrorIsSwallowed(t *testing.T) {
	r := NewCloudWatchRecorder(&mockCloudWatch{err: errors.New("denied")}, "ns", zaptest.NewLogger(t))
	assert.NotPanics(t, func() { r.EmailAttempt(context.Background(), "sent") })
}
