package main

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/aws/aws-lambda-go/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/imrishuroy/merch-order-admin/internal/orders"
)

// --- mock implementations ---

type mockResender struct {
	calls []string
	errs  map[string]error
}

func (m *mockResender) Resend(ctx context.Context, orderID string) (*orders.ResendResult, error) {
	m.calls = append(m.calls, orderID)
	if err := m.errs[orderID]; err != nil {
		return nil, err
	}
	return &orders.ResendResult{EmailStatus: orders.EmailSent, Attempts: 2}, nil
}

func message(t *testing.T, id string, ev orders.Event) events.SQSMessage {
	t.Helper()
	body, err := json.Marshal(ev)
	require.NoError(t, err)
	return events.SQSMessage{MessageId: id, Body: string(body)}
}

func failedEmail(orderID string) orders.Event {
	return orders.Event{
		Type:          orders.EventEmailAttempted,
		OrderID:       orderID,
		Status:        orders.StatusAccepted,
		EmailStatus:   orders.EmailFailed,
		EmailAttempts: 1,
	}
}

// --- test cases ---

func TestWorkerProcess_ResendsFailedEmails(t *testing.T) {
	m := &mockResender{}
	p := NewProcessor(m, zaptest.NewLogger(t))

	sent := failedEmail("o2")
	sent.EmailStatus = orders.EmailSent
	rejected := failedEmail("o3")
	rejected.Status = orders.StatusRejected

	resp, err := p.Handle(context.Background(), events.SQSEvent{Records: []events.SQSMessage{
		message(t, "m1", failedEmail("o1")),
		message(t, "m2", sent),
		message(t, "m3", rejected),
	}})

	require.NoError(t, err)
	assert.Empty(t, resp.BatchItemFailures)
	assert.Equal(t, []string{"o1"}, m.calls)
}

func TestWorkerProcess_PermanentErrorsAreDropped(t *testing.T) {
	m := &mockResender{errs: map[string]error{
		"exhausted": &orders.RetryExhaustedError{Attempts: 5, MaxAttempts: 5},
		"gone":      orders.ErrNotFound,
		"no-email":  orders.ErrMissingContact,
	}}
	p := NewProcessor(m, zaptest.NewLogger(t))

	resp, err := p.Handle(context.Background(), events.SQSEvent{Records: []events.SQSMessage{
		message(t, "m1", failedEmail("exhausted")),
		message(t, "m2", failedEmail("gone")),
		message(t, "m3", failedEmail("no-email")),
		{MessageId: "m4", Body: "not json"},
	}})

	require.NoError(t, err)
	assert.Empty(t, resp.BatchItemFailures)
	assert.Len(t, m.calls, 3)
}

func TestWorkerProcess_TransientErrorIsRetried(t *testing.T) {
	m := &mockResender{errs: map[string]error{"o1": errors.New("save order o1: throttled")}}
	p := NewProcessor(m, zaptest.NewLogger(t))

	resp, err := p.Handle(context.Background(), events.SQSEvent{Records: []events.SQSMessage{
		message(t, "m1", failedEmail("o1")),
		message(t, "m2", failedEmail("o2")),
	}})

	require.NoError(t, err)
	require.Len(t, resp.BatchItemFailures, 1)
	assert.Equal(t, "m1", resp.BatchItemFailures[0].ItemIdentifier)
}
