package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/imrishuroy/merch-order-admin/internal/orders"
)

// Resender retries the confirmation email of one order.
type Resender interface {
	Resend(ctx context.Context, orderID string) (*orders.ResendResult, error)
}

// decodeMessage parses an order event published by the API.
func decodeMessage(body string) (orders.Event, error) {
	var ev orders.Event
	if err := json.Unmarshal([]byte(body), &ev); err != nil {
		return ev, fmt.Errorf("invalid message body: %w", err)
	}
	if ev.OrderID == "" {
		return ev, fmt.Errorf("invalid message body: missing order_id")
	}
	return ev, nil
}
