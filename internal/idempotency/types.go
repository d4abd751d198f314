package idempotency

import "time"

// Status values for idempotency entries
const (
	StatusInProgress = "IN_PROGRESS"
	StatusDone       = "DONE"
	StatusFailed     = "FAILED"
)

// IdempotencyRecord is the document stored under KeyPrefix for one request key.
type IdempotencyRecord struct {
	IdempotencyKey string    `json:"idempotency_key"`
	Status         string    `json:"status"`
	OrderID        string    `json:"order_id,omitempty"`
	ResponseBody   string    `json:"response_body,omitempty"`
	ResponseStatus int       `json:"response_status,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
	ExpiresAt      int64     `json:"expires_at"` // epoch seconds
	Note           string    `json:"note,omitempty"`
}

func (r *IdempotencyRecord) expired(now time.Time) bool {
	return r.ExpiresAt > 0 && now.Unix() >= r.ExpiresAt
}
