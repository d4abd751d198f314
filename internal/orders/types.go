package orders

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Status is the review state of an order.
type Status string

// Order statuses
const (
	StatusPending  Status = "pending"
	StatusAccepted Status = "accepted"
	StatusRejected Status = "rejected"
)

// Valid reports whether s is one of the known order statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusAccepted, StatusRejected:
		return true
	}
	return false
}

// EmailStatus tracks the confirmation email of an order.
type EmailStatus string

const (
	EmailNotSent EmailStatus = "not_sent"
	EmailSent    EmailStatus = "sent"
	EmailFailed  EmailStatus = "failed"
)

// DefaultMaxRetryAttempts caps the number of confirmation email sends per order.
const DefaultMaxRetryAttempts = 5

type Customer struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
}

type Product struct {
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	Size  string  `json:"size"`
	Price float64 `json:"price"`
}

type Payment struct {
	TransactionID string `json:"transactionId"`
	ScreenshotURL string `json:"screenshotUrl"` // blob key or external URL, served through /image
}

// Referrer is the volunteer a referral or coupon code is attributed to.
type Referrer struct {
	Name  string `json:"name"`
	Dept  string `json:"dept"`
	Phone string `json:"phone"`
}

// Referral is the back-reference stored on an order by the storefront.
type Referral struct {
	Code     string    `json:"code"`
	Referrer *Referrer `json:"referrer,omitempty"`
}

// EmailInfo is the delivery bookkeeping of the confirmation email.
type EmailInfo struct {
	Status      EmailStatus `json:"status"`
	Attempts    int         `json:"attempts"`
	LastAttempt *string     `json:"lastAttempt"`
	Error       *string     `json:"error"`
}

// RawOrder is an order document as stored, before normalization. Records
// written by older storefront versions may lack status, verified or email.
type RawOrder struct {
	OrderID   string     `json:"orderId"`
	Timestamp string     `json:"timestamp"`
	Verified  *bool      `json:"verified,omitempty"`
	Status    Status     `json:"status,omitempty"`
	Customer  Customer   `json:"customer"`
	Product   Product    `json:"product"`
	Payment   Payment    `json:"payment"`
	Email     *EmailInfo `json:"email,omitempty"`
	Referral  *Referral  `json:"referral,omitempty"`

	// doc is the document as read. Fields this service does not model,
	// at any depth, are written back from it untouched.
	doc json.RawMessage
}

// Order is a normalized order record: status and email are always set.
type Order struct {
	OrderID   string    `json:"orderId"`
	Timestamp string    `json:"timestamp"`
	Verified  bool      `json:"verified"`
	Status    Status    `json:"status"`
	Customer  Customer  `json:"customer"`
	Product   Product   `json:"product"`
	Payment   Payment   `json:"payment"`
	Email     EmailInfo `json:"email"`
	Referral  *Referral `json:"referral,omitempty"`

	doc json.RawMessage
}

// UnmarshalJSON decodes the modeled fields and keeps the whole document.
func (r *RawOrder) UnmarshalJSON(data []byte) error {
	type alias RawOrder
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	a.doc = bytes.Clone(data)
	*r = RawOrder(a)
	return nil
}

// MarshalJSON overlays the modeled fields on the document the order was read
// from, so unknown keys survive at every level and keep their position.
func (o Order) MarshalJSON() ([]byte, error) {
	type alias Order
	data, err := json.Marshal(alias(o))
	if err != nil {
		return nil, err
	}
	if len(o.doc) == 0 {
		return data, nil
	}
	return overlay(o.doc, data)
}

// Raw converts a normalized order back to its storage shape.
func (o Order) Raw() RawOrder {
	verified := o.Verified
	email := o.Email
	return RawOrder{
		OrderID:   o.OrderID,
		Timestamp: o.Timestamp,
		Verified:  &verified,
		Status:    o.Status,
		Customer:  o.Customer,
		Product:   o.Product,
		Payment:   o.Payment,
		Email:     &email,
		Referral:  o.Referral,
		doc:       o.doc,
	}
}

type jsonField struct {
	key   string
	value json.RawMessage
}

// objectFields splits a JSON object into its members in document order.
func objectFields(data []byte) ([]jsonField, bool) {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil || tok != json.Delim('{') {
		return nil, false
	}
	var fields []jsonField
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, false
		}
		key, ok := tok.(string)
		if !ok {
			return nil, false
		}
		var v json.RawMessage
		if err := dec.Decode(&v); err != nil {
			return nil, false
		}
		fields = append(fields, jsonField{key: key, value: v})
	}
	return fields, true
}

// overlay merges patch into base. Objects merge member by member; any other
// patch value replaces the base value. Base members keep their order and new
// members are appended.
func overlay(base, patch []byte) ([]byte, error) {
	baseFields, ok := objectFields(base)
	if !ok {
		return patch, nil
	}
	patchFields, ok := objectFields(patch)
	if !ok {
		return patch, nil
	}

	pending := make(map[string]json.RawMessage, len(patchFields))
	for _, f := range patchFields {
		pending[f.key] = f.value
	}

	var buf bytes.Buffer
	buf.WriteByte('{')
	write := func(key string, value []byte) error {
		if buf.Len() > 1 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(key)
		if err != nil {
			return fmt.Errorf("overlay %q: %w", key, err)
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(value)
		return nil
	}

	for _, f := range baseFields {
		value := []byte(f.value)
		if p, ok := pending[f.key]; ok {
			merged, err := overlay(f.value, p)
			if err != nil {
				return nil, err
			}
			value = merged
			delete(pending, f.key)
		}
		if err := write(f.key, value); err != nil {
			return nil, err
		}
	}
	for _, f := range patchFields {
		if _, ok := pending[f.key]; !ok {
			continue
		}
		if err := write(f.key, f.value); err != nil {
			return nil, err
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
