package orders

import "bytes"

// Normalize turns a stored record into a fully populated Order.
//
// A record without status is accepted when verified is true and pending
// otherwise. A missing email sub-record becomes {not_sent, 0, null, null}.
// The input is not modified and Normalize(Normalize(x).Raw()) == Normalize(x).
func Normalize(raw RawOrder) Order {
	status := raw.Status
	if status == "" {
		status = StatusPending
		if raw.Verified != nil && *raw.Verified {
			status = StatusAccepted
		}
	}

	verified := false
	if raw.Verified != nil {
		verified = *raw.Verified
	}

	email := EmailInfo{Status: EmailNotSent}
	if raw.Email != nil {
		email = copyEmail(*raw.Email)
		if email.Status == "" {
			email.Status = EmailNotSent
		}
	}

	var referral *Referral
	if raw.Referral != nil {
		ref := *raw.Referral
		if ref.Referrer != nil {
			r := *ref.Referrer
			ref.Referrer = &r
		}
		referral = &ref
	}

	return Order{
		OrderID:   raw.OrderID,
		Timestamp: raw.Timestamp,
		Verified:  verified,
		Status:    status,
		Customer:  raw.Customer,
		Product:   raw.Product,
		Payment:   raw.Payment,
		Email:     email,
		Referral:  referral,
		doc:       bytes.Clone(raw.doc),
	}
}

func copyEmail(e EmailInfo) EmailInfo {
	if e.LastAttempt != nil {
		v := *e.LastAttempt
		e.LastAttempt = &v
	}
	if e.Error != nil {
		v := *e.Error
		e.Error = &v
	}
	return e
}
