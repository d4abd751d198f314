package orders

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/imrishuroy/merch-order-admin/internal/logging"
)

// isoMillis matches the timestamps the storefront writes.
const isoMillis = "2006-01-02T15:04:05.000Z07:00"

// EmailOutcome is the classified result of one confirmation email send.
type EmailOutcome struct {
	Status EmailStatus
	Error  string
}

// Notifier delivers the confirmation email for an accepted order.
// Implementations report transport failures in the outcome, never as panics.
type Notifier interface {
	Send(ctx context.Context, order Order) EmailOutcome
}

// TransitionRecorder observes persisted status changes.
type TransitionRecorder interface {
	StatusTransition(ctx context.Context, status string)
}

// StatusChange is the result of SetStatus.
type StatusChange struct {
	Order       Order
	EmailSent   bool
	EmailStatus EmailStatus
	EmailError  *string
}

// ResendResult is the result of a resend attempt that reached the transport.
type ResendResult struct {
	Order             Order
	EmailStatus       EmailStatus
	Error             *string
	Attempts          int
	RemainingAttempts int
}

// EmailState describes whether an order's confirmation email can be resent.
type EmailState struct {
	OrderID     string
	OrderStatus Status
	Email       EmailInfo
	CanResend   bool
	MaxAttempts int
}

// Service applies order status transitions and drives confirmation emails.
type Service struct {
	store       *Store
	notifier    Notifier
	events      EventPublisher
	metrics     TransitionRecorder
	log         *zap.Logger
	maxAttempts int
	nowFunc     func() time.Time
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithMaxRetryAttempts overrides DefaultMaxRetryAttempts.
func WithMaxRetryAttempts(n int) ServiceOption {
	return func(s *Service) {
		if n > 0 {
			s.maxAttempts = n
		}
	}
}

// WithEventPublisher emits an Event after every persisted change.
func WithEventPublisher(p EventPublisher) ServiceOption {
	return func(s *Service) {
		s.events = p
	}
}

// WithTransitionRecorder counts persisted status changes.
func WithTransitionRecorder(r TransitionRecorder) ServiceOption {
	return func(s *Service) {
		s.metrics = r
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) {
		s.nowFunc = now
	}
}

// NewService wires the lifecycle controller.
func NewService(store *Store, notifier Notifier, log *zap.Logger, opts ...ServiceOption) *Service {
	s := &Service{
		store:       store,
		notifier:    notifier,
		log:         log,
		maxAttempts: DefaultMaxRetryAttempts,
		nowFunc:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// MaxAttempts returns the email attempt ceiling.
func (s *Service) MaxAttempts() int { return s.maxAttempts }

// List returns all readable orders, newest first.
func (s *Service) List(ctx context.Context) ([]Order, error) {
	return s.store.List(ctx)
}

// SetStatus moves an order to newStatus and persists it. Accepting an order
// with a customer email sends the confirmation synchronously; a failed send
// is recorded on the order and never prevents the status change from being saved.
func (s *Service) SetStatus(ctx context.Context, orderID string, newStatus Status) (*StatusChange, error) {
	if !newStatus.Valid() {
		return nil, fmt.Errorf("%w: status must be 'pending', 'accepted', or 'rejected'", ErrInvalidArgument)
	}

	rec, err := s.store.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	order := &rec.Order
	order.Status = newStatus
	order.Verified = newStatus == StatusAccepted

	change := &StatusChange{EmailStatus: EmailNotSent}
	if newStatus == StatusAccepted && order.Customer.Email != "" {
		if order.Email.Attempts >= s.maxAttempts {
			msg := (&RetryExhaustedError{Attempts: order.Email.Attempts, MaxAttempts: s.maxAttempts}).Error()
			change.EmailError = &msg
		} else {
			outcome := s.send(ctx, *order)
			s.recordAttempt(order, outcome)
			change.EmailStatus = order.Email.Status
			change.EmailError = order.Email.Error
		}
	}

	if err := s.store.Save(ctx, rec); err != nil {
		return nil, err
	}

	logging.WithContext(ctx, s.log).Info("order status updated",
		zap.String("order_id", orderID),
		zap.String("status", string(newStatus)),
		zap.String("email_status", string(change.EmailStatus)),
	)
	if s.metrics != nil {
		s.metrics.StatusTransition(ctx, string(newStatus))
	}
	s.publish(ctx, EventStatusChanged, rec.Order)

	change.Order = rec.Order
	change.EmailSent = change.EmailStatus == EmailSent
	return change, nil
}

// Resend retries the confirmation email of an accepted order without
// touching its status. Precondition failures do not write to the store.
func (s *Service) Resend(ctx context.Context, orderID string) (*ResendResult, error) {
	rec, err := s.store.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	order := &rec.Order

	if order.Status != StatusAccepted {
		return nil, fmt.Errorf("%w: can only resend emails for accepted orders", ErrInvalidState)
	}
	if order.Customer.Email == "" {
		return nil, ErrMissingContact
	}
	if order.Email.Attempts >= s.maxAttempts {
		return nil, &RetryExhaustedError{Attempts: order.Email.Attempts, MaxAttempts: s.maxAttempts}
	}

	outcome := s.send(ctx, *order)
	s.recordAttempt(order, outcome)

	if err := s.store.Save(ctx, rec); err != nil {
		return nil, err
	}
	s.publish(ctx, EventEmailAttempted, rec.Order)

	res := &ResendResult{
		Order:       rec.Order,
		EmailStatus: order.Email.Status,
		Error:       order.Email.Error,
		Attempts:    order.Email.Attempts,
	}
	if res.EmailStatus != EmailSent {
		res.RemainingAttempts = s.maxAttempts - order.Email.Attempts
	}
	return res, nil
}

// EmailStatus reports the email bookkeeping of an order.
func (s *Service) EmailStatus(ctx context.Context, orderID string) (*EmailState, error) {
	rec, err := s.store.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	o := rec.Order
	return &EmailState{
		OrderID:     o.OrderID,
		OrderStatus: o.Status,
		Email:       o.Email,
		CanResend:   o.Status == StatusAccepted && o.Email.Status != EmailSent && o.Email.Attempts < s.maxAttempts,
		MaxAttempts: s.maxAttempts,
	}, nil
}

// send calls the notifier and turns a panic or an unclassified result into a failed outcome.
func (s *Service) send(ctx context.Context, order Order) (out EmailOutcome) {
	defer func() {
		if r := recover(); r != nil {
			logging.WithContext(ctx, s.log).Error("email notifier panicked",
				zap.String("order_id", order.OrderID), zap.Any("panic", r))
			out = EmailOutcome{Status: EmailFailed, Error: fmt.Sprint(r)}
		}
	}()

	out = s.notifier.Send(ctx, order)
	switch out.Status {
	case EmailSent, EmailFailed, EmailNotSent:
	default:
		out.Status = EmailFailed
		if out.Error == "" {
			out.Error = "unknown email status"
		}
	}
	return out
}

func (s *Service) recordAttempt(order *Order, out EmailOutcome) {
	now := s.nowFunc().UTC().Format(isoMillis)
	var errText *string
	if out.Error != "" {
		e := out.Error
		errText = &e
	}
	order.Email = EmailInfo{
		Status:      out.Status,
		Attempts:    order.Email.Attempts + 1,
		LastAttempt: &now,
		Error:       errText,
	}
}

func (s *Service) publish(ctx context.Context, typ EventType, o Order) {
	if s.events == nil {
		return
	}
	ev := NewEvent(typ, o, s.nowFunc())
	if err := s.events.PublishOrderEvent(ctx, ev); err != nil {
		logging.WithContext(ctx, s.log).Warn("publish order event failed",
			zap.String("order_id", o.OrderID), zap.String("type", string(typ)), zap.Error(err))
	}
}
