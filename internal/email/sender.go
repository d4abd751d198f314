package email

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/imrishuroy/merch-order-admin/internal/logging"
	"github.com/imrishuroy/merch-order-admin/internal/orders"
)

const (
	DefaultStoreName = "TEDx Merch Store"

	// ErrNoMessageID is recorded when the transport accepted the message but returned no id.
	ErrNoMessageID = "No message ID returned from SMTP server"
	// ErrMissingRecipient is recorded when the order has no customer email.
	ErrMissingRecipient = "Missing order or email"
)

// AttemptRecorder observes every classified send attempt.
type AttemptRecorder interface {
	EmailAttempt(ctx context.Context, status string)
}

// Config configures the confirmation sender.
type Config struct {
	From      string
	StoreName string
	LogoURL   string
	// Timeout bounds a single send. Zero means no bound.
	Timeout time.Duration
}

// Sender renders and sends order confirmation emails. It implements orders.Notifier.
type Sender struct {
	cfg       Config
	transport Transport
	metrics   AttemptRecorder
	log       *zap.Logger
}

// NewSender returns a Sender. metrics may be nil.
func NewSender(cfg Config, transport Transport, metrics AttemptRecorder, log *zap.Logger) *Sender {
	if cfg.StoreName == "" {
		cfg.StoreName = DefaultStoreName
	}
	return &Sender{cfg: cfg, transport: transport, metrics: metrics, log: log}
}

// Send delivers the confirmation for o. Failures are returned in the
// outcome; Send never returns an error or panics on transport failure.
func (s *Sender) Send(ctx context.Context, o orders.Order) orders.EmailOutcome {
	out := s.send(ctx, o)
	if s.metrics != nil {
		s.metrics.EmailAttempt(ctx, string(out.Status))
	}

	l := logging.WithContext(ctx, s.log).With(zap.String("order_id", o.OrderID))
	if out.Status == orders.EmailSent {
		l.Info("confirmation email sent")
	} else {
		l.Warn("confirmation email failed", zap.String("error", out.Error))
	}
	return out
}

func (s *Sender) send(ctx context.Context, o orders.Order) orders.EmailOutcome {
	if o.Customer.Email == "" {
		return orders.EmailOutcome{Status: orders.EmailFailed, Error: ErrMissingRecipient}
	}

	html, err := renderConfirmation(s.cfg.StoreName, s.cfg.LogoURL, o)
	if err != nil {
		return orders.EmailOutcome{Status: orders.EmailFailed, Error: err.Error()}
	}

	if s.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.Timeout)
		defer cancel()
	}

	id, err := s.transport.Send(ctx, Message{
		From:    s.cfg.From,
		To:      o.Customer.Email,
		Subject: subjectFor(s.cfg.StoreName, o),
		HTML:    html,
	})
	if err != nil {
		return orders.EmailOutcome{Status: orders.EmailFailed, Error: err.Error()}
	}
	if id == "" {
		return orders.EmailOutcome{Status: orders.EmailFailed, Error: ErrNoMessageID}
	}
	return orders.EmailOutcome{Status: orders.EmailSent}
}
