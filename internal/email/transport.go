package email

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gopkg.in/gomail.v2"
)

// Message is a single outgoing HTML email.
type Message struct {
	From    string
	To      string
	Subject string
	HTML    string
}

// Transport delivers a message and returns the message id assigned to it.
// An empty id with a nil error means the transport could not confirm delivery.
type Transport interface {
	Send(ctx context.Context, msg Message) (string, error)
}

// SMTPConfig configures the SMTP transport.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	// SSL forces implicit TLS; gomail already enables it for port 465.
	SSL bool
	// MessageIDDomain is the right-hand side of generated Message-ID headers.
	MessageIDDomain string
}

// SMTPTransport sends mail through gomail.
type SMTPTransport struct {
	cfg    SMTPConfig
	dialer *gomail.Dialer
}

// NewSMTPTransport returns a transport dialing a new connection per message.
func NewSMTPTransport(cfg SMTPConfig) *SMTPTransport {
	d := gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	if cfg.SSL {
		d.SSL = true
	}
	if cfg.MessageIDDomain == "" {
		cfg.MessageIDDomain = cfg.Host
	}
	return &SMTPTransport{cfg: cfg, dialer: d}
}

// Send dials the SMTP server and sends msg. gomail has no context support,
// so the dial runs in a goroutine and ctx only bounds how long we wait.
func (t *SMTPTransport) Send(ctx context.Context, msg Message) (string, error) {
	if t.cfg.Host == "" {
		return "", errors.New("smtp host is not configured")
	}

	id := fmt.Sprintf("<%s@%s>", uuid.NewString(), t.cfg.MessageIDDomain)

	m := gomail.NewMessage()
	m.SetHeader("From", msg.From)
	m.SetHeader("To", msg.To)
	m.SetHeader("Subject", msg.Subject)
	m.SetHeader("Message-ID", id)
	m.SetBody("text/html", msg.HTML)

	done := make(chan error, 1)
	go func() {
		done <- t.dialer.DialAndSend(m)
	}()

	select {
	case err := <-done:
		if err != nil {
			return "", err
		}
		return id, nil
	case <-ctx.Done():
		return "", fmt.Errorf("smtp send: %w", ctx.Err())
	}
}
