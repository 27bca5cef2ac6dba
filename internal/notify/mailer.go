package notify

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/smtp"
	"strconv"

	"go.uber.org/zap"

	"github.com/spec-kit/approval-service/internal/config"
)

// Message is one outgoing notification.
type Message struct {
	To      string
	Subject string
	Body    string
	HTML    bool
}

// Mailer delivers messages to a recipient address. Delivery is success or
// failure only; there is no read-back channel.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// NewMailer selects the delivery implementation from configuration. Without
// an SMTP password the service runs in demo mode: messages are logged, not
// delivered, and ticket semantics are unchanged.
func NewMailer(cfg config.SMTPConfig, logger *zap.Logger) Mailer {
	if cfg.DemoMode() {
		return &logMailer{logger: logger}
	}
	return &smtpMailer{cfg: cfg}
}

// logMailer emits the message locally instead of delivering it.
type logMailer struct {
	logger *zap.Logger
}

func (m *logMailer) Send(ctx context.Context, msg Message) error {
	m.logger.Info("email notification (demo mode, not delivered)",
		zap.String("to", msg.To),
		zap.String("subject", msg.Subject),
		zap.Int("body_bytes", len(msg.Body)))
	return nil
}

// smtpMailer delivers over SMTP with STARTTLS.
type smtpMailer struct {
	cfg config.SMTPConfig
}

func (m *smtpMailer) Send(ctx context.Context, msg Message) error {
	if msg.To == "" {
		return fmt.Errorf("no recipient specified")
	}

	var headers string
	if msg.HTML {
		headers = fmt.Sprintf("To: %s\r\nFrom: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/html; charset=UTF-8\r\n\r\n",
			msg.To, m.cfg.From, msg.Subject)
	} else {
		headers = fmt.Sprintf("To: %s\r\nFrom: %s\r\nSubject: %s\r\n\r\n", msg.To, m.cfg.From, msg.Subject)
	}

	addr := m.cfg.Host + ":" + strconv.Itoa(m.cfg.Port)
	dialer := &net.Dialer{Timeout: m.cfg.Timeout()}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("connect to SMTP server: %w", err)
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	client, err := smtp.NewClient(conn, m.cfg.Host)
	if err != nil {
		conn.Close()
		return fmt.Errorf("smtp handshake: %w", err)
	}
	defer client.Close()

	if ok, _ := client.Extension("STARTTLS"); ok {
		tlsConfig := &tls.Config{ServerName: m.cfg.Host}
		if err := client.StartTLS(tlsConfig); err != nil {
			return fmt.Errorf("start TLS: %w", err)
		}
	}

	if m.cfg.User != "" {
		auth := smtp.PlainAuth("", m.cfg.User, m.cfg.Password, m.cfg.Host)
		if err := client.Auth(auth); err != nil {
			return fmt.Errorf("smtp authentication: %w", err)
		}
	}

	if err := client.Mail(m.cfg.From); err != nil {
		return fmt.Errorf("set sender: %w", err)
	}
	if err := client.Rcpt(msg.To); err != nil {
		return fmt.Errorf("set recipient %s: %w", msg.To, err)
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("initiate data transfer: %w", err)
	}
	if _, err := w.Write([]byte(headers + msg.Body)); err != nil {
		return fmt.Errorf("write message: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("close data transfer: %w", err)
	}

	return client.Quit()
}
