package notify

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"net"
	"net/smtp"
	"strconv"
	"time"

	"github.com/tasklytics/tasklytics-api/internal/config"
	"github.com/tasklytics/tasklytics-api/internal/platform/logger"
)

// implicitTLSPort is the submission port that expects TLS from the first byte.
const implicitTLSPort = 465

// SMTPSender delivers mail through an SMTP relay. STARTTLS is negotiated when
// enabled and offered by the server; port 465 uses implicit TLS.
type SMTPSender struct {
	host     string
	port     int
	username string
	password string
	from     string
	startTLS bool
	now      func() time.Time
	logger   *slog.Logger
}

// NewSMTPSender creates an SMTP sender from relay settings.
func NewSMTPSender(cfg config.SMTPConfig, from string, logger *slog.Logger) *SMTPSender {
	if logger == nil {
		logger = slog.Default()
	}
	return &SMTPSender{
		host:     cfg.Host,
		port:     cfg.Port,
		username: cfg.Username,
		password: cfg.Password,
		from:     from,
		startTLS: cfg.StartTLS,
		now:      time.Now,
		logger:   logger.With(slog.String("component", "smtp_sender")),
	}
}

var _ Sender = (*SMTPSender)(nil)

// Send implements Sender.
func (s *SMTPSender) Send(ctx context.Context, to, subject, body string) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	msg, err := composeMessage(s.from, to, subject, body, s.now())
	if err != nil {
		return err
	}

	client, err := s.dial(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = client.Close() }()

	if err := s.deliver(client, to, msg); err != nil {
		log.Debug("smtp delivery failed", slog.String("error", err.Error()))
		return err
	}
	return client.Quit()
}

func (s *SMTPSender) dial(ctx context.Context) (*smtp.Client, error) {
	addr := net.JoinHostPort(s.host, strconv.Itoa(s.port))

	var (
		conn net.Conn
		err  error
	)
	if s.port == implicitTLSPort {
		d := tls.Dialer{Config: &tls.Config{ServerName: s.host, MinVersion: tls.VersionTLS12}}
		conn, err = d.DialContext(ctx, "tcp", addr)
	} else {
		var d net.Dialer
		conn, err = d.DialContext(ctx, "tcp", addr)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect to smtp server %s: %w", addr, err)
	}

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	client, err := smtp.NewClient(conn, s.host)
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("smtp handshake failed: %w", err)
	}
	return client, nil
}

func (s *SMTPSender) deliver(c *smtp.Client, to string, msg []byte) error {
	if s.startTLS && s.port != implicitTLSPort {
		if ok, _ := c.Extension("STARTTLS"); ok {
			if err := c.StartTLS(&tls.Config{ServerName: s.host, MinVersion: tls.VersionTLS12}); err != nil {
				return fmt.Errorf("smtp starttls failed: %w", err)
			}
		}
	}

	if s.username != "" {
		if ok, _ := c.Extension("AUTH"); ok {
			if err := c.Auth(smtp.PlainAuth("", s.username, s.password, s.host)); err != nil {
				return fmt.Errorf("smtp auth failed: %w", err)
			}
		}
	}

	from, err := addressOnly(s.from)
	if err != nil {
		return err
	}
	if err := c.Mail(from); err != nil {
		return fmt.Errorf("smtp MAIL FROM rejected: %w", err)
	}
	rcpt, err := addressOnly(to)
	if err != nil {
		return err
	}
	if err := c.Rcpt(rcpt); err != nil {
		return fmt.Errorf("%w: smtp RCPT TO rejected: %v", ErrInvalidRecipient, err)
	}

	w, err := c.Data()
	if err != nil {
		return fmt.Errorf("smtp DATA failed: %w", err)
	}
	if _, err := w.Write(msg); err != nil {
		_ = w.Close()
		return fmt.Errorf("failed to write smtp data: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("smtp server rejected message: %w", err)
	}
	return nil
}
