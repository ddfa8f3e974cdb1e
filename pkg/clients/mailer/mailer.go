package mailer

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/smtp"
	"strings"

	"github.com/souenergy/cotacao-backend/internal/config"
)

// Client exposes the single mail operation the application performs:
// notifying the administrator about a new quotation.
type Client interface {
	Send(ctx context.Context, subject, htmlBody string) error
}

// SMTPClient is a net/smtp backed implementation of Client.
type SMTPClient struct {
	cfg config.SMTPConfig
}

// NewClient builds an SMTP mail client from the provided configuration.
func NewClient(cfg config.SMTPConfig) *SMTPClient {
	return &SMTPClient{cfg: cfg}
}

// Send dispatches an HTML email to the configured administrator address.
// The context bounds the whole exchange: its deadline is applied to the
// connection, so a hung server fails the send instead of blocking forever.
func (c *SMTPClient) Send(ctx context.Context, subject, htmlBody string) error {
	from := c.cfg.Username
	if from == "" {
		from = c.cfg.NotifyEmail
	}

	headers := []string{
		"From: Painel Sou Energy <" + from + ">",
		"To: " + c.cfg.NotifyEmail,
		"Subject: " + subject,
		"MIME-Version: 1.0",
		"Content-Type: text/html; charset=\"UTF-8\"",
		"",
		htmlBody,
	}
	msg := []byte(strings.Join(headers, "\r\n") + "\r\n")

	addr := net.JoinHostPort(c.cfg.Host, c.cfg.Port)
	dialer := &net.Dialer{}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("dial smtp server: %w", err)
	}
	if deadline, ok := ctx.Deadline(); ok {
		if err := conn.SetDeadline(deadline); err != nil {
			_ = conn.Close()
			return fmt.Errorf("set smtp deadline: %w", err)
		}
	}

	client, err := smtp.NewClient(conn, c.cfg.Host)
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("smtp handshake: %w", err)
	}
	defer func() { _ = client.Close() }()

	if c.cfg.Username != "" {
		if ok, _ := client.Extension("STARTTLS"); ok {
			if err := client.StartTLS(&tls.Config{ServerName: c.cfg.Host}); err != nil {
				return fmt.Errorf("smtp starttls: %w", err)
			}
		}
		auth := smtp.PlainAuth("", c.cfg.Username, c.cfg.Password, c.cfg.Host)
		if err := client.Auth(auth); err != nil {
			return fmt.Errorf("smtp auth: %w", err)
		}
	}

	if err := client.Mail(from); err != nil {
		return fmt.Errorf("smtp mail from: %w", err)
	}
	if err := client.Rcpt(c.cfg.NotifyEmail); err != nil {
		return fmt.Errorf("smtp rcpt to: %w", err)
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("smtp data: %w", err)
	}
	if _, err := w.Write(msg); err != nil {
		return fmt.Errorf("write message body: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("finish message body: %w", err)
	}

	if err := client.Quit(); err != nil {
		return fmt.Errorf("smtp quit: %w", err)
	}
	return nil
}
