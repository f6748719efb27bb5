// Package notify delivers plain-text e-mails to traders.
package notify

import (
	"context"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/gommon/log"
)

// Message is a single plain-text e-mail.
type Message struct {
	To      string
	Subject string
	Body    string
}

// Notifier sends messages.  Implementations must be safe for concurrent use.
type Notifier interface {
	Send(ctx context.Context, m Message) error
}

// SMTPConfig holds the relay settings for SMTPNotifier.
type SMTPConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
}

// SMTPNotifier sends through an SMTP relay with PLAIN auth when a user is set.
type SMTPNotifier struct {
	cfg  SMTPConfig
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func NewSMTPNotifier(cfg SMTPConfig) *SMTPNotifier {
	return &SMTPNotifier{cfg: cfg, send: smtp.SendMail}
}

func (n *SMTPNotifier) Send(ctx context.Context, m Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	addr := net.JoinHostPort(n.cfg.Host, strconv.Itoa(n.cfg.Port))
	var auth smtp.Auth
	if n.cfg.User != "" {
		auth = smtp.PlainAuth("", n.cfg.User, n.cfg.Password, n.cfg.Host)
	}
	if err := n.send(addr, auth, envelopeAddress(n.cfg.From), []string{m.To}, Compose(n.cfg.From, m)); err != nil {
		return fmt.Errorf("smtp send to %s: %w", m.To, err)
	}
	return nil
}

// Compose renders m as an RFC 5322 message.
func Compose(from string, m Message) []byte {
	var b strings.Builder
	b.WriteString("From: " + from + "\r\n")
	b.WriteString("To: " + m.To + "\r\n")
	b.WriteString("Subject: " + m.Subject + "\r\n")
	b.WriteString("Date: " + time.Now().Format(time.RFC1123Z) + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n\r\n")
	b.WriteString(strings.ReplaceAll(m.Body, "\n", "\r\n"))
	return []byte(b.String())
}

// envelopeAddress extracts addr from "Name <addr>".
func envelopeAddress(from string) string {
	if i := strings.LastIndex(from, "<"); i >= 0 {
		if j := strings.LastIndex(from, ">"); j > i {
			return from[i+1 : j]
		}
	}
	return strings.TrimSpace(from)
}

// LogNotifier writes messages to the log instead of sending them.  It is
// used when no SMTP relay is configured.
type LogNotifier struct {
	Logger *log.Logger
}

func (n LogNotifier) Send(_ context.Context, m Message) error {
	n.Logger.Infof("email to=%s subject=%q body=%q", m.To, m.Subject, m.Body)
	return nil
}
