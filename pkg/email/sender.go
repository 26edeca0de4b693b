package email

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"net"
	"net/smtp"
	"strings"
)

type Config struct {
	Host     string
	Port     string
	User     string
	Password string
	// From is the SMTP envelope sender (MAIL FROM). This should be a raw mailbox address.
	From string
	// FromName is an optional display name used only for the message header.
	FromName string
}

const (
	ContentTypeHTML = "text/html; charset=UTF-8"
	ContentTypeText = "text/plain; charset=UTF-8"
)

// Message is a single outbound mail.
type Message struct {
	To          string
	Subject     string
	Body        string
	ReplyTo     string
	ContentType string
	// Priority is written as X-Priority when in 1..5.
	Priority int
}

type Sender struct {
	config Config
	auth   smtp.Auth
}

func NewSender(config Config) *Sender {
	var auth smtp.Auth
	if config.User != "" && config.Password != "" {
		auth = smtp.PlainAuth("", config.User, config.Password, config.Host)
	}

	return &Sender{
		config: config,
		auth:   auth,
	}
}

// Send delivers msg over SMTP. The context bounds the dial; net/smtp has no
// per-command deadlines so the connection deadline is derived from it.
func (s *Sender) Send(ctx context.Context, msg Message) error {
	if strings.TrimSpace(s.config.Host) == "" {
		return errors.New("smtp host not configured")
	}
	addr := net.JoinHostPort(s.config.Host, s.config.Port)
	to := sanitizeHeader(msg.To)
	body := BuildMessage(s.fromHeader(), msg)

	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("dial smtp: %w", err)
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	c, err := smtp.NewClient(conn, s.config.Host)
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("smtp handshake: %w", err)
	}
	defer func() { _ = c.Close() }()

	if s.auth != nil {
		if ok, _ := c.Extension("STARTTLS"); ok {
			if errTLS := c.StartTLS(tlsConfig(s.config.Host)); errTLS != nil {
				return fmt.Errorf("starttls: %w", errTLS)
			}
		}
		if errAuth := c.Auth(s.auth); errAuth != nil {
			return fmt.Errorf("auth: %w", errAuth)
		}
	}

	if errMail := c.Mail(s.config.From); errMail != nil {
		return fmt.Errorf("mail from: %w", errMail)
	}

	if errRcpt := c.Rcpt(to); errRcpt != nil {
		return fmt.Errorf("rcpt to: %w", errRcpt)
	}

	w, err := c.Data()
	if err != nil {
		return fmt.Errorf("data: %w", err)
	}

	if _, err = w.Write(body); err != nil {
		return fmt.Errorf("write: %w", err)
	}

	if err := w.Close(); err != nil {
		return fmt.Errorf("close: %w", err)
	}

	return c.Quit()
}

func (s *Sender) fromHeader() string {
	if strings.TrimSpace(s.config.FromName) != "" {
		return fmt.Sprintf("%s <%s>", encodeWord(sanitizeHeader(s.config.FromName)), s.config.From)
	}
	return s.config.From
}

// BuildMessage renders the RFC 5322 headers and body for msg.
func BuildMessage(from string, msg Message) []byte {
	contentType := msg.ContentType
	if contentType == "" {
		contentType = ContentTypeHTML
	}

	lines := []string{
		fmt.Sprintf("From: %s", sanitizeHeader(from)),
		fmt.Sprintf("To: %s", sanitizeHeader(msg.To)),
		fmt.Sprintf("Subject: %s", encodeWord(sanitizeHeader(msg.Subject))),
	}
	if replyTo := sanitizeHeader(msg.ReplyTo); replyTo != "" {
		lines = append(lines, fmt.Sprintf("Reply-To: %s", replyTo))
	}
	if msg.Priority >= 1 && msg.Priority <= 5 {
		lines = append(lines, fmt.Sprintf("X-Priority: %d", msg.Priority))
	}
	lines = append(lines,
		"MIME-Version: 1.0",
		fmt.Sprintf("Content-Type: %s", sanitizeHeader(contentType)),
		"",
		msg.Body,
	)

	return []byte(strings.Join(lines, "\r\n"))
}

// encodeWord applies RFC 2047 Q-encoding to header text outside ASCII.
func encodeWord(s string) string {
	return mime.QEncoding.Encode("UTF-8", s)
}

func sanitizeHeader(s string) string {
	s = strings.ReplaceAll(s, "\r", "")
	s = strings.ReplaceAll(s, "\n", "")
	return s
}
