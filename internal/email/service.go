package email

import (
	"fmt"
	"net"
	"net/smtp"
)

// Sender dispatches outbound mail. The auth flow depends on this interface
// so tests can capture messages instead of talking to a mail server.
type Sender interface {
	SendPasswordResetEmail(to, resetLink string) error
}

// Service sends mail over SMTP.
type Service struct {
	server   string // host:port
	username string
	password string
	from     string
}

// NewService creates an SMTP-backed email service.
func NewService(server, username, password, from string) *Service {
	return &Service{
		server:   server,
		username: username,
		password: password,
		from:     from,
	}
}

// SendPasswordResetEmail sends the reset link to the user.
func (s *Service) SendPasswordResetEmail(to, resetLink string) error {
	subject := "Reset your password"
	body := fmt.Sprintf(`
	<p>You requested a password reset!</p>
	<p>Click this <a href="%s">link</a> to reset a new password!</p>
	`, resetLink)
	return s.send(to, subject, body)
}

func (s *Service) send(to, subject, body string) error {
	if s.server == "" {
		return fmt.Errorf("SMTP server is not configured")
	}
	host, _, err := net.SplitHostPort(s.server)
	if err != nil {
		return fmt.Errorf("invalid SMTP server format (expected host:port): %w", err)
	}

	auth := smtp.PlainAuth("", s.username, s.password, host)
	msg := buildMessage(s.from, to, subject, body)

	if err := smtp.SendMail(s.server, auth, s.from, []string{to}, msg); err != nil {
		return fmt.Errorf("failed to send email via %s: %w", s.server, err)
	}
	return nil
}

// buildMessage assembles an HTML mail with headers.
func buildMessage(from, to, subject, body string) []byte {
	msg := "From: " + from + "\r\n" +
		"To: " + to + "\r\n" +
		"Subject: " + subject + "\r\n" +
		"MIME-Version: 1.0\r\n" +
		"Content-Type: text/html; charset=UTF-8\r\n" +
		"\r\n" +
		body + "\r\n"
	return []byte(msg)
}
