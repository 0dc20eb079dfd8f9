// Package notify delivers out-of-band messages to users.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/avdeyev/authsvc/internal/config"
	"gopkg.in/gomail.v2"
)

// EmailNotifier sends mail over SMTP.
type EmailNotifier struct {
	cfg config.SMTPConfig
	log *slog.Logger
}

func NewEmailNotifier(cfg config.SMTPConfig, log *slog.Logger) *EmailNotifier {
	return &EmailNotifier{cfg: cfg, log: log}
}

// SendPasswordReset mails the reset link to the user. The link embeds a
// token that expires in an hour, so delivery is time-sensitive but a
// failure here must stay invisible to the requester.
func (n *EmailNotifier) SendPasswordReset(ctx context.Context, email, resetLink, userName string) error {
	if n.cfg.Host == "" || n.cfg.From == "" {
		return fmt.Errorf("smtp config missing")
	}
	if strings.TrimSpace(email) == "" {
		return fmt.Errorf("empty recipient")
	}
	if userName == "" {
		userName = "User"
	}

	m := gomail.NewMessage()
	m.SetHeader("From", n.cfg.From)
	m.SetHeader("To", email)
	m.SetHeader("Subject", "Password Reset Request")
	m.SetBody("text/plain", resetPlainBody(resetLink, userName))
	m.AddAlternative("text/html", resetHTMLBody(resetLink, userName))

	d := gomail.NewDialer(n.cfg.Host, n.cfg.Port, n.cfg.User, n.cfg.Password)

	if err := d.DialAndSend(m); err != nil {
		return fmt.Errorf("send email: %w", err)
	}

	n.log.Info("password reset email sent", slog.String("to", email))
	return nil
}

func resetPlainBody(resetLink, userName string) string {
	return fmt.Sprintf(`Hello %s,

We received a request to reset your password.

To reset your password, click the link below:
%s

This link will expire in 1 hour.

If you didn't request a password reset, please ignore this email.

---
This is an automated email, please do not reply.
`, userName, resetLink)
}

func resetHTMLBody(resetLink, userName string) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #333;">
  <div style="max-width: 600px; margin: 0 auto; padding: 24px;">
    <h1 style="font-size: 22px;">Password Reset Request</h1>
    <p>Hello %s,</p>
    <p>We received a request to reset your password. Click the button below to create a new password:</p>
    <p style="text-align: center;">
      <a href="%s" style="display: inline-block; padding: 12px 28px; background: #4f46e5; color: #fff; text-decoration: none; border-radius: 6px; font-weight: bold;">Reset Password</a>
    </p>
    <p style="font-size: 13px; color: #718096;">Or copy and paste this link in your browser:</p>
    <div style="word-break: break-all; background: #f7fafc; padding: 10px; border-radius: 4px; font-size: 13px;">%s</div>
    <div style="background: #fff3cd; border-left: 4px solid #ffc107; padding: 12px; margin: 20px 0; font-size: 13px;">
      <strong>Security notice:</strong> this link will expire in 1 hour.
      If you didn't request a password reset, please ignore this email.
    </div>
    <p style="font-size: 12px; color: #718096; border-top: 1px solid #e2e8f0; padding-top: 12px;">
      This is an automated email, please do not reply.<br>
      &copy; %d. All rights reserved.
    </p>
  </div>
</body>
</html>`, userName, resetLink, resetLink, time.Now().Year())
}
