// Package mailer delivers account emails.
package mailer

import (
	"context"
	"fmt"
	"html/template"
	"net"
	"strings"
	"time"

	"github.com/wneessen/go-mail"

	"grindsheet/internal/config"
	"grindsheet/internal/logger"
)

const resetSubject = "Password Reset Request - The Grind Sheet"

var resetTemplate = template.Must(template.New("reset").Parse(`<h2>Password Reset Request</h2>
<p>Hello {{.Name}},</p>
<p>You requested a password reset for your The Grind Sheet account.</p>
<p>Click the link below to reset your password:</p>
<a href="{{.URL}}" style="background: #007bff; color: white; padding: 10px 20px; text-decoration: none; border-radius: 4px;">Reset Password</a>
<p>This link will expire in {{.ExpiresIn}}.</p>
<p>If you didn't request this reset, please ignore this email.</p>
<p>Best regards,<br>The Grind Sheet Team</p>
`))

// Mailer sends password reset links.
type Mailer interface {
	SendPasswordReset(ctx context.Context, to, name, resetURL string) error
}

// ResetURL builds the link a user follows to pick a new password.
func ResetURL(baseURL, token string) string {
	return strings.TrimRight(baseURL, "/") + "/reset-password.html?token=" + token
}

// New returns an SMTPMailer when SMTP_HOST is configured and a LogMailer otherwise.
func New(cfg *config.Config) Mailer {
	if cfg.SMTPHost == "" {
		return &LogMailer{}
	}
	return NewSMTPMailer(SMTPConfig{
		Host:      cfg.SMTPHost,
		Port:      cfg.SMTPPort,
		Username:  cfg.SMTPUser,
		Password:  cfg.SMTPPassword,
		From:      cfg.MailFrom,
		ExpiresIn: humanDuration(cfg.ResetTokenTTL.Hours()),
		Timeout:   cfg.SMTPTimeout,
	})
}

// LogMailer writes reset links to the application log instead of sending mail.
type LogMailer struct{}

// SendPasswordReset logs the reset link.
func (m *LogMailer) SendPasswordReset(_ context.Context, to, _, resetURL string) error {
	logger.Get().Infow("password reset link", "to", to, "url", resetURL)
	return nil
}

// SMTPConfig holds the SMTP relay settings.
type SMTPConfig struct {
	Host      string
	Port      int
	Username  string
	Password  string
	From      string
	ExpiresIn string
	// Timeout bounds a whole delivery: dial, greeting and transfer.
	Timeout time.Duration
}

// SMTPMailer sends HTML mail through an SMTP relay.
type SMTPMailer struct {
	cfg SMTPConfig
}

// NewSMTPMailer creates an SMTPMailer.
func NewSMTPMailer(cfg SMTPConfig) *SMTPMailer {
	if cfg.ExpiresIn == "" {
		cfg.ExpiresIn = "1 hour"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &SMTPMailer{cfg: cfg}
}

// SendPasswordReset renders the reset message and hands it to the relay. The
// delivery gives up at ctx's deadline or after the configured timeout,
// whichever comes first.
func (m *SMTPMailer) SendPasswordReset(ctx context.Context, to, name, resetURL string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg, err := m.buildResetMessage(to, name, resetURL)
	if err != nil {
		return err
	}

	client, err := m.newClient()
	if err != nil {
		return err
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("send reset mail to %s: %w", to, ctxErr)
		}
		return fmt.Errorf("send reset mail to %s: %w", to, err)
	}
	return nil
}

func (m *SMTPMailer) newClient() (*mail.Client, error) {
	opts := []mail.Option{
		mail.WithTLSPolicy(mail.TLSOpportunistic),
		mail.WithPort(m.cfg.Port),
		mail.WithTimeout(m.cfg.Timeout),
		mail.WithDialContextFunc(m.dial),
	}
	if m.cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(m.cfg.Username),
			mail.WithPassword(m.cfg.Password),
		)
	}

	client, err := mail.NewClient(m.cfg.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("configure smtp client: %w", err)
	}
	return client, nil
}

// dial opens the relay connection with an absolute I/O deadline, so a relay
// that accepts but never answers cannot outlive the caller's context.
func (m *SMTPMailer) dial(ctx context.Context, network, addr string) (net.Conn, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, network, addr)
	if err != nil {
		return nil, err
	}

	deadline := time.Now().Add(m.cfg.Timeout)
	if dl, ok := ctx.Deadline(); ok && dl.Before(deadline) {
		deadline = dl
	}
	if err := conn.SetDeadline(deadline); err != nil {
		_ = conn.Close()
		return nil, err
	}
	return conn, nil
}

func (m *SMTPMailer) buildResetMessage(to, name, resetURL string) (*mail.Msg, error) {
	msg := mail.NewMsg()
	if err := msg.From(m.cfg.From); err != nil {
		return nil, fmt.Errorf("invalid sender %q: %w", m.cfg.From, err)
	}
	if err := msg.To(to); err != nil {
		return nil, fmt.Errorf("invalid recipient %q: %w", to, err)
	}
	msg.Subject(resetSubject)

	data := struct {
		Name      string
		URL       string
		ExpiresIn string
	}{Name: name, URL: resetURL, ExpiresIn: m.cfg.ExpiresIn}
	if err := msg.SetBodyHTMLTemplate(resetTemplate, data); err != nil {
		return nil, fmt.Errorf("render reset mail: %w", err)
	}
	return msg, nil
}

func humanDuration(hours float64) string {
	switch {
	case hours == 1:
		return "1 hour"
	case hours >= 1 && hours == float64(int(hours)):
		return fmt.Sprintf("%d hours", int(hours))
	default:
		return fmt.Sprintf("%d minutes", int(hours*60))
	}
}
