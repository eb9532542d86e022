package email

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"net/mail"
	"strings"

	"github.com/resend/resend-go/v2"
	"github.com/rs/zerolog"

	"github.com/mb-events/server/internal/config"
	"github.com/mb-events/server/internal/metrics"
)

// Service sends transactional email through Resend. When disabled it logs
// the message instead of sending, which keeps development setups working
// without an API key.
type Service struct {
	cfg       config.EmailConfig
	client    *resend.Client
	templates *template.Template
	logger    zerolog.Logger
}

type welcomeData struct {
	FullName string
	LoginURL string
}

type resetData struct {
	FullName string
	ResetURL string
}

func NewService(cfg config.EmailConfig, logger zerolog.Logger) (*Service, error) {
	if cfg.Enabled {
		if err := validateAddress(cfg.From); err != nil {
			return nil, fmt.Errorf("invalid sender address: %w", err)
		}
	}

	templates, err := template.New("email").Parse(welcomeTemplate)
	if err != nil {
		return nil, fmt.Errorf("parse email templates: %w", err)
	}
	if _, err := templates.Parse(resetTemplate); err != nil {
		return nil, fmt.Errorf("parse email templates: %w", err)
	}

	svc := &Service{
		cfg:       cfg,
		templates: templates,
		logger:    logger.With().Str("component", "email").Logger(),
	}
	if cfg.Enabled {
		svc.client = resend.NewClient(cfg.APIKey)
	}
	return svc, nil
}

func (s *Service) SendWelcome(ctx context.Context, to, fullName, loginURL string) error {
	body, err := s.render("welcome", welcomeData{FullName: fullName, LoginURL: loginURL})
	if err != nil {
		return err
	}
	return s.observe("welcome", s.send(ctx, to, "Welcome to MB Events", body))
}

func (s *Service) SendPasswordReset(ctx context.Context, to, fullName, resetURL string) error {
	body, err := s.render("reset", resetData{FullName: fullName, ResetURL: resetURL})
	if err != nil {
		return err
	}
	return s.observe("reset", s.send(ctx, to, "Reset your MB Events password", body))
}

func (s *Service) observe(kind string, err error) error {
	outcome := "sent"
	if err != nil {
		outcome = "failed"
	}
	metrics.EmailsSentTotal.WithLabelValues(kind, outcome).Inc()
	return err
}

func (s *Service) render(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("render %s template: %w", name, err)
	}
	return buf.String(), nil
}

func (s *Service) send(ctx context.Context, to, subject, htmlBody string) error {
	if err := validateAddress(to); err != nil {
		return fmt.Errorf("invalid recipient: %w", err)
	}

	if !s.cfg.Enabled {
		s.logger.Info().
			Str("to", to).
			Str("subject", subject).
			Msg("email disabled, skipping send")
		return nil
	}

	params := &resend.SendEmailRequest{
		From:    s.cfg.From,
		To:      []string{to},
		Subject: subject,
		Html:    htmlBody,
	}
	sent, err := s.client.Emails.SendWithContext(ctx, params)
	if err != nil {
		return fmt.Errorf("resend API error: %w", err)
	}

	s.logger.Info().
		Str("email_id", sent.Id).
		Str("to", to).
		Str("subject", subject).
		Msg("email sent")
	return nil
}

func validateAddress(address string) error {
	parsed, err := mail.ParseAddress(address)
	if err != nil {
		return fmt.Errorf("invalid email format: %w", err)
	}
	if strings.ContainsAny(parsed.Address, "\r\n") {
		return fmt.Errorf("email address contains newline characters")
	}
	return nil
}

const welcomeTemplate = `{{define "welcome"}}<!DOCTYPE html>
<html>
<body style="font-family: sans-serif; color: #222;">
  <h2>Welcome to MB Events, {{.FullName}}!</h2>
  <p>Your account is ready. Sign in to start browsing and hosting events.</p>
  <p><a href="{{.LoginURL}}">Log in to MB Events</a></p>
</body>
</html>{{end}}`

const resetTemplate = `{{define "reset"}}<!DOCTYPE html>
<html>
<body style="font-family: sans-serif; color: #222;">
  <h2>Hi {{.FullName}},</h2>
  <p>We received a request to reset your password. The link below expires in 15 minutes.</p>
  <p><a href="{{.ResetURL}}">Reset your password</a></p>
  <p>If you did not request this, you can ignore this email.</p>
</body>
</html>{{end}}`
