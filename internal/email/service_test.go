package email

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/mb-events/server/internal/config"
)

func newDisabledService(t *testing.T) *Service {
	t.Helper()
	svc, err := NewService(config.EmailConfig{Enabled: false, From: "MB Events <no-reply@mbevents.dev>"}, zerolog.Nop())
	require.NoError(t, err)
	return svc
}

func TestDisabledServiceSkipsSend(t *testing.T) {
	svc := newDisabledService(t)

	require.NoError(t, svc.SendWelcome(context.Background(), "ada@example.com", "Ada", "http://localhost:5173/login"))
	require.NoError(t, svc.SendPasswordReset(context.Background(), "ada@example.com", "Ada", "http://localhost:5173/reset-password?token=x"))
}

func TestSendRejectsBadRecipient(t *testing.T) {
	svc := newDisabledService(t)

	err := svc.SendWelcome(context.Background(), "not-an-address", "Ada", "http://localhost:5173/login")

	require.ErrorContains(t, err, "invalid recipient")
}

func TestNewServiceRejectsBadSenderWhenEnabled(t *testing.T) {
	_, err := NewService(config.EmailConfig{Enabled: true, APIKey: "re_123", From: "broken"}, zerolog.Nop())

	require.ErrorContains(t, err, "invalid sender")
}

func TestTemplatesRender(t *testing.T) {
	svc := newDisabledService(t)

	body, err := svc.render("welcome", welcomeData{FullName: "Ada", LoginURL: "http://localhost:5173/login"})
	require.NoError(t, err)
	require.Contains(t, body, "Welcome to MB Events, Ada!")
	require.Contains(t, body, "http://localhost:5173/login")

	body, err = svc.render("reset", resetData{FullName: "Ada", ResetURL: "http://x/reset?token=abc"})
	require.NoError(t, err)
	require.Contains(t, body, "expires in 15 minutes")
	require.Contains(t, body, "http://x/reset?token=abc")
}
