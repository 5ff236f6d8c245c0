package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("SMTP_USER", "")
	t.Setenv("MAIL_TRANSPORT", "")
	t.Setenv("JWT_SECRET", "")

	cfg := Load()

	assert.Equal(t, "5000", cfg.Port)
	assert.Equal(t, "dev-secret", cfg.JWTSecret)
	assert.Equal(t, 7*24*time.Hour, cfg.JWTExpiresIn)
	assert.Equal(t, 10*time.Minute, cfg.OTPTTL)
	assert.Equal(t, "log", cfg.MailTransport)
	assert.Equal(t, int64(10*1024*1024), cfg.ResumeMaxBytes)
	assert.Equal(t, "no-reply@localhost", cfg.DefaultFrom())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("SMTP_USER", "mailer@example.com")
	t.Setenv("MAIL_TRANSPORT", "")
	t.Setenv("NOTIFY_FROM", "")
	t.Setenv("SIGNUP_FROM", "hello@example.com")
	t.Setenv("OTP_TTL", "5m")
	t.Setenv("SMTP_PORT", "465")
	t.Setenv("LOG_PRETTY", "true")
	t.Setenv("DB_DRIVER", "Postgres")

	cfg := Load()

	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, "smtp", cfg.MailTransport)
	assert.Equal(t, "mailer@example.com", cfg.NotifyFrom)
	assert.Equal(t, "hello@example.com", cfg.SignupFrom)
	assert.Equal(t, "mailer@example.com", cfg.AdminEmail)
	assert.Equal(t, 5*time.Minute, cfg.OTPTTL)
	assert.Equal(t, 465, cfg.SMTPPort)
	assert.True(t, cfg.LogPretty)
	assert.Equal(t, "postgres", cfg.DBDriver)
}

func TestInvalidValuesFallBack(t *testing.T) {
	t.Setenv("SMTP_PORT", "not-a-port")
	t.Setenv("OTP_TTL", "soon")

	cfg := Load()

	assert.Equal(t, 587, cfg.SMTPPort)
	assert.Equal(t, 10*time.Minute, cfg.OTPTTL)
}
