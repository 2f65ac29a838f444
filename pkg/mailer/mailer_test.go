package mailer

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/shopdesk-api/config"
)

type recordingSender struct {
	to, subject, text, html string
	err                     error
}

func (s *recordingSender) Send(_ context.Context, to, subject, text, html string) error {
	s.to, s.subject, s.text, s.html = to, subject, text, html
	return s.err
}

type recordingPublisher struct {
	jobs []any
	err  error
}

func (p *recordingPublisher) PublishJSON(_ context.Context, body any) error {
	p.jobs = append(p.jobs, body)
	return p.err
}

func testConfig() *config.Config {
	return &config.Config{
		AppName:          "shopdesk",
		CompanyName:      "Shopdesk",
		ResetPasswordURL: "https://app.example/reset-password",
		ResetTokenTTL:    time.Hour,
	}
}

func TestDirectMailerRendersResetLink(t *testing.T) {
	sender := &recordingSender{}
	m := NewDirectMailer(testConfig(), sender)

	err := m.SendPasswordResetEmail(context.Background(), "dana@example.com", "tok_123", "Dana")
	require.NoError(t, err)

	assert.Equal(t, "dana@example.com", sender.to)
	assert.Equal(t, "Reset your shopdesk password", sender.subject)
	assert.Contains(t, sender.text, "https://app.example/reset-password?token=tok_123")
	assert.Contains(t, sender.text, "Hi Dana,")
	assert.Contains(t, sender.html, "reset-password?token=tok_123")
}

func TestDirectMailerWrapsSendFailure(t *testing.T) {
	boom := errors.New("mailgun down")
	m := NewDirectMailer(testConfig(), &recordingSender{err: boom})

	err := m.SendPasswordResetEmail(context.Background(), "dana@example.com", "tok", "")
	assert.ErrorIs(t, err, boom)
}

func TestQueueMailerPublishesJob(t *testing.T) {
	pub := &recordingPublisher{}
	m := NewQueueMailer(testConfig(), pub)

	require.NoError(t, m.SendPasswordResetEmail(context.Background(), "dana@example.com", "tok", "Dana"))
	require.Len(t, pub.jobs, 1)

	job, ok := pub.jobs[0].(EmailJob)
	require.True(t, ok)
	assert.Equal(t, "forgot_password", job.Template)
	assert.Equal(t, "dana@example.com", job.To)
	assert.Equal(t, "https://app.example/reset-password?token=tok", job.Data["ResetURL"])
}

func TestLogMailer(t *testing.T) {
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.InfoLevel)
	m := NewLogMailer(testConfig(), logger)

	require.NoError(t, m.SendPasswordResetEmail(context.Background(), "dana@example.com", "tok", "Dana"))
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, "dana@example.com", hook.LastEntry().Data["to"])
}

func TestEmailJobRender(t *testing.T) {
	job := EmailJob{To: " x@example.com ", Template: "FORGOT_PASSWORD", Data: map[string]any{"ResetURL": "https://r"}}
	subject, text, _, err := job.Render()
	require.NoError(t, err)
	assert.Equal(t, "x@example.com", job.Data["RecipientEmail"])
	assert.Equal(t, "Reset your account password", subject)
	assert.Contains(t, text, "https://r")

	_, _, _, err = (&EmailJob{To: "x@example.com", Template: "nope"}).Render()
	assert.Error(t, err)

	_, _, _, err = (&EmailJob{Template: "forgot_password"}).Render()
	assert.ErrorIs(t, err, ErrEmptyRecipient)

	s, txt, _, err := (&EmailJob{To: "x@example.com", Subject: "Hi", Text: "plain"}).Render()
	require.NoError(t, err)
	assert.Equal(t, "Hi", s)
	assert.Equal(t, "plain", txt)
}
