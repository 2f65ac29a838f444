package mailer

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/shopdesk-api/config"
	mailtpl "github.com/oksasatya/shopdesk-api/pkg/mailer/templates"
)

// Sender delivers an already rendered message.
type Sender interface {
	Send(ctx context.Context, to, subject, text, html string) error
}

// Publisher hands a job to the email queue.
type Publisher interface {
	PublishJSON(ctx context.Context, body any) error
}

// jobFactory builds the forgot-password job shared by every delivery mode.
type jobFactory struct {
	cfg *config.Config
	now func() time.Time
}

func (f jobFactory) passwordReset(email, token, displayName string) EmailJob {
	data := mailtpl.NewForgotPasswordData(f.cfg, displayName, email, token,
		mailtpl.WithExpiresAt(f.now().Add(f.cfg.ResetTokenTTL)))
	return EmailJob{To: email, Template: mailtpl.ForgotPassword, Data: data}
}

// DirectMailer renders templates in-process and sends through a Sender (Mailgun).
type DirectMailer struct {
	jobs   jobFactory
	sender Sender
}

func NewDirectMailer(cfg *config.Config, sender Sender) *DirectMailer {
	return &DirectMailer{jobs: jobFactory{cfg: cfg, now: time.Now}, sender: sender}
}

func (m *DirectMailer) SendPasswordResetEmail(ctx context.Context, email, token, displayName string) error {
	job := m.jobs.passwordReset(email, token, displayName)
	subject, text, html, err := job.Render()
	if err != nil {
		return fmt.Errorf("render reset email: %w", err)
	}
	if err := m.sender.Send(ctx, job.To, subject, text, html); err != nil {
		return fmt.Errorf("send reset email: %w", err)
	}
	return nil
}

// QueueMailer publishes jobs to RabbitMQ; cmd/email_worker renders and sends them.
type QueueMailer struct {
	jobs jobFactory
	pub  Publisher
}

func NewQueueMailer(cfg *config.Config, pub Publisher) *QueueMailer {
	return &QueueMailer{jobs: jobFactory{cfg: cfg, now: time.Now}, pub: pub}
}

func (m *QueueMailer) SendPasswordResetEmail(ctx context.Context, email, token, displayName string) error {
	job := m.jobs.passwordReset(email, token, displayName)
	c, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := m.pub.PublishJSON(c, job); err != nil {
		return fmt.Errorf("enqueue reset email: %w", err)
	}
	return nil
}

// LogMailer only logs the reset link. Local development only.
type LogMailer struct {
	jobs   jobFactory
	logger *logrus.Logger
}

func NewLogMailer(cfg *config.Config, logger *logrus.Logger) *LogMailer {
	return &LogMailer{jobs: jobFactory{cfg: cfg, now: time.Now}, logger: logger}
}

func (m *LogMailer) SendPasswordResetEmail(_ context.Context, email, token, displayName string) error {
	job := m.jobs.passwordReset(email, token, displayName)
	m.logger.WithFields(logrus.Fields{
		"to":        job.To,
		"template":  job.Template,
		"reset_url": job.Data["ResetURL"],
	}).Info("password reset email (log delivery)")
	return nil
}
