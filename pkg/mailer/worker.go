package mailer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
)

// ErrPoisonMessage marks a job that can never succeed; it is dropped instead of requeued.
var ErrPoisonMessage = errors.New("poison email job")

// Worker renders queued jobs and sends them through a Sender.
type Worker struct {
	Sender      Sender
	Logger      *logrus.Logger
	SendTimeout time.Duration
}

func NewWorker(sender Sender, logger *logrus.Logger) *Worker {
	return &Worker{Sender: sender, Logger: logger, SendTimeout: 15 * time.Second}
}

// Process handles one message body. Decode and render failures wrap ErrPoisonMessage;
// send failures are returned as is so the message can be retried.
func (w *Worker) Process(ctx context.Context, body []byte) error {
	var job EmailJob
	if err := json.Unmarshal(body, &job); err != nil {
		return fmt.Errorf("%w: decode: %v", ErrPoisonMessage, err)
	}
	subject, text, html, err := job.Render()
	if err != nil {
		return fmt.Errorf("%w: render %s: %v", ErrPoisonMessage, job.Template, err)
	}
	c, cancel := context.WithTimeout(ctx, w.SendTimeout)
	defer cancel()
	if err := w.Sender.Send(c, job.To, subject, text, html); err != nil {
		return fmt.Errorf("send to %s: %w", job.To, err)
	}
	return nil
}

// Acknowledger is the subset of amqp.Delivery the worker settles messages with.
type Acknowledger interface {
	Ack(multiple bool) error
	Nack(multiple, requeue bool) error
}

// Handle processes d and acks, drops or requeues it.
func (w *Worker) Handle(ctx context.Context, body []byte, d Acknowledger) {
	err := w.Process(ctx, body)
	switch {
	case err == nil:
		_ = d.Ack(false)
	case errors.Is(err, ErrPoisonMessage):
		w.log().WithError(err).Error("dropping email job")
		_ = d.Nack(false, false)
	default:
		w.log().WithError(err).Warn("email send failed, requeueing")
		_ = d.Nack(false, true)
	}
}

// Run consumes deliveries until the channel closes or ctx is done.
func (w *Worker) Run(ctx context.Context, deliveries <-chan amqp.Delivery) {
	for {
		select {
		case <-ctx.Done():
			return
		case d, ok := <-deliveries:
			if !ok {
				return
			}
			w.Handle(ctx, d.Body, &d)
		}
	}
}

func (w *Worker) log() *logrus.Logger {
	if w.Logger == nil {
		return logrus.StandardLogger()
	}
	return w.Logger
}
