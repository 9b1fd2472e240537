package events

import (
	"context"
	"encoding/json"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"

	"github.com/beckelmw/sms-question-poker/pkg/mailer"
)

// EmailWorker renders queued jobs and hands them to a mail sender.
type EmailWorker struct {
	sender  mailer.Sender
	logger  *logrus.Logger
	timeout time.Duration
}

func NewEmailWorker(sender mailer.Sender, logger *logrus.Logger) *EmailWorker {
	return &EmailWorker{sender: sender, logger: logger, timeout: 15 * time.Second}
}

// Run consumes msgs until the channel closes or ctx is done.
func (w *EmailWorker) Run(ctx context.Context, msgs <-chan amqp.Delivery) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-msgs:
			if !ok {
				return
			}
			w.Handle(ctx, msg)
		}
	}
}

// Handle processes one delivery. Malformed jobs are dropped, send failures requeued.
func (w *EmailWorker) Handle(ctx context.Context, msg amqp.Delivery) {
	var job mailer.EmailJob
	if err := json.Unmarshal(msg.Body, &job); err != nil {
		w.logger.WithError(err).Warn("bad email job")
		_ = msg.Nack(false, false)
		return
	}

	subject, text, html, err := mailer.Compose(job)
	if err != nil {
		w.logger.WithError(err).WithField("template", job.Template).Warn("compose email failed")
		_ = msg.Nack(false, false)
		return
	}

	c, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()
	if err := w.sender.Send(c, job.To, subject, text, html); err != nil {
		w.logger.WithError(err).WithField("to", job.To).Warn("send email failed")
		_ = msg.Nack(false, true)
		return
	}
	_ = msg.Ack(false)
	w.logger.WithField("to", job.To).WithField("template", job.Template).Info("email sent")
}
