package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/beckelmw/sms-question-poker/internal/domain/entity"
	"github.com/beckelmw/sms-question-poker/pkg/mailer"
	"github.com/beckelmw/sms-question-poker/pkg/mailer/templates"
)

type publishChannel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// Publisher puts email jobs on a durable RabbitMQ queue.
type Publisher struct {
	conn    *amqp.Connection
	ch      publishChannel
	queue   string
	appName string
}

func NewPublisher(url, queue, appName string) (*Publisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("amqp dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("amqp channel: %w", err)
	}
	if err := DeclareQueue(ch, queue); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, err
	}
	return &Publisher{conn: conn, ch: ch, queue: queue, appName: appName}, nil
}

// DeclareQueue declares the durable queue shared by publisher and worker.
func DeclareQueue(ch *amqp.Channel, queue string) error {
	_, err := ch.QueueDeclare(
		queue,
		true,  // durable
		false, // autoDelete
		false, // exclusive
		false, // noWait
		nil,
	)
	if err != nil {
		return fmt.Errorf("queue declare %s: %w", queue, err)
	}
	return nil
}

func (p *Publisher) Close() {
	if p == nil {
		return
	}
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		_ = p.conn.Close()
	}
}

// PublishJSON publishes body to the queue through the default exchange.
func (p *Publisher) PublishJSON(ctx context.Context, body any) error {
	b, err := json.Marshal(body)
	if err != nil {
		return err
	}
	return p.ch.PublishWithContext(ctx,
		"",      // default exchange
		p.queue, // routing key = queue
		false,   // mandatory
		false,   // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now().UTC(),
			Body:         b,
		},
	)
}

// UserRegistered queues the welcome email for u.
func (p *Publisher) UserRegistered(ctx context.Context, u *entity.User) error {
	job, err := mailer.NewWelcomeJob(u.Username, templates.WelcomeData{
		AppName:   p.appName,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Username:  u.Username,
		JoinedAt:  u.CreatedAt,
	})
	if err != nil {
		return err
	}
	c, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := p.PublishJSON(c, job); err != nil {
		return fmt.Errorf("publish welcome email: %w", err)
	}
	return nil
}
