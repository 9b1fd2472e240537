package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beckelmw/sms-question-poker/internal/domain/entity"
	"github.com/beckelmw/sms-question-poker/pkg/helpers"
	"github.com/beckelmw/sms-question-poker/pkg/mailer"
	"github.com/beckelmw/sms-question-poker/pkg/mailer/templates"
)

type fakeChannel struct {
	exchange, key string
	published     []amqp.Publishing
	err           error
}

func (f *fakeChannel) PublishWithContext(_ context.Context, exchange, key string, _, _ bool, msg amqp.Publishing) error {
	f.exchange, f.key = exchange, key
	f.published = append(f.published, msg)
	return f.err
}

func (f *fakeChannel) Close() error { return nil }

type fakeAck struct {
	acked, nacked, requeued int
}

func (a *fakeAck) Ack(uint64, bool) error { a.acked++; return nil }
func (a *fakeAck) Nack(_ uint64, _ bool, requeue bool) error {
	a.nacked++
	if requeue {
		a.requeued++
	}
	return nil
}
func (a *fakeAck) Reject(uint64, bool) error { return nil }

type fakeSender struct {
	to, subject, text, html string
	err                     error
	calls                   int
}

func (s *fakeSender) Send(_ context.Context, to, subject, text, html string) error {
	s.calls++
	s.to, s.subject, s.text, s.html = to, subject, text, html
	return s.err
}

func TestPublisher_UserRegisteredQueuesWelcomeJob(t *testing.T) {
	ch := &fakeChannel{}
	p := &Publisher{ch: ch, queue: "emails", appName: "SMS Question Poker"}

	u := &entity.User{ID: "u-1", FirstName: "Jane", LastName: "Doe", Username: "jane@beckelman.net", CreatedAt: time.Date(2026, 3, 4, 10, 30, 0, 0, time.UTC)}
	require.NoError(t, p.UserRegistered(context.Background(), u))

	assert.Equal(t, "", ch.exchange)
	assert.Equal(t, "emails", ch.key)
	require.Len(t, ch.published, 1)
	msg := ch.published[0]
	assert.Equal(t, "application/json", msg.ContentType)
	assert.Equal(t, amqp.Persistent, msg.DeliveryMode)

	var job mailer.EmailJob
	require.NoError(t, json.Unmarshal(msg.Body, &job))
	assert.Equal(t, "jane@beckelman.net", job.To)
	assert.Equal(t, templates.Welcome, job.Template)

	var data templates.WelcomeData
	require.NoError(t, json.Unmarshal(job.Data, &data))
	assert.Equal(t, "Jane", data.FirstName)
	assert.Equal(t, "SMS Question Poker", data.AppName)
}

func TestPublisher_PublishError(t *testing.T) {
	p := &Publisher{ch: &fakeChannel{err: amqp.ErrClosed}, queue: "emails"}
	err := p.UserRegistered(context.Background(), &entity.User{Username: "jane@beckelman.net"})
	assert.ErrorIs(t, err, amqp.ErrClosed)
}

func delivery(t *testing.T, ack *fakeAck, body any) amqp.Delivery {
	t.Helper()
	var b []byte
	switch v := body.(type) {
	case []byte:
		b = v
	default:
		var err error
		b, err = json.Marshal(v)
		require.NoError(t, err)
	}
	return amqp.Delivery{Acknowledger: ack, DeliveryTag: 1, Body: b}
}

func TestEmailWorker_Handle(t *testing.T) {
	welcome, err := mailer.NewWelcomeJob("jane@beckelman.net", templates.WelcomeData{FirstName: "Jane", JoinedAt: time.Now()})
	require.NoError(t, err)

	tests := []struct {
		name         string
		body         any
		sendErr      error
		wantSends    int
		wantAck      int
		wantNack     int
		wantRequeued int
	}{
		{"welcome template", welcome, nil, 1, 1, 0, 0},
		{"raw body", mailer.EmailJob{To: "a@beckelman.net", Subject: "Hi", Text: "hello"}, nil, 1, 1, 0, 0},
		{"malformed json", []byte("{not json"), nil, 0, 0, 1, 0},
		{"unknown template", mailer.EmailJob{To: "a@beckelman.net", Template: "nope"}, nil, 0, 0, 1, 0},
		{"send failure requeues", welcome, errors.New("mailgun 503"), 1, 0, 1, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ack := &fakeAck{}
			sender := &fakeSender{err: tt.sendErr}
			w := NewEmailWorker(sender, helpers.NewDiscardLogger())

			w.Handle(context.Background(), delivery(t, ack, tt.body))

			assert.Equal(t, tt.wantSends, sender.calls)
			assert.Equal(t, tt.wantAck, ack.acked)
			assert.Equal(t, tt.wantNack, ack.nacked)
			assert.Equal(t, tt.wantRequeued, ack.requeued)
		})
	}
}

func TestEmailWorker_RunStopsWhenChannelCloses(t *testing.T) {
	ack := &fakeAck{}
	sender := &fakeSender{}
	w := NewEmailWorker(sender, helpers.NewDiscardLogger())

	msgs := make(chan amqp.Delivery, 2)
	msgs <- delivery(t, ack, mailer.EmailJob{To: "a@beckelman.net", Subject: "One", Text: "1"})
	msgs <- delivery(t, ack, mailer.EmailJob{To: "b@beckelman.net", Subject: "Two", Text: "2"})
	close(msgs)

	w.Run(context.Background(), msgs)
	assert.Equal(t, 2, sender.calls)
	assert.Equal(t, 2, ack.acked)
	assert.Equal(t, "b@beckelman.net", sender.to)
}
