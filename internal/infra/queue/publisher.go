package queue

import (
	"context"

	"github.com/bytedance/sonic"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// Publisher pushes JSON payloads onto a durable queue. Changesets are
// published after their transaction commits so downstream consumers only
// ever see committed history.
type Publisher struct {
	ch    *amqp.Channel
	queue string
	log   *zap.Logger
}

func NewPublisher(conn *amqp.Connection, queue string, log *zap.Logger) (*Publisher, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, err
	}
	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		return nil, err
	}
	return &Publisher{ch: ch, queue: queue, log: log}, nil
}

func (p *Publisher) PublishJSON(ctx context.Context, v any) error {
	body, err := sonic.Marshal(v)
	if err != nil {
		return err
	}
	return p.ch.PublishWithContext(ctx, "", p.queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Body:         body,
	})
}

func (p *Publisher) Close() error {
	return p.ch.Close()
}
