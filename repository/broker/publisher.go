package broker

import (
	"context"
	"time"

	"rentalbooking/repository/outbox"

	"github.com/streadway/amqp"
)

type Publisher struct {
	client *Client
}

func NewPublisher(c *Client) *Publisher { return &Publisher{client: c} }

// Publish sends one outbox event as a persistent JSON message.
func (p *Publisher) Publish(_ context.Context, ev outbox.Event) error {
	if !p.client.IsConnected() {
		return ErrNotConnected
	}
	return p.client.Channel().Publish(
		p.client.cfg.Exchange,
		RoutingKey(string(ev.Type)),
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         ev.Payload,
			DeliveryMode: amqp.Persistent,
			MessageId:    ev.ID.String(),
			Timestamp:    time.Now().UTC(),
			Headers: amqp.Table{
				"event_type":     string(ev.Type),
				"reservation_id": ev.AggregateID.String(),
			},
		},
	)
}
