package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"rentalbooking/model"

	"github.com/streadway/amqp"
)

const retryHeader = "x-retry-count"

type Handler func(ctx context.Context, ev model.ReservationEvent) error

type Consumer struct {
	client *Client
	log    *slog.Logger

	// subscribe declares, binds and starts consuming; swapped in tests.
	subscribe func(routingKeys []string) (<-chan amqp.Delivery, error)
}

func NewConsumer(c *Client, log *slog.Logger) *Consumer {
	cons := &Consumer{client: c, log: log}
	cons.subscribe = cons.declareAndConsume
	return cons
}

// Consume binds the queue to routingKeys and handles deliveries until ctx ends.
// After a broker reconnect the subscription is set up again on the new channel.
func (c *Consumer) Consume(ctx context.Context, routingKeys []string, h Handler) error {
	reconnected := c.client.NotifyReconnect()
	msgs, err := c.subscribe(routingKeys)
	if err != nil {
		return err
	}
	go c.run(ctx, routingKeys, h, msgs, reconnected)
	return nil
}

func (c *Consumer) run(ctx context.Context, routingKeys []string, h Handler, msgs <-chan amqp.Delivery, reconnected <-chan struct{}) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-msgs:
			if !ok {
				c.log.Warn("delivery channel closed, waiting for reconnect")
				msgs = nil
				continue
			}
			c.handle(ctx, msg, h)
		case <-reconnected:
			next, err := c.subscribe(routingKeys)
			if err != nil {
				c.log.Error("resubscribe failed", "err", err)
				continue
			}
			msgs = next
			c.log.Info("consumer resubscribed", "keys", routingKeys)
		}
	}
}

func (c *Consumer) declareAndConsume(routingKeys []string) (<-chan amqp.Delivery, error) {
	if !c.client.IsConnected() {
		return nil, ErrNotConnected
	}
	ch := c.client.Channel()
	cfg := c.client.cfg

	q, err := ch.QueueDeclare(
		cfg.Queue,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("queue declare: %w", err)
	}
	for _, key := range routingKeys {
		if err := ch.QueueBind(q.Name, key, cfg.Exchange, false, nil); err != nil {
			return nil, fmt.Errorf("queue bind %s: %w", key, err)
		}
	}

	msgs, err := ch.Consume(q.Name, cfg.ConsumerTag, false, false, false, false, nil)
	if err != nil {
		return nil, fmt.Errorf("consume: %w", err)
	}
	c.log.Info("consuming events", "queue", q.Name, "keys", routingKeys)
	return msgs, nil
}

func (c *Consumer) handle(ctx context.Context, msg amqp.Delivery, h Handler) {
	var ev model.ReservationEvent
	if err := json.Unmarshal(msg.Body, &ev); err != nil {
		c.log.Error("undecodable event dropped", "message_id", msg.MessageId, "err", err)
		_ = msg.Nack(false, false)
		return
	}

	if err := h(ctx, ev); err != nil {
		c.log.Error("event handler failed", "event_id", ev.ID, "event_type", ev.Type, "err", err)
		c.retry(msg)
		return
	}
	_ = msg.Ack(false)
}

func retries(msg amqp.Delivery) int {
	switch v := msg.Headers[retryHeader].(type) {
	case int32:
		return int(v)
	case int64:
		return int(v)
	case int:
		return v
	}
	return 0
}

// retry republishes with a bumped counter, or nacks to the dead-letter path.
func (c *Consumer) retry(msg amqp.Delivery) {
	cfg := c.client.cfg
	n := retries(msg)
	if n >= cfg.MaxRedeliveries {
		c.log.Warn("max redeliveries reached", "message_id", msg.MessageId)
		_ = msg.Nack(false, false)
		return
	}

	time.Sleep(cfg.RedeliveryBackoff)

	headers := amqp.Table{}
	for k, v := range msg.Headers {
		headers[k] = v
	}
	headers[retryHeader] = int32(n + 1)

	err := c.client.Channel().Publish(msg.Exchange, msg.RoutingKey, false, false, amqp.Publishing{
		ContentType:  msg.ContentType,
		Body:         msg.Body,
		DeliveryMode: msg.DeliveryMode,
		MessageId:    msg.MessageId,
		Headers:      headers,
	})
	if err != nil {
		c.log.Error("republish failed", "message_id", msg.MessageId, "err", err)
		_ = msg.Nack(false, false)
		return
	}
	_ = msg.Ack(false)
}
