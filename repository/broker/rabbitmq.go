package broker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/streadway/amqp"
)

var ErrNotConnected = errors.New("no connection to rabbitmq")

type Client struct {
	cfg  Config
	log  *slog.Logger
	conn *amqp.Connection
	ch   *amqp.Channel

	mu      sync.RWMutex
	closing bool
	subs    []chan struct{}
	ctx     context.Context
	cancel  context.CancelFunc
}

func NewClient(cfg Config, log *slog.Logger) *Client {
	ctx, cancel := context.WithCancel(context.Background())
	return &Client{cfg: cfg, log: log, ctx: ctx, cancel: cancel}
}

// Connect dials with retries and declares the durable topic exchange.
// The lock is only held to swap the connection in, never while dialing or waiting.
func (c *Client) Connect() error {
	var err error
	for i := 0; i < c.cfg.RetryCount; i++ {
		var (
			conn *amqp.Connection
			ch   *amqp.Channel
		)
		if conn, ch, err = c.dial(); err == nil {
			if !c.swap(conn, ch) {
				_ = ch.Close()
				_ = conn.Close()
				return ErrNotConnected
			}
			c.log.Info("rabbitmq connected", "exchange", c.cfg.Exchange)
			go c.watch(conn)
			c.notifyReconnected()
			return nil
		}
		c.log.Warn("rabbitmq connect failed", "attempt", i+1, "of", c.cfg.RetryCount, "err", err)
		if i < c.cfg.RetryCount-1 && !c.sleep(c.cfg.RetryDelay) {
			return ErrNotConnected
		}
	}
	return fmt.Errorf("connect rabbitmq: %w", err)
}

func (c *Client) dial() (*amqp.Connection, *amqp.Channel, error) {
	conn, err := amqp.Dial(c.cfg.URL)
	if err != nil {
		return nil, nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, nil, fmt.Errorf("open channel: %w", err)
	}
	if err := ch.ExchangeDeclare(
		c.cfg.Exchange, // name
		"topic",        // type
		true,           // durable
		false,          // auto-deleted
		false,          // internal
		false,          // no-wait
		nil,
	); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, nil, fmt.Errorf("declare exchange: %w", err)
	}
	return conn, ch, nil
}

func (c *Client) swap(conn *amqp.Connection, ch *amqp.Channel) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closing {
		return false
	}
	c.conn, c.ch = conn, ch
	return true
}

// sleep waits d unless the client is closed first.
func (c *Client) sleep(d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-c.ctx.Done():
		return false
	}
}

// NotifyReconnect returns a channel that receives after every successful
// (re)connect. Channels and consumers opened before a reconnect are dead.
func (c *Client) NotifyReconnect() <-chan struct{} {
	ch := make(chan struct{}, 1)
	c.mu.Lock()
	c.subs = append(c.subs, ch)
	c.mu.Unlock()
	return ch
}

func (c *Client) notifyReconnected() {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, s := range c.subs {
		select {
		case s <- struct{}{}:
		default:
		}
	}
}

// watch reconnects after an unexpected close and keeps trying until it
// succeeds or the client is closed.
func (c *Client) watch(conn *amqp.Connection) {
	closed := conn.NotifyClose(make(chan *amqp.Error, 1))
	select {
	case err := <-closed:
		c.mu.RLock()
		closing := c.closing
		c.mu.RUnlock()
		if closing {
			return
		}
		c.log.Warn("rabbitmq connection lost, reconnecting", "err", err)
		for c.sleep(c.cfg.RetryDelay) {
			err := c.Connect()
			if err == nil || errors.Is(err, ErrNotConnected) {
				return
			}
			c.log.Error("rabbitmq reconnect failed", "err", err)
		}
	case <-c.ctx.Done():
	}
}

func (c *Client) Channel() *amqp.Channel {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.ch
}

func (c *Client) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.conn != nil && !c.conn.IsClosed()
}

func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closing {
		return nil
	}
	c.closing = true
	c.cancel()

	var errs []error
	if c.ch != nil {
		errs = append(errs, c.ch.Close())
	}
	if c.conn != nil {
		errs = append(errs, c.conn.Close())
	}
	return errors.Join(errs...)
}
