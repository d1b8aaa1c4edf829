package broker

import "time"

type Config struct {
	URL               string
	Exchange          string
	Queue             string
	ConsumerTag       string
	RetryCount        int
	RetryDelay        time.Duration
	MaxRedeliveries   int
	RedeliveryBackoff time.Duration
}

func NewConfig(url, exchange, queue string) Config {
	return Config{
		URL:               url,
		Exchange:          exchange,
		Queue:             queue,
		ConsumerTag:       "reservation-notifier",
		RetryCount:        5,
		RetryDelay:        3 * time.Second,
		MaxRedeliveries:   3,
		RedeliveryBackoff: 2 * time.Second,
	}
}

// RoutingKey is the topic key an event type is published under.
func RoutingKey(eventType string) string { return eventType }
