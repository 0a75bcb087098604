package mq

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// Subjects for trip lifecycle events.
const (
	TripSaved   = "trip.saved"
	TripDeleted = "trip.deleted"
)

// TripEvent is the payload published when a user's trip list changes.
type TripEvent struct {
	UserID     string    `json:"userId"`
	TripID     string    `json:"tripId"`
	Name       string    `json:"name,omitempty"`
	OccurredAt time.Time `json:"occurredAt"`
}

type Publisher interface {
	Publish(ctx context.Context, subject string, payload []byte) error
	Close() error
}

// RedisPublisher publishes on Redis pub/sub channels named after the subject.
type RedisPublisher struct {
	client *redis.Client
}

func NewRedisPublisher(client *redis.Client) *RedisPublisher {
	return &RedisPublisher{client: client}
}

func (p *RedisPublisher) Publish(ctx context.Context, subject string, payload []byte) error {
	return p.client.Publish(ctx, subject, payload).Err()
}

// Close leaves the shared client to its owner.
func (p *RedisPublisher) Close() error { return nil }

type NatsPublisher struct {
	conn *nats.Conn
}

// ConnectNats retries a few times while the broker comes up.
func ConnectNats(url string, attempts int) (*NatsPublisher, error) {
	var (
		conn *nats.Conn
		err  error
	)
	for i := 0; i < attempts; i++ {
		conn, err = nats.Connect(url, nats.Name("roadtrip-api"))
		if err == nil {
			return &NatsPublisher{conn: conn}, nil
		}
		logrus.WithError(err).Warn("waiting for NATS to be ready")
		time.Sleep(2 * time.Second)
	}
	return nil, fmt.Errorf("connect to nats at %s: %w", url, err)
}

func (p *NatsPublisher) Publish(_ context.Context, subject string, payload []byte) error {
	return p.conn.Publish(subject, payload)
}

func (p *NatsPublisher) Close() error {
	if err := p.conn.Drain(); err != nil {
		p.conn.Close()
		return err
	}
	return nil
}

// Noop drops every event.
type Noop struct{}

func (Noop) Publish(context.Context, string, []byte) error { return nil }
func (Noop) Close() error                                  { return nil }

// Emit publishes an event and logs, rather than returns, any failure.
func Emit(ctx context.Context, pub Publisher, subject string, event any) {
	if pub == nil {
		return
	}
	data, err := json.Marshal(event)
	if err != nil {
		logrus.WithError(err).WithField("subject", subject).Error("failed to marshal event")
		return
	}
	if err := pub.Publish(ctx, subject, data); err != nil {
		logrus.WithError(err).WithField("subject", subject).Warn("failed to publish event")
		return
	}
	logrus.WithField("subject", subject).Debug("event published")
}
