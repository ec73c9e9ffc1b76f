// Package events publishes user lifecycle events to Kafka.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/segmentio/kafka-go"
)

const (
	TypeUserRegistered = "user.registered"
	TypeUserLoggedIn   = "user.logged_in"
	TypeUserLoggedOut  = "user.logged_out"
)

type Event struct {
	Type       string    `json:"type"`
	UserID     uint      `json:"userId"`
	Role       string    `json:"role,omitempty"`
	OccurredAt time.Time `json:"occurredAt"`
}

type Publisher interface {
	Publish(ctx context.Context, ev Event) error
	Close() error
}

// Noop is used when no brokers are configured.
type Noop struct{}

func (Noop) Publish(context.Context, Event) error { return nil }
func (Noop) Close() error                          { return nil }

type KafkaPublisher struct {
	writer *kafka.Writer
}

func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Topic:                  topic,
			Balancer:               &kafka.Hash{},
			RequiredAcks:           kafka.RequireOne,
			BatchTimeout:           10 * time.Millisecond,
			WriteTimeout:           5 * time.Second,
			AllowAutoTopicCreation: true,
		},
	}
}

// New returns a Kafka publisher, or Noop when brokers is empty.
func New(brokers []string, topic string) Publisher {
	if len(brokers) == 0 {
		return Noop{}
	}
	return NewKafkaPublisher(brokers, topic)
}

func (p *KafkaPublisher) Publish(ctx context.Context, ev Event) error {
	msg, err := message(ev)
	if err != nil {
		return err
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("kafka: write %s: %w", ev.Type, err)
	}
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// message keys by user id so one user's events stay ordered on a partition.
func message(ev Event) (kafka.Message, error) {
	if ev.OccurredAt.IsZero() {
		ev.OccurredAt = time.Now().UTC()
	}
	data, err := json.Marshal(ev)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("kafka: json.Marshal failed: %w", err)
	}
	return kafka.Message{
		Key:   []byte(strconv.FormatUint(uint64(ev.UserID), 10)),
		Value: data,
		Time:  ev.OccurredAt,
		Headers: []kafka.Header{
			{Key: "event-type", Value: []byte(ev.Type)},
		},
	}, nil
}
