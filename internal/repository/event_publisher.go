package repository

import (
	"context"

	"FinAdvisor/internal/domain/models"
	domrepo "FinAdvisor/internal/domain/repository"
)

type messagePublisher interface {
	Publish(ctx context.Context, topic string, key []byte, value interface{}) error
	Close() error
}

// KafkaEventPublisher writes query events keyed by user id.
type KafkaEventPublisher struct {
	producer messagePublisher
	topic    string
}

var _ domrepo.EventPublisher = (*KafkaEventPublisher)(nil)

// NewKafkaEventPublisher accepts a *kafka.Producer.
func NewKafkaEventPublisher(producer messagePublisher, topic string) *KafkaEventPublisher {
	return &KafkaEventPublisher{producer: producer, topic: topic}
}

func (p *KafkaEventPublisher) PublishQueryEvent(ctx context.Context, ev models.QueryEvent) error {
	return p.producer.Publish(ctx, p.topic, []byte(ev.UserID), ev)
}

func (p *KafkaEventPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}

// NopEventPublisher drops events when no bus is configured.
type NopEventPublisher struct{}

func (NopEventPublisher) PublishQueryEvent(context.Context, models.QueryEvent) error { return nil }

func (NopEventPublisher) Close() error { return nil }
