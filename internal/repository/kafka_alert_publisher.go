package repository

import (
	"context"

	"Watchtower/internal/domain/models"
	pkgkafka "Watchtower/pkg/kafka"
)

// KafkaAlertPublisher pushes newly admitted alerts to the notification
// topic for downstream collaborators.
type KafkaAlertPublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

// NewKafkaAlertPublisher creates a Kafka-backed alert publisher.
func NewKafkaAlertPublisher(producer *pkgkafka.Producer, topic string) *KafkaAlertPublisher {
	return &KafkaAlertPublisher{producer: producer, topic: topic}
}

func (p *KafkaAlertPublisher) PublishAlert(ctx context.Context, alert models.Alert) error {
	// Key by fingerprint so redeliveries of the same finding land on the
	// same partition.
	return p.producer.Publish(ctx, p.topic, []byte(alert.Fingerprint), alert)
}
