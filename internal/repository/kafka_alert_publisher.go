package repository

import (
	"context"
	"fmt"
	"time"

	"EconPulse/internal/domain/models"
	domrepo "EconPulse/internal/domain/repository"
	pkgkafka "EconPulse/pkg/kafka"
	applogger "EconPulse/pkg/logger"
)

// Topic layout for downstream consumers.
const (
	TopicQualityAlerts   = "econpulse.quality.alerts"
	TopicAnomalyAlerts   = "econpulse.anomaly.alerts"
	TopicIngestCompleted = "econpulse.ingest.completed"
)

// IngestCompletedEvent announces that a raw extraction round has been
// persisted and the fact table refreshed.
type IngestCompletedEvent struct {
	Datasets    []string  `json:"datasets"`
	Rows        int       `json:"rows"`
	CompletedAt time.Time `json:"completed_at"`
}

// KafkaAlertPublisher fans analyzer alerts out over Kafka. Messages are keyed
// by country code so a partition sees a country's alerts in order.
type KafkaAlertPublisher struct {
	producer *pkgkafka.Producer
	l        *applogger.Logger
}

func NewKafkaAlertPublisher(producer *pkgkafka.Producer) *KafkaAlertPublisher {
	return &KafkaAlertPublisher{producer: producer}
}

// SetLogger injects a structured logger.
func (p *KafkaAlertPublisher) SetLogger(l *applogger.Logger) { p.l = l }

func (p *KafkaAlertPublisher) PublishQualityAlerts(ctx context.Context, alerts []models.QualityAlert) error {
	if len(alerts) == 0 {
		return nil
	}
	msgs := make([]pkgkafka.Message, 0, len(alerts))
	for _, a := range alerts {
		msgs = append(msgs, pkgkafka.Message{Key: []byte(a.CountryCode), Value: a})
	}
	if err := p.producer.PublishBatch(ctx, TopicQualityAlerts, msgs); err != nil {
		return fmt.Errorf("publish quality alerts: %w", err)
	}
	if p.l != nil {
		p.l.Info("quality alerts published", applogger.Int("count", len(alerts)))
	}
	return nil
}

func (p *KafkaAlertPublisher) PublishAnomalyAlerts(ctx context.Context, alerts []models.AnomalyAlert) error {
	if len(alerts) == 0 {
		return nil
	}
	msgs := make([]pkgkafka.Message, 0, len(alerts))
	for _, a := range alerts {
		msgs = append(msgs, pkgkafka.Message{Key: []byte(a.CountryCode), Value: a})
	}
	if err := p.producer.PublishBatch(ctx, TopicAnomalyAlerts, msgs); err != nil {
		return fmt.Errorf("publish anomaly alerts: %w", err)
	}
	if p.l != nil {
		p.l.Info("anomaly alerts published", applogger.Int("count", len(alerts)))
	}
	return nil
}

func (p *KafkaAlertPublisher) PublishIngestCompleted(ctx context.Context, datasets []string, rows int) error {
	evt := IngestCompletedEvent{Datasets: datasets, Rows: rows, CompletedAt: time.Now().UTC()}
	if err := p.producer.Publish(ctx, TopicIngestCompleted, nil, evt); err != nil {
		return fmt.Errorf("publish ingest completed: %w", err)
	}
	return nil
}

// PublishMessage satisfies logger.Publisher so aggregated error logs can ride
// the same producer.
func (p *KafkaAlertPublisher) PublishMessage(ctx context.Context, topic string, payload interface{}) error {
	return p.producer.Publish(ctx, topic, nil, payload)
}

func (p *KafkaAlertPublisher) Close() error {
	return p.producer.Close()
}

var _ domrepo.AlertPublisher = (*KafkaAlertPublisher)(nil)
