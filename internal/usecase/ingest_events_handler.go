package usecase

import (
	"context"
	"encoding/json"
	"time"

	domrepo "EconPulse/internal/domain/repository"
	pkgkafka "EconPulse/pkg/kafka"
	applogger "EconPulse/pkg/logger"
)

// IngestEventsHandler consumes ingest-completed events and triggers an
// analysis run for each one.
type IngestEventsHandler struct {
	topic   string
	runner  *AnalysisRunner
	metrics domrepo.Metrics
	l       *applogger.Logger
}

func NewIngestEventsHandler(topic string, runner *AnalysisRunner, metrics domrepo.Metrics) *IngestEventsHandler {
	return &IngestEventsHandler{topic: topic, runner: runner, metrics: metrics}
}

// SetLogger injects a structured logger.
func (h *IngestEventsHandler) SetLogger(l *applogger.Logger) { h.l = l }

func (h *IngestEventsHandler) Topic() string { return h.topic }

// incoming message schema: {datasets, rows, completed_at}
func (h *IngestEventsHandler) Handle(ctx context.Context, b []byte) error {
	var m struct {
		Datasets    []string  `json:"datasets"`
		Rows        int       `json:"rows"`
		CompletedAt time.Time `json:"completed_at"`
	}
	if err := json.Unmarshal(b, &m); err != nil {
		h.metrics.RecordError("consumer_unmarshal")
		return err
	}
	if !m.CompletedAt.IsZero() {
		h.metrics.RecordLatency("ingest_to_analysis_seconds", time.Since(m.CompletedAt).Seconds())
	}

	if h.l != nil {
		h.l.Info("ingest completion received, starting analysis",
			applogger.Int("datasets", len(m.Datasets)),
			applogger.Int("rows", m.Rows),
		)
	}

	if _, err := h.runner.Run(ctx); err != nil {
		h.metrics.RecordError("consumer_analysis")
		return err
	}
	return nil
}

var _ pkgkafka.MessageHandler = (*IngestEventsHandler)(nil)
