// Package worker drains the outbox table: pending rows are published
// to the message broker and marked processed, so record changes and
// their notifications never race each other.
package worker

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/opticheck/screening-api/internal/repository"
	"github.com/opticheck/screening-api/pkg/messaging"
	"github.com/opticheck/screening-api/pkg/metrics"
)

const eventsChannel = "events"

type OutboxProcessor struct {
	repo         repository.OutboxRepository
	broker       messaging.Broker
	logger       zerolog.Logger
	metrics      *metrics.Metrics
	batchSize    int
	pollInterval time.Duration
}

type OutboxConfig struct {
	BatchSize    int
	PollInterval time.Duration
}

func NewOutboxProcessor(repo repository.OutboxRepository, broker messaging.Broker, cfg OutboxConfig, m *metrics.Metrics, logger zerolog.Logger) *OutboxProcessor {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 5 * time.Second
	}
	return &OutboxProcessor{
		repo:         repo,
		broker:       broker,
		logger:       logger,
		metrics:      m,
		batchSize:    cfg.BatchSize,
		pollInterval: cfg.PollInterval,
	}
}

// Start polls until the context is cancelled.
func (p *OutboxProcessor) Start(ctx context.Context) {
	ticker := time.NewTicker(p.pollInterval)
	defer ticker.Stop()

	p.logger.Info().Dur("poll_interval", p.pollInterval).Msg("outbox processor started")

	for {
		select {
		case <-ctx.Done():
			p.logger.Info().Msg("outbox processor shutting down")
			return
		case <-ticker.C:
			if err := p.ProcessBatch(ctx); err != nil {
				p.logger.Error().Err(err).Msg("outbox batch failed")
			}
		}
	}
}

// ProcessBatch publishes one batch of pending events. A publish failure
// marks the row failed and moves on; it never blocks the rest of the
// batch.
func (p *OutboxProcessor) ProcessBatch(ctx context.Context) error {
	var timer *prometheus.Timer
	if p.metrics != nil {
		timer = prometheus.NewTimer(p.metrics.OutboxProcessingLatency)
		defer timer.ObserveDuration()
	}

	events, err := p.repo.GetPending(ctx, p.batchSize)
	if err != nil {
		return err
	}

	for _, evt := range events {
		msg := messaging.Message{Type: evt.EventType, Payload: evt.Payload}
		if err := p.broker.Publish(ctx, eventsChannel, msg); err != nil {
			p.logger.Warn().Err(err).
				Str("event_id", evt.ID.String()).
				Str("event_type", evt.EventType).
				Msg("failed to publish outbox event")
			if p.metrics != nil {
				p.metrics.OutboxEventsFailed.Inc()
			}
			if markErr := p.repo.MarkFailed(ctx, evt.ID, err.Error()); markErr != nil {
				p.logger.Error().Err(markErr).Str("event_id", evt.ID.String()).Msg("failed to mark event failed")
			}
			continue
		}

		if err := p.repo.MarkProcessed(ctx, evt.ID); err != nil {
			p.logger.Error().Err(err).Str("event_id", evt.ID.String()).Msg("failed to mark event processed")
			continue
		}
		if p.metrics != nil {
			p.metrics.OutboxEventsProcessed.Inc()
		}
	}

	return nil
}
