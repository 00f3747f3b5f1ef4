package worker

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog"

	"github.com/mkovtun/study-tracker/internal/models"
	"github.com/mkovtun/study-tracker/internal/worker/queue"
)

// StreamWorker consumes task events from RabbitMQ and feeds them into the
// hub backing the live task streams.
type StreamWorker struct {
	consumer queue.RabbitMQConsumer
	hub      *Hub
	logger   zerolog.Logger
}

func NewStreamWorker(consumer queue.RabbitMQConsumer, hub *Hub, logger zerolog.Logger) *StreamWorker {
	return &StreamWorker{
		consumer: consumer,
		hub:      hub,
		logger:   logger,
	}
}

func (w *StreamWorker) Run(ctx context.Context) error {
	messages, err := w.consumer.Consume(ctx)
	if err != nil {
		return err
	}

	w.logger.Info().Msg("Stream worker started")

	for msg := range messages {
		var event models.TaskEvent
		if err := json.Unmarshal(msg.Body, &event); err != nil {
			w.logger.Error().Err(err).Msg("Failed to decode task event, dropping")
			msg.Nack(false, false)
			continue
		}

		w.hub.Broadcast(&event)

		if err := msg.Ack(false); err != nil {
			w.logger.Error().Err(err).Str("task_id", event.TaskID).Msg("Failed to ack task event")
		}
	}

	w.logger.Info().Msg("Stream worker stopped")
	return nil
}
