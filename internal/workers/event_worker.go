package workers

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"trending/internal/aggregator"
	"trending/internal/rabbitmq"
	"trending/models"
	"trending/pkg/logger"
)

// Applier is the aggregation entry point the worker feeds.
type Applier interface {
	Apply(ctx context.Context, evt *models.RawEvent) (aggregator.Result, error)
}

// EventWorker consumes the interaction event queue and hands validated
// events to the aggregator. Malformed payloads are logged and acked:
// redelivering the same broken payload can never succeed.
type EventWorker struct {
	consumer  *rabbitmq.Consumer
	applier   Applier
	queueName string
	log       zerolog.Logger
}

func NewEventWorker(consumer *rabbitmq.Consumer, applier Applier, queueName string) *EventWorker {
	return &EventWorker{
		consumer:  consumer,
		applier:   applier,
		queueName: queueName,
		log:       logger.With("event_worker"),
	}
}

func (w *EventWorker) Start(ctx context.Context) error {
	w.log.Info().Str("queue", w.queueName).Msg("starting event worker")
	return w.consumer.ConsumeQueue(ctx, w.queueName, w.handleMessage)
}

func (w *EventWorker) handleMessage(ctx context.Context, body []byte) error {
	var evt models.RawEvent
	if err := rabbitmq.ParseJSON(body, &evt); err != nil {
		w.log.Warn().Err(err).Msg("undecodable event payload, dropping")
		return nil
	}

	// Producers that omit event_id still get stable dedup: a v5 UUID of the
	// payload makes byte-identical redeliveries collapse to one id.
	if evt.EventID == uuid.Nil {
		evt.EventID = uuid.NewSHA1(uuid.NameSpaceOID, body)
	}

	if err := evt.Validate(); err != nil {
		w.log.Warn().Err(err).
			Str("event_id", evt.EventID.String()).
			Str("event_type", string(evt.EventType)).
			Msg("invalid event, dropping")
		return nil
	}

	msgCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	result, err := w.applier.Apply(msgCtx, &evt)
	if err != nil {
		// Transient store failure: requeue, the fence makes the retry safe.
		return err
	}

	w.log.Debug().
		Str("event_id", evt.EventID.String()).
		Str("event_type", string(evt.EventType)).
		Str("target_type", string(evt.TargetType)).
		Int("result", int(result)).
		Msg("event processed")
	return nil
}
