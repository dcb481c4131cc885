package outbox

import (
	"context"
	"time"

	"github.com/k-code-yt/paystack-payments/internal/domain/outbox"
	"github.com/k-code-yt/paystack-payments/internal/metrics"
	"github.com/sirupsen/logrus"
)

type Producer interface {
	Produce(ctx context.Context, key, value []byte) error
}

type RelayConfig struct {
	PollInterval time.Duration
	BatchSize    int
}

// Relay publishes pending outbox events. Delivery is at-least-once: an event
// is marked produced only after the broker acknowledged it.
type Relay struct {
	cfg      RelayConfig
	store    outbox.Store
	producer Producer
	encoder  Encoder
	logger   logrus.FieldLogger
}

func NewRelay(cfg RelayConfig, store outbox.Store, producer Producer, encoder Encoder, logger logrus.FieldLogger) *Relay {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 5 * time.Second
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	return &Relay{
		cfg:      cfg,
		store:    store,
		producer: producer,
		encoder:  encoder,
		logger:   logger.WithField("component", "outbox-relay"),
	}
}

func (r *Relay) Run(ctx context.Context) {
	ticker := time.NewTicker(r.cfg.PollInterval)
	defer ticker.Stop()

	r.logger.WithFields(logrus.Fields{
		"interval": r.cfg.PollInterval,
		"encoder":  r.encoder.GetType(),
	}).Info("OUTBOX:RELAY_STARTED")

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("OUTBOX:RELAY_STOPPED")
			return
		case <-ticker.C:
			if _, err := r.DispatchOnce(ctx); err != nil && ctx.Err() == nil {
				r.logger.WithError(err).Error("OUTBOX:DISPATCH_FAILED")
			}
		}
	}
}

// DispatchOnce handles a single batch and returns how many events were marked produced.
func (r *Relay) DispatchOnce(ctx context.Context) (int, error) {
	events, err := r.store.Pending(ctx, r.cfg.BatchSize)
	if err != nil {
		return 0, err
	}
	if len(events) == 0 {
		return 0, nil
	}

	produced := make([]string, 0, len(events))
	for _, e := range events {
		log := r.logger.WithFields(logrus.Fields{
			"eventID":   e.EventId,
			"eventType": e.EventType,
			"parentID":  e.ParentId,
		})

		b, err := r.encoder.Encode(e)
		if err != nil {
			metrics.OutboxEvent(string(e.EventType), "encode_error")
			log.WithError(err).Error("OUTBOX:ENCODE_FAILED")
			continue
		}
		if err := r.producer.Produce(ctx, []byte(e.ParentId), b); err != nil {
			metrics.OutboxEvent(string(e.EventType), "produce_error")
			log.WithError(err).Warn("OUTBOX:PRODUCE_FAILED")
			if ctx.Err() != nil {
				break
			}
			continue
		}
		metrics.OutboxEvent(string(e.EventType), "produced")
		produced = append(produced, e.EventId)
	}

	if len(produced) == 0 {
		return 0, nil
	}
	// acknowledged events are recorded even when ctx is already done
	markCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	rows, err := r.store.MarkProduced(markCtx, produced)
	if err != nil {
		return 0, err
	}
	r.logger.WithField("count", rows).Debug("OUTBOX:BATCH_PRODUCED")
	return rows, nil
}
