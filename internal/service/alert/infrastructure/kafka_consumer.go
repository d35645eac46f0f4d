package infrastructure

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"

	"github.com/seanhasenstein/macaport-fulfillment/internal/pkg/logger"
	"github.com/seanhasenstein/macaport-fulfillment/internal/pkg/mq"
	"github.com/seanhasenstein/macaport-fulfillment/internal/service/alert/application"
	"github.com/seanhasenstein/macaport-fulfillment/internal/service/fulfillment/domain"
)

// StatusEventConsumer is a driving adapter: it reads ItemStatusChanged
// events from Kafka and feeds the alert application service.
type StatusEventConsumer struct {
	reader  *kafka.Reader
	service *application.Service
	wg      sync.WaitGroup
}

func NewStatusEventConsumer(reader *kafka.Reader, service *application.Service) *StatusEventConsumer {
	return &StatusEventConsumer{reader: reader, service: service}
}

// Start consumes until ctx is canceled. Offsets are committed after the
// handler returns, so a crash replays the last event; alert evaluation is
// idempotent enough for at-least-once.
func (c *StatusEventConsumer) Start(ctx context.Context) {
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		logger.Ctx(ctx).Info().Str("topic", c.reader.Config().Topic).Msg("status event consumer started")
		for {
			msg, err := c.reader.FetchMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				logger.Ctx(ctx).Error().Err(err).Msg("fetch message failed, retrying")
				time.Sleep(time.Second)
				continue
			}

			c.process(ctx, msg)

			if err := c.reader.CommitMessages(ctx, msg); err != nil && ctx.Err() == nil {
				logger.Ctx(ctx).Error().Err(err).Msg("commit failed")
			}
		}
	}()
}

// Stop closes the reader and waits for the consume loop to drain.
func (c *StatusEventConsumer) Stop() {
	_ = c.reader.Close()
	c.wg.Wait()
}

func (c *StatusEventConsumer) process(parentCtx context.Context, msg kafka.Message) {
	var event domain.ItemStatusChanged
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		logger.Ctx(parentCtx).Error().Err(err).Msg("malformed status event skipped")
		return
	}

	carrier := mq.KafkaHeaderCarrier(msg.Headers)
	ctx := otel.GetTextMapPropagator().Extract(parentCtx, &carrier)

	if err := c.service.HandleItemStatusChanged(ctx, &event); err != nil {
		logger.Ctx(ctx).Error().Err(err).
			Str("order_id", event.OrderID).
			Msg("failed to handle status event")
	}
}
