package infrastructure

import (
	"context"
	"encoding/json"

	"github.com/pkg/errors"
	"github.com/segmentio/kafka-go"

	"github.com/seanhasenstein/macaport-fulfillment/internal/pkg/mq"
	"github.com/seanhasenstein/macaport-fulfillment/internal/service/fulfillment/domain"
)

// NotificationKafkaAdapter implements port.NotificationProducer by writing
// ItemStatusChanged events to the status events topic. Messages are keyed by
// order id so all events of one order land on the same partition, in order.
type NotificationKafkaAdapter struct {
	writer *kafka.Writer
}

func NewNotificationKafkaAdapter(writer *kafka.Writer) *NotificationKafkaAdapter {
	return &NotificationKafkaAdapter{writer: writer}
}

func (a *NotificationKafkaAdapter) PublishItemStatusChanged(ctx context.Context, event *domain.ItemStatusChanged) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return errors.Wrap(err, "marshal item status event")
	}
	return errors.Wrap(mq.ProduceMessage(ctx, a.writer, []byte(event.OrderID), payload), "produce item status event")
}
