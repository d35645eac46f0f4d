package infrastructure

import (
	"context"
	"encoding/json"

	"github.com/pkg/errors"
	"github.com/segmentio/kafka-go"

	alertdomain "github.com/seanhasenstein/macaport-fulfillment/internal/service/alert/domain"
)

// GatewayTopicPrefix names the per-node topics each push gateway consumes.
const GatewayTopicPrefix = "push-gateway."

// KafkaRouter implements application.Router by writing the notification to
// the target gateway node's private topic. The writer is created without a
// fixed topic; each message carries its own.
type KafkaRouter struct {
	writer *kafka.Writer
}

func NewKafkaRouter(brokers []string) *KafkaRouter {
	return &KafkaRouter{writer: &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
	}}
}

func (r *KafkaRouter) Route(ctx context.Context, gatewayNode string, notification *alertdomain.Notification) error {
	payload, err := json.Marshal(notification)
	if err != nil {
		return errors.Wrap(err, "marshal notification")
	}
	msg := kafka.Message{
		Topic: GatewayTopicPrefix + gatewayNode,
		Key:   []byte(notification.UserID),
		Value: payload,
	}
	return errors.Wrap(r.writer.WriteMessages(ctx, msg), "route notification")
}

// Close flushes and closes the underlying writer.
func (r *KafkaRouter) Close() error { return r.writer.Close() }
