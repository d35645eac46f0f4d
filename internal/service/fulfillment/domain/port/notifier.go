package port

import (
	"context"

	"github.com/seanhasenstein/macaport-fulfillment/internal/service/fulfillment/domain"
)

// NotificationProducer publishes item status change events for downstream
// consumers (alerting, live dashboard push). Publishing is best effort from
// the coordinator's point of view; a failed publish never fails a mutation
// that the store API already accepted.
type NotificationProducer interface {
	PublishItemStatusChanged(ctx context.Context, event *domain.ItemStatusChanged) error
}
