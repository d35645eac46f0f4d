package infrastructure

import (
	"context"

	"github.com/seanhasenstein/macaport-fulfillment/internal/pkg/logger"
	"github.com/seanhasenstein/macaport-fulfillment/internal/zookeeper"
)

// ZookeeperOrderLocker implements port.OrderLocker with a ZooKeeper
// distributed lock per order id, so status mutations stay serialized even
// when several coordinator instances run behind a load balancer.
type ZookeeperOrderLocker struct {
	conn *zookeeper.Conn
}

func NewZookeeperOrderLocker(conn *zookeeper.Conn) *ZookeeperOrderLocker {
	return &ZookeeperOrderLocker{conn: conn}
}

func (l *ZookeeperOrderLocker) Lock(ctx context.Context, orderID string) (func(), error) {
	lock, err := zookeeper.NewDistributedLock(l.conn, orderID)
	if err != nil {
		return nil, err
	}
	if err := lock.Lock(ctx); err != nil {
		return nil, err
	}
	return func() {
		if err := lock.Unlock(); err != nil {
			logger.Ctx(ctx).Error().Err(err).Str("order_id", orderID).Msg("failed to release order lock")
		}
	}, nil
}
