package session

import (
	"context"
	"fmt"
	"time"

	"github.com/seanhasenstein/macaport-fulfillment/internal/pkg/redis"
)

const (
	keyPrefix  = "dashboard:session:"
	sessionTTL = 24 * time.Hour
)

// Manager maps a dashboard user to the push gateway node currently holding
// their WebSocket, backed by Redis so any router node can look it up.
type Manager struct {
	client *redis.Client
}

// NewManager connects to Redis at addr and panics on failure; session
// routing cannot run degraded.
func NewManager(addr string) *Manager {
	client, err := redis.NewClient(addr)
	if err != nil {
		panic(fmt.Sprintf("session manager: %v", err))
	}
	return &Manager{client: client}
}

// SetUserGateway records which gateway node holds the user's connection.
func (m *Manager) SetUserGateway(ctx context.Context, userID, nodeID string) error {
	return m.client.Set(ctx, keyPrefix+userID, nodeID, sessionTTL)
}

// GetUserGateway returns the node holding the user's connection, or "" when
// the user is offline.
func (m *Manager) GetUserGateway(ctx context.Context, userID string) (string, error) {
	return m.client.Get(ctx, keyPrefix+userID)
}

// ClearUserGateway drops the session mapping when a connection closes.
func (m *Manager) ClearUserGateway(ctx context.Context, userID string) error {
	return m.client.Del(ctx, keyPrefix+userID)
}
