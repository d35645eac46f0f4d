package main

import (
	"context"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/seanhasenstein/macaport-fulfillment/internal/pkg/logger"
)

// sessionStore is the slice of session.Manager the hub needs.
type sessionStore interface {
	SetUserGateway(ctx context.Context, userID, nodeID string) error
	ClearUserGateway(ctx context.Context, userID string) error
}

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// Hub tracks the dashboard connections held by this gateway node, keyed by
// user ID. One connection per user; a reconnect replaces the old one.
type Hub struct {
	nodeID   string
	sessions sessionStore

	mu      sync.RWMutex
	clients map[string]*Client
}

func newHub(nodeID string, sessions sessionStore) *Hub {
	return &Hub{
		nodeID:   nodeID,
		sessions: sessions,
		clients:  make(map[string]*Client),
	}
}

func (h *Hub) register(ctx context.Context, client *Client) error {
	h.mu.Lock()
	if old, ok := h.clients[client.userID]; ok {
		close(old.send)
	}
	h.clients[client.userID] = client
	h.mu.Unlock()

	if err := h.sessions.SetUserGateway(ctx, client.userID, h.nodeID); err != nil {
		return err
	}
	logger.Ctx(ctx).Info().Str("user_id", client.userID).Msg("dashboard connected")
	return nil
}

func (h *Hub) unregister(ctx context.Context, client *Client) {
	h.mu.Lock()
	current, ok := h.clients[client.userID]
	if ok && current == client {
		delete(h.clients, client.userID)
		close(client.send)
	}
	h.mu.Unlock()
	if !ok || current != client {
		return
	}

	if err := h.sessions.ClearUserGateway(ctx, client.userID); err != nil {
		logger.Ctx(ctx).Error().Err(err).Str("user_id", client.userID).Msg("session clear failed")
	}
	logger.Ctx(ctx).Info().Str("user_id", client.userID).Msg("dashboard disconnected")
}

// Push delivers a payload to the user's connection if they are on this
// node. Returns false when the user is not connected here; the router's
// session view was stale.
//
// The read lock is held across the send: register and unregister close the
// send channel under the write lock, so releasing before the send would
// race a disconnect and panic on a closed channel. The send is
// non-blocking, so holding the lock cannot stall the write side.
func (h *Hub) Push(userID string, payload []byte) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	client, ok := h.clients[userID]
	if !ok {
		return false
	}
	select {
	case client.send <- payload:
		return true
	default:
		// Slow consumer; drop the alert rather than block the consumer loop.
		return false
	}
}

// Client is one WebSocket connection.
type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	send   chan []byte
	userID string
}

// writePump drains the send channel into the socket and keeps the
// connection alive with pings. One writer per connection.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case payload, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump consumes pongs and detects the peer going away. Dashboards never
// send application messages upstream.
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister(context.Background(), c)
		c.conn.Close()
	}()
	c.conn.SetReadLimit(512)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}
