package main

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memorySessions struct {
	mu    sync.Mutex
	nodes map[string]string
}

func newMemorySessions() *memorySessions {
	return &memorySessions{nodes: make(map[string]string)}
}

func (s *memorySessions) SetUserGateway(_ context.Context, userID, nodeID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nodes[userID] = nodeID
	return nil
}

func (s *memorySessions) ClearUserGateway(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.nodes, userID)
	return nil
}

func TestHubPushToConnectedUser(t *testing.T) {
	hub := newHub("node-1", newMemorySessions())
	client := &Client{hub: hub, send: make(chan []byte, 1), userID: "u1"}
	require.NoError(t, hub.register(context.Background(), client))

	assert.True(t, hub.Push("u1", []byte("hello")))
	assert.Equal(t, []byte("hello"), <-client.send)
}

func TestHubPushUnknownUser(t *testing.T) {
	hub := newHub("node-1", newMemorySessions())
	assert.False(t, hub.Push("u1", []byte("hello")))
}

func TestHubPushSlowConsumerDrops(t *testing.T) {
	hub := newHub("node-1", newMemorySessions())
	client := &Client{hub: hub, send: make(chan []byte, 1), userID: "u1"}
	require.NoError(t, hub.register(context.Background(), client))

	assert.True(t, hub.Push("u1", []byte("one")))
	// Buffer full and nobody draining: dropped, not blocked.
	assert.False(t, hub.Push("u1", []byte("two")))
}

func TestHubReconnectReplacesConnection(t *testing.T) {
	hub := newHub("node-1", newMemorySessions())
	first := &Client{hub: hub, send: make(chan []byte, 1), userID: "u1"}
	require.NoError(t, hub.register(context.Background(), first))
	second := &Client{hub: hub, send: make(chan []byte, 1), userID: "u1"}
	require.NoError(t, hub.register(context.Background(), second))

	// The stale connection's channel is closed so its writePump exits.
	_, open := <-first.send
	assert.False(t, open)

	require.True(t, hub.Push("u1", []byte("hello")))
	assert.Equal(t, []byte("hello"), <-second.send)

	// Unregistering the stale client must not tear down the live one.
	hub.unregister(context.Background(), first)
	assert.True(t, hub.Push("u1", []byte("again")))
}

// A notification can arrive for a user at the exact moment their socket
// closes or reconnects; the send must never hit a closed channel.
func TestHubPushDuringConnectionChurn(t *testing.T) {
	hub := newHub("node-1", newMemorySessions())
	ctx := context.Background()

	done := make(chan struct{})
	var pushers sync.WaitGroup
	for i := 0; i < 8; i++ {
		pushers.Add(1)
		go func() {
			defer pushers.Done()
			for {
				select {
				case <-done:
					return
				default:
					hub.Push("u1", []byte("ping"))
				}
			}
		}()
	}

	for i := 0; i < 5000; i++ {
		client := &Client{hub: hub, send: make(chan []byte, 1), userID: "u1"}
		require.NoError(t, hub.register(ctx, client))
		hub.unregister(ctx, client)
	}

	close(done)
	pushers.Wait()
	assert.False(t, hub.Push("u1", []byte("ping")))
}
