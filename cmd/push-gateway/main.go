package main

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/seanhasenstein/macaport-fulfillment/internal/pkg/bootstrap"
	"github.com/seanhasenstein/macaport-fulfillment/internal/pkg/logger"
	"github.com/seanhasenstein/macaport-fulfillment/internal/pkg/mq"
	"github.com/seanhasenstein/macaport-fulfillment/internal/pkg/session"
	alertinfra "github.com/seanhasenstein/macaport-fulfillment/internal/service/alert/infrastructure"
)

const serviceName = "push-gateway"

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The dashboard is served from its own origin; the userId session
	// handshake is the access control, not the Origin header.
	CheckOrigin: func(r *http.Request) bool { return true },
}

func serveWs(hub *Hub, w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		http.Error(w, "userId is required", http.StatusBadRequest)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Ctx(r.Context()).Error().Err(err).Msg("websocket upgrade failed")
		return
	}

	client := &Client{hub: hub, conn: conn, send: make(chan []byte, 256), userID: userID}
	if err := hub.register(r.Context(), client); err != nil {
		logger.Ctx(r.Context()).Error().Err(err).Str("user_id", userID).Msg("session registration failed")
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}

// consumeNodeTopic reads the notifications the message router addressed to
// this node and pushes them to the owning connection.
func consumeNodeTopic(ctx context.Context, wg *sync.WaitGroup, hub *Hub, brokers []string, nodeID string) {
	reader := mq.NewKafkaReader(brokers, alertinfra.GatewayTopicPrefix+nodeID, nodeID)
	wg.Add(1)
	go func() {
		defer wg.Done()
		defer reader.Close()
		logger.Ctx(ctx).Info().Str("node_id", nodeID).Msg("node topic consumer started")
		for {
			msg, err := reader.FetchMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				logger.Ctx(ctx).Error().Err(err).Msg("fetch message failed, retrying")
				time.Sleep(time.Second)
				continue
			}

			var target struct {
				UserID string `json:"userId"`
			}
			if err := json.Unmarshal(msg.Value, &target); err != nil || target.UserID == "" {
				logger.Ctx(ctx).Error().Err(err).Msg("malformed routed notification skipped")
			} else if !hub.Push(target.UserID, msg.Value) {
				logger.Ctx(ctx).Warn().Str("user_id", target.UserID).Msg("routed notification for absent user dropped")
			}

			if err := reader.CommitMessages(ctx, msg); err != nil && ctx.Err() == nil {
				logger.Ctx(ctx).Error().Err(err).Msg("commit failed")
			}
		}
	}()
}

func main() {
	bootstrap.Init()
	cfg := bootstrap.GetCurrentConfig()

	nodeID := "push-gateway-" + uuid.New().String()[:8]
	sessions := session.NewManager(cfg.Infra.RedisAddrs)
	hub := newHub(nodeID, sessions)

	consumeCtx, cancelConsume := context.WithCancel(context.Background())
	var consumerWG sync.WaitGroup
	consumeNodeTopic(consumeCtx, &consumerWG, hub, strings.Split(cfg.Infra.KafkaBrokers, ","), nodeID)

	bootstrap.StartService(bootstrap.AppInfo{
		ServiceName: serviceName,
		Port:        8093,
		RegisterHandlers: func(appCtx bootstrap.AppCtx) {
			appCtx.Mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			})
			appCtx.Mux.Handle("/metrics", promhttp.Handler())
			appCtx.Mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
				serveWs(hub, w, r)
			})
		},
		OnShutdown: func(ctx context.Context) {
			cancelConsume()
			consumerWG.Wait()
		},
	})
}
