package main

import (
	"context"
	"net/http"
	"strings"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/seanhasenstein/macaport-fulfillment/internal/pkg/bootstrap"
	"github.com/seanhasenstein/macaport-fulfillment/internal/pkg/logger"
	"github.com/seanhasenstein/macaport-fulfillment/internal/pkg/mq"
	"github.com/seanhasenstein/macaport-fulfillment/internal/pkg/session"
	"github.com/seanhasenstein/macaport-fulfillment/internal/service/alert/application"
	"github.com/seanhasenstein/macaport-fulfillment/internal/service/alert/infrastructure"
	"github.com/seanhasenstein/macaport-fulfillment/internal/service/alert/infrastructure/rule"
)

const (
	serviceName       = "notification-service"
	statusEventsTopic = "order-item-status-events"
	consumerGroup     = "notification-service"
)

func main() {
	bootstrap.Init()
	cfg := bootstrap.GetCurrentConfig()
	brokers := strings.Split(cfg.Infra.KafkaBrokers, ",")

	engine, err := rule.NewCELRuleEngine()
	if err != nil {
		logger.Ctx(nil).Fatal().Err(err).Msg("failed to build rule engine")
	}
	if len(cfg.App.AlertRules) == 0 {
		logger.Ctx(nil).Warn().Msg("no alert rules configured, every event will be dropped")
	}

	sessions := session.NewManager(cfg.Infra.RedisAddrs)
	router := infrastructure.NewKafkaRouter(brokers)
	service := application.NewService(cfg.App.AlertRules, engine, sessions, router)

	reader := mq.NewKafkaReader(brokers, statusEventsTopic, consumerGroup)
	consumer := infrastructure.NewStatusEventConsumer(reader, service)

	consumeCtx, cancelConsume := context.WithCancel(context.Background())
	consumer.Start(consumeCtx)

	bootstrap.StartService(bootstrap.AppInfo{
		ServiceName: serviceName,
		Port:        8092,
		RegisterHandlers: func(appCtx bootstrap.AppCtx) {
			// The consumer does the work; HTTP only serves health and metrics.
			appCtx.Mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			})
			appCtx.Mux.Handle("/metrics", promhttp.Handler())
		},
		OnShutdown: func(ctx context.Context) {
			cancelConsume()
			consumer.Stop()
			if err := router.Close(); err != nil {
				logger.Ctx(ctx).Error().Err(err).Msg("router close failed")
			}
		},
	})
}
