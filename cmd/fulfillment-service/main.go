package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"

	"github.com/seanhasenstein/macaport-fulfillment/internal/pkg/bootstrap"
	"github.com/seanhasenstein/macaport-fulfillment/internal/pkg/httpclient"
	"github.com/seanhasenstein/macaport-fulfillment/internal/pkg/logger"
	"github.com/seanhasenstein/macaport-fulfillment/internal/pkg/mq"
	"github.com/seanhasenstein/macaport-fulfillment/internal/pkg/redis"
	"github.com/seanhasenstein/macaport-fulfillment/internal/service/fulfillment/application"
	"github.com/seanhasenstein/macaport-fulfillment/internal/service/fulfillment/domain/port"
	"github.com/seanhasenstein/macaport-fulfillment/internal/service/fulfillment/infrastructure"
	"github.com/seanhasenstein/macaport-fulfillment/internal/service/fulfillment/interfaces"
	"github.com/seanhasenstein/macaport-fulfillment/internal/zookeeper"
)

const (
	serviceName       = "fulfillment-service"
	statusEventsTopic = "order-item-status-events"
)

// main is the composition root: build and wire every dependency, then hand
// off to the shared service lifecycle.
func main() {
	bootstrap.Init()
	cfg := bootstrap.GetCurrentConfig()
	tracer := otel.Tracer(serviceName)

	redisClient, err := redis.NewClient(cfg.Infra.RedisAddrs)
	if err != nil {
		logger.Ctx(nil).Fatal().Err(err).Msg("failed to connect to redis")
	}
	cache := infrastructure.NewRedisStoreCache(redisClient, time.Duration(cfg.App.StoreCacheTTLSeconds)*time.Second)

	eventWriter := mq.NewKafkaWriter(strings.Split(cfg.Infra.KafkaBrokers, ","), statusEventsTopic)
	notifier := infrastructure.NewNotificationKafkaAdapter(eventWriter)

	// A single instance serializes per-order mutations in process; point
	// ZOOKEEPER_ADDRS at an ensemble when running more than one.
	var locker port.OrderLocker = infrastructure.NewLocalOrderLocker()
	if cfg.Infra.ZookeeperAddrs != "" {
		zkConn, err := zookeeper.Connect(cfg.Infra.ZookeeperAddrs, 10*time.Second)
		if err != nil {
			logger.Ctx(nil).Fatal().Err(err).Msg("failed to connect to zookeeper")
		}
		locker = infrastructure.NewZookeeperOrderLocker(zkConn)
	}

	bootstrap.StartService(bootstrap.AppInfo{
		ServiceName: serviceName,
		Port:        8090,
		RegisterHandlers: func(appCtx bootstrap.AppCtx) {
			// With Nacos enabled the store API address comes from the
			// registry; the configured URL is the fallback.
			storeAPIURL := cfg.Infra.StoreAPIURL
			if appCtx.Nacos != nil {
				ip, apiPort, err := appCtx.Nacos.DiscoverServiceInstance("store-api")
				if err != nil {
					logger.Ctx(nil).Warn().Err(err).Str("fallback", storeAPIURL).Msg("store-api discovery failed")
				} else {
					storeAPIURL = fmt.Sprintf("http://%s:%d", ip, apiPort)
				}
			}
			storeAPI := infrastructure.NewStoreAPIHTTPAdapter(httpclient.NewClient(tracer), storeAPIURL)
			service := application.NewService(cache, storeAPI, notifier, locker, tracer)
			interfaces.NewFulfillmentHandler(service).RegisterRoutes(appCtx.Mux)
		},
		OnShutdown: func(ctx context.Context) {
			if err := eventWriter.Close(); err != nil {
				logger.Ctx(ctx).Error().Err(err).Msg("kafka writer close failed")
			}
			if err := redisClient.Close(); err != nil {
				logger.Ctx(ctx).Error().Err(err).Msg("redis close failed")
			}
		},
	})
}
