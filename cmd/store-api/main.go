package main

import (
	"context"

	"go.opentelemetry.io/otel"

	"github.com/seanhasenstein/macaport-fulfillment/internal/pkg/bootstrap"
	"github.com/seanhasenstein/macaport-fulfillment/internal/pkg/logger"
	"github.com/seanhasenstein/macaport-fulfillment/internal/service/store/application"
	"github.com/seanhasenstein/macaport-fulfillment/internal/service/store/infrastructure"
	"github.com/seanhasenstein/macaport-fulfillment/internal/service/store/interfaces"
)

const serviceName = "store-api"

func main() {
	bootstrap.Init()
	cfg := bootstrap.GetCurrentConfig()
	tracer := otel.Tracer(serviceName)

	db, err := infrastructure.OpenDB(cfg.Infra.MySQL)
	if err != nil {
		logger.Ctx(nil).Fatal().Err(err).Msg("failed to open store database")
	}

	stores := infrastructure.NewGormStoreRepository(db)
	inventory := infrastructure.NewGormInventoryRepository(db)
	service := application.NewService(stores, inventory, tracer)
	handler := interfaces.NewStoreHandler(service)

	bootstrap.StartService(bootstrap.AppInfo{
		ServiceName: serviceName,
		Port:        8091,
		RegisterHandlers: func(appCtx bootstrap.AppCtx) {
			handler.RegisterRoutes(appCtx.Mux)
		},
		OnShutdown: func(ctx context.Context) {
			sqlDB, err := db.DB()
			if err != nil {
				return
			}
			if err := sqlDB.Close(); err != nil {
				logger.Ctx(ctx).Error().Err(err).Msg("mysql close failed")
			}
		},
	})
}
