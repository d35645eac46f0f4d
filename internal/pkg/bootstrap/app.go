package bootstrap

import (
	"context"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/seanhasenstein/macaport-fulfillment/internal/pkg/logger"
	"github.com/seanhasenstein/macaport-fulfillment/internal/pkg/nacos"
	"github.com/seanhasenstein/macaport-fulfillment/internal/tracing"
)

// AppCtx is handed to each service's route registration callback.
type AppCtx struct {
	Mux   *http.ServeMux
	Nacos *nacos.Client
}

// AppInfo describes one service binary to StartService.
type AppInfo struct {
	ServiceName string
	Port        int
	// RegisterHandlers lets each service add its routes to the shared mux.
	RegisterHandlers func(appCtx AppCtx)
	// OnShutdown runs during graceful shutdown, after deregistration and
	// before the HTTP server closes.
	OnShutdown func(ctx context.Context)
}

// StartService runs the common service lifecycle: logger, tracer, optional
// Nacos registration, HTTP server, and ordered graceful shutdown on
// SIGINT/SIGTERM. It blocks until shutdown completes.
func StartService(info AppInfo) {
	logger.Init(info.ServiceName)
	cfg := GetCurrentConfig()

	tp, err := tracing.InitTracerProvider(info.ServiceName, cfg.Infra.JaegerEndpoint)
	if err != nil {
		logger.Ctx(nil).Fatal().Err(err).Msg("failed to initialize tracer provider")
	}

	var namingClient *nacos.Client
	var ip string
	if cfg.Infra.Nacos.Enabled {
		namingClient, err = nacos.NewNacosClient(cfg.Infra.Nacos.ServerAddrs, cfg.Infra.Nacos.Namespace, cfg.Infra.Nacos.Group)
		if err != nil {
			logger.Ctx(nil).Fatal().Err(err).Msg("failed to initialize nacos client")
		}
		ip, err = outboundIP()
		if err != nil {
			logger.Ctx(nil).Fatal().Err(err).Msg("failed to determine outbound ip")
		}
		if err := namingClient.RegisterServiceInstance(info.ServiceName, ip, info.Port); err != nil {
			logger.Ctx(nil).Fatal().Err(err).Msg("failed to register with nacos")
		}
	}

	mux := http.NewServeMux()
	if info.RegisterHandlers != nil {
		info.RegisterHandlers(AppCtx{Mux: mux, Nacos: namingClient})
	}
	server := &http.Server{Addr: ":" + strconv.Itoa(info.Port), Handler: mux}

	go func() {
		logger.Ctx(nil).Info().Int("port", info.Port).Msg("listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Ctx(nil).Fatal().Err(err).Msg("http server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Ctx(nil).Info().Msg("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Teardown is last-in-first-out: stop taking traffic, then drain
	// everything the service owns, then flush traces.
	if namingClient != nil {
		if err := namingClient.DeregisterServiceInstance(info.ServiceName, ip, info.Port); err != nil {
			logger.Ctx(nil).Error().Err(err).Msg("nacos deregistration failed")
		}
	}

	if info.OnShutdown != nil {
		info.OnShutdown(ctx)
	}

	if err := server.Shutdown(ctx); err != nil {
		logger.Ctx(nil).Error().Err(err).Msg("http shutdown failed")
	}

	if err := tp.Shutdown(ctx); err != nil {
		logger.Ctx(nil).Error().Err(err).Msg("tracer shutdown failed")
	}

	logger.Ctx(nil).Info().Msg("shutdown complete")
}

// outboundIP finds the address other services can reach us on, without
// sending any packets.
func outboundIP() (string, error) {
	conn, err := net.Dial("udp", "8.8.8.8:80")
	if err != nil {
		return "", err
	}
	defer conn.Close()
	return conn.LocalAddr().(*net.UDPAddr).IP.String(), nil
}
