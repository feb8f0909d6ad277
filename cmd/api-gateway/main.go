package main

import (
	"net/http"
	"os"

	"go.uber.org/zap"

	"github.com/radieske/quiniela-platform/internal/gateway"
	"github.com/radieske/quiniela-platform/internal/shared/config"
	"github.com/radieske/quiniela-platform/internal/shared/logger"
	"github.com/radieske/quiniela-platform/internal/shared/metrics"
)

func env(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func main() {
	cfg := config.Load()
	log, _ := logger.New(cfg.ServiceName, cfg.Env)
	defer log.Sync()

	// targets
	h, err := gateway.New(gateway.Targets{
		Bet:      env("BET_URL", "http://localhost:8083"),
		Customer: env("CUSTOMER_URL", "http://localhost:8082"),
		Admin:    env("ADMIN_URL", "http://localhost:8084"),
		Results:  env("RESULTS_URL", "http://localhost:8080"),
	}, log)
	if err != nil {
		log.Fatal("gateway targets", zap.Error(err))
	}

	metrics.StartMetricsServer(cfg.MetricsPort, log, nil)

	addr := ":" + cfg.HTTPPort
	log.Info("api-gateway listening", zap.String("addr", addr))
	if err := http.ListenAndServe(addr, h); err != nil && err != http.ErrServerClosed {
		log.Fatal("gateway failed", zap.Error(err))
	}
}
