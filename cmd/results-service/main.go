package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	rcache "github.com/radieske/quiniela-platform/internal/results-service/cache"
	rhttp "github.com/radieske/quiniela-platform/internal/results-service/http"
	"github.com/radieske/quiniela-platform/internal/results-service/repo"
	"github.com/radieske/quiniela-platform/internal/results-service/ws"
	"github.com/radieske/quiniela-platform/internal/shared/cache"
	"github.com/radieske/quiniela-platform/internal/shared/config"
	"github.com/radieske/quiniela-platform/internal/shared/db"
	"github.com/radieske/quiniela-platform/internal/shared/logger"
	"github.com/radieske/quiniela-platform/internal/shared/metrics"
	"github.com/radieske/quiniela-platform/internal/shared/settings"
	"github.com/radieske/quiniela-platform/pkg/contracts/events"
)

func main() {
	// carrega config
	cfg := config.Load()

	// inicia logger
	log, err := logger.New(cfg.ServiceName, cfg.Env)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	log.Info("starting service", zap.String("service", cfg.ServiceName), zap.String("env", cfg.Env))

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// conecta com db Postgres
	pg, err := db.ConnectPostgres(cfg.PostgresDSN)
	if err != nil {
		log.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	// conecta com cache Redis
	redisClient, err := cache.ConnectRedis(cfg.RedisAddr)
	if err != nil {
		log.Fatal("failed to connect redis", zap.Error(err))
	}
	defer redisClient.Close()

	fallback, err := settings.Fallback(cfg.RulesFile)
	if err != nil {
		log.Warn("rules file not loaded, using defaults", zap.String("path", cfg.RulesFile), zap.Error(err))
	}

	received := prometheus.NewCounter(prometheus.CounterOpts{Name: "results_broadcasts_received_total", Help: "publicações recebidas do Pub/Sub"})
	prometheus.MustRegister(received)

	// WebSocket: hub + subscriber do canal de resultados
	hub := ws.NewHub(func(r *http.Request) bool { return true })
	resultsCache := rcache.New(redisClient)
	ws.StartRedisSubscriber(ctx, redisClient, cfg.RedisResultsChannel, hub, log, func(ctx context.Context, e events.ResultPublished) {
		received.Inc()
		// descarta o cache da data antes do broadcast
		if err := resultsCache.Invalidate(ctx, e.DrawDate); err != nil {
			log.Warn("results cache invalidate", zap.Error(err))
		}
	})

	api := &rhttp.API{
		Log:      log,
		ReadRepo: &repo.ReadRepo{DB: pg},
		Cache:    resultsCache,
		Rules:    settings.NewStore(pg, redisClient, cfg.RulesCacheTTL, fallback),
		WS:       hub.HandleWS,
		TTL:      5 * time.Minute,
	}

	msrv := metrics.StartMetricsServer(cfg.MetricsPort, log, func(ctx context.Context) error {
		if err := pg.PingContext(ctx); err != nil {
			return err
		}
		return redisClient.Ping(ctx).Err()
	})

	srv := &http.Server{Addr: ":" + cfg.HTTPPort, Handler: api.Router()}
	go func() {
		log.Info("results-service listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("http server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	sctx, scancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer scancel()
	_ = srv.Shutdown(sctx)
	_ = msrv.Shutdown(sctx)
}
