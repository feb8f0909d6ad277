package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	ahttp "github.com/radieske/quiniela-platform/internal/admin-service/http"
	"github.com/radieske/quiniela-platform/internal/admin-service/pubsub"
	arepo "github.com/radieske/quiniela-platform/internal/admin-service/repo"
	"github.com/radieske/quiniela-platform/internal/shared/auth"
	"github.com/radieske/quiniela-platform/internal/shared/cache"
	"github.com/radieske/quiniela-platform/internal/shared/config"
	"github.com/radieske/quiniela-platform/internal/shared/db"
	"github.com/radieske/quiniela-platform/internal/shared/logger"
	"github.com/radieske/quiniela-platform/internal/shared/metrics"
	"github.com/radieske/quiniela-platform/internal/shared/settings"
)

func main() {
	cfg := config.Load()
	log, err := logger.New(cfg.ServiceName, cfg.Env)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	pg, err := db.ConnectPostgres(cfg.PostgresDSN)
	if err != nil {
		log.Fatal("postgres connect", zap.Error(err))
	}
	defer pg.Close()
	if cfg.AutoMigrate {
		if err := db.Migrate(ctx, pg); err != nil {
			log.Fatal("migrate", zap.Error(err))
		}
	}

	redisClient, err := cache.ConnectRedis(cfg.RedisAddr)
	if err != nil {
		log.Fatal("redis connect", zap.Error(err))
	}
	defer redisClient.Close()

	fallback, err := settings.Fallback(cfg.RulesFile)
	if err != nil {
		log.Warn("rules file not loaded, using defaults", zap.String("path", cfg.RulesFile), zap.Error(err))
	}

	published := prometheus.NewCounter(prometheus.CounterOpts{Name: "quiniela_results_published_total", Help: "resultados publicados"})
	prometheus.MustRegister(published)

	// Broadcaster: invalida o cache de resultados e avisa o results-service via Pub/Sub
	api := ahttp.NewServer(log,
		settings.NewStore(pg, redisClient, cfg.RulesCacheTTL, fallback),
		arepo.NewPostgres(pg),
		pubsub.NewRedisBroadcaster(redisClient, cfg.RedisResultsChannel),
		auth.NewVerifier(cfg.JWTSecret).Middleware,
	)
	api.OnResultPublished = published.Inc

	msrv := metrics.StartMetricsServer(cfg.MetricsPort, log, func(ctx context.Context) error {
		if err := pg.PingContext(ctx); err != nil {
			return err
		}
		return redisClient.Ping(ctx).Err()
	})

	apiSrv := &http.Server{Addr: ":" + cfg.HTTPPort, Handler: api.Router()}
	go func() {
		log.Info("admin-service listening", zap.String("addr", apiSrv.Addr))
		if err := apiSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("api", zap.Error(err))
		}
	}()

	<-ctx.Done()
	sctx, scancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer scancel()
	_ = apiSrv.Shutdown(sctx)
	_ = msrv.Shutdown(sctx)
}
