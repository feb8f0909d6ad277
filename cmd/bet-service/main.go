package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	bhttp "github.com/radieske/quiniela-platform/internal/bet-service/http"
	"github.com/radieske/quiniela-platform/internal/bet-service/payment"
	kpub "github.com/radieske/quiniela-platform/internal/bet-service/producer"
	"github.com/radieske/quiniela-platform/internal/bet-service/repo"
	"github.com/radieske/quiniela-platform/internal/shared/auth"
	"github.com/radieske/quiniela-platform/internal/shared/cache"
	"github.com/radieske/quiniela-platform/internal/shared/config"
	"github.com/radieske/quiniela-platform/internal/shared/db"
	"github.com/radieske/quiniela-platform/internal/shared/kafka"
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

	// Postgres
	pg, err := db.ConnectPostgres(cfg.PostgresDSN)
	if err != nil {
		log.Fatal("pg", zap.Error(err))
	}
	defer pg.Close()
	if cfg.AutoMigrate {
		if err := db.Migrate(ctx, pg); err != nil {
			log.Fatal("migrate", zap.Error(err))
		}
	}

	// Redis (cache das regras)
	rdb, err := cache.ConnectRedis(cfg.RedisAddr)
	if err != nil {
		log.Fatal("redis", zap.Error(err))
	}
	defer rdb.Close()

	// Kafka writers (ticket_placed e bet_status_changed)
	tickets := kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicTicketPlaced)
	defer tickets.Close()
	status := kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicBetStatusChanged)
	defer status.Close()

	// Regras: banco > arquivo YAML > padrão embutido
	fallback, err := settings.Fallback(cfg.RulesFile)
	if err != nil {
		log.Warn("rules file not loaded, using defaults", zap.String("path", cfg.RulesFile), zap.Error(err))
	}
	rules := settings.NewStore(pg, rdb, cfg.RulesCacheTTL, fallback)

	placed := prometheus.NewCounter(prometheus.CounterOpts{Name: "quiniela_tickets_placed_total", Help: "tickets gravados"})
	lines := prometheus.NewCounter(prometheus.CounterOpts{Name: "quiniela_lines_placed_total", Help: "jogadas gravadas"})
	rejected := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "quiniela_wager_rejections_total", Help: "jogadas rejeitadas por código"}, []string{"code"})
	prometheus.MustRegister(placed, lines, rejected)

	api := bhttp.NewServer(log,
		repo.NewPostgres(pg),
		rules,
		payment.New(cfg.PaymentURL, cfg.PaymentAccessToken, cfg.PaymentBackURL),
		kpub.NewKafkaPublisher(tickets, status),
		auth.NewVerifier(cfg.JWTSecret).Middleware,
	)
	api.OnTicketPlaced = func(n int) {
		placed.Inc()
		lines.Add(float64(n))
	}
	api.OnRejected = func(code string) { rejected.WithLabelValues(code).Inc() }

	// metrics/health
	msrv := metrics.StartMetricsServer(cfg.MetricsPort, log, func(ctx context.Context) error {
		if err := pg.PingContext(ctx); err != nil {
			return err
		}
		return rdb.Ping(ctx).Err()
	})

	apiSrv := &http.Server{Addr: ":" + cfg.HTTPPort, Handler: api.Router()}
	go func() {
		log.Info("bet-service listening", zap.String("addr", apiSrv.Addr))
		if err := apiSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("api", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")
	sctx, scancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer scancel()
	_ = apiSrv.Shutdown(sctx)
	_ = msrv.Shutdown(sctx)
}
