package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/radieske/quiniela-platform/internal/account-worker/consumer"
	crepo "github.com/radieske/quiniela-platform/internal/customer-service/repo"
	"github.com/radieske/quiniela-platform/internal/shared/config"
	"github.com/radieske/quiniela-platform/internal/shared/db"
	"github.com/radieske/quiniela-platform/internal/shared/kafka"
	"github.com/radieske/quiniela-platform/internal/shared/logger"
	"github.com/radieske/quiniela-platform/internal/shared/metrics"
)

func main() {
	cfg := config.Load()
	log, err := logger.New(cfg.ServiceName, cfg.Env)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	// Conexão com Postgres: a conta corrente dos clientes é atualizada direto no banco
	pg, err := db.ConnectPostgres(cfg.PostgresDSN)
	if err != nil {
		log.Fatal("pg connect", zap.Error(err))
	}
	defer pg.Close()

	// Kafka consumer: ticket_placed e bet_status_changed no mesmo grupo
	reader := kafka.NewReader(cfg.KafkaBrokers, "account-worker", cfg.TopicTicketPlaced, cfg.TopicBetStatusChanged)
	defer reader.Close()

	// Kafka producer: DLQ para eventos que esgotaram as tentativas
	var dlq func(ctx context.Context, key string, payload []byte) error
	if cfg.TopicAccountDLQ != "" {
		dlqWriter := kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicAccountDLQ)
		defer dlqWriter.Close()
		dlq = func(ctx context.Context, key string, payload []byte) error {
			return kafka.WriteJSON(ctx, dlqWriter, key, payload)
		}
	}

	// Métricas Prometheus
	eventsBy := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "account_worker_events_total", Help: "eventos aplicados por tipo"}, []string{"type"})
	errorsBy := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "account_worker_errors_total", Help: "erros por estágio"}, []string{"stage"})
	prometheus.MustRegister(eventsBy, errorsBy)

	proc := &consumer.Processor{
		Log:                   log,
		Reader:                reader,
		Accounts:              crepo.NewPostgres(pg),
		DLQ:                   dlq,
		TopicTicketPlaced:     cfg.TopicTicketPlaced,
		TopicBetStatusChanged: cfg.TopicBetStatusChanged,
		Retries:               3,
		Backoff:               300 * time.Millisecond,
		OnEvent:               func(t string) { eventsBy.WithLabelValues(t).Inc() },
		OnError:               func(stage string) { errorsBy.WithLabelValues(stage).Inc() },
	}

	msrv := metrics.StartMetricsServer(cfg.MetricsPort, log, pg.PingContext)

	// Sinalização para shutdown gracioso (SIGINT/SIGTERM)
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	log.Info("account-worker started",
		zap.String("ticket_topic", cfg.TopicTicketPlaced),
		zap.String("status_topic", cfg.TopicBetStatusChanged),
		zap.String("dlq", cfg.TopicAccountDLQ),
	)
	if err := proc.Run(ctx); err != nil && ctx.Err() == nil {
		log.Fatal("processor stopped with error", zap.Error(err))
	}

	sctx, scancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer scancel()
	_ = msrv.Shutdown(sctx)
	log.Info("account-worker stopped")
}
