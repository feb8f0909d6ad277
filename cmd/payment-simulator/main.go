package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	simulator "github.com/radieske/quiniela-platform/internal/payment-simulator"
	"github.com/radieske/quiniela-platform/internal/shared/config"
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

	// % de falhas simuladas (0 = nunca falha)
	failRate, _ := strconv.Atoi(os.Getenv("PAYMENT_SIM_FAIL_RATE"))

	prefs := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "payment_sim_preferences_total",
		Help: "Preferências de checkout criadas",
	})
	prometheus.MustRegister(prefs)

	s := simulator.NewServer(log, cfg.PaymentAccessToken, failRate, "http://localhost:"+cfg.HTTPPort)
	s.OnCreated = prefs.Inc

	msrv := metrics.StartMetricsServer(cfg.MetricsPort, log, nil)

	srv := &http.Server{Addr: ":" + cfg.HTTPPort, Handler: s.Router()}
	go func() {
		log.Info("payment simulator running",
			zap.String("addr", srv.Addr),
			zap.String("paths", "/checkout/preferences"),
			zap.Int("fail_rate", failRate),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("public server error", zap.Error(err))
		}
	}()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	<-ctx.Done()

	sctx, scancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer scancel()
	_ = srv.Shutdown(sctx)
	_ = msrv.Shutdown(sctx)
}
