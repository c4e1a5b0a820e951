package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/tazhibayda/auth-backend/internal/config"
	applog "github.com/tazhibayda/auth-backend/internal/log"
	"github.com/tazhibayda/auth-backend/internal/mail"
	"github.com/tazhibayda/auth-backend/internal/metrics"
	"github.com/tazhibayda/auth-backend/internal/notify"
	"github.com/tazhibayda/auth-backend/internal/queue"
	"github.com/tazhibayda/auth-backend/internal/repo"
)

func main() {
	cfg := config.Load()

	logger, err := applog.Init(cfg.Production)
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()

	if cfg.Rabbit.URL == "" {
		logger.Fatal("RABBIT_URL is required")
	}

	mcfg := cfg.Mail
	mcfg.Driver = cfg.Mail.DeliveryDriver
	if mcfg.Driver == "queue" {
		logger.Fatal("NOTIFY_MAIL_DRIVER cannot be queue")
	}
	mailer, err := mail.New(mcfg, nil, "", logger)
	if err != nil {
		logger.Fatal("mailer", zap.Error(err))
	}

	cons, err := queue.NewConsumer(cfg.Rabbit.URL, cfg.Rabbit.Exchange, cfg.Rabbit.MailQueue, queue.KeyMailSend)
	if err != nil {
		logger.Fatal("rabbit consumer init failed", zap.Error(err))
	}
	defer cons.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	h := &notify.Handler{Mailer: mailer, TTL: cfg.Rabbit.DedupeTTL, Logger: logger}
	rdb := repo.NewRedis(cfg.RedisAddr)
	defer rdb.Close()
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	if err := rdb.Ping(pingCtx); err != nil {
		logger.Warn("redis unavailable, redeliveries will not be deduplicated", zap.Error(err))
	} else {
		h.Seen = rdb
	}
	cancel()

	reg := prometheus.NewRegistry()
	metrics.MustRegisterNotifier(reg)
	ms := &http.Server{
		Addr:              ":" + cfg.Rabbit.MetricsPort,
		Handler:           promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := ms.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server", zap.Error(err))
		}
	}()
	defer func() { _ = ms.Shutdown(context.Background()) }()

	logger.Info("notifier up",
		zap.String("exchange", cfg.Rabbit.Exchange),
		zap.String("queue", cfg.Rabbit.MailQueue),
		zap.String("driver", mcfg.Driver),
		zap.Int("workers", cfg.Rabbit.Concurrency))

	if err := cons.Consume(ctx, cfg.Rabbit.Concurrency, h.Handle); err != nil {
		logger.Fatal("consumer stopped", zap.Error(err))
	}
}
