package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
	"gopkg.in/DataDog/dd-trace-go.v1/ddtrace/tracer"

	"github.com/tazhibayda/auth-backend/internal/config"
	api "github.com/tazhibayda/auth-backend/internal/http"
	applog "github.com/tazhibayda/auth-backend/internal/log"
	"github.com/tazhibayda/auth-backend/internal/mail"
	"github.com/tazhibayda/auth-backend/internal/metrics"
	"github.com/tazhibayda/auth-backend/internal/oauth"
	"github.com/tazhibayda/auth-backend/internal/queue"
	"github.com/tazhibayda/auth-backend/internal/repo"
	"github.com/tazhibayda/auth-backend/internal/security"
	"github.com/tazhibayda/auth-backend/internal/service"
)

// @title Auth API
// @version 1.0.0
// @description Registration, login, refresh tokens, password reset and federated sign-in.
// @schemes http https
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg := config.Load()

	logger, err := applog.Init(cfg.Production)
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()

	if cfg.Production {
		gin.SetMode(gin.ReleaseMode)
	}

	traceName := ""
	if cfg.DDEnabled {
		tracer.Start(tracer.WithService(cfg.DDService))
		defer tracer.Stop()
		traceName = cfg.DDService
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	store, err := repo.NewStore(ctx, cfg.MongoURI, cfg.MongoDB)
	if err != nil {
		logger.Fatal("mongo connect", zap.Error(err))
	}
	defer store.Close(context.Background())

	if err := store.EnsureIndexes(ctx); err != nil {
		logger.Fatal("ensure indexes", zap.Error(err))
	}

	pub := queue.NewNoop()
	if cfg.Rabbit.URL != "" {
		mailQueue := ""
		if cfg.Mail.Driver == "queue" {
			mailQueue = cfg.Rabbit.MailQueue
		}
		p, err := queue.NewRabbit(cfg.Rabbit.URL, cfg.Rabbit.Exchange, mailQueue)
		switch {
		case err != nil && cfg.Mail.Driver == "queue":
			logger.Fatal("rabbit unavailable for queued mail", zap.Error(err))
		case err != nil:
			logger.Warn("rabbit unavailable, events disabled", zap.Error(err))
		default:
			pub = p
		}
	} else if cfg.Mail.Driver == "queue" {
		logger.Fatal("MAIL_DRIVER=queue requires RABBIT_URL")
	}
	defer pub.Close()

	mailer, err := mail.New(cfg.Mail, pub, cfg.Rabbit.Exchange, logger)
	if err != nil {
		logger.Fatal("mailer", zap.Error(err))
	}

	tokens := security.NewTokenIssuer(cfg.AccessSecret, cfg.RefreshSecret, cfg.AccessTTL, cfg.RefreshTTL, cfg.Issuer)

	svc := service.New(cfg, service.Deps{
		Store:    store,
		Tokens:   tokens,
		Mailer:   mailer,
		Verifier: verifier(cfg.Identity, logger),
		Events:   pub,
	})

	h := api.NewHandler(svc, tokens, store, api.CookieConfig{Name: cfg.CookieName, TTL: cfg.CookieTTL})
	h.Health = []api.Pinger{store}
	h.Exchanger = oauth.NewCodeExchanger(
		cfg.Identity.GoogleClientID,
		cfg.Identity.GoogleClientSecret,
		cfg.Identity.GoogleRedirectURL,
		cfg.Identity.StateSecret,
	)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics.MustRegister(reg)

	r := api.NewRouter(h, api.RouterOptions{
		AllowOrigin: cfg.FrontendURL,
		Swagger:     !cfg.Production,
		TraceName:   traceName,
		Gatherer:    reg,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	srvErr := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			srvErr <- err
		}
	}()
	logger.Info("auth-backend listening", zap.String("port", cfg.Port), zap.Bool("production", cfg.Production))

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	select {
	case s := <-sig:
		logger.Info("shutting down", zap.String("signal", s.String()))
	case err := <-srvErr:
		logger.Error("server error", zap.Error(err))
	}

	shutdownCtx, stop := context.WithTimeout(context.Background(), 10*time.Second)
	defer stop()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown", zap.Error(err))
	}
}

// verifier returns nil when the chosen provider is not configured; federated
// login then answers with a rejection.
func verifier(cfg config.IdentityConfig, logger *zap.Logger) oauth.Verifier {
	switch cfg.Provider {
	case "firebase":
		if cfg.FirebaseProjectID == "" {
			logger.Warn("FIREBASE_PROJECT_ID is empty, federated login disabled")
			return nil
		}
		return oauth.NewFirebaseVerifier(cfg.FirebaseProjectID, nil)
	case "", "google":
		if cfg.GoogleClientID == "" {
			logger.Warn("GOOGLE_CLIENT_ID is empty, federated login disabled")
			return nil
		}
		return oauth.NewGoogleVerifier(cfg.GoogleClientID)
	default:
		logger.Warn("unknown identity provider", zap.String("provider", cfg.Provider))
		return nil
	}
}
