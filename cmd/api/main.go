package main

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"pet-adoption/internal/adapters/mailer"
	pg "pet-adoption/internal/adapters/storage/postgres"
	rdb "pet-adoption/internal/adapters/storage/redis"
	"pet-adoption/internal/platform/config"
	"pet-adoption/internal/platform/httpclient"
	"pet-adoption/internal/platform/logger"
	"pet-adoption/internal/ports/mail"
	"pet-adoption/internal/router"
)

// @title Pet Adoption API
// @version 1.0
// @description Marketplace de adopción: publicaciones, chat, solicitudes y moderación.
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	log := logger.NewFromEnv()

	cfg, envLoaded := config.Load()
	log.Info("config loaded", map[string]any{"dotenv": envLoaded, "port": cfg.Port})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var db *sql.DB
	if cfg.DBDSN != "" {
		opened, err := pg.Open(cfg.DBDSN)
		if err != nil {
			log.Error("postgres unavailable", map[string]any{"error": err})
			os.Exit(1)
		}
		if err := pg.Migrate(ctx, opened); err != nil {
			log.Error("postgres migrate failed", map[string]any{"error": err})
			os.Exit(1)
		}
		defer opened.Close()
		db = opened
	}

	var redisClient *goredis.Client
	if cfg.RedisURL != "" {
		c, err := rdb.Open(ctx, cfg.RedisURL)
		if err != nil {
			log.Error("redis unavailable", map[string]any{"error": err})
			os.Exit(1)
		}
		defer c.Close()
		redisClient = c
	}

	m, closeMailer, err := buildMailer(cfg, log)
	if err != nil {
		log.Error("mailer setup failed", map[string]any{"error": err})
		os.Exit(1)
	}
	defer closeMailer.Close()

	h, err := router.NewRouter(router.Options{
		Config: cfg,
		Log:    log,
		DB:     db,
		Redis:  redisClient,
		Mailer: m,
	})
	if err != nil {
		log.Error("router setup failed", map[string]any{"error": err})
		os.Exit(1)
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      h,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("starting server", map[string]any{"addr": srv.Addr})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", map[string]any{"error": err})
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown failed", map[string]any{"error": err})
	}
	log.Info("server stopped", nil)
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// buildMailer: Kafka si hay brokers, relay HTTP si hay URL, si no solo log.
func buildMailer(cfg config.Config, log logger.Logger) (mail.Mailer, io.Closer, error) {
	switch {
	case len(cfg.KafkaBrokers) > 0:
		k := mailer.NewKafkaMailer(cfg.KafkaBrokers, cfg.MailTopic)
		log.Info("mailer: kafka", map[string]any{"topic": cfg.MailTopic})
		return k, k, nil
	case cfg.MailRelayURL != "":
		c, err := httpclient.NewWithBaseURL(cfg.MailRelayURL, 0)
		if err != nil {
			return nil, nil, err
		}
		log.Info("mailer: http relay", map[string]any{"url": cfg.MailRelayURL})
		return mailer.NewRelayMailer(c, ""), nopCloser{}, nil
	default:
		log.Warn("mailer: log only, mails are not delivered", nil)
		return mailer.NewLogMailer(log), nopCloser{}, nil
	}
}
