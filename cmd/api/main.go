package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"shop-api/internal/client"
	"shop-api/internal/config"
	"shop-api/internal/logger"
	"shop-api/internal/metrics"
	"shop-api/internal/middleware"
	"shop-api/internal/notifier"
	"shop-api/internal/repository"
	"shop-api/internal/server"
	"shop-api/internal/service"
	"syscall"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
)

func main() {
	// load .env into os.Environ
	envErr := godotenv.Load()

	cfg := &config.Config{}
	if err := env.Parse(cfg); err != nil {
		bootLog := logger.New(config.Log{}, config.Environment{})
		bootLog.Fatal().Err(err).Msg("failed to parse config")
	}

	log := logger.New(cfg.Log, cfg.Environment)
	if envErr != nil {
		log.Debug().Msg("no .env file found (ok in prod)")
	}

	db, err := client.InitDB(&cfg.Database, log.With().Str("component", "gorm").Logger())
	if err != nil {
		log.Fatal().Err(err).Msg("failed to init database")
	}

	productRepo := repository.NewProductRepository(db)
	cartRepo := repository.NewCartRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	webhookEventRepo := repository.NewWebhookEventRepository(db)

	if cfg.SeedCatalog {
		if err := productRepo.Seed(context.Background()); err != nil {
			log.Fatal().Err(err).Msg("failed to seed catalog")
		}
	}

	var notify notifier.Notifier
	if len(cfg.Kafka.Brokers) > 0 {
		notify = notifier.NewKafkaNotifier(cfg.Kafka.Brokers, cfg.Kafka.Topic, log)
	} else {
		notify = notifier.NewLogNotifier(log)
	}
	defer notify.Close()

	var limiterStore echomw.RateLimiterStore
	if cfg.RateLimit.Enabled {
		var rdb *redis.Client
		if cfg.RateLimit.Store == "redis" {
			rdb, err = client.InitRedisClient(&cfg.Redis)
			if err != nil {
				log.Fatal().Err(err).Msg("failed to init redis")
			}
			defer rdb.Close()
		}
		limiterStore = middleware.NewRateLimiterStore(&cfg.RateLimit, rdb, log)
	}

	m := metrics.New()
	paystackClient := client.NewPaystackClient(&cfg.Paystack)

	services := server.Services{
		Cart: service.NewCartService(db, cartRepo, productRepo),
		Order: service.NewOrderService(
			db,
			orderRepo,
			productRepo,
			cartRepo,
			notify,
			m,
		),
		Payment: service.NewPaymentService(
			db,
			paystackClient,
			&cfg.Paystack,
			orderRepo,
			paymentRepo,
			webhookEventRepo,
			notify,
			m,
			log,
		),
	}

	serverAddr := cfg.HTTP.Host + ":" + cfg.HTTP.Port

	// Init HTTP server
	srv := server.NewServer(cfg, db, services, m, limiterStore, log)

	log.Info().Str("addr", serverAddr).Msg("starting HTTP server")
	go func() {
		if err := srv.Start(serverAddr); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server error")
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)

	<-sigChan
	log.Info().Msg("signal received, starting graceful shutdown")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}
}
