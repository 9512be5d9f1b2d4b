package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	_ "github.com/go-sql-driver/mysql"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"commerce-service/internal/api"
	"commerce-service/internal/audit"
	"commerce-service/internal/cache"
	"commerce-service/internal/config"
	"commerce-service/internal/payment"
	"commerce-service/internal/repository"
	"commerce-service/internal/service"
	"commerce-service/migrations"
)

func connectDB(cfg config.Config) (*sql.DB, error) {
	var db *sql.DB
	var err error
	for i := 0; i < cfg.DBRetries; i++ {
		db, err = sql.Open("mysql", cfg.MySQLDSN())
		if err == nil {
			err = db.Ping()
			if err == nil {
				log.Info().Str("db", cfg.DBName).Msg("Connected to DB")
				return db, nil
			}
			db.Close()
		}
		log.Warn().Err(err).Int("attempt", i+1).Str("host", cfg.DBHost).Str("port", cfg.DBPort).Msgf("Failed to connect to DB %s", cfg.DBName)
		time.Sleep(3 * time.Second)
	}
	return nil, fmt.Errorf("failed to connect to DB %s at %s:%s after retries: %w", cfg.DBName, cfg.DBHost, cfg.DBPort, err)
}

func main() {
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()

	cfg := config.Load()

	db, err := connectDB(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Database unavailable")
	}
	defer db.Close()

	if err := migrations.AutoMigrate(3, db); err != nil {
		log.Fatal().Err(err).Msg("Failed to migrate tables")
	}

	var store cache.Cache
	var rdb *redis.Client
	if cfg.RedisAddr != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		defer rdb.Close()
		store = cache.NewRedisCache(rdb)
	} else {
		log.Warn().Msg("REDIS_ADDR not set, using in-process cache")
		store = cache.NewMemoryCache()
	}

	auditRepo := repository.NewAuditRepository(db)
	sinks := []audit.Sink{auditRepo}

	kafkaWriter := config.NewKafkaWriter(cfg.KafkaBrokers, cfg.AuditTopic)
	if kafkaWriter != nil {
		defer kafkaWriter.Close()
		sinks = append(sinks, audit.NewKafkaSink(kafkaWriter))
	}

	if cfg.AuditAMQPURL != "" {
		amqpClient, err := config.DialAMQP(cfg.AuditAMQPURL)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to RabbitMQ")
		}
		defer amqpClient.Close()
		amqpSink, err := audit.NewAMQPSink(amqpClient.Channel, cfg.AuditExchange)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to declare audit exchange")
		}
		sinks = append(sinks, amqpSink)
	}

	bus := audit.NewBus(cfg.AuditBuffer)
	listener := audit.NewListener(bus, cfg.AuditWorkers, sinks...)
	listener.Start()

	orderService := service.NewOrderService(repository.NewOrderRepository(db), store, bus, cfg.OrderTxTimeout)
	productService := service.NewProductService(repository.NewProductRepository(db), store, bus)
	paymentService := service.NewPaymentService(payment.NewStripeGateway(cfg.StripeAPIKey, nil), bus)

	handlers := api.Handlers{
		Orders:   api.NewOrderHandler(orderService),
		Products: api.NewProductHandler(productService),
		Payments: api.NewPaymentHandler(paymentService),
		Audit:    api.NewAuditHandler(auditRepo),
	}

	e := echo.New()
	e.HideBanner = true

	limiterConfig := middleware.RateLimiterConfig{
		Skipper: middleware.DefaultSkipper,
		Store: middleware.NewRateLimiterMemoryStoreWithConfig(
			middleware.RateLimiterMemoryStoreConfig{
				Rate:      rate.Limit(cfg.RateLimit),
				Burst:     cfg.RateBurst,
				ExpiresIn: 3 * time.Minute,
			}),
		IdentifierExtractor: func(context echo.Context) (string, error) {
			return context.RealIP(), nil
		},
		ErrorHandler: func(context echo.Context, err error) error {
			return context.JSON(http.StatusTooManyRequests, map[string]string{"error": "rate limit exceeded"})
		},
		DenyHandler: func(context echo.Context, identifier string, err error) error {
			return context.JSON(http.StatusTooManyRequests, map[string]string{"error": "rate limit exceeded"})
		},
	}

	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.RateLimiterWithConfig(limiterConfig))

	api.RegisterRoutes(e, handlers, api.JWT(cfg.JWTSecret))

	go func() {
		if err := e.Start(cfg.HTTPAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("HTTP server stopped")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("HTTP shutdown")
	}

	// Handlers are drained, so nothing emits after this point.
	bus.Close()
	listener.Wait()
	if n := bus.Dropped(); n > 0 {
		log.Warn().Int64("dropped", n).Msg("Audit events dropped")
	}
}
