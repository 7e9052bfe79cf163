package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"

	"linkdesk/internal/auth"
	"linkdesk/internal/config"
	"linkdesk/internal/database/migrations"
	"linkdesk/internal/domain"
	domainapi "linkdesk/internal/domain/api"
	domaindb "linkdesk/internal/domain/db"
	"linkdesk/internal/logger"
	"linkdesk/internal/order"
	orderapi "linkdesk/internal/order/api"
	orderdb "linkdesk/internal/order/db"
	orderkafka "linkdesk/internal/order/kafka"
	orderredis "linkdesk/internal/order/redis"
	userapi "linkdesk/internal/user/api"
	userdb "linkdesk/internal/user/db"
	"linkdesk/internal/utils"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	log := logger.NewLogger()
	ctx := context.Background()

	// --- PostgreSQL Setup ---
	connector := pgdriver.NewConnector(pgdriver.WithDSN(cfg.Database.DSN))
	sqldb := sql.OpenDB(connector)
	defer sqldb.Close()
	sqldb.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	sqldb.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	sqldb.SetConnMaxLifetime(cfg.Database.MaxLifetime)

	if err := sqldb.PingContext(ctx); err != nil {
		log.Fatal("DATABASE", fmt.Sprintf("failed to connect to Postgres: %v", err))
	}
	bunDB := bun.NewDB(sqldb, pgdialect.New())
	log.Info("DATABASE", "connected to Postgres")

	if cfg.Database.AutoMigrate {
		runner := migrations.NewRunner(bunDB, migrations.DefaultOptions())
		if err := runner.RunMigrations(); err != nil {
			log.Fatal("DATABASE", fmt.Sprintf("migrations failed: %v", err))
		}
	}

	// --- Redis Setup ---
	redisClient := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Fatal("REDIS", fmt.Sprintf("failed to connect to Redis: %v", err))
	}
	log.Info("REDIS", "connected to "+cfg.Redis.Addr)
	redisWrap := orderredis.NewRedis(redisClient, log, cfg.Redis.LockTTL, cfg.Redis.UnreadTTL)

	// --- Kafka Setup ---
	var producer *orderkafka.Producer
	if cfg.Kafka.Enabled {
		producer = orderkafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topics.Orders, cfg.Kafka.Topics.Comments)
		defer producer.Close()
		log.Info("KAFKA", "producer ready")
	} else {
		log.Warn("KAFKA", "event publishing disabled")
	}

	// --- Services & Handlers ---
	sessions := auth.NewSessions(cfg.Session)
	users := &userdb.DB{Bun: bunDB}

	var events order.EventPublisher
	if producer != nil {
		events = producer
	}
	orderSvc := order.NewOrderService(&orderdb.DB{Bun: bunDB}, redisWrap, redisWrap, events, log)
	domainSvc := domain.NewDomainService(&domaindb.DB{Bun: bunDB}, log)

	authHandler := &auth.Handler{Sessions: sessions, Users: users, Logger: log}
	orderHandler := &orderapi.Handler{OrderService: orderSvc, Logger: log}
	domainHandler := &domainapi.Handler{DomainService: domainSvc, Logger: log}
	userHandler := &userapi.Handler{DB: users, Logger: log}

	// --- Setup Router ---
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(auth.Middleware(sessions))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		utils.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/login", authHandler.Login)
		r.Post("/auth/logout", authHandler.Logout)
		r.With(auth.RequireUser).Get("/auth/me", authHandler.Me)

		r.Route("/orders", orderHandler.Routes)
		r.Route("/domains", domainHandler.Routes)
		r.Route("/users", userHandler.Routes)
	})

	// --- Start HTTP Server ---
	server := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info("SERVER", "listening on "+cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("SERVER", fmt.Sprintf("HTTP server error: %v", err))
		}
	}()

	// --- Graceful Shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("SERVER", "shutdown signal received")

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctxShutdown); err != nil {
		log.Fatal("SERVER", fmt.Sprintf("forced shutdown: %v", err))
	}
	log.Info("SERVER", "exited gracefully")
}
