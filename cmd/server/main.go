package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/tutorlink/realtime-service/internal/api"
	"github.com/tutorlink/realtime-service/internal/auth"
	"github.com/tutorlink/realtime-service/internal/cache"
	"github.com/tutorlink/realtime-service/internal/chat"
	"github.com/tutorlink/realtime-service/internal/config"
	"github.com/tutorlink/realtime-service/internal/events"
	"github.com/tutorlink/realtime-service/internal/logger"
	"github.com/tutorlink/realtime-service/internal/presence"
	"github.com/tutorlink/realtime-service/internal/store"
	"github.com/tutorlink/realtime-service/internal/ws"
)

func main() {
	_ = godotenv.Load()

	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("config load: %v", err)
	}

	zlog, err := logger.New(cfg.App.Env != "production")
	if err != nil {
		log.Fatalf("logger init: %v", err)
	}
	defer func() { _ = zlog.Sync() }()

	ctx := context.Background()

	mongoClient, err := store.Connect(ctx, cfg.Mongo.URI)
	if err != nil {
		zlog.Fatalw("mongo connect", "err", err)
	}
	defer func() { _ = mongoClient.Disconnect(context.Background()) }()
	db := mongoClient.Database(cfg.Mongo.Database)

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer func() { _ = rdb.Close() }()
	status := cache.NewStatusStore(rdb, cfg.Redis.Prefix)

	producer := events.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.TopicMessageSent)
	defer func() { _ = producer.Close() }()

	users := store.NewUserRepository(db)
	convs := store.NewConversationRepository(db)
	msgs := store.NewMessageRepository(db)

	registry := presence.NewRegistry()
	hub := ws.NewHub(status, zlog)
	gateway := chat.NewGateway(registry, users, convs, msgs, hub, producer, zlog)
	reaper := ws.NewReaper(registry, status, zlog)

	validator := auth.NewValidator(cfg.App.JWTSecret, cfg.App.JWTIssuer)
	wsHandler := ws.NewHandler(gateway, hub, reaper, validator, cfg, zlog)

	app, v1 := api.New(msgs, status, zlog)
	wsHandler.Register(v1)

	errs := make(chan error, 1)
	go func() {
		addr := ":" + cfg.App.Port
		zlog.Infow("realtime service listening", "addr", addr)
		errs <- app.Listen(addr)
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errs:
		zlog.Fatalw("server error", "err", err)
	case s := <-sig:
		zlog.Infow("signal received", "signal", s.String())
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		zlog.Warnw("shutdown", "err", err)
	}
	zlog.Infow("stopped")
}
