package main

import (
	"context"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/parcelworks/storefront/internal/config"
	"github.com/parcelworks/storefront/internal/email"
	kafkax "github.com/parcelworks/storefront/internal/kafka"
	"github.com/parcelworks/storefront/internal/notify"
	"github.com/parcelworks/storefront/internal/orders"
	"github.com/parcelworks/storefront/internal/redisx"
)

func mustAtoi(s, def string) int {
	if s == "" {
		s = def
	}
	i, err := strconv.Atoi(s)
	if err != nil {
		return 1
	}
	return i
}

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	log, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Redis (email dedup)
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	// Service
	svc := &notify.Service{
		Sender:      email.NewClient(cfg.EmailBaseURL, cfg.EmailAPIKey, cfg.EmailFrom),
		Dedup:       notify.RedisDeduper{R: rdb},
		Log:         log,
		ServiceName: cfg.ServiceName + "-notifier",
	}

	// Consumers: one per topic, same group
	group := getenv("NOTIFIER_GROUP", "notifier-svc")
	workers := mustAtoi(os.Getenv("NOTIFIER_WORKERS"), "4")
	cPaid := kafkax.NewConsumer(cfg.KafkaBrokers, group, orders.TopicOrderPaid, workers, log)
	cShipped := kafkax.NewConsumer(cfg.KafkaBrokers, group, orders.TopicOrderShipped, workers, log)

	go func() {
		log.Info("notifier consumer started",
			zap.String("group", group),
			zap.String("topic", orders.TopicOrderPaid),
			zap.Int("workers", workers))
		if err := cPaid.Start(ctx, svc.HandleOrderPaid); err != nil {
			log.Error("consumer exit", zap.String("topic", orders.TopicOrderPaid), zap.Error(err))
			cancel()
		}
	}()
	go func() {
		log.Info("notifier consumer started",
			zap.String("group", group),
			zap.String("topic", orders.TopicOrderShipped),
			zap.Int("workers", workers))
		if err := cShipped.Start(ctx, svc.HandleOrderShipped); err != nil {
			log.Error("consumer exit", zap.String("topic", orders.TopicOrderShipped), zap.Error(err))
			cancel()
		}
	}()

	// graceful shutdown
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Info("shutting down consumers...")
	cancel()
	time.Sleep(500 * time.Millisecond)
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
