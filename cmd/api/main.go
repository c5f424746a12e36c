package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/parcelworks/storefront/internal/audit"
	"github.com/parcelworks/storefront/internal/auth"
	"github.com/parcelworks/storefront/internal/config"
	"github.com/parcelworks/storefront/internal/content"
	"github.com/parcelworks/storefront/internal/httpx"
	kafkax "github.com/parcelworks/storefront/internal/kafka"
	"github.com/parcelworks/storefront/internal/orders"
	"github.com/parcelworks/storefront/internal/payment"
	"github.com/parcelworks/storefront/internal/postgres"
	"github.com/parcelworks/storefront/internal/redisx"
	"github.com/parcelworks/storefront/internal/shipping"
)

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

	// DB
	db, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatal("db connect", zap.Error(err))
	}
	defer db.Close()

	// Redis
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	// Mongo audit trail
	trail, err := audit.Connect(ctx, cfg.MongoURI, cfg.MongoDB)
	if err != nil {
		log.Fatal("mongo connect", zap.Error(err))
	}
	defer trail.Close(context.Background())
	if err := trail.Ping(ctx); err != nil {
		log.Fatal("mongo ping", zap.Error(err))
	}

	// Kafka producers, one per topic
	pCreated := kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicOrderCreated, 1024, log)
	pPaid := kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicOrderPaid, 1024, log)
	pFulfilled := kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicOrderFulfilled, 1024, log)
	pShipped := kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicOrderShipped, 1024, log)
	pCancelled := kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicOrderCancelled, 1024, log)
	producers := []*kafkax.Producer{pCreated, pPaid, pFulfilled, pShipped, pCancelled}
	for _, p := range producers {
		p.Start(ctx)
	}
	pubs := httpx.Publishers{
		Created:   pCreated,
		Paid:      pPaid,
		Fulfilled: pFulfilled,
		Shipped:   pShipped,
		Cancelled: pCancelled,
	}

	// Vendors
	payments := payment.NewClient(cfg.PaymentBaseURL, cfg.PaymentAPIKey)
	shipper := shipping.NewClient(cfg.ShippingBaseURL, cfg.ShippingAPIKey)

	// Repos & handlers
	repo := &orders.Repo{DB: db}
	roles := &auth.RoleRepo{DB: db}
	requireUser := httpx.RequireUser(cfg.JWTSecret, roles)

	router := httpx.NewRouter(log)
	sh := &httpx.StoreHandler{
		Store:      repo,
		Payments:   payments,
		Producers:  pubs,
		Cache:      httpx.NewRedisCache(rdb),
		Log:        log,
		Service:    cfg.ServiceName,
		SuccessURL: cfg.CheckoutSuccessURL,
		CancelURL:  cfg.CheckoutCancelURL,
	}
	sh.Register(router, requireUser)

	wh := &httpx.WebhookHandler{
		Store:         repo,
		Producers:     pubs,
		Log:           log,
		Service:       cfg.ServiceName,
		WebhookSecret: cfg.PaymentWebhookSecret,
	}
	wh.Register(router)

	ah := &httpx.AdminHandler{
		Store:     repo,
		Payments:  payments,
		Shipping:  shipper,
		Producers: pubs,
		Audit:     trail,
		Log:       log,
		Service:   cfg.ServiceName,
	}
	ah.Register(router, requireUser)

	ch := &httpx.ContentHandler{
		Posts: &content.Repo{DB: db},
		Log:   log,
	}
	ch.Register(router, requireUser)

	// HTTP server
	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router}

	// graceful shutdown
	go func() {
		log.Info("HTTP listening", zap.String("addr", cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("listen", zap.Error(err))
		}
	}()

	// wait signal
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Info("shutting down...")

	ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel2()
	_ = srv.Shutdown(ctx2)
	for _, p := range producers {
		p.Close() // close inbox -> flush & close writer
	}
	for _, p := range producers {
		p.WaitClosed() // drain
	}
}
