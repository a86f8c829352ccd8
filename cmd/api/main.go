package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/widodo/go-cart-checkout/internal/auth"
	"github.com/widodo/go-cart-checkout/internal/cart"
	"github.com/widodo/go-cart-checkout/internal/catalog"
	"github.com/widodo/go-cart-checkout/internal/checkout"
	"github.com/widodo/go-cart-checkout/internal/config"
	"github.com/widodo/go-cart-checkout/internal/httpx"
	kafkax "github.com/widodo/go-cart-checkout/internal/kafka"
	"github.com/widodo/go-cart-checkout/internal/ledger"
	"github.com/widodo/go-cart-checkout/internal/postgres"
	"github.com/widodo/go-cart-checkout/internal/redisx"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// DB
	if err := postgres.Migrate(cfg.PostgresDSN); err != nil {
		log.Fatalf("migrate: %v", err)
	}
	db, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("db connect: %v", err)
	}
	defer db.Close()

	// Redis
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	// Kafka producer
	prod := kafkax.NewProducer(cfg.KafkaBrokers, checkout.TopicOrderPlaced, 1024)
	prod.Start(ctx)

	// Stores & engine
	catalogStore := &catalog.PGStore{DB: db}
	engine := &checkout.Engine{
		Catalog: catalogStore,
		Cart:    &cart.PGStore{DB: db},
		Ledger:  &ledger.PGStore{DB: db},
		Runner:  &postgres.Runner{Pool: db},
	}
	authSvc := &auth.Service{
		Users:  &auth.PGUserStore{DB: db},
		Tokens: &auth.RedisTokenStore{Client: rdb},
	}

	// Router & handlers
	router := httpx.NewRouter()
	(&httpx.AuthHandler{Svc: authSvc}).Register(router)
	(&httpx.CatalogHandler{Catalog: catalogStore, Engine: engine, Auth: authSvc}).Register(router)
	(&httpx.CartHandler{
		Engine:   engine,
		Auth:     authSvc,
		Producer: prod,
		Redis:    rdb,
		Service:  cfg.ServiceName,
	}).Register(router)
	(&httpx.OrdersHandler{Engine: engine, Auth: authSvc, Redis: rdb}).Register(router)

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router}

	go func() {
		log.Printf("HTTP listening at %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Println("shutting down...")

	ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel2()
	_ = srv.Shutdown(ctx2)
	prod.Close() // stop intake, flush the buffered events
	prod.WaitClosed()
}
