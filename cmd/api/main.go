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

	"github.com/adiwangsa/go-marketplace/internal/catalog"
	"github.com/adiwangsa/go-marketplace/internal/checkout"
	"github.com/adiwangsa/go-marketplace/internal/config"
	"github.com/adiwangsa/go-marketplace/internal/httpx"
	"github.com/adiwangsa/go-marketplace/internal/inventory"
	kafkax "github.com/adiwangsa/go-marketplace/internal/kafka"
	"github.com/adiwangsa/go-marketplace/internal/ledger"
	"github.com/adiwangsa/go-marketplace/internal/market"
	"github.com/adiwangsa/go-marketplace/internal/postgres"
	"github.com/adiwangsa/go-marketplace/internal/redisx"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// DB
	db, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("db connect: %v", err)
	}
	defer db.Close()

	// Redis
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	// Kafka producers
	placed := kafkax.NewProducer(cfg.KafkaBrokers, market.TopicOrderPlaced, 1024)
	placed.Start(ctx)
	rejected := kafkax.NewProducer(cfg.KafkaBrokers, market.TopicOrderRejected, 1024)
	rejected.Start(ctx)

	// Stores & engine
	cat := &catalog.PostgresCatalog{DB: db}
	stock := &inventory.PostgresStore{DB: db}
	orders := &ledger.PostgresLedger{DB: db}
	engine := &checkout.Engine{Catalog: cat, Stock: stock, Orders: orders}
	queries := &checkout.Queries{Orders: orders}

	// Handlers
	router := httpx.NewRouter()
	(&httpx.CheckoutHandler{
		Engine:         engine,
		Redis:          rdb,
		PlacedEvents:   placed,
		RejectedEvents: rejected,
		Service:        cfg.ServiceName,
	}).Register(router)
	(&httpx.OrdersHandler{Queries: queries, Redis: rdb}).Register(router)
	(&httpx.ProductsHandler{Catalog: cat, Stock: stock}).Register(router)

	// HTTP server
	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router}

	go func() {
		log.Printf("HTTP listening at %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	// wait signal
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Println("shutting down...")

	ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel2()
	_ = srv.Shutdown(ctx2)
	placed.Close()
	rejected.Close()
	placed.WaitClosed()
	rejected.WaitClosed()
	cancel()
}
