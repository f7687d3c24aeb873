package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/ariefcatur/go-seller-assistant/internal/auth"
	"github.com/ariefcatur/go-seller-assistant/internal/backend"
	"github.com/ariefcatur/go-seller-assistant/internal/config"
	"github.com/ariefcatur/go-seller-assistant/internal/dispatch"
	"github.com/ariefcatur/go-seller-assistant/internal/httpx"
	kafkax "github.com/ariefcatur/go-seller-assistant/internal/kafka"
	"github.com/ariefcatur/go-seller-assistant/internal/live"
	"github.com/ariefcatur/go-seller-assistant/internal/orders"
	"github.com/ariefcatur/go-seller-assistant/internal/payments"
	"github.com/ariefcatur/go-seller-assistant/internal/redisx"
	"github.com/ariefcatur/go-seller-assistant/internal/whatsapp"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("config: %v", err)
	}
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Redis
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	// Store
	be, err := backend.Open(ctx, cfg, rdb)
	if err != nil {
		log.Fatalf("store: %v", err)
	}
	defer be.Close()
	verifier, err := be.Verifier(ctx)
	if err != nil {
		log.Fatalf("auth: %v", err)
	}

	// Kafka producer, satu untuk semua topic
	prod := kafkax.NewProducer(cfg.KafkaBrokers, 1024)
	prodCtx, stopProd := context.WithCancel(context.Background())
	defer stopProd()
	prod.Start(prodCtx)
	events := &dispatch.KafkaEvents{Producer: prod, ServiceName: cfg.ServiceName}

	wa := whatsapp.NewClient(cfg.WhatsAppAPIURL, cfg.WhatsAppPhoneNumberID, cfg.WhatsAppAccessToken)
	var notifier orders.Notifier = &dispatch.Direct{Sender: wa}
	if cfg.NotifyMode == "kafka" {
		notifier = &dispatch.Queue{Producer: prod, ServiceName: cfg.ServiceName}
	}

	hub := live.NewHub()
	svc := &orders.Service{
		Store:    be.Store,
		Payments: payments.NewClient(cfg.RazorpayAPIURL, cfg.RazorpayCallbackURL),
		Notifier: notifier,
		Events:   orders.Sinks{events, hub},
	}

	router := httpx.NewRouter()
	(&httpx.SellerHandler{
		Service:       svc,
		Issuer:        auth.NewIssuer(cfg.JWTSecret, cfg.SessionTTL),
		Verifier:      verifier,
		Hub:           hub,
		AllowDevLogin: cfg.AllowDevLogin,
	}).Register(router)
	(&httpx.WebhookHandler{
		Service:        svc,
		Redis:          rdb,
		RazorpaySecret: cfg.RazorpayWebhookSecret,
		VerifyToken:    cfg.WhatsAppVerifyToken,
		SellerID:       cfg.DefaultSellerID,
		Conversations:  &redisx.ConversationLog{RDB: rdb},
		Inbound:        events,
	}).Register(router)

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router, ReadHeaderTimeout: 10 * time.Second}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Printf("HTTP listening at %s (store=%s notify=%s)", cfg.HTTPAddr, be.Kind, cfg.NotifyMode)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Println("shutting down...")
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutCtx)
	})
	if err := g.Wait(); err != nil {
		log.Printf("server exit: %v", err)
	}

	prod.Close()      // tutup inbox -> flush & close writer
	prod.WaitClosed() // drain
}
