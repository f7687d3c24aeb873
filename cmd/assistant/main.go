// Command assistant serves the shopping tools to an MCP agent host over
// stdio. Stdout carries the protocol, so logs go to stderr only.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/ariefcatur/go-seller-assistant/internal/assistant"
	"github.com/ariefcatur/go-seller-assistant/internal/backend"
	"github.com/ariefcatur/go-seller-assistant/internal/config"
	"github.com/ariefcatur/go-seller-assistant/internal/dispatch"
	kafkax "github.com/ariefcatur/go-seller-assistant/internal/kafka"
	"github.com/ariefcatur/go-seller-assistant/internal/orders"
	"github.com/ariefcatur/go-seller-assistant/internal/redisx"
	"github.com/ariefcatur/go-seller-assistant/internal/whatsapp"
)

func main() {
	_ = godotenv.Load()
	log.SetOutput(os.Stderr)

	cfg := config.Load()
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	be, err := backend.Open(ctx, cfg, rdb)
	if err != nil {
		log.Fatalf("store: %v", err)
	}
	defer be.Close()

	// order.placed dari assistant ikut masuk ke Kafka
	prod := kafkax.NewProducer(cfg.KafkaBrokers, 256)
	prodCtx, stopProd := context.WithCancel(context.Background())
	defer stopProd()
	prod.Start(prodCtx)

	svc := &orders.Service{
		Store:  be.Store,
		Events: &dispatch.KafkaEvents{Producer: prod, ServiceName: cfg.ServiceName + "-assistant"},
	}
	srv := assistant.NewServer(assistant.Deps{
		Service:       svc,
		SellerID:      cfg.DefaultSellerID,
		Conversations: &redisx.ConversationLog{RDB: rdb},
		Sender:        whatsapp.NewClient(cfg.WhatsAppAPIURL, cfg.WhatsAppPhoneNumberID, cfg.WhatsAppAccessToken),
	})

	if err := srv.Serve(ctx); err != nil {
		log.Printf("assistant exit: %v", err)
	}
	prod.Close()
	prod.WaitClosed()
}
