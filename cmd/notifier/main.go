package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/ariefcatur/go-seller-assistant/internal/config"
	"github.com/ariefcatur/go-seller-assistant/internal/dispatch"
	kafkax "github.com/ariefcatur/go-seller-assistant/internal/kafka"
	"github.com/ariefcatur/go-seller-assistant/internal/orders"
	"github.com/ariefcatur/go-seller-assistant/internal/redisx"
	"github.com/ariefcatur/go-seller-assistant/internal/whatsapp"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Redis, untuk dedup per event_id
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	wa := whatsapp.NewClient(cfg.WhatsAppAPIURL, cfg.WhatsAppPhoneNumberID, cfg.WhatsAppAccessToken)
	w := &dispatch.Worker{
		Notifier: &dispatch.Direct{Sender: wa},
		Redis:    rdb,
		Name:     cfg.ServiceName + "-notifier",
	}

	cons := kafkax.NewConsumer(cfg.KafkaBrokers, cfg.NotifierGroup, orders.TopicNotification, cfg.NotifierWorkers)
	log.Printf("notifier started: group=%s topic=%s workers=%d", cfg.NotifierGroup, orders.TopicNotification, cfg.NotifierWorkers)
	if err := cons.Start(ctx, w.HandleNotification); err != nil && ctx.Err() == nil {
		log.Fatalf("consumer exit: %v", err)
	}
	log.Println("notifier stopped")
}
