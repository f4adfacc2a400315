package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/junhong-liao/art-club/internal/cfg"
	"github.com/junhong-liao/art-club/internal/notification"
)

func main() {
	conf := cfg.LoadConfig()
	logger := log.New(os.Stdout, "[notifier] ", log.LstdFlags|log.Lmicroseconds)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if len(conf.KafkaBrokers) == 0 {
		logger.Fatal("KAFKA_BROKERS must be set")
	}

	notifier := notification.NewLogNotifier(logger)
	handler := notification.NewEventHandler(notifier)
	consumer := notification.NewKafkaConsumer(conf.KafkaBrokers, conf.KafkaTopic, conf.KafkaGroupID, handler)
	defer consumer.Close()

	errCh := make(chan error, 1)

	go func() {
		logger.Printf("Kafka consumer subscribing to topic=%s group=%s", conf.KafkaTopic, conf.KafkaGroupID)
		errCh <- consumer.Start(ctx)
	}()

	select {
	case <-ctx.Done():
		logger.Println("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			logger.Printf("consumer error: %v", err)
		}
	}

	logger.Println("notifier stopped")
}
