package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/junhong-liao/art-club/internal/cfg"
	"github.com/junhong-liao/art-club/internal/pin"
)

func main() {
	config := cfg.LoadConfig()
	if len(config.JWTSecret) < 32 {
		log.Fatalf("JWT_SECRET must be at least 32 characters long for security")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(config.MongoURI))
	if err != nil {
		log.Fatalf("failed to connect mongo: %v", err)
	}
	defer func() {
		if err := mongoClient.Disconnect(context.Background()); err != nil {
			log.Printf("mongo disconnect error: %v", err)
		}
	}()

	repo := pin.NewRepository(mongoClient.Database(config.MongoDatabase))

	// Object storage is optional; without credentials every relocation
	// fails soft and pins keep their submitted links.
	var storage pin.ObjectStorage
	if config.MinioEndpoint != "" && config.MinioAccessKey != "" && config.MinioSecretKey != "" {
		storage, err = pin.NewMinioStorage(
			config.MinioEndpoint,
			config.MinioAccessKey,
			config.MinioSecretKey,
			config.MinioUseSSL,
			config.MinioBucket,
			config.StoragePublicURL,
			config.StorageCDNURL,
		)
		if err != nil {
			log.Fatalf("failed to init minio: %v", err)
		}
	} else {
		log.Println("object storage credentials not set, image relocation disabled")
	}

	var redisClient *redis.Client
	if config.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     config.RedisAddr,
			Password: config.RedisPassword,
			DB:       0,
		})
		if err := redisClient.Ping(context.Background()).Err(); err != nil {
			log.Fatalf("failed to connect redis: %v", err)
		}
	}

	var producer pin.EventProducer
	if len(config.KafkaBrokers) > 0 {
		producer = pin.NewKafkaProducer(config.KafkaBrokers, config.KafkaTopic)
		defer producer.Close()
	} else {
		log.Println("KAFKA_BROKERS not set, pin events disabled")
	}

	relocator := pin.NewImageRelocator(storage, repo, nil, config.MaxBodyBytes)
	labeler := pin.NewGeminiLabeler(config.GeminiAPIKey, config.GeminiModel, config.LabelLimit)
	generator := pin.NewOpenAIGenerator(config.OpenAIAPIKey)

	service := pin.NewService(repo, relocator, labeler, generator, producer, redisClient, pin.Options{
		PinLimit:     config.PinLimit,
		AIImageLimit: config.AIImageLimit,
	})

	authorizer := pin.NewAuthorizer([]byte(config.JWTSecret), redisClient)
	handler := pin.NewHandler(service, authorizer)

	handlerWithMiddleware := pin.SecurityHeadersMiddleware(
		pin.CORSMiddleware(
			pin.RequestSizeLimitMiddleware(config.MaxBodyBytes)(handler.Routes()),
		),
	)

	httpPort := config.HTTPPort
	if httpPort == "" {
		httpPort = "8080"
	}
	httpServer := &http.Server{
		Addr:    ":" + httpPort,
		Handler: handlerWithMiddleware,
	}

	go func() {
		log.Printf("HTTP server listening on :%s", httpPort)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("http server error: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	log.Println("shutdown signal received")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("http shutdown error: %v", err)
	}
}
