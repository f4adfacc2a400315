package cfg

import (
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	HTTPPort string

	MongoURI      string
	MongoDatabase string

	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioUseSSL    bool
	MinioBucket    string
	// Base URL the bucket is served from; derived from the endpoint when empty.
	StoragePublicURL string
	// Optional CDN distribution in front of the bucket.
	StorageCDNURL string

	RedisAddr     string
	RedisPassword string

	KafkaBrokers []string
	KafkaTopic   string
	KafkaGroupID string

	JWTSecret string

	GeminiAPIKey string
	GeminiModel  string

	OpenAIAPIKey string

	PinLimit     int
	AIImageLimit int
	LabelLimit   int

	MaxBodyBytes int64
}

func LoadConfig() Config {
	if err := godotenv.Load(); err != nil {
		log.Println(".env not found, using environment variables")
	}

	cfg := Config{
		HTTPPort:         os.Getenv("HTTP_PORT"),
		MongoURI:         os.Getenv("MONGODB_URI"),
		MongoDatabase:    os.Getenv("MONGODB_DATABASE"),
		MinioEndpoint:    os.Getenv("MINIO_ENDPOINT"),
		MinioAccessKey:   os.Getenv("MINIO_ACCESS_KEY"),
		MinioSecretKey:   os.Getenv("MINIO_SECRET_KEY"),
		MinioBucket:      os.Getenv("MINIO_BUCKET"),
		StoragePublicURL: os.Getenv("STORAGE_PUBLIC_URL"),
		StorageCDNURL:    os.Getenv("STORAGE_CDN_URL"),
		RedisAddr:        os.Getenv("REDIS_ADDR"),
		RedisPassword:    os.Getenv("REDIS_PASSWORD"),
		KafkaTopic:       os.Getenv("KAFKA_TOPIC"),
		KafkaGroupID:     os.Getenv("KAFKA_GROUP_ID"),
		JWTSecret:        os.Getenv("JWT_SECRET"),
		GeminiAPIKey:     os.Getenv("GEMINI_API_KEY"),
		GeminiModel:      os.Getenv("GEMINI_MODEL"),
		OpenAIAPIKey:     os.Getenv("OPENAI_API_KEY"),
	}

	if cfg.MongoDatabase == "" {
		cfg.MongoDatabase = "artclub"
	}
	if cfg.MinioBucket == "" {
		cfg.MinioBucket = "artclub-images"
	}
	if cfg.GeminiModel == "" {
		cfg.GeminiModel = "gemini-1.5-flash"
	}
	if cfg.KafkaTopic == "" {
		cfg.KafkaTopic = "pin-events"
	}
	if cfg.KafkaGroupID == "" {
		cfg.KafkaGroupID = "pin-notifier"
	}

	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		for _, b := range strings.Split(brokers, ",") {
			if trimmed := strings.TrimSpace(b); trimmed != "" {
				cfg.KafkaBrokers = append(cfg.KafkaBrokers, trimmed)
			}
		}
	}

	// MINIO_USE_SSL optional
	if os.Getenv("MINIO_USE_SSL") == "true" || os.Getenv("MINIO_USE_SSL") == "1" {
		cfg.MinioUseSSL = true
	}

	cfg.PinLimit = intEnv("PIN_LIMIT", 10)
	cfg.AIImageLimit = intEnv("AI_IMAGE_LIMIT", 5)
	cfg.LabelLimit = intEnv("LABEL_LIMIT", 10)

	// MAX_BODY_SIZE optional, default 10MB (inline data URIs can be large)
	if maxStr := os.Getenv("MAX_BODY_SIZE"); maxStr != "" {
		if v, err := strconv.ParseInt(maxStr, 10, 64); err == nil {
			cfg.MaxBodyBytes = v
		}
	}
	if cfg.MaxBodyBytes == 0 {
		cfg.MaxBodyBytes = 10 * 1024 * 1024
	}

	return cfg
}

func intEnv(key string, def int) int {
	if raw := os.Getenv(key); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 {
			return v
		}
	}
	return def
}
