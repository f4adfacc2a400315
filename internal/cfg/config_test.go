package cfg

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("KAFKA_BROKERS", "")
	t.Setenv("MONGODB_DATABASE", "")
	t.Setenv("PIN_LIMIT", "")
	t.Setenv("MAX_BODY_SIZE", "")

	config := LoadConfig()

	assert.Equal(t, "artclub", config.MongoDatabase)
	assert.Equal(t, "artclub-images", config.MinioBucket)
	assert.Equal(t, "gemini-1.5-flash", config.GeminiModel)
	assert.Equal(t, "pin-events", config.KafkaTopic)
	assert.Equal(t, 10, config.PinLimit)
	assert.Equal(t, 5, config.AIImageLimit)
	assert.Equal(t, 10, config.LabelLimit)
	assert.Equal(t, int64(10*1024*1024), config.MaxBodyBytes)
	assert.Empty(t, config.KafkaBrokers)
}

func TestLoadConfig_Overrides(t *testing.T) {
	t.Setenv("PIN_LIMIT", "3")
	t.Setenv("AI_IMAGE_LIMIT", "1")
	t.Setenv("MAX_BODY_SIZE", "1024")
	t.Setenv("KAFKA_BROKERS", "broker-1:9092, broker-2:9092,")
	t.Setenv("MINIO_USE_SSL", "true")

	config := LoadConfig()

	assert.Equal(t, 3, config.PinLimit)
	assert.Equal(t, 1, config.AIImageLimit)
	assert.Equal(t, int64(1024), config.MaxBodyBytes)
	assert.Equal(t, []string{"broker-1:9092", "broker-2:9092"}, config.KafkaBrokers)
	assert.True(t, config.MinioUseSSL)
}

func TestLoadConfig_IgnoresInvalidNumbers(t *testing.T) {
	t.Setenv("PIN_LIMIT", "not-a-number")
	t.Setenv("MAX_BODY_SIZE", "also-not")

	config := LoadConfig()

	assert.Equal(t, 10, config.PinLimit)
	assert.Equal(t, int64(10*1024*1024), config.MaxBodyBytes)
}
