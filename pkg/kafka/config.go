package pkgkafka

import (
	"fmt"
	"strings"
	"time"
)

type KafkaEncoder string

const (
	KafkaEncoder_JSON KafkaEncoder = "json"
	KafkaEncoder_AVRO KafkaEncoder = "avro"
)

func ParseEncoder(s string) (KafkaEncoder, error) {
	switch KafkaEncoder(strings.ToLower(strings.TrimSpace(s))) {
	case "", KafkaEncoder_JSON:
		return KafkaEncoder_JSON, nil
	case KafkaEncoder_AVRO:
		return KafkaEncoder_AVRO, nil
	default:
		return "", fmt.Errorf("unsupported kafka encoder %q", s)
	}
}

type KafkaConfig struct {
	Brokers         []string
	Topic           string
	Encoder         KafkaEncoder
	DeliveryTimeout time.Duration
}

func NewKafkaConfig() *KafkaConfig {
	return &KafkaConfig{
		Brokers:         []string{"localhost:9092"},
		Topic:           "payments.events",
		Encoder:         KafkaEncoder_JSON,
		DeliveryTimeout: 10 * time.Second,
	}
}

func (c *KafkaConfig) Enabled() bool {
	return len(c.Brokers) > 0
}
