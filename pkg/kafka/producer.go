package pkgkafka

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"github.com/sirupsen/logrus"
)

type KafkaProducer struct {
	producer *kafka.Producer
	cfg      *KafkaConfig
	logger   logrus.FieldLogger
}

func NewKafkaProducer(cfg *KafkaConfig, logger logrus.FieldLogger) (*KafkaProducer, error) {
	if !cfg.Enabled() {
		return nil, errors.New("kafka producer requires at least one broker")
	}

	p, err := kafka.NewProducer(&kafka.ConfigMap{
		"bootstrap.servers":   strings.Join(cfg.Brokers, ","),
		"acks":                "all",
		"enable.idempotence":  true,
		"delivery.timeout.ms": int(cfg.DeliveryTimeout.Milliseconds()),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka producer: %w", err)
	}

	kp := &KafkaProducer{
		producer: p,
		cfg:      cfg,
		logger:   logger.WithField("component", "kafka-producer"),
	}
	go kp.logEvents()
	return kp, nil
}

// logEvents drains reports that are not tied to a delivery channel.
func (p *KafkaProducer) logEvents() {
	for e := range p.producer.Events() {
		switch ev := e.(type) {
		case *kafka.Message:
			fields := logrus.Fields{"TOPIC_PRTN": ev.TopicPartition}
			if ev.TopicPartition.Error != nil {
				p.logger.WithFields(fields).WithError(ev.TopicPartition.Error).Warn("KAFKA:DELIVERY_FAILED")
			} else {
				p.logger.WithFields(fields).Debug("KAFKA:DELIVERY_SUCCESS")
			}
		case kafka.Error:
			p.logger.WithField("code", ev.Code()).WithError(ev).Error("KAFKA:CLIENT_ERROR")
		}
	}
}

// Produce sends one message and waits for its delivery report.
func (p *KafkaProducer) Produce(ctx context.Context, key, value []byte) error {
	topic := p.cfg.Topic
	delivery := make(chan kafka.Event, 1)

	err := p.producer.Produce(&kafka.Message{
		TopicPartition: kafka.TopicPartition{Topic: &topic, Partition: kafka.PartitionAny},
		Key:            key,
		Value:          value,
	}, delivery)
	if err != nil {
		return fmt.Errorf("failed to enqueue message: %w", err)
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case e := <-delivery:
		msg, ok := e.(*kafka.Message)
		if !ok {
			return fmt.Errorf("unexpected delivery event %v", e)
		}
		return msg.TopicPartition.Error
	}
}

func (p *KafkaProducer) Close() {
	remaining := p.producer.Flush(int(p.cfg.DeliveryTimeout.Milliseconds()))
	if remaining > 0 {
		p.logger.WithField("remaining", remaining).Warn("KAFKA:FLUSH_INCOMPLETE")
	}
	p.producer.Close()
}
