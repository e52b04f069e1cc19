package notifications

import (
	"context"
	"fmt"
	"time"

	"boxoffice/pkg/logger"

	"github.com/IBM/sarama"
	"github.com/google/uuid"
)

// Producer interface defines the contract for publishing ledger events
type Producer interface {
	Publish(ctx context.Context, eventType string, aggregateID uuid.UUID, payload interface{}) error
	Close() error
}

// KafkaProducerConfig contains configuration for the Kafka event producer
type KafkaProducerConfig struct {
	Brokers          []string
	Topic            string
	RetryMax         int
	TimeoutMs        int
	RequiredAcks     sarama.RequiredAcks
	CompressionType  sarama.CompressionCodec
	IdempotentWrites bool
	MaxMessageBytes  int
}

// DefaultKafkaProducerConfig returns a default producer configuration
func DefaultKafkaProducerConfig() *KafkaProducerConfig {
	return &KafkaProducerConfig{
		Brokers:          []string{"localhost:9092"},
		Topic:            "boxoffice-ledger-events",
		RetryMax:         3,
		TimeoutMs:        10000,
		RequiredAcks:     sarama.WaitForAll,
		CompressionType:  sarama.CompressionSnappy,
		IdempotentWrites: true,
		MaxMessageBytes:  1000000,
	}
}

// KafkaEventProducer publishes ledger events to Kafka
type KafkaEventProducer struct {
	producer sarama.SyncProducer
	config   *KafkaProducerConfig
	log      *logger.Logger
}

// NewKafkaEventProducer creates a new Kafka event producer
func NewKafkaEventProducer(config *KafkaProducerConfig, log *logger.Logger) (*KafkaEventProducer, error) {
	if config == nil {
		config = DefaultKafkaProducerConfig()
	}
	if log == nil {
		log = logger.GetDefault()
	}

	saramaConfig := sarama.NewConfig()
	saramaConfig.Producer.Return.Successes = true
	saramaConfig.Producer.Return.Errors = true
	saramaConfig.Producer.RequiredAcks = config.RequiredAcks
	saramaConfig.Producer.Compression = config.CompressionType
	saramaConfig.Producer.Retry.Max = config.RetryMax
	saramaConfig.Producer.Timeout = time.Duration(config.TimeoutMs) * time.Millisecond
	saramaConfig.Producer.Idempotent = config.IdempotentWrites
	saramaConfig.Producer.MaxMessageBytes = config.MaxMessageBytes
	if config.IdempotentWrites {
		saramaConfig.Net.MaxOpenRequests = 1
	}

	// Hash partitioner keeps one aggregate's events ordered on one partition.
	saramaConfig.Producer.Partitioner = sarama.NewHashPartitioner

	producer, err := sarama.NewSyncProducer(config.Brokers, saramaConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create Kafka producer: %w", err)
	}

	log.Info("kafka event producer created", "topic", config.Topic)
	return &KafkaEventProducer{
		producer: producer,
		config:   config,
		log:      log,
	}, nil
}

// Publish sends one ledger event to the topic.
func (p *KafkaEventProducer) Publish(ctx context.Context, eventType string, aggregateID uuid.UUID, payload interface{}) error {
	event, err := NewLedgerEvent(eventType, aggregateID, payload)
	if err != nil {
		return fmt.Errorf("failed to build ledger event: %w", err)
	}

	messageBytes, err := event.ToJSON()
	if err != nil {
		return fmt.Errorf("failed to marshal ledger event: %w", err)
	}

	message := &sarama.ProducerMessage{
		Topic:     p.config.Topic,
		Key:       sarama.StringEncoder(event.PartitionKey()),
		Value:     sarama.ByteEncoder(messageBytes),
		Timestamp: event.OccurredAt,
		Headers: []sarama.RecordHeader{
			{Key: []byte("event_id"), Value: []byte(event.ID.String())},
			{Key: []byte("event_type"), Value: []byte(event.Type)},
			{Key: []byte("aggregate_id"), Value: []byte(event.AggregateID.String())},
			{Key: []byte("occurred_at"), Value: []byte(event.OccurredAt.Format(time.RFC3339))},
			{Key: []byte("producer"), Value: []byte("boxoffice-ledger")},
		},
	}

	partition, offset, err := p.producer.SendMessage(message)
	if err != nil {
		return fmt.Errorf("failed to send ledger event: %w", err)
	}

	p.log.InfoWithContext(ctx, "ledger event published", map[string]interface{}{
		"event_type":   event.Type,
		"aggregate_id": event.AggregateID.String(),
		"partition":    partition,
		"offset":       offset,
	})
	return nil
}

// Close closes the Kafka producer
func (p *KafkaEventProducer) Close() error {
	if p.producer != nil {
		if err := p.producer.Close(); err != nil {
			return fmt.Errorf("failed to close Kafka producer: %w", err)
		}
		p.log.Info("kafka event producer closed")
	}
	return nil
}
