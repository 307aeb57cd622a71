package event

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/khoahotran/reel-forge/internal/config"
	"github.com/khoahotran/reel-forge/pkg/logger"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

const (
	TopicGenerationRequested = "video.generation.requested"
	TopicGenerationStatus    = "video.generation.status"
)

type KafkaProducerClient struct {
	RequestsWriter *kafka.Writer
	StatusWriter   *kafka.Writer
	logger         logger.Logger
}

func NewKafkaProducerClient(cfg config.Config, log logger.Logger) (*KafkaProducerClient, error) {
	brokers := cfg.Kafka.Brokers
	if len(brokers) == 0 {
		return nil, fmt.Errorf("config Kafka brokers not found")
	}

	// writer 'video.generation.requested'
	requestsWriter := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        TopicGenerationRequested,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
	}

	// writer 'video.generation.status'
	statusWriter := &kafka.Writer{
		Addr:     kafka.TCP(brokers...),
		Topic:    TopicGenerationStatus,
		Balancer: &kafka.Hash{},
	}

	log.Info("Initialize Kafka producers successfully", zap.Strings("brokers", brokers))

	return &KafkaProducerClient{
		RequestsWriter: requestsWriter,
		StatusWriter:   statusWriter,
		logger:         log,
	}, nil
}

func (c *KafkaProducerClient) PublishGenerationRequested(ctx context.Context, p GenerationRequestedPayload) error {
	return c.publish(ctx, c.RequestsWriter, p.ContentID, p)
}

func (c *KafkaProducerClient) PublishGenerationStatus(ctx context.Context, p GenerationStatusPayload) error {
	return c.publish(ctx, c.StatusWriter, p.ContentID, p)
}

// messages are keyed by content id so one content's events stay ordered
func (c *KafkaProducerClient) publish(ctx context.Context, w *kafka.Writer, contentID int64, payload any) error {
	value, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", w.Topic, err)
	}
	msg := kafka.Message{Key: []byte(strconv.FormatInt(contentID, 10)), Value: value}
	if err := w.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish %s event: %w", w.Topic, err)
	}
	return nil
}

func (c *KafkaProducerClient) Close() {
	if c.RequestsWriter != nil {
		c.RequestsWriter.Close()
	}
	if c.StatusWriter != nil {
		c.StatusWriter.Close()
	}
	c.logger.Info("Closed Kafka producers")
}
