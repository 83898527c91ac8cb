// Package events publishes product lifecycle events to Kafka.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"storefront/internal/domain"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// Event types written to the event_type header
const (
	ProductCreated = "product.created"
	ProductUpdated = "product.updated"
	ProductDeleted = "product.deleted"
)

const source = "storefront-catalog"

// Publisher announces product lifecycle changes
type Publisher interface {
	ProductCreated(ctx context.Context, product *domain.Product) error
	ProductUpdated(ctx context.Context, product *domain.Product) error
	ProductDeleted(ctx context.Context, id uuid.UUID) error
	Close() error
}

// Envelope is the JSON body of every message
type Envelope struct {
	EventID    string          `json:"event_id"`
	EventType  string          `json:"event_type"`
	ProductID  string          `json:"product_id"`
	Source     string          `json:"source"`
	OccurredAt time.Time       `json:"occurred_at"`
	Data       json.RawMessage `json:"data,omitempty"`
}

// ProductData is the payload of created/updated events
type ProductData struct {
	Name       string    `json:"name"`
	Slug       string    `json:"slug"`
	Price      float64   `json:"price"`
	Stock      int       `json:"stock"`
	Colors     []string  `json:"colors"`
	Sizes      []string  `json:"sizes"`
	CategoryID uuid.UUID `json:"category_id"`
	BrandID    uuid.UUID `json:"brand_id"`
}

// NewMessage builds the Kafka message for an event about productID.
// product may be nil for deletions.
func NewMessage(topic, eventType string, productID uuid.UUID, product *domain.Product) (kafka.Message, error) {
	env := Envelope{
		EventID:    uuid.NewString(),
		EventType:  eventType,
		ProductID:  productID.String(),
		Source:     source,
		OccurredAt: time.Now().UTC(),
	}

	if product != nil {
		data, err := json.Marshal(ProductData{
			Name:       product.Name,
			Slug:       product.Slug,
			Price:      product.Price,
			Stock:      product.Stock,
			Colors:     product.Colors,
			Sizes:      product.Sizes,
			CategoryID: product.CategoryID,
			BrandID:    product.BrandID,
		})
		if err != nil {
			return kafka.Message{}, fmt.Errorf("marshal product data: %w", err)
		}
		env.Data = data
	}

	value, err := json.Marshal(env)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("marshal event: %w", err)
	}

	return kafka.Message{
		Topic: topic,
		Key:   []byte(env.ProductID),
		Value: value,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(eventType)},
			{Key: "source", Value: []byte(source)},
		},
	}, nil
}

// KafkaPublisher writes events with a kafka-go writer
type KafkaPublisher struct {
	writer *kafka.Writer
	topic  string
	logger *zap.Logger
}

// NewKafkaPublisher creates a publisher writing to topic on brokers
func NewKafkaPublisher(brokers []string, topic string, logger *zap.Logger) *KafkaPublisher {
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Balancer:               &kafka.Hash{},
			BatchTimeout:           10 * time.Millisecond,
			RequiredAcks:           kafka.RequireAll,
			AllowAutoTopicCreation: true,
		},
		topic:  topic,
		logger: logger,
	}
}

func (p *KafkaPublisher) ProductCreated(ctx context.Context, product *domain.Product) error {
	return p.publish(ctx, ProductCreated, product.ID, product)
}

func (p *KafkaPublisher) ProductUpdated(ctx context.Context, product *domain.Product) error {
	return p.publish(ctx, ProductUpdated, product.ID, product)
}

func (p *KafkaPublisher) ProductDeleted(ctx context.Context, id uuid.UUID) error {
	return p.publish(ctx, ProductDeleted, id, nil)
}

func (p *KafkaPublisher) publish(ctx context.Context, eventType string, id uuid.UUID, product *domain.Product) error {
	msg, err := NewMessage(p.topic, eventType, id, product)
	if err != nil {
		return err
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish %s to %s: %w", eventType, p.topic, err)
	}

	p.logger.Debug("Event published",
		zap.String("topic", p.topic),
		zap.String("event_type", eventType),
		zap.String("product_id", id.String()),
	)
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// NopPublisher drops every event. Used when no brokers are configured.
type NopPublisher struct{}

func (NopPublisher) ProductCreated(context.Context, *domain.Product) error { return nil }
func (NopPublisher) ProductUpdated(context.Context, *domain.Product) error { return nil }
func (NopPublisher) ProductDeleted(context.Context, uuid.UUID) error       { return nil }
func (NopPublisher) Close() error                                          { return nil }

// New returns a KafkaPublisher when brokers are set, otherwise a NopPublisher
func New(brokers []string, topic string, logger *zap.Logger) Publisher {
	if len(brokers) == 0 {
		logger.Info("No Kafka brokers configured, product events disabled")
		return NopPublisher{}
	}
	return NewKafkaPublisher(brokers, topic, logger)
}
