// Package events publishes order domain events to Kafka.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/IBM/sarama"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/01moynul/mealdrop-golang/internal/models"
)

// Topics
const (
	TopicOrderPlaced        = "order.placed"
	TopicOrderStatusChanged = "order.status_changed"
)

// OrderEvent is the payload of every order topic.
type OrderEvent struct {
	OrderID     int64              `json:"orderId"`
	OrderNumber string             `json:"orderNumber"`
	UserID      int64              `json:"userId"`
	Status      models.OrderStatus `json:"status"`
	Previous    models.OrderStatus `json:"previousStatus,omitempty"`
	Total       decimal.Decimal    `json:"total"`
	OccurredAt  time.Time          `json:"occurredAt"`
}

// NewOrderEvent fills an OrderEvent from o.
func NewOrderEvent(o *models.Order, previous models.OrderStatus, at time.Time) OrderEvent {
	return OrderEvent{
		OrderID:     o.ID,
		OrderNumber: o.OrderNumber,
		UserID:      o.UserID,
		Status:      o.Status,
		Previous:    previous,
		Total:       o.Total,
		OccurredAt:  at,
	}
}

// Publisher sends an event to a topic.
type Publisher interface {
	Publish(ctx context.Context, topic string, event OrderEvent) error
	Close() error
}

// KafkaPublisher is a Publisher on a sarama SyncProducer.
type KafkaPublisher struct {
	producer sarama.SyncProducer
	log      *zap.Logger
}

// NewKafkaPublisher connects to brokers, retrying a few times while the
// cluster comes up.
func NewKafkaPublisher(brokers []string, log *zap.Logger) (*KafkaPublisher, error) {
	config := sarama.NewConfig()
	config.Producer.Return.Successes = true
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Retry.Max = 3

	var producer sarama.SyncProducer
	var err error
	for i := 1; i <= 5; i++ {
		producer, err = sarama.NewSyncProducer(brokers, config)
		if err == nil {
			log.Info("kafka producer initialized", zap.Strings("brokers", brokers))
			return NewKafkaPublisherFromProducer(producer, log), nil
		}
		log.Warn("waiting for kafka", zap.Int("attempt", i), zap.Error(err))
		time.Sleep(2 * time.Second)
	}
	return nil, fmt.Errorf("start kafka producer: %w", err)
}

// NewKafkaPublisherFromProducer wraps an existing producer.
func NewKafkaPublisherFromProducer(p sarama.SyncProducer, log *zap.Logger) *KafkaPublisher {
	return &KafkaPublisher{producer: p, log: log}
}

// Publish implements Publisher. Messages are keyed by order number so every
// event of one order lands on the same partition.
func (p *KafkaPublisher) Publish(ctx context.Context, topic string, event OrderEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", topic, err)
	}

	msg := &sarama.ProducerMessage{
		Topic: topic,
		Key:   sarama.StringEncoder(event.OrderNumber),
		Value: sarama.ByteEncoder(data),
		Headers: []sarama.RecordHeader{
			{Key: []byte("user_id"), Value: []byte(strconv.FormatInt(event.UserID, 10))},
		},
	}

	partition, offset, err := p.producer.SendMessage(msg)
	if err != nil {
		return fmt.Errorf("send %s event: %w", topic, err)
	}

	p.log.Debug("published event",
		zap.String("topic", topic),
		zap.String("order_number", event.OrderNumber),
		zap.Int32("partition", partition),
		zap.Int64("offset", offset))
	return nil
}

// Close flushes and closes the producer.
func (p *KafkaPublisher) Close() error {
	return p.producer.Close()
}

// Nop drops every event. It stands in when no brokers are configured.
type Nop struct{}

func (Nop) Publish(context.Context, string, OrderEvent) error { return nil }
func (Nop) Close() error                                      { return nil }
