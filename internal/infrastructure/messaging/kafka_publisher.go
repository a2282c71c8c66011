// Package messaging publica cambios de stock confirmados hacia Kafka.
package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/jhoicas/pyme-stock-api/internal/application/inventory"
)

var (
	_ inventory.StockPublisher = (*KafkaStockPublisher)(nil)
	_ inventory.StockPublisher = NopStockPublisher{}
)

// messageWriter lo implementa *kafka.Writer.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaStockPublisher publica un mensaje JSON por cambio, con el id de producto como key para
// conservar el orden por producto dentro de la partición.
type KafkaStockPublisher struct {
	writer messageWriter
}

// NewKafkaStockPublisher crea el writer hacia brokers/topic.
func NewKafkaStockPublisher(brokers []string, topic string) *KafkaStockPublisher {
	return &KafkaStockPublisher{writer: &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		BatchTimeout: 10 * time.Millisecond,
		BatchSize:    100,
		RequiredAcks: kafka.RequireOne,
	}}
}

// PublishStockChanged envía los cambios en un solo lote.
func (p *KafkaStockPublisher) PublishStockChanged(ctx context.Context, changes ...inventory.StockChange) error {
	if len(changes) == 0 {
		return nil
	}
	msgs := make([]kafka.Message, 0, len(changes))
	for _, c := range changes {
		payload, err := json.Marshal(c)
		if err != nil {
			return fmt.Errorf("serializar cambio de stock: %w", err)
		}
		msgs = append(msgs, kafka.Message{
			Key:   []byte(c.TenantID + ":" + c.ProductID),
			Value: payload,
			Headers: []kafka.Header{
				{Key: "tenant_id", Value: []byte(c.TenantID)},
				{Key: "event", Value: []byte("stock.changed")},
			},
		})
	}
	if err := p.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("publicar %d cambios de stock: %w", len(msgs), err)
	}
	return nil
}

// Close libera el writer.
func (p *KafkaStockPublisher) Close() error {
	return p.writer.Close()
}

// NopStockPublisher descarta los cambios (Kafka deshabilitado).
type NopStockPublisher struct{}

func (NopStockPublisher) PublishStockChanged(context.Context, ...inventory.StockChange) error {
	return nil
}
