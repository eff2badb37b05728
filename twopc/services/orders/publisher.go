package main

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

// OrderResolved é o evento publicado quando um pedido sai de pending
type OrderResolved struct {
	OrderID         string    `json:"order_id"`
	Outcome         string    `json:"outcome"`
	Product         string    `json:"product"`
	Quantity        int       `json:"quantity"`
	Price           float64   `json:"price"`
	Address         string    `json:"address"`
	Account         int       `json:"account"`
	Reasons         []string  `json:"reasons,omitempty"`
	Inconsistencies []string  `json:"inconsistencies,omitempty"`
	Votes           []Vote    `json:"votes"`
	ResolvedAt      time.Time `json:"resolved_at"`
}

func NewOrderResolved(order *Order) OrderResolved {
	return OrderResolved{
		OrderID:         order.OrderID,
		Outcome:         order.Status,
		Product:         order.Product,
		Quantity:        order.Quantity,
		Price:           order.Price,
		Address:         order.Address,
		Account:         order.Account,
		Reasons:         order.Reasons,
		Inconsistencies: order.Inconsistencies,
		Votes:           order.Votes,
		ResolvedAt:      order.UpdatedAt.UTC(),
	}
}

// messageWriter é a parte de *kafka.Writer usada pelo publisher
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaOutcomePublisher publica OrderResolved com o order id como chave
type KafkaOutcomePublisher struct {
	writer messageWriter
}

func NewKafkaOutcomePublisher(brokers []string, topic string) *KafkaOutcomePublisher {
	return &KafkaOutcomePublisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireOne,
			BatchTimeout: 10 * time.Millisecond,
			MaxAttempts:  3,
			WriteTimeout: 2 * time.Second,
		},
	}
}

func (p *KafkaOutcomePublisher) Publish(ctx context.Context, order *Order) error {
	payload, err := json.Marshal(NewOrderResolved(order))
	if err != nil {
		return errors.Wrap(err, "marshal order outcome")
	}

	carrier := propagation.MapCarrier{}
	otel.GetTextMapPropagator().Inject(ctx, carrier)
	headers := make([]kafka.Header, 0, len(carrier))
	for key, value := range carrier {
		headers = append(headers, kafka.Header{Key: key, Value: []byte(value)})
	}

	msg := kafka.Message{
		Key:     []byte(order.OrderID),
		Value:   payload,
		Headers: headers,
		Time:    time.Now().UTC(),
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return errors.Wrapf(err, "publish outcome of order %s", order.OrderID)
	}
	return nil
}

func (p *KafkaOutcomePublisher) Close() error {
	return p.writer.Close()
}

type noopPublisher struct{}

func (noopPublisher) Publish(context.Context, *Order) error { return nil }

func (noopPublisher) Close() error { return nil }

// parseBrokers lê a lista "host1:9092,host2:9092"
func parseBrokers(brokersCSV string) []string {
	var brokers []string
	for _, broker := range strings.Split(brokersCSV, ",") {
		if broker = strings.TrimSpace(broker); broker != "" {
			brokers = append(brokers, broker)
		}
	}
	return brokers
}
