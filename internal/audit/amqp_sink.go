package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"

	"commerce-service/internal/entity"
)

type publisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// AMQPSink fans audit records out through an exchange.
type AMQPSink struct {
	mu       sync.Mutex
	ch       publisher
	exchange string
}

// NewAMQPSink declares a durable fanout exchange on ch and publishes every record to it.
func NewAMQPSink(ch *amqp.Channel, exchange string) (*AMQPSink, error) {
	if err := ch.ExchangeDeclare(exchange, amqp.ExchangeFanout, true, false, false, false, nil); err != nil {
		return nil, fmt.Errorf("declare exchange %s: %w", exchange, err)
	}
	return &AMQPSink{ch: ch, exchange: exchange}, nil
}

func (s *AMQPSink) Write(ctx context.Context, record entity.AuditRecord) error {
	body, err := json.Marshal(record)
	if err != nil {
		return err
	}

	// amqp channels are not safe for concurrent publishing
	s.mu.Lock()
	defer s.mu.Unlock()

	err = s.ch.PublishWithContext(ctx, s.exchange, "audit."+strings.ToLower(record.Action), false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    record.EventID,
		Timestamp:    record.CreatedAt,
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("publish audit record to %s: %w", s.exchange, err)
	}
	return nil
}
