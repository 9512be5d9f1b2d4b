package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/segmentio/kafka-go"

	"commerce-service/internal/entity"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// KafkaSink streams audit records to a topic.
type KafkaSink struct {
	writer messageWriter
}

func NewKafkaSink(writer *kafka.Writer) *KafkaSink {
	return &KafkaSink{writer: writer}
}

func (s *KafkaSink) Write(ctx context.Context, record entity.AuditRecord) error {
	value, err := json.Marshal(record)
	if err != nil {
		return err
	}

	// audit-create-<uuid>, audit-read_all-<uuid>
	msg := kafka.Message{
		Key:   []byte(fmt.Sprintf("audit-%s-%s", strings.ToLower(record.Action), record.EventID)),
		Value: value,
	}
	if err := s.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish audit record to kafka: %w", err)
	}
	return nil
}
