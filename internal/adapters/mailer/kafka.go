package mailer

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"pet-adoption/internal/ports/mail"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaMailer publica cada mail como JSON en un topic; un worker externo los entrega.
// Send es síncrono (RequireAll): si retorna nil, el broker aceptó el mensaje.
type KafkaMailer struct {
	writer messageWriter
}

func NewKafkaMailer(brokers []string, topic string) *KafkaMailer {
	return &KafkaMailer{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.LeastBytes{},
			RequiredAcks: kafka.RequireAll,
			Async:        false,
			WriteTimeout: 10 * time.Second,
		},
	}
}

func (k *KafkaMailer) Send(ctx context.Context, m mail.Message) error {
	value, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("encode mail: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err = k.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(m.Kind),
		Value: value,
		Time:  time.Now(),
	})
	if err != nil {
		return fmt.Errorf("publish mail: %w", err)
	}
	return nil
}

func (k *KafkaMailer) Close() error {
	return k.writer.Close()
}
