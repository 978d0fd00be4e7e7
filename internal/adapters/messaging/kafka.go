package messaging

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/athebyme/gomarket-platform/harvester/pkg/interfaces"
	"github.com/confluentinc/confluent-kafka-go/kafka"
	"github.com/google/uuid"
)

// KafkaPublisher реализация PublisherPort с использованием Kafka
type KafkaPublisher struct {
	producer *kafka.Producer
	logger   interfaces.LoggerPort
}

// NewKafkaPublisher создает producer
func NewKafkaPublisher(brokers []string, clientID string, logger interfaces.LoggerPort) (*KafkaPublisher, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("не заданы брокеры Kafka")
	}
	if clientID == "" {
		clientID = "ozon-harvester"
	}

	producer, err := kafka.NewProducer(&kafka.ConfigMap{
		"bootstrap.servers":  strings.Join(brokers, ","),
		"client.id":          clientID,
		"acks":               "all",
		"retries":            5,
		"retry.backoff.ms":   500,
		"compression.type":   "snappy",
		"linger.ms":          10,
		"message.max.bytes":  1000000,
		"enable.idempotence": true,
	})
	if err != nil {
		return nil, fmt.Errorf("ошибка создания Kafka producer: %w", err)
	}

	p := &KafkaPublisher{producer: producer, logger: logger.WithField("component", "kafka")}
	go p.drainEvents()
	return p, nil
}

// drainEvents читает служебные события producer, которые не относятся к конкретной отправке
func (p *KafkaPublisher) drainEvents() {
	for ev := range p.producer.Events() {
		if e, ok := ev.(kafka.Error); ok {
			p.logger.Error("Ошибка Kafka",
				interfaces.LogField{Key: "code", Value: e.Code().String()},
				interfaces.LogField{Key: "error", Value: e.Error()},
			)
		}
	}
}

// toKafkaMessage преобразует Message в kafka.Message
func toKafkaMessage(msg *interfaces.Message) *kafka.Message {
	headers := make([]kafka.Header, 0, len(msg.Headers)+2)
	for k, v := range msg.Headers {
		headers = append(headers, kafka.Header{Key: k, Value: []byte(v)})
	}
	headers = append(headers,
		kafka.Header{Key: "message_id", Value: []byte(uuid.New().String())},
		kafka.Header{Key: "timestamp", Value: []byte(time.Now().UTC().Format(time.RFC3339Nano))},
	)

	var key []byte
	if msg.Key != "" {
		key = []byte(msg.Key)
	}

	topic := msg.Topic
	return &kafka.Message{
		TopicPartition: kafka.TopicPartition{Topic: &topic, Partition: kafka.PartitionAny},
		Value:          msg.Value,
		Key:            key,
		Headers:        headers,
	}
}

// Publish отправляет сообщение и ждет отчета о доставке или отмены контекста
func (p *KafkaPublisher) Publish(ctx context.Context, msg *interfaces.Message) error {
	delivery := make(chan kafka.Event, 1)
	if err := p.producer.Produce(toKafkaMessage(msg), delivery); err != nil {
		return fmt.Errorf("ошибка отправки в топик %s: %w", msg.Topic, err)
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case ev := <-delivery:
		m, ok := ev.(*kafka.Message)
		if !ok {
			return fmt.Errorf("неожиданное событие доставки: %v", ev)
		}
		if m.TopicPartition.Error != nil {
			return fmt.Errorf("сообщение не доставлено в %s: %w", msg.Topic, m.TopicPartition.Error)
		}
		return nil
	}
}

// Close закрывает соединение с системой обмена сообщениями
func (p *KafkaPublisher) Close() error {
	if left := p.producer.Flush(15 * 1000); left > 0 {
		p.logger.Warn("Не все сообщения Kafka отправлены до закрытия",
			interfaces.LogField{Key: "left", Value: left})
	}
	p.producer.Close()
	return nil
}
