package interfaces

import (
	"context"
)

// Message представляет исходящее сообщение
type Message struct {
	Topic   string            `json:"topic"`
	Key     string            `json:"key"`
	Value   []byte            `json:"value"`
	Headers map[string]string `json:"headers"`
}

// PublisherPort отправка событий о запусках сбора
type PublisherPort interface {
	// Publish отправляет сообщение и ждет подтверждения доставки
	Publish(ctx context.Context, msg *Message) error

	// Close дожидается отправки буфера и закрывает producer
	Close() error
}
