package interfaces

import (
	"context"
	"encoding/json"
	"time"
)

// Snapshot выгрузка одного запуска: таблица -> записи в порядке экспорта
type Snapshot struct {
	RunID     string
	HarvestAt time.Time
	Tables    map[string][]json.RawMessage
}

// SnapshotPort определяет интерфейс хранилища снимков выгрузки.
// Реализация может использовать любую базу данных (PostgreSQL, MySQL и т.д.)
type SnapshotPort interface {
	// SaveSnapshot заменяет содержимое таблиц снимком в одной транзакции
	SaveSnapshot(ctx context.Context, snapshot *Snapshot) error

	// Ping проверяет соединение
	Ping(ctx context.Context) error

	// Close закрывает соединение с хранилищем
	Close() error
}
