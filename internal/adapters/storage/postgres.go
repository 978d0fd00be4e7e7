package postgres

import (
	"context"
	"fmt"
	"sort"

	"github.com/athebyme/gomarket-platform/harvester/pkg/interfaces"
	"github.com/athebyme/gomarket-platform/harvester/pkg/tx"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const schemaSQL = `
CREATE SCHEMA IF NOT EXISTS harvest;

CREATE TABLE IF NOT EXISTS harvest.runs (
	run_id       TEXT PRIMARY KEY,
	harvested_at TIMESTAMPTZ NOT NULL,
	tables       JSONB NOT NULL
);

CREATE TABLE IF NOT EXISTS harvest.records (
	table_name TEXT NOT NULL,
	position   INTEGER NOT NULL,
	run_id     TEXT NOT NULL,
	doc        JSONB NOT NULL,
	PRIMARY KEY (table_name, position)
);
`

var recordColumns = []string{"table_name", "position", "run_id", "doc"}

// SnapshotStorage реализация SnapshotPort для PostgreSQL: таблицы harvest.*
// каждый запуск полностью заменяются последним снимком
type SnapshotStorage struct {
	pool      *pgxpool.Pool
	txManager tx.TxManager
	logger    interfaces.LoggerPort
}

// NewSnapshotStorage подключается к PostgreSQL и создает схему
func NewSnapshotStorage(ctx context.Context, connectionString string, logger interfaces.LoggerPort) (*SnapshotStorage, error) {
	pool, err := pgxpool.New(ctx, connectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}

	s := &SnapshotStorage{
		pool:      pool,
		txManager: tx.NewTxManager(pool, logger),
		logger:    logger.WithField("component", "postgres"),
	}
	if err := s.EnsureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

type executor interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error)
}

// getExecutor возвращает исполнителя запросов (транзакцию или пул)
func (s *SnapshotStorage) getExecutor(ctx context.Context) executor {
	if t, ok := tx.GetTxFromContext(ctx); ok {
		return t
	}
	return s.pool
}

// EnsureSchema создает схему harvest, если ее нет
func (s *SnapshotStorage) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("ошибка создания схемы harvest: %w", err)
	}
	return nil
}

// SaveSnapshot реализация интерфейса SnapshotPort
func (s *SnapshotStorage) SaveSnapshot(ctx context.Context, snapshot *interfaces.Snapshot) error {
	names := make([]string, 0, len(snapshot.Tables))
	counts := make(map[string]int, len(snapshot.Tables))
	for name, docs := range snapshot.Tables {
		names = append(names, name)
		counts[name] = len(docs)
	}
	sort.Strings(names)

	return s.txManager.Do(ctx, func(ctx context.Context) error {
		exec := s.getExecutor(ctx)

		for _, name := range names {
			docs := snapshot.Tables[name]
			if _, err := exec.Exec(ctx, `DELETE FROM harvest.records WHERE table_name = $1`, name); err != nil {
				return fmt.Errorf("ошибка очистки таблицы %s: %w", name, err)
			}

			n, err := exec.CopyFrom(ctx, pgx.Identifier{"harvest", "records"}, recordColumns,
				pgx.CopyFromSlice(len(docs), func(i int) ([]any, error) {
					return []any{name, int32(i), snapshot.RunID, string(docs[i])}, nil
				}))
			if err != nil {
				return fmt.Errorf("ошибка записи таблицы %s: %w", name, err)
			}
			s.logger.Debug("Таблица снимка записана",
				interfaces.LogField{Key: "table", Value: name},
				interfaces.LogField{Key: "rows", Value: n},
			)
		}

		if _, err := exec.Exec(ctx,
			`INSERT INTO harvest.runs (run_id, harvested_at, tables) VALUES ($1, $2, $3)
			 ON CONFLICT (run_id) DO UPDATE SET harvested_at = EXCLUDED.harvested_at, tables = EXCLUDED.tables`,
			snapshot.RunID, snapshot.HarvestAt, counts,
		); err != nil {
			return fmt.Errorf("ошибка записи запуска %s: %w", snapshot.RunID, err)
		}
		return nil
	})
}

// Ping реализация интерфейса SnapshotPort
func (s *SnapshotStorage) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close закрывает соединение с БД
func (s *SnapshotStorage) Close() error {
	s.pool.Close()
	return nil
}
