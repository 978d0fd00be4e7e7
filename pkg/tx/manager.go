package tx

import (
	"context"
	"fmt"

	"github.com/athebyme/gomarket-platform/harvester/pkg/interfaces"
	"github.com/jackc/pgx/v5"
)

// txKey - ключ для хранения транзакции в контексте
type txKeyType struct{}

var txKey = txKeyType{}

// Beginner открывает транзакции; ему удовлетворяют *pgxpool.Pool и *pgx.Conn
type Beginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// TxManager управляет жизненным циклом транзакций БД.
type TxManager interface {
	// Do выполняет fn внутри транзакции: ошибка fn - Rollback, иначе Commit.
	// Контекст, передаваемый в fn, содержит транзакцию.
	Do(ctx context.Context, fn func(ctx context.Context) error) error
}

type pgxTxManager struct {
	db     Beginner
	logger interfaces.LoggerPort
}

// NewTxManager создает новый менеджер транзакций.
func NewTxManager(db Beginner, logger interfaces.LoggerPort) TxManager {
	return &pgxTxManager{db: db, logger: logger}
}

// Do реализует метод интерфейса TxManager.
func (m *pgxTxManager) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := GetTxFromContext(ctx); ok {
		return fn(ctx)
	}

	tx, err := m.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("tx.Begin failed: %w", err)
	}

	// откат после паники или неудачного Commit; после Commit это no-op
	defer func() {
		_ = tx.Rollback(context.WithoutCancel(ctx))
	}()

	if err := fn(context.WithValue(ctx, txKey, tx)); err != nil {
		if rollbackErr := tx.Rollback(context.WithoutCancel(ctx)); rollbackErr != nil && rollbackErr != pgx.ErrTxClosed {
			m.logger.Warn("Не удалось откатить транзакцию",
				interfaces.LogField{Key: "rollback_error", Value: rollbackErr.Error()},
				interfaces.LogField{Key: "error", Value: err.Error()},
			)
		}
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("tx.Commit failed: %w", err)
	}
	return nil
}

// GetTxFromContext извлекает транзакцию из контекста.
func GetTxFromContext(ctx context.Context) (pgx.Tx, bool) {
	tx, ok := ctx.Value(txKey).(pgx.Tx)
	return tx, ok
}
