package services

import (
	"context"
	"fmt"

	"github.com/athebyme/gomarket-platform/harvester/internal/payload"
	"github.com/athebyme/gomarket-platform/harvester/internal/utils"
)

// SellerAPI отправка запросов в Seller API; реализуется ozon.Client
type SellerAPI interface {
	Send(ctx context.Context, endpoint string, body any) (payload.Node, error)
}

// ReconciliationError структурная ошибка, после которой запуск не имеет смысла
type ReconciliationError struct {
	Endpoint string
	Reason   string
	Err      error
}

func (e *ReconciliationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %s: %v", utils.ErrReconciliationFailed, e.Endpoint, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s: %s: %s", utils.ErrReconciliationFailed, e.Endpoint, e.Reason)
}

func (e *ReconciliationError) Unwrap() []error {
	if e.Err != nil {
		return []error{utils.ErrReconciliationFailed, e.Err}
	}
	return []error{utils.ErrReconciliationFailed}
}
