package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"github.com/athebyme/gomarket-platform/harvester/internal/domain/models"
	"github.com/athebyme/gomarket-platform/harvester/internal/utils"
	"github.com/athebyme/gomarket-platform/harvester/pkg/interfaces"
)

// DefaultReportTTL время хранения отчета о запуске
const DefaultReportTTL = 24 * time.Hour

// Harvester выполняет один запуск сбора; реализуется HarvestService
type Harvester interface {
	Run(ctx context.Context, runID string) (*models.RunReport, error)
}

// RunRegistry отчеты о запусках в памяти процесса; записи истекают через ttl
type RunRegistry struct {
	reports *cache.Cache
}

// NewRunRegistry создает реестр запусков
func NewRunRegistry(ttl time.Duration) *RunRegistry {
	if ttl <= 0 {
		ttl = DefaultReportTTL
	}
	return &RunRegistry{reports: cache.New(ttl, ttl/2)}
}

// Put сохраняет копию отчета
func (r *RunRegistry) Put(report *models.RunReport) {
	r.reports.SetDefault(report.RunID, report.Clone())
}

// Get копия отчета по идентификатору запуска
func (r *RunRegistry) Get(runID string) (*models.RunReport, bool) {
	v, ok := r.reports.Get(runID)
	if !ok {
		return nil, false
	}
	return v.(*models.RunReport).Clone(), true
}

// Runner запускает сбор в фоне, не более одного запуска одновременно
type Runner struct {
	harvester Harvester
	registry  *RunRegistry
	logger    interfaces.LoggerPort

	mu      sync.Mutex
	active  string
	baseCtx context.Context
	stop    context.CancelFunc
	wg      sync.WaitGroup
}

// NewRunner создает фонового исполнителя запусков
func NewRunner(h Harvester, registry *RunRegistry, logger interfaces.LoggerPort) *Runner {
	ctx, stop := context.WithCancel(context.Background())
	return &Runner{
		harvester: h,
		registry:  registry,
		logger:    logger.WithField("component", "runner"),
		baseCtx:   ctx,
		stop:      stop,
	}
}

// Start запускает сбор и сразу возвращает отчет со статусом running.
// Если запуск уже выполняется, возвращает ErrRunInProgress.
func (r *Runner) Start() (*models.RunReport, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.active != "" {
		return nil, fmt.Errorf("%w: %s", utils.ErrRunInProgress, r.active)
	}
	if r.baseCtx.Err() != nil {
		return nil, fmt.Errorf("исполнитель остановлен: %w", r.baseCtx.Err())
	}

	runID := uuid.NewString()
	report := models.NewRunReport(runID, time.Now().UTC())
	r.registry.Put(report)

	ctx, cancel := context.WithCancel(r.baseCtx)
	r.active = runID

	r.wg.Add(1)
	go r.execute(ctx, cancel, report)
	return report.Clone(), nil
}

func (r *Runner) execute(ctx context.Context, cancel context.CancelFunc, started *models.RunReport) {
	defer r.wg.Done()
	defer cancel()

	final, err := r.harvester.Run(ctx, started.RunID)
	if final == nil {
		final = started
		final.Finish(time.Now().UTC(), err)
	}
	r.registry.Put(final)

	r.mu.Lock()
	r.active = ""
	r.mu.Unlock()

	if err != nil {
		r.logger.Warn("Фоновый запуск завершился ошибкой",
			interfaces.LogField{Key: "run_id", Value: final.RunID},
			interfaces.LogField{Key: "error", Value: err.Error()},
		)
	}
}

// Get отчет о запуске. Неизвестный или истекший запуск - ErrRunNotFound.
func (r *Runner) Get(runID string) (*models.RunReport, error) {
	report, ok := r.registry.Get(runID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", utils.ErrRunNotFound, runID)
	}
	return report, nil
}

// Shutdown отменяет текущий запуск и ждет его завершения или отмены ctx
func (r *Runner) Shutdown(ctx context.Context) error {
	r.stop()

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
