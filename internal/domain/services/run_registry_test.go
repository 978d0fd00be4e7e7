package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/athebyme/gomarket-platform/harvester/internal/adapters/logger"
	"github.com/athebyme/gomarket-platform/harvester/internal/domain/models"
	"github.com/athebyme/gomarket-platform/harvester/internal/utils"
)

// blockingHarvester завершает запуск по сигналу release или по отмене контекста
type blockingHarvester struct {
	started chan string
	release chan error
}

func newBlockingHarvester() *blockingHarvester {
	return &blockingHarvester{started: make(chan string, 1), release: make(chan error, 1)}
}

func (h *blockingHarvester) Run(ctx context.Context, runID string) (*models.RunReport, error) {
	h.started <- runID
	report := models.NewRunReport(runID, time.Now())
	var err error
	select {
	case err = <-h.release:
	case <-ctx.Done():
		err = ctx.Err()
	}
	if err == nil {
		report.Counts[CountProducts] = 42
	}
	report.Finish(time.Now(), err)
	return report, err
}

func waitStatus(t *testing.T, r *Runner, runID string, want models.RunStatus) *models.RunReport {
	t.Helper()
	var got *models.RunReport
	require.Eventually(t, func() bool {
		rep, err := r.Get(runID)
		if err != nil {
			return false
		}
		got = rep
		return rep.Status == want
	}, 2*time.Second, 5*time.Millisecond)
	return got
}

func TestRunner_SingleActiveRun(t *testing.T) {
	h := newBlockingHarvester()
	r := NewRunner(h, NewRunRegistry(time.Minute), logger.NewNopLogger())

	report, err := r.Start()
	require.NoError(t, err)
	require.Equal(t, models.RunStatusRunning, report.Status)
	require.Equal(t, report.RunID, <-h.started)

	_, err = r.Start()
	require.ErrorIs(t, err, utils.ErrRunInProgress)

	h.release <- nil
	done := waitStatus(t, r, report.RunID, models.RunStatusSucceeded)
	require.Equal(t, 42, done.Counts[CountProducts])

	var next *models.RunReport
	require.Eventually(t, func() bool {
		next, err = r.Start()
		return err == nil
	}, 2*time.Second, 5*time.Millisecond)
	<-h.started
	h.release <- errors.New("boom")
	failed := waitStatus(t, r, next.RunID, models.RunStatusFailed)
	require.Equal(t, "boom", failed.Error)

	require.NoError(t, r.Shutdown(context.Background()))
}

func TestRunner_GetUnknown(t *testing.T) {
	r := NewRunner(newBlockingHarvester(), NewRunRegistry(0), logger.NewNopLogger())
	_, err := r.Get("missing")
	require.ErrorIs(t, err, utils.ErrRunNotFound)
}

func TestRunner_ShutdownCancelsActiveRun(t *testing.T) {
	h := newBlockingHarvester()
	r := NewRunner(h, NewRunRegistry(time.Minute), logger.NewNopLogger())

	report, err := r.Start()
	require.NoError(t, err)
	<-h.started

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, r.Shutdown(ctx))

	got, err := r.Get(report.RunID)
	require.NoError(t, err)
	require.Equal(t, models.RunStatusFailed, got.Status)

	_, err = r.Start()
	require.Error(t, err)
}

func TestRunRegistry_StoresCopies(t *testing.T) {
	reg := NewRunRegistry(time.Minute)
	report := models.NewRunReport("r", time.Now())
	reg.Put(report)

	report.Counts["x"] = 1
	got, ok := reg.Get("r")
	require.True(t, ok)
	require.Empty(t, got.Counts)

	got.Files = append(got.Files, "mutated")
	again, _ := reg.Get("r")
	require.Empty(t, again.Files)
}
