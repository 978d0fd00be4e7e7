package models

import "time"

// RunStatus состояние запуска сбора
type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusSucceeded RunStatus = "succeeded"
	RunStatusFailed    RunStatus = "failed"
)

// RunReport итог запуска сбора
type RunReport struct {
	RunID      string         `json:"run_id"`
	Status     RunStatus      `json:"status"`
	StartedAt  time.Time      `json:"started_at"`
	FinishedAt *time.Time     `json:"finished_at,omitempty"`
	Counts     map[string]int `json:"counts"`
	Files      []string       `json:"files"`
	Error      string         `json:"error,omitempty"`
}

// NewRunReport создает отчет запущенного сбора
func NewRunReport(runID string, startedAt time.Time) *RunReport {
	return &RunReport{
		RunID:     runID,
		Status:    RunStatusRunning,
		StartedAt: startedAt,
		Counts:    make(map[string]int),
		Files:     []string{},
	}
}

// Finish фиксирует завершение запуска
func (r *RunReport) Finish(at time.Time, err error) {
	r.FinishedAt = &at
	if err != nil {
		r.Status = RunStatusFailed
		r.Error = err.Error()
		return
	}
	r.Status = RunStatusSucceeded
}

// Clone копия отчета для безопасной отдачи наружу
func (r *RunReport) Clone() *RunReport {
	c := *r
	c.Counts = make(map[string]int, len(r.Counts))
	for k, v := range r.Counts {
		c.Counts[k] = v
	}
	c.Files = append([]string(nil), r.Files...)
	if r.FinishedAt != nil {
		t := *r.FinishedAt
		c.FinishedAt = &t
	}
	return &c
}
