package messaging

import "time"

type KafkaEvent = string

const (
	HarvestCompletedEvent KafkaEvent = "harvest_completed"
	HarvestFailedEvent    KafkaEvent = "harvest_failed"
)

// HarvestEvent событие о завершении запуска сбора
type HarvestEvent struct {
	EventType  KafkaEvent     `json:"event_type"`
	RunID      string         `json:"run_id"`
	Status     string         `json:"status"`
	StartedAt  time.Time      `json:"started_at"`
	FinishedAt time.Time      `json:"finished_at"`
	Counts     map[string]int `json:"counts"`
	Files      []string       `json:"files"`
	Error      string         `json:"error,omitempty"`
}
