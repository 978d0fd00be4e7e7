// Package metrics содержит метрики Prometheus сборщика
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Метрики клиента Ozon
var (
	OzonRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ozon_requests_total",
		Help: "Количество попыток запросов к Ozon API",
	}, []string{"endpoint", "status"})

	OzonRetries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ozon_retries_total",
		Help: "Количество повторов запросов к Ozon API",
	}, []string{"endpoint", "reason"})

	OzonRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "ozon_request_duration_seconds",
		Help:    "Длительность одной попытки запроса к Ozon API",
		Buckets: prometheus.DefBuckets,
	}, []string{"endpoint"})
)

// Метрики запусков сбора
var (
	HarvestRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "harvest_runs_total",
		Help: "Количество запусков сбора",
	}, []string{"status"})

	HarvestRunDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "harvest_run_duration_seconds",
		Help:    "Длительность запуска сбора",
		Buckets: prometheus.ExponentialBuckets(1, 2, 12),
	})

	HarvestRecords = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "harvest_records",
		Help: "Количество записей в таблицах последнего запуска",
	}, []string{"table"})

	ActiveRuns = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "harvest_active_runs",
		Help: "Количество выполняемых запусков",
	})
)

// Метрики HTTP API
var (
	HTTPDurations = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_durations_seconds",
		Help:    "Длительность HTTP запросов",
		Buckets: prometheus.DefBuckets,
	}, []string{"path", "method", "status"})

	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Общее количество HTTP запросов",
	}, []string{"path", "method", "status"})

	HTTPActiveRequests = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "http_active_requests",
		Help: "Количество активных HTTP запросов",
	})
)
