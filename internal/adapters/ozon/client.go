// Package ozon клиент Ozon Seller API с повторами и общим лимитом запросов
package ozon

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/athebyme/gomarket-platform/harvester/internal/metrics"
	"github.com/athebyme/gomarket-platform/harvester/internal/payload"
	"github.com/athebyme/gomarket-platform/harvester/pkg/interfaces"
)

// Config параметры клиента
type Config struct {
	BaseURL           string
	ClientID          string
	APIKey            string
	Timeout           time.Duration
	MaxAttempts       int
	InitialBackoff    time.Duration
	MaxBackoff        time.Duration
	RequestsPerSecond float64 // 0 - без ограничения
	Burst             int
}

// DefaultConfig значения по умолчанию для продового API
func DefaultConfig() Config {
	return Config{
		BaseURL:        DefaultBaseURL,
		Timeout:        30 * time.Second,
		MaxAttempts:    5,
		InitialBackoff: time.Second,
		MaxBackoff:     30 * time.Second,
		Burst:          1,
	}
}

// Client клиент Seller API. Безопасен для конкурентного использования.
type Client struct {
	cfg     Config
	http    *http.Client
	limiter *rate.Limiter
	backoff Backoff
	logger  interfaces.LoggerPort
}

// Option настройка клиента
type Option func(*Client)

// WithHTTPClient подменяет HTTP клиент
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithLimiter задает общий лимитер, например один на несколько клиентов
func WithLimiter(l *rate.Limiter) Option {
	return func(c *Client) { c.limiter = l }
}

// NewClient создает клиент
func NewClient(cfg Config, logger interfaces.LoggerPort, opts ...Option) (*Client, error) {
	if strings.TrimSpace(cfg.ClientID) == "" || strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("ozon client id and api key are required")
	}

	def := DefaultConfig()
	if cfg.BaseURL == "" {
		cfg.BaseURL = def.BaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = def.MaxAttempts
	}
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = def.InitialBackoff
	}
	if cfg.MaxBackoff <= 0 {
		cfg.MaxBackoff = def.MaxBackoff
	}
	if cfg.Burst <= 0 {
		cfg.Burst = def.Burst
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}

	c := &Client{
		cfg:     cfg,
		http:    &http.Client{Timeout: cfg.Timeout},
		limiter: rate.NewLimiter(limit, cfg.Burst),
		backoff: Backoff{Initial: cfg.InitialBackoff, Max: cfg.MaxBackoff},
		logger:  logger.WithField("component", "ozon_client"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Send выполняет POST запрос с повторами на 429, 5xx и сетевых ошибках.
// Возвращает разобранное тело ответа; тело, не являющееся JSON, приходит как payload.KindText.
func (c *Client) Send(ctx context.Context, endpoint string, body any) (payload.Node, error) {
	raw, err := json.Marshal(body)
	if err != nil {
		return payload.Node{}, fmt.Errorf("ошибка сериализации запроса %s: %w", endpoint, err)
	}

	var (
		lastStatus int
		lastErr    error
	)

	for attempt := 0; attempt < c.cfg.MaxAttempts; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return payload.Node{}, ctxErr
			}
			return payload.Node{}, fmt.Errorf("ошибка ожидания лимита запросов: %w", err)
		}

		c.logger.Debug("Запрос к Ozon API",
			interfaces.LogField{Key: "endpoint", Value: endpoint},
			interfaces.LogField{Key: "attempt", Value: attempt + 1},
		)
		status, respBody, err := c.do(ctx, endpoint, raw)

		var reason string
		switch {
		case err != nil:
			if ctxErr := ctx.Err(); ctxErr != nil {
				return payload.Node{}, ctxErr
			}
			metrics.OzonRequests.WithLabelValues(endpoint, "error").Inc()
			lastStatus, lastErr, reason = 0, err, "transport"

		case isTransient(status):
			metrics.OzonRequests.WithLabelValues(endpoint, strconv.Itoa(status)).Inc()
			lastStatus, lastErr, reason = status, nil, strconv.Itoa(status)

		default:
			metrics.OzonRequests.WithLabelValues(endpoint, strconv.Itoa(status)).Inc()
			node := payload.Parse(respBody)
			c.logResponse(endpoint, status, node)
			if status >= http.StatusBadRequest {
				return payload.Node{}, &RequestFailedError{Endpoint: endpoint, Status: status, Body: node}
			}
			return node, nil
		}

		if attempt == c.cfg.MaxAttempts-1 {
			break
		}

		delay := c.backoff.Delay(attempt)
		metrics.OzonRetries.WithLabelValues(endpoint, reason).Inc()
		c.logger.Warn("Временная ошибка Ozon API, повтор",
			interfaces.LogField{Key: "endpoint", Value: endpoint},
			interfaces.LogField{Key: "attempt", Value: attempt + 1},
			interfaces.LogField{Key: "reason", Value: reason},
			interfaces.LogField{Key: "delay", Value: delay.String()},
		)
		if err := sleep(ctx, delay); err != nil {
			return payload.Node{}, err
		}
	}

	return payload.Node{}, &RequestExhaustedError{
		Endpoint:   endpoint,
		Attempts:   c.cfg.MaxAttempts,
		LastStatus: lastStatus,
		Err:        lastErr,
	}
}

func (c *Client) do(ctx context.Context, endpoint string, body []byte) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+endpoint, bytes.NewReader(body))
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Client-Id", c.cfg.ClientID)
	req.Header.Set("Api-Key", c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	metrics.OzonRequestDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("ошибка чтения ответа: %w", err)
	}
	return resp.StatusCode, b, nil
}

func (c *Client) logResponse(endpoint string, status int, node payload.Node) {
	if c.logger.GetLevel() != interfaces.DebugLevel {
		return
	}
	fields := []interface{}{
		interfaces.LogField{Key: "endpoint", Value: endpoint},
		interfaces.LogField{Key: "status", Value: status},
		interfaces.LogField{Key: "kind", Value: node.Kind().String()},
	}
	if node.IsObject() {
		keys := make([]string, 0, 30)
		node.Fields(func(k string, _ payload.Node) bool {
			keys = append(keys, k)
			return len(keys) < 30
		})
		fields = append(fields, interfaces.LogField{Key: "keys", Value: keys})
	}
	c.logger.Debug("Ответ Ozon API", fields...)
}

// isTransient 429 и любые 5xx повторяются
func isTransient(status int) bool {
	return status == http.StatusTooManyRequests || status >= http.StatusInternalServerError
}
