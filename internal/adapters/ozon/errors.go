package ozon

import (
	"fmt"

	"github.com/athebyme/gomarket-platform/harvester/internal/payload"
	"github.com/athebyme/gomarket-platform/harvester/internal/utils"
)

const maxBodyInError = 512

// RequestExhaustedError все попытки завершились временной ошибкой
type RequestExhaustedError struct {
	Endpoint   string
	Attempts   int
	LastStatus int // 0, если последняя попытка упала на транспорте
	Err        error
}

func (e *RequestExhaustedError) Error() string {
	if e.LastStatus == 0 && e.Err != nil {
		return fmt.Sprintf("%s: %s after %d attempts: %v", utils.ErrRequestExhausted, e.Endpoint, e.Attempts, e.Err)
	}
	return fmt.Sprintf("%s: %s after %d attempts, last status %d", utils.ErrRequestExhausted, e.Endpoint, e.Attempts, e.LastStatus)
}

func (e *RequestExhaustedError) Unwrap() []error {
	if e.Err != nil {
		return []error{utils.ErrRequestExhausted, e.Err}
	}
	return []error{utils.ErrRequestExhausted}
}

// RequestFailedError API вернуло постоянную ошибку (4xx кроме 429)
type RequestFailedError struct {
	Endpoint string
	Status   int
	Body     payload.Node // JSON ответа либо сырой текст
}

func (e *RequestFailedError) Error() string {
	body := e.Body.Raw()
	if len(body) > maxBodyInError {
		body = body[:maxBodyInError] + "..."
	}
	return fmt.Sprintf("%s: HTTP %d %s: %s", utils.ErrRequestFailed, e.Status, e.Endpoint, body)
}

func (e *RequestFailedError) Unwrap() error { return utils.ErrRequestFailed }
