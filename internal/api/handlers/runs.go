package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/athebyme/gomarket-platform/harvester/internal/domain/models"
	"github.com/athebyme/gomarket-platform/harvester/internal/utils"
	"github.com/athebyme/gomarket-platform/harvester/pkg/interfaces"
)

// RunManager фоновые запуски сбора; реализуется services.Runner
type RunManager interface {
	Start() (*models.RunReport, error)
	Get(runID string) (*models.RunReport, error)
}

// RunHandler обработчик запросов для запусков сбора
type RunHandler struct {
	runs   RunManager
	logger interfaces.LoggerPort
}

// NewRunHandler создает новый обработчик запусков
func NewRunHandler(runs RunManager, logger interfaces.LoggerPort) *RunHandler {
	return &RunHandler{
		runs:   runs,
		logger: logger,
	}
}

// errorResponse представляет структуру ответа с ошибкой
type errorResponse struct {
	Error   string `json:"error"`
	Code    int    `json:"code"`
	Message string `json:"message,omitempty"`
}

// response представляет структуру успешного ответа
type response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
}

// StartRun запускает сбор в фоне и отвечает 202 с отчетом running
func (h *RunHandler) StartRun(w http.ResponseWriter, r *http.Request) {
	report, err := h.runs.Start()
	if err != nil {
		if errors.Is(err, utils.ErrRunInProgress) {
			render.Status(r, http.StatusConflict)
			render.JSON(w, r, errorResponse{
				Error:   "conflict",
				Code:    http.StatusConflict,
				Message: err.Error(),
			})
			return
		}

		h.logger.ErrorWithContext(r.Context(), "Ошибка запуска сбора",
			interfaces.LogField{Key: "error", Value: err.Error()})
		render.Status(r, http.StatusServiceUnavailable)
		render.JSON(w, r, errorResponse{
			Error:   "service_unavailable",
			Code:    http.StatusServiceUnavailable,
			Message: err.Error(),
		})
		return
	}

	h.logger.InfoWithContext(r.Context(), "Сбор запущен через API",
		interfaces.LogField{Key: "run_id", Value: report.RunID})
	w.Header().Set("Location", "/api/v1/runs/"+report.RunID)
	render.Status(r, http.StatusAccepted)
	render.JSON(w, r, response{Success: true, Data: report})
}

// GetRun отчет о запуске по ID
func (h *RunHandler) GetRun(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "id")
	if runID == "" {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, errorResponse{
			Error:   "bad_request",
			Code:    http.StatusBadRequest,
			Message: "ID запуска не указан",
		})
		return
	}

	report, err := h.runs.Get(runID)
	if err != nil {
		if errors.Is(err, utils.ErrRunNotFound) {
			render.Status(r, http.StatusNotFound)
			render.JSON(w, r, errorResponse{
				Error:   "not_found",
				Code:    http.StatusNotFound,
				Message: "Запуск не найден",
			})
			return
		}
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, errorResponse{
			Error: "internal_error",
			Code:  http.StatusInternalServerError,
		})
		return
	}

	render.JSON(w, r, response{Success: true, Data: report})
}
