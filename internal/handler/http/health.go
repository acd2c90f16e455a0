package http

import (
	"LinkLab-Backend/internal/repository"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// StatsProvider отдает внутреннюю статистику компонента, например очереди кликов
type StatsProvider interface {
	GetStats() map[string]interface{}
}

// HealthHandler обработчик health checks
type HealthHandler struct {
	storage repository.Storage
	stats   StatsProvider
	log     *zap.Logger
	started time.Time
}

// NewHealthHandler создает новый health handler
func NewHealthHandler(storage repository.Storage, stats StatsProvider, log *zap.Logger) *HealthHandler {
	return &HealthHandler{
		storage: storage,
		stats:   stats,
		log:     log,
		started: time.Now(),
	}
}

// HealthResponse структура ответа health check
type HealthResponse struct {
	Status         string                 `json:"status"`
	Timestamp      time.Time              `json:"timestamp"`
	DatabaseStatus string                 `json:"database_status"`
	Uptime         string                 `json:"uptime"`
	Analytics      map[string]interface{} `json:"analytics,omitempty"`
}

// Health основной health check endpoint
//
//	@Summary	Health check
//	@Tags		System
//	@Produce	json
//	@Success	200	{object}	HealthResponse
//	@Failure	503	{object}	HealthResponse
//	@Router		/health [get]
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	response := HealthResponse{
		Status:         "healthy",
		Timestamp:      time.Now(),
		DatabaseStatus: "healthy",
		Uptime:         time.Since(h.started).Round(time.Second).String(),
	}
	statusCode := http.StatusOK

	if err := h.storage.Ping(ctx); err != nil {
		h.log.Error("database health check failed", zap.Error(err))
		response.Status = "unhealthy"
		response.DatabaseStatus = "unhealthy"
		statusCode = http.StatusServiceUnavailable
	}
	if h.stats != nil {
		response.Analytics = h.stats.GetStats()
	}

	writeJSON(w, h.log, response, statusCode)
}

// Ready readiness probe endpoint
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.log, map[string]interface{}{
		"status":    "ready",
		"timestamp": time.Now(),
	}, http.StatusOK)
}

func writeJSON(w http.ResponseWriter, log *zap.Logger, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Error("failed to encode response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, log *zap.Logger, message string, statusCode int) {
	writeJSON(w, log, map[string]string{"error": message}, statusCode)
}
