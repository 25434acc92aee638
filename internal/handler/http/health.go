package http

import (
	"LinkPulse-Backend/internal/clicks"
	"LinkPulse-Backend/internal/database"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// HealthHandler обработчик health checks
type HealthHandler struct {
	db        *gorm.DB
	redis     *redis.Client
	processor *clicks.Processor
	log       *zap.Logger
}

// NewHealthHandler создает новый health handler
func NewHealthHandler(db *gorm.DB, redisClient *redis.Client, processor *clicks.Processor, log *zap.Logger) *HealthHandler {
	return &HealthHandler{
		db:        db,
		redis:     redisClient,
		processor: processor,
		log:       log,
	}
}

// HealthResponse структура ответа health check
type HealthResponse struct {
	Status         string                 `json:"status"`
	Timestamp      time.Time              `json:"timestamp"`
	DatabaseStatus string                 `json:"database_status"`
	CacheStatus    string                 `json:"cache_status"`
	ClickProcessor map[string]interface{} `json:"click_processor"`
	Uptime         string                 `json:"uptime,omitempty"`
}

var startTime = time.Now()

// Health основной health check endpoint. Недоступный Redis деградирует сервис,
// но не валит его: нездоровым сервис делает только база.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	if err := database.HealthCheck(h.db); err != nil {
		dbStatus = "unhealthy"
		h.log.Error("database health check failed", zap.Error(err))
	}

	cacheStatus := "healthy"
	if h.redis == nil {
		cacheStatus = "disabled"
	} else if err := h.redis.Ping(ctx).Err(); err != nil {
		cacheStatus = "unhealthy"
		h.log.Warn("redis health check failed", zap.Error(err))
	}

	status := "healthy"
	statusCode := http.StatusOK
	if dbStatus == "unhealthy" {
		status = "unhealthy"
		statusCode = http.StatusServiceUnavailable
	}

	response := HealthResponse{
		Status:         status,
		Timestamp:      time.Now(),
		DatabaseStatus: dbStatus,
		CacheStatus:    cacheStatus,
		ClickProcessor: h.processor.Stats(),
		Uptime:         time.Since(startTime).String(),
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(response); err != nil {
		h.log.Error("failed to encode health response", zap.Error(err))
	}
}

// Ready readiness probe endpoint
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{
		"status":    "ready",
		"timestamp": time.Now(),
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	if err := json.NewEncoder(w).Encode(response); err != nil {
		h.log.Error("failed to encode ready response", zap.Error(err))
	}
}
