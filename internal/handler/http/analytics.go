package http

import (
	"LinkPulse-Backend/internal/auth"
	"LinkPulse-Backend/internal/repository"
	"LinkPulse-Backend/internal/service"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"
)

// AnalyticsHandler обработчик запросов аналитики
type AnalyticsHandler struct {
	analytics *service.AnalyticsService
	log       *zap.Logger
}

// NewAnalyticsHandler создает новый обработчик аналитики
func NewAnalyticsHandler(analytics *service.AnalyticsService, log *zap.Logger) *AnalyticsHandler {
	return &AnalyticsHandler{
		analytics: analytics,
		log:       log,
	}
}

// Handle разбирает путь /api/analytics/* и направляет запрос к нужному срезу:
// urls/overall, topic/<topic> или <alias>
func (h *AnalyticsHandler) Handle(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		h.writeError(w, "User ID not found in context", http.StatusUnauthorized)
		return
	}

	rest := strings.TrimPrefix(r.URL.Path, "/api/analytics/")
	switch {
	// Короткая форма overall оставлена как синоним канонического пути
	case rest == "urls/overall" || rest == "overall":
		payload, err := h.analytics.Overall(r.Context(), userID)
		if err != nil {
			h.log.Error("failed to compute overall analytics",
				zap.String("user_id", userID.String()), zap.Error(err))
			h.writeError(w, "Failed to compute analytics", http.StatusInternalServerError)
			return
		}
		h.writeJSON(w, payload, http.StatusOK)

	case strings.HasPrefix(rest, "topic/"):
		topic := strings.TrimPrefix(rest, "topic/")
		if topic == "" || strings.Contains(topic, "/") {
			h.writeError(w, "Topic is required", http.StatusBadRequest)
			return
		}
		payload, err := h.analytics.ForTopic(r.Context(), userID, topic)
		if err != nil {
			h.log.Error("failed to compute topic analytics",
				zap.String("topic", topic), zap.Error(err))
			h.writeError(w, "Failed to compute analytics", http.StatusInternalServerError)
			return
		}
		h.writeJSON(w, payload, http.StatusOK)

	case rest != "" && !strings.Contains(rest, "/"):
		payload, err := h.analytics.ForLink(r.Context(), userID, rest)
		if err != nil {
			if errors.Is(err, repository.ErrAliasNotFound) {
				h.writeError(w, "Link not found", http.StatusNotFound)
				return
			}
			h.log.Error("failed to compute link analytics",
				zap.String("alias", rest), zap.Error(err))
			h.writeError(w, "Failed to compute analytics", http.StatusInternalServerError)
			return
		}
		h.writeJSON(w, payload, http.StatusOK)

	default:
		h.writeError(w, "Alias is required", http.StatusBadRequest)
	}
}

func (h *AnalyticsHandler) writeJSON(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

func (h *AnalyticsHandler) writeError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
