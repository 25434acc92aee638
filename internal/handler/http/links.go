package http

import (
	"LinkPulse-Backend/internal/auth"
	"LinkPulse-Backend/internal/cache"
	"LinkPulse-Backend/internal/domain"
	"LinkPulse-Backend/internal/repository"
	"LinkPulse-Backend/internal/service"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// LinksHandler обработчик для работы со ссылками
type LinksHandler struct {
	storage   repository.Storage
	shortener *service.ShortenerService
	analytics *service.AnalyticsService
	linkCache *cache.LinkCache
	log       *zap.Logger
	baseURL   string
}

// NewLinksHandler создает новый обработчик ссылок
func NewLinksHandler(
	storage repository.Storage,
	shortener *service.ShortenerService,
	analytics *service.AnalyticsService,
	linkCache *cache.LinkCache,
	log *zap.Logger,
	baseURL string,
) *LinksHandler {
	return &LinksHandler{
		storage:   storage,
		shortener: shortener,
		analytics: analytics,
		linkCache: linkCache,
		log:       log,
		baseURL:   baseURL,
	}
}

// CreateLinkRequest структура запроса создания ссылки
type CreateLinkRequest struct {
	LongURL     string `json:"longUrl"`
	CustomAlias string `json:"customAlias,omitempty"`
	Topic       string `json:"topic,omitempty"`
	ExpiresAt   string `json:"expiresAt,omitempty"`
}

// LinkInfo информация о ссылке
type LinkInfo struct {
	ID          uuid.UUID `json:"id"`
	ShortURL    string    `json:"shortUrl"`
	LongURL     string    `json:"longUrl"`
	ShortCode   string    `json:"shortCode"`
	CustomAlias *string   `json:"customAlias,omitempty"`
	Topic       *string   `json:"topic,omitempty"`
	ClickCount  int64     `json:"clickCount"`
	CreatedAt   string    `json:"createdAt"`
	ExpiresAt   string    `json:"expiresAt,omitempty"`
}

// ListLinksResponse структура ответа списка ссылок
type ListLinksResponse struct {
	Links []LinkInfo `json:"links"`
}

// CreateLink создает новую короткую ссылку
func (h *LinksHandler) CreateLink(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		h.writeError(w, "User ID not found in context", http.StatusUnauthorized)
		return
	}

	var req CreateLinkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log.Debug("invalid create link request", zap.Error(err))
		h.writeError(w, "Invalid request format", http.StatusBadRequest)
		return
	}

	if req.LongURL == "" {
		h.writeError(w, "longUrl is required", http.StatusBadRequest)
		return
	}

	shortenReq := service.ShortenRequest{
		LongURL:     req.LongURL,
		CustomAlias: optionalString(req.CustomAlias),
		Topic:       optionalString(req.Topic),
	}

	if req.ExpiresAt != "" {
		expiresAt, err := time.Parse(time.RFC3339, req.ExpiresAt)
		if err != nil {
			h.writeError(w, "Invalid expiresAt format. Use RFC3339 format", http.StatusBadRequest)
			return
		}
		shortenReq.ExpiresAt = &expiresAt
	}

	link, err := h.shortener.Shorten(r.Context(), userID, shortenReq)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidURL):
			h.writeError(w, "Invalid longUrl", http.StatusBadRequest)
		case errors.Is(err, service.ErrInvalidAlias):
			h.writeError(w, "Invalid customAlias", http.StatusBadRequest)
		case errors.Is(err, service.ErrInvalidTopic):
			h.writeError(w, "Invalid topic", http.StatusBadRequest)
		case errors.Is(err, repository.ErrAliasExists):
			h.writeError(w, "Alias already exists", http.StatusConflict)
		default:
			h.log.Error("failed to create link", zap.Error(err))
			h.writeError(w, "Failed to create link", http.StatusInternalServerError)
		}
		return
	}

	h.writeJSON(w, h.toLinkInfo(link), http.StatusCreated)
}

// ListLinks возвращает список ссылок пользователя, опционально по топику
func (h *LinksHandler) ListLinks(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		h.writeError(w, "User ID not found in context", http.StatusUnauthorized)
		return
	}

	topic := optionalString(r.URL.Query().Get("topic"))

	links, err := h.storage.ListUserLinks(r.Context(), userID, topic)
	if err != nil {
		h.log.Error("failed to list user links",
			zap.String("user_id", userID.String()), zap.Error(err))
		h.writeError(w, "Failed to retrieve links", http.StatusInternalServerError)
		return
	}

	linkInfos := make([]LinkInfo, len(links))
	for i, link := range links {
		linkInfos[i] = h.toLinkInfo(link)
	}

	h.writeJSON(w, ListLinksResponse{Links: linkInfos}, http.StatusOK)
}

// DeleteLink мягко удаляет ссылку пользователя и сбрасывает связанные с ней
// записи кешей
func (h *LinksHandler) DeleteLink(w http.ResponseWriter, r *http.Request) {
	pathParts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	if len(pathParts) < 3 || pathParts[2] == "" {
		h.writeError(w, "Link ID is required", http.StatusBadRequest)
		return
	}

	linkID, err := uuid.Parse(pathParts[2])
	if err != nil {
		h.writeError(w, "Invalid link ID", http.StatusBadRequest)
		return
	}

	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		h.writeError(w, "User ID not found in context", http.StatusUnauthorized)
		return
	}

	// Чужая ссылка неотличима от несуществующей
	link, err := h.storage.GetUserLinkByID(r.Context(), userID, linkID)
	if err != nil {
		if errors.Is(err, repository.ErrAliasNotFound) {
			h.writeError(w, "Link not found", http.StatusNotFound)
			return
		}
		h.log.Error("failed to get link for deletion",
			zap.String("link_id", linkID.String()), zap.Error(err))
		h.writeError(w, "Failed to retrieve link", http.StatusInternalServerError)
		return
	}

	if err := h.storage.DeleteLink(r.Context(), link.ID); err != nil {
		h.log.Error("failed to delete link",
			zap.String("link_id", linkID.String()), zap.Error(err))
		h.writeError(w, "Failed to delete link", http.StatusInternalServerError)
		return
	}

	// Резолвер мог закешировать ссылку под любым из двух алиасов
	h.linkCache.Invalidate(r.Context(), link.ShortCode)
	if link.CustomAlias != nil && *link.CustomAlias != "" {
		h.linkCache.Invalidate(r.Context(), *link.CustomAlias)
	}
	h.analytics.InvalidateLink(r.Context(), link)

	h.log.Info("deleted link",
		zap.String("link_id", linkID.String()),
		zap.String("alias", link.Alias()),
		zap.String("user_id", userID.String()))
	w.WriteHeader(http.StatusNoContent)
}

func (h *LinksHandler) toLinkInfo(link *domain.Link) LinkInfo {
	info := LinkInfo{
		ID:          link.ID,
		ShortURL:    h.baseURL + "/" + link.Alias(),
		LongURL:     link.LongURL,
		ShortCode:   link.ShortCode,
		CustomAlias: link.CustomAlias,
		Topic:       link.Topic,
		ClickCount:  link.ClickCount,
		CreatedAt:   link.CreatedAt.Format(time.RFC3339),
	}
	if link.ExpiresAt != nil {
		info.ExpiresAt = link.ExpiresAt.Format(time.RFC3339)
	}
	return info
}

// Helper methods

func (h *LinksHandler) writeJSON(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

func (h *LinksHandler) writeError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
