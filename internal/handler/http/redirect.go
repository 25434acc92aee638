package http

import (
	"LinkPulse-Backend/internal/clicks"
	"LinkPulse-Backend/internal/repository"
	"LinkPulse-Backend/internal/service"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// RedirectHandler обработчик редиректов
type RedirectHandler struct {
	resolver  *service.ResolverService
	processor *clicks.Processor
	log       *zap.Logger
}

// NewRedirectHandler создает новый обработчик редиректов
func NewRedirectHandler(resolver *service.ResolverService, processor *clicks.Processor, log *zap.Logger) *RedirectHandler {
	return &RedirectHandler{
		resolver:  resolver,
		processor: processor,
		log:       log,
	}
}

// HandleRedirect обрабатывает редирект по alias. Клик ставится в очередь
// асинхронной записи: его судьба не влияет ни на статус, ни на задержку ответа.
func (h *RedirectHandler) HandleRedirect(w http.ResponseWriter, r *http.Request) {
	alias := strings.TrimPrefix(r.URL.Path, "/")

	// Браузеры запрашивают favicon на каждый редирект
	if alias == "favicon.ico" {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	if alias == "" || isSystemPath(r.URL.Path) {
		h.writeNotFound(w)
		return
	}

	link, err := h.resolver.Resolve(r.Context(), alias)
	if err != nil {
		if errors.Is(err, repository.ErrAliasNotFound) {
			h.log.Debug("alias not found", zap.String("alias", alias))
			h.writeNotFound(w)
			return
		}
		h.log.Error("failed to resolve alias", zap.String("alias", alias), zap.Error(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	clickData := &clicks.ClickData{
		LinkID:    link.ID,
		UserID:    link.UserID,
		Alias:     alias,
		IPAddress: extractIPAddress(r),
		UserAgent: r.UserAgent(),
		Referer:   optionalString(r.Referer()),
		ClickedAt: time.Now().UTC(),
	}
	if err := h.processor.Submit(clickData); err != nil {
		// Редирект важнее аналитики, клик теряется
		h.log.Warn("failed to enqueue click", zap.String("alias", alias), zap.Error(err))
	}

	h.log.Debug("redirect",
		zap.String("alias", alias),
		zap.String("long_url", link.LongURL))

	http.Redirect(w, r, link.LongURL, http.StatusFound)
}

func (h *RedirectHandler) writeNotFound(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusNotFound)
	json.NewEncoder(w).Encode(map[string]string{
		"error":   "Not Found",
		"message": "Short URL not found",
	})
}

// extractIPAddress извлекает IP адрес из запроса с учетом прокси
func extractIPAddress(r *http.Request) *string {
	if ip := r.Header.Get("X-Forwarded-For"); ip != "" {
		// X-Forwarded-For может содержать список IP через запятую
		ips := strings.Split(ip, ",")
		if len(ips) > 0 {
			first := strings.TrimSpace(ips[0])
			if first != "" {
				return &first
			}
		}
	}

	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return &ip
	}

	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		ip = r.RemoteAddr
	}
	return optionalString(ip)
}

func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
