package http

import (
	"LinkPulse-Backend/internal/auth"
	"LinkPulse-Backend/internal/cache"
	"LinkPulse-Backend/internal/clicks"
	"LinkPulse-Backend/internal/repository"
	"LinkPulse-Backend/internal/service"
	"net/http"
	"strings"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Server HTTP сервер с обработчиками
type Server struct {
	authHandlers     *auth.AuthHandlers
	linksHandler     *LinksHandler
	redirectHandler  *RedirectHandler
	analyticsHandler *AnalyticsHandler
	healthHandler    *HealthHandler
	authMiddleware   *auth.Middleware
	log              *zap.Logger
}

// NewServer создает новый HTTP сервер
func NewServer(
	storage repository.Storage,
	db *gorm.DB,
	redisClient *redis.Client,
	shortener *service.ShortenerService,
	resolver *service.ResolverService,
	analytics *service.AnalyticsService,
	processor *clicks.Processor,
	linkCache *cache.LinkCache,
	jwtService *auth.JWTService,
	passwordService *auth.PasswordService,
	log *zap.Logger,
	baseURL string,
) *Server {
	return &Server{
		authHandlers:     auth.NewAuthHandlers(storage, jwtService, passwordService, log),
		linksHandler:     NewLinksHandler(storage, shortener, analytics, linkCache, log, baseURL),
		redirectHandler:  NewRedirectHandler(resolver, processor, log),
		analyticsHandler: NewAnalyticsHandler(analytics, log),
		healthHandler:    NewHealthHandler(db, redisClient, processor, log),
		authMiddleware:   auth.NewMiddleware(jwtService, log),
		log:              log,
	}
}

// SetupRoutes настраивает маршруты
func (s *Server) SetupRoutes() http.Handler {
	mux := http.NewServeMux()

	// Health checks (без аутентификации)
	mux.HandleFunc("/health", s.healthHandler.Health)
	mux.HandleFunc("/ready", s.healthHandler.Ready)

	// Auth endpoints (без аутентификации)
	mux.HandleFunc("/api/auth/register", s.withCORS(s.authHandlers.Register))
	mux.HandleFunc("/api/auth/login", s.withCORS(s.authHandlers.Login))

	// API endpoints (с аутентификацией)
	mux.HandleFunc("/api/shorten", s.withCORS(s.authMiddleware.RequireAuth(s.linksHandler.CreateLink)))
	mux.HandleFunc("/api/urls", s.withCORS(s.authMiddleware.RequireAuth(s.linksHandler.ListLinks)))
	mux.HandleFunc("/api/urls/", s.withCORS(s.authMiddleware.RequireAuth(s.handleURLsAPI)))

	// Analytics endpoints (с аутентификацией)
	mux.HandleFunc("/api/analytics/", s.withCORS(s.authMiddleware.RequireAuth(s.analyticsHandler.Handle)))

	// Redirect endpoint (без аутентификации) - должен быть последним
	mux.HandleFunc("/", s.redirectHandler.HandleRedirect)

	return mux
}

// handleURLsAPI обрабатывает /api/urls/* endpoints с разными HTTP методами
func (s *Server) handleURLsAPI(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.linksHandler.ListLinks(w, r)
	case http.MethodDelete:
		s.linksHandler.DeleteLink(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// withCORS добавляет CORS headers к обработчику
func (s *Server) withCORS(handler http.HandlerFunc) http.HandlerFunc {
	return s.authMiddleware.CORS(handler)
}

// isSystemPath отличает служебные пути от кандидатов в алиасы
func isSystemPath(path string) bool {
	systemPaths := []string{
		"/api/",
		"/health",
		"/ready",
	}

	for _, systemPath := range systemPaths {
		if strings.HasPrefix(path, systemPath) {
			return true
		}
	}

	return false
}
