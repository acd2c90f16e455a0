package http

import (
	"LinkLab-Backend/internal/auth"
	"LinkLab-Backend/internal/config"
	"LinkLab-Backend/internal/metrics"
	"LinkLab-Backend/internal/repository"
	"LinkLab-Backend/internal/service"
	"net/http"

	httpSwagger "github.com/swaggo/http-swagger"
	"go.uber.org/zap"
)

// Dependencies собирает всё, что нужно HTTP слою
type Dependencies struct {
	Storage         repository.Storage
	Shortener       *service.URLShortenerService
	Resolver        *service.Resolver
	JWTService      *auth.JWTService
	PasswordService *auth.PasswordService
	Metrics         *metrics.Metrics
	Stats           StatsProvider
	Config          *config.Config
	Log             *zap.Logger
}

// Server HTTP сервер с обработчиками
type Server struct {
	authHandlers    *auth.AuthHandlers
	linksHandler    *LinksHandler
	redirectHandler *RedirectHandler
	healthHandler   *HealthHandler
	authMiddleware  *auth.Middleware
	metrics         *metrics.Metrics
	redirectPages   config.Redirect
	log             *zap.Logger
}

// NewServer создает новый HTTP сервер
func NewServer(deps Dependencies) *Server {
	cfg := deps.Config
	limiter := NewIPRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst, cfg.RateLimit.TrustProxy)

	return &Server{
		authHandlers:    auth.NewAuthHandlers(deps.Storage, deps.JWTService, deps.PasswordService, deps.Log),
		linksHandler:    NewLinksHandler(deps.Shortener, deps.PasswordService, limiter, deps.Log),
		redirectHandler: NewRedirectHandler(deps.Resolver, cfg.Redirect, deps.Log),
		healthHandler:   NewHealthHandler(deps.Storage, deps.Stats, deps.Log),
		authMiddleware:  auth.NewMiddleware(deps.JWTService, cfg.HTTPServer.AllowedOrigins, deps.Log),
		metrics:         deps.Metrics,
		redirectPages:   cfg.Redirect,
		log:             deps.Log,
	}
}

// SetupRoutes настраивает маршруты
func (s *Server) SetupRoutes() http.Handler {
	mux := http.NewServeMux()

	// Health checks и служебные маршруты
	mux.HandleFunc("GET /health", s.healthHandler.Health)
	mux.HandleFunc("GET /ready", s.healthHandler.Ready)
	if s.metrics != nil {
		mux.Handle("GET /metrics", s.metrics.Handler())
	}

	// Swagger документация
	mux.Handle("GET /api/v1/", httpSwagger.WrapHandler)

	// Auth endpoints
	mux.HandleFunc("POST /api/auth/register", s.authHandlers.Register)
	mux.HandleFunc("POST /api/auth/login", s.authHandlers.Login)
	mux.HandleFunc("POST /api/auth/refresh", s.authHandlers.Refresh)

	// Создание доступно и анонимно
	mux.HandleFunc("POST /api/shorten", s.authMiddleware.OptionalAuth(s.linksHandler.CreateLink))

	mux.HandleFunc("GET /api/links", s.authMiddleware.RequireAuth(s.linksHandler.ListLinks))
	mux.HandleFunc("POST /api/links/claim", s.authMiddleware.RequireAuth(s.linksHandler.ClaimLink))
	mux.HandleFunc("DELETE /api/links/{shortCode}", s.authMiddleware.RequireAuth(s.linksHandler.DeleteLink))

	s.registerStatusPages(mux)

	// Редирект, более конкретные маршруты выше имеют приоритет
	mux.HandleFunc("GET /{shortCode}", s.redirectHandler.HandleRedirect)

	var handler http.Handler = s.authMiddleware.CORS(mux)
	handler = s.metricsMiddleware(handler)
	handler = s.loggingMiddleware(handler)
	handler = requestIDMiddleware(handler)
	return handler
}

// registerStatusPages отдает простые страницы для относительных путей
// редиректа, чтобы /404 не попадал в обработчик коротких кодов.
func (s *Server) registerStatusPages(mux *http.ServeMux) {
	pages := []struct {
		path   string
		status int
		text   string
	}{
		{s.redirectPages.NotFoundPath, http.StatusNotFound, "Link not found"},
		{s.redirectPages.ExpiredPath, http.StatusGone, "This link has expired"},
		{s.redirectPages.LimitReachedPath, http.StatusGone, "This link has reached its click limit"},
		{s.redirectPages.ErrorPath, http.StatusInternalServerError, "Something went wrong"},
	}

	seen := make(map[string]bool, len(pages))
	for _, p := range pages {
		if len(p.path) < 2 || p.path[0] != '/' || seen[p.path] {
			continue
		}
		seen[p.path] = true
		status, text := p.status, p.text
		mux.HandleFunc("GET "+p.path, func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "text/plain; charset=utf-8")
			w.WriteHeader(status)
			_, _ = w.Write([]byte(text + "\n"))
		})
	}
}
