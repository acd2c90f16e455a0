package http

import (
	"LinkLab-Backend/internal/config"
	"LinkLab-Backend/internal/service"
	"net/http"
	"strings"

	"go.uber.org/zap"
)

// loopbackIP используется, когда адрес клиента не передан в заголовках
const loopbackIP = "127.0.0.1"

// RedirectHandler обработчик редиректов
type RedirectHandler struct {
	resolver *service.Resolver
	pages    config.Redirect
	log      *zap.Logger
}

// NewRedirectHandler создает новый обработчик редиректов
func NewRedirectHandler(resolver *service.Resolver, pages config.Redirect, log *zap.Logger) *RedirectHandler {
	return &RedirectHandler{
		resolver: resolver,
		pages:    pages,
		log:      log,
	}
}

// HandleRedirect обрабатывает GET /{shortCode}. Ответ всегда редирект,
// даже для неизвестных и просроченных ссылок.
func (h *RedirectHandler) HandleRedirect(w http.ResponseWriter, r *http.Request) {
	res := h.resolver.Resolve(r.Context(), service.RedirectRequest{
		ShortCode: r.PathValue("shortCode"),
		Query:     r.URL.Query(),
		IPAddress: extractIPAddress(r),
		UserAgent: r.UserAgent(),
		Referer:   r.Referer(),
	})

	// Каждый переход должен дойти до сервера
	w.Header().Set("Cache-Control", "private, no-store")
	http.Redirect(w, r, h.destination(res), http.StatusFound)
}

func (h *RedirectHandler) destination(res service.Resolution) string {
	switch res.Outcome {
	case service.OutcomeSuccess:
		return res.Destination
	case service.OutcomeNotFound:
		return h.pages.NotFoundPath
	case service.OutcomeExpired:
		return h.pages.ExpiredPath
	case service.OutcomeLimitReached:
		return h.pages.LimitReachedPath
	default:
		return h.pages.ErrorPath
	}
}

// extractIPAddress извлекает IP адрес клиента: первый адрес из
// X-Forwarded-For, затем X-Real-IP, иначе loopbackIP.
func extractIPAddress(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}

	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}

	return loopbackIP
}
