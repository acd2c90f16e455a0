package http

import (
	"LinkLab-Backend/internal/auth"
	"LinkLab-Backend/internal/domain"
	"LinkLab-Backend/internal/repository"
	"LinkLab-Backend/internal/service"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"
)

const maxLinkBodyBytes = 1 << 16

// LinksHandler обработчик для работы со ссылками
type LinksHandler struct {
	shortener *service.URLShortenerService
	passwords *auth.PasswordService
	limiter   *IPRateLimiter
	log       *zap.Logger
}

// NewLinksHandler создает новый обработчик ссылок
func NewLinksHandler(
	shortener *service.URLShortenerService,
	passwords *auth.PasswordService,
	limiter *IPRateLimiter,
	log *zap.Logger,
) *LinksHandler {
	return &LinksHandler{
		shortener: shortener,
		passwords: passwords,
		limiter:   limiter,
		log:       log,
	}
}

// CreateLinkRequest структура запроса создания ссылки
type CreateLinkRequest struct {
	OriginalURL   string                `json:"original_url"`
	CustomAlias   string                `json:"custom_alias,omitempty"`
	Title         string                `json:"title,omitempty"`
	Description   string                `json:"description,omitempty"`
	ExpiryDate    *time.Time            `json:"expiry_date,omitempty"`
	ClickLimit    *int64                `json:"click_limit,omitempty"`
	Password      string                `json:"password,omitempty"`
	CampaignID    *int64                `json:"campaign_id,omitempty"`
	UTMParameters *domain.UTMParameters `json:"utm_parameters,omitempty"`
}

// ownerOnly сообщает, заданы ли поля, доступные только авторизованным пользователям
func (r *CreateLinkRequest) ownerOnly() bool {
	return r.CustomAlias != "" || r.ExpiryDate != nil || r.ClickLimit != nil ||
		r.Password != "" || r.CampaignID != nil || r.UTMParameters != nil
}

// LinkResponse представление ссылки в API
type LinkResponse struct {
	ShortCode     string                `json:"short_code"`
	ShortURL      string                `json:"short_url"`
	OriginalURL   string                `json:"original_url"`
	Title         *string               `json:"title,omitempty"`
	Description   *string               `json:"description,omitempty"`
	FaviconURL    *string               `json:"favicon_url,omitempty"`
	QRCodeURL     *string               `json:"qr_code_url,omitempty"`
	ExpiryDate    *time.Time            `json:"expiry_date,omitempty"`
	ClickLimit    *int64                `json:"click_limit,omitempty"`
	HasPassword   bool                  `json:"has_password"`
	CampaignID    *int64                `json:"campaign_id,omitempty"`
	UTMParameters *domain.UTMParameters `json:"utm_parameters,omitempty"`
	IsActive      bool                  `json:"is_active"`
	Demo          bool                  `json:"demo"`
	CreatedAt     time.Time             `json:"created_at"`
}

// ListLinksResponse структура ответа списка ссылок
type ListLinksResponse struct {
	Links []LinkResponse `json:"links"`
	Total int64          `json:"total"`
	Page  int            `json:"page"`
	Limit int            `json:"limit"`
}

// ClaimLinkRequest структура запроса на присвоение демо-ссылки
type ClaimLinkRequest struct {
	ShortCode string `json:"short_code"`
}

// CreateLink создает новую короткую ссылку
//
//	@Summary		Create a short link
//	@Description	Authenticated callers may set an alias and link options. Anonymous callers get a demo link.
//	@Tags			Links
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			request	body		CreateLinkRequest	true	"Link creation request"
//	@Success		201		{object}	LinkResponse		"Link created successfully"
//	@Failure		400		{object}	map[string]string	"Invalid request data"
//	@Failure		401		{object}	map[string]string	"Authentication required for link options"
//	@Failure		409		{object}	map[string]string	"Alias already exists"
//	@Failure		429		{object}	map[string]string	"Too many anonymous requests"
//	@Router			/api/shorten [post]
func (h *LinksHandler) CreateLink(w http.ResponseWriter, r *http.Request) {
	var req CreateLinkRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxLinkBodyBytes)).Decode(&req); err != nil {
		h.log.Debug("invalid create link request", zap.Error(err))
		writeError(w, h.log, "Invalid request format", http.StatusBadRequest)
		return
	}

	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		h.createAnonymous(w, r, &req)
		return
	}

	in := service.CreateLinkInput{
		OriginalURL:   req.OriginalURL,
		CustomAlias:   req.CustomAlias,
		Title:         req.Title,
		Description:   req.Description,
		ExpiryDate:    req.ExpiryDate,
		ClickLimit:    req.ClickLimit,
		CampaignID:    req.CampaignID,
		UTMParameters: req.UTMParameters,
	}
	if req.ClickLimit != nil && *req.ClickLimit < 1 {
		writeError(w, h.log, "click_limit must be positive", http.StatusBadRequest)
		return
	}
	if req.Password != "" {
		hash, err := h.passwords.HashPassword(req.Password)
		if err != nil {
			h.log.Error("failed to hash link password", zap.Error(err))
			writeError(w, h.log, "Internal server error", http.StatusInternalServerError)
			return
		}
		in.Password = &hash
	}

	link, err := h.shortener.Shorten(r.Context(), userID, in)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	h.log.Info("created link", zap.String("short_code", link.ShortCode), zap.Int64("user_id", userID))
	writeJSON(w, h.log, h.toResponse(link), http.StatusCreated)
}

func (h *LinksHandler) createAnonymous(w http.ResponseWriter, r *http.Request, req *CreateLinkRequest) {
	if req.ownerOnly() {
		writeError(w, h.log, "Sign in to use custom aliases and link options", http.StatusUnauthorized)
		return
	}

	if h.limiter != nil {
		if client := h.limiter.ClientKey(r); !h.limiter.Allow(client) {
			h.log.Debug("anonymous shorten rate limited", zap.String("client", client))
			w.Header().Set("Retry-After", "1")
			writeError(w, h.log, "Too many requests", http.StatusTooManyRequests)
			return
		}
	}

	entry, err := h.shortener.ShortenAnonymous(r.Context(), req.OriginalURL)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	h.log.Info("created anonymous link", zap.String("short_code", entry.ShortCode))
	writeJSON(w, h.log, LinkResponse{
		ShortCode:   entry.ShortCode,
		ShortURL:    h.shortener.ShortURL(entry.ShortCode),
		OriginalURL: entry.OriginalURL,
		Title:       optional(entry.Title),
		QRCodeURL:   optional(entry.QRCodeURL),
		IsActive:    true,
		Demo:        true,
		CreatedAt:   entry.CreatedAt,
	}, http.StatusCreated)
}

// ListLinks возвращает активные ссылки пользователя постранично
//
//	@Summary	List my links
//	@Tags		Links
//	@Produce	json
//	@Security	BearerAuth
//	@Param		page	query		int	false	"Page number"	default(1)
//	@Param		limit	query		int	false	"Page size"		default(10)
//	@Success	200		{object}	ListLinksResponse
//	@Failure	401		{object}	map[string]string	"Authentication required"
//	@Router		/api/links [get]
func (h *LinksHandler) ListLinks(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		writeError(w, h.log, "Authentication required", http.StatusUnauthorized)
		return
	}

	page := queryInt(r, "page", 1)
	limit := queryInt(r, "limit", 10)
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 10
	}

	links, total, err := h.shortener.ListLinks(r.Context(), userID, page, limit)
	if err != nil {
		h.log.Error("failed to list user links", zap.Int64("user_id", userID), zap.Error(err))
		writeError(w, h.log, "Failed to retrieve links", http.StatusInternalServerError)
		return
	}

	response := ListLinksResponse{
		Links: make([]LinkResponse, 0, len(links)),
		Total: total,
		Page:  page,
		Limit: limit,
	}
	for _, link := range links {
		response.Links = append(response.Links, h.toResponse(link))
	}

	writeJSON(w, h.log, response, http.StatusOK)
}

// DeleteLink деактивирует ссылку владельца
//
//	@Summary	Deactivate a link
//	@Tags		Links
//	@Security	BearerAuth
//	@Param		shortCode	path	string	true	"Short code"
//	@Success	204			"Link deactivated"
//	@Failure	401			{object}	map[string]string	"Authentication required"
//	@Failure	404			{object}	map[string]string	"Link not found"
//	@Router		/api/links/{shortCode} [delete]
func (h *LinksHandler) DeleteLink(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		writeError(w, h.log, "Authentication required", http.StatusUnauthorized)
		return
	}

	code := r.PathValue("shortCode")
	if err := h.shortener.DeactivateLink(r.Context(), code, userID); err != nil {
		h.writeServiceError(w, err)
		return
	}

	h.log.Info("deactivated link", zap.String("short_code", code), zap.Int64("user_id", userID))
	w.WriteHeader(http.StatusNoContent)
}

// ClaimLink присваивает анонимную ссылку текущему пользователю
//
//	@Summary	Claim an anonymous link
//	@Tags		Links
//	@Accept		json
//	@Security	BearerAuth
//	@Param		request	body	ClaimLinkRequest	true	"Claim request"
//	@Success	204		"Link claimed"
//	@Failure	404		{object}	map[string]string	"Link not found"
//	@Failure	409		{object}	map[string]string	"Link already owned"
//	@Router		/api/links/claim [post]
func (h *LinksHandler) ClaimLink(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		writeError(w, h.log, "Authentication required", http.StatusUnauthorized)
		return
	}

	var req ClaimLinkRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxLinkBodyBytes)).Decode(&req); err != nil || req.ShortCode == "" {
		writeError(w, h.log, "short_code is required", http.StatusBadRequest)
		return
	}

	if err := h.shortener.ClaimLink(r.Context(), req.ShortCode, userID); err != nil {
		h.writeServiceError(w, err)
		return
	}

	h.log.Info("claimed link", zap.String("short_code", req.ShortCode), zap.Int64("user_id", userID))
	w.WriteHeader(http.StatusNoContent)
}

func (h *LinksHandler) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidURL), errors.Is(err, service.ErrInvalidAlias):
		writeError(w, h.log, err.Error(), http.StatusBadRequest)
	case errors.Is(err, repository.ErrAliasExists):
		writeError(w, h.log, "Alias already exists", http.StatusConflict)
	case errors.Is(err, repository.ErrAlreadyOwned):
		writeError(w, h.log, "Link is already owned by another user", http.StatusConflict)
	case errors.Is(err, repository.ErrAliasNotFound):
		writeError(w, h.log, "Link not found", http.StatusNotFound)
	case errors.Is(err, service.ErrCodeGenerationExhausted):
		h.log.Error("short code space exhausted", zap.Error(err))
		writeError(w, h.log, "Could not allocate a short code, try again", http.StatusServiceUnavailable)
	default:
		h.log.Error("link operation failed", zap.Error(err))
		writeError(w, h.log, "Internal server error", http.StatusInternalServerError)
	}
}

func (h *LinksHandler) toResponse(link *domain.Link) LinkResponse {
	return LinkResponse{
		ShortCode:     link.ShortCode,
		ShortURL:      h.shortener.ShortURL(link.ShortCode),
		OriginalURL:   link.OriginalURL,
		Title:         link.Title,
		Description:   link.Description,
		FaviconURL:    link.FaviconURL,
		QRCodeURL:     link.QRCodeURL,
		ExpiryDate:    link.ExpiryDate,
		ClickLimit:    link.ClickLimit,
		HasPassword:   link.Password != nil,
		CampaignID:    link.CampaignID,
		UTMParameters: link.UTMParameters,
		IsActive:      link.IsActive,
		CreatedAt:     link.CreatedAt,
	}
}

func queryInt(r *http.Request, key string, def int) int {
	v, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil {
		return def
	}
	return v
}

func optional(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}
