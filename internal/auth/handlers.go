package auth

import (
	"LinkLab-Backend/internal/repository"
	"encoding/json"
	"errors"
	"net/http"
	"net/mail"
	"strings"

	"go.uber.org/zap"
)

const maxAuthBodyBytes = 1 << 16

// AuthHandlers обработчики аутентификации
type AuthHandlers struct {
	users           repository.UserStorage
	jwtService      *JWTService
	passwordService *PasswordService
	log             *zap.Logger
}

// NewAuthHandlers создает новые обработчики аутентификации
func NewAuthHandlers(users repository.UserStorage, jwtService *JWTService, passwordService *PasswordService, log *zap.Logger) *AuthHandlers {
	return &AuthHandlers{
		users:           users,
		jwtService:      jwtService,
		passwordService: passwordService,
		log:             log,
	}
}

// CredentialsRequest тело запросов регистрации и входа
type CredentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RefreshRequest тело запроса обновления токенов
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// AuthResponse структура ответа аутентификации
type AuthResponse struct {
	TokenPair
	User UserInfo `json:"user"`
}

// UserInfo информация о пользователе
type UserInfo struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
}

// Register обработчик регистрации
//
//	@Summary		Register a new user
//	@Description	Create a new user account
//	@Tags			Authentication
//	@Accept			json
//	@Produce		json
//	@Param			request	body		CredentialsRequest	true	"Registration request"
//	@Success		201		{object}	AuthResponse		"User registered successfully"
//	@Failure		400		{object}	ErrorResponse		"Invalid request data"
//	@Failure		409		{object}	ErrorResponse		"User already exists"
//	@Router			/api/auth/register [post]
func (h *AuthHandlers) Register(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeCredentials(w, r)
	if !ok {
		return
	}

	if !isValidEmail(req.Email) {
		writeError(w, "Invalid email format", http.StatusBadRequest)
		return
	}
	if err := IsValidPassword(req.Password); err != nil {
		writeError(w, err.Error(), http.StatusBadRequest)
		return
	}

	hashedPassword, err := h.passwordService.HashPassword(req.Password)
	if err != nil {
		h.log.Error("failed to hash password", zap.Error(err))
		writeError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	// Уникальность email обеспечивает индекс в БД
	user, err := h.users.CreateUser(r.Context(), req.Email, hashedPassword)
	if err != nil {
		if errors.Is(err, repository.ErrUserExists) {
			writeError(w, "User with this email already exists", http.StatusConflict)
			return
		}
		h.log.Error("failed to create user", zap.Error(err))
		writeError(w, "Failed to create user", http.StatusInternalServerError)
		return
	}

	h.respondWithTokens(w, user.ID, user.Email, http.StatusCreated)
	h.log.Info("user registered", zap.Int64("user_id", user.ID))
}

// Login обработчик входа
//
//	@Summary		Login user
//	@Description	Authenticate user and receive JWT tokens
//	@Tags			Authentication
//	@Accept			json
//	@Produce		json
//	@Param			request	body		CredentialsRequest	true	"Login request"
//	@Success		200		{object}	AuthResponse		"Login successful"
//	@Failure		400		{object}	ErrorResponse		"Invalid request data"
//	@Failure		401		{object}	ErrorResponse		"Invalid credentials"
//	@Router			/api/auth/login [post]
func (h *AuthHandlers) Login(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeCredentials(w, r)
	if !ok {
		return
	}

	user, err := h.users.GetUserByEmail(r.Context(), req.Email)
	if err != nil {
		if !errors.Is(err, repository.ErrUserNotFound) {
			h.log.Error("failed to load user", zap.Error(err))
			writeError(w, "Internal server error", http.StatusInternalServerError)
			return
		}
		writeError(w, "Invalid email or password", http.StatusUnauthorized)
		return
	}

	if err := h.passwordService.VerifyPassword(user.PasswordHash, req.Password); err != nil {
		h.log.Debug("invalid password", zap.Int64("user_id", user.ID))
		writeError(w, "Invalid email or password", http.StatusUnauthorized)
		return
	}

	if err := h.users.UpdateLastLogin(r.Context(), user.ID); err != nil {
		h.log.Warn("failed to update last login time", zap.Int64("user_id", user.ID), zap.Error(err))
	}

	h.respondWithTokens(w, user.ID, user.Email, http.StatusOK)
	h.log.Info("user logged in", zap.Int64("user_id", user.ID))
}

// Refresh выдает новую пару токенов по refresh токену
//
//	@Summary		Refresh tokens
//	@Tags			Authentication
//	@Accept			json
//	@Produce		json
//	@Param			request	body		RefreshRequest	true	"Refresh request"
//	@Success		200		{object}	AuthResponse	"New token pair"
//	@Failure		401		{object}	ErrorResponse	"Invalid refresh token"
//	@Router			/api/auth/refresh [post]
func (h *AuthHandlers) Refresh(w http.ResponseWriter, r *http.Request) {
	var req RefreshRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxAuthBodyBytes)).Decode(&req); err != nil {
		writeError(w, "Invalid request format", http.StatusBadRequest)
		return
	}

	claims, err := h.jwtService.ValidateRefreshToken(req.RefreshToken)
	if err != nil {
		h.log.Debug("invalid refresh token", zap.Error(err))
		writeError(w, "Invalid refresh token", http.StatusUnauthorized)
		return
	}

	h.respondWithTokens(w, claims.UserID, claims.Email, http.StatusOK)
}

func (h *AuthHandlers) decodeCredentials(w http.ResponseWriter, r *http.Request) (*CredentialsRequest, bool) {
	var req CredentialsRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxAuthBodyBytes)).Decode(&req); err != nil {
		h.log.Debug("invalid auth request", zap.Error(err))
		writeError(w, "Invalid request format", http.StatusBadRequest)
		return nil, false
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	return &req, true
}

func (h *AuthHandlers) respondWithTokens(w http.ResponseWriter, userID int64, email string, status int) {
	pair, err := h.jwtService.GenerateTokenPair(userID, email)
	if err != nil {
		h.log.Error("failed to generate tokens", zap.Error(err))
		writeError(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, AuthResponse{
		TokenPair: *pair,
		User:      UserInfo{ID: userID, Email: email},
	}, status)
}

func isValidEmail(email string) bool {
	if len(email) < 3 || len(email) > 254 {
		return false
	}
	addr, err := mail.ParseAddress(email)
	return err == nil && addr.Address == email
}
