package auth

import (
	"LinkLab-Backend/internal/repository/memory"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

func newTestHandlers() (*AuthHandlers, *memory.MemStorage) {
	storage := memory.New()
	return NewAuthHandlers(storage, testJWTService(), NewPasswordService(bcrypt.MinCost), zap.NewNop()), storage
}

func doJSON(t *testing.T, h http.HandlerFunc, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h(rec, req)
	return rec
}

func TestRegisterAndLogin(t *testing.T) {
	h, storage := newTestHandlers()

	rec := doJSON(t, h.Register, `{"email":" User@Example.com ","password":"password123"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp AuthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "user@example.com", resp.User.Email)
	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)

	rec = doJSON(t, h.Register, `{"email":"user@example.com","password":"password123"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = doJSON(t, h.Login, `{"email":"USER@example.com","password":"password123"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	user, err := storage.GetUserByEmail(context.Background(), "user@example.com")
	require.NoError(t, err)
	assert.NotNil(t, user.LastLoginAt)

	rec = doJSON(t, h.Login, `{"email":"user@example.com","password":"wrong-password"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doJSON(t, h.Login, `{"email":"nobody@example.com","password":"password123"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRegister_Validation(t *testing.T) {
	h, _ := newTestHandlers()

	assert.Equal(t, http.StatusBadRequest, doJSON(t, h.Register, `{`).Code)
	assert.Equal(t, http.StatusBadRequest, doJSON(t, h.Register, `{"email":"not-an-email","password":"password123"}`).Code)
	assert.Equal(t, http.StatusBadRequest, doJSON(t, h.Register, `{"email":"a@example.com","password":"short"}`).Code)
}

func TestRefresh(t *testing.T) {
	h, _ := newTestHandlers()

	pair, err := h.jwtService.GenerateTokenPair(9, "nine@example.com")
	require.NoError(t, err)

	rec := doJSON(t, h.Refresh, `{"refresh_token":"`+pair.RefreshToken+`"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp AuthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, int64(9), resp.User.ID)

	rec = doJSON(t, h.Refresh, `{"refresh_token":"`+pair.AccessToken+`"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
