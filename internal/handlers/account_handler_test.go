package handlers

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/studentserving/backend/internal/apperrors"
	"github.com/studentserving/backend/internal/models"
	"github.com/studentserving/backend/internal/services"
	"github.com/studentserving/backend/libs/auth/middleware"
	"github.com/studentserving/backend/libs/auth/service"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// stubLoginAccountRepository keeps accounts in memory
type stubLoginAccountRepository struct {
	accounts map[string]models.LoginAccount
}

func (s *stubLoginAccountRepository) GetByID(ctx context.Context, accountID string) (*models.LoginAccount, error) {
	account, ok := s.accounts[accountID]
	if !ok {
		return nil, fmt.Errorf("%w: account %s", apperrors.ErrNotFound, accountID)
	}
	return &account, nil
}

func (s *stubLoginAccountRepository) Create(ctx context.Context, account *models.LoginAccount) error {
	if _, ok := s.accounts[account.AccountID]; ok {
		return fmt.Errorf("%w: account %s already exists", apperrors.ErrConflict, account.AccountID)
	}
	s.accounts[account.AccountID] = *account
	return nil
}

func (s *stubLoginAccountRepository) UpdateRoleAndStatus(ctx context.Context, accountID string, role, status int, updatedAt time.Time) error {
	return s.modify(accountID, func(a *models.LoginAccount) {
		a.Role = role
		a.AccountStatus = status
		a.UpdatedAt = &updatedAt
	})
}

func (s *stubLoginAccountRepository) UpdateLastLogin(ctx context.Context, accountID string, at time.Time) error {
	return s.modify(accountID, func(a *models.LoginAccount) { a.LastLoginAt = &at })
}

func (s *stubLoginAccountRepository) UpdatePasswordHash(ctx context.Context, accountID, hash string, updatedAt time.Time) error {
	return s.modify(accountID, func(a *models.LoginAccount) {
		a.PasswordHash = hash
		a.UpdatedAt = &updatedAt
	})
}

func (s *stubLoginAccountRepository) modify(accountID string, change func(*models.LoginAccount)) error {
	account, ok := s.accounts[accountID]
	if !ok {
		return fmt.Errorf("%w: account %s", apperrors.ErrNotFound, accountID)
	}
	change(&account)
	s.accounts[accountID] = account
	return nil
}

type accountFixture struct {
	router http.Handler
	repo   *stubLoginAccountRepository
	tokens *service.TokenGenerator
}

func setupAccountRouter(t *testing.T) *accountFixture {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	require.NoError(t, err)

	repo := &stubLoginAccountRepository{accounts: map[string]models.LoginAccount{
		"ADM001": {AccountID: "ADM001", Role: service.RoleAdmin, AccountStatus: models.AccountStatusActive, PasswordHash: string(hash)},
		"STU001": {AccountID: "STU001", Role: service.RoleStudent, AccountStatus: models.AccountStatusActive, PasswordHash: string(hash)},
		"STU002": {AccountID: "STU002", Role: service.RoleStudent, AccountStatus: models.AccountStatusInactive, PasswordHash: string(hash)},
	}}
	tokens := service.NewTokenGenerator("test-secret", time.Hour)
	logger := zap.NewNop()
	svc := services.NewLoginAccountService(repo, tokens, "changeme123", logger)
	handler := NewAccountHandler(svc, logger, middleware.AuthMiddleware(tokens), middleware.RoleMiddleware(tokens, service.RoleAdmin))

	return &accountFixture{router: newTestRouter(handler), repo: repo, tokens: tokens}
}

func (f *accountFixture) request(t *testing.T, method, target, accountID string, role int, payload any) *httptest.ResponseRecorder {
	t.Helper()
	req := jsonRequest(t, method, target, payload)
	if accountID != "" {
		token, err := f.tokens.GenerateAccessToken(accountID, role)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return serve(f.router, req)
}

func TestAccountHandler_Login(t *testing.T) {
	tests := []struct {
		name           string
		body           any
		expectedStatus int
	}{
		{name: "success", body: map[string]string{"accountId": "STU001", "password": "password123"}, expectedStatus: http.StatusOK},
		{name: "wrong password", body: map[string]string{"accountId": "STU001", "password": "wrong-password"}, expectedStatus: http.StatusUnauthorized},
		{name: "unknown account", body: map[string]string{"accountId": "NOPE", "password": "password123"}, expectedStatus: http.StatusUnauthorized},
		{name: "inactive account", body: map[string]string{"accountId": "STU002", "password": "password123"}, expectedStatus: http.StatusUnauthorized},
		{name: "missing password", body: map[string]string{"accountId": "STU001"}, expectedStatus: http.StatusBadRequest},
		{name: "empty body", expectedStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := setupAccountRouter(t)

			w := f.request(t, http.MethodPost, "/api/accounts/login", "", 0, tt.body)

			require.Equal(t, tt.expectedStatus, w.Code, w.Body.String())
			if tt.expectedStatus != http.StatusOK {
				return
			}
			assert.NotContains(t, w.Body.String(), "password")
			resp := decodeBody[models.LoginResponse](t, w)
			accountID, role, err := f.tokens.ValidateAccessToken(resp.AccessToken)
			require.NoError(t, err)
			assert.Equal(t, "STU001", accountID)
			assert.Equal(t, service.RoleStudent, role)
			assert.NotNil(t, f.repo.accounts["STU001"].LastLoginAt)
		})
	}
}

func TestAccountHandler_Get(t *testing.T) {
	tests := []struct {
		name           string
		target         string
		callerID       string
		callerRole     int
		expectedStatus int
	}{
		{name: "anonymous", target: "/api/accounts/STU001", expectedStatus: http.StatusUnauthorized},
		{name: "own account", target: "/api/accounts/STU001", callerID: "STU001", callerRole: service.RoleStudent, expectedStatus: http.StatusOK},
		{name: "other account", target: "/api/accounts/ADM001", callerID: "STU001", callerRole: service.RoleStudent, expectedStatus: http.StatusForbidden},
		{name: "admin reads any", target: "/api/accounts/STU001", callerID: "ADM001", callerRole: service.RoleAdmin, expectedStatus: http.StatusOK},
		{name: "missing account", target: "/api/accounts/STU999", callerID: "ADM001", callerRole: service.RoleAdmin, expectedStatus: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := setupAccountRouter(t)

			w := f.request(t, http.MethodGet, tt.target, tt.callerID, tt.callerRole, nil)

			assert.Equal(t, tt.expectedStatus, w.Code, w.Body.String())
		})
	}
}

func TestAccountHandler_Create(t *testing.T) {
	tests := []struct {
		name           string
		callerID       string
		callerRole     int
		body           any
		expectedStatus int
	}{
		{name: "student is refused", callerID: "STU001", callerRole: service.RoleStudent, body: map[string]any{"accountId": "STU003", "role": 1, "accountStatus": 1}, expectedStatus: http.StatusForbidden},
		{name: "default password", callerID: "ADM001", callerRole: service.RoleAdmin, body: map[string]any{"accountId": "STU003", "role": 1, "accountStatus": 1}, expectedStatus: http.StatusCreated},
		{name: "duplicate", callerID: "ADM001", callerRole: service.RoleAdmin, body: map[string]any{"accountId": "STU001", "role": 1, "accountStatus": 1}, expectedStatus: http.StatusConflict},
		{name: "invalid role", callerID: "ADM001", callerRole: service.RoleAdmin, body: map[string]any{"accountId": "STU003", "role": 7, "accountStatus": 1}, expectedStatus: http.StatusBadRequest},
		{name: "short password", callerID: "ADM001", callerRole: service.RoleAdmin, body: map[string]any{"accountId": "STU003", "role": 1, "accountStatus": 1, "password": "short"}, expectedStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := setupAccountRouter(t)

			w := f.request(t, http.MethodPost, "/api/accounts", tt.callerID, tt.callerRole, tt.body)

			require.Equal(t, tt.expectedStatus, w.Code, w.Body.String())
			if tt.expectedStatus == http.StatusCreated {
				stored := f.repo.accounts["STU003"]
				assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("changeme123")))
				assert.NotContains(t, w.Body.String(), stored.PasswordHash)
			}
		})
	}
}

func TestAccountHandler_Update(t *testing.T) {
	f := setupAccountRouter(t)

	w := f.request(t, http.MethodPut, "/api/accounts/STU001", "ADM001", service.RoleAdmin, map[string]int{"role": 1, "accountStatus": 0})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, models.AccountStatusInactive, f.repo.accounts["STU001"].AccountStatus)

	w = f.request(t, http.MethodPut, "/api/accounts/STU999", "ADM001", service.RoleAdmin, map[string]int{"role": 1, "accountStatus": 1})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = f.request(t, http.MethodPut, "/api/accounts/STU001", "STU001", service.RoleStudent, map[string]int{"role": 2, "accountStatus": 1})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestAccountHandler_TouchLastLogin(t *testing.T) {
	f := setupAccountRouter(t)

	w := f.request(t, http.MethodPost, "/api/accounts/STU001/last-login", "STU001", service.RoleStudent, nil)
	require.Equal(t, http.StatusNoContent, w.Code)
	assert.NotNil(t, f.repo.accounts["STU001"].LastLoginAt)

	w = f.request(t, http.MethodPost, "/api/accounts/ADM001/last-login", "STU001", service.RoleStudent, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestAccountHandler_ChangePassword(t *testing.T) {
	tests := []struct {
		name           string
		body           any
		expectedStatus int
	}{
		{name: "success", body: map[string]string{"currentPassword": "password123", "newPassword": "new-password-1"}, expectedStatus: http.StatusNoContent},
		{name: "wrong current password", body: map[string]string{"currentPassword": "nope", "newPassword": "new-password-1"}, expectedStatus: http.StatusBadRequest},
		{name: "short new password", body: map[string]string{"currentPassword": "password123", "newPassword": "short"}, expectedStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := setupAccountRouter(t)

			w := f.request(t, http.MethodPut, "/api/accounts/STU001/change-password", "STU001", service.RoleStudent, tt.body)

			require.Equal(t, tt.expectedStatus, w.Code, w.Body.String())
			if tt.expectedStatus == http.StatusNoContent {
				hash := f.repo.accounts["STU001"].PasswordHash
				assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte("new-password-1")))
			}
		})
	}
}
