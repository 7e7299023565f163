package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/studentserving/backend/internal/apperrors"
	"github.com/studentserving/backend/internal/models"
	"github.com/studentserving/backend/libs/auth/service"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// mockLoginAccountRepository is an in-memory implementation of LoginAccountRepository
type mockLoginAccountRepository struct {
	accounts       map[string]models.LoginAccount
	lastLoginErr   error
	lastLoginCalls int
}

func (m *mockLoginAccountRepository) GetByID(ctx context.Context, accountID string) (*models.LoginAccount, error) {
	account, ok := m.accounts[accountID]
	if !ok {
		return nil, fmt.Errorf("%w: account %s", apperrors.ErrNotFound, accountID)
	}
	return &account, nil
}

func (m *mockLoginAccountRepository) Create(ctx context.Context, account *models.LoginAccount) error {
	if _, ok := m.accounts[account.AccountID]; ok {
		return fmt.Errorf("%w: duplicate account", apperrors.ErrConflict)
	}
	m.accounts[account.AccountID] = *account
	return nil
}

func (m *mockLoginAccountRepository) modify(accountID string, apply func(*models.LoginAccount)) error {
	account, ok := m.accounts[accountID]
	if !ok {
		return fmt.Errorf("%w: account %s", apperrors.ErrNotFound, accountID)
	}
	apply(&account)
	m.accounts[accountID] = account
	return nil
}

func (m *mockLoginAccountRepository) UpdateRoleAndStatus(ctx context.Context, accountID string, role, status int, updatedAt time.Time) error {
	return m.modify(accountID, func(a *models.LoginAccount) {
		a.Role, a.AccountStatus, a.UpdatedAt = role, status, &updatedAt
	})
}

func (m *mockLoginAccountRepository) UpdateLastLogin(ctx context.Context, accountID string, at time.Time) error {
	m.lastLoginCalls++
	if m.lastLoginErr != nil {
		return m.lastLoginErr
	}
	return m.modify(accountID, func(a *models.LoginAccount) { a.LastLoginAt = &at })
}

func (m *mockLoginAccountRepository) UpdatePasswordHash(ctx context.Context, accountID, hash string, updatedAt time.Time) error {
	return m.modify(accountID, func(a *models.LoginAccount) { a.PasswordHash = hash })
}

// mockTokenIssuer is a mock implementation of TokenIssuer
type mockTokenIssuer struct {
	err error
}

func (m *mockTokenIssuer) GenerateAccessToken(accountID string, role int) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	return fmt.Sprintf("token-%s-%d", accountID, role), nil
}

func hashPassword(t *testing.T, password string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(hash)
}

func setupLoginAccountService(t *testing.T) (*loginAccountService, *mockLoginAccountRepository) {
	t.Helper()
	repo := &mockLoginAccountRepository{accounts: map[string]models.LoginAccount{
		"STU001": {AccountID: "STU001", Role: service.RoleStudent, AccountStatus: models.AccountStatusActive, PasswordHash: hashPassword(t, "Password123!")},
		"STU002": {AccountID: "STU002", Role: service.RoleStudent, AccountStatus: models.AccountStatusInactive, PasswordHash: hashPassword(t, "Password123!")},
	}}
	return NewLoginAccountService(repo, &mockTokenIssuer{}, "changeme123", zap.NewNop()), repo
}

var (
	adminCaller   = Caller{AccountID: "ADM1", Role: service.RoleAdmin}
	studentCaller = Caller{AccountID: "STU001", Role: service.RoleStudent}
)

func TestLoginAccountService_Create(t *testing.T) {
	tests := []struct {
		name        string
		req         models.LoginAccountCreateRequest
		password    string
		expectedErr error
	}{
		{
			name:     "default password",
			req:      models.LoginAccountCreateRequest{AccountID: "STU100", Role: service.RoleStudent, AccountStatus: models.AccountStatusActive},
			password: "changeme123",
		},
		{
			name:     "explicit password",
			req:      models.LoginAccountCreateRequest{AccountID: "ADM100", Role: service.RoleAdmin, AccountStatus: models.AccountStatusActive, Password: "S3cretPass"},
			password: "S3cretPass",
		},
		{
			name:        "missing id",
			req:         models.LoginAccountCreateRequest{Role: service.RoleStudent, AccountStatus: 1},
			expectedErr: apperrors.ErrValidation,
		},
		{
			name:        "unknown role",
			req:         models.LoginAccountCreateRequest{AccountID: "X", Role: 7, AccountStatus: 1},
			expectedErr: apperrors.ErrValidation,
		},
		{
			name:        "unknown status",
			req:         models.LoginAccountCreateRequest{AccountID: "X", Role: service.RoleStudent, AccountStatus: 5},
			expectedErr: apperrors.ErrValidation,
		},
		{
			name:        "short password",
			req:         models.LoginAccountCreateRequest{AccountID: "X", Role: service.RoleStudent, AccountStatus: 1, Password: "short"},
			expectedErr: apperrors.ErrValidation,
		},
		{
			name:        "password over bcrypt limit",
			req:         models.LoginAccountCreateRequest{AccountID: "X", Role: service.RoleStudent, AccountStatus: 1, Password: strings.Repeat("p", 80)},
			expectedErr: apperrors.ErrValidation,
		},
		{
			name:     "password at bcrypt limit",
			req:      models.LoginAccountCreateRequest{AccountID: "STU101", Role: service.RoleStudent, AccountStatus: 1, Password: strings.Repeat("p", 72)},
			password: strings.Repeat("p", 72),
		},
		{
			name:        "duplicate",
			req:         models.LoginAccountCreateRequest{AccountID: "STU001", Role: service.RoleStudent, AccountStatus: 1},
			expectedErr: apperrors.ErrConflict,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, repo := setupLoginAccountService(t)

			account, err := svc.Create(context.Background(), tt.req)

			if tt.expectedErr != nil {
				assert.ErrorIs(t, err, tt.expectedErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.req.AccountID, account.AccountID)
			stored := repo.accounts[tt.req.AccountID]
			assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte(tt.password)))
		})
	}
}

func TestLoginAccountService_Get(t *testing.T) {
	svc, _ := setupLoginAccountService(t)
	ctx := context.Background()

	account, err := svc.Get(ctx, studentCaller, "STU001")
	require.NoError(t, err)
	assert.Equal(t, "STU001", account.AccountID)

	_, err = svc.Get(ctx, studentCaller, "STU002")
	assert.ErrorIs(t, err, apperrors.ErrForbidden)

	_, err = svc.Get(ctx, adminCaller, "STU002")
	assert.NoError(t, err)

	_, err = svc.Get(ctx, adminCaller, "missing")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestLoginAccountService_Update(t *testing.T) {
	svc, repo := setupLoginAccountService(t)

	account, err := svc.Update(context.Background(), "STU002", models.LoginAccountUpdateRequest{Role: service.RoleStudent, AccountStatus: models.AccountStatusActive})
	require.NoError(t, err)
	assert.Equal(t, models.AccountStatusActive, account.AccountStatus)
	assert.NotNil(t, repo.accounts["STU002"].UpdatedAt)

	_, err = svc.Update(context.Background(), "missing", models.LoginAccountUpdateRequest{Role: service.RoleStudent, AccountStatus: 1})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	_, err = svc.Update(context.Background(), "STU002", models.LoginAccountUpdateRequest{Role: 0, AccountStatus: 1})
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestLoginAccountService_TouchLastLogin(t *testing.T) {
	svc, repo := setupLoginAccountService(t)

	require.NoError(t, svc.TouchLastLogin(context.Background(), studentCaller, "STU001"))
	assert.NotNil(t, repo.accounts["STU001"].LastLoginAt)

	assert.ErrorIs(t, svc.TouchLastLogin(context.Background(), studentCaller, "STU002"), apperrors.ErrForbidden)
	assert.ErrorIs(t, svc.TouchLastLogin(context.Background(), adminCaller, "missing"), apperrors.ErrNotFound)
}

func TestLoginAccountService_ChangePassword(t *testing.T) {
	tests := []struct {
		name        string
		caller      Caller
		accountID   string
		req         models.ChangePasswordRequest
		expectedErr error
	}{
		{
			name:      "success",
			caller:    studentCaller,
			accountID: "STU001",
			req:       models.ChangePasswordRequest{CurrentPassword: "Password123!", NewPassword: "NewPassword1"},
		},
		{
			name:        "other account",
			caller:      studentCaller,
			accountID:   "STU002",
			req:         models.ChangePasswordRequest{CurrentPassword: "Password123!", NewPassword: "NewPassword1"},
			expectedErr: apperrors.ErrForbidden,
		},
		{
			name:        "wrong current password",
			caller:      studentCaller,
			accountID:   "STU001",
			req:         models.ChangePasswordRequest{CurrentPassword: "wrong-password", NewPassword: "NewPassword1"},
			expectedErr: apperrors.ErrValidation,
		},
		{
			name:        "new password too short",
			caller:      studentCaller,
			accountID:   "STU001",
			req:         models.ChangePasswordRequest{CurrentPassword: "Password123!", NewPassword: "short"},
			expectedErr: apperrors.ErrValidation,
		},
		{
			name:        "new password over bcrypt limit",
			caller:      studentCaller,
			accountID:   "STU001",
			req:         models.ChangePasswordRequest{CurrentPassword: "Password123!", NewPassword: strings.Repeat("n", 80)},
			expectedErr: apperrors.ErrValidation,
		},
		{
			name:        "missing current password",
			caller:      studentCaller,
			accountID:   "STU001",
			req:         models.ChangePasswordRequest{NewPassword: "NewPassword1"},
			expectedErr: apperrors.ErrValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, repo := setupLoginAccountService(t)

			err := svc.ChangePassword(context.Background(), tt.caller, tt.accountID, tt.req)

			if tt.expectedErr != nil {
				assert.ErrorIs(t, err, tt.expectedErr)
				return
			}
			require.NoError(t, err)
			stored := repo.accounts[tt.accountID]
			assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte(tt.req.NewPassword)))
		})
	}
}

func TestLoginAccountService_Login(t *testing.T) {
	tests := []struct {
		name        string
		req         models.LoginRequest
		tokenErr    error
		expectedErr error
	}{
		{name: "success", req: models.LoginRequest{AccountID: " STU001 ", Password: "Password123!"}},
		{name: "wrong password", req: models.LoginRequest{AccountID: "STU001", Password: "nope"}, expectedErr: apperrors.ErrUnauthorized},
		{name: "unknown account", req: models.LoginRequest{AccountID: "STU404", Password: "Password123!"}, expectedErr: apperrors.ErrUnauthorized},
		{name: "inactive account", req: models.LoginRequest{AccountID: "STU002", Password: "Password123!"}, expectedErr: apperrors.ErrUnauthorized},
		{name: "missing password", req: models.LoginRequest{AccountID: "STU001"}, expectedErr: apperrors.ErrValidation},
		{name: "token failure", req: models.LoginRequest{AccountID: "STU001", Password: "Password123!"}, tokenErr: errors.New("signing failed")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &mockLoginAccountRepository{accounts: map[string]models.LoginAccount{
				"STU001": {AccountID: "STU001", Role: service.RoleStudent, AccountStatus: models.AccountStatusActive, PasswordHash: hashPassword(t, "Password123!")},
				"STU002": {AccountID: "STU002", Role: service.RoleStudent, AccountStatus: models.AccountStatusInactive, PasswordHash: hashPassword(t, "Password123!")},
			}}
			svc := NewLoginAccountService(repo, &mockTokenIssuer{err: tt.tokenErr}, "changeme123", zap.NewNop())

			resp, err := svc.Login(context.Background(), tt.req)

			switch {
			case tt.tokenErr != nil:
				assert.Error(t, err)
				assert.Nil(t, resp)
				assert.Equal(t, 0, repo.lastLoginCalls)
			case tt.expectedErr != nil:
				assert.ErrorIs(t, err, tt.expectedErr)
				assert.Nil(t, resp)
				assert.Equal(t, 0, repo.lastLoginCalls)
			default:
				require.NoError(t, err)
				assert.Equal(t, "token-STU001-1", resp.AccessToken)
				assert.Equal(t, "STU001", resp.Account.AccountID)
				assert.NotNil(t, resp.Account.LastLoginAt)
				assert.NotNil(t, repo.accounts["STU001"].LastLoginAt)
			}
		})
	}
}

func TestLoginAccountService_Login_LastLoginFailureIsNotFatal(t *testing.T) {
	svc, repo := setupLoginAccountService(t)
	repo.lastLoginErr = errors.New("db down")

	resp, err := svc.Login(context.Background(), models.LoginRequest{AccountID: "STU001", Password: "Password123!"})

	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
	assert.Nil(t, resp.Account.LastLoginAt)
}
