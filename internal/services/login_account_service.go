package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/studentserving/backend/internal/apperrors"
	"github.com/studentserving/backend/internal/models"
	"github.com/studentserving/backend/libs/auth/service"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const (
	minPasswordLength = 8
	// bcrypt only accepts passwords up to 72 bytes
	maxPasswordBytes = 72
)

// LoginAccountRepository is the interface that wraps methods for LoginAccounts table data access
type LoginAccountRepository interface {
	// Method GetByID retrieves an account including its password hash.
	//
	// If no account exists the error wraps ErrNotFound and the returned account is "nil".
	GetByID(ctx context.Context, accountID string) (*models.LoginAccount, error)
	// Method Create inserts an account. A duplicate account ID returns an error wrapping ErrConflict.
	Create(ctx context.Context, account *models.LoginAccount) error
	// Method UpdateRoleAndStatus changes the role and status of an account.
	//
	// Methods that modify an account return an error wrapping ErrNotFound when no account was changed.
	UpdateRoleAndStatus(ctx context.Context, accountID string, role, status int, updatedAt time.Time) error
	// Method UpdateLastLogin stamps the last login time of an account.
	UpdateLastLogin(ctx context.Context, accountID string, at time.Time) error
	// Method UpdatePasswordHash stores a new bcrypt password hash.
	UpdatePasswordHash(ctx context.Context, accountID, hash string, updatedAt time.Time) error
}

// TokenIssuer is the interface that wraps access token generation
type TokenIssuer interface {
	// Method GenerateAccessToken signs a short-lived access token carrying the account ID and role.
	GenerateAccessToken(accountID string, role int) (string, error)
}

// Caller identifies the authenticated account performing a request
type Caller struct {
	AccountID string
	Role      int
}

// IsAdmin reports whether the caller has the administrator role
func (c Caller) IsAdmin() bool {
	return c.Role >= service.RoleAdmin
}

type loginAccountService struct {
	repo            LoginAccountRepository
	tokens          TokenIssuer
	defaultPassword string
	logger          *zap.Logger
	now             func() time.Time
}

// NewLoginAccountService creates a new login account service
//
// "defaultPassword" is used as the initial password when an account is created without one.
func NewLoginAccountService(repo LoginAccountRepository, tokens TokenIssuer, defaultPassword string, logger *zap.Logger) *loginAccountService {
	return &loginAccountService{
		repo:            repo,
		tokens:          tokens,
		defaultPassword: defaultPassword,
		logger:          logger,
		now:             time.Now,
	}
}

// Get retrieves an account. Students may only read their own account.
func (s *loginAccountService) Get(ctx context.Context, caller Caller, accountID string) (*models.LoginAccount, error) {
	if err := authorizeSelf(caller, accountID); err != nil {
		return nil, err
	}

	account, err := s.repo.GetByID(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	return account, nil
}

// Create stores a new account with a bcrypt hash of its initial password
func (s *loginAccountService) Create(ctx context.Context, req models.LoginAccountCreateRequest) (*models.LoginAccount, error) {
	accountID := strings.TrimSpace(req.AccountID)
	if accountID == "" {
		return nil, fmt.Errorf("%w: accountId is required", apperrors.ErrValidation)
	}
	if err := validateRoleAndStatus(req.Role, req.AccountStatus); err != nil {
		return nil, err
	}

	password := req.Password
	if password == "" {
		password = s.defaultPassword
	}
	if err := validatePassword("password", password); err != nil {
		return nil, err
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	account := &models.LoginAccount{
		AccountID:     accountID,
		Role:          req.Role,
		AccountStatus: req.AccountStatus,
		PasswordHash:  string(passwordHash),
		CreatedAt:     s.now().UTC(),
	}

	if err := s.repo.Create(ctx, account); err != nil {
		s.logger.Error("failed to create account", zap.Error(err), zap.String("account_id", accountID))
		return nil, fmt.Errorf("failed to create account: %w", err)
	}

	s.logger.Info("account created", zap.String("account_id", accountID), zap.Int("role", req.Role))
	return account, nil
}

// Update changes the role and status of an account
func (s *loginAccountService) Update(ctx context.Context, accountID string, req models.LoginAccountUpdateRequest) (*models.LoginAccount, error) {
	if err := validateRoleAndStatus(req.Role, req.AccountStatus); err != nil {
		return nil, err
	}

	if err := s.repo.UpdateRoleAndStatus(ctx, accountID, req.Role, req.AccountStatus, s.now().UTC()); err != nil {
		return nil, fmt.Errorf("failed to update account: %w", err)
	}

	account, err := s.repo.GetByID(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	return account, nil
}

// TouchLastLogin stamps the last login time of an account
func (s *loginAccountService) TouchLastLogin(ctx context.Context, caller Caller, accountID string) error {
	if err := authorizeSelf(caller, accountID); err != nil {
		return err
	}

	if err := s.repo.UpdateLastLogin(ctx, accountID, s.now().UTC()); err != nil {
		return fmt.Errorf("failed to update last login: %w", err)
	}
	return nil
}

// ChangePassword replaces the password after verifying the current one
func (s *loginAccountService) ChangePassword(ctx context.Context, caller Caller, accountID string, req models.ChangePasswordRequest) error {
	if err := authorizeSelf(caller, accountID); err != nil {
		return err
	}
	if req.CurrentPassword == "" {
		return fmt.Errorf("%w: currentPassword is required", apperrors.ErrValidation)
	}
	if err := validatePassword("new password", req.NewPassword); err != nil {
		return err
	}

	account, err := s.repo.GetByID(ctx, accountID)
	if err != nil {
		return fmt.Errorf("failed to change password: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(req.CurrentPassword)); err != nil {
		return fmt.Errorf("%w: current password is incorrect", apperrors.ErrValidation)
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	if err := s.repo.UpdatePasswordHash(ctx, accountID, string(passwordHash), s.now().UTC()); err != nil {
		return fmt.Errorf("failed to change password: %w", err)
	}

	s.logger.Info("password changed", zap.String("account_id", accountID))
	return nil
}

// Login verifies the credentials of an active account and issues an access token
//
// Unknown accounts, wrong passwords and inactive accounts all yield the same ErrUnauthorized.
func (s *loginAccountService) Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	accountID := strings.TrimSpace(req.AccountID)
	if accountID == "" || req.Password == "" {
		return nil, fmt.Errorf("%w: accountId and password are required", apperrors.ErrValidation)
	}

	account, err := s.repo.GetByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("%w: invalid credentials", apperrors.ErrUnauthorized)
		}
		return nil, fmt.Errorf("failed to login: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(req.Password)); err != nil {
		return nil, fmt.Errorf("%w: invalid credentials", apperrors.ErrUnauthorized)
	}

	if account.AccountStatus != models.AccountStatusActive {
		s.logger.Warn("login attempt on inactive account", zap.String("account_id", accountID))
		return nil, fmt.Errorf("%w: invalid credentials", apperrors.ErrUnauthorized)
	}

	accessToken, err := s.tokens.GenerateAccessToken(account.AccountID, account.Role)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	now := s.now().UTC()
	if err := s.repo.UpdateLastLogin(ctx, accountID, now); err != nil {
		s.logger.Warn("failed to stamp last login", zap.String("account_id", accountID), zap.Error(err))
	} else {
		account.LastLoginAt = &now
	}

	return &models.LoginResponse{
		AccessToken: accessToken,
		Account:     account,
	}, nil
}

// authorizeSelf lets administrators act on any account and everybody else only on their own
func authorizeSelf(caller Caller, accountID string) error {
	if caller.IsAdmin() || caller.AccountID == accountID {
		return nil
	}
	return fmt.Errorf("%w: account %s belongs to another user", apperrors.ErrForbidden, accountID)
}

func validateRoleAndStatus(role, status int) error {
	if role != service.RoleStudent && role != service.RoleAdmin {
		return fmt.Errorf("%w: role must be %d (student) or %d (admin)", apperrors.ErrValidation, service.RoleStudent, service.RoleAdmin)
	}
	if status != models.AccountStatusActive && status != models.AccountStatusInactive {
		return fmt.Errorf("%w: accountStatus must be %d or %d", apperrors.ErrValidation, models.AccountStatusInactive, models.AccountStatusActive)
	}
	return nil
}

// validatePassword checks the length bounds of a password before it is hashed
func validatePassword(field, password string) error {
	if len(password) < minPasswordLength {
		return fmt.Errorf("%w: %s must be at least %d characters", apperrors.ErrValidation, field, minPasswordLength)
	}
	if len(password) > maxPasswordBytes {
		return fmt.Errorf("%w: %s must not exceed %d bytes", apperrors.ErrValidation, field, maxPasswordBytes)
	}
	return nil
}
