package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/studentserving/backend/internal/apperrors"
	"github.com/studentserving/backend/internal/models"
)

// loginAccountRepository implements login account repository operations
type loginAccountRepository struct {
	db *sql.DB
}

// NewLoginAccountRepository creates a new login account repository
func NewLoginAccountRepository(db *sql.DB) *loginAccountRepository {
	return &loginAccountRepository{
		db: db,
	}
}

// GetByID retrieves a login account including its password hash
func (r *loginAccountRepository) GetByID(ctx context.Context, accountID string) (*models.LoginAccount, error) {
	query := `
		SELECT account_id, role, account_status, password_hash, created_at, updated_at, last_login_at
		FROM login_accounts
		WHERE account_id = ?
		LIMIT 1
	`

	account := &models.LoginAccount{}
	var updatedAt, lastLoginAt sql.NullTime
	err := r.db.QueryRowContext(ctx, query, accountID).Scan(
		&account.AccountID,
		&account.Role,
		&account.AccountStatus,
		&account.PasswordHash,
		&account.CreatedAt,
		&updatedAt,
		&lastLoginAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: account %s", apperrors.ErrNotFound, accountID)
	}
	if err != nil {
		return nil, wrapDBError("get account by id", err)
	}

	account.UpdatedAt = timePtr(updatedAt)
	account.LastLoginAt = timePtr(lastLoginAt)
	return account, nil
}

// Create inserts a new login account
func (r *loginAccountRepository) Create(ctx context.Context, account *models.LoginAccount) error {
	query := `
		INSERT INTO login_accounts (account_id, role, account_status, password_hash, created_at)
		VALUES (?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, query,
		account.AccountID,
		account.Role,
		account.AccountStatus,
		account.PasswordHash,
		account.CreatedAt,
	)
	if err != nil {
		return wrapDBError("create account", err)
	}
	return nil
}

// UpdateRoleAndStatus changes the role and status of an account
func (r *loginAccountRepository) UpdateRoleAndStatus(ctx context.Context, accountID string, role, status int, updatedAt time.Time) error {
	query := `UPDATE login_accounts SET role = ?, account_status = ?, updated_at = ? WHERE account_id = ?`
	return r.exec(ctx, "update account", query, accountID, role, status, updatedAt, accountID)
}

// UpdateLastLogin stamps the last login time of an account
func (r *loginAccountRepository) UpdateLastLogin(ctx context.Context, accountID string, at time.Time) error {
	query := `UPDATE login_accounts SET last_login_at = ?, updated_at = ? WHERE account_id = ?`
	return r.exec(ctx, "update last login", query, accountID, at, at, accountID)
}

// UpdatePasswordHash stores a new password hash
func (r *loginAccountRepository) UpdatePasswordHash(ctx context.Context, accountID, hash string, updatedAt time.Time) error {
	query := `UPDATE login_accounts SET password_hash = ?, updated_at = ? WHERE account_id = ?`
	return r.exec(ctx, "update password", query, accountID, hash, updatedAt, accountID)
}

func (r *loginAccountRepository) exec(ctx context.Context, op, query, accountID string, args ...any) error {
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return wrapDBError(op, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return wrapDBError("get rows affected", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%w: account %s", apperrors.ErrNotFound, accountID)
	}
	return nil
}

func timePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}
