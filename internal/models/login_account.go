package models

import "time"

// Account statuses
const (
	AccountStatusInactive = 0
	AccountStatusActive   = 1
)

// LoginAccount represents the credentials record of a student or administrator
type LoginAccount struct {
	AccountID     string     `json:"accountId"`
	Role          int        `json:"role"`
	AccountStatus int        `json:"accountStatus"`
	PasswordHash  string     `json:"-"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     *time.Time `json:"updatedAt"`
	LastLoginAt   *time.Time `json:"lastLoginAt"`
}

// LoginAccountCreateRequest is the body of POST /api/accounts.
// An empty password falls back to the configured default.
type LoginAccountCreateRequest struct {
	AccountID     string `json:"accountId"`
	Role          int    `json:"role"`
	AccountStatus int    `json:"accountStatus"`
	Password      string `json:"password,omitempty"`
}

// LoginAccountUpdateRequest is the body of PUT /api/accounts/{accountId}
type LoginAccountUpdateRequest struct {
	Role          int `json:"role"`
	AccountStatus int `json:"accountStatus"`
}

// ChangePasswordRequest is the body of PUT /api/accounts/{accountId}/change-password
type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

// LoginRequest is the body of POST /api/accounts/login
type LoginRequest struct {
	AccountID string `json:"accountId"`
	Password  string `json:"password"`
}

// LoginResponse is returned after a successful login
type LoginResponse struct {
	AccessToken string        `json:"accessToken"`
	Account     *LoginAccount `json:"account"`
}
