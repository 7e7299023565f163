package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/studentserving/backend/internal/models"
	"github.com/studentserving/backend/internal/services"
	"go.uber.org/zap"
)

// LoginAccountService is the interface that wraps methods for login account business logic
type LoginAccountService interface {
	// Method Get retrieves an account. Non-admin callers may only read their own account (ErrForbidden otherwise).
	Get(ctx context.Context, caller services.Caller, accountID string) (*models.LoginAccount, error)
	// Method Create stores a new account. A missing password falls back to the configured default.
	Create(ctx context.Context, req models.LoginAccountCreateRequest) (*models.LoginAccount, error)
	// Method Update changes the role and status of an account.
	Update(ctx context.Context, accountID string, req models.LoginAccountUpdateRequest) (*models.LoginAccount, error)
	// Method TouchLastLogin stamps the last login time. Non-admin callers may only touch their own account.
	TouchLastLogin(ctx context.Context, caller services.Caller, accountID string) error
	// Method ChangePassword replaces the password after verifying the current one.
	ChangePassword(ctx context.Context, caller services.Caller, accountID string, req models.ChangePasswordRequest) error
	// Method Login verifies credentials of an active account and issues an access token.
	//
	// Every credential failure is reported as ErrUnauthorized.
	Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error)
}

// AccountHandler handles HTTP requests for login accounts
type AccountHandler struct {
	BaseHandler
	service LoginAccountService
	authMw  func(http.Handler) http.Handler
	adminMw func(http.Handler) http.Handler
}

// NewAccountHandler creates a new account handler
func NewAccountHandler(svc LoginAccountService, logger *zap.Logger, authMw, adminMw func(http.Handler) http.Handler) *AccountHandler {
	return &AccountHandler{
		BaseHandler: newBaseHandler(logger),
		service:     svc,
		authMw:      orPassthrough(authMw),
		adminMw:     orPassthrough(adminMw),
	}
}

// RegisterRoutes registers all account handler routes
func (h *AccountHandler) RegisterRoutes(r chi.Router) {
	r.Route("/api/accounts", func(r chi.Router) {
		r.Post("/login", h.Login)

		r.Group(func(r chi.Router) {
			r.Use(h.authMw)
			r.Get("/{accountId}", h.Get)
			r.Post("/{accountId}/last-login", h.TouchLastLogin)
			r.Put("/{accountId}/change-password", h.ChangePassword)
		})

		r.Group(func(r chi.Router) {
			r.Use(h.adminMw)
			r.Post("/", h.Create)
			r.Put("/{accountId}", h.Update)
		})
	})
}

// Login handles POST /api/accounts/login
// @Summary Log in
// @Description Verify credentials and issue an access token
// @Tags accounts
// @Accept json
// @Produce json
// @Param credentials body models.LoginRequest true "Credentials"
// @Success 200 {object} models.LoginResponse
// @Failure 400 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Failure 500 {object} map[string]string
// @Router /api/accounts/login [post]
func (h *AccountHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := h.DecodeJSON(r, &req); err != nil {
		h.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	resp, err := h.service.Login(r.Context(), req)
	if err != nil {
		h.respondServiceError(w, err, "failed to login")
		return
	}
	h.RespondJSON(w, http.StatusOK, resp)
}

// Get handles GET /api/accounts/{accountId}
// @Summary Get account
// @Tags accounts
// @Produce json
// @Param accountId path string true "Account ID"
// @Success 200 {object} models.LoginAccount
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 500 {object} map[string]string
// @Security BearerAuth
// @Router /api/accounts/{accountId} [get]
func (h *AccountHandler) Get(w http.ResponseWriter, r *http.Request) {
	account, err := h.service.Get(r.Context(), caller(r), chi.URLParam(r, "accountId"))
	if err != nil {
		h.respondServiceError(w, err, "failed to get account")
		return
	}
	h.RespondJSON(w, http.StatusOK, account)
}

// Create handles POST /api/accounts
// @Summary Create account
// @Tags accounts
// @Accept json
// @Produce json
// @Param account body models.LoginAccountCreateRequest true "Account"
// @Success 201 {object} models.LoginAccount
// @Failure 400 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Failure 500 {object} map[string]string
// @Security BearerAuth
// @Router /api/accounts [post]
func (h *AccountHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.LoginAccountCreateRequest
	if err := h.DecodeJSON(r, &req); err != nil {
		h.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	account, err := h.service.Create(r.Context(), req)
	if err != nil {
		h.respondServiceError(w, err, "failed to create account")
		return
	}
	h.RespondJSON(w, http.StatusCreated, account)
}

// Update handles PUT /api/accounts/{accountId}
// @Summary Update account role and status
// @Tags accounts
// @Accept json
// @Produce json
// @Param accountId path string true "Account ID"
// @Param account body models.LoginAccountUpdateRequest true "Role and status"
// @Success 200 {object} models.LoginAccount
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 500 {object} map[string]string
// @Security BearerAuth
// @Router /api/accounts/{accountId} [put]
func (h *AccountHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req models.LoginAccountUpdateRequest
	if err := h.DecodeJSON(r, &req); err != nil {
		h.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	account, err := h.service.Update(r.Context(), chi.URLParam(r, "accountId"), req)
	if err != nil {
		h.respondServiceError(w, err, "failed to update account")
		return
	}
	h.RespondJSON(w, http.StatusOK, account)
}

// TouchLastLogin handles POST /api/accounts/{accountId}/last-login
// @Summary Stamp last login
// @Tags accounts
// @Param accountId path string true "Account ID"
// @Success 204 "Stamped"
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 500 {object} map[string]string
// @Security BearerAuth
// @Router /api/accounts/{accountId}/last-login [post]
func (h *AccountHandler) TouchLastLogin(w http.ResponseWriter, r *http.Request) {
	if err := h.service.TouchLastLogin(r.Context(), caller(r), chi.URLParam(r, "accountId")); err != nil {
		h.respondServiceError(w, err, "failed to update last login")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ChangePassword handles PUT /api/accounts/{accountId}/change-password
// @Summary Change password
// @Tags accounts
// @Accept json
// @Param accountId path string true "Account ID"
// @Param passwords body models.ChangePasswordRequest true "Current and new password"
// @Success 204 "Password changed"
// @Failure 400 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 500 {object} map[string]string
// @Security BearerAuth
// @Router /api/accounts/{accountId}/change-password [put]
func (h *AccountHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var req models.ChangePasswordRequest
	if err := h.DecodeJSON(r, &req); err != nil {
		h.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.service.ChangePassword(r.Context(), caller(r), chi.URLParam(r, "accountId"), req); err != nil {
		h.respondServiceError(w, err, "failed to change password")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
