package handlers

import (
	"net/http"

	"github.com/studentserving/backend/internal/apperrors"
	"github.com/studentserving/backend/internal/services"
	"github.com/studentserving/backend/libs/auth/middleware"
	"github.com/studentserving/backend/libs/handlers"
	"go.uber.org/zap"
)

// maxMultipartMemory is the part of a multipart form kept in memory, the rest spills to temp files
const maxMultipartMemory = 8 << 20

// BaseHandler adds error mapping for service errors to the shared JSON helpers
type BaseHandler struct {
	handlers.BaseHandler
}

func newBaseHandler(logger *zap.Logger) BaseHandler {
	return BaseHandler{BaseHandler: handlers.BaseHandler{Logger: logger}}
}

// respondServiceError maps err to a status code.
// Client errors carry the error text, server errors are logged and answered with "message".
func (h *BaseHandler) respondServiceError(w http.ResponseWriter, err error, message string) {
	status := apperrors.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		h.Logger.Error(message, zap.Error(err))
		h.RespondError(w, status, message)
		return
	}

	h.Logger.Info("request rejected", zap.Int("status", status), zap.Error(err))
	h.RespondError(w, status, err.Error())
}

// caller returns the identity the auth middleware attached to the request
func caller(r *http.Request) services.Caller {
	accountID, _ := middleware.GetAccountID(r.Context())
	role, _ := middleware.GetRole(r.Context())
	return services.Caller{AccountID: accountID, Role: role}
}

// passthrough is used when no middleware is configured
func passthrough(next http.Handler) http.Handler {
	return next
}

func orPassthrough(mw func(http.Handler) http.Handler) func(http.Handler) http.Handler {
	if mw == nil {
		return passthrough
	}
	return mw
}
