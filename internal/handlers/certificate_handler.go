package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/studentserving/backend/internal/apperrors"
	"github.com/studentserving/backend/internal/models"
	"go.uber.org/zap"
)

// CertificateService is the interface that wraps methods for certificate business logic
type CertificateService interface {
	// Method Upload stores a certificate file and records it for a student.
	//
	// "size" is the size declared by the client. Empty uploads fail with ErrEmptyUpload, a missing student ID with ErrValidation.
	Upload(ctx context.Context, r io.Reader, size int64, upload models.CertificateUpload) (*models.CertificateUploadResult, error)
	// Method Download opens a stored certificate by its stored file name. The caller must close the file.
	//
	// A missing file fails with ErrNotFound.
	Download(ctx context.Context, fileName string) (*os.File, error)
	// Method ListByStudent retrieves the certificates of a student.
	ListByStudent(ctx context.Context, studentID string) ([]models.Certificate, error)
	// Method ListAll retrieves all certificates.
	ListAll(ctx context.Context) ([]models.Certificate, error)
	// Method Delete removes a certificate record and discards its file.
	//
	// An unknown ID fails with ErrNotFound.
	Delete(ctx context.Context, id int64) error
}

// CertificateHandler handles HTTP requests for certificates
type CertificateHandler struct {
	BaseHandler
	service CertificateService
	authMw  func(http.Handler) http.Handler
	adminMw func(http.Handler) http.Handler
}

// NewCertificateHandler creates a new certificate handler
func NewCertificateHandler(svc CertificateService, logger *zap.Logger, authMw, adminMw func(http.Handler) http.Handler) *CertificateHandler {
	return &CertificateHandler{
		BaseHandler: newBaseHandler(logger),
		service:     svc,
		authMw:      orPassthrough(authMw),
		adminMw:     orPassthrough(adminMw),
	}
}

// RegisterRoutes registers all certificate handler routes
func (h *CertificateHandler) RegisterRoutes(r chi.Router) {
	r.Route("/api/academic/certificates", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(h.authMw)
			r.Post("/upload", h.Upload)
			r.Get("/download/{fileName}", h.Download)
			r.Get("/student/{studentId}", h.ListByStudent)
		})
		r.Group(func(r chi.Router) {
			r.Use(h.adminMw)
			r.Get("/all", h.ListAll)
			r.Delete("/{id}", h.Delete)
		})
	})
}

// Upload handles POST /api/academic/certificates/upload
// @Summary Upload certificate
// @Description Upload a certificate file for a student
// @Tags certificates
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Certificate file"
// @Param studentId formData string true "Student ID"
// @Param certificateType formData string false "Certificate type, default: general"
// @Param description formData string false "Description"
// @Success 200 {object} models.CertificateResponse
// @Failure 400 {object} models.CertificateResponse
// @Failure 500 {object} models.CertificateResponse
// @Security BearerAuth
// @Router /api/academic/certificates/upload [post]
func (h *CertificateHandler) Upload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		h.Logger.Info("failed to parse multipart form", zap.Error(err))
		h.respondCertificate(w, http.StatusBadRequest, models.CertificateResponse{Message: "Failed to parse request"})
		return
	}

	file, fileHeader, err := r.FormFile("file")
	if err != nil {
		h.respondCertificate(w, http.StatusBadRequest, models.CertificateResponse{Message: "Please select a file to upload"})
		return
	}
	defer file.Close()

	result, err := h.service.Upload(r.Context(), file, fileHeader.Size, models.CertificateUpload{
		OriginalName:    fileHeader.Filename,
		StudentID:       r.FormValue("studentId"),
		CertificateType: r.FormValue("certificateType"),
		Description:     r.FormValue("description"),
	})
	if err != nil {
		status := apperrors.HTTPStatus(err)
		if status >= http.StatusInternalServerError {
			h.Logger.Error("failed to upload certificate", zap.Error(err))
			prefix := "Unexpected error occurred: "
			if errors.Is(err, apperrors.ErrStorageIO) {
				prefix = "Failed to upload certificate: "
			}
			h.respondCertificate(w, status, models.CertificateResponse{Message: prefix + err.Error()})
			return
		}
		h.respondCertificate(w, status, models.CertificateResponse{Message: err.Error()})
		return
	}

	h.respondCertificate(w, http.StatusOK, models.CertificateResponse{
		Success:       true,
		Message:       "Certificate uploaded successfully",
		FileName:      result.FileName,
		FilePath:      result.FilePath,
		CertificateID: result.CertificateID,
	})
}

// Download handles GET /api/academic/certificates/download/{fileName}
// @Summary Download certificate
// @Description Download a stored certificate file as an attachment
// @Tags certificates
// @Produce application/octet-stream
// @Param fileName path string true "Stored file name"
// @Success 200 "File content"
// @Failure 404 {object} map[string]string "File not found"
// @Failure 500 {object} map[string]string "Internal server error"
// @Security BearerAuth
// @Router /api/academic/certificates/download/{fileName} [get]
func (h *CertificateHandler) Download(w http.ResponseWriter, r *http.Request) {
	fileName := chi.URLParam(r, "fileName")

	file, err := h.service.Download(r.Context(), fileName)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) || errors.Is(err, apperrors.ErrValidation) {
			h.RespondError(w, http.StatusNotFound, "file not found")
			return
		}
		h.Logger.Error("failed to open certificate", zap.Error(err), zap.String("file_name", fileName))
		h.RespondError(w, http.StatusInternalServerError, "failed to download file")
		return
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		h.Logger.Error("failed to get file info", zap.Error(err), zap.String("file_name", fileName))
		h.RespondError(w, http.StatusInternalServerError, "failed to download file")
		return
	}

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", fileName))
	http.ServeContent(w, r, fileName, info.ModTime(), file)
}

// ListByStudent handles GET /api/academic/certificates/student/{studentId}
// @Summary List certificates of a student
// @Tags certificates
// @Produce json
// @Param studentId path string true "Student ID"
// @Success 200 {array} models.Certificate
// @Failure 500 {object} map[string]string
// @Security BearerAuth
// @Router /api/academic/certificates/student/{studentId} [get]
func (h *CertificateHandler) ListByStudent(w http.ResponseWriter, r *http.Request) {
	certificates, err := h.service.ListByStudent(r.Context(), chi.URLParam(r, "studentId"))
	if err != nil {
		h.respondServiceError(w, err, "failed to get certificates")
		return
	}
	h.RespondJSON(w, http.StatusOK, nonNil(certificates))
}

// ListAll handles GET /api/academic/certificates/all
// @Summary List all certificates
// @Tags certificates
// @Produce json
// @Success 200 {array} models.Certificate
// @Failure 500 {object} map[string]string
// @Security BearerAuth
// @Router /api/academic/certificates/all [get]
func (h *CertificateHandler) ListAll(w http.ResponseWriter, r *http.Request) {
	certificates, err := h.service.ListAll(r.Context())
	if err != nil {
		h.respondServiceError(w, err, "failed to get certificates")
		return
	}
	h.RespondJSON(w, http.StatusOK, nonNil(certificates))
}

// Delete handles DELETE /api/academic/certificates/{id}
// Every failure, including an unknown id, is answered with 500 and success=false.
// @Summary Delete certificate
// @Tags certificates
// @Produce json
// @Param id path int true "Certificate ID"
// @Success 200 {object} models.CertificateResponse
// @Failure 400 {object} models.CertificateResponse
// @Failure 500 {object} models.CertificateResponse
// @Security BearerAuth
// @Router /api/academic/certificates/{id} [delete]
func (h *CertificateHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		h.respondCertificate(w, http.StatusBadRequest, models.CertificateResponse{Message: "Invalid certificate id"})
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		h.Logger.Error("failed to delete certificate", zap.Error(err), zap.Int64("certificate_id", id))
		h.respondCertificate(w, http.StatusInternalServerError, models.CertificateResponse{Message: "Failed to delete certificate: " + err.Error()})
		return
	}

	h.respondCertificate(w, http.StatusOK, models.CertificateResponse{Success: true, Message: "Certificate deleted successfully"})
}

func (h *CertificateHandler) respondCertificate(w http.ResponseWriter, status int, body models.CertificateResponse) {
	h.RespondJSON(w, status, body)
}

// nonNil makes empty results encode as [] instead of null
func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
