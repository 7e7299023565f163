package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/studentserving/backend/internal/apperrors"
	"github.com/studentserving/backend/internal/models"
	"github.com/studentserving/backend/internal/services"
	"go.uber.org/zap"
)

// maxImageRequestSize bounds a whole image upload request, the image plus multipart overhead
const maxImageRequestSize = services.MaxNewsImageSize + 1<<20

var errImageTooLarge = fmt.Errorf("%w: image must not exceed 5MB", apperrors.ErrPayloadTooLarge)

// NewsService is the interface that wraps methods for news business logic
type NewsService interface {
	// Method UploadImage validates and stores a news image.
	//
	// Empty uploads fail with ErrEmptyUpload, types other than jpeg, png, gif or webp with ErrUnsupportedMediaType
	// and images over 5MB with ErrPayloadTooLarge. Nothing is stored when validation fails.
	UploadImage(ctx context.Context, r io.Reader, upload models.ImageUpload) (*models.ImageUploadResponse, error)
	// Method ReplaceImage stores a new image for a news record and discards the previous managed one.
	//
	// The absolute URL of the new image is returned. A missing record fails with ErrNotFound.
	ReplaceImage(ctx context.Context, id string, r io.Reader, upload models.ImageUpload) (string, error)
	// Method OpenImage opens a managed news image. The caller must close the file.
	OpenImage(ctx context.Context, storedName string) (*os.File, error)
	// Method List retrieves active news with absolute image URLs.
	List(ctx context.Context) ([]models.News, error)
	// Method ListAll retrieves all news including inactive records.
	ListAll(ctx context.Context) ([]models.News, error)
	// Method ListByAdmin retrieves the news written by an administrator.
	ListByAdmin(ctx context.Context, adminID string) ([]models.News, error)
	// Method ListByType retrieves the news of one category.
	ListByType(ctx context.Context, newsType string) ([]models.News, error)
	// Method SearchByTitle retrieves the news whose title contains "title", ignoring case.
	//
	// An empty title fails with ErrValidation.
	SearchByTitle(ctx context.Context, title string) ([]models.News, error)
	// Method GetByID retrieves a news record. A missing record fails with ErrNotFound.
	GetByID(ctx context.Context, id string) (*models.News, error)
	// Method Create validates and stores a news record.
	Create(ctx context.Context, req models.NewsRequest) (*models.News, error)
	// Method Update overwrites a news record.
	//
	// A missing record fails with ErrNotFound, a stale or concurrently changed version with ErrConflict.
	Update(ctx context.Context, id string, req models.NewsRequest) (*models.News, error)
	// Method Delete removes a news record and discards its managed image.
	Delete(ctx context.Context, id string) error
}

// NewsHandler handles HTTP requests for news and news images
type NewsHandler struct {
	BaseHandler
	service NewsService
	adminMw func(http.Handler) http.Handler
}

// NewNewsHandler creates a new news handler
func NewNewsHandler(svc NewsService, logger *zap.Logger, adminMw func(http.Handler) http.Handler) *NewsHandler {
	return &NewsHandler{
		BaseHandler: newBaseHandler(logger),
		service:     svc,
		adminMw:     orPassthrough(adminMw),
	}
}

// RegisterRoutes registers all news handler routes
func (h *NewsHandler) RegisterRoutes(r chi.Router) {
	r.Get(models.NewsImagePathPrefix+"{filename}", h.ServeImage)

	r.Route("/api/news", func(r chi.Router) {
		r.Get("/", h.List)
		r.Get("/search", h.SearchByTitle)
		r.Get("/admin/{adminId}", h.ListByAdmin)
		r.Get("/type/{type}", h.ListByType)
		r.Get("/{id}", h.GetByID)

		r.Group(func(r chi.Router) {
			r.Use(h.adminMw)
			r.Get("/all", h.ListAll)
			r.Post("/", h.Create)
			r.Put("/{id}", h.Update)
			r.Delete("/{id}", h.Delete)
			r.With(h.limitImageUpload).Post("/upload-image", h.UploadImage)
			r.With(h.limitImageUpload).Post("/{id}/update-image", h.ReplaceImage)
		})
	})
}

// IsNewsImageUpload reports whether r targets one of the news image upload routes.
// They apply their own body limit, so the global request size limit should let them through.
func IsNewsImageUpload(r *http.Request) bool {
	if r.Method != http.MethodPost {
		return false
	}
	rest, ok := strings.CutPrefix(r.URL.Path, "/api/news/")
	if !ok {
		return false
	}
	if rest == "upload-image" {
		return true
	}
	id, ok := strings.CutSuffix(rest, "/update-image")
	return ok && id != "" && !strings.Contains(id, "/")
}

// limitImageUpload caps upload bodies and answers oversized ones with 400 like any other rejected image
func (h *NewsHandler) limitImageUpload(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.ContentLength > maxImageRequestSize {
			w.Header().Set("Connection", "close")
			h.respondServiceError(w, errImageTooLarge, "failed to upload image")
			return
		}
		r.Body = http.MaxBytesReader(w, r.Body, maxImageRequestSize)
		next.ServeHTTP(w, r)
	})
}

// UploadImage handles POST /api/news/upload-image
// @Summary Upload news image
// @Description Upload a JPEG, PNG, GIF or WebP image of at most 5MB
// @Tags news
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Image file"
// @Success 200 {object} models.ImageUploadResponse
// @Failure 400 {object} map[string]string
// @Failure 500 {object} map[string]string
// @Security BearerAuth
// @Router /api/news/upload-image [post]
func (h *NewsHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	file, upload, ok := h.readImage(w, r)
	if !ok {
		return
	}
	defer file.Close()

	result, err := h.service.UploadImage(r.Context(), file, upload)
	if err != nil {
		h.respondServiceError(w, err, "failed to upload image")
		return
	}

	h.RespondJSON(w, http.StatusOK, result)
}

// ReplaceImage handles POST /api/news/{id}/update-image
// @Summary Replace news image
// @Description Upload a new image for a news record; the previous image is discarded
// @Tags news
// @Accept multipart/form-data
// @Produce json
// @Param id path string true "News ID"
// @Param file formData file true "Image file"
// @Success 200 {object} models.ImageReplaceResponse
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Failure 500 {object} map[string]string
// @Security BearerAuth
// @Router /api/news/{id}/update-image [post]
func (h *NewsHandler) ReplaceImage(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	file, upload, ok := h.readImage(w, r)
	if !ok {
		return
	}
	defer file.Close()

	imageURL, err := h.service.ReplaceImage(r.Context(), id, file, upload)
	if err != nil {
		h.respondServiceError(w, err, "failed to update news image")
		return
	}

	h.RespondJSON(w, http.StatusOK, models.ImageReplaceResponse{
		Message:  "Image updated successfully",
		ImageURL: imageURL,
	})
}

// ServeImage handles GET /uploads/news/{filename}
// @Summary Get news image
// @Tags news
// @Produce image/jpeg,image/png,image/gif,image/webp
// @Param filename path string true "Stored image name"
// @Success 200 "Image content"
// @Failure 404 {object} map[string]string
// @Router /uploads/news/{filename} [get]
func (h *NewsHandler) ServeImage(w http.ResponseWriter, r *http.Request) {
	filename := chi.URLParam(r, "filename")

	file, err := h.service.OpenImage(r.Context(), filename)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) || errors.Is(err, apperrors.ErrValidation) {
			h.RespondError(w, http.StatusNotFound, "image not found")
			return
		}
		h.Logger.Error("failed to open news image", zap.Error(err), zap.String("filename", filename))
		h.RespondError(w, http.StatusInternalServerError, "failed to open image")
		return
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		h.Logger.Error("failed to get file info", zap.Error(err), zap.String("filename", filename))
		h.RespondError(w, http.StatusInternalServerError, "failed to open image")
		return
	}

	w.Header().Set("Cache-Control", "public, max-age=86400")
	http.ServeContent(w, r, filename, info.ModTime(), file)
}

// List handles GET /api/news
// @Summary List active news
// @Tags news
// @Produce json
// @Success 200 {array} models.News
// @Failure 500 {object} map[string]string
// @Router /api/news [get]
func (h *NewsHandler) List(w http.ResponseWriter, r *http.Request) {
	news, err := h.service.List(r.Context())
	h.respondList(w, news, err)
}

// ListAll handles GET /api/news/all
// @Summary List all news including inactive
// @Tags news
// @Produce json
// @Success 200 {array} models.News
// @Failure 500 {object} map[string]string
// @Security BearerAuth
// @Router /api/news/all [get]
func (h *NewsHandler) ListAll(w http.ResponseWriter, r *http.Request) {
	news, err := h.service.ListAll(r.Context())
	h.respondList(w, news, err)
}

// ListByAdmin handles GET /api/news/admin/{adminId}
// @Summary List news by author
// @Tags news
// @Produce json
// @Param adminId path string true "Administrator ID"
// @Success 200 {array} models.News
// @Failure 500 {object} map[string]string
// @Router /api/news/admin/{adminId} [get]
func (h *NewsHandler) ListByAdmin(w http.ResponseWriter, r *http.Request) {
	news, err := h.service.ListByAdmin(r.Context(), chi.URLParam(r, "adminId"))
	h.respondList(w, news, err)
}

// ListByType handles GET /api/news/type/{type}
// @Summary List news by type
// @Tags news
// @Produce json
// @Param type path string true "News type"
// @Success 200 {array} models.News
// @Failure 500 {object} map[string]string
// @Router /api/news/type/{type} [get]
func (h *NewsHandler) ListByType(w http.ResponseWriter, r *http.Request) {
	news, err := h.service.ListByType(r.Context(), chi.URLParam(r, "type"))
	h.respondList(w, news, err)
}

// SearchByTitle handles GET /api/news/search
// @Summary Search news by title
// @Tags news
// @Produce json
// @Param title query string true "Part of the title"
// @Success 200 {array} models.News
// @Failure 400 {object} map[string]string
// @Failure 500 {object} map[string]string
// @Router /api/news/search [get]
func (h *NewsHandler) SearchByTitle(w http.ResponseWriter, r *http.Request) {
	title := r.URL.Query().Get("title")
	if title == "" {
		h.RespondError(w, http.StatusBadRequest, "title parameter is required")
		return
	}

	news, err := h.service.SearchByTitle(r.Context(), title)
	h.respondList(w, news, err)
}

// GetByID handles GET /api/news/{id}
// @Summary Get news
// @Tags news
// @Produce json
// @Param id path string true "News ID"
// @Success 200 {object} models.News
// @Failure 404 {object} map[string]string
// @Failure 500 {object} map[string]string
// @Router /api/news/{id} [get]
func (h *NewsHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	news, err := h.service.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.respondServiceError(w, err, "failed to get news")
		return
	}
	h.RespondJSON(w, http.StatusOK, news)
}

// Create handles POST /api/news
// @Summary Create news
// @Tags news
// @Accept json
// @Produce json
// @Param news body models.NewsRequest true "News"
// @Success 201 {object} models.News
// @Failure 400 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Failure 500 {object} map[string]string
// @Security BearerAuth
// @Router /api/news [post]
func (h *NewsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.NewsRequest
	if err := h.DecodeJSON(r, &req); err != nil {
		h.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	news, err := h.service.Create(r.Context(), req)
	if err != nil {
		h.respondServiceError(w, err, "failed to create news")
		return
	}
	h.RespondJSON(w, http.StatusCreated, news)
}

// Update handles PUT /api/news/{id}
// @Summary Update news
// @Description Overwrite a news record. When "version" is set it must match the stored version.
// @Tags news
// @Accept json
// @Produce json
// @Param id path string true "News ID"
// @Param news body models.NewsRequest true "News"
// @Success 200 {object} models.News
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Failure 500 {object} map[string]string
// @Security BearerAuth
// @Router /api/news/{id} [put]
func (h *NewsHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req models.NewsRequest
	if err := h.DecodeJSON(r, &req); err != nil {
		h.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	news, err := h.service.Update(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		h.respondServiceError(w, err, "failed to update news")
		return
	}
	h.RespondJSON(w, http.StatusOK, news)
}

// Delete handles DELETE /api/news/{id}
// @Summary Delete news
// @Tags news
// @Param id path string true "News ID"
// @Success 204 "News deleted"
// @Failure 404 {object} map[string]string
// @Failure 500 {object} map[string]string
// @Security BearerAuth
// @Router /api/news/{id} [delete]
func (h *NewsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.respondServiceError(w, err, "failed to delete news")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// readImage extracts the "file" part of a multipart request.
// On failure the response is already written and ok is false.
func (h *NewsHandler) readImage(w http.ResponseWriter, r *http.Request) (file io.ReadCloser, upload models.ImageUpload, ok bool) {
	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			h.respondServiceError(w, errImageTooLarge, "failed to upload image")
			return nil, upload, false
		}
		h.Logger.Info("failed to parse multipart form", zap.Error(err))
		h.RespondError(w, http.StatusBadRequest, "failed to parse request")
		return nil, upload, false
	}

	f, fileHeader, err := r.FormFile("file")
	if err != nil {
		h.RespondError(w, http.StatusBadRequest, "please select an image to upload")
		return nil, upload, false
	}

	return f, models.ImageUpload{
		OriginalName: fileHeader.Filename,
		ContentType:  fileHeader.Header.Get("Content-Type"),
		Size:         fileHeader.Size,
	}, true
}

func (h *NewsHandler) respondList(w http.ResponseWriter, news []models.News, err error) {
	if err != nil {
		h.respondServiceError(w, err, "failed to get news")
		return
	}
	h.RespondJSON(w, http.StatusOK, nonNil(news))
}
