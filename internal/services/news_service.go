package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"github.com/studentserving/backend/internal/apperrors"
	"github.com/studentserving/backend/internal/cleanup"
	"github.com/studentserving/backend/internal/models"
	"github.com/studentserving/backend/internal/storage"
	"go.uber.org/zap"
)

// MaxNewsImageSize is the largest accepted news image
const MaxNewsImageSize = 5 << 20

var allowedImageTypes = map[string]struct{}{
	"image/jpeg": {},
	"image/png":  {},
	"image/gif":  {},
	"image/webp": {},
}

// NewsRepository is the interface that wraps methods for News table data access
type NewsRepository interface {
	// Method Create inserts a news record. The stored version starts at 1 and is written back to "news".
	Create(ctx context.Context, news *models.News) error
	// Method GetByID retrieves a news record by its ID.
	//
	// If no record exists the error wraps ErrNotFound and the returned record is "nil".
	GetByID(ctx context.Context, id string) (*models.News, error)
	// Method GetAll retrieves news records ordered by publish date, newest first.
	//
	// When "activeOnly" is true inactive records are skipped.
	GetAll(ctx context.Context, activeOnly bool) ([]models.News, error)
	// Method GetByAdminID retrieves the news records written by an administrator.
	GetByAdminID(ctx context.Context, adminID string) ([]models.News, error)
	// Method GetByNewsType retrieves the news records of one category.
	GetByNewsType(ctx context.Context, newsType string) ([]models.News, error)
	// Method SearchByTitle retrieves the news records whose title contains "term", ignoring case.
	SearchByTitle(ctx context.Context, term string) ([]models.News, error)
	// Method Update overwrites a news record when its stored version equals "expectedVersion".
	//
	// A stale version returns an error wrapping ErrConflict, a missing record ErrNotFound.
	// On success news.Version holds the new version.
	Update(ctx context.Context, news *models.News, expectedVersion int) error
	// Method UpdateImageURL replaces only the image URL under the same version rule as Update.
	UpdateImageURL(ctx context.Context, id, imageURL string, updatedAt time.Time, expectedVersion int) error
	// Method DeleteByID deletes a news record. Deleting an unknown ID returns an error wrapping ErrNotFound.
	DeleteByID(ctx context.Context, id string) error
}

type newsService struct {
	repo        NewsRepository
	store       FileStore
	janitor     cleanup.Janitor
	policy      *bluemonday.Policy
	baseURL     string
	placeholder string
	logger      *zap.Logger
	now         func() time.Time
}

// NewNewsService creates a new news service
//
// "baseURL" is the externally reachable address prepended to stored image paths,
// "placeholder" is returned for records without an image.
func NewNewsService(repo NewsRepository, store FileStore, janitor cleanup.Janitor, baseURL, placeholder string, logger *zap.Logger) *newsService {
	return &newsService{
		repo:        repo,
		store:       store,
		janitor:     janitor,
		policy:      bluemonday.UGCPolicy(),
		baseURL:     strings.TrimRight(baseURL, "/"),
		placeholder: placeholder,
		logger:      logger,
		now:         time.Now,
	}
}

// UploadImage validates and stores a news image
//
// Checks run in a fixed order before anything is written: an empty upload, then the declared content type
// (jpeg, png, gif or webp), then the declared size. The stream itself is capped as well,
// so an under-declared size cannot exceed the limit.
func (s *newsService) UploadImage(ctx context.Context, r io.Reader, upload models.ImageUpload) (*models.ImageUploadResponse, error) {
	storedName, err := s.storeImage(ctx, r, upload)
	if err != nil {
		return nil, err
	}

	return &models.ImageUploadResponse{
		Filename: storedName,
		ImageURL: s.baseURL + models.NewsImagePathPrefix + storedName,
	}, nil
}

// ReplaceImage stores a new image for an existing news record and discards the previous one
//
// The new file is written first. If the record is missing or cannot be updated the new file is discarded again.
// The old file is discarded only after the record points at the new one.
func (s *newsService) ReplaceImage(ctx context.Context, id string, r io.Reader, upload models.ImageUpload) (string, error) {
	if strings.TrimSpace(id) == "" {
		return "", fmt.Errorf("%w: news id is required", apperrors.ErrValidation)
	}

	storedName, err := s.storeImage(ctx, r, upload)
	if err != nil {
		return "", err
	}

	news, err := s.repo.GetByID(ctx, id)
	if err != nil {
		discardAsset(ctx, s.janitor, storage.CategoryNews, storedName)
		return "", fmt.Errorf("failed to replace news image: %w", err)
	}

	oldName, managed := models.NewsImageStoredName(news.ImageURL, s.baseURL)
	newURL := models.NewsImagePathPrefix + storedName

	if err := s.repo.UpdateImageURL(ctx, id, newURL, s.now().UTC(), news.Version); err != nil {
		discardAsset(ctx, s.janitor, storage.CategoryNews, storedName)
		s.logger.Error("failed to update news image", zap.Error(err), zap.String("news_id", id))
		return "", fmt.Errorf("failed to replace news image: %w", err)
	}

	if managed && oldName != storedName {
		discardAsset(ctx, s.janitor, storage.CategoryNews, oldName)
	}

	s.logger.Info("news image replaced", zap.String("news_id", id), zap.String("stored_name", storedName))
	return s.MaterializeURL(newURL), nil
}

// MaterializeURL turns a stored image URL into the URL a client can load
//
// Empty URLs become the placeholder, absolute URLs are returned unchanged and
// relative paths are prefixed with the base URL. Applying it twice changes nothing.
func (s *newsService) MaterializeURL(imageURL string) string {
	switch {
	case imageURL == "":
		return s.placeholder
	case strings.HasPrefix(imageURL, "http://"), strings.HasPrefix(imageURL, "https://"):
		return imageURL
	case strings.HasPrefix(imageURL, "/"):
		return s.baseURL + imageURL
	default:
		return s.baseURL + "/" + imageURL
	}
}

// OpenImage opens a managed news image for serving. The caller must close the file.
func (s *newsService) OpenImage(ctx context.Context, storedName string) (*os.File, error) {
	file, err := s.store.Open(storage.CategoryNews, storedName)
	if err != nil {
		return nil, fmt.Errorf("failed to open news image: %w", err)
	}
	return file, nil
}

// List retrieves active news
func (s *newsService) List(ctx context.Context) ([]models.News, error) {
	return s.list(ctx, "failed to get active news", func() ([]models.News, error) {
		return s.repo.GetAll(ctx, true)
	})
}

// ListAll retrieves all news including inactive records
func (s *newsService) ListAll(ctx context.Context) ([]models.News, error) {
	return s.list(ctx, "failed to get all news", func() ([]models.News, error) {
		return s.repo.GetAll(ctx, false)
	})
}

// ListByAdmin retrieves the news written by an administrator
func (s *newsService) ListByAdmin(ctx context.Context, adminID string) ([]models.News, error) {
	if strings.TrimSpace(adminID) == "" {
		return nil, fmt.Errorf("%w: adminId is required", apperrors.ErrValidation)
	}
	return s.list(ctx, "failed to get news by admin", func() ([]models.News, error) {
		return s.repo.GetByAdminID(ctx, adminID)
	})
}

// ListByType retrieves the news of one category
func (s *newsService) ListByType(ctx context.Context, newsType string) ([]models.News, error) {
	if strings.TrimSpace(newsType) == "" {
		return nil, fmt.Errorf("%w: news type is required", apperrors.ErrValidation)
	}
	return s.list(ctx, "failed to get news by type", func() ([]models.News, error) {
		return s.repo.GetByNewsType(ctx, newsType)
	})
}

// SearchByTitle retrieves the news whose title contains "title", ignoring case
func (s *newsService) SearchByTitle(ctx context.Context, title string) ([]models.News, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, fmt.Errorf("%w: title is required", apperrors.ErrValidation)
	}
	return s.list(ctx, "failed to search news", func() ([]models.News, error) {
		return s.repo.SearchByTitle(ctx, title)
	})
}

// GetByID retrieves a news record
func (s *newsService) GetByID(ctx context.Context, id string) (*models.News, error) {
	news, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get news: %w", err)
	}
	s.materialize(news)
	return news, nil
}

// Create validates and stores a news record
//
// A missing id is generated, "active" defaults to true and the publish date defaults to today.
func (s *newsService) Create(ctx context.Context, req models.NewsRequest) (*models.News, error) {
	if err := s.validateRequest(req); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	news := &models.News{
		ID:          strings.TrimSpace(req.NewsID),
		AdminID:     strings.TrimSpace(req.AdminID),
		Title:       s.policy.Sanitize(req.Title),
		Description: s.policy.Sanitize(req.Description),
		ImageURL:    s.storedImageURL(req.ImageURL),
		NewsType:    strings.TrimSpace(req.NewsType),
		PublishDate: req.PublishDate,
		Active:      true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if news.ID == "" {
		news.ID = uuid.New().String()
	}
	if req.Active != nil {
		news.Active = *req.Active
	}
	if news.PublishDate == nil {
		today := models.NewDate(now)
		news.PublishDate = &today
	}

	if err := s.repo.Create(ctx, news); err != nil {
		s.logger.Error("failed to create news", zap.Error(err), zap.String("news_id", news.ID))
		return nil, fmt.Errorf("failed to create news: %w", err)
	}

	s.materialize(news)
	return news, nil
}

// Update overwrites the editable fields of a news record
//
// When the request carries a version it must match the stored one, otherwise ErrConflict is returned.
// A concurrent update between the read and the write is reported the same way.
// If the image URL changes, the previously managed image is discarded.
func (s *newsService) Update(ctx context.Context, id string, req models.NewsRequest) (*models.News, error) {
	if err := s.validateRequest(req); err != nil {
		return nil, err
	}

	news, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to update news: %w", err)
	}
	if req.Version != 0 && req.Version != news.Version {
		return nil, fmt.Errorf("%w: news %s was modified (version %d, expected %d)", apperrors.ErrConflict, id, news.Version, req.Version)
	}

	oldName, oldManaged := models.NewsImageStoredName(news.ImageURL, s.baseURL)
	newImageURL := s.storedImageURL(req.ImageURL)
	if newName, ok := models.NewsImageStoredName(newImageURL, s.baseURL); ok && oldManaged && newName == oldName {
		newImageURL = news.ImageURL
	}

	news.AdminID = strings.TrimSpace(req.AdminID)
	news.Title = s.policy.Sanitize(req.Title)
	news.Description = s.policy.Sanitize(req.Description)
	news.ImageURL = newImageURL
	news.NewsType = strings.TrimSpace(req.NewsType)
	if req.PublishDate != nil {
		news.PublishDate = req.PublishDate
	}
	if req.Active != nil {
		news.Active = *req.Active
	}
	news.UpdatedAt = s.now().UTC()

	if err := s.repo.Update(ctx, news, news.Version); err != nil {
		s.logger.Error("failed to update news", zap.Error(err), zap.String("news_id", id))
		return nil, fmt.Errorf("failed to update news: %w", err)
	}

	if stillUsed, _ := models.NewsImageStoredName(news.ImageURL, s.baseURL); oldManaged && stillUsed != oldName {
		discardAsset(ctx, s.janitor, storage.CategoryNews, oldName)
	}

	s.materialize(news)
	return news, nil
}

// Delete removes a news record and then discards its managed image
func (s *newsService) Delete(ctx context.Context, id string) error {
	news, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to delete news: %w", err)
	}

	if err := s.repo.DeleteByID(ctx, id); err != nil {
		s.logger.Error("failed to delete news", zap.Error(err), zap.String("news_id", id))
		return fmt.Errorf("failed to delete news: %w", err)
	}

	if name, ok := models.NewsImageStoredName(news.ImageURL, s.baseURL); ok {
		discardAsset(ctx, s.janitor, storage.CategoryNews, name)
	}
	return nil
}

// storeImage validates an upload and writes it under a fresh stored name
func (s *newsService) storeImage(ctx context.Context, r io.Reader, upload models.ImageUpload) (string, error) {
	if r == nil || upload.Size == 0 {
		return "", fmt.Errorf("%w: please select an image to upload", apperrors.ErrEmptyUpload)
	}

	contentType := normalizeContentType(upload.ContentType)
	if _, ok := allowedImageTypes[contentType]; !ok {
		return "", fmt.Errorf("%w: only JPEG, PNG, GIF and WebP images are allowed, got %q", apperrors.ErrUnsupportedMediaType, upload.ContentType)
	}

	if upload.Size > MaxNewsImageSize {
		return "", fmt.Errorf("%w: image must not exceed 5MB", apperrors.ErrPayloadTooLarge)
	}

	storedName := storage.GenerateNewsImageName(upload.OriginalName, s.now())
	written, err := s.store.Store(storage.CategoryNews, storedName, storage.NewMaxSizeReader(r, MaxNewsImageSize))
	if err != nil {
		if errors.Is(err, apperrors.ErrPayloadTooLarge) {
			return "", fmt.Errorf("%w: image must not exceed 5MB", apperrors.ErrPayloadTooLarge)
		}
		s.logger.Error("failed to store news image", zap.Error(err), zap.String("original_name", upload.OriginalName))
		return "", fmt.Errorf("failed to store image: %w", err)
	}
	if written == 0 {
		discardAsset(ctx, s.janitor, storage.CategoryNews, storedName)
		return "", fmt.Errorf("%w: please select an image to upload", apperrors.ErrEmptyUpload)
	}
	recordUpload(storage.CategoryNews, written)

	s.logger.Info("news image stored", zap.String("stored_name", storedName), zap.Int64("size", written))
	return storedName, nil
}

// storedImageURL converts an absolute URL served by this service back into its relative form
func (s *newsService) storedImageURL(imageURL string) string {
	imageURL = strings.TrimSpace(imageURL)
	if imageURL == s.placeholder {
		return ""
	}
	if strings.HasPrefix(imageURL, s.baseURL+models.NewsImagePathPrefix) {
		return strings.TrimPrefix(imageURL, s.baseURL)
	}
	return imageURL
}

func (s *newsService) validateRequest(req models.NewsRequest) error {
	if strings.TrimSpace(req.Title) == "" {
		return fmt.Errorf("%w: title is required", apperrors.ErrValidation)
	}
	if strings.TrimSpace(req.AdminID) == "" {
		return fmt.Errorf("%w: adminId is required", apperrors.ErrValidation)
	}
	return nil
}

func (s *newsService) list(ctx context.Context, failure string, fetch func() ([]models.News, error)) ([]models.News, error) {
	news, err := fetch()
	if err != nil {
		s.logger.Error(failure, zap.Error(err))
		return nil, fmt.Errorf("%s: %w", failure, err)
	}
	for i := range news {
		s.materialize(&news[i])
	}
	return news, nil
}

func (s *newsService) materialize(news *models.News) {
	news.ImageURL = s.MaterializeURL(news.ImageURL)
}

// normalizeContentType drops parameters such as charset and lowercases the media type
func normalizeContentType(contentType string) string {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(contentType))
	}
	return mediaType
}
