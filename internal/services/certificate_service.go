package services

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/studentserving/backend/internal/apperrors"
	"github.com/studentserving/backend/internal/cleanup"
	"github.com/studentserving/backend/internal/models"
	"github.com/studentserving/backend/internal/storage"
	"go.uber.org/zap"
)

// CertificateRepository is the interface that wraps methods for Certificates table data access
type CertificateRepository interface {
	// Method Create inserts a certificate record and sets its generated ID.
	//
	// Any database failure is returned as an error wrapping ErrPersistence or ErrConflict.
	Create(ctx context.Context, certificate *models.Certificate) error
	// Method GetByID retrieves a certificate by its ID.
	//
	// If no record exists the error wraps ErrNotFound and the returned certificate is "nil".
	GetByID(ctx context.Context, id int64) (*models.Certificate, error)
	// Method GetByStudentID retrieves all certificates of a student, newest first.
	GetByStudentID(ctx context.Context, studentID string) ([]models.Certificate, error)
	// Method GetAll retrieves all certificates, newest first.
	GetAll(ctx context.Context) ([]models.Certificate, error)
	// Method DeleteByID deletes a certificate record.
	//
	// Deleting an unknown ID returns an error wrapping ErrNotFound.
	DeleteByID(ctx context.Context, id int64) error
}

type certificateService struct {
	repo    CertificateRepository
	store   FileStore
	janitor cleanup.Janitor
	logger  *zap.Logger
	now     func() time.Time
}

// NewCertificateService creates a new certificate service
func NewCertificateService(repo CertificateRepository, store FileStore, janitor cleanup.Janitor, logger *zap.Logger) *certificateService {
	return &certificateService{
		repo:    repo,
		store:   store,
		janitor: janitor,
		logger:  logger,
		now:     time.Now,
	}
}

// Upload stores a certificate file and records it for the student
//
// "size" is the size declared by the client; a zero size or an empty stream is rejected with ErrEmptyUpload.
// The certificate type defaults to "general". If the record cannot be saved the file stays on disk
// and is reclaimed later by the orphan sweeper.
func (s *certificateService) Upload(ctx context.Context, r io.Reader, size int64, upload models.CertificateUpload) (*models.CertificateUploadResult, error) {
	if r == nil || size == 0 {
		return nil, fmt.Errorf("%w: please select a file to upload", apperrors.ErrEmptyUpload)
	}

	studentID := strings.TrimSpace(upload.StudentID)
	if studentID == "" {
		return nil, fmt.Errorf("%w: studentId is required", apperrors.ErrValidation)
	}

	certificateType := strings.TrimSpace(upload.CertificateType)
	if certificateType == "" {
		certificateType = models.DefaultCertificateType
	}

	storedName := storage.GenerateCertificateName(studentID, certificateType, upload.OriginalName)
	written, err := s.store.Store(storage.CategoryCertificates, storedName, r)
	if err != nil {
		s.logger.Error("failed to store certificate file", zap.Error(err), zap.String("student_id", studentID))
		return nil, fmt.Errorf("failed to store certificate: %w", err)
	}
	if written == 0 {
		discardAsset(ctx, s.janitor, storage.CategoryCertificates, storedName)
		return nil, fmt.Errorf("%w: please select a file to upload", apperrors.ErrEmptyUpload)
	}
	recordUpload(storage.CategoryCertificates, written)

	certificate := &models.Certificate{
		StudentID:       studentID,
		FileName:        storedName,
		FilePath:        s.store.Path(storage.CategoryCertificates, storedName),
		CertificateType: certificateType,
		Description:     upload.Description,
		UploadedAt:      s.now().UTC(),
	}

	if err := s.repo.Create(ctx, certificate); err != nil {
		s.logger.Error("failed to save certificate record",
			zap.Error(err),
			zap.String("student_id", studentID),
			zap.String("stored_name", storedName),
		)
		return nil, fmt.Errorf("failed to save certificate: %w", err)
	}

	s.logger.Info("certificate uploaded",
		zap.Int64("certificate_id", certificate.ID),
		zap.String("student_id", studentID),
		zap.String("stored_name", storedName),
		zap.Int64("size", written),
	)

	return &models.CertificateUploadResult{
		FileName:      certificate.FileName,
		FilePath:      certificate.FilePath,
		CertificateID: certificate.ID,
	}, nil
}

// Download opens a stored certificate file by its stored name. The caller must close the file.
func (s *certificateService) Download(ctx context.Context, fileName string) (*os.File, error) {
	file, err := s.store.Open(storage.CategoryCertificates, fileName)
	if err != nil {
		return nil, fmt.Errorf("failed to open certificate: %w", err)
	}
	return file, nil
}

// ListByStudent retrieves the certificates of a student
func (s *certificateService) ListByStudent(ctx context.Context, studentID string) ([]models.Certificate, error) {
	if strings.TrimSpace(studentID) == "" {
		return nil, fmt.Errorf("%w: studentId is required", apperrors.ErrValidation)
	}

	certificates, err := s.repo.GetByStudentID(ctx, studentID)
	if err != nil {
		s.logger.Error("failed to get certificates by student", zap.Error(err), zap.String("student_id", studentID))
		return nil, fmt.Errorf("failed to get certificates: %w", err)
	}
	return certificates, nil
}

// ListAll retrieves every certificate
func (s *certificateService) ListAll(ctx context.Context) ([]models.Certificate, error) {
	certificates, err := s.repo.GetAll(ctx)
	if err != nil {
		s.logger.Error("failed to get all certificates", zap.Error(err))
		return nil, fmt.Errorf("failed to get certificates: %w", err)
	}
	return certificates, nil
}

// Delete removes the certificate record and then discards its file
func (s *certificateService) Delete(ctx context.Context, id int64) error {
	certificate, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to delete certificate: %w", err)
	}

	if err := s.repo.DeleteByID(ctx, id); err != nil {
		s.logger.Error("failed to delete certificate record", zap.Error(err), zap.Int64("certificate_id", id))
		return fmt.Errorf("failed to delete certificate: %w", err)
	}

	discardAsset(ctx, s.janitor, storage.CategoryCertificates, certificate.FileName)
	return nil
}
