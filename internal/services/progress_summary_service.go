package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/studentserving/backend/internal/apperrors"
	"github.com/studentserving/backend/internal/models"
	"go.uber.org/zap"
)

// ProgressSummaryRepository is the interface that wraps methods for StudentProgressSummaries table data access
type ProgressSummaryRepository interface {
	// Method GetAll retrieves all progress summaries.
	GetAll(ctx context.Context) ([]models.StudentProgressSummary, error)
	// Method GetByID retrieves a progress summary by its ID.
	//
	// If no record exists the error wraps ErrNotFound and the returned summary is "nil".
	GetByID(ctx context.Context, id int64) (*models.StudentProgressSummary, error)
	// Method Create inserts a progress summary and sets its generated ID.
	Create(ctx context.Context, summary *models.StudentProgressSummary) error
	// Method Update overwrites a progress summary identified by its ID.
	Update(ctx context.Context, summary *models.StudentProgressSummary) error
	// Method DeleteByID deletes a progress summary. Deleting an unknown ID returns an error wrapping ErrNotFound.
	DeleteByID(ctx context.Context, id int64) error
}

type progressSummaryService struct {
	repo   ProgressSummaryRepository
	refs   ReferenceRepository
	logger *zap.Logger
}

// NewProgressSummaryService creates a new progress summary service
func NewProgressSummaryService(repo ProgressSummaryRepository, refs ReferenceRepository, logger *zap.Logger) *progressSummaryService {
	return &progressSummaryService{
		repo:   repo,
		refs:   refs,
		logger: logger,
	}
}

// List retrieves all progress summaries
func (s *progressSummaryService) List(ctx context.Context) ([]models.StudentProgressSummary, error) {
	summaries, err := s.repo.GetAll(ctx)
	if err != nil {
		s.logger.Error("failed to get progress summaries", zap.Error(err))
		return nil, fmt.Errorf("failed to get progress summaries: %w", err)
	}
	return summaries, nil
}

// GetByID retrieves a progress summary
func (s *progressSummaryService) GetByID(ctx context.Context, id int64) (*models.StudentProgressSummary, error) {
	summary, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get progress summary: %w", err)
	}
	return summary, nil
}

// Create validates and stores a progress summary
func (s *progressSummaryService) Create(ctx context.Context, req models.StudentProgressSummaryRequest) (*models.StudentProgressSummary, error) {
	summary, err := s.build(ctx, req)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, summary); err != nil {
		s.logger.Error("failed to create progress summary", zap.Error(err), zap.String("student_id", summary.StudentID))
		return nil, fmt.Errorf("failed to create progress summary: %w", err)
	}
	return summary, nil
}

// Update overwrites an existing progress summary
func (s *progressSummaryService) Update(ctx context.Context, id int64, req models.StudentProgressSummaryRequest) (*models.StudentProgressSummary, error) {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return nil, fmt.Errorf("failed to update progress summary: %w", err)
	}

	summary, err := s.build(ctx, req)
	if err != nil {
		return nil, err
	}
	summary.ID = id

	if err := s.repo.Update(ctx, summary); err != nil {
		s.logger.Error("failed to update progress summary", zap.Error(err), zap.Int64("id", id))
		return nil, fmt.Errorf("failed to update progress summary: %w", err)
	}
	return summary, nil
}

// Delete removes a progress summary
func (s *progressSummaryService) Delete(ctx context.Context, id int64) error {
	if err := s.repo.DeleteByID(ctx, id); err != nil {
		return fmt.Errorf("failed to delete progress summary: %w", err)
	}
	return nil
}

// build validates a request and turns it into a summary. Missing counters become zero.
func (s *progressSummaryService) build(ctx context.Context, req models.StudentProgressSummaryRequest) (*models.StudentProgressSummary, error) {
	summary := &models.StudentProgressSummary{
		StudentID:   strings.TrimSpace(req.StudentID),
		StudyPlanID: strings.TrimSpace(req.StudyPlanID),
	}
	if summary.StudentID == "" {
		return nil, fmt.Errorf("%w: studentId is required", apperrors.ErrValidation)
	}
	if summary.StudyPlanID == "" {
		return nil, fmt.Errorf("%w: studyPlanId is required", apperrors.ErrValidation)
	}

	counters := []struct {
		field string
		value *int
		dst   *int
	}{
		{field: "totalEnrolledCourse", value: req.TotalEnrolledCourse, dst: &summary.TotalEnrolledCourse},
		{field: "totalCompletedCourse", value: req.TotalCompletedCourse, dst: &summary.TotalCompletedCourse},
		{field: "totalCreditsEarned", value: req.TotalCreditsEarned, dst: &summary.TotalCreditsEarned},
	}
	for _, c := range counters {
		if c.value == nil {
			continue
		}
		if *c.value < 0 {
			return nil, fmt.Errorf("%w: %s must not be negative", apperrors.ErrValidation, c.field)
		}
		*c.dst = *c.value
	}

	if err := requireReference(ctx, s.refs.StudentExists, "studentId", summary.StudentID); err != nil {
		return nil, err
	}
	if err := requireReference(ctx, s.refs.StudyPlanExists, "studyPlanId", summary.StudyPlanID); err != nil {
		return nil, err
	}
	return summary, nil
}
