package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/studentserving/backend/internal/apperrors"
	"github.com/studentserving/backend/internal/models"
	"go.uber.org/zap"
)

// StudyPlanCourseRepository is the interface that wraps methods for StudyPlanCourses table data access
type StudyPlanCourseRepository interface {
	// Method GetAll retrieves all study plan courses together with the joined course name.
	GetAll(ctx context.Context) ([]models.StudyPlanCourse, error)
	// Method GetByID retrieves a study plan course by its ID.
	//
	// If no record exists the error wraps ErrNotFound and the returned course is "nil".
	GetByID(ctx context.Context, id string) (*models.StudyPlanCourse, error)
	// Method Create inserts a study plan course. A duplicate ID returns an error wrapping ErrConflict.
	Create(ctx context.Context, course *models.StudyPlanCourse) error
	// Method Update overwrites a study plan course identified by its StudyPlanCourseID.
	Update(ctx context.Context, course *models.StudyPlanCourse) error
	// Method DeleteByID deletes a study plan course. Deleting an unknown ID returns an error wrapping ErrNotFound.
	DeleteByID(ctx context.Context, id string) error
}

// ReferenceRepository is the interface that wraps existence checks of referenced academic records
type ReferenceRepository interface {
	// Method StudyPlanExists reports whether a study plan with "id" exists.
	StudyPlanExists(ctx context.Context, id string) (bool, error)
	// Method CourseExists reports whether a course with "id" exists.
	CourseExists(ctx context.Context, id string) (bool, error)
	// Method SemesterExists reports whether a semester with "id" exists.
	SemesterExists(ctx context.Context, id string) (bool, error)
	// Method StudentExists reports whether a student with "id" exists.
	StudentExists(ctx context.Context, id string) (bool, error)
}

type studyPlanCourseService struct {
	repo   StudyPlanCourseRepository
	refs   ReferenceRepository
	logger *zap.Logger
}

// NewStudyPlanCourseService creates a new study plan course service
func NewStudyPlanCourseService(repo StudyPlanCourseRepository, refs ReferenceRepository, logger *zap.Logger) *studyPlanCourseService {
	return &studyPlanCourseService{
		repo:   repo,
		refs:   refs,
		logger: logger,
	}
}

// List retrieves all study plan courses
func (s *studyPlanCourseService) List(ctx context.Context) ([]models.StudyPlanCourse, error) {
	courses, err := s.repo.GetAll(ctx)
	if err != nil {
		s.logger.Error("failed to get study plan courses", zap.Error(err))
		return nil, fmt.Errorf("failed to get study plan courses: %w", err)
	}
	return courses, nil
}

// GetByID retrieves a study plan course
func (s *studyPlanCourseService) GetByID(ctx context.Context, id string) (*models.StudyPlanCourse, error) {
	course, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get study plan course: %w", err)
	}
	return course, nil
}

// Create validates the references of a study plan course and stores it
func (s *studyPlanCourseService) Create(ctx context.Context, course models.StudyPlanCourse) (*models.StudyPlanCourse, error) {
	course.StudyPlanCourseID = strings.TrimSpace(course.StudyPlanCourseID)
	if course.StudyPlanCourseID == "" {
		return nil, fmt.Errorf("%w: studyPlanCourseId is required", apperrors.ErrValidation)
	}
	if err := s.validate(ctx, &course); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, &course); err != nil {
		s.logger.Error("failed to create study plan course", zap.Error(err), zap.String("study_plan_course_id", course.StudyPlanCourseID))
		return nil, fmt.Errorf("failed to create study plan course: %w", err)
	}

	return s.GetByID(ctx, course.StudyPlanCourseID)
}

// Update overwrites an existing study plan course. The id in the path wins over the body.
func (s *studyPlanCourseService) Update(ctx context.Context, id string, course models.StudyPlanCourse) (*models.StudyPlanCourse, error) {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return nil, fmt.Errorf("failed to update study plan course: %w", err)
	}

	course.StudyPlanCourseID = id
	if err := s.validate(ctx, &course); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, &course); err != nil {
		s.logger.Error("failed to update study plan course", zap.Error(err), zap.String("study_plan_course_id", id))
		return nil, fmt.Errorf("failed to update study plan course: %w", err)
	}

	return s.GetByID(ctx, id)
}

// Delete removes a study plan course
func (s *studyPlanCourseService) Delete(ctx context.Context, id string) error {
	if err := s.repo.DeleteByID(ctx, id); err != nil {
		return fmt.Errorf("failed to delete study plan course: %w", err)
	}
	return nil
}

// validate checks required fields and that the referenced study plan, course and semester exist
func (s *studyPlanCourseService) validate(ctx context.Context, course *models.StudyPlanCourse) error {
	course.StudyPlanID = strings.TrimSpace(course.StudyPlanID)
	course.CourseID = strings.TrimSpace(course.CourseID)
	course.SemesterID = strings.TrimSpace(course.SemesterID)

	checks := []struct {
		field  string
		value  string
		exists func(context.Context, string) (bool, error)
	}{
		{field: "studyPlanId", value: course.StudyPlanID, exists: s.refs.StudyPlanExists},
		{field: "courseId", value: course.CourseID, exists: s.refs.CourseExists},
		{field: "semesterId", value: course.SemesterID, exists: s.refs.SemesterExists},
	}

	for _, check := range checks {
		if check.value == "" {
			return fmt.Errorf("%w: %s is required", apperrors.ErrValidation, check.field)
		}
	}

	for _, check := range checks {
		if err := requireReference(ctx, check.exists, check.field, check.value); err != nil {
			return err
		}
	}
	return nil
}

// requireReference returns ErrNotFound when the referenced record does not exist
func requireReference(ctx context.Context, exists func(context.Context, string) (bool, error), field, value string) error {
	ok, err := exists(ctx, value)
	if err != nil {
		return fmt.Errorf("failed to check %s: %w", field, err)
	}
	if !ok {
		return fmt.Errorf("%w: %s %s does not exist", apperrors.ErrNotFound, field, value)
	}
	return nil
}
