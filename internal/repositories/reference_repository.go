package repositories

import (
	"context"
	"database/sql"
)

// referenceRepository answers existence checks against the academic reference tables
type referenceRepository struct {
	db *sql.DB
}

// NewReferenceRepository creates a new reference repository
func NewReferenceRepository(db *sql.DB) *referenceRepository {
	return &referenceRepository{
		db: db,
	}
}

// StudyPlanExists reports whether a study plan exists
func (r *referenceRepository) StudyPlanExists(ctx context.Context, id string) (bool, error) {
	return r.exists(ctx, "check study plan", `SELECT EXISTS(SELECT 1 FROM study_plans WHERE study_plan_id = ?)`, id)
}

// CourseExists reports whether a course exists
func (r *referenceRepository) CourseExists(ctx context.Context, id string) (bool, error) {
	return r.exists(ctx, "check course", `SELECT EXISTS(SELECT 1 FROM courses WHERE course_id = ?)`, id)
}

// SemesterExists reports whether a semester exists
func (r *referenceRepository) SemesterExists(ctx context.Context, id string) (bool, error) {
	return r.exists(ctx, "check semester", `SELECT EXISTS(SELECT 1 FROM semesters WHERE semester_id = ?)`, id)
}

// StudentExists reports whether a student exists
func (r *referenceRepository) StudentExists(ctx context.Context, id string) (bool, error) {
	return r.exists(ctx, "check student", `SELECT EXISTS(SELECT 1 FROM students WHERE student_id = ?)`, id)
}

func (r *referenceRepository) exists(ctx context.Context, op, query, id string) (bool, error) {
	var exists bool
	if err := r.db.QueryRowContext(ctx, query, id).Scan(&exists); err != nil {
		return false, wrapDBError(op, err)
	}
	return exists, nil
}
