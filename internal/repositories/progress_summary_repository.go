package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/studentserving/backend/internal/apperrors"
	"github.com/studentserving/backend/internal/models"
)

// progressSummaryRepository implements student progress summary repository operations
type progressSummaryRepository struct {
	db *sql.DB
}

// NewProgressSummaryRepository creates a new progress summary repository
func NewProgressSummaryRepository(db *sql.DB) *progressSummaryRepository {
	return &progressSummaryRepository{
		db: db,
	}
}

const progressSummaryColumns = `id, student_id, study_plan_id, total_enrolled_course, total_completed_course, total_credits_earned`

// GetAll retrieves all progress summaries
func (r *progressSummaryRepository) GetAll(ctx context.Context) ([]models.StudentProgressSummary, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+progressSummaryColumns+` FROM student_progress_summaries ORDER BY id`)
	if err != nil {
		return nil, wrapDBError("get all progress summaries", err)
	}
	defer rows.Close()

	summaries := []models.StudentProgressSummary{}
	for rows.Next() {
		var s models.StudentProgressSummary
		if err := rows.Scan(&s.ID, &s.StudentID, &s.StudyPlanID, &s.TotalEnrolledCourse, &s.TotalCompletedCourse, &s.TotalCreditsEarned); err != nil {
			return nil, wrapDBError("scan progress summary", err)
		}
		summaries = append(summaries, s)
	}

	if err := rows.Err(); err != nil {
		return nil, wrapDBError("iterate progress summaries", err)
	}

	return summaries, nil
}

// GetByID retrieves a progress summary by ID
func (r *progressSummaryRepository) GetByID(ctx context.Context, id int64) (*models.StudentProgressSummary, error) {
	s := &models.StudentProgressSummary{}
	err := r.db.QueryRowContext(ctx, `SELECT `+progressSummaryColumns+` FROM student_progress_summaries WHERE id = ? LIMIT 1`, id).
		Scan(&s.ID, &s.StudentID, &s.StudyPlanID, &s.TotalEnrolledCourse, &s.TotalCompletedCourse, &s.TotalCreditsEarned)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: progress summary with id %d", apperrors.ErrNotFound, id)
	}
	if err != nil {
		return nil, wrapDBError("get progress summary by id", err)
	}
	return s, nil
}

// Create inserts a new progress summary and sets its generated ID
func (r *progressSummaryRepository) Create(ctx context.Context, s *models.StudentProgressSummary) error {
	query := `
		INSERT INTO student_progress_summaries (student_id, study_plan_id, total_enrolled_course, total_completed_course, total_credits_earned)
		VALUES (?, ?, ?, ?, ?)
	`

	result, err := r.db.ExecContext(ctx, query, s.StudentID, s.StudyPlanID, s.TotalEnrolledCourse, s.TotalCompletedCourse, s.TotalCreditsEarned)
	if err != nil {
		return wrapDBError("create progress summary", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return wrapDBError("get progress summary id", err)
	}
	s.ID = id
	return nil
}

// Update overwrites a progress summary
func (r *progressSummaryRepository) Update(ctx context.Context, s *models.StudentProgressSummary) error {
	query := `
		UPDATE student_progress_summaries
		SET student_id = ?, study_plan_id = ?, total_enrolled_course = ?, total_completed_course = ?, total_credits_earned = ?
		WHERE id = ?
	`

	_, err := r.db.ExecContext(ctx, query, s.StudentID, s.StudyPlanID, s.TotalEnrolledCourse, s.TotalCompletedCourse, s.TotalCreditsEarned, s.ID)
	if err != nil {
		return wrapDBError("update progress summary", err)
	}
	return nil
}

// DeleteByID deletes a progress summary by ID
func (r *progressSummaryRepository) DeleteByID(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM student_progress_summaries WHERE id = ?`, id)
	if err != nil {
		return wrapDBError("delete progress summary", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return wrapDBError("get rows affected", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%w: progress summary with id %d", apperrors.ErrNotFound, id)
	}
	return nil
}
