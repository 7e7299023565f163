package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/studentserving/backend/internal/apperrors"
	"github.com/studentserving/backend/internal/models"
)

// studyPlanCourseRepository implements study plan course repository operations
type studyPlanCourseRepository struct {
	db *sql.DB
}

// NewStudyPlanCourseRepository creates a new study plan course repository
func NewStudyPlanCourseRepository(db *sql.DB) *studyPlanCourseRepository {
	return &studyPlanCourseRepository{
		db: db,
	}
}

// course_name is joined in for display and never written
const studyPlanCourseSelect = `
	SELECT spc.study_plan_course_id, spc.study_plan_id, spc.course_id, COALESCE(c.course_name, ''),
	       spc.semester_id, spc.assignment_deadline
	FROM study_plan_courses spc
	LEFT JOIN courses c ON c.course_id = spc.course_id
`

// GetAll retrieves all study plan courses
func (r *studyPlanCourseRepository) GetAll(ctx context.Context) ([]models.StudyPlanCourse, error) {
	rows, err := r.db.QueryContext(ctx, studyPlanCourseSelect+` ORDER BY spc.study_plan_id, spc.semester_id, spc.study_plan_course_id`)
	if err != nil {
		return nil, wrapDBError("get all study plan courses", err)
	}
	defer rows.Close()

	courses := []models.StudyPlanCourse{}
	for rows.Next() {
		course, err := scanStudyPlanCourse(rows)
		if err != nil {
			return nil, wrapDBError("scan study plan course", err)
		}
		courses = append(courses, *course)
	}

	if err := rows.Err(); err != nil {
		return nil, wrapDBError("iterate study plan courses", err)
	}

	return courses, nil
}

// GetByID retrieves a study plan course by ID
func (r *studyPlanCourseRepository) GetByID(ctx context.Context, id string) (*models.StudyPlanCourse, error) {
	course, err := scanStudyPlanCourse(r.db.QueryRowContext(ctx, studyPlanCourseSelect+` WHERE spc.study_plan_course_id = ? LIMIT 1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: study plan course with id %s", apperrors.ErrNotFound, id)
	}
	if err != nil {
		return nil, wrapDBError("get study plan course by id", err)
	}
	return course, nil
}

// Create inserts a new study plan course
func (r *studyPlanCourseRepository) Create(ctx context.Context, course *models.StudyPlanCourse) error {
	query := `
		INSERT INTO study_plan_courses (study_plan_course_id, study_plan_id, course_id, semester_id, assignment_deadline)
		VALUES (?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, query,
		course.StudyPlanCourseID,
		course.StudyPlanID,
		course.CourseID,
		course.SemesterID,
		nullableDate(course.AssignmentDeadline),
	)
	if err != nil {
		return wrapDBError("create study plan course", err)
	}
	return nil
}

// Update overwrites a study plan course
func (r *studyPlanCourseRepository) Update(ctx context.Context, course *models.StudyPlanCourse) error {
	query := `
		UPDATE study_plan_courses
		SET study_plan_id = ?, course_id = ?, semester_id = ?, assignment_deadline = ?
		WHERE study_plan_course_id = ?
	`

	_, err := r.db.ExecContext(ctx, query,
		course.StudyPlanID,
		course.CourseID,
		course.SemesterID,
		nullableDate(course.AssignmentDeadline),
		course.StudyPlanCourseID,
	)
	if err != nil {
		return wrapDBError("update study plan course", err)
	}
	return nil
}

// DeleteByID deletes a study plan course by ID
func (r *studyPlanCourseRepository) DeleteByID(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM study_plan_courses WHERE study_plan_course_id = ?`, id)
	if err != nil {
		return wrapDBError("delete study plan course", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return wrapDBError("get rows affected", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%w: study plan course with id %s", apperrors.ErrNotFound, id)
	}
	return nil
}

func scanStudyPlanCourse(row rowScanner) (*models.StudyPlanCourse, error) {
	course := &models.StudyPlanCourse{}
	var deadline models.NullDate
	err := row.Scan(
		&course.StudyPlanCourseID,
		&course.StudyPlanID,
		&course.CourseID,
		&course.CourseName,
		&course.SemesterID,
		&deadline,
	)
	if err != nil {
		return nil, err
	}
	course.AssignmentDeadline = deadline.Ptr()
	return course, nil
}
