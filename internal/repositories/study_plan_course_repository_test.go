package repositories

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/studentserving/backend/internal/apperrors"
	"github.com/studentserving/backend/internal/models"
)

var studyPlanCourseRowColumns = []string{"study_plan_course_id", "study_plan_id", "course_id", "course_name", "semester_id", "assignment_deadline"}

func TestStudyPlanCourseRepository_GetAll(t *testing.T) {
	db, mock, cleanup := setupTestDB(t)
	defer cleanup()
	repo := NewStudyPlanCourseRepository(db)

	rows := sqlmock.NewRows(studyPlanCourseRowColumns).
		AddRow("SPC01", "SP01", "C101", "Databases", "SEM1", time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)).
		AddRow("SPC02", "SP01", "C102", "", "SEM1", nil)
	mock.ExpectQuery(`FROM study_plan_courses spc\s+LEFT JOIN courses c`).WillReturnRows(rows)

	courses, err := repo.GetAll(context.Background())

	require.NoError(t, err)
	require.Len(t, courses, 2)
	assert.Equal(t, "Databases", courses[0].CourseName)
	require.NotNil(t, courses[0].AssignmentDeadline)
	assert.Equal(t, "2025-01-15", courses[0].AssignmentDeadline.String())
	assert.Nil(t, courses[1].AssignmentDeadline)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudyPlanCourseRepository_GetByID(t *testing.T) {
	db, mock, cleanup := setupTestDB(t)
	defer cleanup()
	repo := NewStudyPlanCourseRepository(db)

	mock.ExpectQuery(`WHERE spc.study_plan_course_id = \?`).WithArgs("SPC01").
		WillReturnRows(sqlmock.NewRows(studyPlanCourseRowColumns).AddRow("SPC01", "SP01", "C101", "Databases", "SEM1", nil))
	mock.ExpectQuery(`WHERE spc.study_plan_course_id = \?`).WithArgs("SPC99").WillReturnError(sql.ErrNoRows)

	course, err := repo.GetByID(context.Background(), "SPC01")
	require.NoError(t, err)
	assert.Equal(t, "C101", course.CourseID)

	_, err = repo.GetByID(context.Background(), "SPC99")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudyPlanCourseRepository_CreateUpdateDelete(t *testing.T) {
	db, mock, cleanup := setupTestDB(t)
	defer cleanup()
	repo := NewStudyPlanCourseRepository(db)

	deadline, err := models.ParseDate("2025-02-01")
	require.NoError(t, err)
	course := &models.StudyPlanCourse{
		StudyPlanCourseID:  "SPC01",
		StudyPlanID:        "SP01",
		CourseID:           "C101",
		SemesterID:         "SEM1",
		AssignmentDeadline: &deadline,
	}

	mock.ExpectExec(`INSERT INTO study_plan_courses`).
		WithArgs("SPC01", "SP01", "C101", "SEM1", "2025-02-01").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO study_plan_courses`).
		WillReturnError(&mysql.MySQLError{Number: 1062})
	mock.ExpectExec(`UPDATE study_plan_courses`).
		WithArgs("SP01", "C101", "SEM1", "2025-02-01", "SPC01").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM study_plan_courses WHERE study_plan_course_id = ?`)).
		WithArgs("SPC01").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM study_plan_courses WHERE study_plan_course_id = ?`)).
		WithArgs("SPC01").
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.Create(context.Background(), course))
	assert.ErrorIs(t, repo.Create(context.Background(), course), apperrors.ErrConflict)
	require.NoError(t, repo.Update(context.Background(), course))
	require.NoError(t, repo.DeleteByID(context.Background(), "SPC01"))
	assert.ErrorIs(t, repo.DeleteByID(context.Background(), "SPC01"), apperrors.ErrNotFound)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReferenceRepository(t *testing.T) {
	db, mock, cleanup := setupTestDB(t)
	defer cleanup()
	repo := NewReferenceRepository(db)

	existsRows := func(v bool) *sqlmock.Rows {
		return sqlmock.NewRows([]string{"exists"}).AddRow(v)
	}
	mock.ExpectQuery(`FROM study_plans WHERE study_plan_id = \?`).WithArgs("SP01").WillReturnRows(existsRows(true))
	mock.ExpectQuery(`FROM courses WHERE course_id = \?`).WithArgs("C999").WillReturnRows(existsRows(false))
	mock.ExpectQuery(`FROM semesters WHERE semester_id = \?`).WithArgs("SEM1").WillReturnRows(existsRows(true))
	mock.ExpectQuery(`FROM students WHERE student_id = \?`).WithArgs("STU1").WillReturnError(sql.ErrConnDone)

	ok, err := repo.StudyPlanExists(context.Background(), "SP01")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.CourseExists(context.Background(), "C999")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = repo.SemesterExists(context.Background(), "SEM1")
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = repo.StudentExists(context.Background(), "STU1")
	assert.ErrorIs(t, err, apperrors.ErrPersistence)

	assert.NoError(t, mock.ExpectationsWereMet())
}
