package handlers

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/studentserving/backend/internal/apperrors"
	"github.com/studentserving/backend/internal/models"
	"github.com/studentserving/backend/libs/auth/middleware"
	"github.com/studentserving/backend/libs/auth/service"
	"go.uber.org/zap"
)

// mockStudyPlanCourseService is a mock implementation of StudyPlanCourseService
type mockStudyPlanCourseService struct {
	courses   []models.StudyPlanCourse
	err       error
	gotID     string
	gotCourse models.StudyPlanCourse
}

func (m *mockStudyPlanCourseService) List(ctx context.Context) ([]models.StudyPlanCourse, error) {
	return m.courses, m.err
}

func (m *mockStudyPlanCourseService) GetByID(ctx context.Context, id string) (*models.StudyPlanCourse, error) {
	m.gotID = id
	if m.err != nil {
		return nil, m.err
	}
	return &models.StudyPlanCourse{StudyPlanCourseID: id}, nil
}

func (m *mockStudyPlanCourseService) Create(ctx context.Context, course models.StudyPlanCourse) (*models.StudyPlanCourse, error) {
	m.gotCourse = course
	if m.err != nil {
		return nil, m.err
	}
	return &course, nil
}

func (m *mockStudyPlanCourseService) Update(ctx context.Context, id string, course models.StudyPlanCourse) (*models.StudyPlanCourse, error) {
	m.gotID = id
	m.gotCourse = course
	if m.err != nil {
		return nil, m.err
	}
	course.StudyPlanCourseID = id
	return &course, nil
}

func (m *mockStudyPlanCourseService) Delete(ctx context.Context, id string) error {
	m.gotID = id
	return m.err
}

// mockProgressSummaryService is a mock implementation of ProgressSummaryService
type mockProgressSummaryService struct {
	summaries []models.StudentProgressSummary
	err       error
	gotID     int64
	gotReq    models.StudentProgressSummaryRequest
}

func (m *mockProgressSummaryService) List(ctx context.Context) ([]models.StudentProgressSummary, error) {
	return m.summaries, m.err
}

func (m *mockProgressSummaryService) GetByID(ctx context.Context, id int64) (*models.StudentProgressSummary, error) {
	m.gotID = id
	if m.err != nil {
		return nil, m.err
	}
	return &models.StudentProgressSummary{ID: id}, nil
}

func (m *mockProgressSummaryService) Create(ctx context.Context, req models.StudentProgressSummaryRequest) (*models.StudentProgressSummary, error) {
	m.gotReq = req
	if m.err != nil {
		return nil, m.err
	}
	return &models.StudentProgressSummary{ID: 1, StudentID: req.StudentID, StudyPlanID: req.StudyPlanID}, nil
}

func (m *mockProgressSummaryService) Update(ctx context.Context, id int64, req models.StudentProgressSummaryRequest) (*models.StudentProgressSummary, error) {
	m.gotID = id
	m.gotReq = req
	if m.err != nil {
		return nil, m.err
	}
	return &models.StudentProgressSummary{ID: id, StudentID: req.StudentID, StudyPlanID: req.StudyPlanID}, nil
}

func (m *mockProgressSummaryService) Delete(ctx context.Context, id int64) error {
	m.gotID = id
	return m.err
}

func TestAcademicHandler_StudyPlanCourses(t *testing.T) {
	tests := []struct {
		name           string
		method         string
		target         string
		body           any
		serviceErr     error
		expectedStatus int
		expectedID     string
	}{
		{name: "list", method: http.MethodGet, target: "/api/admin/academic/study-plan-courses", expectedStatus: http.StatusOK},
		{name: "get", method: http.MethodGet, target: "/api/admin/academic/study-plan-courses/SPC1", expectedStatus: http.StatusOK, expectedID: "SPC1"},
		{
			name:           "get missing",
			method:         http.MethodGet,
			target:         "/api/admin/academic/study-plan-courses/SPC9",
			serviceErr:     fmt.Errorf("%w: study plan course SPC9", apperrors.ErrNotFound),
			expectedStatus: http.StatusNotFound,
			expectedID:     "SPC9",
		},
		{
			name:           "create",
			method:         http.MethodPost,
			target:         "/api/admin/academic/study-plan-courses",
			body:           map[string]any{"studyPlanCourseId": "SPC1", "studyPlanId": "SP1", "courseId": "C1", "semesterId": "S1", "assignmentDeadline": "2024-06-30"},
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "create with unknown course",
			method:         http.MethodPost,
			target:         "/api/admin/academic/study-plan-courses",
			body:           map[string]any{"studyPlanCourseId": "SPC1", "studyPlanId": "SP1", "courseId": "C9", "semesterId": "S1"},
			serviceErr:     fmt.Errorf("%w: course C9", apperrors.ErrNotFound),
			expectedStatus: http.StatusNotFound,
		},
		{
			name:           "create with bad date",
			method:         http.MethodPost,
			target:         "/api/admin/academic/study-plan-courses",
			body:           map[string]any{"studyPlanCourseId": "SPC1", "assignmentDeadline": "30/06/2024"},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "update",
			method:         http.MethodPut,
			target:         "/api/admin/academic/study-plan-courses/SPC1",
			body:           map[string]any{"studyPlanId": "SP1", "courseId": "C1", "semesterId": "S1"},
			expectedStatus: http.StatusOK,
			expectedID:     "SPC1",
		},
		{name: "delete", method: http.MethodDelete, target: "/api/admin/academic/study-plan-courses/SPC1", expectedStatus: http.StatusNoContent, expectedID: "SPC1"},
		{
			name:           "database failure",
			method:         http.MethodGet,
			target:         "/api/admin/academic/study-plan-courses",
			serviceErr:     fmt.Errorf("%w: connection refused", apperrors.ErrPersistence),
			expectedStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			courses := &mockStudyPlanCourseService{err: tt.serviceErr}
			router := newTestRouter(NewAcademicHandler(courses, &mockProgressSummaryService{}, zap.NewNop(), nil))

			w := serve(router, jsonRequest(t, tt.method, tt.target, tt.body))

			assert.Equal(t, tt.expectedStatus, w.Code, w.Body.String())
			assert.Equal(t, tt.expectedID, courses.gotID)
			if tt.expectedStatus == http.StatusInternalServerError {
				assert.Equal(t, "failed to get study plan courses", decodeBody[map[string]string](t, w)["error"])
			}
		})
	}
}

func TestAcademicHandler_CreateStudyPlanCourse_DecodesDate(t *testing.T) {
	courses := &mockStudyPlanCourseService{}
	router := newTestRouter(NewAcademicHandler(courses, &mockProgressSummaryService{}, zap.NewNop(), nil))

	w := serve(router, jsonRequest(t, http.MethodPost, "/api/admin/academic/study-plan-courses", map[string]any{
		"studyPlanCourseId": "SPC1", "studyPlanId": "SP1", "courseId": "C1", "semesterId": "S1", "assignmentDeadline": "2024-06-30",
	}))

	require.Equal(t, http.StatusCreated, w.Code)
	require.NotNil(t, courses.gotCourse.AssignmentDeadline)
	assert.Equal(t, "2024-06-30", courses.gotCourse.AssignmentDeadline.String())
	assert.JSONEq(t, `{"studyPlanCourseId":"SPC1","studyPlanId":"SP1","courseId":"C1","semesterId":"S1","assignmentDeadline":"2024-06-30"}`, w.Body.String())
}

func TestAcademicHandler_ProgressSummaries(t *testing.T) {
	tests := []struct {
		name           string
		method         string
		target         string
		body           any
		serviceErr     error
		expectedStatus int
		expectedID     int64
	}{
		{name: "list", method: http.MethodGet, target: "/api/admin/academic/student-progress-summaries", expectedStatus: http.StatusOK},
		{name: "get", method: http.MethodGet, target: "/api/admin/academic/student-progress-summaries/3", expectedStatus: http.StatusOK, expectedID: 3},
		{name: "get invalid id", method: http.MethodGet, target: "/api/admin/academic/student-progress-summaries/abc", expectedStatus: http.StatusBadRequest},
		{name: "get zero id", method: http.MethodGet, target: "/api/admin/academic/student-progress-summaries/0", expectedStatus: http.StatusBadRequest},
		{
			name:           "create",
			method:         http.MethodPost,
			target:         "/api/admin/academic/student-progress-summaries",
			body:           map[string]any{"studentId": "STU001", "studyPlanId": "SP1", "totalEnrolledCourse": 5},
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "create with negative counter",
			method:         http.MethodPost,
			target:         "/api/admin/academic/student-progress-summaries",
			body:           map[string]any{"studentId": "STU001", "studyPlanId": "SP1", "totalEnrolledCourse": -1},
			serviceErr:     fmt.Errorf("%w: totalEnrolledCourse must not be negative", apperrors.ErrValidation),
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "update",
			method:         http.MethodPut,
			target:         "/api/admin/academic/student-progress-summaries/3",
			body:           map[string]any{"studentId": "STU001", "studyPlanId": "SP1"},
			expectedStatus: http.StatusOK,
			expectedID:     3,
		},
		{
			name:           "delete missing",
			method:         http.MethodDelete,
			target:         "/api/admin/academic/student-progress-summaries/9",
			serviceErr:     fmt.Errorf("%w: progress summary 9", apperrors.ErrNotFound),
			expectedStatus: http.StatusNotFound,
			expectedID:     9,
		},
		{name: "delete", method: http.MethodDelete, target: "/api/admin/academic/student-progress-summaries/3", expectedStatus: http.StatusNoContent, expectedID: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			summaries := &mockProgressSummaryService{err: tt.serviceErr}
			router := newTestRouter(NewAcademicHandler(&mockStudyPlanCourseService{}, summaries, zap.NewNop(), nil))

			w := serve(router, jsonRequest(t, tt.method, tt.target, tt.body))

			assert.Equal(t, tt.expectedStatus, w.Code, w.Body.String())
			assert.Equal(t, tt.expectedID, summaries.gotID)
		})
	}
}

func TestAcademicHandler_ListEmptyAsArray(t *testing.T) {
	router := newTestRouter(NewAcademicHandler(&mockStudyPlanCourseService{}, &mockProgressSummaryService{}, zap.NewNop(), nil))

	w := serve(router, httptest.NewRequest(http.MethodGet, "/api/admin/academic/student-progress-summaries", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())
}

func TestAcademicHandler_RequiresAdmin(t *testing.T) {
	tg := service.NewTokenGenerator("test-secret", time.Hour)
	router := newTestRouter(NewAcademicHandler(
		&mockStudyPlanCourseService{},
		&mockProgressSummaryService{},
		zap.NewNop(),
		middleware.RoleMiddleware(tg, service.RoleAdmin),
	))

	studentToken, err := tg.GenerateAccessToken("STU001", service.RoleStudent)
	require.NoError(t, err)
	adminToken, err := tg.GenerateAccessToken("ADM001", service.RoleAdmin)
	require.NoError(t, err)

	tests := []struct {
		name           string
		token          string
		expectedStatus int
	}{
		{name: "anonymous", expectedStatus: http.StatusUnauthorized},
		{name: "garbage token", token: "not-a-token", expectedStatus: http.StatusUnauthorized},
		{name: "student", token: studentToken, expectedStatus: http.StatusForbidden},
		{name: "admin", token: adminToken, expectedStatus: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/admin/academic/study-plan-courses", nil)
			if tt.token != "" {
				req.Header.Set("Authorization", "Bearer "+tt.token)
			}

			w := serve(router, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
		})
	}
}
