package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/studentserving/backend/internal/models"
	"go.uber.org/zap"
)

// StudyPlanCourseService is the interface that wraps methods for study plan course business logic
type StudyPlanCourseService interface {
	// Method List retrieves all study plan courses.
	List(ctx context.Context) ([]models.StudyPlanCourse, error)
	// Method GetByID retrieves a study plan course. A missing record fails with ErrNotFound.
	GetByID(ctx context.Context, id string) (*models.StudyPlanCourse, error)
	// Method Create stores a study plan course.
	//
	// The referenced study plan, course and semester must exist, otherwise ErrNotFound is returned.
	Create(ctx context.Context, course models.StudyPlanCourse) (*models.StudyPlanCourse, error)
	// Method Update overwrites a study plan course under the same reference rules as Create.
	Update(ctx context.Context, id string, course models.StudyPlanCourse) (*models.StudyPlanCourse, error)
	// Method Delete removes a study plan course. A missing record fails with ErrNotFound.
	Delete(ctx context.Context, id string) error
}

// ProgressSummaryService is the interface that wraps methods for student progress summary business logic
type ProgressSummaryService interface {
	// Method List retrieves all progress summaries.
	List(ctx context.Context) ([]models.StudentProgressSummary, error)
	// Method GetByID retrieves a progress summary. A missing record fails with ErrNotFound.
	GetByID(ctx context.Context, id int64) (*models.StudentProgressSummary, error)
	// Method Create stores a progress summary. The student and study plan must exist.
	Create(ctx context.Context, req models.StudentProgressSummaryRequest) (*models.StudentProgressSummary, error)
	// Method Update overwrites a progress summary.
	Update(ctx context.Context, id int64, req models.StudentProgressSummaryRequest) (*models.StudentProgressSummary, error)
	// Method Delete removes a progress summary. A missing record fails with ErrNotFound.
	Delete(ctx context.Context, id int64) error
}

// AcademicHandler handles administrator CRUD requests for study plan courses and progress summaries
type AcademicHandler struct {
	BaseHandler
	courses   StudyPlanCourseService
	summaries ProgressSummaryService
	adminMw   func(http.Handler) http.Handler
}

// NewAcademicHandler creates a new academic handler
func NewAcademicHandler(courses StudyPlanCourseService, summaries ProgressSummaryService, logger *zap.Logger, adminMw func(http.Handler) http.Handler) *AcademicHandler {
	return &AcademicHandler{
		BaseHandler: newBaseHandler(logger),
		courses:     courses,
		summaries:   summaries,
		adminMw:     orPassthrough(adminMw),
	}
}

// RegisterRoutes registers all academic handler routes
func (h *AcademicHandler) RegisterRoutes(r chi.Router) {
	r.Route("/api/admin/academic", func(r chi.Router) {
		r.Use(h.adminMw)

		r.Route("/study-plan-courses", func(r chi.Router) {
			r.Get("/", h.ListStudyPlanCourses)
			r.Post("/", h.CreateStudyPlanCourse)
			r.Get("/{id}", h.GetStudyPlanCourse)
			r.Put("/{id}", h.UpdateStudyPlanCourse)
			r.Delete("/{id}", h.DeleteStudyPlanCourse)
		})

		r.Route("/student-progress-summaries", func(r chi.Router) {
			r.Get("/", h.ListProgressSummaries)
			r.Post("/", h.CreateProgressSummary)
			r.Get("/{id}", h.GetProgressSummary)
			r.Put("/{id}", h.UpdateProgressSummary)
			r.Delete("/{id}", h.DeleteProgressSummary)
		})
	})
}

// ListStudyPlanCourses handles GET /api/admin/academic/study-plan-courses
// @Summary List study plan courses
// @Tags academic
// @Produce json
// @Success 200 {array} models.StudyPlanCourse
// @Failure 500 {object} map[string]string
// @Security BearerAuth
// @Router /api/admin/academic/study-plan-courses [get]
func (h *AcademicHandler) ListStudyPlanCourses(w http.ResponseWriter, r *http.Request) {
	courses, err := h.courses.List(r.Context())
	if err != nil {
		h.respondServiceError(w, err, "failed to get study plan courses")
		return
	}
	h.RespondJSON(w, http.StatusOK, nonNil(courses))
}

// GetStudyPlanCourse handles GET /api/admin/academic/study-plan-courses/{id}
// @Summary Get study plan course
// @Tags academic
// @Produce json
// @Param id path string true "Study plan course ID"
// @Success 200 {object} models.StudyPlanCourse
// @Failure 404 {object} map[string]string
// @Failure 500 {object} map[string]string
// @Security BearerAuth
// @Router /api/admin/academic/study-plan-courses/{id} [get]
func (h *AcademicHandler) GetStudyPlanCourse(w http.ResponseWriter, r *http.Request) {
	course, err := h.courses.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.respondServiceError(w, err, "failed to get study plan course")
		return
	}
	h.RespondJSON(w, http.StatusOK, course)
}

// CreateStudyPlanCourse handles POST /api/admin/academic/study-plan-courses
// @Summary Create study plan course
// @Tags academic
// @Accept json
// @Produce json
// @Param course body models.StudyPlanCourse true "Study plan course"
// @Success 201 {object} models.StudyPlanCourse
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Failure 500 {object} map[string]string
// @Security BearerAuth
// @Router /api/admin/academic/study-plan-courses [post]
func (h *AcademicHandler) CreateStudyPlanCourse(w http.ResponseWriter, r *http.Request) {
	var course models.StudyPlanCourse
	if err := h.DecodeJSON(r, &course); err != nil {
		h.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	created, err := h.courses.Create(r.Context(), course)
	if err != nil {
		h.respondServiceError(w, err, "failed to create study plan course")
		return
	}
	h.RespondJSON(w, http.StatusCreated, created)
}

// UpdateStudyPlanCourse handles PUT /api/admin/academic/study-plan-courses/{id}
// @Summary Update study plan course
// @Tags academic
// @Accept json
// @Produce json
// @Param id path string true "Study plan course ID"
// @Param course body models.StudyPlanCourse true "Study plan course"
// @Success 200 {object} models.StudyPlanCourse
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 500 {object} map[string]string
// @Security BearerAuth
// @Router /api/admin/academic/study-plan-courses/{id} [put]
func (h *AcademicHandler) UpdateStudyPlanCourse(w http.ResponseWriter, r *http.Request) {
	var course models.StudyPlanCourse
	if err := h.DecodeJSON(r, &course); err != nil {
		h.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	updated, err := h.courses.Update(r.Context(), chi.URLParam(r, "id"), course)
	if err != nil {
		h.respondServiceError(w, err, "failed to update study plan course")
		return
	}
	h.RespondJSON(w, http.StatusOK, updated)
}

// DeleteStudyPlanCourse handles DELETE /api/admin/academic/study-plan-courses/{id}
// @Summary Delete study plan course
// @Tags academic
// @Param id path string true "Study plan course ID"
// @Success 204 "Deleted"
// @Failure 404 {object} map[string]string
// @Failure 500 {object} map[string]string
// @Security BearerAuth
// @Router /api/admin/academic/study-plan-courses/{id} [delete]
func (h *AcademicHandler) DeleteStudyPlanCourse(w http.ResponseWriter, r *http.Request) {
	if err := h.courses.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.respondServiceError(w, err, "failed to delete study plan course")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListProgressSummaries handles GET /api/admin/academic/student-progress-summaries
// @Summary List student progress summaries
// @Tags academic
// @Produce json
// @Success 200 {array} models.StudentProgressSummary
// @Failure 500 {object} map[string]string
// @Security BearerAuth
// @Router /api/admin/academic/student-progress-summaries [get]
func (h *AcademicHandler) ListProgressSummaries(w http.ResponseWriter, r *http.Request) {
	summaries, err := h.summaries.List(r.Context())
	if err != nil {
		h.respondServiceError(w, err, "failed to get progress summaries")
		return
	}
	h.RespondJSON(w, http.StatusOK, nonNil(summaries))
}

// GetProgressSummary handles GET /api/admin/academic/student-progress-summaries/{id}
// @Summary Get student progress summary
// @Tags academic
// @Produce json
// @Param id path int true "Progress summary ID"
// @Success 200 {object} models.StudentProgressSummary
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 500 {object} map[string]string
// @Security BearerAuth
// @Router /api/admin/academic/student-progress-summaries/{id} [get]
func (h *AcademicHandler) GetProgressSummary(w http.ResponseWriter, r *http.Request) {
	id, ok := h.summaryID(w, r)
	if !ok {
		return
	}

	summary, err := h.summaries.GetByID(r.Context(), id)
	if err != nil {
		h.respondServiceError(w, err, "failed to get progress summary")
		return
	}
	h.RespondJSON(w, http.StatusOK, summary)
}

// CreateProgressSummary handles POST /api/admin/academic/student-progress-summaries
// @Summary Create student progress summary
// @Tags academic
// @Accept json
// @Produce json
// @Param summary body models.StudentProgressSummaryRequest true "Progress summary"
// @Success 201 {object} models.StudentProgressSummary
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 500 {object} map[string]string
// @Security BearerAuth
// @Router /api/admin/academic/student-progress-summaries [post]
func (h *AcademicHandler) CreateProgressSummary(w http.ResponseWriter, r *http.Request) {
	var req models.StudentProgressSummaryRequest
	if err := h.DecodeJSON(r, &req); err != nil {
		h.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	summary, err := h.summaries.Create(r.Context(), req)
	if err != nil {
		h.respondServiceError(w, err, "failed to create progress summary")
		return
	}
	h.RespondJSON(w, http.StatusCreated, summary)
}

// UpdateProgressSummary handles PUT /api/admin/academic/student-progress-summaries/{id}
// @Summary Update student progress summary
// @Tags academic
// @Accept json
// @Produce json
// @Param id path int true "Progress summary ID"
// @Param summary body models.StudentProgressSummaryRequest true "Progress summary"
// @Success 200 {object} models.StudentProgressSummary
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 500 {object} map[string]string
// @Security BearerAuth
// @Router /api/admin/academic/student-progress-summaries/{id} [put]
func (h *AcademicHandler) UpdateProgressSummary(w http.ResponseWriter, r *http.Request) {
	id, ok := h.summaryID(w, r)
	if !ok {
		return
	}

	var req models.StudentProgressSummaryRequest
	if err := h.DecodeJSON(r, &req); err != nil {
		h.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	summary, err := h.summaries.Update(r.Context(), id, req)
	if err != nil {
		h.respondServiceError(w, err, "failed to update progress summary")
		return
	}
	h.RespondJSON(w, http.StatusOK, summary)
}

// DeleteProgressSummary handles DELETE /api/admin/academic/student-progress-summaries/{id}
// @Summary Delete student progress summary
// @Tags academic
// @Param id path int true "Progress summary ID"
// @Success 204 "Deleted"
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 500 {object} map[string]string
// @Security BearerAuth
// @Router /api/admin/academic/student-progress-summaries/{id} [delete]
func (h *AcademicHandler) DeleteProgressSummary(w http.ResponseWriter, r *http.Request) {
	id, ok := h.summaryID(w, r)
	if !ok {
		return
	}

	if err := h.summaries.Delete(r.Context(), id); err != nil {
		h.respondServiceError(w, err, "failed to delete progress summary")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *AcademicHandler) summaryID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		h.RespondError(w, http.StatusBadRequest, "invalid progress summary id")
		return 0, false
	}
	return id, true
}
