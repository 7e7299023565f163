package models

// StudyPlanCourse links a course to a study plan for one semester
type StudyPlanCourse struct {
	StudyPlanCourseID  string `json:"studyPlanCourseId"`
	StudyPlanID        string `json:"studyPlanId"`
	CourseID           string `json:"courseId"`
	CourseName         string `json:"courseName,omitempty"`
	SemesterID         string `json:"semesterId"`
	AssignmentDeadline *Date  `json:"assignmentDeadline"`
}
