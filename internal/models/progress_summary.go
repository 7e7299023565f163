package models

// StudentProgressSummary aggregates a student's progress in a study plan
type StudentProgressSummary struct {
	ID                   int64  `json:"id"`
	StudentID            string `json:"studentId"`
	StudyPlanID          string `json:"studyPlanId"`
	TotalEnrolledCourse  int    `json:"totalEnrolledCourse"`
	TotalCompletedCourse int    `json:"totalCompletedCourse"`
	TotalCreditsEarned   int    `json:"totalCreditsEarned"`
}

// StudentProgressSummaryRequest is the body of create and update requests.
// Missing counters default to zero.
type StudentProgressSummaryRequest struct {
	StudentID            string `json:"studentId"`
	StudyPlanID          string `json:"studyPlanId"`
	TotalEnrolledCourse  *int   `json:"totalEnrolledCourse"`
	TotalCompletedCourse *int   `json:"totalCompletedCourse"`
	TotalCreditsEarned   *int   `json:"totalCreditsEarned"`
}
