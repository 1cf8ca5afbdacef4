package model

// Statistics — счётчики главной панели (GET /api/v1/statistic).
type Statistics struct {
	Faculties     int64 `json:"collegeCount"`
	Departments   int64 `json:"departmentCount"`
	Teachers      int64 `json:"teacherCount"`
	Publications  int64 `json:"publicationCount"`
	Research      int64 `json:"researchCount"`
	Awards        int64 `json:"awardCount"`
	Consultations int64 `json:"consultationCount"`
	Control       int64 `json:"nazoratCount"`
}
