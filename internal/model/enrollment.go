package model

import "time"

// Enrollment 选课记录
type Enrollment struct {
	ID         int64     `json:"id" db:"id"`
	UserID     int64     `json:"user_id" db:"user_id"`
	CourseID   int64     `json:"course_id" db:"course_id"`
	EnrolledAt time.Time `json:"enrolled_at" db:"enrolled_at"`
	Completed  bool      `json:"completed" db:"completed"`
}

// Progress 课时学习进度
type Progress struct {
	ID           int64      `json:"id" db:"id"`
	EnrollmentID int64      `json:"enrollment_id" db:"enrollment_id"`
	LessonID     int64      `json:"lesson_id" db:"lesson_id"`
	Completed    bool       `json:"completed" db:"completed"`
	CompletedAt  *time.Time `json:"completed_at,omitempty" db:"completed_at"`
}
