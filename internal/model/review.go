package model

import "time"

// Review 课程评价（每人每课限一条，评分 1-5）
type Review struct {
	ID        int64     `json:"id" db:"id"`
	UserID    int64     `json:"user_id" db:"user_id"`
	CourseID  int64     `json:"course_id" db:"course_id"`
	Rating    int       `json:"rating" db:"rating"`
	Comment   string    `json:"comment,omitempty" db:"comment"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Certificate 结课证书
type Certificate struct {
	ID             int64     `json:"id" db:"id"`
	UserID         int64     `json:"user_id" db:"user_id"`
	CourseID       int64     `json:"course_id" db:"course_id"`
	CertificateURL string    `json:"certificate_url,omitempty" db:"certificate_url"`
	IssuedAt       time.Time `json:"issued_at" db:"issued_at"`
}
