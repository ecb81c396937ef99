package model

import "time"

// CourseStatus 课程状态
type CourseStatus string

const (
	CourseStatusDraft     CourseStatus = "draft"
	CourseStatusPublished CourseStatus = "published"
	CourseStatusArchived  CourseStatus = "archived"
)

// ParseCourseStatus 解析课程状态字符串，未知状态返回 false
func ParseCourseStatus(s string) (CourseStatus, bool) {
	switch CourseStatus(s) {
	case CourseStatusDraft, CourseStatusPublished, CourseStatusArchived:
		return CourseStatus(s), true
	}
	return "", false
}

// Course 课程
type Course struct {
	ID            int64        `json:"id" db:"id"`
	Title         string       `json:"title" db:"title"`
	Description   string       `json:"description,omitempty" db:"description"`
	Price         float64      `json:"price" db:"price"`
	ThumbnailURL  string       `json:"thumbnail_url,omitempty" db:"thumbnail_url"`
	TeacherID     int64        `json:"teacher_id" db:"teacher_id"`
	CategoryID    *int64       `json:"category_id,omitempty" db:"category_id"`
	Status        CourseStatus `json:"status" db:"status"`
	AvgRating     float64      `json:"avg_rating" db:"avg_rating"`
	TotalStudents int          `json:"total_students" db:"total_students"`
	CreatedAt     time.Time    `json:"created_at" db:"created_at"`
}

// Category 课程分类
type Category struct {
	ID          int64  `json:"id" db:"id"`
	Name        string `json:"name" db:"name"`
	Description string `json:"description,omitempty" db:"description"`
}

// CourseFilter 课程列表查询条件（只作用于已发布课程）
type CourseFilter struct {
	Search     string
	CategoryID int64
	MinPrice   *float64
	MaxPrice   *float64
	SortBy     string // price | rating | students | newest
}
