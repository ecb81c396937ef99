package model

import "time"

// LessonContentType 课时内容类型
type LessonContentType string

const (
	LessonContentText  LessonContentType = "text"
	LessonContentVideo LessonContentType = "video"
	LessonContentPDF   LessonContentType = "pdf"
)

// ParseLessonContentType 解析课时内容类型，未知类型返回 false
func ParseLessonContentType(s string) (LessonContentType, bool) {
	switch LessonContentType(s) {
	case LessonContentText, LessonContentVideo, LessonContentPDF:
		return LessonContentType(s), true
	}
	return "", false
}

// Lesson 课时
type Lesson struct {
	ID          int64             `json:"id" db:"id"`
	CourseID    int64             `json:"course_id" db:"course_id"`
	Title       string            `json:"title" db:"title"`
	ContentType LessonContentType `json:"content_type" db:"content_type"`
	Content     string            `json:"content,omitempty" db:"content"`
	VideoURL    string            `json:"video_url,omitempty" db:"video_url"`
	PDFURL      string            `json:"pdf_url,omitempty" db:"pdf_url"`
	OrderIndex  int               `json:"order_index" db:"order_index"`
	CreatedAt   time.Time         `json:"created_at" db:"created_at"`
}
