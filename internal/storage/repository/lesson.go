package repository

import (
	"context"
	"database/sql"

	"course-seller/internal/model"
)

const lessonColumns = `id, course_id, title, content_type, content, video_url, pdf_url, order_index, created_at`

// CreateLesson 创建课时，回填自增 ID
func (s *Store) CreateLesson(ctx context.Context, l *model.Lesson) error {
	return s.db.QueryRowContext(ctx, s.rebind(
		`INSERT INTO lessons (course_id, title, content_type, content, video_url, pdf_url, order_index, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING id`),
		l.CourseID, l.Title, l.ContentType, l.Content, l.VideoURL, l.PDFURL, l.OrderIndex, l.CreatedAt,
	).Scan(&l.ID)
}

// GetLesson 通过 ID 查找课时，不存在返回 (nil, nil)
func (s *Store) GetLesson(ctx context.Context, id int64) (*model.Lesson, error) {
	l := &model.Lesson{}
	err := s.db.QueryRowContext(ctx, s.rebind(
		`SELECT `+lessonColumns+` FROM lessons WHERE id = $1`), id).
		Scan(&l.ID, &l.CourseID, &l.Title, &l.ContentType, &l.Content,
			&l.VideoURL, &l.PDFURL, &l.OrderIndex, &l.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return l, err
}

// ListLessonsByCourse 按顺序列出课程课时
func (s *Store) ListLessonsByCourse(ctx context.Context, courseID int64) ([]*model.Lesson, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(
		`SELECT `+lessonColumns+` FROM lessons WHERE course_id = $1 ORDER BY order_index`), courseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lessons []*model.Lesson
	for rows.Next() {
		l := &model.Lesson{}
		if err := rows.Scan(&l.ID, &l.CourseID, &l.Title, &l.ContentType, &l.Content,
			&l.VideoURL, &l.PDFURL, &l.OrderIndex, &l.CreatedAt); err != nil {
			return nil, err
		}
		lessons = append(lessons, l)
	}
	return lessons, rows.Err()
}

// UpdateLesson 更新课时字段
func (s *Store) UpdateLesson(ctx context.Context, l *model.Lesson) error {
	_, err := s.db.ExecContext(ctx, s.rebind(
		`UPDATE lessons SET title = $1, content_type = $2, content = $3,
			video_url = $4, pdf_url = $5, order_index = $6 WHERE id = $7`),
		l.Title, l.ContentType, l.Content, l.VideoURL, l.PDFURL, l.OrderIndex, l.ID)
	return err
}

// DeleteLesson 删除课时
func (s *Store) DeleteLesson(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx, s.rebind(`DELETE FROM lessons WHERE id = $1`), id)
	return err
}

// CountLessonsByCourse 统计课程课时数
func (s *Store) CountLessonsByCourse(ctx context.Context, courseID int64) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, s.rebind(
		`SELECT COUNT(*) FROM lessons WHERE course_id = $1`), courseID).Scan(&count)
	return count, err
}
