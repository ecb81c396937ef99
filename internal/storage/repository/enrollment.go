package repository

import (
	"context"
	"database/sql"

	"course-seller/internal/model"
)

// CreateEnrollment 创建选课记录，回填自增 ID
func (s *Store) CreateEnrollment(ctx context.Context, e *model.Enrollment) error {
	return s.db.QueryRowContext(ctx, s.rebind(
		`INSERT INTO enrollments (user_id, course_id, enrolled_at, completed)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id`),
		e.UserID, e.CourseID, e.EnrolledAt, e.Completed,
	).Scan(&e.ID)
}

// GetEnrollment 查找用户在某课程的选课记录，不存在返回 (nil, nil)
func (s *Store) GetEnrollment(ctx context.Context, userID, courseID int64) (*model.Enrollment, error) {
	return s.scanEnrollment(s.db.QueryRowContext(ctx, s.rebind(
		`SELECT id, user_id, course_id, enrolled_at, completed
		 FROM enrollments WHERE user_id = $1 AND course_id = $2`), userID, courseID))
}

// GetEnrollmentByID 通过 ID 查找选课记录，不存在返回 (nil, nil)
func (s *Store) GetEnrollmentByID(ctx context.Context, id int64) (*model.Enrollment, error) {
	return s.scanEnrollment(s.db.QueryRowContext(ctx, s.rebind(
		`SELECT id, user_id, course_id, enrolled_at, completed
		 FROM enrollments WHERE id = $1`), id))
}

// ListEnrollmentsByUser 列出用户的全部选课
func (s *Store) ListEnrollmentsByUser(ctx context.Context, userID int64) ([]*model.Enrollment, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(
		`SELECT id, user_id, course_id, enrolled_at, completed
		 FROM enrollments WHERE user_id = $1 ORDER BY enrolled_at DESC`), userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var enrollments []*model.Enrollment
	for rows.Next() {
		e := &model.Enrollment{}
		if err := rows.Scan(&e.ID, &e.UserID, &e.CourseID, &e.EnrolledAt, &e.Completed); err != nil {
			return nil, err
		}
		enrollments = append(enrollments, e)
	}
	return enrollments, rows.Err()
}

// SetEnrollmentCompleted 更新选课完成状态
func (s *Store) SetEnrollmentCompleted(ctx context.Context, id int64, completed bool) error {
	_, err := s.db.ExecContext(ctx, s.rebind(
		`UPDATE enrollments SET completed = $1 WHERE id = $2`), completed, id)
	return err
}

// CountEnrollments 统计选课总数
func (s *Store) CountEnrollments(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM enrollments`).Scan(&count)
	return count, err
}

// ============================================================================
// 课时进度
// ============================================================================

// GetProgress 查找某选课下某课时的进度，不存在返回 (nil, nil)
func (s *Store) GetProgress(ctx context.Context, enrollmentID, lessonID int64) (*model.Progress, error) {
	p := &model.Progress{}
	err := s.db.QueryRowContext(ctx, s.rebind(
		`SELECT id, enrollment_id, lesson_id, completed, completed_at
		 FROM progress WHERE enrollment_id = $1 AND lesson_id = $2`), enrollmentID, lessonID).
		Scan(&p.ID, &p.EnrollmentID, &p.LessonID, &p.Completed, &p.CompletedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return p, err
}

// CreateProgress 创建进度记录，回填自增 ID
func (s *Store) CreateProgress(ctx context.Context, p *model.Progress) error {
	return s.db.QueryRowContext(ctx, s.rebind(
		`INSERT INTO progress (enrollment_id, lesson_id, completed, completed_at)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id`),
		p.EnrollmentID, p.LessonID, p.Completed, p.CompletedAt,
	).Scan(&p.ID)
}

// UpdateProgress 更新进度记录
func (s *Store) UpdateProgress(ctx context.Context, p *model.Progress) error {
	_, err := s.db.ExecContext(ctx, s.rebind(
		`UPDATE progress SET completed = $1, completed_at = $2 WHERE id = $3`),
		p.Completed, p.CompletedAt, p.ID)
	return err
}

// ListProgressByEnrollment 列出选课的全部课时进度
func (s *Store) ListProgressByEnrollment(ctx context.Context, enrollmentID int64) ([]*model.Progress, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(
		`SELECT id, enrollment_id, lesson_id, completed, completed_at
		 FROM progress WHERE enrollment_id = $1`), enrollmentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []*model.Progress
	for rows.Next() {
		p := &model.Progress{}
		if err := rows.Scan(&p.ID, &p.EnrollmentID, &p.LessonID, &p.Completed, &p.CompletedAt); err != nil {
			return nil, err
		}
		list = append(list, p)
	}
	return list, rows.Err()
}

// CountCompletedProgress 统计选课下已完成的课时数
func (s *Store) CountCompletedProgress(ctx context.Context, enrollmentID int64) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, s.rebind(
		`SELECT COUNT(*) FROM progress WHERE enrollment_id = $1 AND completed = $2`),
		enrollmentID, true).Scan(&count)
	return count, err
}

func (s *Store) scanEnrollment(row *sql.Row) (*model.Enrollment, error) {
	e := &model.Enrollment{}
	err := row.Scan(&e.ID, &e.UserID, &e.CourseID, &e.EnrolledAt, &e.Completed)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return e, err
}
