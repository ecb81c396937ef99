package repository

import (
	"context"
	"database/sql"

	"course-seller/internal/model"
)

// CreateReview 创建评价，回填自增 ID
func (s *Store) CreateReview(ctx context.Context, r *model.Review) error {
	return s.db.QueryRowContext(ctx, s.rebind(
		`INSERT INTO reviews (user_id, course_id, rating, comment, created_at)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id`),
		r.UserID, r.CourseID, r.Rating, r.Comment, r.CreatedAt,
	).Scan(&r.ID)
}

// GetReview 通过 ID 查找评价，不存在返回 (nil, nil)
func (s *Store) GetReview(ctx context.Context, id int64) (*model.Review, error) {
	return s.scanReview(s.db.QueryRowContext(ctx, s.rebind(
		`SELECT id, user_id, course_id, rating, comment, created_at
		 FROM reviews WHERE id = $1`), id))
}

// GetReviewByUserCourse 查找用户对某课程的评价，不存在返回 (nil, nil)
func (s *Store) GetReviewByUserCourse(ctx context.Context, userID, courseID int64) (*model.Review, error) {
	return s.scanReview(s.db.QueryRowContext(ctx, s.rebind(
		`SELECT id, user_id, course_id, rating, comment, created_at
		 FROM reviews WHERE user_id = $1 AND course_id = $2`), userID, courseID))
}

// ListReviewsByCourse 列出课程评价（新→旧）
func (s *Store) ListReviewsByCourse(ctx context.Context, courseID int64) ([]*model.Review, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(
		`SELECT id, user_id, course_id, rating, comment, created_at
		 FROM reviews WHERE course_id = $1 ORDER BY created_at DESC`), courseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reviews []*model.Review
	for rows.Next() {
		r := &model.Review{}
		if err := rows.Scan(&r.ID, &r.UserID, &r.CourseID, &r.Rating, &r.Comment, &r.CreatedAt); err != nil {
			return nil, err
		}
		reviews = append(reviews, r)
	}
	return reviews, rows.Err()
}

// DeleteReview 删除评价
func (s *Store) DeleteReview(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx, s.rebind(`DELETE FROM reviews WHERE id = $1`), id)
	return err
}

// AvgCourseRating 计算课程平均评分，无评价时返回 0
func (s *Store) AvgCourseRating(ctx context.Context, courseID int64) (float64, error) {
	var avg sql.NullFloat64
	err := s.db.QueryRowContext(ctx, s.rebind(
		`SELECT AVG(rating) FROM reviews WHERE course_id = $1`), courseID).Scan(&avg)
	if err != nil {
		return 0, err
	}
	return avg.Float64, nil
}

func (s *Store) scanReview(row *sql.Row) (*model.Review, error) {
	r := &model.Review{}
	err := row.Scan(&r.ID, &r.UserID, &r.CourseID, &r.Rating, &r.Comment, &r.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return r, err
}
