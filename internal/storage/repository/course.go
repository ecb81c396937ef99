package repository

import (
	"context"
	"database/sql"
	"fmt"

	"course-seller/internal/model"
)

const courseColumns = `id, title, description, price, thumbnail_url, teacher_id,
	category_id, status, avg_rating, total_students, created_at`

// CreateCourse 创建课程，回填自增 ID
func (s *Store) CreateCourse(ctx context.Context, c *model.Course) error {
	return s.db.QueryRowContext(ctx, s.rebind(
		`INSERT INTO courses (title, description, price, thumbnail_url, teacher_id,
			category_id, status, avg_rating, total_students, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 RETURNING id`),
		c.Title, c.Description, c.Price, c.ThumbnailURL, c.TeacherID,
		c.CategoryID, c.Status, c.AvgRating, c.TotalStudents, c.CreatedAt,
	).Scan(&c.ID)
}

// GetCourse 通过 ID 查找课程，不存在返回 (nil, nil)
func (s *Store) GetCourse(ctx context.Context, id int64) (*model.Course, error) {
	return s.scanCourse(s.db.QueryRowContext(ctx, s.rebind(
		`SELECT `+courseColumns+` FROM courses WHERE id = $1`), id))
}

// ListCourses 列出已发布课程，支持搜索/分类/价格区间过滤与排序
func (s *Store) ListCourses(ctx context.Context, f model.CourseFilter) ([]*model.Course, error) {
	query := `SELECT ` + courseColumns + ` FROM courses WHERE status = $1`
	args := []interface{}{model.CourseStatusPublished}
	n := 1

	if f.Search != "" {
		n++
		query += fmt.Sprintf(" AND title %s $%d", s.dialect.ILike(), n)
		args = append(args, "%"+f.Search+"%")
	}
	if f.CategoryID != 0 {
		n++
		query += fmt.Sprintf(" AND category_id = $%d", n)
		args = append(args, f.CategoryID)
	}
	if f.MinPrice != nil {
		n++
		query += fmt.Sprintf(" AND price >= $%d", n)
		args = append(args, *f.MinPrice)
	}
	if f.MaxPrice != nil {
		n++
		query += fmt.Sprintf(" AND price <= $%d", n)
		args = append(args, *f.MaxPrice)
	}

	switch f.SortBy {
	case "price":
		query += " ORDER BY price ASC"
	case "rating":
		query += " ORDER BY avg_rating DESC"
	case "students":
		query += " ORDER BY total_students DESC"
	default:
		query += " ORDER BY created_at DESC"
	}

	rows, err := s.db.QueryContext(ctx, s.rebind(query), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return s.collectCourses(rows)
}

// ListCoursesByTeacher 列出某讲师的全部课程（含未发布）
func (s *Store) ListCoursesByTeacher(ctx context.Context, teacherID int64) ([]*model.Course, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(
		`SELECT `+courseColumns+` FROM courses WHERE teacher_id = $1 ORDER BY created_at DESC`), teacherID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return s.collectCourses(rows)
}

// UpdateCourse 更新课程字段
func (s *Store) UpdateCourse(ctx context.Context, c *model.Course) error {
	_, err := s.db.ExecContext(ctx, s.rebind(
		`UPDATE courses SET title = $1, description = $2, price = $3, thumbnail_url = $4,
			category_id = $5, status = $6 WHERE id = $7`),
		c.Title, c.Description, c.Price, c.ThumbnailURL, c.CategoryID, c.Status, c.ID)
	return err
}

// UpdateCourseStatus 更新课程状态（审核通过/驳回）
func (s *Store) UpdateCourseStatus(ctx context.Context, id int64, status model.CourseStatus) error {
	_, err := s.db.ExecContext(ctx, s.rebind(
		`UPDATE courses SET status = $1 WHERE id = $2`), status, id)
	return err
}

// IncrementCourseStudents 学员数 +1（选课成功时调用）
func (s *Store) IncrementCourseStudents(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx, s.rebind(
		`UPDATE courses SET total_students = total_students + 1 WHERE id = $1`), id)
	return err
}

// UpdateCourseRating 回写课程平均评分
func (s *Store) UpdateCourseRating(ctx context.Context, id int64, avg float64) error {
	_, err := s.db.ExecContext(ctx, s.rebind(
		`UPDATE courses SET avg_rating = $1 WHERE id = $2`), avg, id)
	return err
}

// DeleteCourse 删除课程（课时/选课/评价由外键级联删除）
func (s *Store) DeleteCourse(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx, s.rebind(`DELETE FROM courses WHERE id = $1`), id)
	return err
}

// CountCourses 统计课程总数
func (s *Store) CountCourses(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM courses`).Scan(&count)
	return count, err
}

func (s *Store) scanCourse(row *sql.Row) (*model.Course, error) {
	c := &model.Course{}
	err := row.Scan(&c.ID, &c.Title, &c.Description, &c.Price, &c.ThumbnailURL,
		&c.TeacherID, &c.CategoryID, &c.Status, &c.AvgRating, &c.TotalStudents, &c.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return c, err
}

func (s *Store) collectCourses(rows *sql.Rows) ([]*model.Course, error) {
	var courses []*model.Course
	for rows.Next() {
		c := &model.Course{}
		if err := rows.Scan(&c.ID, &c.Title, &c.Description, &c.Price, &c.ThumbnailURL,
			&c.TeacherID, &c.CategoryID, &c.Status, &c.AvgRating, &c.TotalStudents, &c.CreatedAt); err != nil {
			return nil, err
		}
		courses = append(courses, c)
	}
	return courses, rows.Err()
}
