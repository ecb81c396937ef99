package repository

import (
	"context"
	"database/sql"

	"course-seller/internal/model"
)

// CreateCertificate 创建证书，回填自增 ID
func (s *Store) CreateCertificate(ctx context.Context, c *model.Certificate) error {
	return s.db.QueryRowContext(ctx, s.rebind(
		`INSERT INTO certificates (user_id, course_id, certificate_url, issued_at)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id`),
		c.UserID, c.CourseID, c.CertificateURL, c.IssuedAt,
	).Scan(&c.ID)
}

// GetCertificate 查找用户某课程的证书，不存在返回 (nil, nil)
func (s *Store) GetCertificate(ctx context.Context, userID, courseID int64) (*model.Certificate, error) {
	c := &model.Certificate{}
	err := s.db.QueryRowContext(ctx, s.rebind(
		`SELECT id, user_id, course_id, certificate_url, issued_at
		 FROM certificates WHERE user_id = $1 AND course_id = $2`), userID, courseID).
		Scan(&c.ID, &c.UserID, &c.CourseID, &c.CertificateURL, &c.IssuedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return c, err
}

// ListCertificatesByUser 列出用户的全部证书
func (s *Store) ListCertificatesByUser(ctx context.Context, userID int64) ([]*model.Certificate, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(
		`SELECT id, user_id, course_id, certificate_url, issued_at
		 FROM certificates WHERE user_id = $1 ORDER BY issued_at DESC`), userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var certs []*model.Certificate
	for rows.Next() {
		c := &model.Certificate{}
		if err := rows.Scan(&c.ID, &c.UserID, &c.CourseID, &c.CertificateURL, &c.IssuedAt); err != nil {
			return nil, err
		}
		certs = append(certs, c)
	}
	return certs, rows.Err()
}
