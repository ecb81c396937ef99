package repository

import (
	"context"
	"database/sql"

	"course-seller/internal/model"
)

// CreatePayment 创建支付记录，回填自增 ID
func (s *Store) CreatePayment(ctx context.Context, p *model.Payment) error {
	return s.db.QueryRowContext(ctx, s.rebind(
		`INSERT INTO payments (user_id, course_id, amount, status, transaction_id, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id`),
		p.UserID, p.CourseID, p.Amount, p.Status, p.TransactionID, p.CreatedAt,
	).Scan(&p.ID)
}

// GetCompletedPayment 查找用户对某课程的已完成支付，不存在返回 (nil, nil)
func (s *Store) GetCompletedPayment(ctx context.Context, userID, courseID int64) (*model.Payment, error) {
	p := &model.Payment{}
	err := s.db.QueryRowContext(ctx, s.rebind(
		`SELECT id, user_id, course_id, amount, status, transaction_id, created_at
		 FROM payments WHERE user_id = $1 AND course_id = $2 AND status = $3`),
		userID, courseID, model.PaymentStatusCompleted).
		Scan(&p.ID, &p.UserID, &p.CourseID, &p.Amount, &p.Status, &p.TransactionID, &p.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return p, err
}

// ListPaymentsByUser 列出用户的全部支付记录（新→旧）
func (s *Store) ListPaymentsByUser(ctx context.Context, userID int64) ([]*model.Payment, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(
		`SELECT id, user_id, course_id, amount, status, transaction_id, created_at
		 FROM payments WHERE user_id = $1 ORDER BY created_at DESC`), userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var payments []*model.Payment
	for rows.Next() {
		p := &model.Payment{}
		if err := rows.Scan(&p.ID, &p.UserID, &p.CourseID, &p.Amount, &p.Status,
			&p.TransactionID, &p.CreatedAt); err != nil {
			return nil, err
		}
		payments = append(payments, p)
	}
	return payments, rows.Err()
}

// SumCompletedPayments 合计已完成支付金额（平台总收入）
func (s *Store) SumCompletedPayments(ctx context.Context) (float64, error) {
	var total sql.NullFloat64
	err := s.db.QueryRowContext(ctx, s.rebind(
		`SELECT SUM(amount) FROM payments WHERE status = $1`),
		model.PaymentStatusCompleted).Scan(&total)
	if err != nil {
		return 0, err
	}
	return total.Float64, nil
}
