package repository

import (
	"context"
	"database/sql"

	"course-seller/internal/model"
)

// CreateUser 创建用户，回填自增 ID
func (s *Store) CreateUser(ctx context.Context, user *model.User) error {
	return s.db.QueryRowContext(ctx, s.rebind(
		`INSERT INTO users (email, password_hash, name, role, avatar_url, bio, is_active, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING id`),
		user.Email, user.PasswordHash, user.Name, user.Role,
		user.AvatarURL, user.Bio, user.IsActive, user.CreatedAt,
	).Scan(&user.ID)
}

// GetUserByEmail 通过邮箱查找用户，不存在返回 (nil, nil)
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	return s.scanUser(s.db.QueryRowContext(ctx, s.rebind(
		`SELECT id, email, password_hash, name, role, avatar_url, bio, is_active, created_at
		 FROM users WHERE email = $1`), email))
}

// GetUserByID 通过 ID 查找用户，不存在返回 (nil, nil)
func (s *Store) GetUserByID(ctx context.Context, id int64) (*model.User, error) {
	return s.scanUser(s.db.QueryRowContext(ctx, s.rebind(
		`SELECT id, email, password_hash, name, role, avatar_url, bio, is_active, created_at
		 FROM users WHERE id = $1`), id))
}

// UpdateUserProfile 更新用户资料（姓名、头像、简介）
func (s *Store) UpdateUserProfile(ctx context.Context, id int64, name, avatarURL, bio string) error {
	_, err := s.db.ExecContext(ctx, s.rebind(
		`UPDATE users SET name = $1, avatar_url = $2, bio = $3 WHERE id = $4`),
		name, avatarURL, bio, id)
	return err
}

// UpdateUserRole 更新用户角色
func (s *Store) UpdateUserRole(ctx context.Context, id int64, role model.UserRole) error {
	_, err := s.db.ExecContext(ctx, s.rebind(
		`UPDATE users SET role = $1 WHERE id = $2`), role, id)
	return err
}

// SetUserActive 启用/停用用户（停用是唯一的"删除"方式）
func (s *Store) SetUserActive(ctx context.Context, id int64, active bool) error {
	_, err := s.db.ExecContext(ctx, s.rebind(
		`UPDATE users SET is_active = $1 WHERE id = $2`), active, id)
	return err
}

// ListUsers 列出用户，role 为空时不过滤
func (s *Store) ListUsers(ctx context.Context, role model.UserRole) ([]*model.User, error) {
	query := `SELECT id, email, password_hash, name, role, avatar_url, bio, is_active, created_at
		 FROM users`
	var args []interface{}
	if role != "" {
		query += ` WHERE role = $1`
		args = append(args, role)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := s.db.QueryContext(ctx, s.rebind(query), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []*model.User
	for rows.Next() {
		u := &model.User{}
		if err := rows.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Name, &u.Role,
			&u.AvatarURL, &u.Bio, &u.IsActive, &u.CreatedAt); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// CountUsers 统计用户数，role 为空时统计全部
func (s *Store) CountUsers(ctx context.Context, role model.UserRole) (int, error) {
	var count int
	var err error
	if role == "" {
		err = s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&count)
	} else {
		err = s.db.QueryRowContext(ctx, s.rebind(
			`SELECT COUNT(*) FROM users WHERE role = $1`), role).Scan(&count)
	}
	return count, err
}

func (s *Store) scanUser(row *sql.Row) (*model.User, error) {
	u := &model.User{}
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Name, &u.Role,
		&u.AvatarURL, &u.Bio, &u.IsActive, &u.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return u, err
}
