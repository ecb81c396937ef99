package repository

import (
	"context"
	"database/sql"

	"course-seller/internal/model"
)

// CreateCategory 创建分类，回填自增 ID
func (s *Store) CreateCategory(ctx context.Context, c *model.Category) error {
	return s.db.QueryRowContext(ctx, s.rebind(
		`INSERT INTO categories (name, description) VALUES ($1, $2) RETURNING id`),
		c.Name, c.Description).Scan(&c.ID)
}

// GetCategory 通过 ID 查找分类，不存在返回 (nil, nil)
func (s *Store) GetCategory(ctx context.Context, id int64) (*model.Category, error) {
	c := &model.Category{}
	err := s.db.QueryRowContext(ctx, s.rebind(
		`SELECT id, name, description FROM categories WHERE id = $1`), id).
		Scan(&c.ID, &c.Name, &c.Description)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return c, err
}

// GetCategoryByName 通过名称查找分类，不存在返回 (nil, nil)
func (s *Store) GetCategoryByName(ctx context.Context, name string) (*model.Category, error) {
	c := &model.Category{}
	err := s.db.QueryRowContext(ctx, s.rebind(
		`SELECT id, name, description FROM categories WHERE name = $1`), name).
		Scan(&c.ID, &c.Name, &c.Description)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return c, err
}

// ListCategories 列出全部分类
func (s *Store) ListCategories(ctx context.Context) ([]*model.Category, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, description FROM categories ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var categories []*model.Category
	for rows.Next() {
		c := &model.Category{}
		if err := rows.Scan(&c.ID, &c.Name, &c.Description); err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

// DeleteCategory 删除分类
func (s *Store) DeleteCategory(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx, s.rebind(`DELETE FROM categories WHERE id = $1`), id)
	return err
}
