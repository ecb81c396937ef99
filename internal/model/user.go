// Package model 定义课程交易平台的核心数据模型
package model

import "time"

// UserRole 用户角色（封闭枚举，边界处一次性校验）
type UserRole string

const (
	RoleStudent UserRole = "student"
	RoleTeacher UserRole = "teacher"
	RoleAdmin   UserRole = "admin"
)

// ParseRole 解析角色字符串，未知角色返回 false
func ParseRole(s string) (UserRole, bool) {
	switch UserRole(s) {
	case RoleStudent, RoleTeacher, RoleAdmin:
		return UserRole(s), true
	}
	return "", false
}

// User 用户
// 账号从不物理删除，只通过 IsActive 停用
type User struct {
	ID           int64     `json:"id" db:"id"`
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-" db:"password_hash"` // never expose in JSON
	Name         string    `json:"name" db:"name"`
	Role         UserRole  `json:"role" db:"role"`
	AvatarURL    string    `json:"avatar_url,omitempty" db:"avatar_url"`
	Bio          string    `json:"bio,omitempty" db:"bio"`
	IsActive     bool      `json:"is_active" db:"is_active"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}
