package auth

import (
	"context"
	"errors"

	"course-seller/internal/model"
)

// 访问控制哨兵错误，由各路由处理器映射为 401 / 403
var (
	ErrUnauthenticated = errors.New("not authenticated")
	ErrForbidden       = errors.New("insufficient permissions")
)

// RequirePrincipal 返回 context 中的认证主体，匿名时返回 ErrUnauthenticated
func RequirePrincipal(ctx context.Context) (*Principal, error) {
	p := GetPrincipal(ctx)
	if p == nil {
		return nil, ErrUnauthenticated
	}
	return p, nil
}

// RequireRole 校验主体具备指定角色之一
func RequireRole(ctx context.Context, roles ...model.UserRole) (*Principal, error) {
	p, err := RequirePrincipal(ctx)
	if err != nil {
		return nil, err
	}
	for _, role := range roles {
		if p.Role == role {
			return p, nil
		}
	}
	return nil, ErrForbidden
}

// CanModify 所有权检查：资源属主本人或管理员
func (p *Principal) CanModify(ownerID int64) bool {
	if p == nil {
		return false
	}
	return p.ID == ownerID || p.Role == model.RoleAdmin
}
