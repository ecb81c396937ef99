package auth

import (
	"net/http"
	"strings"

	"course-seller/internal/model"
)

// Middleware 创建认证中间件
// 从 Authorization: Bearer 头解析令牌并从数据库加载主体。
// 令牌缺失、无效、用户不存在或已停用时请求以匿名身份继续，
// 由各路由的 Require* 守卫决定是否拒绝
func Middleware(cfg Config, store UserStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				next.ServeHTTP(w, r)
				return
			}
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				next.ServeHTTP(w, r)
				return
			}

			userID, err := VerifyToken(cfg, parts[1])
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}

			// 角色与停用状态以数据库当前值为准：停用账号即使
			// 持有未过期令牌也立即失效
			user, err := store.GetUserByID(r.Context(), userID)
			if err != nil || user == nil || !user.IsActive {
				next.ServeHTTP(w, r)
				return
			}

			p := &Principal{ID: user.ID, Email: user.Email, Role: user.Role}
			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), p)))
		})
	}
}

// RequireAuth 要求请求已认证
func RequireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if GetPrincipal(r.Context()) == nil {
			writeError(w, http.StatusUnauthorized, "not authenticated")
			return
		}
		next(w, r)
	}
}

// RequireRoles 要求请求主体具备指定角色之一
// 未认证返回 401，已认证但角色不符返回 403
func RequireRoles(next http.HandlerFunc, roles ...model.UserRole) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p := GetPrincipal(r.Context())
		if p == nil {
			writeError(w, http.StatusUnauthorized, "not authenticated")
			return
		}
		for _, role := range roles {
			if p.Role == role {
				next(w, r)
				return
			}
		}
		writeError(w, http.StatusForbidden, "insufficient permissions")
	}
}

// RequireAdmin 管理员专属路由守卫
func RequireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return RequireRoles(next, model.RoleAdmin)
}

// RequireTeacher 教师或管理员路由守卫
func RequireTeacher(next http.HandlerFunc) http.HandlerFunc {
	return RequireRoles(next, model.RoleTeacher, model.RoleAdmin)
}
