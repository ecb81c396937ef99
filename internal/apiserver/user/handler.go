// Package user 用户资料管理
package user

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strconv"

	"course-seller/internal/apiserver/auth"
	"course-seller/internal/model"
)

// UserStore 用户存储接口
type UserStore interface {
	GetUserByID(ctx context.Context, id int64) (*model.User, error)
	UpdateUserProfile(ctx context.Context, id int64, name, avatarURL, bio string) error
	SetUserActive(ctx context.Context, id int64, active bool) error
	ListUsers(ctx context.Context, role model.UserRole) ([]*model.User, error)
}

// Handler 用户 HTTP 处理器
type Handler struct {
	store UserStore
}

// NewHandler 创建用户处理器
func NewHandler(store UserStore) *Handler {
	return &Handler{store: store}
}

// RegisterRoutes 注册用户相关路由
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/users", auth.RequireAdmin(h.List))
	mux.HandleFunc("GET /api/users/{id}", auth.RequireAuth(h.Get))
	mux.HandleFunc("PATCH /api/users/{id}", auth.RequireAuth(h.Update))
	mux.HandleFunc("DELETE /api/users/{id}", auth.RequireAdmin(h.Deactivate))
}

// updateRequest 部分更新：缺省字段保持原值
type updateRequest struct {
	Name      *string `json:"name"`
	AvatarURL *string `json:"avatar_url"`
	Bio       *string `json:"bio"`
}

// List 用户列表（管理员），可按 role 过滤
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	var role model.UserRole
	if v := r.URL.Query().Get("role"); v != "" {
		parsed, ok := model.ParseRole(v)
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid role")
			return
		}
		role = parsed
	}

	users, err := h.store.ListUsers(r.Context(), role)
	if err != nil {
		log.Printf("[user] ListUsers error: %v", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, users)
}

// Get 查看用户资料（本人或管理员）
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	target, ok := h.loadTarget(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, target)
}

// Update 更新用户资料（本人或管理员）
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	target, ok := h.loadTarget(w, r)
	if !ok {
		return
	}

	var req updateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name != nil {
		target.Name = *req.Name
	}
	if req.AvatarURL != nil {
		target.AvatarURL = *req.AvatarURL
	}
	if req.Bio != nil {
		target.Bio = *req.Bio
	}

	if err := h.store.UpdateUserProfile(r.Context(), target.ID, target.Name, target.AvatarURL, target.Bio); err != nil {
		log.Printf("[user] UpdateUserProfile error: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to update profile")
		return
	}
	writeJSON(w, http.StatusOK, target)
}

// Deactivate 停用账号（管理员）
// 只停用不物理删除，保留选课与支付历史
func (h *Handler) Deactivate(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid user id")
		return
	}
	target, err := h.store.GetUserByID(r.Context(), id)
	if err != nil {
		log.Printf("[user] GetUserByID error: %v", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if target == nil {
		writeError(w, http.StatusNotFound, "user not found")
		return
	}

	if err := h.store.SetUserActive(r.Context(), id, false); err != nil {
		log.Printf("[user] SetUserActive error: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to deactivate user")
		return
	}
	log.Printf("[user] Deactivated user %d", id)
	writeJSON(w, http.StatusOK, map[string]string{"message": "user deactivated"})
}

// loadTarget 加载目标用户并校验访问权（本人或管理员）
func (h *Handler) loadTarget(w http.ResponseWriter, r *http.Request) (*model.User, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid user id")
		return nil, false
	}
	p := auth.GetPrincipal(r.Context())
	if !p.CanModify(id) {
		writeError(w, http.StatusForbidden, "access denied")
		return nil, false
	}

	target, err := h.store.GetUserByID(r.Context(), id)
	if err != nil {
		log.Printf("[user] GetUserByID error: %v", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return nil, false
	}
	if target == nil {
		writeError(w, http.StatusNotFound, "user not found")
		return nil, false
	}
	return target, true
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
