// Package admin 平台管理：全局统计、用户与课程治理
package admin

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strconv"

	"course-seller/internal/apiserver/auth"
	"course-seller/internal/model"
)

// AdminStore 管理后台存储接口
type AdminStore interface {
	GetUserByID(ctx context.Context, id int64) (*model.User, error)
	ListUsers(ctx context.Context, role model.UserRole) ([]*model.User, error)
	CountUsers(ctx context.Context, role model.UserRole) (int, error)
	UpdateUserRole(ctx context.Context, id int64, role model.UserRole) error
	SetUserActive(ctx context.Context, id int64, active bool) error
	GetCourse(ctx context.Context, id int64) (*model.Course, error)
	UpdateCourseStatus(ctx context.Context, id int64, status model.CourseStatus) error
	DeleteCourse(ctx context.Context, id int64) error
	CountCourses(ctx context.Context) (int, error)
	CountEnrollments(ctx context.Context) (int, error)
	SumCompletedPayments(ctx context.Context) (float64, error)
}

// Handler 管理后台 HTTP 处理器
type Handler struct {
	store AdminStore
}

// NewHandler 创建管理后台处理器
func NewHandler(store AdminStore) *Handler {
	return &Handler{store: store}
}

// RegisterRoutes 注册管理后台路由（全部管理员专属）
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/admin/stats", auth.RequireAdmin(h.Stats))
	mux.HandleFunc("GET /api/admin/users", auth.RequireAdmin(h.ListUsers))
	mux.HandleFunc("PATCH /api/admin/users/{id}/toggle-active", auth.RequireAdmin(h.ToggleActive))
	mux.HandleFunc("PATCH /api/admin/users/{id}/role", auth.RequireAdmin(h.ChangeRole))
	mux.HandleFunc("PATCH /api/admin/courses/{id}/approve", auth.RequireAdmin(h.ApproveCourse))
	mux.HandleFunc("PATCH /api/admin/courses/{id}/reject", auth.RequireAdmin(h.RejectCourse))
	mux.HandleFunc("DELETE /api/admin/courses/{id}", auth.RequireAdmin(h.DeleteCourse))
}

type statsResponse struct {
	TotalUsers       int     `json:"total_users"`
	TotalStudents    int     `json:"total_students"`
	TotalTeachers    int     `json:"total_teachers"`
	TotalCourses     int     `json:"total_courses"`
	TotalEnrollments int     `json:"total_enrollments"`
	TotalRevenue     float64 `json:"total_revenue"`
}

// Stats 平台全局统计
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var stats statsResponse
	var err error

	if stats.TotalUsers, err = h.store.CountUsers(ctx, ""); err != nil {
		h.statsError(w, "CountUsers", err)
		return
	}
	if stats.TotalStudents, err = h.store.CountUsers(ctx, model.RoleStudent); err != nil {
		h.statsError(w, "CountUsers(student)", err)
		return
	}
	if stats.TotalTeachers, err = h.store.CountUsers(ctx, model.RoleTeacher); err != nil {
		h.statsError(w, "CountUsers(teacher)", err)
		return
	}
	if stats.TotalCourses, err = h.store.CountCourses(ctx); err != nil {
		h.statsError(w, "CountCourses", err)
		return
	}
	if stats.TotalEnrollments, err = h.store.CountEnrollments(ctx); err != nil {
		h.statsError(w, "CountEnrollments", err)
		return
	}
	if stats.TotalRevenue, err = h.store.SumCompletedPayments(ctx); err != nil {
		h.statsError(w, "SumCompletedPayments", err)
		return
	}

	writeJSON(w, http.StatusOK, stats)
}

func (h *Handler) statsError(w http.ResponseWriter, op string, err error) {
	log.Printf("[admin] %s error: %v", op, err)
	writeError(w, http.StatusInternalServerError, "internal error")
}

// ListUsers 用户列表，可按 role 过滤
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
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
		log.Printf("[admin] ListUsers error: %v", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, users)
}

// ToggleActive 切换账号启用状态
// 管理员不能停用自己，避免把最后一个管理员锁在门外
func (h *Handler) ToggleActive(w http.ResponseWriter, r *http.Request) {
	target, ok := h.loadUser(w, r)
	if !ok {
		return
	}
	p := auth.GetPrincipal(r.Context())
	if p.ID == target.ID {
		writeError(w, http.StatusBadRequest, "cannot deactivate yourself")
		return
	}

	if err := h.store.SetUserActive(r.Context(), target.ID, !target.IsActive); err != nil {
		log.Printf("[admin] SetUserActive error: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to update user")
		return
	}
	target.IsActive = !target.IsActive
	log.Printf("[admin] User %d active=%v", target.ID, target.IsActive)
	writeJSON(w, http.StatusOK, target)
}

type changeRoleRequest struct {
	Role string `json:"role"`
}

// ChangeRole 修改用户角色
func (h *Handler) ChangeRole(w http.ResponseWriter, r *http.Request) {
	target, ok := h.loadUser(w, r)
	if !ok {
		return
	}

	var req changeRoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	role, valid := model.ParseRole(req.Role)
	if !valid {
		writeError(w, http.StatusBadRequest, "role must be one of: student, teacher, admin")
		return
	}

	if err := h.store.UpdateUserRole(r.Context(), target.ID, role); err != nil {
		log.Printf("[admin] UpdateUserRole error: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to update role")
		return
	}
	target.Role = role
	log.Printf("[admin] User %d role changed to %s", target.ID, role)
	writeJSON(w, http.StatusOK, target)
}

// ApproveCourse 审核通过：课程发布
func (h *Handler) ApproveCourse(w http.ResponseWriter, r *http.Request) {
	h.setCourseStatus(w, r, model.CourseStatusPublished)
}

// RejectCourse 审核驳回：课程退回草稿
func (h *Handler) RejectCourse(w http.ResponseWriter, r *http.Request) {
	h.setCourseStatus(w, r, model.CourseStatusDraft)
}

func (h *Handler) setCourseStatus(w http.ResponseWriter, r *http.Request, status model.CourseStatus) {
	course, ok := h.loadCourse(w, r)
	if !ok {
		return
	}
	if err := h.store.UpdateCourseStatus(r.Context(), course.ID, status); err != nil {
		log.Printf("[admin] UpdateCourseStatus error: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to update course")
		return
	}
	course.Status = status
	log.Printf("[admin] Course %d status -> %s", course.ID, status)
	writeJSON(w, http.StatusOK, course)
}

// DeleteCourse 删除课程
func (h *Handler) DeleteCourse(w http.ResponseWriter, r *http.Request) {
	course, ok := h.loadCourse(w, r)
	if !ok {
		return
	}
	if err := h.store.DeleteCourse(r.Context(), course.ID); err != nil {
		log.Printf("[admin] DeleteCourse error: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to delete course")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "course deleted"})
}

func (h *Handler) loadUser(w http.ResponseWriter, r *http.Request) (*model.User, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid user id")
		return nil, false
	}
	user, err := h.store.GetUserByID(r.Context(), id)
	if err != nil {
		log.Printf("[admin] GetUserByID error: %v", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return nil, false
	}
	if user == nil {
		writeError(w, http.StatusNotFound, "user not found")
		return nil, false
	}
	return user, true
}

func (h *Handler) loadCourse(w http.ResponseWriter, r *http.Request) (*model.Course, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid course id")
		return nil, false
	}
	course, err := h.store.GetCourse(r.Context(), id)
	if err != nil {
		log.Printf("[admin] GetCourse error: %v", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return nil, false
	}
	if course == nil {
		writeError(w, http.StatusNotFound, "course not found")
		return nil, false
	}
	return course, true
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
