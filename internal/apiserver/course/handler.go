// Package course 课程管理：市场列表、教师建课、属主修改
package course

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"time"

	"course-seller/internal/apiserver/auth"
	"course-seller/internal/model"
)

// CourseStore 课程存储接口
type CourseStore interface {
	CreateCourse(ctx context.Context, c *model.Course) error
	GetCourse(ctx context.Context, id int64) (*model.Course, error)
	ListCourses(ctx context.Context, f model.CourseFilter) ([]*model.Course, error)
	ListCoursesByTeacher(ctx context.Context, teacherID int64) ([]*model.Course, error)
	UpdateCourse(ctx context.Context, c *model.Course) error
	DeleteCourse(ctx context.Context, id int64) error
	GetCategory(ctx context.Context, id int64) (*model.Category, error)
}

// Handler 课程 HTTP 处理器
type Handler struct {
	store CourseStore
}

// NewHandler 创建课程处理器
func NewHandler(store CourseStore) *Handler {
	return &Handler{store: store}
}

// RegisterRoutes 注册课程相关路由
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/courses", h.List)
	mux.HandleFunc("GET /api/courses/my", auth.RequireTeacher(h.ListMine))
	mux.HandleFunc("GET /api/courses/{id}", h.Get)
	mux.HandleFunc("POST /api/courses", auth.RequireTeacher(h.Create))
	mux.HandleFunc("PUT /api/courses/{id}", auth.RequireTeacher(h.Update))
	mux.HandleFunc("DELETE /api/courses/{id}", auth.RequireTeacher(h.Delete))
}

type courseRequest struct {
	Title        string  `json:"title"`
	Description  string  `json:"description"`
	Price        float64 `json:"price"`
	ThumbnailURL string  `json:"thumbnail_url"`
	CategoryID   *int64  `json:"category_id"`
	Status       string  `json:"status"`
}

// updateRequest 部分更新：缺省字段保持原值
type updateRequest struct {
	Title        *string  `json:"title"`
	Description  *string  `json:"description"`
	Price        *float64 `json:"price"`
	ThumbnailURL *string  `json:"thumbnail_url"`
	CategoryID   *int64   `json:"category_id"`
	Status       *string  `json:"status"`
}

// List 市场课程列表（公开，仅 published）
// 支持 search、category_id、min_price、max_price、sort_by 查询参数
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := model.CourseFilter{
		Search: q.Get("search"),
		SortBy: q.Get("sort_by"),
	}
	if v := q.Get("category_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid category_id")
			return
		}
		filter.CategoryID = id
	}
	if v := q.Get("min_price"); v != "" {
		p, err := strconv.ParseFloat(v, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid min_price")
			return
		}
		filter.MinPrice = &p
	}
	if v := q.Get("max_price"); v != "" {
		p, err := strconv.ParseFloat(v, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid max_price")
			return
		}
		filter.MaxPrice = &p
	}

	courses, err := h.store.ListCourses(r.Context(), filter)
	if err != nil {
		log.Printf("[course] ListCourses error: %v", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, courses)
}

// ListMine 当前教师的全部课程（含草稿）
func (h *Handler) ListMine(w http.ResponseWriter, r *http.Request) {
	p := auth.GetPrincipal(r.Context())
	courses, err := h.store.ListCoursesByTeacher(r.Context(), p.ID)
	if err != nil {
		log.Printf("[course] ListCoursesByTeacher error: %v", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, courses)
}

// Get 课程详情（公开）
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	course, ok := h.loadCourse(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, course)
}

// Create 创建课程，属主为当前调用者
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	p := auth.GetPrincipal(r.Context())

	var req courseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Title == "" {
		writeError(w, http.StatusBadRequest, "title is required")
		return
	}
	if req.Price < 0 {
		writeError(w, http.StatusBadRequest, "price must not be negative")
		return
	}
	if req.CategoryID != nil {
		cat, err := h.store.GetCategory(r.Context(), *req.CategoryID)
		if err != nil {
			log.Printf("[course] GetCategory error: %v", err)
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		if cat == nil {
			writeError(w, http.StatusBadRequest, "category not found")
			return
		}
	}

	course := &model.Course{
		Title:        req.Title,
		Description:  req.Description,
		Price:        req.Price,
		ThumbnailURL: req.ThumbnailURL,
		TeacherID:    p.ID,
		CategoryID:   req.CategoryID,
		Status:       model.CourseStatusDraft,
		CreatedAt:    time.Now(),
	}
	if req.Status != "" {
		status, ok := model.ParseCourseStatus(req.Status)
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid status")
			return
		}
		course.Status = status
	}

	if err := h.store.CreateCourse(r.Context(), course); err != nil {
		log.Printf("[course] CreateCourse error: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to create course")
		return
	}
	log.Printf("[course] Created course %d by teacher %d", course.ID, p.ID)
	writeJSON(w, http.StatusCreated, course)
}

// Update 修改课程（属主或管理员）
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	course, ok := h.loadCourse(w, r)
	if !ok {
		return
	}
	p := auth.GetPrincipal(r.Context())
	if !p.CanModify(course.TeacherID) {
		writeError(w, http.StatusForbidden, "not the course owner")
		return
	}

	var req updateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Title != nil {
		course.Title = *req.Title
	}
	if req.Description != nil {
		course.Description = *req.Description
	}
	if req.Price != nil {
		if *req.Price < 0 {
			writeError(w, http.StatusBadRequest, "price must not be negative")
			return
		}
		course.Price = *req.Price
	}
	if req.ThumbnailURL != nil {
		course.ThumbnailURL = *req.ThumbnailURL
	}
	if req.CategoryID != nil {
		course.CategoryID = req.CategoryID
	}
	if req.Status != nil {
		status, ok := model.ParseCourseStatus(*req.Status)
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid status")
			return
		}
		course.Status = status
	}

	if err := h.store.UpdateCourse(r.Context(), course); err != nil {
		log.Printf("[course] UpdateCourse error: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to update course")
		return
	}
	writeJSON(w, http.StatusOK, course)
}

// Delete 删除课程（属主或管理员）
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	course, ok := h.loadCourse(w, r)
	if !ok {
		return
	}
	p := auth.GetPrincipal(r.Context())
	if !p.CanModify(course.TeacherID) {
		writeError(w, http.StatusForbidden, "not the course owner")
		return
	}

	if err := h.store.DeleteCourse(r.Context(), course.ID); err != nil {
		log.Printf("[course] DeleteCourse error: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to delete course")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "course deleted"})
}

// loadCourse 按路径参数加载课程，失败时写响应并返回 false
func (h *Handler) loadCourse(w http.ResponseWriter, r *http.Request) (*model.Course, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid course id")
		return nil, false
	}
	course, err := h.store.GetCourse(r.Context(), id)
	if err != nil {
		log.Printf("[course] GetCourse error: %v", err)
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
