// Package lesson 课时管理
package lesson

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

// LessonStore 课时存储接口
type LessonStore interface {
	CreateLesson(ctx context.Context, l *model.Lesson) error
	GetLesson(ctx context.Context, id int64) (*model.Lesson, error)
	ListLessonsByCourse(ctx context.Context, courseID int64) ([]*model.Lesson, error)
	UpdateLesson(ctx context.Context, l *model.Lesson) error
	DeleteLesson(ctx context.Context, id int64) error
	GetCourse(ctx context.Context, id int64) (*model.Course, error)
}

// Handler 课时 HTTP 处理器
type Handler struct {
	store LessonStore
}

// NewHandler 创建课时处理器
func NewHandler(store LessonStore) *Handler {
	return &Handler{store: store}
}

// RegisterRoutes 注册课时相关路由
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/courses/{id}/lessons", h.ListByCourse)
	mux.HandleFunc("POST /api/courses/{id}/lessons", auth.RequireTeacher(h.Create))
	mux.HandleFunc("PUT /api/lessons/{id}", auth.RequireTeacher(h.Update))
	mux.HandleFunc("DELETE /api/lessons/{id}", auth.RequireTeacher(h.Delete))
}

type lessonRequest struct {
	Title       string `json:"title"`
	ContentType string `json:"content_type"`
	Content     string `json:"content"`
	VideoURL    string `json:"video_url"`
	PDFURL      string `json:"pdf_url"`
	OrderIndex  int    `json:"order_index"`
}

// ListByCourse 课程课时列表，按 order_index 排序（公开）
func (h *Handler) ListByCourse(w http.ResponseWriter, r *http.Request) {
	courseID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid course id")
		return
	}
	course, err := h.store.GetCourse(r.Context(), courseID)
	if err != nil {
		log.Printf("[lesson] GetCourse error: %v", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if course == nil {
		writeError(w, http.StatusNotFound, "course not found")
		return
	}

	lessons, err := h.store.ListLessonsByCourse(r.Context(), courseID)
	if err != nil {
		log.Printf("[lesson] ListLessonsByCourse error: %v", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, lessons)
}

// Create 为课程添加课时（课程属主或管理员）
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	courseID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid course id")
		return
	}
	course, err := h.store.GetCourse(r.Context(), courseID)
	if err != nil {
		log.Printf("[lesson] GetCourse error: %v", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if course == nil {
		writeError(w, http.StatusNotFound, "course not found")
		return
	}
	p := auth.GetPrincipal(r.Context())
	if !p.CanModify(course.TeacherID) {
		writeError(w, http.StatusForbidden, "not the course owner")
		return
	}

	var req lessonRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Title == "" {
		writeError(w, http.StatusBadRequest, "title is required")
		return
	}
	contentType, ok := model.ParseLessonContentType(req.ContentType)
	if !ok {
		writeError(w, http.StatusBadRequest, "content_type must be one of: text, video, pdf")
		return
	}

	lesson := &model.Lesson{
		CourseID:    courseID,
		Title:       req.Title,
		ContentType: contentType,
		Content:     req.Content,
		VideoURL:    req.VideoURL,
		PDFURL:      req.PDFURL,
		OrderIndex:  req.OrderIndex,
		CreatedAt:   time.Now(),
	}
	if err := h.store.CreateLesson(r.Context(), lesson); err != nil {
		log.Printf("[lesson] CreateLesson error: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to create lesson")
		return
	}
	writeJSON(w, http.StatusCreated, lesson)
}

// Update 修改课时（课程属主或管理员）
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	lesson, ok := h.loadOwnedLesson(w, r)
	if !ok {
		return
	}

	var req lessonRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Title != "" {
		lesson.Title = req.Title
	}
	if req.ContentType != "" {
		contentType, ok := model.ParseLessonContentType(req.ContentType)
		if !ok {
			writeError(w, http.StatusBadRequest, "content_type must be one of: text, video, pdf")
			return
		}
		lesson.ContentType = contentType
	}
	if req.Content != "" {
		lesson.Content = req.Content
	}
	if req.VideoURL != "" {
		lesson.VideoURL = req.VideoURL
	}
	if req.PDFURL != "" {
		lesson.PDFURL = req.PDFURL
	}
	if req.OrderIndex > 0 {
		lesson.OrderIndex = req.OrderIndex
	}

	if err := h.store.UpdateLesson(r.Context(), lesson); err != nil {
		log.Printf("[lesson] UpdateLesson error: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to update lesson")
		return
	}
	writeJSON(w, http.StatusOK, lesson)
}

// Delete 删除课时（课程属主或管理员）
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	lesson, ok := h.loadOwnedLesson(w, r)
	if !ok {
		return
	}
	if err := h.store.DeleteLesson(r.Context(), lesson.ID); err != nil {
		log.Printf("[lesson] DeleteLesson error: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to delete lesson")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "lesson deleted"})
}

// loadOwnedLesson 加载课时并校验调用者对所属课程的修改权
func (h *Handler) loadOwnedLesson(w http.ResponseWriter, r *http.Request) (*model.Lesson, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid lesson id")
		return nil, false
	}
	lesson, err := h.store.GetLesson(r.Context(), id)
	if err != nil {
		log.Printf("[lesson] GetLesson error: %v", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return nil, false
	}
	if lesson == nil {
		writeError(w, http.StatusNotFound, "lesson not found")
		return nil, false
	}

	course, err := h.store.GetCourse(r.Context(), lesson.CourseID)
	if err != nil || course == nil {
		log.Printf("[lesson] GetCourse error: %v", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return nil, false
	}
	p := auth.GetPrincipal(r.Context())
	if !p.CanModify(course.TeacherID) {
		writeError(w, http.StatusForbidden, "not the course owner")
		return nil, false
	}
	return lesson, true
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
