// Package enrollment 选课与学习进度
package enrollment

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

// EnrollmentStore 选课存储接口
type EnrollmentStore interface {
	CreateEnrollment(ctx context.Context, e *model.Enrollment) error
	GetEnrollment(ctx context.Context, userID, courseID int64) (*model.Enrollment, error)
	GetEnrollmentByID(ctx context.Context, id int64) (*model.Enrollment, error)
	ListEnrollmentsByUser(ctx context.Context, userID int64) ([]*model.Enrollment, error)
	SetEnrollmentCompleted(ctx context.Context, id int64, completed bool) error
	GetProgress(ctx context.Context, enrollmentID, lessonID int64) (*model.Progress, error)
	CreateProgress(ctx context.Context, p *model.Progress) error
	UpdateProgress(ctx context.Context, p *model.Progress) error
	ListProgressByEnrollment(ctx context.Context, enrollmentID int64) ([]*model.Progress, error)
	CountCompletedProgress(ctx context.Context, enrollmentID int64) (int, error)
	GetCourse(ctx context.Context, id int64) (*model.Course, error)
	GetLesson(ctx context.Context, id int64) (*model.Lesson, error)
	CountLessonsByCourse(ctx context.Context, courseID int64) (int, error)
	IncrementCourseStudents(ctx context.Context, id int64) error
}

// Handler 选课 HTTP 处理器
type Handler struct {
	store EnrollmentStore
}

// NewHandler 创建选课处理器
func NewHandler(store EnrollmentStore) *Handler {
	return &Handler{store: store}
}

// RegisterRoutes 注册选课相关路由
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/enrollments", auth.RequireAuth(h.Enroll))
	mux.HandleFunc("GET /api/enrollments/my", auth.RequireAuth(h.ListMine))
	mux.HandleFunc("PATCH /api/enrollments/progress", auth.RequireAuth(h.UpdateProgress))
	mux.HandleFunc("GET /api/enrollments/{id}/progress", auth.RequireAuth(h.GetProgress))
}

type enrollRequest struct {
	CourseID int64 `json:"course_id"`
}

type progressRequest struct {
	CourseID  int64 `json:"course_id"`
	LessonID  int64 `json:"lesson_id"`
	Completed bool  `json:"completed"`
}

// Enroll 选课：课程必须已发布，不可重复选
func (h *Handler) Enroll(w http.ResponseWriter, r *http.Request) {
	p := auth.GetPrincipal(r.Context())

	var req enrollRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	course, err := h.store.GetCourse(r.Context(), req.CourseID)
	if err != nil {
		log.Printf("[enrollment] GetCourse error: %v", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if course == nil {
		writeError(w, http.StatusNotFound, "course not found")
		return
	}
	if course.Status != model.CourseStatusPublished {
		writeError(w, http.StatusBadRequest, "course is not published")
		return
	}

	existing, err := h.store.GetEnrollment(r.Context(), p.ID, course.ID)
	if err != nil {
		log.Printf("[enrollment] GetEnrollment error: %v", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if existing != nil {
		writeError(w, http.StatusConflict, "already enrolled")
		return
	}

	e := &model.Enrollment{UserID: p.ID, CourseID: course.ID, EnrolledAt: time.Now()}
	if err := h.store.CreateEnrollment(r.Context(), e); err != nil {
		log.Printf("[enrollment] CreateEnrollment error: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to enroll")
		return
	}
	if err := h.store.IncrementCourseStudents(r.Context(), course.ID); err != nil {
		log.Printf("[enrollment] IncrementCourseStudents error: %v", err)
	}

	log.Printf("[enrollment] User %d enrolled in course %d", p.ID, course.ID)
	writeJSON(w, http.StatusCreated, e)
}

// ListMine 当前用户的全部选课
func (h *Handler) ListMine(w http.ResponseWriter, r *http.Request) {
	p := auth.GetPrincipal(r.Context())
	enrollments, err := h.store.ListEnrollmentsByUser(r.Context(), p.ID)
	if err != nil {
		log.Printf("[enrollment] ListEnrollmentsByUser error: %v", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, enrollments)
}

// UpdateProgress 标记课时完成状态
// 全部课时完成时整个选课标记为已完成
func (h *Handler) UpdateProgress(w http.ResponseWriter, r *http.Request) {
	p := auth.GetPrincipal(r.Context())

	var req progressRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	enrollment, err := h.store.GetEnrollment(r.Context(), p.ID, req.CourseID)
	if err != nil {
		log.Printf("[enrollment] GetEnrollment error: %v", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if enrollment == nil {
		writeError(w, http.StatusForbidden, "not enrolled in this course")
		return
	}

	lesson, err := h.store.GetLesson(r.Context(), req.LessonID)
	if err != nil {
		log.Printf("[enrollment] GetLesson error: %v", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if lesson == nil || lesson.CourseID != req.CourseID {
		writeError(w, http.StatusNotFound, "lesson not found in this course")
		return
	}

	progress, err := h.store.GetProgress(r.Context(), enrollment.ID, lesson.ID)
	if err != nil {
		log.Printf("[enrollment] GetProgress error: %v", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	var completedAt *time.Time
	if req.Completed {
		now := time.Now()
		completedAt = &now
	}
	if progress == nil {
		progress = &model.Progress{
			EnrollmentID: enrollment.ID,
			LessonID:     lesson.ID,
			Completed:    req.Completed,
			CompletedAt:  completedAt,
		}
		err = h.store.CreateProgress(r.Context(), progress)
	} else {
		progress.Completed = req.Completed
		progress.CompletedAt = completedAt
		err = h.store.UpdateProgress(r.Context(), progress)
	}
	if err != nil {
		log.Printf("[enrollment] save progress error: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to update progress")
		return
	}

	// 全部课时完成 ⇒ 选课完成；有课时回退 ⇒ 选课恢复未完成
	total, err := h.store.CountLessonsByCourse(r.Context(), req.CourseID)
	if err != nil {
		log.Printf("[enrollment] CountLessonsByCourse error: %v", err)
		writeJSON(w, http.StatusOK, progress)
		return
	}
	done, err := h.store.CountCompletedProgress(r.Context(), enrollment.ID)
	if err != nil {
		log.Printf("[enrollment] CountCompletedProgress error: %v", err)
		writeJSON(w, http.StatusOK, progress)
		return
	}
	allDone := total > 0 && done >= total
	if allDone != enrollment.Completed {
		if err := h.store.SetEnrollmentCompleted(r.Context(), enrollment.ID, allDone); err != nil {
			log.Printf("[enrollment] SetEnrollmentCompleted error: %v", err)
		}
	}

	writeJSON(w, http.StatusOK, progress)
}

// GetProgress 查看某次选课的全部进度（本人或管理员）
func (h *Handler) GetProgress(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid enrollment id")
		return
	}

	enrollment, err := h.store.GetEnrollmentByID(r.Context(), id)
	if err != nil {
		log.Printf("[enrollment] GetEnrollmentByID error: %v", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if enrollment == nil {
		writeError(w, http.StatusNotFound, "enrollment not found")
		return
	}
	p := auth.GetPrincipal(r.Context())
	if !p.CanModify(enrollment.UserID) {
		writeError(w, http.StatusForbidden, "not your enrollment")
		return
	}

	progress, err := h.store.ListProgressByEnrollment(r.Context(), enrollment.ID)
	if err != nil {
		log.Printf("[enrollment] ListProgressByEnrollment error: %v", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, progress)
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
