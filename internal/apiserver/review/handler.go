// Package review 课程评价
package review

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

// ReviewStore 评价存储接口
type ReviewStore interface {
	CreateReview(ctx context.Context, r *model.Review) error
	GetReview(ctx context.Context, id int64) (*model.Review, error)
	GetReviewByUserCourse(ctx context.Context, userID, courseID int64) (*model.Review, error)
	ListReviewsByCourse(ctx context.Context, courseID int64) ([]*model.Review, error)
	DeleteReview(ctx context.Context, id int64) error
	AvgCourseRating(ctx context.Context, courseID int64) (float64, error)
	UpdateCourseRating(ctx context.Context, id int64, avg float64) error
	GetCourse(ctx context.Context, id int64) (*model.Course, error)
	GetEnrollment(ctx context.Context, userID, courseID int64) (*model.Enrollment, error)
}

// Handler 评价 HTTP 处理器
type Handler struct {
	store ReviewStore
}

// NewHandler 创建评价处理器
func NewHandler(store ReviewStore) *Handler {
	return &Handler{store: store}
}

// RegisterRoutes 注册评价相关路由
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/reviews", auth.RequireAuth(h.Create))
	mux.HandleFunc("GET /api/reviews/course/{id}", h.ListByCourse)
	mux.HandleFunc("DELETE /api/reviews/{id}", auth.RequireAuth(h.Delete))
}

type createRequest struct {
	CourseID int64  `json:"course_id"`
	Rating   int    `json:"rating"`
	Comment  string `json:"comment"`
}

// Create 发表评价：需已选课，评分 1-5，每人每课一条
// 发表后重算课程平均分
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	p := auth.GetPrincipal(r.Context())

	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Rating < 1 || req.Rating > 5 {
		writeError(w, http.StatusBadRequest, "rating must be between 1 and 5")
		return
	}

	course, err := h.store.GetCourse(r.Context(), req.CourseID)
	if err != nil {
		log.Printf("[review] GetCourse error: %v", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if course == nil {
		writeError(w, http.StatusNotFound, "course not found")
		return
	}

	enrolled, err := h.store.GetEnrollment(r.Context(), p.ID, course.ID)
	if err != nil {
		log.Printf("[review] GetEnrollment error: %v", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if enrolled == nil {
		writeError(w, http.StatusForbidden, "must be enrolled to review")
		return
	}

	existing, err := h.store.GetReviewByUserCourse(r.Context(), p.ID, course.ID)
	if err != nil {
		log.Printf("[review] GetReviewByUserCourse error: %v", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if existing != nil {
		writeError(w, http.StatusConflict, "course already reviewed")
		return
	}

	review := &model.Review{
		UserID:    p.ID,
		CourseID:  course.ID,
		Rating:    req.Rating,
		Comment:   req.Comment,
		CreatedAt: time.Now(),
	}
	if err := h.store.CreateReview(r.Context(), review); err != nil {
		log.Printf("[review] CreateReview error: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to create review")
		return
	}

	h.recomputeRating(r.Context(), course.ID)
	writeJSON(w, http.StatusCreated, review)
}

// ListByCourse 课程评价列表（公开）
func (h *Handler) ListByCourse(w http.ResponseWriter, r *http.Request) {
	courseID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid course id")
		return
	}
	reviews, err := h.store.ListReviewsByCourse(r.Context(), courseID)
	if err != nil {
		log.Printf("[review] ListReviewsByCourse error: %v", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, reviews)
}

// Delete 删除评价（作者本人或管理员），随后重算平均分
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid review id")
		return
	}

	review, err := h.store.GetReview(r.Context(), id)
	if err != nil {
		log.Printf("[review] GetReview error: %v", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if review == nil {
		writeError(w, http.StatusNotFound, "review not found")
		return
	}
	p := auth.GetPrincipal(r.Context())
	if !p.CanModify(review.UserID) {
		writeError(w, http.StatusForbidden, "not the review author")
		return
	}

	if err := h.store.DeleteReview(r.Context(), id); err != nil {
		log.Printf("[review] DeleteReview error: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to delete review")
		return
	}

	h.recomputeRating(r.Context(), review.CourseID)
	writeJSON(w, http.StatusOK, map[string]string{"message": "review deleted"})
}

// recomputeRating 重算并回写课程平均分，失败只记日志
func (h *Handler) recomputeRating(ctx context.Context, courseID int64) {
	avg, err := h.store.AvgCourseRating(ctx, courseID)
	if err != nil {
		log.Printf("[review] AvgCourseRating error: %v", err)
		return
	}
	if err := h.store.UpdateCourseRating(ctx, courseID, avg); err != nil {
		log.Printf("[review] UpdateCourseRating error: %v", err)
	}
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
