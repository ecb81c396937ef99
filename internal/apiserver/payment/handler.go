// Package payment 模拟支付
//
// 无真实支付网关：下单即扣款成功，生成交易号并自动选课。
package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"course-seller/internal/apiserver/auth"
	"course-seller/internal/model"
)

// PaymentStore 支付存储接口
type PaymentStore interface {
	CreatePayment(ctx context.Context, p *model.Payment) error
	GetCompletedPayment(ctx context.Context, userID, courseID int64) (*model.Payment, error)
	ListPaymentsByUser(ctx context.Context, userID int64) ([]*model.Payment, error)
	GetCourse(ctx context.Context, id int64) (*model.Course, error)
	GetEnrollment(ctx context.Context, userID, courseID int64) (*model.Enrollment, error)
	CreateEnrollment(ctx context.Context, e *model.Enrollment) error
	IncrementCourseStudents(ctx context.Context, id int64) error
}

// Handler 支付 HTTP 处理器
type Handler struct {
	store PaymentStore
}

// NewHandler 创建支付处理器
func NewHandler(store PaymentStore) *Handler {
	return &Handler{store: store}
}

// RegisterRoutes 注册支付相关路由
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/payments", auth.RequireAuth(h.Create))
	mux.HandleFunc("GET /api/payments/my", auth.RequireAuth(h.ListMine))
}

type createRequest struct {
	CourseID int64 `json:"course_id"`
}

// Create 模拟购买课程
// 金额取课程当前价格，成功后自动选课
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	p := auth.GetPrincipal(r.Context())

	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	course, err := h.store.GetCourse(r.Context(), req.CourseID)
	if err != nil {
		log.Printf("[payment] GetCourse error: %v", err)
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

	existing, err := h.store.GetCompletedPayment(r.Context(), p.ID, course.ID)
	if err != nil {
		log.Printf("[payment] GetCompletedPayment error: %v", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if existing != nil {
		writeError(w, http.StatusConflict, "course already purchased")
		return
	}

	payment := &model.Payment{
		UserID:        p.ID,
		CourseID:      course.ID,
		Amount:        course.Price,
		Status:        model.PaymentStatusCompleted,
		TransactionID: newTransactionID(),
		CreatedAt:     time.Now(),
	}
	if err := h.store.CreatePayment(r.Context(), payment); err != nil {
		log.Printf("[payment] CreatePayment error: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to record payment")
		return
	}

	// 支付成功自动选课（已选过则跳过）
	enrolled, err := h.store.GetEnrollment(r.Context(), p.ID, course.ID)
	if err != nil {
		log.Printf("[payment] GetEnrollment error: %v", err)
	}
	if enrolled == nil && err == nil {
		e := &model.Enrollment{UserID: p.ID, CourseID: course.ID, EnrolledAt: time.Now()}
		if err := h.store.CreateEnrollment(r.Context(), e); err != nil {
			log.Printf("[payment] CreateEnrollment error: %v", err)
		} else if err := h.store.IncrementCourseStudents(r.Context(), course.ID); err != nil {
			log.Printf("[payment] IncrementCourseStudents error: %v", err)
		}
	}

	log.Printf("[payment] User %d purchased course %d (%s)", p.ID, course.ID, payment.TransactionID)
	writeJSON(w, http.StatusCreated, payment)
}

// ListMine 当前用户的支付记录
func (h *Handler) ListMine(w http.ResponseWriter, r *http.Request) {
	p := auth.GetPrincipal(r.Context())
	payments, err := h.store.ListPaymentsByUser(r.Context(), p.ID)
	if err != nil {
		log.Printf("[payment] ListPaymentsByUser error: %v", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, payments)
}

// newTransactionID 生成 TXN-<12位大写十六进制> 交易号
func newTransactionID() string {
	u := uuid.New()
	hex := strings.ToUpper(fmt.Sprintf("%x", u[:6]))
	return "TXN-" + hex
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
