// Package certificate 结课证书
package certificate

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"course-seller/internal/apiserver/auth"
	"course-seller/internal/model"
)

// CertificateStore 证书存储接口
type CertificateStore interface {
	CreateCertificate(ctx context.Context, c *model.Certificate) error
	GetCertificate(ctx context.Context, userID, courseID int64) (*model.Certificate, error)
	ListCertificatesByUser(ctx context.Context, userID int64) ([]*model.Certificate, error)
	GetCourse(ctx context.Context, id int64) (*model.Course, error)
	GetEnrollment(ctx context.Context, userID, courseID int64) (*model.Enrollment, error)
}

// Handler 证书 HTTP 处理器
type Handler struct {
	store CertificateStore
}

// NewHandler 创建证书处理器
func NewHandler(store CertificateStore) *Handler {
	return &Handler{store: store}
}

// RegisterRoutes 注册证书相关路由
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/certificates/generate", auth.RequireAuth(h.Generate))
	mux.HandleFunc("GET /api/certificates/my", auth.RequireAuth(h.ListMine))
}

type generateRequest struct {
	CourseID int64 `json:"course_id"`
}

// Generate 签发证书：必须已选课且已完成全部课时，重复调用返回已有证书
func (h *Handler) Generate(w http.ResponseWriter, r *http.Request) {
	p := auth.GetPrincipal(r.Context())

	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	course, err := h.store.GetCourse(r.Context(), req.CourseID)
	if err != nil {
		log.Printf("[certificate] GetCourse error: %v", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if course == nil {
		writeError(w, http.StatusNotFound, "course not found")
		return
	}

	enrollment, err := h.store.GetEnrollment(r.Context(), p.ID, course.ID)
	if err != nil {
		log.Printf("[certificate] GetEnrollment error: %v", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if enrollment == nil {
		writeError(w, http.StatusForbidden, "not enrolled in this course")
		return
	}
	if !enrollment.Completed {
		writeError(w, http.StatusBadRequest, "course not completed yet")
		return
	}

	// 幂等：已有证书直接返回
	existing, err := h.store.GetCertificate(r.Context(), p.ID, course.ID)
	if err != nil {
		log.Printf("[certificate] GetCertificate error: %v", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if existing != nil {
		writeJSON(w, http.StatusOK, existing)
		return
	}

	cert := &model.Certificate{
		UserID:         p.ID,
		CourseID:       course.ID,
		CertificateURL: fmt.Sprintf("/certificates/%d/%d", p.ID, course.ID),
		IssuedAt:       time.Now(),
	}
	if err := h.store.CreateCertificate(r.Context(), cert); err != nil {
		log.Printf("[certificate] CreateCertificate error: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to issue certificate")
		return
	}

	log.Printf("[certificate] Issued certificate %d for user %d, course %d", cert.ID, p.ID, course.ID)
	writeJSON(w, http.StatusCreated, cert)
}

// ListMine 当前用户的全部证书
func (h *Handler) ListMine(w http.ResponseWriter, r *http.Request) {
	p := auth.GetPrincipal(r.Context())
	certs, err := h.store.ListCertificatesByUser(r.Context(), p.ID)
	if err != nil {
		log.Printf("[certificate] ListCertificatesByUser error: %v", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, certs)
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
