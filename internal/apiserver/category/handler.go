// Package category 课程分类管理
package category

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strconv"

	"course-seller/internal/apiserver/auth"
	"course-seller/internal/model"
)

// CategoryStore 分类存储接口
type CategoryStore interface {
	CreateCategory(ctx context.Context, c *model.Category) error
	GetCategory(ctx context.Context, id int64) (*model.Category, error)
	GetCategoryByName(ctx context.Context, name string) (*model.Category, error)
	ListCategories(ctx context.Context) ([]*model.Category, error)
	DeleteCategory(ctx context.Context, id int64) error
}

// Handler 分类 HTTP 处理器
type Handler struct {
	store CategoryStore
}

// NewHandler 创建分类处理器
func NewHandler(store CategoryStore) *Handler {
	return &Handler{store: store}
}

// RegisterRoutes 注册分类相关路由
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/categories", h.List)
	mux.HandleFunc("POST /api/categories", auth.RequireAdmin(h.Create))
	mux.HandleFunc("DELETE /api/categories/{id}", auth.RequireAdmin(h.Delete))
}

type createRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// List 列出全部分类（公开）
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	categories, err := h.store.ListCategories(r.Context())
	if err != nil {
		log.Printf("[category] ListCategories error: %v", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, categories)
}

// Create 创建分类，名称唯一
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	existing, err := h.store.GetCategoryByName(r.Context(), req.Name)
	if err != nil {
		log.Printf("[category] GetCategoryByName error: %v", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if existing != nil {
		writeError(w, http.StatusConflict, "category already exists")
		return
	}

	c := &model.Category{Name: req.Name, Description: req.Description}
	if err := h.store.CreateCategory(r.Context(), c); err != nil {
		log.Printf("[category] CreateCategory error: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to create category")
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

// Delete 删除分类
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid category id")
		return
	}

	existing, err := h.store.GetCategory(r.Context(), id)
	if err != nil {
		log.Printf("[category] GetCategory error: %v", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "category not found")
		return
	}

	if err := h.store.DeleteCategory(r.Context(), id); err != nil {
		log.Printf("[category] DeleteCategory error: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to delete category")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "category deleted"})
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
