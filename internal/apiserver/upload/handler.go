package upload

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strconv"

	"course-seller/internal/apiserver/auth"
	"course-seller/internal/shared/objstore"
)

// ObjectStore 对象存储接口
type ObjectStore interface {
	Put(ctx context.Context, folder objstore.Folder, ext, contentType string, data []byte) (*objstore.PutResult, error)
	Delete(ctx context.Context, objectName string) error
	Presign(ctx context.Context, objectName string, ttlHours int) (string, error)
}

// Handler 上传 HTTP 处理器
type Handler struct {
	store ObjectStore
}

// NewHandler 创建上传处理器
func NewHandler(store ObjectStore) *Handler {
	return &Handler{store: store}
}

// RegisterRoutes 注册上传相关路由
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/uploads", auth.RequireTeacher(h.Upload))
	mux.HandleFunc("GET /api/uploads/presign", auth.RequireTeacher(h.Presign))
	mux.HandleFunc("DELETE /api/uploads/{object...}", auth.RequireTeacher(h.Delete))
}

type uploadResponse struct {
	URL        string `json:"url"`
	ObjectName string `json:"object_name"`
	Size       int    `json:"size"`
}

// Upload 接收 multipart 文件并写入对象存储
// folder 查询参数限定为 thumbnails / pdfs / videos / materials，缺省为 materials
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	folderParam := r.URL.Query().Get("folder")
	if folderParam == "" {
		folderParam = string(objstore.FolderMaterials)
	}
	folder, ok := objstore.ParseFolder(folderParam)
	if !ok {
		writeError(w, http.StatusBadRequest, "folder must be one of: thumbnails, pdfs, videos, materials")
		return
	}

	// 32 MiB 内存阈值，超出部分落临时文件
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "file field is required")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, MaxFileSize+1))
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read file")
		return
	}

	vu, err := Validate(header.Filename, header.Header.Get("Content-Type"), data)
	if err != nil {
		var verr *ValidationError
		if errors.As(err, &verr) {
			writeError(w, verr.Status, verr.Message)
			return
		}
		writeError(w, http.StatusBadRequest, "invalid upload")
		return
	}

	result, err := h.store.Put(r.Context(), folder, vu.Ext, vu.ContentType, vu.Data)
	if err != nil {
		log.Printf("[upload] Put error: %v", err)
		writeError(w, http.StatusBadGateway, "storage unavailable")
		return
	}

	log.Printf("[upload] Stored %s (%d bytes, %s)", result.ObjectName, len(vu.Data), vu.ContentType)
	writeJSON(w, http.StatusCreated, uploadResponse{
		URL:        result.URL,
		ObjectName: result.ObjectName,
		Size:       len(vu.Data),
	})
}

// Delete 删除对象，对象名必须严格匹配生成模式
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	objectName := r.PathValue("object")
	if err := h.store.Delete(r.Context(), objectName); err != nil {
		if errors.Is(err, objstore.ErrInvalidObjectName) {
			writeError(w, http.StatusBadRequest, "invalid object name")
			return
		}
		log.Printf("[upload] Delete error: %v", err)
		writeError(w, http.StatusBadGateway, "storage unavailable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "object deleted"})
}

// Presign 生成限时下载链接，ttl_hours 钳制到 [1, 24]
func (h *Handler) Presign(w http.ResponseWriter, r *http.Request) {
	objectName := r.URL.Query().Get("object_name")
	ttlHours := 1
	if v := r.URL.Query().Get("ttl_hours"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "ttl_hours must be an integer")
			return
		}
		ttlHours = n
	}

	url, err := h.store.Presign(r.Context(), objectName, ttlHours)
	if err != nil {
		if errors.Is(err, objstore.ErrInvalidObjectName) {
			writeError(w, http.StatusBadRequest, "invalid object name")
			return
		}
		log.Printf("[upload] Presign error: %v", err)
		writeError(w, http.StatusBadGateway, "storage unavailable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"url": url})
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
