package server

import (
	"encoding/json"
	"net/http"
	"time"

	"course-seller/internal/apiserver/admin"
	"course-seller/internal/apiserver/auth"
	"course-seller/internal/apiserver/category"
	"course-seller/internal/apiserver/certificate"
	"course-seller/internal/apiserver/course"
	"course-seller/internal/apiserver/enrollment"
	"course-seller/internal/apiserver/lesson"
	"course-seller/internal/apiserver/payment"
	"course-seller/internal/apiserver/review"
	"course-seller/internal/apiserver/upload"
	"course-seller/internal/apiserver/user"
	"course-seller/internal/shared/cache"
	"course-seller/internal/shared/objstore"
	"course-seller/internal/storage/repository"
	"course-seller/pkg/logging"
)

// Server HTTP API 服务
type Server struct {
	store    *repository.Store
	objects  *objstore.Client
	authCfg  auth.Config
	throttle *cache.LoginThrottle
	metrics  *Metrics
	logger   *logging.Logger
}

// New 创建服务实例
// throttle 可为 nil（未配置 Redis 时登录不限流）
func New(store *repository.Store, objects *objstore.Client, authCfg auth.Config, throttle *cache.LoginThrottle) *Server {
	return &Server{
		store:    store,
		objects:  objects,
		authCfg:  authCfg,
		throttle: throttle,
		metrics:  NewMetrics("course_seller"),
		logger:   logging.Default("server"),
	}
}

// Router 组装全部路由与中间件
// 中间件顺序：指标 → 请求日志 → 认证 → 业务路由
func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()

	auth.NewHandler(s.store, s.authCfg, s.throttle).RegisterRoutes(mux)
	user.NewHandler(s.store).RegisterRoutes(mux)
	category.NewHandler(s.store).RegisterRoutes(mux)
	course.NewHandler(s.store).RegisterRoutes(mux)
	lesson.NewHandler(s.store).RegisterRoutes(mux)
	enrollment.NewHandler(s.store).RegisterRoutes(mux)
	payment.NewHandler(s.store).RegisterRoutes(mux)
	review.NewHandler(s.store).RegisterRoutes(mux)
	certificate.NewHandler(s.store).RegisterRoutes(mux)
	admin.NewHandler(s.store).RegisterRoutes(mux)
	upload.NewHandler(s.objects).RegisterRoutes(mux)

	mux.HandleFunc("GET /health", s.Health)
	mux.Handle("GET /metrics", MetricsHandler())

	var handler http.Handler = mux
	handler = auth.Middleware(s.authCfg, s.store)(handler)
	handler = s.requestLog(handler)
	handler = s.metrics.MetricsMiddleware(handler)
	return handler
}

// Health 健康检查：验证数据库连通性
func (s *Server) Health(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DB().PingContext(r.Context()); err != nil {
		s.logger.WithError(err).Error("health check failed")
		w.WriteHeader(http.StatusServiceUnavailable)
		json.NewEncoder(w).Encode(map[string]string{"status": "unhealthy"})
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// requestLog 结构化请求日志中间件
func (s *Server) requestLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(wrapped, r)

		// 指标与健康检查的拉取不落日志
		if r.URL.Path == "/metrics" || r.URL.Path == "/health" {
			return
		}
		s.logger.HTTPRequestLog(r, wrapped.statusCode, time.Since(start))
	})
}
