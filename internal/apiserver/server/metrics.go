// Package server HTTP 服务组装：路由、中间件、指标
package server

import (
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics API Server 指标
type Metrics struct {
	// HTTP 请求指标
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge

	// 业务指标（由中间件按路由与状态码归类）
	LoginsTotal      *prometheus.CounterVec
	UploadsTotal     *prometheus.CounterVec
	EnrollmentsTotal prometheus.Counter
}

var (
	metricsOnce sync.Once
	metricsInst *Metrics
)

// NewMetrics 返回进程级指标实例
// promauto 注册进默认 registry，重复注册会 panic，故只构建一次
func NewMetrics(namespace string) *Metrics {
	metricsOnce.Do(func() {
		metricsInst = newMetrics(namespace)
	})
	return metricsInst
}

func newMetrics(namespace string) *Metrics {
	return &Metrics{
		HTTPRequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),
		HTTPRequestsInFlight: promauto.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "http_requests_in_flight",
				Help:      "Current number of HTTP requests being processed",
			},
		),
		LoginsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "logins_total",
				Help:      "Total login attempts by outcome",
			},
			[]string{"outcome"},
		),
		UploadsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "uploads_total",
				Help:      "Total upload attempts by folder and outcome",
			},
			[]string{"folder", "outcome"},
		),
		EnrollmentsTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "enrollments_total",
				Help:      "Total course enrollments created",
			},
		),
	}
}

// MetricsMiddleware 创建 HTTP 指标中间件
func (m *Metrics) MetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		m.HTTPRequestsInFlight.Inc()
		defer m.HTTPRequestsInFlight.Dec()

		// 包装 ResponseWriter 以捕获状态码
		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(wrapped, r)

		duration := time.Since(start).Seconds()
		path := normalizePath(r.URL.Path)
		status := strconv.Itoa(wrapped.statusCode)

		m.HTTPRequestsTotal.WithLabelValues(r.Method, path, status).Inc()
		m.HTTPRequestDuration.WithLabelValues(r.Method, path).Observe(duration)
		m.recordBusiness(r, wrapped.statusCode)
	})
}

// recordBusiness 按路由与状态码归类业务事件
func (m *Metrics) recordBusiness(r *http.Request, status int) {
	if r.Method != http.MethodPost {
		return
	}
	switch r.URL.Path {
	case "/api/auth/login":
		m.LoginsTotal.WithLabelValues(loginOutcome(status)).Inc()
	case "/api/uploads":
		// 与上传端点一致：缺省目录为 materials
		folder := r.URL.Query().Get("folder")
		if folder == "" {
			folder = "materials"
		}
		outcome := "rejected"
		if status == http.StatusCreated {
			outcome = "accepted"
		}
		m.UploadsTotal.WithLabelValues(folder, outcome).Inc()
	case "/api/enrollments", "/api/payments":
		if status == http.StatusCreated {
			m.EnrollmentsTotal.Inc()
		}
	}
}

func loginOutcome(status int) string {
	switch status {
	case http.StatusOK:
		return "success"
	case http.StatusUnauthorized:
		return "rejected"
	case http.StatusForbidden:
		return "deactivated"
	case http.StatusTooManyRequests:
		return "throttled"
	default:
		return "error"
	}
}

// responseWriter 包装 http.ResponseWriter 以捕获状态码
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// normalizePath 规范化路径，将 ID 替换为占位符，避免高基数
var idPrefixes = []string{
	"/api/admin/users/",
	"/api/admin/courses/",
	"/api/courses/",
	"/api/lessons/",
	"/api/users/",
	"/api/categories/",
	"/api/reviews/course/",
	"/api/reviews/",
	"/api/enrollments/",
	"/api/uploads/",
}

func normalizePath(path string) string {
	for _, prefix := range idPrefixes {
		if strings.HasPrefix(path, prefix) && len(path) > len(prefix) {
			rest := path[len(prefix):]
			if idx := strings.IndexByte(rest, '/'); idx >= 0 {
				return prefix + "{id}" + rest[idx:]
			}
			return prefix + "{id}"
		}
	}
	return path
}

// MetricsHandler 返回 Prometheus HTTP Handler
func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
