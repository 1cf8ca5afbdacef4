// metrics.go — Prometheus HTTP метрики шлюза.
// Регистрирует метрики: portal_http_requests_total, portal_http_request_duration_seconds.
// Лейбл path — шаблон маршрута chi, поэтому число серий ограничено маршрутами.
package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP метрики шлюза
var (
	// httpRequestsTotal — общее количество HTTP-запросов.
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portal_http_requests_total",
			Help: "Общее количество HTTP-запросов к шлюзу портала",
		},
		[]string{"method", "path", "status"},
	)

	// httpRequestDuration — гистограмма длительности HTTP-запросов.
	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "portal_http_request_duration_seconds",
			Help:    "Длительность HTTP-запросов к шлюзу портала в секундах",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
)

// MetricsMiddleware возвращает HTTP middleware для сбора Prometheus метрик.
func MetricsMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			wrapped := newResponseWriter(w)
			next.ServeHTTP(wrapped, r)

			// Шаблон маршрута известен только после маршрутизации
			normalizedPath := routeLabel(r, wrapped.statusCode)
			status := strconv.Itoa(wrapped.statusCode)
			httpRequestsTotal.WithLabelValues(r.Method, normalizedPath, status).Inc()
			httpRequestDuration.WithLabelValues(r.Method, normalizedPath).Observe(time.Since(start).Seconds())
		})
	}
}

// unmatchedPath — лейбл для запросов, не совпавших ни с одним маршрутом.
const unmatchedPath = "unmatched"

// routeLabel возвращает лейбл path для запроса.
// /ui/departments/17 → /ui/departments/{id}
// /ui/views/2f1c... → /ui/views/{id}
// Имя ресурса подставляется только для найденных ресурсов (не 404),
// чтобы произвольные /ui/{resource} не порождали новых серий.
func routeLabel(r *http.Request, status int) string {
	rctx := chi.RouteContext(r.Context())
	if rctx == nil {
		return normalizePath(r.URL.Path)
	}
	pattern := rctx.RoutePattern()
	if pattern == "" || strings.HasSuffix(pattern, "*") {
		return unmatchedPath
	}
	if status != http.StatusNotFound {
		if res := rctx.URLParam("resource"); res != "" {
			pattern = strings.Replace(pattern, "{resource}", res, 1)
		}
	}
	return pattern
}

// normalizePath заменяет числовые id и UUID на {id}.
// Используется, когда запрос обслуживается без роутера chi.
// /ui/departments/17 → /ui/departments/{id}
// /ui/awards/mine → /ui/awards/mine
func normalizePath(path string) string {
	switch path {
	case "/health/live", "/health/ready", "/metrics":
		return path
	}

	segments := strings.Split(path, "/")
	for i, s := range segments {
		if s == "" {
			continue
		}
		if _, err := strconv.ParseInt(s, 10, 64); err == nil {
			segments[i] = "{id}"
		} else if _, err := uuid.Parse(s); err == nil {
			segments[i] = "{id}"
		}
	}
	return strings.Join(segments, "/")
}
