// health.go — обработчики health endpoints шлюза.
// /health/live — liveness probe (процесс жив)
// /health/ready — readiness probe (REST API факультета доступен)
// /metrics — Prometheus метрики
package handlers

import (
	"net/http"
	"sort"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/bigkaa/faculty-portal/internal/config"
)

// serviceName — имя сервиса в ответах health.
const serviceName = "faculty-portal"

// DependencyHealth — текущее состояние зависимостей (DephealthService).
type DependencyHealth interface {
	Health() map[string]bool
}

// HealthHandler — обработчик health endpoints.
type HealthHandler struct {
	deps        DependencyHealth
	promHandler http.Handler
}

// NewHealthHandler создаёт обработчик health endpoints.
// deps может быть nil (мониторинг не запущен) — readiness вернёт "fail".
func NewHealthHandler(deps DependencyHealth) *HealthHandler {
	return &HealthHandler{
		deps:        deps,
		promHandler: promhttp.Handler(),
	}
}

// healthCheckResult — результат проверки одной зависимости.
type healthCheckResult struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// healthLiveResponse — ответ liveness probe.
type healthLiveResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Version   string `json:"version"`
	Service   string `json:"service"`
}

// healthReadyResponse — ответ readiness probe.
type healthReadyResponse struct {
	Status    string                       `json:"status"`
	Timestamp string                       `json:"timestamp"`
	Version   string                       `json:"version"`
	Service   string                       `json:"service"`
	Checks    map[string]healthCheckResult `json:"checks"`
}

// HealthLive — liveness probe. Возвращает 200 если процесс жив.
func (h *HealthHandler) HealthLive(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, healthLiveResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Version:   config.Version,
		Service:   serviceName,
	})
}

// HealthReady — readiness probe по результатам topologymetrics.
// Возвращает 200 (ok/degraded) или 503 (fail).
// До первой проверки зависимостей статус degraded.
func (h *HealthHandler) HealthReady(w http.ResponseWriter, _ *http.Request) {
	resp := healthReadyResponse{
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Version:   config.Version,
		Service:   serviceName,
		Checks:    make(map[string]healthCheckResult),
	}

	var statuses []string
	switch {
	case h.deps == nil:
		resp.Checks["dependencies"] = healthCheckResult{Status: statusFail, Message: "мониторинг не инициализирован"}
		statuses = append(statuses, statusFail)
	default:
		health := h.deps.Health()
		if len(health) == 0 {
			resp.Checks["dependencies"] = healthCheckResult{Status: statusDegraded, Message: "проверки ещё не выполнены"}
			statuses = append(statuses, statusDegraded)
		}
		names := make([]string, 0, len(health))
		for name := range health {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			if health[name] {
				resp.Checks[name] = healthCheckResult{Status: "ok"}
				statuses = append(statuses, "ok")
			} else {
				resp.Checks[name] = healthCheckResult{Status: statusFail, Message: "зависимость недоступна"}
				statuses = append(statuses, statusFail)
			}
		}
	}
	resp.Status = overallStatus(statuses...)

	status := http.StatusOK
	if resp.Status == statusFail {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, resp)
}

// GetMetrics — Prometheus метрики.
func (h *HealthHandler) GetMetrics(w http.ResponseWriter, r *http.Request) {
	h.promHandler.ServeHTTP(w, r)
}

// Константы статусов health check.
const (
	statusFail     = "fail"
	statusDegraded = "degraded"
)

// overallStatus определяет итоговый статус из статусов зависимостей.
// Если хотя бы одна зависимость fail — итог fail.
// Если хотя бы одна degraded — итог degraded.
// Иначе — ok.
func overallStatus(statuses ...string) string {
	hasDegraded := false
	for _, s := range statuses {
		if s == statusFail {
			return statusFail
		}
		if s == statusDegraded {
			hasDegraded = true
		}
	}
	if hasDegraded {
		return statusDegraded
	}
	return "ok"
}
