// Пакет service — фоновые сервисы портала.
//
// dephealth.go — интеграция с topologymetrics SDK для мониторинга зависимостей.
//
// Портал мониторит одну зависимость: REST API факультета (HTTP checker, critical).
// Результат используется в /health/ready, метрики доступны на /metrics:
//   - app_dependency_health — состояние зависимости (1 = ok, 0 = fail)
//   - app_dependency_latency_seconds — задержка проверки
package service

import (
	"context"
	"log/slog"
	"net/url"
	"time"

	"github.com/BigKAA/topologymetrics/sdk-go/dephealth"
	_ "github.com/BigKAA/topologymetrics/sdk-go/dephealth/checks/httpcheck" // регистрация HTTP checker factory
	"github.com/prometheus/client_golang/prometheus"
)

// APIDependency — имя зависимости REST API в метриках и в /health/ready.
const APIDependency = "faculty-api"

// DephealthOptions — параметры мониторинга.
type DephealthOptions struct {
	// ServiceID — имя вершины графа текущего приложения
	ServiceID string
	// Group — имя группы в метриках (PORTAL_DEPHEALTH_GROUP)
	Group string
	// APIBaseURL — базовый URL REST API
	APIBaseURL string
	// HealthPath — путь проверки API (по умолчанию /api/v1/statistic)
	HealthPath string
	// CheckInterval — интервал проверки (PORTAL_DEPHEALTH_CHECK_INTERVAL)
	CheckInterval time.Duration
	// IsEntry — лейбл isentry=yes (DEPHEALTH_ISENTRY)
	IsEntry bool
}

// DephealthService — сервис мониторинга зависимостей через topologymetrics.
type DephealthService struct {
	dh     *dephealth.DepHealth
	logger *slog.Logger
}

// NewDephealthService создаёт сервис мониторинга зависимостей.
// Метрики регистрируются в глобальном Prometheus registry.
func NewDephealthService(opts DephealthOptions, logger *slog.Logger) (*DephealthService, error) {
	return newDephealthService(opts, logger)
}

// NewDephealthServiceWithRegisterer создаёт сервис с указанным Prometheus registerer.
// Используется в тестах для изоляции метрик.
func NewDephealthServiceWithRegisterer(
	opts DephealthOptions,
	logger *slog.Logger,
	registerer prometheus.Registerer,
) (*DephealthService, error) {
	return newDephealthService(opts, logger, dephealth.WithRegisterer(registerer))
}

func newDephealthService(opts DephealthOptions, logger *slog.Logger, extraOpts ...dephealth.Option) (*DephealthService, error) {
	healthPath := opts.HealthPath
	if healthPath == "" {
		// Лёгкий GET без параметров, который API отдаёт и без пагинации
		healthPath = "/api/v1/statistic"
	}

	depOpts := []dephealth.DependencyOption{
		dephealth.FromURL(opts.APIBaseURL),
		dephealth.WithHTTPHealthPath(healthPath),
		dephealth.CheckInterval(opts.CheckInterval),
		dephealth.Critical(true),
	}
	if opts.IsEntry {
		depOpts = append(depOpts, dephealth.WithLabel("isentry", "yes"))
	}
	if parsed, err := url.Parse(opts.APIBaseURL); err == nil && parsed.Scheme == "https" {
		depOpts = append(depOpts, dephealth.WithHTTPTLSSkipVerify(false))
	}

	all := make([]dephealth.Option, 0, 2+len(extraOpts))
	all = append(all,
		dephealth.WithLogger(logger),
		dephealth.HTTP(APIDependency, depOpts...),
	)
	all = append(all, extraOpts...)

	dh, err := dephealth.New(opts.ServiceID, opts.Group, all...)
	if err != nil {
		return nil, err
	}

	return &DephealthService{
		dh:     dh,
		logger: logger.With(slog.String("component", "dephealth")),
	}, nil
}

// Start запускает периодическую проверку зависимостей.
func (ds *DephealthService) Start(ctx context.Context) error {
	ds.logger.Info("Мониторинг зависимостей запущен (REST API)")
	return ds.dh.Start(ctx)
}

// Stop останавливает мониторинг зависимостей.
func (ds *DephealthService) Stop() {
	ds.dh.Stop()
	ds.logger.Info("Мониторинг зависимостей остановлен")
}

// Health возвращает текущее состояние зависимостей.
// Ключ — имя зависимости, значение — true если ok.
func (ds *DephealthService) Health() map[string]bool {
	return ds.dh.Health()
}
