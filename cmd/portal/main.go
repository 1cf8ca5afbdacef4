// main.go — точка входа портала факультета.
// Поднимает локальный шлюз над REST API: клиент ресурсов, кэш запросов,
// уведомления, сессию и мониторинг API через topologymetrics.
package main

import (
	"context"
	"log"
	"log/slog"
	"os"

	"github.com/bigkaa/faculty-portal/internal/api/handlers"
	"github.com/bigkaa/faculty-portal/internal/api/middleware"
	"github.com/bigkaa/faculty-portal/internal/apiclient"
	"github.com/bigkaa/faculty-portal/internal/config"
	"github.com/bigkaa/faculty-portal/internal/notify"
	"github.com/bigkaa/faculty-portal/internal/portal"
	"github.com/bigkaa/faculty-portal/internal/query"
	"github.com/bigkaa/faculty-portal/internal/resources"
	"github.com/bigkaa/faculty-portal/internal/server"
	"github.com/bigkaa/faculty-portal/internal/service"
	"github.com/bigkaa/faculty-portal/internal/session"
)

func main() {
	// 1. Загрузка конфигурации из переменных окружения
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Ошибка загрузки конфигурации: %v", err)
	}

	// 2. Настройка логгера
	logger := config.SetupLogger(cfg)
	logger.Info("Портал запускается",
		slog.String("version", config.Version),
		slog.String("addr", cfg.ListenAddr()),
		slog.String("api", cfg.APIBaseURL),
	)

	if os.Getenv("PORTAL_DEPHEALTH_GROUP") == "" {
		logger.Warn("PORTAL_DEPHEALTH_GROUP не задана, используется значение по умолчанию",
			slog.String("default", cfg.DephealthGroup),
		)
	}

	// 3. Сессия (зашифрованный файл)
	store, err := session.Open(cfg.SessionFile, cfg.SessionKey, logger)
	if err != nil {
		logger.Error("Ошибка открытия сессии", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 4. Клиент REST API; токен берётся из сессии на каждый запрос
	client, err := apiclient.New(apiclient.Options{
		BaseURL: cfg.APIBaseURL,
		UploadPaths: map[apiclient.AssetKind]string{
			apiclient.AssetImage: cfg.UploadImagePath,
			apiclient.AssetPDF:   cfg.UploadPDFPath,
		},
		CACertPath: cfg.APICACertPath,
		Timeout:    cfg.APITimeout,
	}, store, logger)
	if err != nil {
		logger.Error("Ошибка создания клиента API", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 5. Уведомления
	bundle, err := notify.NewBundle(cfg.Language, logger)
	if err != nil {
		logger.Error("Ошибка загрузки каталогов сообщений", slog.String("error", err.Error()))
		os.Exit(1)
	}
	center := notify.NewCenter(bundle, cfg.NotificationCapacity, logger)

	// 6. Кэш запросов
	cache := query.New(query.Options{
		MaxEntries: cfg.CacheMaxEntries,
		StaleTime:  cfg.CacheStaleTime,
		GCTime:     cfg.CacheGCTime,
	}, center, logger)

	// 7. Ресурсы портала
	registry := resources.NewRegistry(client, cache, store, portal.NewValidator(), logger)
	logger.Info("Ресурсы зарегистрированы", slog.Int("count", len(registry.Names())))

	// 8. topologymetrics — мониторинг REST API
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var deps handlers.DependencyHealth
	dephealthSvc, dephealthErr := service.NewDephealthService(service.DephealthOptions{
		ServiceID:     "faculty-portal",
		Group:         cfg.DephealthGroup,
		APIBaseURL:    cfg.APIBaseURL,
		CheckInterval: cfg.DephealthCheckInterval,
		IsEntry:       cfg.DephealthIsEntry,
	}, logger)
	if dephealthErr != nil {
		logger.Warn("topologymetrics недоступен, запуск без мониторинга зависимостей",
			slog.String("error", dephealthErr.Error()),
		)
	} else if startErr := dephealthSvc.Start(ctx); startErr != nil {
		logger.Warn("Ошибка запуска topologymetrics",
			slog.String("error", startErr.Error()),
		)
	} else {
		deps = dephealthSvc
		defer dephealthSvc.Stop()
		logger.Info("topologymetrics запущен",
			slog.String("group", cfg.DephealthGroup),
			slog.String("check_interval", cfg.DephealthCheckInterval.String()),
		)
	}

	// 9. Обработчики
	resourceHandler := handlers.NewResourceHandler(registry, center.Mapper(), cfg.DefaultPageSize, logger)
	viewHandler := handlers.NewViewHandler(resourceHandler, handlers.ViewOptions{
		Debounce: cfg.SearchDebounce,
	}, logger)
	defer viewHandler.Shutdown()

	router := server.NewRouter(server.Handlers{
		Health:        handlers.NewHealthHandler(deps),
		Session:       handlers.NewSessionHandler(store, cache, logger),
		Notifications: handlers.NewNotificationsHandler(center, logger),
		Resources:     resourceHandler,
		Views:         viewHandler,
	},
		middleware.MetricsMiddleware(),
		middleware.RequestLogger(logger),
		middleware.Language(),
	)

	// 10. Запуск сервера (блокирующий вызов с graceful shutdown)
	srv := server.New(cfg, logger, router)
	if err := srv.Run(); err != nil {
		logger.Error("Ошибка сервера", slog.String("error", err.Error()))
		cancel()
		os.Exit(1)
	}

	logger.Info("Портал остановлен")
}
