// Пакет server — HTTP-сервер локального шлюза портала с graceful shutdown.
// Шлюз слушает loopback: TLS не нужен, токен хранится в сессии процесса.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"

	"github.com/bigkaa/faculty-portal/internal/api/handlers"
	"github.com/bigkaa/faculty-portal/internal/config"
)

// Handlers — обработчики маршрутов шлюза.
type Handlers struct {
	Health        *handlers.HealthHandler
	Session       *handlers.SessionHandler
	Notifications *handlers.NotificationsHandler
	Resources     *handlers.ResourceHandler
	Views         *handlers.ViewHandler
}

// NewRouter собирает маршруты шлюза.
// middlewares — добавляются в порядке переданного среза.
func NewRouter(h Handlers, middlewares ...func(http.Handler) http.Handler) http.Handler {
	router := chi.NewRouter()
	for _, mw := range middlewares {
		router.Use(mw)
	}

	router.Get("/health/live", h.Health.HealthLive)
	router.Get("/health/ready", h.Health.HealthReady)
	router.Get("/metrics", h.Health.GetMetrics)

	router.Route("/ui", func(r chi.Router) {
		r.Get("/", h.Resources.Resources)

		r.Route("/session", func(r chi.Router) {
			r.Get("/", h.Session.Get)
			r.Put("/", h.Session.Put)
			r.Delete("/", h.Session.Delete)
		})
		r.Get("/notifications", h.Notifications.List)
		r.Get("/notifications/stream", h.Notifications.Stream)
		r.Get("/statistics", h.Resources.Statistics)

		r.Route("/views", func(r chi.Router) {
			r.Post("/", h.Views.Open)
			r.Get("/{id}", h.Views.Get)
			r.Patch("/{id}", h.Views.Patch)
			r.Delete("/{id}", h.Views.Close)
		})

		r.Route("/{resource}", func(r chi.Router) {
			r.Get("/", h.Resources.List)
			r.Post("/", h.Resources.Create)
			r.Get("/mine", h.Resources.ListMine)
			r.Post("/upload", h.Resources.Upload)
			r.Get("/{id}", h.Resources.Get)
			r.Put("/{id}", h.Resources.Update)
			r.Delete("/{id}", h.Resources.Delete)
		})
	})

	return router
}

// Server — HTTP-сервер шлюза.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
	cfg        *config.Config
}

// New создаёт HTTP-сервер поверх готового router.
func New(cfg *config.Config, logger *slog.Logger, router http.Handler) *Server {
	srv := &http.Server{
		Addr:         cfg.ListenAddr(),
		Handler:      router,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}

	return &Server{
		httpServer: srv,
		logger:     logger,
		cfg:        cfg,
	}
}

// Run запускает сервер и ожидает сигнала завершения (SIGINT, SIGTERM).
// При получении сигнала выполняется graceful shutdown.
func (s *Server) Run() error {
	errCh := make(chan error, 1)

	go func() {
		s.logger.Info("HTTP-сервер запущен",
			slog.String("addr", s.httpServer.Addr),
		)

		err := s.httpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case sig := <-quit:
		s.logger.Info("Получен сигнал завершения", slog.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("ошибка HTTP-сервера: %w", err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()

	s.logger.Info("Выполняется graceful shutdown...")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("ошибка при graceful shutdown: %w", err)
	}

	s.logger.Info("HTTP-сервер остановлен")
	return nil
}
