// notifications.go — уведомления шлюза.
// GET /ui/notifications — накопленные уведомления (опрос).
// GET /ui/notifications/stream — SSE-поток новых уведомлений.
package handlers

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	apierrors "github.com/bigkaa/faculty-portal/internal/api/errors"
	"github.com/bigkaa/faculty-portal/internal/notify"
)

// streamBuffer — размер буфера канала одного SSE-клиента.
const streamBuffer = 16

// NotificationSource — источник уведомлений.
type NotificationSource interface {
	Drain() []notify.Notification
	Subscribe(buffer int) (<-chan notify.Notification, func())
}

// NotificationsHandler — обработчик уведомлений.
type NotificationsHandler struct {
	source NotificationSource
	logger *slog.Logger
}

// NewNotificationsHandler создаёт обработчик уведомлений.
func NewNotificationsHandler(source NotificationSource, logger *slog.Logger) *NotificationsHandler {
	return &NotificationsHandler{
		source: source,
		logger: logger.With(slog.String("component", "notifications_handler")),
	}
}

// List возвращает и удаляет накопленные уведомления.
func (h *NotificationsHandler) List(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"notifications": h.source.Drain()})
}

// Stream обрабатывает GET /ui/notifications/stream — SSE endpoint.
// Каждое новое уведомление отправляется событием notification.
// Формат: event: notification\ndata: {json}\n\n
// Очередь для List поток не вычитывает.
func (h *NotificationsHandler) Stream(w http.ResponseWriter, r *http.Request) {
	ch, unsubscribe := h.source.Subscribe(streamBuffer)
	defer unsubscribe()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	// ResponseController находит http.Flusher через Unwrap() обёрток middleware
	rc := http.NewResponseController(w)
	if err := rc.Flush(); err != nil {
		apierrors.InternalError(w, "SSE не поддерживается")
		return
	}

	ctx := r.Context()
	h.logger.Debug("SSE клиент подключён", slog.String("remote_addr", r.RemoteAddr))

	for {
		select {
		case <-ctx.Done():
			h.logger.Debug("SSE клиент отключён", slog.String("remote_addr", r.RemoteAddr))
			return
		case n, ok := <-ch:
			if !ok {
				return
			}
			data, err := json.Marshal(n)
			if err != nil {
				h.logger.Error("Ошибка сериализации уведомления", slog.String("error", err.Error()))
				continue
			}
			if _, err := fmt.Fprintf(w, "event: notification\ndata: %s\n\n", data); err != nil {
				return
			}
			if err := rc.Flush(); err != nil {
				return
			}
		}
	}
}
