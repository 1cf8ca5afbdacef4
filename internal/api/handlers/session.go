// session.go — обработчики сессии шлюза: PUT/GET/DELETE /ui/session.
// Токен выдаётся внешним входом; шлюз только хранит его и показывает пользователя.
package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	apierrors "github.com/bigkaa/faculty-portal/internal/api/errors"
	"github.com/bigkaa/faculty-portal/internal/session"
)

// SessionStore — хранилище сессии.
type SessionStore interface {
	Save(token string, user *session.User) error
	CurrentUser() (session.User, bool)
	Role() string
	Token() string
	ExpiresAt() time.Time
	Clear() error
}

// CachePurger — кэш чтений, очищаемый при смене пользователя.
type CachePurger interface {
	Purge()
}

// SessionHandler — обработчик /ui/session.
type SessionHandler struct {
	store  SessionStore
	cache  CachePurger
	logger *slog.Logger
}

// NewSessionHandler создаёт обработчик сессии.
func NewSessionHandler(store SessionStore, cache CachePurger, logger *slog.Logger) *SessionHandler {
	return &SessionHandler{
		store:  store,
		cache:  cache,
		logger: logger.With(slog.String("component", "session_handler")),
	}
}

// sessionRequest — тело PUT /ui/session.
type sessionRequest struct {
	Token string        `json:"token"`
	User  *session.User `json:"user,omitempty"`
}

// sessionView — состояние сессии.
type sessionView struct {
	Authenticated bool          `json:"authenticated"`
	User          *session.User `json:"user,omitempty"`
	Role          string        `json:"role,omitempty"`
	ExpiresAt     *time.Time    `json:"expiresAt,omitempty"`
}

// Put сохраняет токен (и пользователя) и сбрасывает кэш.
func (h *SessionHandler) Put(w http.ResponseWriter, r *http.Request) {
	var req sessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierrors.ValidationError(w, "некорректное тело запроса: "+err.Error())
		return
	}
	if req.Token == "" {
		apierrors.ValidationError(w, "token обязателен")
		return
	}
	if err := h.store.Save(req.Token, req.User); err != nil {
		h.logger.Warn("Сессия не сохранена", slog.String("error", err.Error()))
		apierrors.ValidationError(w, err.Error())
		return
	}
	h.cache.Purge()
	writeJSON(w, http.StatusOK, h.view())
}

// Get возвращает состояние сессии.
func (h *SessionHandler) Get(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.view())
}

// Delete завершает сессию.
func (h *SessionHandler) Delete(w http.ResponseWriter, _ *http.Request) {
	if err := h.store.Clear(); err != nil {
		h.logger.Error("Ошибка очистки сессии", slog.String("error", err.Error()))
		apierrors.InternalError(w, "не удалось очистить сессию")
		return
	}
	h.cache.Purge()
	w.WriteHeader(http.StatusNoContent)
}

func (h *SessionHandler) view() sessionView {
	v := sessionView{Authenticated: h.store.Token() != ""}
	if !v.Authenticated {
		return v
	}
	if u, ok := h.store.CurrentUser(); ok {
		v.User = &u
	}
	v.Role = h.store.Role()
	if exp := h.store.ExpiresAt(); !exp.IsZero() {
		v.ExpiresAt = &exp
	}
	return v
}
