// respond.go — общие функции ответов шлюза.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	apierrors "github.com/bigkaa/faculty-portal/internal/api/errors"
	"github.com/bigkaa/faculty-portal/internal/notify"
	"github.com/bigkaa/faculty-portal/internal/resources"
	"github.com/bigkaa/faculty-portal/internal/session"
)

// errorView — ошибка в теле успешного ответа (inline-ошибка списка).
type errorView struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// writeJSON записывает JSON-ответ.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeClientError переводит ошибку клиента API в ответ шлюза.
// Сообщение берётся из Mapper на языке запроса.
func writeClientError(ctx context.Context, w http.ResponseWriter, mapper *notify.Mapper, err error) {
	switch {
	case errors.Is(err, resources.ErrBadRequest), errors.Is(err, session.ErrInvalidToken):
		apierrors.ValidationError(w, err.Error())
		return
	case errors.Is(err, context.Canceled):
		// Клиент ушёл, отвечать некому
		return
	}
	code := notify.Code(err)
	apierrors.WriteError(w, apierrors.StatusFor(code, err), code, mapper.Message(ctx, err))
}

// parseID читает положительный id из сегмента пути.
func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.New("id должен быть положительным целым числом")
	}
	return id, nil
}
