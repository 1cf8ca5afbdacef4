// mapper.go — преобразование ошибок в сообщения для пользователя.
//
// Таксономия:
//   - NetworkError — запрос не дошёл до сервера: общее «сервер недоступен»
//   - TransportError — message сервера дословно, иначе локализованный fallback
//   - ValidationError — клиентская проверка формы, список полей
//   - NotFoundError — как TransportError, fallback «не найдено»
package notify

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/bigkaa/faculty-portal/internal/apiclient"
)

// FieldError — одно нарушенное правило формы.
type FieldError struct {
	Field string `json:"field"`
	Rule  string `json:"rule"`
}

// ValidationError — форма не прошла проверку до отправки; запрос не выполнялся.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		names = append(names, f.Field+" ("+f.Rule+")")
	}
	return "ошибка валидации: " + strings.Join(names, ", ")
}

// FieldNames возвращает имена полей с ошибками.
func (e *ValidationError) FieldNames() []string {
	names := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		names = append(names, f.Field)
	}
	return names
}

// Mapper переводит ошибки в текст на языке пользователя.
type Mapper struct {
	bundle *Bundle
}

// NewMapper создаёт Mapper.
func NewMapper(bundle *Bundle) *Mapper {
	return &Mapper{bundle: bundle}
}

// Message возвращает сообщение для ошибки.
func (m *Mapper) Message(ctx context.Context, err error) string {
	lang := m.bundle.Lang(ctx)

	var (
		ve *ValidationError
		ne *apiclient.NetworkError
		ue *apiclient.UploadError
		nf *apiclient.NotFoundError
		te *apiclient.TransportError
	)
	switch {
	case err == nil:
		return ""
	case errors.As(err, &ve):
		return m.bundle.Translatef(lang, "error.validation", strings.Join(ve.FieldNames(), ", "))
	case errors.As(err, &ne):
		return m.bundle.Translate(lang, "error.network")
	case errors.As(err, &ue):
		if ue.Message != "" {
			return ue.Message
		}
		return m.bundle.Translate(lang, "error.upload")
	case errors.As(err, &nf):
		if nf.Transport != nil && nf.Transport.ServerMessage != "" {
			return nf.Transport.ServerMessage
		}
		return m.bundle.Translate(lang, "error.not_found")
	case errors.As(err, &te):
		if te.ServerMessage != "" {
			return te.ServerMessage
		}
		if te.StatusCode == http.StatusUnauthorized {
			return m.bundle.Translate(lang, "error.unauthorized")
		}
		return m.bundle.Translate(lang, "error.generic")
	case errors.Is(err, context.DeadlineExceeded):
		return m.bundle.Translate(lang, "error.network")
	default:
		return m.bundle.Translate(lang, "error.generic")
	}
}

// LoadFailed — сообщение для inline-ошибки списка (не toast).
func (m *Mapper) LoadFailed(ctx context.Context, err error) string {
	var ne *apiclient.NetworkError
	if errors.As(err, &ne) {
		return m.bundle.Translate(m.bundle.Lang(ctx), "error.load")
	}
	return m.Message(ctx, err)
}

// Code возвращает машиночитаемый код ошибки для JSON-ответов шлюза.
func Code(err error) string {
	var (
		ve *ValidationError
		ne *apiclient.NetworkError
		ue *apiclient.UploadError
		te *apiclient.TransportError
	)
	switch {
	case errors.As(err, &ve):
		return "VALIDATION_ERROR"
	case errors.As(err, &ne):
		return "NETWORK_ERROR"
	case errors.As(err, &ue):
		return "UPLOAD_ERROR"
	case apiclient.IsNotFound(err):
		return "NOT_FOUND"
	case errors.As(err, &te) && te.StatusCode == http.StatusUnauthorized:
		return "UNAUTHORIZED"
	case errors.As(err, &te):
		return "TRANSPORT_ERROR"
	default:
		return "INTERNAL_ERROR"
	}
}
