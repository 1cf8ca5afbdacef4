// lang.go — определение языка уведомлений.
// Порядок: cookie "lang" → Accept-Language → язык по умолчанию Bundle.
package middleware

import (
	"net/http"

	"github.com/bigkaa/faculty-portal/internal/notify"
)

// LangCookie — имя cookie с выбранным языком.
const LangCookie = "lang"

// Language помещает язык запроса в контекст (notify.WithLang).
func Language() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var raw string
			if c, err := r.Cookie(LangCookie); err == nil && c.Value != "" {
				raw = c.Value
			} else {
				raw = r.Header.Get("Accept-Language")
			}
			if raw != "" {
				r = r.WithContext(notify.WithLang(r.Context(), notify.MatchLanguage(raw)))
			}
			next.ServeHTTP(w, r)
		})
	}
}
