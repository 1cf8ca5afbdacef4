package middleware

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/bigkaa/faculty-portal/internal/apiclient"
	"github.com/bigkaa/faculty-portal/internal/notify"
)

func TestNormalizePath(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"/health/live", "/health/live"},
		{"/metrics", "/metrics"},
		{"/ui/departments", "/ui/departments"},
		{"/ui/departments/17", "/ui/departments/{id}"},
		{"/ui/awards/mine", "/ui/awards/mine"},
		{"/ui/faculties/upload", "/ui/faculties/upload"},
		{"/ui/views/2f1c6a3e-8a4b-4f5e-9c1d-0b7e2a9d4c11", "/ui/views/{id}"},
	}
	for _, tt := range tests {
		if got := normalizePath(tt.input); got != tt.want {
			t.Errorf("normalizePath(%q) = %q, ожидается %q", tt.input, got, tt.want)
		}
	}
}

// TestRouteLabel — лейбл path берётся из шаблона маршрута chi:
// id представлений и неизвестные ресурсы не порождают новых серий.
func TestRouteLabel(t *testing.T) {
	var label string
	router := chi.NewRouter()
	router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			wrapped := newResponseWriter(w)
			next.ServeHTTP(wrapped, r)
			label = routeLabel(r, wrapped.statusCode)
		})
	})
	ok := func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) }
	router.Route("/ui", func(r chi.Router) {
		r.Route("/views", func(r chi.Router) {
			r.Get("/{id}", ok)
		})
		r.Route("/{resource}", func(r chi.Router) {
			r.Get("/{id}", func(w http.ResponseWriter, r *http.Request) {
				if chi.URLParam(r, "resource") != "faculties" {
					w.WriteHeader(http.StatusNotFound)
					return
				}
				w.WriteHeader(http.StatusOK)
			})
		})
	})

	tests := []struct {
		path string
		want string
	}{
		{"/ui/views/2f1c6a3e-8a4b-4f5e-9c1d-0b7e2a9d4c11", "/ui/views/{id}"},
		{"/ui/views/9b7d0e52-1c3f-4a8e-b6d2-5e4f3a2b1c00", "/ui/views/{id}"},
		{"/ui/faculties/17", "/ui/faculties/{id}"},
		{"/ui/anything/17", "/ui/{resource}/{id}"},
		{"/nowhere", unmatchedPath},
	}
	for _, tt := range tests {
		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, tt.path, nil))
		if label != tt.want {
			t.Errorf("%s: лейбл %q, ожидается %q", tt.path, label, tt.want)
		}
	}
}

func TestRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	var seen string
	h := RequestLogger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = apiclient.RequestIDFromContext(r.Context())
		w.WriteHeader(http.StatusNotFound)
	}))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ui/faculties/9", nil))

	if seen == "" || w.Header().Get("X-Request-ID") != seen {
		t.Errorf("request id: контекст %q, заголовок %q", seen, w.Header().Get("X-Request-ID"))
	}
	out := buf.String()
	if !strings.Contains(out, `"level":"WARN"`) || !strings.Contains(out, `"status":404`) {
		t.Errorf("лог: %s", out)
	}

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("X-Request-ID", "abc")
	h.ServeHTTP(httptest.NewRecorder(), r)
	if seen != "abc" {
		t.Errorf("входящий X-Request-ID не сохранён: %q", seen)
	}
}

func TestLanguage(t *testing.T) {
	bundle, err := notify.NewBundle("uz", slog.Default())
	if err != nil {
		t.Fatalf("NewBundle: %v", err)
	}

	var got string
	h := Language()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = bundle.Lang(r.Context())
	}))

	tests := []struct {
		name   string
		cookie string
		accept string
		want   string
	}{
		{"без заголовков", "", "", "uz"},
		{"Accept-Language", "", "ru-RU,ru;q=0.9", "ru"},
		{"cookie важнее заголовка", "en", "ru", "en"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.cookie != "" {
				r.AddCookie(&http.Cookie{Name: LangCookie, Value: tt.cookie})
			}
			if tt.accept != "" {
				r.Header.Set("Accept-Language", tt.accept)
			}
			h.ServeHTTP(httptest.NewRecorder(), r)
			if got != tt.want {
				t.Errorf("язык = %q, ожидается %q", got, tt.want)
			}
		})
	}
}
