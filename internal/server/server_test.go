package server

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/bigkaa/faculty-portal/internal/api/handlers"
	"github.com/bigkaa/faculty-portal/internal/api/middleware"
	"github.com/bigkaa/faculty-portal/internal/apiclient"
	"github.com/bigkaa/faculty-portal/internal/fakeapi"
	"github.com/bigkaa/faculty-portal/internal/notify"
	"github.com/bigkaa/faculty-portal/internal/portal"
	"github.com/bigkaa/faculty-portal/internal/query"
	"github.com/bigkaa/faculty-portal/internal/resources"
	"github.com/bigkaa/faculty-portal/internal/session"
)

// stubDeps — состояние зависимостей для /health/ready.
type stubDeps map[string]bool

func (s stubDeps) Health() map[string]bool { return s }

// gateway — шлюз поверх фейкового API.
type gateway struct {
	api    *fakeapi.Server
	router http.Handler
	store  *session.Store
}

func newGateway(t *testing.T, deps handlers.DependencyHealth) *gateway {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	api := fakeapi.New()
	srv := api.Start()
	t.Cleanup(srv.Close)

	store, err := session.Open(filepath.Join(t.TempDir(), "session.enc"), "test-key", logger)
	if err != nil {
		t.Fatalf("session.Open: %v", err)
	}
	client, err := apiclient.New(apiclient.Options{BaseURL: srv.URL, HTTPClient: srv.Client()}, store, logger)
	if err != nil {
		t.Fatalf("apiclient.New: %v", err)
	}
	bundle, err := notify.NewBundle("en", logger)
	if err != nil {
		t.Fatalf("NewBundle: %v", err)
	}
	center := notify.NewCenter(bundle, 10, logger)
	cache := query.New(query.Options{}, center, logger)
	registry := resources.NewRegistry(client, cache, store, portal.NewValidator(), logger)

	rh := handlers.NewResourceHandler(registry, center.Mapper(), 10, logger)
	views := handlers.NewViewHandler(rh, handlers.ViewOptions{Debounce: 20 * time.Millisecond}, logger)
	t.Cleanup(views.Shutdown)

	router := NewRouter(Handlers{
		Health:        handlers.NewHealthHandler(deps),
		Session:       handlers.NewSessionHandler(store, cache, logger),
		Notifications: handlers.NewNotificationsHandler(center, logger),
		Resources:     rh,
		Views:         views,
	}, middleware.Language())

	return &gateway{api: api, router: router, store: store}
}

func (g *gateway) do(t *testing.T, method, target string, body io.Reader, header http.Header) *httptest.ResponseRecorder {
	t.Helper()
	r := httptest.NewRequest(method, target, body)
	for k, v := range header {
		r.Header[k] = v
	}
	if body != nil && r.Header.Get("Content-Type") == "" {
		r.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	g.router.ServeHTTP(w, r)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("тело не JSON: %v (%s)", err, w.Body.String())
	}
	return out
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	e, _ := decodeBody(t, w)["error"].(map[string]any)
	code, _ := e["code"].(string)
	return code
}

func signToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
	if err != nil {
		t.Fatalf("SignedString: %v", err)
	}
	return token
}

func TestHealth(t *testing.T) {
	tests := []struct {
		name   string
		deps   handlers.DependencyHealth
		status int
		want   string
	}{
		{"API доступен", stubDeps{"faculty-api": true}, http.StatusOK, "ok"},
		{"API недоступен", stubDeps{"faculty-api": false}, http.StatusServiceUnavailable, "fail"},
		{"проверок ещё не было", stubDeps{}, http.StatusOK, "degraded"},
		{"мониторинг не запущен", nil, http.StatusServiceUnavailable, "fail"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := newGateway(t, tt.deps)
			w := g.do(t, http.MethodGet, "/health/ready", nil, nil)
			if w.Code != tt.status {
				t.Errorf("статус = %d, ожидается %d", w.Code, tt.status)
			}
			if got := decodeBody(t, w)["status"]; got != tt.want {
				t.Errorf("status = %v, ожидается %s", got, tt.want)
			}
		})
	}

	g := newGateway(t, nil)
	if w := g.do(t, http.MethodGet, "/health/live", nil, nil); w.Code != http.StatusOK {
		t.Errorf("live: статус %d", w.Code)
	}
	if w := g.do(t, http.MethodGet, "/metrics", nil, nil); w.Code != http.StatusOK {
		t.Errorf("metrics: статус %d", w.Code)
	}
}

func TestGateway_ListAndGetWithParent(t *testing.T) {
	g := newGateway(t, nil)
	collegeID := g.api.Seed("college", map[string]any{"name": "Fizika fakulteti"})
	g.api.Seed("department", map[string]any{"name": "Optika", "collegeId": collegeID})
	g.api.Seed("department", map[string]any{"name": "Mexanika", "collegeId": collegeID})
	orphan := g.api.Seed("department", map[string]any{"name": "Arxiv", "collegeId": 999})

	w := g.do(t, http.MethodGet, "/ui/departments?collegeId=1&size=1", nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("статус %d: %s", w.Code, w.Body.String())
	}
	body := decodeBody(t, w)
	if body["total"] != float64(2) || body["totalPages"] != float64(2) {
		t.Errorf("страница: %v", body)
	}
	if body["error"] != nil {
		t.Errorf("error = %v, ожидался null", body["error"])
	}
	if data, _ := body["data"].([]any); len(data) != 1 {
		t.Errorf("data = %v", body["data"])
	}

	w = g.do(t, http.MethodGet, "/ui/departments/1", nil, nil)
	parent, _ := decodeBody(t, w)["parent"].(map[string]any)
	if parent["name"] != "Fizika fakulteti" || parent["resource"] != resources.Faculties {
		t.Errorf("parent = %v", parent)
	}

	w = g.do(t, http.MethodGet, "/ui/departments/"+itoa(orphan), nil, nil)
	parent, _ = decodeBody(t, w)["parent"].(map[string]any)
	if parent["name"] != resources.UnknownName {
		t.Errorf("висячий parent = %v", parent)
	}
}

// TestGateway_ListErrorDistinctFromEmpty — ошибка чтения в поле error, data пустой массив.
func TestGateway_ListErrorDistinctFromEmpty(t *testing.T) {
	g := newGateway(t, nil)

	w := g.do(t, http.MethodGet, "/ui/faculties", nil, nil)
	body := decodeBody(t, w)
	if body["error"] != nil || body["total"] != float64(0) {
		t.Errorf("пустой список: %v", body)
	}

	g.api.FailNext(fakeapi.Failure{Method: http.MethodGet, Path: "/api/v1/college/page", Status: 500})
	w = g.do(t, http.MethodGet, "/ui/faculties?name=x", nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("статус %d", w.Code)
	}
	body = decodeBody(t, w)
	e, ok := body["error"].(map[string]any)
	if !ok || e["code"] != "TRANSPORT_ERROR" {
		t.Fatalf("error = %v", body["error"])
	}
	if data, ok := body["data"].([]any); !ok || len(data) != 0 {
		t.Errorf("data = %v, ожидался []", body["data"])
	}
}

func TestGateway_BadParams(t *testing.T) {
	g := newGateway(t, nil)
	tests := []struct {
		target string
		status int
	}{
		{"/ui/faculties?page=-1", http.StatusBadRequest},
		{"/ui/faculties?size=abc", http.StatusBadRequest},
		{"/ui/departments?collegeId=abc", http.StatusBadRequest},
		{"/ui/faculties/abc", http.StatusBadRequest},
		{"/ui/unknown", http.StatusNotFound},
		{"/ui/faculties/mine", http.StatusNotFound},
	}
	for _, tt := range tests {
		if w := g.do(t, http.MethodGet, tt.target, nil, nil); w.Code != tt.status {
			t.Errorf("%s: статус %d, ожидается %d", tt.target, w.Code, tt.status)
		}
	}
	if n := len(g.api.Requests()); n != 0 {
		t.Errorf("некорректные запросы дошли до API: %d", n)
	}
}

// TestGateway_CreateValidation — незаполненная форма не отправляется.
func TestGateway_CreateValidation(t *testing.T) {
	g := newGateway(t, nil)

	w := g.do(t, http.MethodPost, "/ui/faculties", strings.NewReader(`{"name":""}`), nil)
	if w.Code != http.StatusBadRequest || errorCode(t, w) != "VALIDATION_ERROR" {
		t.Errorf("статус %d: %s", w.Code, w.Body.String())
	}
	w = g.do(t, http.MethodPost, "/ui/faculties", strings.NewReader(`{"title":"x"}`), nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("неизвестное поле: статус %d", w.Code)
	}
	if n := g.api.CountRequests(http.MethodPost, "/api/v1/college"); n != 0 {
		t.Errorf("POST в API: %d", n)
	}
}

// TestGateway_CreateMultipart — файл загружается до создания, уведомление об успехе.
func TestGateway_CreateMultipart(t *testing.T) {
	g := newGateway(t, nil)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	_ = mw.WriteField("payload", `{"name":"Kimyo fakulteti"}`)
	fw, _ := mw.CreateFormFile("file", "logo.png")
	_, _ = fw.Write([]byte("png"))
	_ = mw.Close()

	w := g.do(t, http.MethodPost, "/ui/faculties", &buf, http.Header{"Content-Type": {mw.FormDataContentType()}})
	if w.Code != http.StatusCreated {
		t.Fatalf("статус %d: %s", w.Code, w.Body.String())
	}
	data, _ := decodeBody(t, w)["data"].(map[string]any)
	if url, _ := data["imgUrl"].(string); !strings.HasPrefix(url, "/files/image/1-logo.png") {
		t.Errorf("imgUrl = %v", data["imgUrl"])
	}
	if g.api.Uploads() != 1 || g.api.Len("college") != 1 {
		t.Errorf("загрузок %d, записей %d", g.api.Uploads(), g.api.Len("college"))
	}

	w = g.do(t, http.MethodGet, "/ui/notifications", nil, nil)
	list, _ := decodeBody(t, w)["notifications"].([]any)
	if len(list) != 1 {
		t.Fatalf("уведомления: %v", list)
	}
	n := list[0].(map[string]any)
	if n["level"] != "success" || n["op"] != "create" {
		t.Errorf("уведомление: %v", n)
	}

	w = g.do(t, http.MethodGet, "/ui/notifications", nil, nil)
	if list, _ := decodeBody(t, w)["notifications"].([]any); len(list) != 0 {
		t.Errorf("после вычитывания: %v", list)
	}
}

// TestGateway_DeleteMissing — 404 от API даёт NOT_FOUND и одно уведомление об ошибке.
func TestGateway_DeleteMissing(t *testing.T) {
	g := newGateway(t, nil)

	w := g.do(t, http.MethodDelete, "/ui/faculties/999", nil, nil)
	if w.Code != http.StatusNotFound || errorCode(t, w) != "NOT_FOUND" {
		t.Errorf("статус %d: %s", w.Code, w.Body.String())
	}

	w = g.do(t, http.MethodGet, "/ui/notifications", nil, nil)
	list, _ := decodeBody(t, w)["notifications"].([]any)
	if len(list) != 1 || list[0].(map[string]any)["level"] != "error" {
		t.Errorf("уведомления: %v", list)
	}
}

func TestGateway_UpdateAndDelete(t *testing.T) {
	g := newGateway(t, nil)
	id := g.api.Seed("position", map[string]any{"name": "Dotsent"})

	w := g.do(t, http.MethodPut, "/ui/positions/"+itoa(id), strings.NewReader(`{"name":"Professor"}`), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("PUT: статус %d: %s", w.Code, w.Body.String())
	}
	data, _ := decodeBody(t, w)["data"].(map[string]any)
	if data["name"] != "Professor" {
		t.Errorf("data = %v", data)
	}

	if w := g.do(t, http.MethodDelete, "/ui/positions/"+itoa(id), nil, nil); w.Code != http.StatusNoContent {
		t.Errorf("DELETE: статус %d", w.Code)
	}
	if g.api.Len("position") != 0 {
		t.Error("запись не удалена")
	}
}

// TestGateway_SessionAndMine — до сессии «мои» записи не запрашиваются.
func TestGateway_SessionAndMine(t *testing.T) {
	g := newGateway(t, nil)
	g.api.Seed("award", map[string]any{"name": "Eng yaxshi o'qituvchi", "type": "STATE", "year": 2023, "userId": 7})
	g.api.Seed("award", map[string]any{"name": "Boshqa", "type": "STATE", "year": 2023, "userId": 8})

	w := g.do(t, http.MethodGet, "/ui/awards/mine", nil, nil)
	if body := decodeBody(t, w); body["notReady"] != true {
		t.Errorf("без сессии: %v", body)
	}
	if n := len(g.api.Requests()); n != 0 {
		t.Errorf("запросов к API без сессии: %d", n)
	}

	token := signToken(t, jwt.MapClaims{"userId": 7, "role": "teacher", "exp": time.Now().Add(time.Hour).Unix()})
	g.api.RequireToken(token)
	payload, _ := json.Marshal(map[string]any{"token": token})
	w = g.do(t, http.MethodPut, "/ui/session", bytes.NewReader(payload), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("PUT session: %d %s", w.Code, w.Body.String())
	}
	view := decodeBody(t, w)
	user, _ := view["user"].(map[string]any)
	if user["id"] != float64(7) || user["role"] != "teacher" {
		t.Errorf("user = %v", user)
	}
	if view["role"] != "teacher" {
		t.Errorf("role = %v, ожидается teacher", view["role"])
	}

	w = g.do(t, http.MethodGet, "/ui/awards/mine", nil, nil)
	body := decodeBody(t, w)
	if body["notReady"] != false || body["total"] != float64(1) {
		t.Errorf("мои награды: %v", body)
	}

	if w := g.do(t, http.MethodDelete, "/ui/session", nil, nil); w.Code != http.StatusNoContent {
		t.Errorf("DELETE session: %d", w.Code)
	}
	w = g.do(t, http.MethodGet, "/ui/session", nil, nil)
	if decodeBody(t, w)["authenticated"] != false {
		t.Errorf("после выхода: %s", w.Body.String())
	}

	w = g.do(t, http.MethodPut, "/ui/session", strings.NewReader(`{"token":"not-a-jwt"}`), nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("невалидный токен: статус %d", w.Code)
	}
}

func TestGateway_Upload(t *testing.T) {
	g := newGateway(t, nil)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, _ := mw.CreateFormFile("file", "cv.pdf")
	_, _ = fw.Write([]byte("%PDF"))
	_ = mw.Close()
	header := http.Header{"Content-Type": {mw.FormDataContentType()}}

	w := g.do(t, http.MethodPost, "/ui/publications/upload?kind=pdf", bytes.NewReader(buf.Bytes()), header)
	if w.Code != http.StatusCreated {
		t.Fatalf("статус %d: %s", w.Code, w.Body.String())
	}
	if got := decodeBody(t, w)["url"]; got != "/files/pdf/1-cv.pdf" {
		t.Errorf("url = %v", got)
	}

	w = g.do(t, http.MethodPost, "/ui/publications/upload?kind=zip", bytes.NewReader(buf.Bytes()), header)
	if w.Code != http.StatusBadRequest {
		t.Errorf("kind=zip: статус %d", w.Code)
	}
}

func TestGateway_Statistics(t *testing.T) {
	g := newGateway(t, nil)
	g.api.SetSingleton("statistic", map[string]any{"collegeCount": 3, "teacherCount": 40})

	w := g.do(t, http.MethodGet, "/ui/statistics", nil, nil)
	data, _ := decodeBody(t, w)["data"].(map[string]any)
	if data["collegeCount"] != float64(3) || data["teacherCount"] != float64(40) {
		t.Errorf("статистика: %s", w.Body.String())
	}
}

// TestGateway_Language — сообщение об ошибке на языке запроса.
func TestGateway_Language(t *testing.T) {
	g := newGateway(t, nil)
	g.api.FailNext(fakeapi.Failure{Method: http.MethodDelete, Path: "/api/v1/position/5", Status: 500})

	w := g.do(t, http.MethodDelete, "/ui/positions/5", nil, http.Header{"Accept-Language": {"ru-RU"}})
	if w.Code != http.StatusBadGateway {
		t.Errorf("статус %d", w.Code)
	}
	e, _ := decodeBody(t, w)["error"].(map[string]any)
	if e["message"] != "Что-то пошло не так. Повторите попытку." {
		t.Errorf("сообщение: %v", e["message"])
	}
}

func TestGateway_Resources(t *testing.T) {
	g := newGateway(t, nil)
	w := g.do(t, http.MethodGet, "/ui/", nil, nil)
	list, _ := decodeBody(t, w)["resources"].([]any)
	if len(list) != len(resources.Definitions) {
		t.Errorf("ресурсов %d", len(list))
	}
}

// TestGateway_Views — представление списка: фильтр, поиск с задержкой, закрытие.
func TestGateway_Views(t *testing.T) {
	g := newGateway(t, nil)
	for _, name := range []string{"Kitob", "Maqola", "Darslik"} {
		g.api.Seed("publication", map[string]any{"name": name, "type": "BOOK", "year": 2024, "userId": 1})
	}
	g.api.Seed("publication", map[string]any{"name": "Tezis", "type": "THESIS", "year": 2024, "userId": 1})

	w := g.do(t, http.MethodPost, "/ui/views?resource=publications&size=2", nil, nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("Open: %d %s", w.Code, w.Body.String())
	}
	id, _ := decodeBody(t, w)["id"].(string)
	target := "/ui/views/" + id

	state := func() map[string]any {
		return decodeBody(t, g.do(t, http.MethodGet, target, nil, nil))
	}
	waitState(t, func() bool { s := state(); return s["isLoading"] == false && s["total"] == float64(4) })

	w = g.do(t, http.MethodPatch, target, strings.NewReader(`{"page":1,"filters":{"type":"BOOK"}}`), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Patch: %d %s", w.Code, w.Body.String())
	}
	waitState(t, func() bool {
		s := state()
		return s["isLoading"] == false && s["total"] == float64(3) && s["page"] == float64(1)
	})

	g.do(t, http.MethodPatch, target, strings.NewReader(`{"search":"kit"}`), nil)
	waitState(t, func() bool { s := state(); return s["isLoading"] == false && s["total"] == float64(1) })
	if s := state(); s["page"] != float64(0) {
		t.Errorf("после поиска page = %v, ожидалась 0", s["page"])
	}

	if w := g.do(t, http.MethodPatch, target, strings.NewReader(`{"size":0}`), nil); w.Code != http.StatusBadRequest {
		t.Errorf("size=0: статус %d", w.Code)
	}
	if w := g.do(t, http.MethodDelete, target, nil, nil); w.Code != http.StatusNoContent {
		t.Errorf("Close: статус %d", w.Code)
	}
	if w := g.do(t, http.MethodGet, target, nil, nil); w.Code != http.StatusNotFound {
		t.Errorf("после Close: статус %d", w.Code)
	}
	if w := g.do(t, http.MethodPost, "/ui/views?resource=faculties&mine=true", nil, nil); w.Code != http.StatusNotFound {
		t.Errorf("mine для faculties: статус %d", w.Code)
	}
}

// waitState ждёт выполнения условия не дольше двух секунд.
func waitState(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("состояние представления не достигнуто")
}

func itoa(n int64) string {
	b, _ := json.Marshal(n)
	return string(b)
}

// TestGateway_NotificationStream — успешная мутация приходит SSE-событием.
func TestGateway_NotificationStream(t *testing.T) {
	g := newGateway(t, nil)
	id := g.api.Seed("position", map[string]any{"name": "Assistent"})

	srv := httptest.NewServer(g.router)
	t.Cleanup(srv.Close)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/ui/notifications/stream", nil)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := srv.Client().Do(req)
	if err != nil {
		t.Fatalf("stream: %v", err)
	}
	defer resp.Body.Close()
	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("Content-Type = %q", ct)
	}

	if w := g.do(t, http.MethodDelete, "/ui/positions/"+itoa(id), nil, nil); w.Code != http.StatusNoContent {
		t.Fatalf("DELETE: статус %d", w.Code)
	}

	lines := make(chan string, 8)
	go func() {
		sc := bufio.NewScanner(resp.Body)
		for sc.Scan() {
			lines <- sc.Text()
		}
		close(lines)
	}()

	var event, data string
	timeout := time.After(2 * time.Second)
	for data == "" {
		select {
		case line, ok := <-lines:
			if !ok {
				t.Fatal("поток закрыт до события")
			}
			if v, found := strings.CutPrefix(line, "event: "); found {
				event = v
			}
			if v, found := strings.CutPrefix(line, "data: "); found {
				data = v
			}
		case <-timeout:
			t.Fatal("событие не получено")
		}
	}

	if event != "notification" {
		t.Errorf("event = %q", event)
	}
	var n map[string]any
	if err := json.Unmarshal([]byte(data), &n); err != nil {
		t.Fatalf("data: %v", err)
	}
	if n["level"] != "success" || n["op"] != "delete" || n["resource"] != "positions" {
		t.Errorf("уведомление: %v", n)
	}
}
