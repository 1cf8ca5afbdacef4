// Пакет fakeapi — in-memory реализация REST API портала для тестов.
// Говорит на том же контракте, что и настоящий сервер: конверт
// {success, message, data}, страницы {page, size, totalPage, totalElements, body},
// byUser-варианты списков, multipart upload.
package fakeapi

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"sync"
)

// Request — запись о принятом запросе (для проверок в тестах).
type Request struct {
	Method        string
	Path          string
	Query         url.Values
	Authorization string
}

// Failure — запрограммированный отказ для следующего подходящего запроса.
type Failure struct {
	Method  string
	Path    string
	Status  int
	Message string
}

type collection struct {
	nextID int64
	items  map[int64]map[string]any
}

// Server — фейковый API.
type Server struct {
	mu        sync.Mutex
	prefix    string
	data      map[string]*collection
	requests  []Request
	failures  []Failure
	uploads   int
	token     string
	singleton map[string]any
}

// New создаёт пустой фейковый API с префиксом путей /api/v1.
func New() *Server {
	return &Server{
		prefix:    "/api/v1",
		data:      make(map[string]*collection),
		singleton: make(map[string]any),
	}
}

// Start запускает httptest-сервер. Вызывающий код обязан закрыть его.
func (s *Server) Start() *httptest.Server {
	return httptest.NewServer(s)
}

// RequireToken включает проверку Authorization: Bearer token.
func (s *Server) RequireToken(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
}

// Seed добавляет сущность в коллекцию и возвращает присвоенный id.
func (s *Server) Seed(resource string, fields map[string]any) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.insert(resource, fields)
}

// SetSingleton задаёт значение одиночного endpoint'а (например, statistic).
func (s *Server) SetSingleton(resource string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.singleton[resource] = value
}

// FailNext программирует отказ следующего запроса method+path.
func (s *Server) FailNext(f Failure) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures = append(s.failures, f)
}

// Requests возвращает копию журнала запросов.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Request(nil), s.requests...)
}

// CountRequests считает запросы с указанным методом и префиксом пути.
func (s *Server) CountRequests(method, pathPrefix string) int {
	n := 0
	for _, r := range s.Requests() {
		if r.Method == method && strings.HasPrefix(r.Path, pathPrefix) {
			n++
		}
	}
	return n
}

// Uploads возвращает количество принятых загрузок.
func (s *Server) Uploads() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.uploads
}

// Len возвращает количество сущностей в коллекции.
func (s *Server) Len(resource string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.data[resource]; ok {
		return len(c.items)
	}
	return 0
}

func (s *Server) insert(resource string, fields map[string]any) int64 {
	c, ok := s.data[resource]
	if !ok {
		c = &collection{items: make(map[int64]map[string]any)}
		s.data[resource] = c
	}
	c.nextID++
	item := make(map[string]any, len(fields)+1)
	for k, v := range fields {
		item[k] = normalize(v)
	}
	item["id"] = float64(c.nextID)
	c.items[c.nextID] = item
	return c.nextID
}

// normalize приводит числа к float64, как после json.Unmarshal.
func normalize(v any) any {
	switch n := v.(type) {
	case int:
		return float64(n)
	case int64:
		return float64(n)
	case int32:
		return float64(n)
	default:
		return v
	}
}

// ServeHTTP реализует http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.requests = append(s.requests, Request{
		Method:        r.Method,
		Path:          r.URL.Path,
		Query:         r.URL.Query(),
		Authorization: r.Header.Get("Authorization"),
	})

	if s.token != "" && r.Header.Get("Authorization") != "Bearer "+s.token {
		writeEnvelope(w, http.StatusUnauthorized, false, "Unauthorized", nil)
		return
	}

	for i, f := range s.failures {
		if f.Method == r.Method && f.Path == r.URL.Path {
			s.failures = append(s.failures[:i], s.failures[i+1:]...)
			writeEnvelope(w, f.Status, false, f.Message, nil)
			return
		}
	}

	rest, ok := strings.CutPrefix(r.URL.Path, s.prefix+"/")
	if !ok {
		writeEnvelope(w, http.StatusNotFound, false, "route not found", nil)
		return
	}
	segments := strings.Split(strings.Trim(rest, "/"), "/")

	if segments[0] == "file" && len(segments) == 3 && segments[1] == "upload" {
		s.handleUpload(w, r, segments[2])
		return
	}

	resource := segments[0]
	switch {
	case len(segments) == 1 && r.Method == http.MethodGet:
		if v, ok := s.singleton[resource]; ok {
			writeEnvelope(w, http.StatusOK, true, "ok", v)
			return
		}
		writeEnvelope(w, http.StatusNotFound, false, "route not found", nil)
	case len(segments) == 1 && r.Method == http.MethodPost:
		s.handleCreate(w, r, resource)
	case len(segments) == 2 && segments[1] == "page" && r.Method == http.MethodGet:
		s.handleList(w, r, resource, nil)
	case len(segments) == 3 && segments[1] == "byUser" && r.Method == http.MethodGet:
		uid, err := strconv.ParseFloat(segments[2], 64)
		if err != nil {
			writeEnvelope(w, http.StatusBadRequest, false, "invalid user id", nil)
			return
		}
		s.handleList(w, r, resource, &uid)
	case len(segments) == 2:
		id, err := strconv.ParseInt(segments[1], 10, 64)
		if err != nil {
			writeEnvelope(w, http.StatusBadRequest, false, "invalid id", nil)
			return
		}
		s.handleItem(w, r, resource, id)
	default:
		writeEnvelope(w, http.StatusNotFound, false, "route not found", nil)
	}
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request, resource string, userID *float64) {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	size, _ := strconv.Atoi(q.Get("size"))
	if size <= 0 {
		size = 10
	}

	var matched []map[string]any
	if c, ok := s.data[resource]; ok {
		for _, item := range c.items {
			if userID != nil && item["userId"] != *userID {
				continue
			}
			if matches(item, q) {
				matched = append(matched, item)
			}
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i]["id"].(float64) < matched[j]["id"].(float64)
	})

	total := len(matched)
	start := page * size
	if start > total {
		start = total
	}
	end := start + size
	if end > total {
		end = total
	}

	body := matched[start:end]
	if body == nil {
		body = []map[string]any{}
	}
	writeEnvelope(w, http.StatusOK, true, "ok", map[string]any{
		"page":          page,
		"size":          size,
		"totalPage":     (total + size - 1) / size,
		"totalElements": total,
		"body":          body,
	})
}

// matches применяет фильтры: строки — подстрока без учёта регистра, числа — равенство.
func matches(item map[string]any, q url.Values) bool {
	for key := range q {
		if key == "page" || key == "size" {
			continue
		}
		want := q.Get(key)
		switch v := item[key].(type) {
		case string:
			if !strings.Contains(strings.ToLower(v), strings.ToLower(want)) {
				return false
			}
		case float64:
			n, err := strconv.ParseFloat(want, 64)
			if err != nil || n != v {
				return false
			}
		case nil:
			return false
		default:
			if fmt.Sprint(v) != want {
				return false
			}
		}
	}
	return true
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request, resource string) {
	var fields map[string]any
	if err := json.NewDecoder(r.Body).Decode(&fields); err != nil {
		writeEnvelope(w, http.StatusBadRequest, false, "invalid json", nil)
		return
	}
	delete(fields, "id")
	id := s.insert(resource, fields)
	writeEnvelope(w, http.StatusOK, true, "created", s.data[resource].items[id])
}

func (s *Server) handleItem(w http.ResponseWriter, r *http.Request, resource string, id int64) {
	c, ok := s.data[resource]
	var item map[string]any
	if ok {
		item = c.items[id]
	}
	if item == nil {
		writeEnvelope(w, http.StatusNotFound, false, fmt.Sprintf("%s not found", resource), nil)
		return
	}

	switch r.Method {
	case http.MethodGet:
		writeEnvelope(w, http.StatusOK, true, "ok", item)
	case http.MethodPut:
		var fields map[string]any
		if err := json.NewDecoder(r.Body).Decode(&fields); err != nil {
			writeEnvelope(w, http.StatusBadRequest, false, "invalid json", nil)
			return
		}
		for k, v := range fields {
			if k != "id" {
				item[k] = v
			}
		}
		writeEnvelope(w, http.StatusOK, true, "updated", item)
	case http.MethodDelete:
		delete(c.items, id)
		writeEnvelope(w, http.StatusOK, true, "deleted", nil)
	default:
		writeEnvelope(w, http.StatusMethodNotAllowed, false, "method not allowed", nil)
	}
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request, kind string) {
	file, header, err := r.FormFile("file")
	if err != nil {
		writeEnvelope(w, http.StatusBadRequest, false, "file is required", nil)
		return
	}
	defer file.Close()
	if _, err := io.Copy(io.Discard, file); err != nil {
		writeEnvelope(w, http.StatusBadRequest, false, "read failed", nil)
		return
	}
	s.uploads++
	writeEnvelope(w, http.StatusOK, true, "uploaded",
		fmt.Sprintf("/files/%s/%d-%s", kind, s.uploads, header.Filename))
}

func writeEnvelope(w http.ResponseWriter, status int, success bool, message string, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"success": success,
		"message": message,
		"data":    data,
	})
}
