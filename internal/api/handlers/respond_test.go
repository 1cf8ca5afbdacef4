package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/bigkaa/faculty-portal/internal/apiclient"
	"github.com/bigkaa/faculty-portal/internal/notify"
	"github.com/bigkaa/faculty-portal/internal/resources"
)

func TestWriteClientError(t *testing.T) {
	bundle, err := notify.NewBundle("en", slog.Default())
	if err != nil {
		t.Fatalf("NewBundle: %v", err)
	}
	mapper := notify.NewMapper(bundle)

	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"тело не разобрано", fmt.Errorf("%w: x", resources.ErrBadRequest), http.StatusBadRequest, "VALIDATION_ERROR"},
		{"валидация формы", &notify.ValidationError{Fields: []notify.FieldError{{Field: "name", Rule: "required"}}}, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"не найдено", &apiclient.NotFoundError{Resource: "faculties", ID: 1}, http.StatusNotFound, "NOT_FOUND"},
		{"сеть", &apiclient.NetworkError{Op: "faculties.list", Err: context.DeadlineExceeded}, http.StatusBadGateway, "NETWORK_ERROR"},
		{"401 от API", &apiclient.TransportError{StatusCode: 401}, http.StatusUnauthorized, "UNAUTHORIZED"},
		{"409 от API", &apiclient.TransportError{StatusCode: 409, ServerMessage: "exists"}, http.StatusConflict, "TRANSPORT_ERROR"},
		{"500 от API", &apiclient.TransportError{StatusCode: 500}, http.StatusBadGateway, "TRANSPORT_ERROR"},
		{"загрузка", &apiclient.UploadError{StatusCode: 413, Message: "too large"}, http.StatusBadGateway, "UPLOAD_ERROR"},
		{"прочее", fmt.Errorf("boom"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			writeClientError(context.Background(), w, mapper, tt.err)
			if w.Code != tt.status {
				t.Errorf("статус = %d, ожидается %d", w.Code, tt.status)
			}
			var body struct {
				Error struct {
					Code    string `json:"code"`
					Message string `json:"message"`
				} `json:"error"`
			}
			if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
				t.Fatalf("тело: %v", err)
			}
			if body.Error.Code != tt.code {
				t.Errorf("code = %q, ожидается %q", body.Error.Code, tt.code)
			}
			if body.Error.Message == "" {
				t.Error("пустое сообщение")
			}
		})
	}

	w := httptest.NewRecorder()
	writeClientError(context.Background(), w, mapper, context.Canceled)
	if w.Body.Len() != 0 {
		t.Errorf("отменённый запрос: %s", w.Body.String())
	}
}

func TestParseID(t *testing.T) {
	for _, raw := range []string{"0", "-3", "abc", ""} {
		if _, err := parseID(raw); err == nil {
			t.Errorf("parseID(%q): ожидалась ошибка", raw)
		}
	}
	if id, err := parseID("42"); err != nil || id != 42 {
		t.Errorf("parseID(42) = %d, %v", id, err)
	}
}
