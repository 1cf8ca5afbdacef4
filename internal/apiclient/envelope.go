// envelope.go — разбор конверта ответа {success, message, data}.
// Сервер не везде последователен: часть endpoint'ов возвращает сущность
// без конверта, поэтому при отсутствии data декодируется всё тело.
package apiclient

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
)

// envelope — общий конверт ответа API.
type envelope struct {
	Success *bool           `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// parseEnvelope пытается прочитать конверт.
// ok=false, если тело не является JSON-объектом.
func parseEnvelope(body []byte) (env envelope, ok bool) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return envelope{}, false
	}
	if err := json.Unmarshal(trimmed, &env); err != nil {
		return envelope{}, false
	}
	return env, true
}

// unwrap декодирует полезную нагрузку ответа в target.
// Порядок: data из конверта → всё тело. success=false → TransportError.
// Конверт с success=true без data — ErrEmptyResult: сам конверт не декодируется как сущность.
func unwrap(status int, body []byte, target any) error {
	env, ok := parseEnvelope(body)
	if ok && env.Success != nil && !*env.Success {
		return &TransportError{StatusCode: status, ServerMessage: env.Message}
	}
	if target == nil {
		return nil
	}

	hasData := ok && len(env.Data) > 0 && !bytes.Equal(env.Data, []byte("null"))
	if ok && env.Success != nil && !hasData {
		return fmt.Errorf("%w: %q", ErrEmptyResult, env.Message)
	}

	payload := bytes.TrimSpace(body)
	if hasData {
		payload = env.Data
	}
	if len(payload) == 0 {
		return fmt.Errorf("пустое тело ответа")
	}

	if err := json.Unmarshal(payload, target); err != nil {
		return fmt.Errorf("декодирование ответа API: %w", err)
	}
	return nil
}

// serverMessage извлекает message из тела ошибки.
// Если тело не в формате конверта — возвращается текст тела (обрезанный).
func serverMessage(body []byte) string {
	if env, ok := parseEnvelope(body); ok {
		if env.Message != "" {
			return env.Message
		}
		var alt struct {
			Error   string `json:"error"`
			Details string `json:"details"`
		}
		if json.Unmarshal(body, &alt) == nil {
			if alt.Error != "" {
				return alt.Error
			}
			return alt.Details
		}
		return ""
	}
	msg := string(bytes.TrimSpace(body))
	if len(msg) > 256 {
		msg = msg[:256]
	}
	return msg
}

// resolvedURL извлекает URL загруженного файла из ответа upload.
// data может быть строкой или объектом {url|fileUrl|path}; иначе — поля верхнего уровня.
func resolvedURL(body []byte) (string, error) {
	env, ok := parseEnvelope(body)
	if !ok {
		// Некоторые upload endpoint'ы отвечают голой строкой
		var s string
		if err := json.Unmarshal(bytes.TrimSpace(body), &s); err == nil && s != "" {
			return s, nil
		}
		return "", fmt.Errorf("ответ upload не содержит URL")
	}
	if env.Success != nil && !*env.Success {
		return "", &UploadError{StatusCode: http.StatusOK, Message: env.Message}
	}

	if len(env.Data) > 0 {
		var s string
		if err := json.Unmarshal(env.Data, &s); err == nil && s != "" {
			return s, nil
		}
		if u := urlField(env.Data); u != "" {
			return u, nil
		}
	}
	if u := urlField(body); u != "" {
		return u, nil
	}
	return "", fmt.Errorf("ответ upload не содержит URL")
}

// urlField ищет первое непустое поле url, fileUrl или path.
func urlField(raw []byte) string {
	var obj struct {
		URL     string `json:"url"`
		FileURL string `json:"fileUrl"`
		Path    string `json:"path"`
	}
	if err := json.Unmarshal(raw, &obj); err != nil {
		return ""
	}
	switch {
	case obj.URL != "":
		return obj.URL
	case obj.FileURL != "":
		return obj.FileURL
	default:
		return obj.Path
	}
}
