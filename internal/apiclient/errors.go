// errors.go — типизированные ошибки клиента REST API портала.
// Клиент никогда не скрывает ошибки: каждая операция возвращает одну из них
// вызывающему коду, решение о сообщении пользователю принимает слой выше.
package apiclient

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrMalformedPage — ответ списка нарушает инварианты страницы.
var ErrMalformedPage = errors.New("некорректная страница в ответе API")

// ErrEmptyResult — конверт success=true без data там, где ожидается результат.
var ErrEmptyResult = errors.New("ответ API без данных")

// ErrMissingID — созданная или изменённая сущность вернулась без id.
var ErrMissingID = errors.New("сущность в ответе API без id")

// TransportError — сервер ответил не-2xx статусом (или success=false).
type TransportError struct {
	// StatusCode — HTTP-статус ответа
	StatusCode int
	// ServerMessage — поле message из конверта ответа (может быть пустым)
	ServerMessage string
}

func (e *TransportError) Error() string {
	if e.ServerMessage == "" {
		return fmt.Sprintf("API вернул статус %d", e.StatusCode)
	}
	return fmt.Sprintf("API вернул статус %d: %s", e.StatusCode, e.ServerMessage)
}

// NetworkError — запрос не дошёл до сервера (offline, DNS, таймаут транспорта).
type NetworkError struct {
	// Op — операция клиента (например, "departments.list")
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: сервер недоступен: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// NotFoundError — get/update/delete по несуществующему id.
// Оборачивает исходный TransportError (404), поэтому errors.As находит оба типа.
type NotFoundError struct {
	Resource  string
	ID        int64
	Transport *TransportError
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s #%d не найден", e.Resource, e.ID)
}

func (e *NotFoundError) Unwrap() error {
	if e.Transport == nil {
		return nil
	}
	return e.Transport
}

// UploadError — сервер отклонил загружаемый файл (размер, тип).
type UploadError struct {
	StatusCode int
	Message    string
}

func (e *UploadError) Error() string {
	if e.StatusCode == 0 {
		return "загрузка файла отклонена: " + e.Message
	}
	return fmt.Sprintf("загрузка файла отклонена (статус %d): %s", e.StatusCode, e.Message)
}

// IsNotFound сообщает, что ошибка означает отсутствие сущности.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	if errors.As(err, &nf) {
		return true
	}
	var te *TransportError
	return errors.As(err, &te) && te.StatusCode == http.StatusNotFound
}
