// page.go — страница спискового ответа и её валидация.
package apiclient

import "fmt"

// Page — одна страница списка ресурса.
// Создаётся заново при каждом успешном запросе и не изменяется после.
type Page[T any] struct {
	// Items — элементы в порядке сервера
	Items []T
	// PageIndex — индекс страницы с нуля
	PageIndex int
	// PageSize — размер страницы
	PageSize int
	// TotalPages — общее количество страниц
	TotalPages int
	// TotalItems — общее количество элементов
	TotalItems int
}

// wirePage — формат страницы в data ответа API.
type wirePage[T any] struct {
	Page          int `json:"page"`
	Size          int `json:"size"`
	TotalPage     int `json:"totalPage"`
	TotalElements int `json:"totalElements"`
	Body          []T `json:"body"`
}

// toPage проверяет инварианты и конвертирует в Page.
// requested — параметры запроса: используются, если сервер не вернул page/size.
func (w *wirePage[T]) toPage(requested ListParams) (*Page[T], error) {
	p := &Page[T]{
		Items:      w.Body,
		PageIndex:  w.Page,
		PageSize:   w.Size,
		TotalPages: w.TotalPage,
		TotalItems: w.TotalElements,
	}
	if p.Items == nil {
		p.Items = []T{}
	}
	if p.PageSize <= 0 {
		p.PageSize = requested.Size
	}

	switch {
	case p.PageIndex < 0:
		return nil, fmt.Errorf("%w: page=%d", ErrMalformedPage, p.PageIndex)
	case p.TotalPages < 0 || p.TotalItems < 0:
		return nil, fmt.Errorf("%w: totalPage=%d totalElements=%d", ErrMalformedPage, p.TotalPages, p.TotalItems)
	case len(p.Items) > p.PageSize:
		return nil, fmt.Errorf("%w: %d элементов при size=%d", ErrMalformedPage, len(p.Items), p.PageSize)
	case p.TotalItems < len(p.Items):
		return nil, fmt.Errorf("%w: totalElements=%d меньше %d элементов", ErrMalformedPage, p.TotalItems, len(p.Items))
	}
	return p, nil
}
