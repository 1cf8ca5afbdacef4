// params.go — параметры списковых запросов: пагинация и фильтры.
package apiclient

import (
	"net/url"
	"strconv"
	"strings"
)

// DefaultPageSize — размер страницы, если вызывающий код его не задал.
const DefaultPageSize = 10

// Filter — один фильтр списка. Отсутствующий фильтр не попадает в запрос:
// сервер трактует наличие параметра как «фильтр активен».
type Filter struct {
	name    string
	value   string
	present bool
}

// StringFilter — строковый фильтр. Значение обрезается; пустое после
// обрезки значение означает «фильтр не задан».
func StringFilter(name, value string) Filter {
	v := strings.TrimSpace(value)
	return Filter{name: name, value: v, present: v != ""}
}

// IntFilter — числовой фильтр, передаётся всегда (в том числе 0).
func IntFilter(name string, value int64) Filter {
	return Filter{name: name, value: strconv.FormatInt(value, 10), present: true}
}

// OptionalIntFilter — числовой фильтр, nil означает «не задан».
func OptionalIntFilter(name string, value *int64) Filter {
	if value == nil {
		return Filter{name: name}
	}
	return IntFilter(name, *value)
}

// Name возвращает имя параметра.
func (f Filter) Name() string { return f.name }

// Value возвращает значение и признак наличия.
func (f Filter) Value() (string, bool) { return f.value, f.present }

// ListParams — параметры запроса страницы.
type ListParams struct {
	// Page — индекс страницы с нуля
	Page int
	// Size — размер страницы (0 → DefaultPageSize)
	Size int
	// Filters — фильтры; при повторе имени побеждает последний
	Filters []Filter
}

// Normalized возвращает копию с применёнными значениями по умолчанию.
func (p ListParams) Normalized() ListParams {
	out := ListParams{Page: p.Page, Size: p.Size}
	if out.Page < 0 {
		out.Page = 0
	}
	if out.Size <= 0 {
		out.Size = DefaultPageSize
	}
	out.Filters = append([]Filter(nil), p.Filters...)
	return out
}

// With возвращает копию с заменённым (или добавленным) фильтром.
func (p ListParams) With(f Filter) ListParams {
	out := p
	out.Filters = make([]Filter, 0, len(p.Filters)+1)
	for _, existing := range p.Filters {
		if existing.name != f.name {
			out.Filters = append(out.Filters, existing)
		}
	}
	out.Filters = append(out.Filters, f)
	return out
}

// Query строит query string: page, size и каждый присутствующий фильтр ровно один раз.
func (p ListParams) Query() url.Values {
	n := p.Normalized()
	q := url.Values{}
	q.Set("page", strconv.Itoa(n.Page))
	q.Set("size", strconv.Itoa(n.Size))
	for _, f := range n.Filters {
		if f.present {
			q.Set(f.name, f.value)
		} else {
			q.Del(f.name)
		}
	}
	return q
}

// FilterValues возвращает только присутствующие фильтры (для ключа кэша).
func (p ListParams) FilterValues() url.Values {
	q := p.Query()
	q.Del("page")
	q.Del("size")
	return q
}
