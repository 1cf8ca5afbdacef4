// listview.go — состояние списка одного компонента: страница, фильтры, поиск.
//
// Правила:
//   - смена фильтра или поиска сбрасывает страницу на 0
//   - поиск откладывается до паузы ввода (Debouncer)
//   - состояние обновляет только последний выпущенный запрос
//   - после Close никакие результаты не применяются
package portal

import (
	"context"
	"sync"
	"time"

	"github.com/bigkaa/faculty-portal/internal/apiclient"
)

// Loader — чтение страницы (Hook.List или Hook.ListMine).
type Loader[T any] func(ctx context.Context, params apiclient.ListParams) ListResult[T]

// ListViewOptions — параметры ListView.
type ListViewOptions struct {
	// SearchField — имя фильтра, в который попадает текст поиска
	SearchField string
	// Debounce — пауза ввода перед поиском
	Debounce time.Duration
}

// ListView — наблюдаемое состояние списка.
type ListView[T any] struct {
	load        Loader[T]
	searchField string
	debouncer   *Debouncer

	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	params  apiclient.ListParams
	state   ListResult[T]
	seq     uint64
	closed  bool
	updates chan ListResult[T]
}

// NewListView создаёт ListView и сразу выпускает первый запрос.
func NewListView[T any](load Loader[T], initial apiclient.ListParams, opts ListViewOptions) *ListView[T] {
	if opts.SearchField == "" {
		opts.SearchField = "name"
	}
	ctx, cancel := context.WithCancel(context.Background())
	v := &ListView[T]{
		load:        load,
		searchField: opts.SearchField,
		debouncer:   NewDebouncer(opts.Debounce),
		ctx:         ctx,
		cancel:      cancel,
		params:      initial.Normalized(),
		updates:     make(chan ListResult[T], 1),
	}
	v.Refresh()
	return v
}

// SetPage переходит на страницу (индекс с нуля).
func (v *ListView[T]) SetPage(page int) {
	v.mu.Lock()
	v.params.Page = page
	v.mu.Unlock()
	v.Refresh()
}

// SetPageSize меняет размер страницы и возвращает на первую страницу.
func (v *ListView[T]) SetPageSize(size int) {
	v.mu.Lock()
	v.params.Size = size
	v.params.Page = 0
	v.params = v.params.Normalized()
	v.mu.Unlock()
	v.Refresh()
}

// SetFilter задаёт фильтр и сбрасывает страницу на 0.
func (v *ListView[T]) SetFilter(f apiclient.Filter) {
	v.mu.Lock()
	v.params = v.params.With(f)
	v.params.Page = 0
	v.mu.Unlock()
	v.Refresh()
}

// SetSearch задаёт текст поиска. Запрос выпускается после паузы ввода.
func (v *ListView[T]) SetSearch(text string) {
	v.debouncer.Trigger(func() {
		v.SetFilter(apiclient.StringFilter(v.searchField, text))
	})
}

// Refresh выпускает запрос с текущими параметрами.
func (v *ListView[T]) Refresh() {
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return
	}
	v.seq++
	seq := v.seq
	params := v.params
	v.state.IsLoading = true
	v.state.Err = nil
	v.publishLocked()
	v.mu.Unlock()

	go func() {
		res := v.load(v.ctx, params)

		v.mu.Lock()
		defer v.mu.Unlock()
		// Ответ на вытесненный запрос или после закрытия не применяется
		if v.closed || seq != v.seq {
			return
		}
		res.IsLoading = false
		v.state = res
		v.publishLocked()
	}()
}

// State возвращает текущее состояние.
func (v *ListView[T]) State() ListResult[T] {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.state
}

// Params возвращает текущие параметры запроса.
func (v *ListView[T]) Params() apiclient.ListParams {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.params
}

// Updates — канал изменений состояния. Хранит только последнее непрочитанное
// состояние; закрывается в Close.
func (v *ListView[T]) Updates() <-chan ListResult[T] {
	return v.updates
}

// Close останавливает ListView: отложенный поиск отменяется, запросы в полёте
// отменяются, их результаты не применяются.
func (v *ListView[T]) Close() {
	v.debouncer.Stop()

	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return
	}
	v.closed = true
	v.cancel()
	close(v.updates)
}

// publishLocked отправляет состояние, вытесняя непрочитанное.
func (v *ListView[T]) publishLocked() {
	select {
	case <-v.updates:
	default:
	}
	v.updates <- v.state
}
