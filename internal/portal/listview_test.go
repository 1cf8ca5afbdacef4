package portal

import (
	"context"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/bigkaa/faculty-portal/internal/apiclient"
)

// waitFor ждёт выполнения условия не дольше секунды.
func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("условие не выполнено за отведённое время")
}

// recorder — Loader, записывающий параметры каждого вызова.
type recorder struct {
	mu    sync.Mutex
	calls []apiclient.ListParams
}

func (r *recorder) load(_ context.Context, p apiclient.ListParams) ListResult[int] {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, p)
	return ListResult[int]{Data: []int{p.Page}, Page: p.Page, Size: p.Size}
}

func (r *recorder) last() (apiclient.ListParams, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.calls) == 0 {
		return apiclient.ListParams{}, 0
	}
	return r.calls[len(r.calls)-1], len(r.calls)
}

// TestListView_FilterResetsPage — после смены фильтра запрос идёт за страницей 0.
func TestListView_FilterResetsPage(t *testing.T) {
	rec := &recorder{}
	v := NewListView(rec.load, apiclient.ListParams{}, ListViewOptions{Debounce: 10 * time.Millisecond})
	defer v.Close()

	v.SetPage(5)
	v.SetFilter(apiclient.StringFilter("type", "BOOK"))
	v.SetPage(2)
	v.SetFilter(apiclient.StringFilter("type", "ARTICLE"))
	waitFor(t, func() bool { _, n := rec.last(); return n == 5 })

	rec.mu.Lock()
	defer rec.mu.Unlock()
	filtered := 0
	for _, p := range rec.calls {
		typ := p.FilterValues().Get("type")
		switch {
		case typ == "" && p.Page != 0 && p.Page != 5:
			t.Errorf("неожиданный запрос без фильтра: page=%d", p.Page)
		case typ == "BOOK" && p.Page == 2:
			// SetPage(2) после фильтра BOOK
		case typ != "" && p.Page != 0:
			t.Errorf("запрос с новым фильтром %s за страницей %d", typ, p.Page)
		}
		if typ != "" && p.Page == 0 {
			filtered++
		}
	}
	if filtered != 2 {
		t.Errorf("запросов с фильтром на странице 0: %d, ожидалось 2", filtered)
	}
	if v.Params().Page != 0 {
		t.Errorf("Params().Page = %d", v.Params().Page)
	}
}

// TestListView_LastIssuedWins — поздний ответ на вытесненный запрос не применяется.
func TestListView_LastIssuedWins(t *testing.T) {
	gates := map[int]chan struct{}{
		1: make(chan struct{}),
		2: make(chan struct{}),
	}
	load := func(ctx context.Context, p apiclient.ListParams) ListResult[int] {
		if g, ok := gates[p.Page]; ok {
			select {
			case <-g:
			case <-ctx.Done():
			}
		}
		return ListResult[int]{Data: []int{p.Page}, Page: p.Page}
	}

	v := NewListView(load, apiclient.ListParams{}, ListViewOptions{})
	defer v.Close()
	waitFor(t, func() bool { s := v.State(); return !s.IsLoading && len(s.Data) == 1 })

	v.SetPage(1)
	v.SetPage(2)
	if !v.State().IsLoading {
		t.Error("во время запроса IsLoading должен быть true")
	}

	close(gates[2])
	waitFor(t, func() bool { s := v.State(); return !s.IsLoading && s.Page == 2 })

	close(gates[1])
	time.Sleep(50 * time.Millisecond)
	if s := v.State(); s.Page != 2 || s.Data[0] != 2 {
		t.Errorf("состояние перезаписано устаревшим ответом: %+v", s)
	}
}

// TestListView_CloseSuppressesResults — после Close результаты не применяются.
func TestListView_CloseSuppressesResults(t *testing.T) {
	release := make(chan struct{})
	load := func(ctx context.Context, p apiclient.ListParams) ListResult[int] {
		<-release
		return ListResult[int]{Data: []int{1}}
	}

	v := NewListView(load, apiclient.ListParams{}, ListViewOptions{})
	v.Close()
	close(release)
	time.Sleep(30 * time.Millisecond)

	if s := v.State(); len(s.Data) != 0 {
		t.Errorf("после Close состояние изменилось: %+v", s)
	}

	// Канал обновлений закрыт (после вычитывания последнего состояния)
	for range v.Updates() {
	}

	// Повторные вызовы после Close безопасны
	v.SetPage(3)
	v.SetSearch("x")
	v.Close()
}

// TestListView_Updates — подписчик получает состояние загрузки и результат.
func TestListView_Updates(t *testing.T) {
	rec := &recorder{}
	v := NewListView(rec.load, apiclient.ListParams{Page: 1}, ListViewOptions{})
	defer v.Close()

	timeout := time.After(time.Second)
	for {
		select {
		case s := <-v.Updates():
			if !s.IsLoading && s.Page == 1 {
				return
			}
		case <-timeout:
			t.Fatal("результат не получен")
		}
	}
}

// TestListView_DebouncedSearch — быстрый ввод «a», «ab», «abc» даёт один запрос name=abc.
func TestListView_DebouncedSearch(t *testing.T) {
	env := newTestEnv(t)
	env.api.Seed("college", map[string]any{"name": "abc fakulteti"})
	env.api.Seed("college", map[string]any{"name": "Boshqa"})
	h := env.faculties()

	v := NewListView(h.List, apiclient.ListParams{Page: 3}, ListViewOptions{Debounce: 80 * time.Millisecond})
	defer v.Close()
	waitFor(t, func() bool { return env.api.CountRequests(http.MethodGet, "/api/v1/college/page") == 1 })

	for _, text := range []string{"a", "ab", "abc"} {
		v.SetSearch(text)
		time.Sleep(10 * time.Millisecond)
	}
	waitFor(t, func() bool { s := v.State(); return !s.IsLoading && s.Total == 1 })
	time.Sleep(150 * time.Millisecond)

	searches := 0
	for _, r := range env.api.Requests() {
		if r.Query.Has("name") {
			if r.Query.Get("name") != "abc" || r.Query.Get("page") != "0" {
				t.Errorf("запрос поиска: %v", r.Query)
			}
			searches++
		}
	}
	if searches != 1 {
		t.Errorf("запросов поиска %d, ожидался 1", searches)
	}
}

// TestListView_BlankSearchOmitted — пустой после обрезки поиск не отправляется.
func TestListView_BlankSearchOmitted(t *testing.T) {
	env := newTestEnv(t)
	h := env.faculties()

	v := NewListView(h.List, apiclient.ListParams{}, ListViewOptions{Debounce: 10 * time.Millisecond})
	defer v.Close()
	v.SetSearch("abc")
	waitFor(t, func() bool { return env.api.CountRequests(http.MethodGet, "/api/v1/college/page") == 2 })
	v.SetSearch("   ")
	waitFor(t, func() bool { return !v.Params().Query().Has("name") })
	waitFor(t, func() bool { return !v.State().IsLoading })

	// Без фильтра ключ совпадает с первым чтением и берётся из кэша
	for _, r := range env.api.Requests() {
		if r.Query.Has("name") && r.Query.Get("name") != "abc" {
			t.Errorf("пустой поиск не должен отправляться: %v", r.Query)
		}
	}
}

func TestDebouncer_Stop(t *testing.T) {
	d := NewDebouncer(20 * time.Millisecond)
	fired := make(chan struct{}, 1)
	d.Trigger(func() { fired <- struct{}{} })
	d.Stop()
	d.Trigger(func() { fired <- struct{}{} })

	select {
	case <-fired:
		t.Error("после Stop функция не должна выполняться")
	case <-time.After(60 * time.Millisecond):
	}
}
