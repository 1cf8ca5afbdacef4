// views.go — долгоживущие представления списков: /ui/views.
// Представление держит страницу, фильтры и поиск на стороне шлюза;
// ввод поиска откладывается (debounce), применяется только последний запрос.
// Неиспользуемые представления закрываются по истечении TTL.
package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"

	apierrors "github.com/bigkaa/faculty-portal/internal/api/errors"
	"github.com/bigkaa/faculty-portal/internal/notify"
	"github.com/bigkaa/faculty-portal/internal/portal"
	"github.com/bigkaa/faculty-portal/internal/resources"
)

// ViewOptions — параметры представлений.
type ViewOptions struct {
	// MaxViews — сколько представлений открыто одновременно
	MaxViews int
	// IdleTTL — время жизни неиспользуемого представления
	IdleTTL time.Duration
	// Debounce — задержка поиска
	Debounce time.Duration
}

type openView struct {
	resource string
	view     resources.View
}

// ViewHandler — обработчик представлений списков.
type ViewHandler struct {
	resources *ResourceHandler
	opts      ViewOptions
	views     *expirable.LRU[uuid.UUID, *openView]
	logger    *slog.Logger
}

// NewViewHandler создаёт обработчик представлений.
func NewViewHandler(rh *ResourceHandler, opts ViewOptions, logger *slog.Logger) *ViewHandler {
	if opts.MaxViews <= 0 {
		opts.MaxViews = 64
	}
	if opts.IdleTTL <= 0 {
		opts.IdleTTL = 10 * time.Minute
	}
	if opts.Debounce <= 0 {
		opts.Debounce = portal.DefaultDebounce
	}

	h := &ViewHandler{
		resources: rh,
		opts:      opts,
		logger:    logger.With(slog.String("component", "view_handler")),
	}
	h.views = expirable.NewLRU(opts.MaxViews, func(id uuid.UUID, v *openView) {
		v.view.Close()
		h.logger.Debug("Представление закрыто",
			slog.String("id", id.String()),
			slog.String("resource", v.resource),
		)
	}, opts.IdleTTL)
	return h
}

// viewState — ответ с состоянием представления.
type viewState struct {
	ID       uuid.UUID `json:"id"`
	Resource string    `json:"resource"`
	listView
}

// viewPatch — тело PATCH /ui/views/{id}. Отсутствующие поля не меняются.
type viewPatch struct {
	Page    *int              `json:"page,omitempty"`
	Size    *int              `json:"size,omitempty"`
	Search  *string           `json:"search,omitempty"`
	Filters map[string]string `json:"filters,omitempty"`
	Refresh bool              `json:"refresh,omitempty"`
}

// Open — POST /ui/views?resource=...&mine=true&page=&size=&<фильтры>.
func (h *ViewHandler) Open(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	name := q.Get("resource")
	b, ok := h.resources.registry.Lookup(name)
	if !ok {
		apierrors.NotFound(w, "неизвестный ресурс "+name)
		return
	}
	mine := q.Get("mine") == "true"
	if mine && !b.Definition().UserScoped {
		apierrors.NotFound(w, "ресурс "+name+" не поддерживает выборку по пользователю")
		return
	}
	params, err := h.resources.listParams(r, b)
	if err != nil {
		apierrors.ValidationError(w, err.Error())
		return
	}

	id := uuid.New()
	v := &openView{
		resource: name,
		view:     b.NewView(params, portal.ListViewOptions{Debounce: h.opts.Debounce}, mine),
	}
	h.views.Add(id, v)
	h.logger.Debug("Представление открыто", slog.String("id", id.String()), slog.String("resource", name))

	h.writeState(w, r, http.StatusCreated, id, v)
}

// Get — GET /ui/views/{id}.
func (h *ViewHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, v, ok := h.lookup(w, r)
	if !ok {
		return
	}
	h.writeState(w, r, http.StatusOK, id, v)
}

// Patch — PATCH /ui/views/{id}: страница, размер, фильтры, поиск.
// Смена фильтра или размера возвращает на страницу 0.
func (h *ViewHandler) Patch(w http.ResponseWriter, r *http.Request) {
	id, v, ok := h.lookup(w, r)
	if !ok {
		return
	}
	var patch viewPatch
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&patch); err != nil {
		apierrors.ValidationError(w, "некорректное тело запроса: "+err.Error())
		return
	}

	b, _ := h.resources.registry.Lookup(v.resource)
	values := url.Values{}
	for k, val := range patch.Filters {
		values.Set(k, val)
	}
	filters, err := b.ParseFilters(values)
	if err != nil {
		apierrors.ValidationError(w, err.Error())
		return
	}
	if patch.Page != nil && *patch.Page < 0 {
		apierrors.ValidationError(w, "page: ожидается целое число >= 0")
		return
	}
	if patch.Size != nil && *patch.Size <= 0 {
		apierrors.ValidationError(w, "size: ожидается целое число > 0")
		return
	}

	if patch.Size != nil {
		v.view.SetPageSize(*patch.Size)
	}
	for _, f := range filters {
		v.view.SetFilter(f)
	}
	if patch.Page != nil {
		v.view.SetPage(*patch.Page)
	}
	if patch.Search != nil {
		v.view.SetSearch(*patch.Search)
	}
	if patch.Refresh {
		v.view.Refresh()
	}

	h.writeState(w, r, http.StatusOK, id, v)
}

// Close — DELETE /ui/views/{id}.
func (h *ViewHandler) Close(w http.ResponseWriter, r *http.Request) {
	id, _, ok := h.lookup(w, r)
	if !ok {
		return
	}
	h.views.Remove(id)
	w.WriteHeader(http.StatusNoContent)
}

// Shutdown закрывает все представления.
func (h *ViewHandler) Shutdown() {
	h.views.Purge()
}

// lookup находит представление и продлевает его TTL.
func (h *ViewHandler) lookup(w http.ResponseWriter, r *http.Request) (uuid.UUID, *openView, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		apierrors.ValidationError(w, "id представления должен быть UUID")
		return uuid.Nil, nil, false
	}
	v, ok := h.views.Get(id)
	if !ok {
		apierrors.NotFound(w, "представление не найдено или закрыто")
		return uuid.Nil, nil, false
	}
	h.views.Add(id, v)
	return id, v, true
}

func (h *ViewHandler) writeState(w http.ResponseWriter, r *http.Request, status int, id uuid.UUID, v *openView) {
	listing := v.view.State()
	state := viewState{ID: id, Resource: v.resource, listView: listView{Listing: listing}}
	if listing.Err != nil {
		state.Error = &errorView{
			Code:    notify.Code(listing.Err),
			Message: h.resources.mapper.LoadFailed(r.Context(), listing.Err),
		}
	}
	writeJSON(w, status, state)
}
