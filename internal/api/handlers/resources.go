// resources.go — обработчики ресурсов портала: /ui/{resource}.
// Списки возвращают состояние представления: ошибка чтения передаётся
// в поле error и не смешивается с пустым data.
package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	apierrors "github.com/bigkaa/faculty-portal/internal/api/errors"
	"github.com/bigkaa/faculty-portal/internal/apiclient"
	"github.com/bigkaa/faculty-portal/internal/domain/model"
	"github.com/bigkaa/faculty-portal/internal/notify"
	"github.com/bigkaa/faculty-portal/internal/resources"
)

// Поля multipart-формы сохранения.
const (
	formPayload = "payload"
	formFile    = "file"
)

// defaultMaxUpload — предел multipart-запроса по умолчанию (32 МиБ).
const defaultMaxUpload = 32 << 20

// ResourceHandler — обработчик ресурсов портала.
type ResourceHandler struct {
	registry  *resources.Registry
	mapper    *notify.Mapper
	pageSize  int
	maxUpload int64
	logger    *slog.Logger
}

// NewResourceHandler создаёт обработчик ресурсов.
// pageSize — размер страницы, если size не передан.
func NewResourceHandler(
	registry *resources.Registry,
	mapper *notify.Mapper,
	pageSize int,
	logger *slog.Logger,
) *ResourceHandler {
	if pageSize <= 0 {
		pageSize = apiclient.DefaultPageSize
	}
	return &ResourceHandler{
		registry:  registry,
		mapper:    mapper,
		pageSize:  pageSize,
		maxUpload: defaultMaxUpload,
		logger:    logger.With(slog.String("component", "resource_handler")),
	}
}

// listView — состояние списка.
type listView struct {
	resources.Listing
	Error *errorView `json:"error"`
}

// itemView — одна сущность с родителем.
type itemView struct {
	Data   any               `json:"data"`
	Parent *resources.Parent `json:"parent,omitempty"`
}

// List — GET /ui/{resource}.
func (h *ResourceHandler) List(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, resources.Binding.List)
}

// ListMine — GET /ui/{resource}/mine.
func (h *ResourceHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	b, ok := h.binding(w, r)
	if !ok {
		return
	}
	if !b.Definition().UserScoped {
		apierrors.NotFound(w, fmt.Sprintf("ресурс %s не поддерживает выборку по пользователю", b.Definition().Name))
		return
	}
	h.list(w, r, resources.Binding.ListMine)
}

func (h *ResourceHandler) list(
	w http.ResponseWriter,
	r *http.Request,
	read func(resources.Binding, context.Context, apiclient.ListParams) resources.Listing,
) {
	b, ok := h.binding(w, r)
	if !ok {
		return
	}
	params, err := h.listParams(r, b)
	if err != nil {
		apierrors.ValidationError(w, err.Error())
		return
	}

	listing := read(b, r.Context(), params)
	view := listView{Listing: listing}
	if listing.Err != nil {
		if errors.Is(listing.Err, context.Canceled) {
			return
		}
		view.Error = &errorView{
			Code:    notify.Code(listing.Err),
			Message: h.mapper.LoadFailed(r.Context(), listing.Err),
		}
	}
	writeJSON(w, http.StatusOK, view)
}

// Get — GET /ui/{resource}/{id}.
func (h *ResourceHandler) Get(w http.ResponseWriter, r *http.Request) {
	b, ok := h.binding(w, r)
	if !ok {
		return
	}
	id, ok := h.id(w, r)
	if !ok {
		return
	}

	entity, err := b.Get(r.Context(), id)
	if err != nil {
		writeClientError(r.Context(), w, h.mapper, err)
		return
	}
	view := itemView{Data: entity}
	if p, ok := h.registry.ParentOf(r.Context(), b.Definition().Name, entity); ok {
		view.Parent = &p
	}
	writeJSON(w, http.StatusOK, view)
}

// Create — POST /ui/{resource}.
// JSON-тело создаёт сущность; multipart (payload + file) сначала загружает файл.
func (h *ResourceHandler) Create(w http.ResponseWriter, r *http.Request) {
	h.save(w, r, 0, http.StatusCreated)
}

// Update — PUT /ui/{resource}/{id}.
func (h *ResourceHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := h.id(w, r)
	if !ok {
		return
	}
	h.save(w, r, id, http.StatusOK)
}

func (h *ResourceHandler) save(w http.ResponseWriter, r *http.Request, id int64, status int) {
	b, ok := h.binding(w, r)
	if !ok {
		return
	}

	var (
		entity any
		err    error
	)
	if isMultipart(r) {
		payload, asset, closeFn, formErr := h.readForm(w, r)
		if formErr != nil {
			apierrors.ValidationError(w, formErr.Error())
			return
		}
		defer closeFn()
		entity, err = b.Save(r.Context(), id, strings.NewReader(payload), asset)
	} else if id == 0 {
		entity, err = b.Create(r.Context(), r.Body)
	} else {
		entity, err = b.Update(r.Context(), id, r.Body)
	}
	if err != nil {
		writeClientError(r.Context(), w, h.mapper, err)
		return
	}
	writeJSON(w, status, itemView{Data: entity})
}

// Delete — DELETE /ui/{resource}/{id}.
func (h *ResourceHandler) Delete(w http.ResponseWriter, r *http.Request) {
	b, ok := h.binding(w, r)
	if !ok {
		return
	}
	id, ok := h.id(w, r)
	if !ok {
		return
	}
	if err := b.Delete(r.Context(), id); err != nil {
		writeClientError(r.Context(), w, h.mapper, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Upload — POST /ui/{resource}/upload?kind=image|pdf: загрузка файла без сохранения сущности.
func (h *ResourceHandler) Upload(w http.ResponseWriter, r *http.Request) {
	b, ok := h.binding(w, r)
	if !ok {
		return
	}
	rawKind := r.URL.Query().Get("kind")
	if rawKind == "" {
		rawKind = string(b.Definition().Asset)
	}
	kind, err := apiclient.ParseAssetKind(rawKind)
	if err != nil {
		apierrors.ValidationError(w, err.Error())
		return
	}
	if !isMultipart(r) {
		apierrors.ValidationError(w, "ожидается multipart/form-data с полем file")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)
	file, header, err := r.FormFile(formFile)
	if err != nil {
		apierrors.ValidationError(w, "поле file: "+err.Error())
		return
	}
	defer file.Close()
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	assetURL, err := b.Upload(r.Context(), apiclient.Asset{Filename: header.Filename, Body: file}, kind)
	if err != nil {
		writeClientError(r.Context(), w, h.mapper, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"url": assetURL})
}

// Statistics — GET /ui/statistics.
func (h *ResourceHandler) Statistics(w http.ResponseWriter, r *http.Request) {
	stats, err := h.registry.Statistics(r.Context())
	if err != nil {
		writeClientError(r.Context(), w, h.mapper, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]*model.Statistics{"data": stats})
}

// Resources — GET /ui: имена ресурсов и их возможности.
func (h *ResourceHandler) Resources(w http.ResponseWriter, _ *http.Request) {
	type resourceView struct {
		Name       string   `json:"name"`
		UserScoped bool     `json:"userScoped"`
		Asset      string   `json:"asset,omitempty"`
		Parent     string   `json:"parent,omitempty"`
		Filters    []string `json:"filters"`
	}
	out := make([]resourceView, 0, len(h.registry.Names()))
	for _, name := range h.registry.Names() {
		b, _ := h.registry.Lookup(name)
		def := b.Definition()
		v := resourceView{
			Name:       def.Name,
			UserScoped: def.UserScoped,
			Asset:      string(def.Asset),
			Parent:     def.Parent,
			Filters:    make([]string, 0, len(def.Filters)),
		}
		for _, f := range def.Filters {
			v.Filters = append(v.Filters, f.Name)
		}
		out = append(out, v)
	}
	writeJSON(w, http.StatusOK, map[string]any{"resources": out})
}

// --- Вспомогательные функции ---

func (h *ResourceHandler) binding(w http.ResponseWriter, r *http.Request) (resources.Binding, bool) {
	name := chi.URLParam(r, "resource")
	b, ok := h.registry.Lookup(name)
	if !ok {
		apierrors.NotFound(w, fmt.Sprintf("неизвестный ресурс %q", name))
		return nil, false
	}
	return b, true
}

func (h *ResourceHandler) id(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		apierrors.ValidationError(w, err.Error())
		return 0, false
	}
	return id, true
}

// listParams читает page, size и фильтры ресурса из query string.
func (h *ResourceHandler) listParams(r *http.Request, b resources.Binding) (apiclient.ListParams, error) {
	q := r.URL.Query()
	params := apiclient.ListParams{Size: h.pageSize}

	if raw := q.Get("page"); raw != "" {
		page, err := strconv.Atoi(raw)
		if err != nil || page < 0 {
			return params, fmt.Errorf("page: ожидается целое число >= 0, получено %q", raw)
		}
		params.Page = page
	}
	if raw := q.Get("size"); raw != "" {
		size, err := strconv.Atoi(raw)
		if err != nil || size <= 0 {
			return params, fmt.Errorf("size: ожидается целое число > 0, получено %q", raw)
		}
		params.Size = size
	}

	filters, err := b.ParseFilters(q)
	if err != nil {
		return params, err
	}
	params.Filters = filters
	return params, nil
}

// readForm разбирает multipart-форму: JSON в поле payload и необязательный file.
func (h *ResourceHandler) readForm(w http.ResponseWriter, r *http.Request) (string, *apiclient.Asset, func(), error) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)
	if err := r.ParseMultipartForm(h.maxUpload); err != nil {
		return "", nil, nil, fmt.Errorf("разбор формы: %w", err)
	}
	payload := r.FormValue(formPayload)
	if payload == "" {
		_ = r.MultipartForm.RemoveAll()
		return "", nil, nil, fmt.Errorf("поле %s обязательно", formPayload)
	}

	closers := []io.Closer{}
	cleanup := func() {
		for _, c := range closers {
			_ = c.Close()
		}
		_ = r.MultipartForm.RemoveAll()
	}

	file, header, err := r.FormFile(formFile)
	switch {
	case errors.Is(err, http.ErrMissingFile):
		return payload, nil, cleanup, nil
	case err != nil:
		cleanup()
		return "", nil, nil, fmt.Errorf("поле %s: %w", formFile, err)
	}
	closers = append(closers, file)
	return payload, &apiclient.Asset{Filename: header.Filename, Body: file}, cleanup, nil
}

func isMultipart(r *http.Request) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mediaType == "multipart/form-data"
}
