// resource.go — обобщённый клиент ресурса API.
// Конкретный ресурс (факультеты, кафедры, награды...) — это значение
// Resource с именем и базовым путём, а не отдельная реализация.
package apiclient

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
)

// Resource — клиент семейства endpoint'ов одного ресурса.
// T — сущность, C — payload создания, U — payload частичного обновления.
type Resource[T, C, U any] struct {
	client *Client
	name   string
	base   string
}

// NewResource создаёт клиент ресурса.
// name — имя ресурса (ключ кэша, метрики), base — базовый путь (например, /api/v1/department).
func NewResource[T, C, U any](client *Client, name, base string) *Resource[T, C, U] {
	return &Resource[T, C, U]{client: client, name: name, base: base}
}

// Name возвращает имя ресурса.
func (r *Resource[T, C, U]) Name() string { return r.name }

// List запрашивает страницу ресурса.
// GET {base}/page?page=&size=&{filters}
func (r *Resource[T, C, U]) List(ctx context.Context, params ListParams) (*Page[T], error) {
	return r.listAt(ctx, r.name+".list", r.base+"/page", params)
}

// ListByUser запрашивает страницу записей, принадлежащих пользователю.
// GET {base}/byUser/{userID}?page=&size=
func (r *Resource[T, C, U]) ListByUser(ctx context.Context, userID int64, params ListParams) (*Page[T], error) {
	path := r.base + "/byUser/" + strconv.FormatInt(userID, 10)
	return r.listAt(ctx, r.name+".list_by_user", path, params)
}

func (r *Resource[T, C, U]) listAt(ctx context.Context, op, path string, params ListParams) (*Page[T], error) {
	normalized := params.Normalized()

	var wire wirePage[T]
	if err := r.client.doJSON(ctx, op, http.MethodGet, path, normalized.Query(), nil, &wire); err != nil {
		return nil, err
	}

	page, err := wire.toPage(normalized)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return page, nil
}

// Get возвращает сущность по id. Отсутствие — NotFoundError.
func (r *Resource[T, C, U]) Get(ctx context.Context, id int64) (*T, error) {
	var entity T
	err := r.client.doJSON(ctx, r.name+".get", http.MethodGet, r.itemPath(id), nil, nil, &entity)
	if err != nil {
		return nil, r.notFound(id, err)
	}
	return &entity, nil
}

// Create создаёт сущность и возвращает её с присвоенным сервером id.
func (r *Resource[T, C, U]) Create(ctx context.Context, payload C) (*T, error) {
	var entity T
	if err := r.client.doJSON(ctx, r.name+".create", http.MethodPost, r.base, nil, payload, &entity); err != nil {
		return nil, err
	}
	if err := requireID(entity); err != nil {
		return nil, fmt.Errorf("%s.create: %w", r.name, err)
	}
	return &entity, nil
}

// Update частично обновляет сущность: поля, не заданные в payload, не меняются.
func (r *Resource[T, C, U]) Update(ctx context.Context, id int64, payload U) (*T, error) {
	var entity T
	err := r.client.doJSON(ctx, r.name+".update", http.MethodPut, r.itemPath(id), nil, payload, &entity)
	if err != nil {
		return nil, r.notFound(id, err)
	}
	if err := requireID(entity); err != nil {
		return nil, fmt.Errorf("%s.update: %w", r.name, err)
	}
	return &entity, nil
}

// Remove удаляет сущность. Повторное удаление — та же NotFoundError, что и у Get.
func (r *Resource[T, C, U]) Remove(ctx context.Context, id int64) error {
	err := r.client.doJSON(ctx, r.name+".delete", http.MethodDelete, r.itemPath(id), nil, nil, nil)
	if err != nil {
		return r.notFound(id, err)
	}
	return nil
}

// UploadAsset загружает файл через общий upload endpoint и возвращает URL.
func (r *Resource[T, C, U]) UploadAsset(ctx context.Context, asset Asset, kind AssetKind) (string, error) {
	return r.client.Upload(ctx, asset, kind)
}

// identified — сущность с серверным id.
type identified interface {
	EntityID() int64
}

// requireID проверяет, что сущность вернулась с id.
// Типы без EntityID не проверяются.
func requireID(entity any) error {
	if e, ok := entity.(identified); ok && e.EntityID() == 0 {
		return ErrMissingID
	}
	return nil
}

func (r *Resource[T, C, U]) itemPath(id int64) string {
	return r.base + "/" + strconv.FormatInt(id, 10)
}

// notFound превращает 404 в NotFoundError, остальные ошибки возвращает как есть.
func (r *Resource[T, C, U]) notFound(id int64, err error) error {
	var te *TransportError
	if errors.As(err, &te) && te.StatusCode == http.StatusNotFound {
		return &NotFoundError{Resource: r.name, ID: id, Transport: te}
	}
	return err
}

// Single — клиент одиночного (не постраничного) endpoint'а, например статистики.
type Single[T any] struct {
	client *Client
	name   string
	path   string
}

// NewSingle создаёт клиент одиночного endpoint'а.
func NewSingle[T any](client *Client, name, path string) *Single[T] {
	return &Single[T]{client: client, name: name, path: path}
}

// Name возвращает имя ресурса.
func (s *Single[T]) Name() string { return s.name }

// Get запрашивает значение.
func (s *Single[T]) Get(ctx context.Context) (*T, error) {
	var v T
	if err := s.client.doJSON(ctx, s.name+".get", http.MethodGet, s.path, nil, nil, &v); err != nil {
		return nil, err
	}
	return &v, nil
}
