// Пакет portal — операции ресурса для слоя представления.
// Hook связывает клиент ресурса с общим кэшем: чтения кэшируются и
// разделяются, успешные мутации инвалидируют все чтения ресурса,
// неудачные дают одно уведомление и не трогают кэш.
package portal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"

	"github.com/bigkaa/faculty-portal/internal/apiclient"
	"github.com/bigkaa/faculty-portal/internal/domain/model"
	"github.com/bigkaa/faculty-portal/internal/query"
)

// StatisticsResource — имя ресурса статистики; его чтения устаревают после
// любой мутации, меняющей количество записей.
const StatisticsResource = "statistics"

// ErrNoAssetTarget — форма не умеет принимать URL загруженного файла.
var ErrNoAssetTarget = errors.New("форма не поддерживает вложение файла")

// UserSource — источник id текущего пользователя (session.Store).
type UserSource interface {
	CurrentUserID() (int64, bool)
}

// ListResult — то, что слой представления получает от чтения списка.
type ListResult[T any] struct {
	Data       []T  `json:"data"`
	Total      int  `json:"total"`
	Page       int  `json:"page"`
	Size       int  `json:"size"`
	TotalPages int  `json:"totalPages"`
	IsLoading  bool `json:"isLoading"`
	// NotReady — чтение не выполнялось: не хватает обязательного параметра (id пользователя)
	NotReady bool `json:"notReady"`
	// Err — ошибка чтения; пустой Data при Err == nil означает пустой список
	Err error `json:"-"`
}

func resultFromPage[T any](p *apiclient.Page[T]) ListResult[T] {
	return ListResult[T]{
		Data:       p.Items,
		Total:      p.TotalItems,
		Page:       p.PageIndex,
		Size:       p.PageSize,
		TotalPages: p.TotalPages,
	}
}

// HookOptions — параметры Hook.
type HookOptions struct {
	// UserScoped — у ресурса есть byUser-чтение (записи преподавателя)
	UserScoped bool
	// Invalidates — дополнительные ресурсы, устаревающие при мутациях
	Invalidates []string
}

// Hook — операции одного ресурса поверх общего кэша.
type Hook[T, C, U any] struct {
	res       *apiclient.Resource[T, C, U]
	cache     *query.Cache
	users     UserSource
	validator *Validator
	opts      HookOptions
	logger    *slog.Logger
}

// NewHook создаёт Hook ресурса.
func NewHook[T, C, U any](
	res *apiclient.Resource[T, C, U],
	cache *query.Cache,
	users UserSource,
	validator *Validator,
	opts HookOptions,
	logger *slog.Logger,
) *Hook[T, C, U] {
	return &Hook[T, C, U]{
		res:       res,
		cache:     cache,
		users:     users,
		validator: validator,
		opts:      opts,
		logger:    logger.With(slog.String("resource", res.Name())),
	}
}

// Name возвращает имя ресурса.
func (h *Hook[T, C, U]) Name() string { return h.res.Name() }

// UserScoped сообщает, есть ли у ресурса чтение «мои записи».
func (h *Hook[T, C, U]) UserScoped() bool { return h.opts.UserScoped }

// List читает страницу ресурса через кэш.
func (h *Hook[T, C, U]) List(ctx context.Context, params apiclient.ListParams) ListResult[T] {
	params = params.Normalized()
	key := query.NewKey(h.res.Name(), params.Query())
	page, err := query.Fetch(ctx, h.cache, key, func(ctx context.Context) (*apiclient.Page[T], error) {
		return h.res.List(ctx, params)
	})
	if err != nil {
		return ListResult[T]{Page: params.Page, Size: params.Size, Err: err}
	}
	return resultFromPage(page)
}

// ListMine читает записи текущего пользователя.
// Пока id пользователя неизвестен, запрос не выполняется и результат NotReady.
func (h *Hook[T, C, U]) ListMine(ctx context.Context, params apiclient.ListParams) ListResult[T] {
	params = params.Normalized()
	if !h.opts.UserScoped {
		return ListResult[T]{Page: params.Page, Size: params.Size,
			Err: fmt.Errorf("ресурс %s не поддерживает чтение по пользователю", h.res.Name())}
	}

	userID, ok := h.users.CurrentUserID()
	if !ok {
		return ListResult[T]{Page: params.Page, Size: params.Size, NotReady: true}
	}

	key := query.UserKey(h.res.Name(), userID, params.Query())
	page, err := query.Fetch(ctx, h.cache, key, func(ctx context.Context) (*apiclient.Page[T], error) {
		return h.res.ListByUser(ctx, userID, params)
	})
	if err != nil {
		return ListResult[T]{Page: params.Page, Size: params.Size, Err: err}
	}
	return resultFromPage(page)
}

// Get читает сущность через кэш.
func (h *Hook[T, C, U]) Get(ctx context.Context, id int64) (*T, error) {
	key := query.NewKey(h.res.Name(), url.Values{"id": {strconv.FormatInt(id, 10)}})
	return query.Fetch(ctx, h.cache, key, func(ctx context.Context) (*T, error) {
		return h.res.Get(ctx, id)
	})
}

// Create проверяет форму и создаёт сущность.
// Для ресурсов пользователя незаданный владелец берётся из сессии.
func (h *Hook[T, C, U]) Create(ctx context.Context, payload C) (*T, error) {
	if o, ok := any(&payload).(model.Owned); ok && o.OwnerID() == 0 {
		if id, ok := h.users.CurrentUserID(); ok {
			o.SetOwnerID(id)
		}
	}
	if err := h.validator.Struct(payload); err != nil {
		return nil, err
	}
	return query.Mutate(ctx, h.cache, h.mutation("create"), func(ctx context.Context) (*T, error) {
		return h.res.Create(ctx, payload)
	})
}

// Update проверяет форму и частично обновляет сущность.
func (h *Hook[T, C, U]) Update(ctx context.Context, id int64, patch U) (*T, error) {
	if err := h.validator.Struct(patch); err != nil {
		return nil, err
	}
	return query.Mutate(ctx, h.cache, h.mutation("update"), func(ctx context.Context) (*T, error) {
		return h.res.Update(ctx, id, patch)
	})
}

// Delete удаляет сущность.
func (h *Hook[T, C, U]) Delete(ctx context.Context, id int64) error {
	_, err := query.Mutate(ctx, h.cache, h.mutation("delete"), func(ctx context.Context) (struct{}, error) {
		return struct{}{}, h.res.Remove(ctx, id)
	})
	return err
}

// Upload загружает файл. Кэш не инвалидируется: файл не принадлежит ни одному списку.
func (h *Hook[T, C, U]) Upload(ctx context.Context, asset apiclient.Asset, kind apiclient.AssetKind) (string, error) {
	m := query.Mutation{Resource: h.res.Name(), Op: "upload"}
	return query.Mutate(ctx, h.cache, m, func(ctx context.Context) (string, error) {
		return h.res.UploadAsset(ctx, asset, kind)
	})
}

// Save — сохранение формы с необязательным файлом.
// ID == 0 — создание из Create, иначе изменение ID из Patch.
type Save[C, U any] struct {
	ID     int64
	Create C
	Patch  U
	Asset  *apiclient.Asset
	Kind   apiclient.AssetKind
}

// SaveWithAsset загружает файл (если есть) и только после успешной загрузки
// выполняет создание или изменение с полученным URL.
// Неудачная загрузка прерывает сохранение: запись не выполняется.
func (h *Hook[T, C, U]) SaveWithAsset(ctx context.Context, s Save[C, U]) (*T, error) {
	// Форму проверяем до загрузки, чтобы не оставлять файлы от невалидных форм
	if s.ID == 0 {
		if err := h.validator.Struct(s.Create); err != nil {
			return nil, err
		}
	} else if err := h.validator.Struct(s.Patch); err != nil {
		return nil, err
	}

	if s.Asset != nil {
		var target model.AssetTarget
		var ok bool
		if s.ID == 0 {
			target, ok = any(&s.Create).(model.AssetTarget)
		} else {
			target, ok = any(&s.Patch).(model.AssetTarget)
		}
		if !ok {
			return nil, fmt.Errorf("%s: %w", h.res.Name(), ErrNoAssetTarget)
		}

		assetURL, err := h.Upload(ctx, *s.Asset, s.Kind)
		if err != nil {
			return nil, err
		}
		target.SetAssetURL(assetURL)
	}

	if s.ID == 0 {
		return h.Create(ctx, s.Create)
	}
	return h.Update(ctx, s.ID, s.Patch)
}

func (h *Hook[T, C, U]) mutation(op string) query.Mutation {
	inv := append([]string{h.res.Name()}, h.opts.Invalidates...)
	if op != "update" {
		inv = append(inv, StatisticsResource)
	}
	return query.Mutation{Resource: h.res.Name(), Op: op, Invalidates: inv}
}

// Single — чтение одиночного ресурса (статистика) через кэш.
type Single[T any] struct {
	res   *apiclient.Single[T]
	cache *query.Cache
}

// NewSingle создаёт чтение одиночного ресурса.
func NewSingle[T any](res *apiclient.Single[T], cache *query.Cache) *Single[T] {
	return &Single[T]{res: res, cache: cache}
}

// Get читает значение через кэш.
func (s *Single[T]) Get(ctx context.Context) (*T, error) {
	return query.Fetch(ctx, s.cache, query.NewKey(s.res.Name(), nil), s.res.Get)
}
