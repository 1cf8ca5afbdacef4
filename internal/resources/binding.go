// binding.go — ресурс без параметров типа для обработчиков шлюза.
package resources

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strconv"

	"github.com/bigkaa/faculty-portal/internal/apiclient"
	"github.com/bigkaa/faculty-portal/internal/domain/model"
	"github.com/bigkaa/faculty-portal/internal/portal"
)

// ErrBadRequest — тело или параметры запроса шлюза не разобраны.
var ErrBadRequest = errors.New("некорректный запрос")

// Listing — ListResult с Data любого типа.
type Listing struct {
	Data       any   `json:"data"`
	Total      int   `json:"total"`
	Page       int   `json:"page"`
	Size       int   `json:"size"`
	TotalPages int   `json:"totalPages"`
	IsLoading  bool  `json:"isLoading"`
	NotReady   bool  `json:"notReady"`
	Err        error `json:"-"`
}

// Binding — операции ресурса над JSON.
type Binding interface {
	Definition() Definition
	ParseFilters(q url.Values) ([]apiclient.Filter, error)
	List(ctx context.Context, params apiclient.ListParams) Listing
	ListMine(ctx context.Context, params apiclient.ListParams) Listing
	Get(ctx context.Context, id int64) (any, error)
	Create(ctx context.Context, body io.Reader) (any, error)
	Update(ctx context.Context, id int64, body io.Reader) (any, error)
	Delete(ctx context.Context, id int64) error
	Upload(ctx context.Context, asset apiclient.Asset, kind apiclient.AssetKind) (string, error)
	// Save — создание (id == 0) или изменение с файлом: загрузка строго до записи
	Save(ctx context.Context, id int64, body io.Reader, asset *apiclient.Asset) (any, error)
	// NewView открывает долгоживущее представление списка (mine — ListMine)
	NewView(initial apiclient.ListParams, opts portal.ListViewOptions, mine bool) View
}

// View — ListView без параметра типа.
type View interface {
	SetPage(page int)
	SetPageSize(size int)
	SetFilter(f apiclient.Filter)
	SetSearch(text string)
	Refresh()
	State() Listing
	Params() apiclient.ListParams
	Close()
}

type binding[T, C, U any] struct {
	def  Definition
	hook *portal.Hook[T, C, U]
}

func newBinding[T, C, U any](def Definition, hook *portal.Hook[T, C, U]) *binding[T, C, U] {
	return &binding[T, C, U]{def: def, hook: hook}
}

func (b *binding[T, C, U]) Definition() Definition { return b.def }

// ParseFilters читает фильтры ресурса из query string шлюза.
// Неизвестные параметры игнорируются.
func (b *binding[T, C, U]) ParseFilters(q url.Values) ([]apiclient.Filter, error) {
	filters := make([]apiclient.Filter, 0, len(b.def.Filters))
	for _, fs := range b.def.Filters {
		if !q.Has(fs.Name) {
			continue
		}
		raw := q.Get(fs.Name)
		switch fs.Kind {
		case FilterInt:
			if raw == "" {
				continue
			}
			n, err := strconv.ParseInt(raw, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("%w: фильтр %s: %q не целое число", ErrBadRequest, fs.Name, raw)
			}
			filters = append(filters, apiclient.IntFilter(fs.Name, n))
		default:
			filters = append(filters, apiclient.StringFilter(fs.Name, raw))
		}
	}
	return filters, nil
}

func (b *binding[T, C, U]) List(ctx context.Context, params apiclient.ListParams) Listing {
	return toListing(b.hook.List(ctx, params))
}

func (b *binding[T, C, U]) ListMine(ctx context.Context, params apiclient.ListParams) Listing {
	return toListing(b.hook.ListMine(ctx, params))
}

func (b *binding[T, C, U]) Get(ctx context.Context, id int64) (any, error) {
	return b.hook.Get(ctx, id)
}

func (b *binding[T, C, U]) Create(ctx context.Context, body io.Reader) (any, error) {
	var payload C
	if err := decode(body, &payload); err != nil {
		return nil, err
	}
	return b.hook.Create(ctx, payload)
}

func (b *binding[T, C, U]) Update(ctx context.Context, id int64, body io.Reader) (any, error) {
	var patch U
	if err := decode(body, &patch); err != nil {
		return nil, err
	}
	return b.hook.Update(ctx, id, patch)
}

func (b *binding[T, C, U]) Delete(ctx context.Context, id int64) error {
	return b.hook.Delete(ctx, id)
}

func (b *binding[T, C, U]) Upload(ctx context.Context, asset apiclient.Asset, kind apiclient.AssetKind) (string, error) {
	return b.hook.Upload(ctx, asset, kind)
}

func (b *binding[T, C, U]) Save(ctx context.Context, id int64, body io.Reader, asset *apiclient.Asset) (any, error) {
	s := portal.Save[C, U]{ID: id, Asset: asset, Kind: b.def.Asset}
	var err error
	if id == 0 {
		err = decode(body, &s.Create)
	} else {
		err = decode(body, &s.Patch)
	}
	if err != nil {
		return nil, err
	}
	if asset != nil && b.def.Asset == "" {
		return nil, fmt.Errorf("%w: ресурс %s не принимает файлы", ErrBadRequest, b.def.Name)
	}
	return b.hook.SaveWithAsset(ctx, s)
}

func (b *binding[T, C, U]) NewView(initial apiclient.ListParams, opts portal.ListViewOptions, mine bool) View {
	load := b.hook.List
	if mine {
		load = b.hook.ListMine
	}
	return &view[T]{ListView: portal.NewListView[T](load, initial, opts)}
}

type view[T any] struct {
	*portal.ListView[T]
}

func (v *view[T]) State() Listing {
	return toListing(v.ListView.State())
}

func toListing[T any](r portal.ListResult[T]) Listing {
	var data any = r.Data
	if r.Data == nil {
		data = []T{}
	}
	return Listing{
		Data:       data,
		Total:      r.Total,
		Page:       r.Page,
		Size:       r.Size,
		TotalPages: r.TotalPages,
		IsLoading:  r.IsLoading,
		NotReady:   r.NotReady,
		Err:        r.Err,
	}
}

func decode(body io.Reader, v any) error {
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %w", ErrBadRequest, err)
	}
	return nil
}

// parentOf возвращает id родителя сущности, если он есть.
func parentOf(entity any) (int64, bool) {
	c, ok := entity.(model.Child)
	if !ok {
		return 0, false
	}
	return c.ParentID(), true
}

// displayName возвращает отображаемое имя сущности.
func displayName(entity any) (string, bool) {
	n, ok := entity.(model.Named)
	if !ok {
		return "", false
	}
	return n.DisplayName(), true
}
