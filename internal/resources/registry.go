// registry.go — набор ресурсов портала поверх общего клиента и кэша.
package resources

import (
	"context"
	"log/slog"

	"github.com/bigkaa/faculty-portal/internal/apiclient"
	"github.com/bigkaa/faculty-portal/internal/domain/model"
	"github.com/bigkaa/faculty-portal/internal/portal"
	"github.com/bigkaa/faculty-portal/internal/query"
)

// UnknownName — имя родителя, которого нет (висячая ссылка).
const UnknownName = "unknown"

// Registry — все ресурсы портала.
type Registry struct {
	bindings   map[string]Binding
	order      []string
	statistics *portal.Single[model.Statistics]
	logger     *slog.Logger
}

// NewRegistry создаёт ресурсы из Definitions.
func NewRegistry(
	client *apiclient.Client,
	cache *query.Cache,
	users portal.UserSource,
	validator *portal.Validator,
	logger *slog.Logger,
) *Registry {
	stats := apiclient.NewSingle[model.Statistics](client, portal.StatisticsResource, StatisticsPath)
	r := &Registry{
		bindings:   make(map[string]Binding, len(Definitions)),
		statistics: portal.NewSingle(stats, cache),
		logger:     logger.With(slog.String("component", "resources")),
	}

	for _, def := range Definitions {
		var b Binding
		switch def.Name {
		case Faculties:
			b = bind[model.Faculty, model.FacultyCreate, model.FacultyPatch](def, client, cache, users, validator, logger)
		case Departments:
			b = bind[model.Department, model.DepartmentCreate, model.DepartmentPatch](def, client, cache, users, validator, logger)
		case Positions:
			b = bind[model.Position, model.PositionCreate, model.PositionPatch](def, client, cache, users, validator, logger)
		case Teachers:
			b = bind[model.Teacher, model.TeacherCreate, model.TeacherPatch](def, client, cache, users, validator, logger)
		case Publications:
			b = bind[model.Publication, model.PublicationCreate, model.PublicationPatch](def, client, cache, users, validator, logger)
		case Research:
			b = bind[model.Research, model.ResearchCreate, model.ResearchPatch](def, client, cache, users, validator, logger)
		case Awards:
			b = bind[model.Award, model.AwardCreate, model.AwardPatch](def, client, cache, users, validator, logger)
		case Consultations:
			b = bind[model.Consultation, model.ConsultationCreate, model.ConsultationPatch](def, client, cache, users, validator, logger)
		case Control:
			b = bind[model.ControlRecord, model.ControlRecordCreate, model.ControlRecordPatch](def, client, cache, users, validator, logger)
		default:
			r.logger.Warn("Ресурс без типа сущности пропущен", slog.String("resource", def.Name))
			continue
		}
		r.bindings[def.Name] = b
		r.order = append(r.order, def.Name)
	}
	return r
}

func bind[T, C, U any](
	def Definition,
	client *apiclient.Client,
	cache *query.Cache,
	users portal.UserSource,
	validator *portal.Validator,
	logger *slog.Logger,
) Binding {
	res := apiclient.NewResource[T, C, U](client, def.Name, def.Base)
	hook := portal.NewHook(res, cache, users, validator, portal.HookOptions{
		UserScoped:  def.UserScoped,
		Invalidates: def.Invalidates,
	}, logger)
	return newBinding(def, hook)
}

// Lookup возвращает ресурс по имени.
func (r *Registry) Lookup(name string) (Binding, bool) {
	b, ok := r.bindings[name]
	return b, ok
}

// Names возвращает имена ресурсов в порядке Definitions.
func (r *Registry) Names() []string {
	return append([]string(nil), r.order...)
}

// Statistics возвращает счётчики главной панели.
func (r *Registry) Statistics(ctx context.Context) (*model.Statistics, error) {
	return r.statistics.Get(ctx)
}

// Parent описывает родителя сущности.
type Parent struct {
	Resource string `json:"resource"`
	ID       int64  `json:"id"`
	Name     string `json:"name"`
}

// ParentOf возвращает родителя сущности ресурса resource.
// Отсутствующий родитель не ошибка: его имя UnknownName.
// false — у ресурса нет ссылки на родителя.
func (r *Registry) ParentOf(ctx context.Context, resource string, entity any) (Parent, bool) {
	b, ok := r.bindings[resource]
	if !ok || b.Definition().Parent == "" {
		return Parent{}, false
	}
	id, ok := parentOf(entity)
	if !ok {
		return Parent{}, false
	}

	p := Parent{Resource: b.Definition().Parent, ID: id, Name: UnknownName}
	parent, ok := r.bindings[p.Resource]
	if !ok || id == 0 {
		return p, true
	}

	got, err := parent.Get(ctx, id)
	if err != nil {
		if !apiclient.IsNotFound(err) {
			r.logger.Debug("Родитель не прочитан",
				slog.String("resource", p.Resource),
				slog.Int64("id", id),
				slog.String("error", err.Error()),
			)
		}
		return p, true
	}
	if name, ok := displayName(got); ok {
		p.Name = name
	}
	return p, true
}
