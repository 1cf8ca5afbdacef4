// Пакет resources — конфигурация ресурсов портала.
// Каждый ресурс — значение Definition (имя, путь API, фильтры) плюс
// типизированный Hook; шлюз работает с ресурсами через Binding.
package resources

import "github.com/bigkaa/faculty-portal/internal/apiclient"

// Имена ресурсов.
const (
	Faculties     = "faculties"
	Departments   = "departments"
	Positions     = "positions"
	Teachers      = "teachers"
	Publications  = "publications"
	Research      = "research"
	Awards        = "awards"
	Consultations = "consultations"
	Control       = "control"
)

// FilterKind — тип значения фильтра.
type FilterKind int

const (
	// FilterString — строка; пустая после обрезки не отправляется.
	FilterString FilterKind = iota
	// FilterInt — целое; 0 отправляется, отсутствие параметра — нет.
	FilterInt
)

// FilterSpec — фильтр, который принимает список ресурса.
type FilterSpec struct {
	Name string
	Kind FilterKind
}

// Definition — описание ресурса.
type Definition struct {
	// Name — имя ресурса (ключ кэша, путь шлюза /ui/{name})
	Name string
	// Base — базовый путь API
	Base string
	// UserScoped — есть чтение byUser
	UserScoped bool
	// Filters — допустимые фильтры списка
	Filters []FilterSpec
	// Asset — тип файла, прикладываемого к форме ("" — без файла)
	Asset apiclient.AssetKind
	// Parent — ресурс, на который ссылается сущность ("" — нет ссылки)
	Parent string
	// Invalidates — ресурсы, чтения которых устаревают вместе с этим
	Invalidates []string
}

var nameFilter = FilterSpec{Name: "name", Kind: FilterString}

// Definitions — все постраничные ресурсы портала.
var Definitions = []Definition{
	{
		Name:        Faculties,
		Base:        "/api/v1/college",
		Filters:     []FilterSpec{nameFilter},
		Asset:       apiclient.AssetImage,
		// Удаление факультета меняет списки кафедр
		Invalidates: []string{Departments},
	},
	{
		Name:        Departments,
		Base:        "/api/v1/department",
		Filters:     []FilterSpec{nameFilter, {Name: "collegeId", Kind: FilterInt}},
		Asset:       apiclient.AssetImage,
		Parent:      Faculties,
		Invalidates: []string{Teachers},
	},
	{
		Name:    Positions,
		Base:    "/api/v1/position",
		Filters: []FilterSpec{nameFilter},
	},
	{
		Name:    Teachers,
		Base:    "/api/v1/user",
		Filters: []FilterSpec{nameFilter, {Name: "departmentId", Kind: FilterInt}, {Name: "positionId", Kind: FilterInt}},
		Asset:   apiclient.AssetImage,
		Parent:  Departments,
	},
	{
		Name:       Publications,
		Base:       "/api/v1/publication",
		UserScoped: true,
		Filters:    []FilterSpec{nameFilter, {Name: "type", Kind: FilterString}},
		Asset:      apiclient.AssetPDF,
	},
	{
		Name:       Research,
		Base:       "/api/v1/research",
		UserScoped: true,
		Filters:    []FilterSpec{nameFilter},
		Asset:      apiclient.AssetPDF,
	},
	{
		Name:       Awards,
		Base:       "/api/v1/award",
		UserScoped: true,
		Filters:    []FilterSpec{nameFilter, {Name: "type", Kind: FilterString}},
		Asset:      apiclient.AssetPDF,
	},
	{
		Name:       Consultations,
		Base:       "/api/v1/consultation",
		UserScoped: true,
		Filters:    []FilterSpec{nameFilter},
	},
	{
		Name:       Control,
		Base:       "/api/v1/nazorat",
		UserScoped: true,
		Filters:    []FilterSpec{nameFilter},
		Asset:      apiclient.AssetPDF,
	},
}

// StatisticsPath — путь счётчиков главной панели.
const StatisticsPath = "/api/v1/statistic"
