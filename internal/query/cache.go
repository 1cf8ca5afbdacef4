// Пакет query — общий для процесса кэш чтений и обёртка мутаций.
// Чтения ключуются Key, одинаковые ключи разделяют один запрос к API.
// Успешная мутация инвалидирует все чтения ресурса независимо от параметров.
package query

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"golang.org/x/sync/singleflight"
)

// Prometheus-метрики кэша.
var (
	cacheHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "portal_query_cache_hits_total",
		Help: "Общее количество попаданий в кэш чтений.",
	})
	cacheMissesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "portal_query_cache_misses_total",
		Help: "Общее количество промахов кэша чтений.",
	})
	fetchesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "portal_query_fetches_total",
		Help: "Количество фактических запросов к API из кэша чтений.",
	}, []string{"resource"})
	invalidationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "portal_query_invalidations_total",
		Help: "Количество инвалидаций ресурса после успешных мутаций.",
	}, []string{"resource"})
)

// Options — параметры кэша.
type Options struct {
	// MaxEntries — максимальное количество закэшированных чтений
	MaxEntries int
	// StaleTime — сколько чтение считается свежим
	StaleTime time.Duration
	// GCTime — время жизни записи в LRU (после него запись удаляется)
	GCTime time.Duration
}

// entry — закэшированный результат чтения.
type entry struct {
	value     any
	fetchedAt time.Time
	// epoch — эпоха ресурса на момент начала запроса
	epoch uint64
	// generation — поколение кэша на момент начала запроса
	generation uint64
}

// State — состояние записи кэша.
type State int

const (
	// StateMissing — записи нет.
	StateMissing State = iota
	// StateFresh — запись свежая.
	StateFresh
	// StateStale — запись устарела (будет перезапрошена при следующем чтении).
	StateStale
)

// Notifier получает результаты мутаций для уведомления пользователя.
type Notifier interface {
	MutationSucceeded(ctx context.Context, resource, op string)
	MutationFailed(ctx context.Context, resource, op string, err error)
}

// Cache — общий кэш чтений.
type Cache struct {
	store     *expirable.LRU[string, *entry]
	staleTime time.Duration
	group     singleflight.Group
	notifier  Notifier
	logger    *slog.Logger

	// mu защищает epochs, generation и атомарность «проверить эпоху + записать»
	mu     sync.Mutex
	epochs map[string]uint64
	// generation растёт при Purge; записи прошлых поколений не сохраняются
	generation uint64
	now        func() time.Time
}

// New создаёт кэш. notifier может быть nil.
func New(opts Options, notifier Notifier, logger *slog.Logger) *Cache {
	if opts.MaxEntries <= 0 {
		opts.MaxEntries = 512
	}
	if opts.StaleTime <= 0 {
		opts.StaleTime = 30 * time.Second
	}
	if opts.GCTime < opts.StaleTime {
		opts.GCTime = 5 * time.Minute
	}

	return &Cache{
		store:     expirable.NewLRU[string, *entry](opts.MaxEntries, nil, opts.GCTime),
		staleTime: opts.StaleTime,
		notifier:  notifier,
		logger:    logger.With(slog.String("component", "query_cache")),
		epochs:    make(map[string]uint64),
		now:       time.Now,
	}
}

// epoch возвращает текущую эпоху ресурса и поколение кэша.
func (c *Cache) epoch(resource string) (epoch, generation uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.epochs[resource], c.generation
}

// Invalidate помечает устаревшими все чтения перечисленных ресурсов.
func (c *Cache) Invalidate(resources ...string) {
	c.mu.Lock()
	for _, r := range resources {
		c.epochs[r]++
	}
	c.mu.Unlock()

	for _, r := range resources {
		invalidationsTotal.WithLabelValues(r).Inc()
		c.logger.Debug("Ресурс инвалидирован", slog.String("resource", r))
	}
}

// Purge удаляет все записи и начинает новое поколение кэша.
// Результаты запросов, начатых до Purge, не сохраняются.
// Вызывается при смене пользователя сессии.
func (c *Cache) Purge() {
	c.mu.Lock()
	c.generation++
	c.store.Purge()
	c.mu.Unlock()
	c.logger.Debug("Кэш очищен")
}

// Peek возвращает закэшированное значение без запроса к API.
func (c *Cache) Peek(key Key) (any, State) {
	e, ok := c.store.Peek(key.String())
	if !ok {
		return nil, StateMissing
	}
	if c.isFresh(e, key.Resource) {
		return e.value, StateFresh
	}
	return e.value, StateStale
}

// Len возвращает количество записей.
func (c *Cache) Len() int {
	return c.store.Len()
}

func (c *Cache) isFresh(e *entry, resource string) bool {
	epoch, generation := c.epoch(resource)
	if e.epoch != epoch || e.generation != generation {
		return false
	}
	return c.now().Sub(e.fetchedAt) < c.staleTime
}

// put записывает результат, если он не старее уже записанного.
// Результат, полученный в прошлой эпохе, сохраняется, но сразу считается устаревшим.
// Результат прошлого поколения отбрасывается.
func (c *Cache) put(key string, value any, epoch, generation uint64, fetchedAt time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if generation != c.generation {
		return
	}
	if existing, ok := c.store.Peek(key); ok && existing.epoch > epoch {
		return
	}
	c.store.Add(key, &entry{value: value, fetchedAt: fetchedAt, epoch: epoch, generation: generation})
}
