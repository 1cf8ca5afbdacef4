// Пакет notify — уведомления пользователя (toast) о результатах мутаций.
// Center реализует query.Notifier: каждая неудачная мутация даёт ровно одно
// уведомление об ошибке, успешная create/update/delete — уведомление об успехе.
package notify

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Level — уровень уведомления.
type Level string

const (
	// LevelSuccess — операция выполнена.
	LevelSuccess Level = "success"
	// LevelError — операция не выполнена.
	LevelError Level = "error"
)

// Notification — одно transient-уведомление.
type Notification struct {
	ID        uuid.UUID `json:"id"`
	Level     Level     `json:"level"`
	Resource  string    `json:"resource"`
	Op        string    `json:"op"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"createdAt"`
}

// Center — ограниченная очередь уведомлений с подписчиками.
type Center struct {
	mapper *Mapper
	bundle *Bundle
	logger *slog.Logger

	mu          sync.Mutex
	queue       []Notification
	capacity    int
	subscribers map[int]chan Notification
	nextSubID   int
}

// NewCenter создаёт центр уведомлений. capacity — сколько непрочитанных хранить.
func NewCenter(bundle *Bundle, capacity int, logger *slog.Logger) *Center {
	if capacity <= 0 {
		capacity = 50
	}
	return &Center{
		mapper:      NewMapper(bundle),
		bundle:      bundle,
		logger:      logger.With(slog.String("component", "notify")),
		capacity:    capacity,
		subscribers: make(map[int]chan Notification),
	}
}

// Mapper возвращает Mapper центра.
func (c *Center) Mapper() *Mapper {
	return c.mapper
}

// MutationSucceeded реализует query.Notifier.
// Загрузка файла — промежуточный шаг сохранения, отдельного уведомления не даёт.
func (c *Center) MutationSucceeded(ctx context.Context, resource, op string) {
	switch op {
	case "create", "update", "delete":
	default:
		return
	}
	c.Publish(Notification{
		Level:    LevelSuccess,
		Resource: resource,
		Op:       op,
		Message:  c.bundle.Translate(c.bundle.Lang(ctx), "op."+op),
	})
}

// MutationFailed реализует query.Notifier.
func (c *Center) MutationFailed(ctx context.Context, resource, op string, err error) {
	c.Publish(Notification{
		Level:    LevelError,
		Resource: resource,
		Op:       op,
		Message:  c.mapper.Message(ctx, err),
	})
}

// Publish добавляет уведомление; при переполнении вытесняется самое старое.
func (c *Center) Publish(n Notification) {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.queue = append(c.queue, n)
	if len(c.queue) > c.capacity {
		c.queue = c.queue[len(c.queue)-c.capacity:]
	}

	for id, ch := range c.subscribers {
		select {
		case ch <- n:
		default:
			c.logger.Debug("Подписчик не успевает, уведомление пропущено", slog.Int("subscriber", id))
		}
	}
}

// Drain возвращает и удаляет все накопленные уведомления.
func (c *Center) Drain() []Notification {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := c.queue
	c.queue = nil
	if out == nil {
		out = []Notification{}
	}
	return out
}

// Subscribe возвращает канал новых уведомлений и функцию отписки.
func (c *Center) Subscribe(buffer int) (<-chan Notification, func()) {
	ch := make(chan Notification, buffer)

	c.mu.Lock()
	id := c.nextSubID
	c.nextSubID++
	c.subscribers[id] = ch
	c.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			c.mu.Lock()
			delete(c.subscribers, id)
			c.mu.Unlock()
			close(ch)
		})
	}
}
