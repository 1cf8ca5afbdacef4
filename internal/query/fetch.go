// fetch.go — чтение через кэш и мутации с инвалидацией.
package query

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
)

// Fetch возвращает результат чтения key.
// Свежая запись отдаётся из кэша; иначе выполняется fn, причём параллельные
// чтения одного ключа в одной эпохе разделяют один вызов fn.
// Ошибка fn не трогает закэшированное значение.
func Fetch[T any](ctx context.Context, c *Cache, key Key, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	k := key.String()

	if e, ok := c.store.Get(k); ok && c.isFresh(e, key.Resource) {
		if v, ok := e.value.(T); ok {
			cacheHitsTotal.Inc()
			return v, nil
		}
	}
	cacheMissesTotal.Inc()

	epoch, generation := c.epoch(key.Resource)
	flightKey := k + "#" + strconv.FormatUint(generation, 10) + "." + strconv.FormatUint(epoch, 10)

	// Общий запрос не отменяется отменой одного из ожидающих
	shared := context.WithoutCancel(ctx)
	ch := c.group.DoChan(flightKey, func() (any, error) {
		fetchesTotal.WithLabelValues(key.Resource).Inc()
		v, err := fn(shared)
		if err != nil {
			return nil, err
		}
		c.put(k, v, epoch, generation, c.now())
		return v, nil
	})

	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return zero, res.Err
		}
		v, ok := res.Val.(T)
		if !ok {
			return zero, fmt.Errorf("кэш %s: неожиданный тип %T", key.Resource, res.Val)
		}
		return v, nil
	}
}

// Mutation описывает операцию записи.
type Mutation struct {
	// Resource — ресурс, к которому относится операция
	Resource string
	// Op — имя операции (create, update, delete, upload)
	Op string
	// Invalidates — ресурсы, чтения которых устаревают при успехе.
	// Пусто — мутация не влияет на кэш (upload).
	Invalidates []string
}

// Mutate выполняет fn. При успехе инвалидирует m.Invalidates, при ошибке кэш
// не меняется, пользователь получает ровно одно уведомление, ошибка возвращается.
func Mutate[T any](ctx context.Context, c *Cache, m Mutation, fn func(context.Context) (T, error)) (T, error) {
	v, err := fn(ctx)
	if err != nil {
		c.logger.Warn("Мутация не выполнена",
			slog.String("resource", m.Resource),
			slog.String("op", m.Op),
			slog.String("error", err.Error()),
		)
		if c.notifier != nil {
			c.notifier.MutationFailed(ctx, m.Resource, m.Op, err)
		}
		return v, err
	}

	if len(m.Invalidates) > 0 {
		c.Invalidate(m.Invalidates...)
	}
	if c.notifier != nil {
		c.notifier.MutationSucceeded(ctx, m.Resource, m.Op)
	}
	return v, nil
}
