// debounce.go — отложенный запуск по окончании ввода.
package portal

import (
	"sync"
	"time"
)

// DefaultDebounce — пауза ввода перед поисковым запросом.
const DefaultDebounce = 400 * time.Millisecond

// Debouncer выполняет последнюю переданную функцию, когда после неё
// delay не было новых вызовов Trigger.
type Debouncer struct {
	mu      sync.Mutex
	delay   time.Duration
	timer   *time.Timer
	gen     uint64
	stopped bool
}

// NewDebouncer создаёт Debouncer. delay <= 0 — DefaultDebounce.
func NewDebouncer(delay time.Duration) *Debouncer {
	if delay <= 0 {
		delay = DefaultDebounce
	}
	return &Debouncer{delay: delay}
}

// Trigger откладывает fn, отменяя ранее отложенную функцию.
func (d *Debouncer) Trigger(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}
	if d.timer != nil {
		d.timer.Stop()
	}
	d.gen++
	gen := d.gen
	d.timer = time.AfterFunc(d.delay, func() {
		d.mu.Lock()
		// Таймер мог сработать одновременно с новым Trigger или Stop
		current := !d.stopped && gen == d.gen
		d.mu.Unlock()
		if current {
			fn()
		}
	})
}

// Stop отменяет отложенную функцию; последующие Trigger игнорируются.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopped = true
	if d.timer != nil {
		d.timer.Stop()
	}
}
