package resilience

import (
	"context"
	"sync"
	"time"
)

// Clock источник "сейчас" для подписей относительного времени
type Clock interface {
	Now() time.Time
}

// TickClock один тикающий источник на процесс: все представления, собранные в одном
// тике, видят одно и то же "сейчас", поэтому баннер и бейдж не расходятся на минуту.
type TickClock struct {
	mu       sync.RWMutex
	now      time.Time
	interval time.Duration
	source   func() time.Time
	subs     []chan time.Time
	stopped  bool
}

func NewTickClock(interval time.Duration, source func() time.Time) *TickClock {
	if interval <= 0 {
		interval = ClockTick
	}
	if source == nil {
		source = time.Now
	}
	return &TickClock{
		now:      source(),
		interval: interval,
		source:   source,
	}
}

func (c *TickClock) Now() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.now
}

// Subscribe канал получает каждое новое значение; медленный подписчик пропускает тики.
// После остановки Run канал приходит уже закрытым.
func (c *TickClock) Subscribe() <-chan time.Time {
	ch := make(chan time.Time, 1)
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stopped {
		close(ch)
		return ch
	}
	c.subs = append(c.subs, ch)
	return ch
}

// Tick продвигает часы и рассылает значение подписчикам
func (c *TickClock) Tick() time.Time {
	now := c.source()

	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = now
	for _, ch := range c.subs {
		select {
		case ch <- now:
		default:
		}
	}
	return now
}

// Run тикает до отмены контекста, затем закрывает каналы подписчиков
func (c *TickClock) Run(ctx context.Context) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			c.mu.Lock()
			for _, ch := range c.subs {
				close(ch)
			}
			c.subs = nil
			c.stopped = true
			c.mu.Unlock()
			return
		case <-ticker.C:
			c.Tick()
		}
	}
}

// SystemClock без тика: каждый вызов берет текущее время
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// FixedClock для тестов и одноразовых расчетов
type FixedClock time.Time

func (c FixedClock) Now() time.Time { return time.Time(c) }
