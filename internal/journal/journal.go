package journal

/*
Journal пишет каждую резолюцию в PostgreSQL, не задерживая ответ пользователю.

- Неблокирующая запись: Log кладет запись в буферизованный канал; при переполнении
  запись сбрасывается с ошибкой в лог (Load Shedding), горячий путь не ждет БД.
- Пачки: воркер копит записи и пишет одной вставкой по таймеру или при достижении batchSize.
- Drain: Stop закрывает канал, воркер вычитывает остаток и делает финальный flush.
*/

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// Storage куда физически пишутся записи
type Storage interface {
	WriteBatch(ctx context.Context, entries []Entry) error
}

type Logger interface {
	Log(e Entry)
}

type Options struct {
	BufferSize    int
	BatchSize     int
	FlushInterval time.Duration
	// BufferFill gauge заполненности канала; nil без метрики
	BufferFill prometheus.Gauge
}

func (o *Options) defaults() {
	if o.BufferSize <= 0 {
		o.BufferSize = 10000
	}
	if o.BatchSize <= 0 {
		o.BatchSize = 100
	}
	if o.FlushInterval <= 0 {
		o.FlushInterval = 500 * time.Millisecond
	}
}

type Journal struct {
	ch     chan Entry
	repo   Storage
	opts   Options
	logger *zap.Logger
	wg     sync.WaitGroup

	closeMu  sync.RWMutex
	isClosed atomic.Bool
}

func New(repo Storage, opts Options, logger *zap.Logger) *Journal {
	opts.defaults()
	return &Journal{
		ch:     make(chan Entry, opts.BufferSize),
		repo:   repo,
		opts:   opts,
		logger: logger.With(zap.String("mod", "journal")),
	}
}

func (j *Journal) Start() {
	j.wg.Add(1)
	go j.worker()
}

// Stop закрывает вход и ждет, пока воркер допишет остаток
func (j *Journal) Stop() {
	j.closeMu.Lock()
	if j.isClosed.Swap(true) {
		j.closeMu.Unlock()
		return
	}
	j.logger.Info("stopping journal: closing channel and flushing buffer...")
	close(j.ch)
	j.closeMu.Unlock()

	j.wg.Wait()
	j.logger.Info("journal stopped gracefully")
}

func (j *Journal) Log(e Entry) {
	if e.ResolvedAt.IsZero() {
		e.ResolvedAt = time.Now()
	}

	// RLock держит close(ch) снаружи, пока идет отправка
	j.closeMu.RLock()
	defer j.closeMu.RUnlock()
	if j.isClosed.Load() {
		j.logger.Warn("journal entry dropped: journal is stopping", zap.String("id", e.ID))
		return
	}

	select {
	case j.ch <- e:
		if j.opts.BufferFill != nil {
			j.opts.BufferFill.Set(float64(len(j.ch)))
		}
	default:
		j.logger.Error("journal_buffer_overflow",
			zap.String("search_id", e.SearchID),
			zap.String("trace_id", e.TraceID),
		)
	}
}

func (j *Journal) worker() {
	defer j.wg.Done()

	batch := make([]Entry, 0, j.opts.BatchSize)
	ticker := time.NewTicker(j.opts.FlushInterval)
	defer ticker.Stop()

	flush := func() {
		if len(batch) == 0 {
			return
		}
		// Background: контекст запроса к этому моменту уже закрыт
		if err := j.repo.WriteBatch(context.Background(), batch); err != nil {
			j.logger.Error("journal flush failed", zap.Int("entries", len(batch)), zap.Error(err))
		}
		batch = make([]Entry, 0, j.opts.BatchSize)
		if j.opts.BufferFill != nil {
			j.opts.BufferFill.Set(float64(len(j.ch)))
		}
	}

	for {
		select {
		case e, ok := <-j.ch:
			if !ok {
				flush()
				j.logger.Info("journal worker finished")
				return
			}
			batch = append(batch, e)
			if len(batch) >= j.opts.BatchSize {
				flush()
			}
		case <-ticker.C:
			flush()
		}
	}
}
