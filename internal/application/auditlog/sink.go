package auditlog

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/questionlab/qscore/internal/domain/auditlog"
)

const appendTimeout = 5 * time.Second

// Sink decouples request handling from log persistence: entries go into a
// bounded channel consumed by a single writer goroutine, so a slow or
// failing repository can never block the request path. When the buffer is
// full the entry is dropped and counted.
type Sink struct {
	repo    auditlog.Repository
	logger  *zap.Logger
	ch      chan *auditlog.Entry
	wg      sync.WaitGroup
	dropped uint64

	closeOnce sync.Once
}

func NewSink(repo auditlog.Repository, logger *zap.Logger, buffer int) *Sink {
	if buffer <= 0 {
		buffer = 256
	}
	s := &Sink{
		repo:   repo,
		logger: logger,
		ch:     make(chan *auditlog.Entry, buffer),
	}
	s.wg.Add(1)
	go s.run()
	return s
}

// Emit queues an entry without blocking. Failures are swallowed; the
// response to the caller never depends on the log write.
func (s *Sink) Emit(e *auditlog.Entry) {
	select {
	case s.ch <- e:
	default:
		atomic.AddUint64(&s.dropped, 1)
		s.logger.Warn("audit log buffer full, dropping entry", zap.String("api_key", e.APIKey))
	}
}

// Dropped reports how many entries were discarded on a full buffer.
func (s *Sink) Dropped() uint64 {
	return atomic.LoadUint64(&s.dropped)
}

// Close stops accepting entries and drains the buffer.
func (s *Sink) Close() {
	s.closeOnce.Do(func() { close(s.ch) })
	s.wg.Wait()
}

func (s *Sink) run() {
	defer s.wg.Done()
	for e := range s.ch {
		ctx, cancel := context.WithTimeout(context.Background(), appendTimeout)
		if err := s.repo.Append(ctx, e); err != nil {
			s.logger.Warn("audit log append failed", zap.Error(err))
		}
		cancel()
	}
}
