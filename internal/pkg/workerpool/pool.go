// Package workerpool provides a bounded goroutine pool for CPU-heavy
// image work, built on ants.
package workerpool

import (
	"errors"
	"sync"

	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"
)

var ErrPoolClosed = errors.New("worker pool is closed")

// Config controls pool sizing.
type Config struct {
	Workers   int // number of concurrent workers
	QueueSize int // pending-task buffer before Submit blocks
}

// DefaultConfig returns sizing suitable for thumbnail generation.
func DefaultConfig() *Config {
	return &Config{
		Workers:   4,
		QueueSize: 64,
	}
}

// Pool wraps an ants pool with a closed flag and a wait group so
// Shutdown can drain in-flight tasks.
type Pool struct {
	pool   *ants.Pool
	logger *zap.Logger

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

// New creates a running pool.
func New(cfg *Config, logger *zap.Logger) (*Pool, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if cfg.Workers <= 0 {
		cfg.Workers = DefaultConfig().Workers
	}

	p, err := ants.NewPool(cfg.Workers,
		ants.WithMaxBlockingTasks(cfg.QueueSize),
		ants.WithLogger(&antsLogger{logger: logger}),
	)
	if err != nil {
		return nil, err
	}

	logger.Info("worker pool started", zap.Int("workers", cfg.Workers))

	return &Pool{
		pool:   p,
		logger: logger,
	}, nil
}

// Submit schedules fn on the pool, blocking while the queue is full.
func (p *Pool) Submit(fn func()) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrPoolClosed
	}

	p.wg.Add(1)
	err := p.pool.Submit(func() {
		defer p.wg.Done()
		fn()
	})
	if err != nil {
		p.wg.Done()
		return err
	}
	return nil
}

// Shutdown stops accepting tasks, waits for in-flight work, then
// releases the pool.
func (p *Pool) Shutdown() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	p.mu.Unlock()

	p.wg.Wait()
	p.pool.Release()
	p.logger.Info("worker pool stopped")
}

// antsLogger adapts zap to the ants logger interface.
type antsLogger struct {
	logger *zap.Logger
}

func (l *antsLogger) Printf(format string, args ...interface{}) {
	l.logger.Sugar().Infof(format, args...)
}
