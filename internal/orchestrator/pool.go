package orchestrator

import (
	"context"
	"errors"
	"runtime"
	"sync"

	"github.com/rs/zerolog"
)

// Task is one unit of background work.
type Task func(ctx context.Context) error

// Pool runs submitted tasks on a fixed set of workers. Unlike a bare
// `go func()`, task failures are observable: they are logged and forwarded
// to an optional callback, so background-path errors surface in tests and
// operations instead of being silently swallowed.
type Pool struct {
	wg     sync.WaitGroup
	tasks  chan Task
	n      int
	logger zerolog.Logger
	onErr  func(error)
}

// NewPool creates a pool with the given worker count (NumCPU when <= 0).
func NewPool(workers int, logger zerolog.Logger, onErr func(error)) *Pool {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &Pool{
		tasks:  make(chan Task, workers*4),
		n:      workers,
		logger: logger,
		onErr:  onErr,
	}
}

// Start launches the workers. They drain until ctx is done.
func (p *Pool) Start(ctx context.Context) {
	for i := 0; i < p.n; i++ {
		p.wg.Add(1)
		go func(id int) {
			defer p.wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case task := <-p.tasks:
					if task == nil {
						continue
					}
					if err := task(ctx); err != nil && !errors.Is(err, context.Canceled) {
						p.logger.Error().Err(err).Int("worker", id).Msg("pool: task failed")
						if p.onErr != nil {
							p.onErr(err)
						}
					}
				}
			}
		}(i)
	}
}

// Submit enqueues a task. A saturated queue is reported to the caller rather
// than applying hidden back-pressure.
func (p *Pool) Submit(task Task) error {
	if task == nil {
		return errors.New("nil task")
	}
	select {
	case p.tasks <- task:
		return nil
	default:
		return errors.New("worker queue full")
	}
}

// Wait blocks until all workers exit.
func (p *Pool) Wait() {
	p.wg.Wait()
}
