package worker

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/ironsheep/pixel-cleanup/internal/raster"
)

type result struct {
	out *raster.Buffer
	err error
}

type job struct {
	task     Task
	progress raster.ProgressFunc
	reply    chan result
}

// Pool is a Transport backed by a fixed number of goroutines.
//
// Thread safety: Pool is safe for concurrent use.
type Pool struct {
	registry Registry
	workers  int

	queue chan job
	done  chan struct{}
	wg    sync.WaitGroup

	running   atomic.Bool
	initOnce  sync.Once
	closeOnce sync.Once
}

// NewPool creates a pool of the given size. If workers is 0 or negative,
// GOMAXPROCS is used. Workers start on Init.
func NewPool(workers int, registry Registry) *Pool {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &Pool{
		registry: registry,
		workers:  workers,
		queue:    make(chan job, workers*2),
		done:     make(chan struct{}),
	}
}

// Init starts the worker goroutines. Calling it again is a no-op; calling
// it after Close fails.
func (p *Pool) Init() error {
	select {
	case <-p.done:
		return fmt.Errorf("%w: pool closed", ErrUnavailable)
	default:
	}

	p.initOnce.Do(func() {
		p.wg.Add(p.workers)
		for i := 0; i < p.workers; i++ {
			go p.worker()
		}
		p.running.Store(true)
	})
	return nil
}

// IsAvailable reports whether the pool is started and not closed.
func (p *Pool) IsAvailable() bool {
	return p.running.Load()
}

// Workers returns the number of worker goroutines.
func (p *Pool) Workers() int {
	return p.workers
}

// Close stops the workers after their current task and waits for them.
func (p *Pool) Close() {
	p.closeOnce.Do(func() {
		p.running.Store(false)
		close(p.done)
	})
	p.wg.Wait()
}

func (p *Pool) worker() {
	defer p.wg.Done()
	for {
		select {
		case <-p.done:
			return
		case j := <-p.queue:
			j.reply <- p.safeRun(j)
		}
	}
}

// safeRun turns a panic inside an operation into an error so one bad task
// cannot take the pool down.
func (p *Pool) safeRun(j job) (res result) {
	defer func() {
		if r := recover(); r != nil {
			res = result{err: fmt.Errorf("%s: worker panic: %v", j.task.Operation, r)}
		}
	}()
	out, err := run(p.registry, j.task, j.progress)
	return result{out: out, err: err}
}

// Execute queues task and waits for its result.
func (p *Pool) Execute(ctx context.Context, task Task, progress raster.ProgressFunc) (*raster.Buffer, error) {
	if !p.running.Load() {
		return nil, ErrUnavailable
	}

	// Progress stops reaching the caller once it has given up waiting.
	var waiting atomic.Bool
	waiting.Store(true)
	defer waiting.Store(false)
	forward := func(percent float64, stage string) {
		if waiting.Load() {
			progress.Report(percent, stage)
		}
	}

	j := job{task: task, progress: forward, reply: make(chan result, 1)}
	select {
	case p.queue <- j:
	case <-p.done:
		return nil, fmt.Errorf("%w: pool closed", ErrUnavailable)
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	select {
	case r := <-j.reply:
		return r.out, r.err
	case <-p.done:
		return nil, fmt.Errorf("%w: pool closed", ErrUnavailable)
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
