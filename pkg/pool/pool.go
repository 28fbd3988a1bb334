// Package pool implements a fixed-size worker pool with an unbounded
// task queue. Tasks are fire-and-forget: the pool reports nothing back
// to the submitter about an individual task's outcome.
package pool

import (
	"errors"
	"sync"
	"sync/atomic"

	"github.com/sirupsen/logrus"
)

var (
	// ErrInvalidSize is returned by New when the requested size is below 1.
	ErrInvalidSize = errors.New("pool: size must be at least 1")

	// ErrNilTask is returned by Submit for a nil task.
	ErrNilTask = errors.New("pool: nil task")

	// ErrPoolClosed is returned by Submit once shutdown has begun.
	ErrPoolClosed = errors.New("pool: pool is closed")
)

// Task is a call-once unit of work executed by a worker.
type Task func()

// Pool states. Transitions are one-way: running -> draining -> stopped.
const (
	stateRunning int32 = iota
	stateDraining
	stateStopped
)

// Hooks let a caller observe pool activity, e.g. to drive metrics.
// All hooks are optional and must be safe for concurrent use.
type Hooks struct {
	OnSubmit func() // task accepted into the queue
	OnStart  func() // worker picked the task up
	OnFinish func() // task returned normally
	OnPanic  func() // task panicked and was contained
}

// message is what flows through the queue: either a task or a shutdown
// sentinel. Stop enqueues exactly one sentinel per worker, so every
// worker observes its own termination signal even though all workers
// race on the same queue.
type message struct {
	task     Task
	shutdown bool
}

// Pool is a fixed set of workers pulling tasks from a shared unbounded
// queue. The worker count is set at construction and never changes.
type Pool struct {
	size    int
	intake  chan message
	deliver chan message

	state    atomic.Int32
	mu       sync.RWMutex // guards intake against close during Submit
	wg       sync.WaitGroup
	stopOnce sync.Once

	log   logrus.FieldLogger
	hooks Hooks
}

// Option configures a Pool.
type Option func(*Pool)

// WithLogger sets the logger used by workers. Defaults to the standard
// logrus logger.
func WithLogger(log logrus.FieldLogger) Option {
	return func(p *Pool) { p.log = log }
}

// WithHooks installs observation hooks.
func WithHooks(h Hooks) Option {
	return func(p *Pool) { p.hooks = h }
}

// New creates a pool with the given number of workers and starts them.
// Size is validated, never clamped: a size below 1 is a configuration
// error and fails construction.
func New(size int, opts ...Option) (*Pool, error) {
	if size < 1 {
		return nil, ErrInvalidSize
	}

	p := &Pool{
		size:    size,
		intake:  make(chan message),
		deliver: make(chan message),
		log:     logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(p)
	}

	go p.pump()

	p.wg.Add(size)
	for id := 0; id < size; id++ {
		go p.worker(id)
	}
	return p, nil
}

// Size returns the fixed worker count.
func (p *Pool) Size() int {
	return p.size
}

// Submit enqueues a task for execution. It never blocks waiting for a
// free worker: the queue is unbounded, so a live pool accepts the task
// immediately. Submitting to a draining or stopped pool is a caller
// error and returns ErrPoolClosed.
func (p *Pool) Submit(task Task) error {
	if task == nil {
		return ErrNilTask
	}

	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.state.Load() != stateRunning {
		return ErrPoolClosed
	}
	if p.hooks.OnSubmit != nil {
		p.hooks.OnSubmit()
	}
	p.intake <- message{task: task}
	return nil
}

// Stop shuts the pool down and blocks until every queued and in-flight
// task has finished and all workers have exited. The queue is FIFO, so
// the per-worker shutdown sentinels land behind everything already
// submitted. Safe to call more than once.
func (p *Pool) Stop() {
	p.stopOnce.Do(func() {
		p.mu.Lock()
		p.state.Store(stateDraining)
		for i := 0; i < p.size; i++ {
			p.intake <- message{shutdown: true}
		}
		close(p.intake)
		p.mu.Unlock()

		p.wg.Wait()
		p.state.Store(stateStopped)
		p.log.Debug("pool stopped")
	})
}

// pump moves messages from intake to deliver through an in-memory
// buffer, which is what makes submission non-blocking regardless of how
// busy the workers are.
func (p *Pool) pump() {
	defer close(p.deliver)

	var buf []message
	for {
		if len(buf) == 0 {
			m, ok := <-p.intake
			if !ok {
				return
			}
			buf = append(buf, m)
			continue
		}
		select {
		case m, ok := <-p.intake:
			if !ok {
				for _, m := range buf {
					p.deliver <- m
				}
				return
			}
			buf = append(buf, m)
		case p.deliver <- buf[0]:
			buf = buf[1:]
		}
	}
}

// worker is the execution loop: pull one message, run it or exit.
func (p *Pool) worker(id int) {
	defer p.wg.Done()

	log := p.log.WithField("worker", id)
	for m := range p.deliver {
		if m.shutdown {
			log.Debug("worker terminating")
			return
		}
		p.runTask(log, m.task)
	}
}

// runTask executes one task under panic containment. A panicking task
// is logged and swallowed; the worker keeps looping. This also keeps
// the WaitGroup balanced, so Stop always completes even when tasks
// misbehave.
func (p *Pool) runTask(log logrus.FieldLogger, task Task) {
	if p.hooks.OnStart != nil {
		p.hooks.OnStart()
	}
	defer func() {
		if r := recover(); r != nil {
			log.WithField("panic", r).Error("task panicked")
			if p.hooks.OnPanic != nil {
				p.hooks.OnPanic()
			}
			return
		}
		if p.hooks.OnFinish != nil {
			p.hooks.OnFinish()
		}
	}()
	task()
}
