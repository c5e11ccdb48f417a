package explorer

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"
)

var errQueueRunning = errors.New("queue already running")

// Queue is the single-consumer task queue the controller treats as its UI
// thread. Any goroutine may Post; only one goroutine may Run or Drain at a time.
type Queue struct {
	mu      sync.Mutex
	tasks   []func()
	wake    chan struct{}
	closed  bool
	running bool
	stopped chan struct{}
	log     zerolog.Logger
}

// NewQueue creates an open queue.
func NewQueue(log zerolog.Logger) *Queue {
	return &Queue{
		wake: make(chan struct{}, 1),
		log:  log,
	}
}

// Post appends fn. It returns false once the queue is closed.
func (q *Queue) Post(fn func()) bool {
	if fn == nil {
		return false
	}

	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return false
	}
	q.tasks = append(q.tasks, fn)
	q.mu.Unlock()

	select {
	case q.wake <- struct{}{}:
	default:
	}
	return true
}

// Len returns the number of pending tasks.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.tasks)
}

// Drain runs pending tasks, including tasks they post, until the queue is empty.
// It returns the number of tasks run.
func (q *Queue) Drain() int {
	ran := 0
	for {
		q.mu.Lock()
		batch := q.tasks
		q.tasks = nil
		q.mu.Unlock()

		if len(batch) == 0 {
			return ran
		}
		for _, fn := range batch {
			q.run(fn)
			ran++
		}
	}
}

// Run consumes tasks until ctx is done or the queue is closed.
func (q *Queue) Run(ctx context.Context) error {
	q.mu.Lock()
	if q.running {
		q.mu.Unlock()
		return errQueueRunning
	}
	q.running = true
	stopped := make(chan struct{})
	q.stopped = stopped
	q.mu.Unlock()

	defer func() {
		q.mu.Lock()
		q.running = false
		q.mu.Unlock()
		close(stopped)
	}()

	for {
		q.Drain()

		q.mu.Lock()
		closed := q.closed
		q.mu.Unlock()
		if closed {
			q.Drain()
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-q.wake:
		}
	}
}

// Close rejects further posts, waits for a running consumer to finish the
// remaining tasks, and drains whatever is left. It must not be called from a task.
func (q *Queue) Close() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	running, stopped := q.running, q.stopped
	q.mu.Unlock()

	select {
	case q.wake <- struct{}{}:
	default:
	}

	if running {
		<-stopped
	}
	q.Drain()
}

func (q *Queue) run(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			q.log.Error().Interface("panic", r).Msg("queue task panicked")
		}
	}()
	fn()
}
