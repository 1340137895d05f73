package keytree

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Loop is a headless interactive context: posted functions run one at a
// time on the goroutine calling Run, while Go hands work to a bounded
// worker pool and posts the continuation back onto the loop.
type Loop struct {
	mu      sync.Mutex
	queue   []func()
	pending int
	wake    chan struct{}
	workers errgroup.Group
}

// NewLoop creates a loop whose pool runs at most workers tasks at once.
// workers <= 0 leaves the pool unbounded.
func NewLoop(workers int) *Loop {
	l := &Loop{wake: make(chan struct{}, 1)}
	if workers > 0 {
		l.workers.SetLimit(workers)
	}
	return l
}

// Post queues fn to run on the loop.
func (l *Loop) Post(fn func()) {
	if fn == nil {
		return
	}
	l.mu.Lock()
	l.queue = append(l.queue, fn)
	l.mu.Unlock()
	l.signal()
}

// Go implements Executor.
func (l *Loop) Go(work func() func()) {
	l.mu.Lock()
	l.pending++
	l.mu.Unlock()

	task := func() error {
		next := work()
		l.Post(func() {
			l.mu.Lock()
			l.pending--
			l.mu.Unlock()
			if next != nil {
				next()
			}
		})
		return nil
	}
	// The pool may be saturated; never block the loop waiting for a slot.
	if !l.workers.TryGo(task) {
		go l.workers.Go(task)
	}
}

// Run processes posted functions until ctx is cancelled.
func (l *Loop) Run(ctx context.Context) error {
	for {
		l.drain()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.wake:
		}
	}
}

// RunUntilIdle processes posted functions until nothing is queued and no
// dispatched work is outstanding.
func (l *Loop) RunUntilIdle(ctx context.Context) error {
	for {
		l.drain()
		if l.idle() {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.wake:
		}
	}
}

// Wait blocks until every worker task has returned.
func (l *Loop) Wait() {
	_ = l.workers.Wait()
}

func (l *Loop) drain() {
	for {
		l.mu.Lock()
		batch := l.queue
		l.queue = nil
		l.mu.Unlock()
		if len(batch) == 0 {
			return
		}
		for _, fn := range batch {
			fn()
		}
	}
}

func (l *Loop) idle() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.pending == 0 && len(l.queue) == 0
}

func (l *Loop) signal() {
	select {
	case l.wake <- struct{}{}:
	default:
	}
}
