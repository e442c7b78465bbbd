package interp

import (
	"context"
	"sync"
)

// scheduler holds the single execution token. Whoever holds it may run
// script statements; everyone else is blocked in acquire or waiting on a
// future.
type scheduler struct {
	token chan struct{}
}

func newScheduler() *scheduler {
	return &scheduler{token: make(chan struct{}, 1)}
}

// task is one goroutine's claim on the token. A borrowed task runs on the
// token of the task that spawned it until it first suspends or finishes,
// then hands it back.
type task struct {
	sched    *scheduler
	borrowed bool
	owns     bool
	handoff  chan struct{}
	once     sync.Once
}

func (s *scheduler) root() *task {
	return &task{sched: s}
}

func (s *scheduler) borrow() *task {
	return &task{sched: s, borrowed: true, handoff: make(chan struct{})}
}

func (t *task) acquire(ctx context.Context) error {
	select {
	case t.sched.token <- struct{}{}:
		t.owns = true
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// yield gives up the token: back to the spawner when borrowed, otherwise to
// whoever acquires next.
func (t *task) yield() {
	if t.borrowed {
		t.borrowed = false
		t.once.Do(func() { close(t.handoff) })
		return
	}
	if t.owns {
		t.owns = false
		<-t.sched.token
	}
}

type taskKey struct{}

func withTask(ctx context.Context, t *task) context.Context {
	return context.WithValue(ctx, taskKey{}, t)
}

func taskFrom(ctx context.Context) *task {
	t, _ := ctx.Value(taskKey{}).(*task)
	return t
}
