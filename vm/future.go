package vm

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// FutureValue is a pending asynchronous result. It resolves exactly once.
type FutureValue struct {
	ID string

	once   sync.Once
	done   chan struct{}
	result Value
	err    error
}

func NewFuture() *FutureValue {
	return &FutureValue{
		ID:   uuid.NewString(),
		done: make(chan struct{}),
	}
}

func (*FutureValue) isValue()     {}
func (*FutureValue) AsBool() bool { return true }

func (f *FutureValue) String() string {
	return "<future " + f.ID[:8] + ">"
}

// Resolve completes the future. Later calls are ignored.
func (f *FutureValue) Resolve(v Value, err error) {
	f.once.Do(func() {
		if v == nil {
			v = None
		}
		f.result, f.err = v, err
		close(f.done)
	})
}

func (f *FutureValue) Done() <-chan struct{} {
	return f.done
}

func (f *FutureValue) Ready() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}

// Wait blocks until the future resolves or ctx is done.
func (f *FutureValue) Wait(ctx context.Context) (Value, error) {
	select {
	case <-f.done:
		return f.result, f.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// After returns a future that resolves to None once d has elapsed.
func After(ctx context.Context, d time.Duration) *FutureValue {
	f := NewFuture()
	t := time.AfterFunc(d, func() { f.Resolve(None, nil) })
	go func() {
		select {
		case <-f.done:
		case <-ctx.Done():
			t.Stop()
			f.Resolve(nil, ctx.Err())
		}
	}()
	return f
}
