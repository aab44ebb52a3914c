package actorutil

import (
	"errors"
	"time"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/primetalk/goio/io"
)

// BackgroundTask runs a blocking function and delivers its result as a
// message. Recover is mandatory when the function can fail, otherwise a
// failed task delivers nothing.
type BackgroundTask[T any] struct {
	ctx     actor.Context
	fn      func() (*T, error)
	timeout *time.Duration
	recover func(error) T
	deliver func(T)
}

func NewBackgroundTask[T any](ctx actor.Context, fn func() (*T, error)) *BackgroundTask[T] {
	return &BackgroundTask[T]{
		ctx: ctx,
		fn:  fn,
	}
}

func (t *BackgroundTask[T]) WithTimeout(timeout time.Duration) *BackgroundTask[T] {
	t.timeout = &timeout
	return t
}

func (t *BackgroundTask[T]) Recover(fn func(error) T) *BackgroundTask[T] {
	t.recover = fn
	return t
}

func (t *BackgroundTask[T]) PipeTo(pid *actor.PID) {
	t.deliver = func(value T) {
		t.ctx.Send(pid, value)
	}
	t.run()
}

func (t *BackgroundTask[T]) run() {
	task := io.Map(io.Eval(t.fn), func(a *T) T {
		if a == nil {
			panic(errors.New("task returned a nil result"))
		}
		return *a
	})
	if t.timeout != nil {
		task = io.WithTimeout[T](*t.timeout)(task)
	}
	result := io.RunSync(task)

	value := result.Value
	if result.Error != nil {
		if t.recover == nil {
			return
		}
		value = t.recover(result.Error)
	}
	if t.deliver != nil {
		t.deliver(value)
	}
}

// MapBackgroundTask rewraps a task so the mapped value is what gets
// delivered. Recover and WithTimeout on the result apply to the whole
// chain.
func MapBackgroundTask[T, T2 any](bgt *BackgroundTask[T], mapFn func(*T) *T2) *BackgroundTask[T2] {
	return &BackgroundTask[T2]{
		ctx: bgt.ctx,
		fn: func() (*T2, error) {
			r, err := bgt.fn()
			if err != nil {
				return nil, err
			}
			return mapFn(r), nil
		},
	}
}
