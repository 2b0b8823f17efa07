package lambda

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
)

// ErrNilRejection replaces a nil error passed to a reject function.
var ErrNilRejection = errors.New("promise rejected with nil error")

// Thenable is anything a handler can return to settle asynchronously.
type Thenable interface {
	Then(onResolve func(value any), onReject func(err error))
}

// PanicError wraps a recovered panic and the stack at the point of recovery.
type PanicError struct {
	Value any
	Stack []byte
}

// NewPanicError captures the current stack for a recovered value.
func NewPanicError(value any) *PanicError {
	return &PanicError{Value: value, Stack: debug.Stack()}
}

func (e *PanicError) Error() string {
	if err, ok := e.Value.(error); ok {
		return err.Error()
	}
	return fmt.Sprint(e.Value)
}

func (e *PanicError) Unwrap() error {
	err, _ := e.Value.(error)
	return err
}

type settleHandler struct {
	onResolve func(any)
	onReject  func(error)
}

// Promise is a write-once settlement. The first resolve or reject wins.
type Promise struct {
	mu       sync.Mutex
	settled  bool
	value    any
	err      error
	handlers []settleHandler
	done     chan struct{}
}

func newPromise() *Promise {
	return &Promise{done: make(chan struct{})}
}

// NewPromise runs executor synchronously. A panic inside executor rejects the
// promise.
func NewPromise(executor func(resolve func(any), reject func(error))) (p *Promise) {
	p = newPromise()
	defer func() {
		if r := recover(); r != nil {
			p.reject(NewPanicError(r))
		}
	}()
	executor(p.resolve, p.reject)
	return p
}

// Go runs fn on a new goroutine and settles with its outcome.
func Go(fn func() (any, error)) *Promise {
	p := newPromise()
	go func() {
		defer func() {
			if r := recover(); r != nil {
				p.reject(NewPanicError(r))
			}
		}()
		value, err := fn()
		if err != nil {
			p.reject(err)
			return
		}
		p.resolve(value)
	}()
	return p
}

// Resolve returns a promise already resolved with value.
func Resolve(value any) *Promise {
	p := newPromise()
	p.resolve(value)
	return p
}

// Reject returns a promise already rejected with err.
func Reject(err error) *Promise {
	p := newPromise()
	p.reject(err)
	return p
}

func (p *Promise) resolve(value any) {
	p.settle(value, nil)
}

func (p *Promise) reject(err error) {
	if err == nil {
		err = ErrNilRejection
	}
	p.settle(nil, err)
}

func (p *Promise) settle(value any, err error) {
	p.mu.Lock()
	if p.settled {
		p.mu.Unlock()
		return
	}
	p.settled = true
	p.value = value
	p.err = err
	handlers := p.handlers
	p.handlers = nil
	close(p.done)
	p.mu.Unlock()

	for _, h := range handlers {
		p.dispatch(h)
	}
}

func (p *Promise) dispatch(h settleHandler) {
	if p.err != nil {
		if h.onReject != nil {
			h.onReject(p.err)
		}
		return
	}
	if h.onResolve != nil {
		h.onResolve(p.value)
	}
}

// Then registers settlement callbacks. Callbacks registered after
// settlement run immediately on the caller's goroutine.
func (p *Promise) Then(onResolve func(value any), onReject func(err error)) {
	h := settleHandler{onResolve: onResolve, onReject: onReject}

	p.mu.Lock()
	if !p.settled {
		p.handlers = append(p.handlers, h)
		p.mu.Unlock()
		return
	}
	p.mu.Unlock()

	p.dispatch(h)
}

// Done is closed once the promise settles.
func (p *Promise) Done() <-chan struct{} {
	return p.done
}

// Await blocks until settlement or ctx is done.
func (p *Promise) Await(ctx context.Context) (any, error) {
	select {
	case <-p.done:
		return p.value, p.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

type settlement struct {
	value any
	err   error
}

// Await waits on any Thenable.
func Await(ctx context.Context, t Thenable) (any, error) {
	if p, ok := t.(*Promise); ok {
		return p.Await(ctx)
	}

	ch := make(chan settlement, 1)
	offer := func(s settlement) {
		select {
		case ch <- s:
		default:
		}
	}
	t.Then(
		func(value any) { offer(settlement{value: value}) },
		func(err error) {
			if err == nil {
				err = ErrNilRejection
			}
			offer(settlement{err: err})
		},
	)

	select {
	case s := <-ch:
		return s.value, s.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
