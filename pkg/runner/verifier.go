package runner

import (
	"context"
	"time"

	"lambda-tester/pkg/lambda"
)

// Additional is the second verifier argument.
type Additional struct {
	ExecTime time.Duration
	XRay     *XRayInfo // set when tracing was enabled
}

// XRayInfo holds the segments collected during the run.
type XRayInfo struct {
	Segments []map[string]any
}

// Verifier inspects the classified result. Its value becomes the run result;
// its error fails the run.
type Verifier interface {
	Verify(ctx context.Context, result any, info Additional) (any, error)
}

// VerifyFunc is a synchronous verifier returning a value.
type VerifyFunc func(result any, info Additional) (any, error)

func (f VerifyFunc) Verify(_ context.Context, result any, info Additional) (value any, err error) {
	defer recoverInto(&err)
	return f(result, info)
}

// Check is a synchronous verifier that only asserts; the run result is the
// classified result.
type Check func(result any, info Additional) error

func (f Check) Verify(_ context.Context, result any, info Additional) (value any, err error) {
	defer recoverInto(&err)
	if err := f(result, info); err != nil {
		return nil, err
	}
	return result, nil
}

// PromiseVerifier returns a Thenable that is awaited.
type PromiseVerifier func(result any, info Additional) lambda.Thenable

func (f PromiseVerifier) Verify(ctx context.Context, result any, info Additional) (any, error) {
	t, err := f.start(result, info)
	if err != nil {
		return nil, err
	}
	if !lambda.IsTruthy(t) {
		return nil, nil
	}
	return lambda.Await(ctx, t)
}

func (f PromiseVerifier) start(result any, info Additional) (t lambda.Thenable, err error) {
	defer recoverInto(&err)
	return f(result, info), nil
}

// CallbackVerifier signals completion through done; a non-nil err fails the run.
type CallbackVerifier func(result any, info Additional, done func(err error, value any))

func (f CallbackVerifier) Verify(ctx context.Context, result any, info Additional) (any, error) {
	p := lambda.NewPromise(func(resolve func(any), reject func(error)) {
		f(result, info, func(err error, value any) {
			if err != nil {
				reject(err)
				return
			}
			resolve(value)
		})
	})
	return p.Await(ctx)
}

func recoverInto(err *error) {
	if r := recover(); r != nil {
		*err = lambda.NewPanicError(r)
	}
}
