// Package runner invokes a legacy (event, context, callback) handler once and
// resolves which of its completion channels fired first.
//
// A run listens on every channel at the same time: callback(err, result),
// context.Succeed/Fail/Done and the settlement of a returned Thenable. The
// first signal is the outcome; it is then checked against the timeout, the
// leak detector and the expected State, and finally handed to the verifier.
package runner

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"lambda-tester/internal/xray"
	"lambda-tester/pkg/lambda"
	"lambda-tester/pkg/leak"
)

// Runner executes a single handler run against one expected outcome.
type Runner struct {
	expected State
	verifier Verifier
	opts     Options

	timeout        time.Duration
	enforceTimeout bool
	logger         logrus.FieldLogger

	event  any
	values *lambda.ContextValues
}

// New creates a runner expecting the handler to finish through expected.
// verifier may be nil.
func New(expected State, verifier Verifier, opts Options) *Runner {
	r := &Runner{
		expected:       expected,
		verifier:       verifier,
		opts:           opts,
		timeout:        opts.Timeout,
		enforceTimeout: opts.EnforceTimeout || opts.Timeout > 0,
		logger:         opts.Logger,
	}
	if r.timeout <= 0 {
		r.timeout = DefaultTimeout
	}
	if r.logger == nil {
		r.logger = logrus.StandardLogger()
	}
	return r
}

func (r *Runner) Expected() State { return r.expected }
func (r *Runner) Timeout() time.Duration { return r.timeout }
func (r *Runner) EnforcesTimeout() bool { return r.enforceTimeout }
func (r *Runner) Event() any { return r.event }
func (r *Runner) Context() *lambda.ContextValues { return r.values }

// WithEvent stores the event passed to the handler.
func (r *Runner) WithEvent(event any) *Runner {
	r.event = event
	return r
}

// WithContext stores a complete context built from values.
func (r *Runner) WithContext(values lambda.ContextValues) *Runner {
	built := lambda.BuildContext(values)
	r.values = &built
	return r
}

// Run invokes handler and returns the verifier's value, or the classified
// result when there is no verifier. ctx bounds the wait for a handler that
// never completes; it does not interrupt the handler.
func (r *Runner) Run(ctx context.Context, handler lambda.Handler) (result any, err error) {
	if err := r.opts.Validate(); err != nil {
		return nil, err
	}
	if r.expected.IsZero() {
		return nil, fmt.Errorf("runner: no expected outcome")
	}
	if handler == nil {
		return nil, ErrNoHandler
	}

	if r.opts.XRay {
		tracer := r.tracer()
		if err := tracer.Start(ctx); err != nil {
			return nil, err
		}
		defer func() {
			if stopErr := tracer.Stop(); stopErr != nil && err == nil {
				result, err = nil, stopErr
			}
		}()
	}

	// The tracer's listener is running by now and belongs to the baseline.
	var snapshot leak.Snapshot
	if r.opts.CheckForLeaks {
		snapshot = r.detector().Capture()
	}

	start := time.Now()
	hr, err := r.invoke(ctx, handler, start)
	if err != nil {
		return nil, err
	}
	execTime := time.Since(start)

	r.logger.WithFields(logrus.Fields{
		"expected":     r.expected.Name(),
		"state":        hr.State.Name(),
		"exec_time_ms": execTime.Milliseconds(),
	}).Debug("Handler completed")

	if r.enforceTimeout && execTime > r.timeout {
		return nil, &TimeoutError{ExecTime: execTime, Timeout: r.timeout}
	}

	if snapshot != nil {
		if handles := snapshot.Diff(); len(handles) > 0 {
			return nil, &LeakError{Handles: handles}
		}
	}

	classified, err := Classify(r.expected, r.opts.Strict, hr)
	if err != nil {
		return nil, err
	}

	if r.verifier == nil {
		return classified, nil
	}

	info := Additional{ExecTime: execTime}
	if r.opts.XRay {
		tracer := r.tracer()
		if err := tracer.Settle(ctx); err != nil {
			return nil, err
		}
		info.XRay = &XRayInfo{Segments: tracer.Segments()}
	}

	return r.verifier.Verify(ctx, classified, info)
}

func (r *Runner) tracer() Tracer {
	if r.opts.Tracer != nil {
		return r.opts.Tracer
	}
	return xray.Default()
}

func (r *Runner) detector() leak.Detector {
	if r.opts.Detector != nil {
		return r.opts.Detector
	}
	return leak.Default()
}

func (r *Runner) contextValues() lambda.ContextValues {
	if r.values == nil {
		r.WithContext(lambda.ContextValues{})
	}
	return *r.values
}

// invoke calls the handler on the current goroutine with every completion
// channel wired, then waits for the first signal.
func (r *Runner) invoke(ctx context.Context, handler lambda.Handler, start time.Time) (HandlerResult, error) {
	race := newRace(r.logger)
	lc := lambda.NewContext(r.contextValues(), race, start, r.timeout)

	r.logger.WithFields(logrus.Fields{
		"expected":       r.expected.Name(),
		"aws_request_id": lc.AwsRequestID,
	}).Debug("Invoking handler")

	race.call(handler, r.event, lc)

	select {
	case o := <-race.outcomes:
		return o.result, o.err
	case <-ctx.Done():
		return HandlerResult{}, fmt.Errorf("waiting for handler to complete: %w", ctx.Err())
	}
}

type outcome struct {
	result HandlerResult
	err    error
}

// race is the write-once cell shared by all completion channels.
type race struct {
	once     sync.Once
	outcomes chan outcome
	logger   logrus.FieldLogger
}

func newRace(logger logrus.FieldLogger) *race {
	return &race{
		outcomes: make(chan outcome, 1),
		logger:   logger,
	}
}

func (r *race) settle(o outcome) {
	won := false
	r.once.Do(func() {
		r.outcomes <- o
		won = true
	})
	if won {
		return
	}

	fields := logrus.Fields{"state": o.result.State.Name()}
	if o.err != nil {
		fields["error"] = o.err.Error()
	}
	r.logger.WithFields(fields).Warn("Ignoring completion signal, handler already completed")
}

// call runs the handler and attaches to its promise. A panic settles the race
// with a terminal error unless a signal arrived before it.
func (r *race) call(handler lambda.Handler, event any, lc *lambda.Context) {
	defer func() {
		if rec := recover(); rec != nil {
			r.settle(outcome{err: lambda.NewPanicError(rec)})
		}
	}()

	ret := handler(event, lc, r.callback)
	if lambda.IsTruthy(ret) {
		ret.Then(r.resolve, r.reject)
	}
}

func (r *race) Succeed(result any) {
	r.settle(outcome{result: HandlerResult{State: ContextSucceed, Result: result}})
}

func (r *race) Fail(reason any) {
	r.settle(outcome{result: HandlerResult{State: ContextFail, Reason: reason}})
}

func (r *race) callback(err any, result any) {
	if lambda.IsTruthy(err) {
		r.settle(outcome{result: HandlerResult{State: CallbackError, Reason: err, Result: result}})
		return
	}
	r.settle(outcome{result: HandlerResult{State: CallbackResult, Result: result}})
}

func (r *race) resolve(value any) {
	r.settle(outcome{result: HandlerResult{State: PromiseResolve, Result: value}})
}

func (r *race) reject(err error) {
	r.settle(outcome{result: HandlerResult{State: PromiseReject, Reason: err}})
}
