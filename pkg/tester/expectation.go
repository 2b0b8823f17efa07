package tester

import (
	"context"
	"testing"

	"lambda-tester/pkg/runner"
)

// Expectation is one configured run waiting to be executed.
type Expectation struct {
	tester   *Tester
	expected runner.State
	verifier runner.Verifier
}

func (e *Expectation) Expected() runner.State { return e.expected }

// Run executes the handler and returns the verifier's value. The After
// function sees the outcome before it is returned.
func (e *Expectation) Run(ctx context.Context) (result any, err error) {
	t := e.tester
	if t.after != nil {
		defer func() { t.after(result, err) }()
	}

	handler, err := t.resolveHandler()
	if err != nil {
		return nil, err
	}

	r := runner.New(e.expected, e.verifier, t.opts).
		WithEvent(t.event).
		WithContext(t.values)

	return r.Run(ctx, handler)
}

// Verify runs the expectation and fails tb on error.
func (e *Expectation) Verify(tb testing.TB) any {
	tb.Helper()

	result, err := e.Run(context.Background())
	if err != nil {
		tb.Fatalf("expected %s: %v", e.expected.Method(), err)
	}
	return result
}

// VerifyDone runs the expectation and reports the error, if any, through
// done. It suits harnesses driven by completion callbacks.
func (e *Expectation) VerifyDone(done func(err error)) {
	_, err := e.Run(context.Background())
	done(err)
}
