// Package tester is a fluent front end to the runner: configure the event,
// context and checks once, then pick the expected outcome.
//
//	tester.New(handler).
//		Event(map[string]any{"name": "Fred"}).
//		ExpectResult(runner.Check(func(result any, _ runner.Additional) error {
//			...
//		})).
//		Verify(t)
package tester

import (
	"errors"
	"maps"
	"time"

	"github.com/aws/aws-lambda-go/lambdacontext"
	"github.com/sirupsen/logrus"

	"lambda-tester/internal/config"
	"lambda-tester/internal/xray"
	"lambda-tester/pkg/lambda"
	"lambda-tester/pkg/runner"
)

// ErrNoHandler is returned when neither a handler nor a loader produced one.
var ErrNoHandler = errors.New("no handler specified or returned from LoadHandler()")

// Tester holds the run configuration shared by its expectations.
type Tester struct {
	handler     lambda.Handler
	loadHandler func() (lambda.Handler, error)
	after       func(result any, err error)

	event  any
	values lambda.ContextValues
	opts   runner.Options
}

// New creates a tester for handler. handler may be nil when LoadHandler is
// used.
func New(handler lambda.Handler) *Tester {
	return &Tester{handler: handler}
}

// FromEnvironment creates a tester configured from .lambda-tester.json in the
// working directory, after loading .env and setting LAMBDA_TASK_ROOT.
func FromEnvironment(handler lambda.Handler) (*Tester, error) {
	cfg, err := config.Load(".")
	if err != nil {
		return nil, err
	}
	if err := config.Bootstrap(cfg); err != nil {
		return nil, err
	}
	return New(handler).Apply(cfg), nil
}

// Apply copies the project settings onto the tester.
func (t *Tester) Apply(cfg *config.Config) *Tester {
	t.opts.CheckForLeaks = cfg.CheckForResourceLeak
	t.opts.Strict = cfg.Strict
	if cfg.Timeout > 0 {
		t.opts.Timeout = cfg.TimeoutDuration()
	}
	if cfg.XRayPort != xray.DefaultPort {
		t.opts.Tracer = xray.NewServer(xray.WithPort(cfg.XRayPort), xray.WithLogger(t.logger()))
	}
	return t
}

// LoadHandler defers handler resolution to each run.
func (t *Tester) LoadHandler(loader func() (lambda.Handler, error)) *Tester {
	t.loadHandler = loader
	return t
}

// After registers a function called with the outcome of every run.
func (t *Tester) After(fn func(result any, err error)) *Tester {
	t.after = fn
	return t
}

// Event sets the handler event. Maps are copied one level deep.
func (t *Tester) Event(event any) *Tester {
	if m, ok := event.(map[string]any); ok {
		event = maps.Clone(m)
	}
	t.event = event
	return t
}

// Context overrides context fields; unset fields keep their defaults.
func (t *Tester) Context(values lambda.ContextValues) *Tester {
	clientContext, identity := t.values.ClientContext, t.values.Identity
	t.values = values
	if t.values.ClientContext == nil {
		t.values.ClientContext = clientContext
	}
	if t.values.Identity == nil {
		t.values.Identity = identity
	}
	return t
}

func (t *Tester) ClientContext(cc lambdacontext.ClientContext) *Tester {
	t.values.ClientContext = &cc
	return t
}

func (t *Tester) Identity(id lambdacontext.CognitoIdentity) *Tester {
	t.values.Identity = &id
	return t
}

// Timeout enforces d on the run and bounds the remaining time.
func (t *Tester) Timeout(d time.Duration) *Tester {
	t.opts.Timeout = d
	t.opts.EnforceTimeout = d > 0
	return t
}

func (t *Tester) XRay(enabled bool) *Tester {
	t.opts.XRay = enabled
	return t
}

// Strict requires the exact completion channel instead of polarity only.
func (t *Tester) Strict(enabled bool) *Tester {
	t.opts.Strict = enabled
	return t
}

func (t *Tester) CheckForLeaks(enabled bool) *Tester {
	t.opts.CheckForLeaks = enabled
	return t
}

func (t *Tester) Logger(logger logrus.FieldLogger) *Tester {
	t.opts.Logger = logger
	return t
}

// ExpectSucceed expects context.Succeed (or Done without an error).
func (t *Tester) ExpectSucceed(verifier runner.Verifier) *Expectation {
	return t.expect(runner.ContextSucceed, verifier)
}

// ExpectFail expects context.Fail (or Done with an error).
func (t *Tester) ExpectFail(verifier runner.Verifier) *Expectation {
	return t.expect(runner.ContextFail, verifier)
}

// ExpectResult expects callback(nil, result).
func (t *Tester) ExpectResult(verifier runner.Verifier) *Expectation {
	return t.expect(runner.CallbackResult, verifier)
}

// ExpectError expects callback(err).
func (t *Tester) ExpectError(verifier runner.Verifier) *Expectation {
	return t.expect(runner.CallbackError, verifier)
}

// ExpectResolve expects the returned Thenable to resolve.
func (t *Tester) ExpectResolve(verifier runner.Verifier) *Expectation {
	return t.expect(runner.PromiseResolve, verifier)
}

// ExpectReject expects the returned Thenable to reject.
func (t *Tester) ExpectReject(verifier runner.Verifier) *Expectation {
	return t.expect(runner.PromiseReject, verifier)
}

func (t *Tester) expect(state runner.State, verifier runner.Verifier) *Expectation {
	snapshot := *t
	return &Expectation{tester: &snapshot, expected: state, verifier: verifier}
}

func (t *Tester) logger() logrus.FieldLogger {
	if t.opts.Logger != nil {
		return t.opts.Logger
	}
	return logrus.StandardLogger()
}

func (t *Tester) resolveHandler() (lambda.Handler, error) {
	handler := t.handler
	if t.loadHandler != nil {
		loaded, err := t.loadHandler()
		if err != nil {
			return nil, err
		}
		handler = loaded
	}
	if handler == nil {
		return nil, ErrNoHandler
	}
	return handler, nil
}
