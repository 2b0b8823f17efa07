package lambda

import (
	"errors"
	"fmt"
	"reflect"
	"time"

	"github.com/aws/aws-lambda-go/lambdacontext"
)

// Callback is the third handler argument. A truthy err reports a failure,
// otherwise result is the handler's answer.
type Callback func(err any, result any)

// Handler follows the legacy (event, context, callback) invocation contract.
// It may finish through callback, through lc.Succeed/Fail/Done, or by returning
// a Thenable that settles later. A nil return means no promise was produced.
type Handler func(event any, lc *Context, callback Callback) Thenable

// Completion receives the signals raised through a Context.
type Completion interface {
	Succeed(result any)
	Fail(reason any)
}

// Context is the second handler argument: the synthetic execution context plus
// its completion methods.
type Context struct {
	ContextValues

	completion Completion
	start      time.Time
	timeout    time.Duration
}

// NewContext wires values to a completion sink. Remaining time is measured
// from start against timeout.
func NewContext(values ContextValues, completion Completion, start time.Time, timeout time.Duration) *Context {
	return &Context{
		ContextValues: values,
		completion:    completion,
		start:         start,
		timeout:       timeout,
	}
}

// Succeed completes the invocation with result.
func (c *Context) Succeed(result any) {
	c.completion.Succeed(result)
}

// Fail completes the invocation with an error or an error message.
func (c *Context) Fail(reason any) {
	c.completion.Fail(reason)
}

// Done delegates to Fail when reason is truthy and to Succeed otherwise.
func (c *Context) Done(reason any, result any) {
	if IsTruthy(reason) {
		c.completion.Fail(reason)
		return
	}
	c.completion.Succeed(result)
}

// GetRemainingTimeInMillis returns max(0, timeout - elapsed) in milliseconds.
func (c *Context) GetRemainingTimeInMillis() int64 {
	return c.RemainingTime().Milliseconds()
}

// RemainingTime is GetRemainingTimeInMillis as a duration.
func (c *Context) RemainingTime() time.Duration {
	remaining := c.timeout - time.Since(c.start)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// LambdaContext converts the values into the aws-lambda-go representation
// carried by context.Context in native Go handlers.
func (c *Context) LambdaContext() *lambdacontext.LambdaContext {
	lc := &lambdacontext.LambdaContext{
		AwsRequestID:       c.AwsRequestID,
		InvokedFunctionArn: c.InvokedFunctionArn,
	}
	if c.Identity != nil {
		lc.Identity = *c.Identity
	}
	if c.ClientContext != nil {
		lc.ClientContext = *c.ClientContext
	}
	return lc
}

// IsTruthy reports whether v counts as a set error argument: nil, "", false
// and nil pointers do not.
func IsTruthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case string:
		return t != ""
	case bool:
		return t
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return !rv.IsNil()
	}
	return true
}

// ToError promotes a failure reason to an error. Strings become the error
// message; errors pass through unchanged.
func ToError(reason any) error {
	switch t := reason.(type) {
	case nil:
		return nil
	case error:
		return t
	case string:
		return errors.New(t)
	default:
		return fmt.Errorf("%v", t)
	}
}
