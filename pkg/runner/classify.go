package runner

import (
	"fmt"

	"lambda-tester/pkg/lambda"
)

// HandlerResult records the first completion signal of a run.
type HandlerResult struct {
	State  State
	Reason any // error or message passed to a failure channel
	Result any
}

// Classify checks a handler result against the expected state. In strict
// mode the state must match exactly, otherwise only success/failure polarity
// is compared. Success yields the carried result, failure the carried reason
// promoted to an error.
func Classify(expected State, strict bool, hr HandlerResult) (any, error) {
	if strict {
		if hr.State != expected {
			message := fmt.Sprintf("%s called instead of %s", hr.State.Method(), expected.Method())
			return nil, newFailError(message, hr.Reason, hr.Result)
		}
	} else if hr.State.Success() != expected.Success() {
		message := "Expecting a result, but received an error"
		if !expected.Success() {
			message = "Expecting an error, but received a result"
		}
		return nil, newFailError(message, hr.Reason, hr.Result)
	}

	if hr.State.Success() {
		return hr.Result, nil
	}
	return lambda.ToError(hr.Reason), nil
}
