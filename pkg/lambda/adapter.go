package lambda

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-lambda-go/lambdacontext"
)

// FromLambda adapts an aws-lambda-go style handler to the legacy contract.
// The handler runs on its own goroutine and its outcome settles the returned
// promise. The Go context carries the LambdaContext and a deadline derived
// from the remaining time.
func FromLambda[TIn, TOut any](fn func(context.Context, TIn) (TOut, error)) Handler {
	return func(event any, lc *Context, _ Callback) Thenable {
		return Go(func() (any, error) {
			in, err := convertEvent[TIn](event)
			if err != nil {
				return nil, err
			}

			parent := lambdacontext.NewContext(context.Background(), lc.LambdaContext())
			ctx, cancel := context.WithTimeout(parent, lc.RemainingTime())
			defer cancel()

			out, err := fn(ctx, in)
			if err != nil {
				return nil, err
			}
			return out, nil
		})
	}
}

// convertEvent passes matching events through and round-trips anything else
// through JSON.
func convertEvent[T any](event any) (T, error) {
	var zero T
	if event == nil {
		return zero, nil
	}
	if in, ok := event.(T); ok {
		return in, nil
	}

	raw, err := json.Marshal(event)
	if err != nil {
		return zero, fmt.Errorf("encode event: %w", err)
	}
	var in T
	if err := json.Unmarshal(raw, &in); err != nil {
		return zero, fmt.Errorf("decode event into %T: %w", zero, err)
	}
	return in, nil
}
