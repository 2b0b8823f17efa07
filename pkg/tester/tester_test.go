package tester

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aws/aws-lambda-go/lambdacontext"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"lambda-tester/internal/config"
	"lambda-tester/pkg/lambda"
	"lambda-tester/pkg/runner"
)

func TestMain(m *testing.M) {
	logrus.SetOutput(io.Discard)
	goleak.VerifyTestMain(m)
}

func greet(event any, lc *lambda.Context, cb lambda.Callback) lambda.Thenable {
	name, _ := event.(map[string]any)["name"].(string)
	if name == "" {
		cb(errors.New("missing name"), nil)
		return nil
	}
	cb(nil, map[string]any{"greeting": "Hello " + name, "function": lc.FunctionName})
	return nil
}

func TestExpectations(t *testing.T) {
	ctx := context.Background()

	t.Run("ExpectResult", func(t *testing.T) {
		result, err := New(greet).
			Event(map[string]any{"name": "Fred"}).
			ExpectResult(nil).
			Run(ctx)

		require.NoError(t, err)
		assert.Equal(t, "Hello Fred", result.(map[string]any)["greeting"])
		assert.Equal(t, lambda.DefaultFunctionName, result.(map[string]any)["function"])
	})

	t.Run("ExpectError", func(t *testing.T) {
		result, err := New(greet).Event(map[string]any{}).ExpectError(nil).Run(ctx)

		require.NoError(t, err)
		assert.EqualError(t, result.(error), "missing name")
	})

	t.Run("ExpectSucceed", func(t *testing.T) {
		handler := func(_ any, lc *lambda.Context, _ lambda.Callback) lambda.Thenable {
			lc.Succeed("ok")
			return nil
		}
		assert.Equal(t, "ok", New(handler).ExpectSucceed(nil).Verify(t))
	})

	t.Run("ExpectFail", func(t *testing.T) {
		handler := func(_ any, lc *lambda.Context, _ lambda.Callback) lambda.Thenable {
			lc.Fail("bang")
			return nil
		}
		result := New(handler).ExpectFail(nil).Verify(t)
		assert.EqualError(t, result.(error), "bang")
	})

	t.Run("ExpectResolve", func(t *testing.T) {
		handler := func(any, *lambda.Context, lambda.Callback) lambda.Thenable {
			return lambda.Go(func() (any, error) { return 42, nil })
		}
		assert.Equal(t, 42, New(handler).ExpectResolve(nil).Verify(t))
	})

	t.Run("ExpectReject", func(t *testing.T) {
		handler := func(any, *lambda.Context, lambda.Callback) lambda.Thenable {
			return lambda.Reject(errors.New("nope"))
		}
		result := New(handler).ExpectReject(nil).Verify(t)
		assert.EqualError(t, result.(error), "nope")
	})

	t.Run("Mismatch", func(t *testing.T) {
		_, err := New(greet).Event(map[string]any{}).ExpectResult(nil).Run(ctx)
		assert.EqualError(t, err, "Expecting a result, but received an error")
	})

	t.Run("StrictMismatch", func(t *testing.T) {
		_, err := New(greet).
			Strict(true).
			Event(map[string]any{"name": "Fred"}).
			ExpectResolve(nil).
			Run(ctx)
		assert.EqualError(t, err, "callback(null,result) called instead of Promise.resolve()")
	})
}

func TestVerifier(t *testing.T) {
	var seen runner.Additional
	result := New(greet).
		Event(map[string]any{"name": "Fred"}).
		ExpectResult(runner.VerifyFunc(func(result any, info runner.Additional) (any, error) {
			seen = info
			return result.(map[string]any)["greeting"], nil
		})).
		Verify(t)

	assert.Equal(t, "Hello Fred", result)
	assert.GreaterOrEqual(t, seen.ExecTime, time.Duration(0))
}

func TestEventIsCopied(t *testing.T) {
	event := map[string]any{"name": "Fred"}
	handler := func(event any, _ *lambda.Context, cb lambda.Callback) lambda.Thenable {
		event.(map[string]any)["touched"] = true
		cb(nil, "ok")
		return nil
	}

	New(handler).Event(event).ExpectResult(nil).Verify(t)
	assert.NotContains(t, event, "touched")
}

func TestContextOverrides(t *testing.T) {
	var got *lambda.Context
	handler := func(_ any, lc *lambda.Context, cb lambda.Callback) lambda.Thenable {
		got = lc
		cb(nil, nil)
		return nil
	}

	New(handler).
		ClientContext(lambdacontext.ClientContext{Env: map[string]string{"stage": "test"}}).
		Identity(lambdacontext.CognitoIdentity{CognitoIdentityID: "id-1"}).
		Context(lambda.ContextValues{FunctionName: "orders", MemoryLimitInMB: "512"}).
		ExpectResult(nil).
		Verify(t)

	require.NotNil(t, got)
	assert.Equal(t, "orders", got.FunctionName)
	assert.Equal(t, "512", got.MemoryLimitInMB)
	assert.Equal(t, "/aws/lambda/orders", got.LogGroupName)
	assert.Equal(t, "test", got.ClientContext.Env["stage"])
	assert.Equal(t, "id-1", got.Identity.CognitoIdentityID)
	assert.Equal(t, "id-1", got.LambdaContext().Identity.CognitoIdentityID)
}

func TestTimeout(t *testing.T) {
	handler := func(_ any, _ *lambda.Context, cb lambda.Callback) lambda.Thenable {
		time.Sleep(30 * time.Millisecond)
		cb(nil, "ok")
		return nil
	}

	_, err := New(handler).Timeout(10 * time.Millisecond).ExpectResult(nil).Run(context.Background())
	assert.True(t, runner.IsTimeout(err))
}

func TestCheckForLeaks(t *testing.T) {
	release := make(chan struct{})
	defer close(release)

	handler := func(_ any, _ *lambda.Context, cb lambda.Callback) lambda.Thenable {
		go func() { <-release }()
		cb(nil, "ok")
		return nil
	}

	_, err := New(handler).CheckForLeaks(true).ExpectResult(nil).Run(context.Background())
	assert.True(t, runner.IsLeak(err))
}

func TestLoadHandler(t *testing.T) {
	ctx := context.Background()

	t.Run("Loaded", func(t *testing.T) {
		calls := 0
		tester := New(nil).LoadHandler(func() (lambda.Handler, error) {
			calls++
			return greet, nil
		}).Event(map[string]any{"name": "Fred"})

		tester.ExpectResult(nil).Verify(t)
		tester.ExpectResult(nil).Verify(t)
		assert.Equal(t, 2, calls)
	})

	t.Run("LoaderError", func(t *testing.T) {
		boom := errors.New("cannot load")
		_, err := New(nil).LoadHandler(func() (lambda.Handler, error) {
			return nil, boom
		}).ExpectResult(nil).Run(ctx)
		assert.ErrorIs(t, err, boom)
	})

	t.Run("NoHandler", func(t *testing.T) {
		_, err := New(nil).ExpectResult(nil).Run(ctx)
		assert.ErrorIs(t, err, ErrNoHandler)
		assert.EqualError(t, err, "no handler specified or returned from LoadHandler()")

		_, err = New(nil).LoadHandler(func() (lambda.Handler, error) { return nil, nil }).ExpectResult(nil).Run(ctx)
		assert.ErrorIs(t, err, ErrNoHandler)
	})
}

func TestAfter(t *testing.T) {
	var gotResult any
	var gotErr error
	calls := 0
	after := func(result any, err error) {
		calls++
		gotResult, gotErr = result, err
	}

	New(greet).After(after).Event(map[string]any{"name": "Fred"}).ExpectResult(nil).Verify(t)
	assert.Equal(t, 1, calls)
	assert.NoError(t, gotErr)
	assert.NotNil(t, gotResult)

	_, err := New(nil).After(after).ExpectResult(nil).Run(context.Background())
	assert.Equal(t, 2, calls)
	assert.Equal(t, err, gotErr)
}

func TestVerifyDone(t *testing.T) {
	var doneErr error
	called := false
	New(greet).Event(map[string]any{}).ExpectResult(nil).VerifyDone(func(err error) {
		called = true
		doneErr = err
	})

	assert.True(t, called)
	assert.True(t, runner.IsMismatch(doneErr))
}

func TestExpectationSnapshot(t *testing.T) {
	tester := New(greet).Event(map[string]any{"name": "Fred"})
	expectation := tester.ExpectResult(nil)
	tester.Event(map[string]any{})

	_, err := expectation.Run(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, runner.CallbackResult, expectation.Expected())
}

func TestFromEnvironment(t *testing.T) {
	dir := t.TempDir()
	contents := `{"strict": true, "checkForResourceLeak": true, "timeout": 2}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, config.FileName), []byte(contents), 0o644))

	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	t.Setenv(config.NoEnvVar, "true")
	t.Setenv(config.TaskRootVar, "/already/set")

	tester, err := FromEnvironment(greet)
	require.NoError(t, err)

	assert.True(t, tester.opts.Strict)
	assert.True(t, tester.opts.CheckForLeaks)
	assert.Equal(t, 2*time.Second, tester.opts.Timeout)
	assert.Nil(t, tester.opts.Tracer)

	_, err = tester.Event(map[string]any{"name": "Fred"}).ExpectSucceed(nil).Run(context.Background())
	assert.EqualError(t, err, "callback(null,result) called instead of context.succeed()")
}

func TestApplyCustomXRayPort(t *testing.T) {
	tester := New(greet).Apply(&config.Config{XRayPort: 2999})
	assert.NotNil(t, tester.opts.Tracer)
}
