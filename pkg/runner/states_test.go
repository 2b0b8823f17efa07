package runner

import "testing"

func TestStates(t *testing.T) {
	tests := []struct {
		state   State
		name    string
		success bool
		method  string
	}{
		{ContextSucceed, "contextSucceed", true, "context.succeed()"},
		{ContextFail, "contextFail", false, "context.fail()"},
		{CallbackResult, "callbackResult", true, "callback(null,result)"},
		{CallbackError, "callbackError", false, "callback(error)"},
		{PromiseResolve, "promiseResolve", true, "Promise.resolve()"},
		{PromiseReject, "promiseReject", false, "Promise.reject()"},
	}

	if got := len(States()); got != len(tests) {
		t.Fatalf("States() has %d entries, want %d", got, len(tests))
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.state.Name() != tt.name || tt.state.String() != tt.name {
				t.Errorf("Name() = %s, want %s", tt.state.Name(), tt.name)
			}
			if tt.state.Success() != tt.success {
				t.Errorf("Success() = %v, want %v", tt.state.Success(), tt.success)
			}
			if tt.state.Method() != tt.method {
				t.Errorf("Method() = %s, want %s", tt.state.Method(), tt.method)
			}
			if tt.state.IsZero() {
				t.Errorf("IsZero() = true for %s", tt.name)
			}

			found, ok := StateByName(tt.name)
			if !ok || found != tt.state {
				t.Errorf("StateByName(%s) = %v, %v", tt.name, found, ok)
			}
		})
	}

	if _, ok := StateByName("nope"); ok {
		t.Errorf("StateByName(nope) found a state")
	}
	if !(State{}).IsZero() {
		t.Errorf("zero State is not IsZero")
	}

	states := States()
	states[0] = State{}
	if States()[0].IsZero() {
		t.Errorf("States() exposes its backing slice")
	}
}
