package runner

// State identifies which completion channel a handler used and whether it
// signals success.
type State struct {
	name    string
	success bool
	method  string
}

// The six completion states.
var (
	ContextSucceed = State{name: "contextSucceed", success: true, method: "context.succeed()"}
	ContextFail    = State{name: "contextFail", success: false, method: "context.fail()"}
	CallbackResult = State{name: "callbackResult", success: true, method: "callback(null,result)"}
	CallbackError  = State{name: "callbackError", success: false, method: "callback(error)"}
	PromiseResolve = State{name: "promiseResolve", success: true, method: "Promise.resolve()"}
	PromiseReject  = State{name: "promiseReject", success: false, method: "Promise.reject()"}
)

var allStates = []State{
	ContextSucceed,
	ContextFail,
	CallbackResult,
	CallbackError,
	PromiseResolve,
	PromiseReject,
}

func (s State) Name() string { return s.name }
func (s State) Success() bool { return s.success }
func (s State) Method() string { return s.method }
func (s State) String() string { return s.name }

// IsZero reports whether s is the zero State rather than one of the six.
func (s State) IsZero() bool { return s == State{} }

// States returns every completion state.
func States() []State {
	out := make([]State, len(allStates))
	copy(out, allStates)
	return out
}

// StateByName looks a state up by its name, e.g. "callbackResult".
func StateByName(name string) (State, bool) {
	for _, s := range allStates {
		if s.name == name {
			return s, true
		}
	}
	return State{}, false
}
