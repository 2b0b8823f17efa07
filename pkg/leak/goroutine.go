package leak

import (
	"runtime"
	"strings"

	"go.uber.org/goleak"
)

// GoroutineDetector reports goroutines started after the snapshot that are
// still alive. goleak retries for a short while before giving up, so
// goroutines that already delivered their signal and are merely exiting are
// not reported.
type GoroutineDetector struct {
	options []goleak.Option
}

// Goroutines returns a detector; options are passed on to goleak.Find, e.g.
// goleak.IgnoreTopFunction for known background workers.
func Goroutines(options ...goleak.Option) *GoroutineDetector {
	return &GoroutineDetector{options: options}
}

type goroutineSnapshot struct {
	baseline goleak.Option
	ids      map[string]struct{}
	options  []goleak.Option
}

func (d *GoroutineDetector) Capture() Snapshot {
	ids := make(map[string]struct{})
	for _, g := range dumpGoroutines() {
		ids[g.id] = struct{}{}
	}
	return &goroutineSnapshot{
		baseline: goleak.IgnoreCurrent(),
		ids:      ids,
		options:  d.options,
	}
}

func (s *goroutineSnapshot) Diff() []Handle {
	options := append([]goleak.Option{s.baseline}, s.options...)
	err := goleak.Find(options...)
	if err == nil {
		return nil
	}

	var handles []Handle
	for _, g := range dumpGoroutines() {
		if g.current {
			continue
		}
		if _, seen := s.ids[g.id]; seen {
			continue
		}
		handles = append(handles, Handle{
			Kind:        KindGoroutine,
			ID:          g.id,
			Description: "[" + g.state + "] " + g.top,
			Trace:       g.trace,
		})
	}

	// goleak saw something our own dump missed; report its findings verbatim.
	if len(handles) == 0 {
		handles = append(handles, Handle{
			Kind:        KindGoroutine,
			ID:          "unknown",
			Description: err.Error(),
		})
	}
	return handles
}

type goroutine struct {
	id      string
	state   string
	top     string
	trace   string
	current bool
}

// dumpGoroutines parses runtime.Stack output. The calling goroutine is
// always listed first.
func dumpGoroutines() []goroutine {
	buf := make([]byte, 64<<10)
	for {
		n := runtime.Stack(buf, true)
		if n < len(buf) {
			buf = buf[:n]
			break
		}
		buf = make([]byte, 2*len(buf))
	}

	blocks := strings.Split(strings.TrimSpace(string(buf)), "\n\n")
	goroutines := make([]goroutine, 0, len(blocks))
	for i, block := range blocks {
		g, ok := parseGoroutine(block)
		if !ok {
			continue
		}
		g.current = i == 0
		goroutines = append(goroutines, g)
	}
	return goroutines
}

// parseGoroutine reads a block such as
//
//	goroutine 18 [chan receive, 2 minutes]:
//	main.worker(0xc000010000)
//		/src/main.go:12 +0x25
func parseGoroutine(block string) (goroutine, bool) {
	header, body, _ := strings.Cut(block, "\n")
	rest, ok := strings.CutPrefix(header, "goroutine ")
	if !ok {
		return goroutine{}, false
	}
	id, state, ok := strings.Cut(rest, " [")
	if !ok {
		return goroutine{}, false
	}
	state = strings.TrimSuffix(state, "]:")

	top, _, _ := strings.Cut(body, "\n")
	if i := strings.LastIndex(top, "("); i > 0 {
		top = top[:i]
	}

	return goroutine{
		id:    id,
		state: state,
		top:   top,
		trace: block,
	}, true
}
