// Package leak detects asynchronous resources left open by a handler.
//
// A Detector captures a Snapshot of the open resources immediately before a
// handler runs; Snapshot.Diff lists the ones opened since and still open.
// What counts as a resource depends on the platform: goroutines everywhere,
// file descriptors (sockets, files, pipes) where the OS exposes them.
package leak

import "fmt"

// Handle kinds
const (
	KindGoroutine = "goroutine"
	KindFile      = "fd"
)

// Handle describes one open resource.
type Handle struct {
	Kind        string
	ID          string
	Description string
	Trace       string // full goroutine stack, when known
}

func (h Handle) String() string {
	return fmt.Sprintf("%s %s: %s", h.Kind, h.ID, h.Description)
}

// Snapshot is the resource state at capture time. It is diffed once.
type Snapshot interface {
	Diff() []Handle
}

// Detector captures snapshots.
type Detector interface {
	Capture() Snapshot
}

// Default watches goroutines and, where supported, file descriptors.
func Default() Detector {
	return Composite(Goroutines(), FileDescriptors())
}

type noopDetector struct{}

type noopSnapshot struct{}

// Noop never reports a leak. Platforms without resource introspection use it.
func Noop() Detector {
	return noopDetector{}
}

func (noopDetector) Capture() Snapshot { return noopSnapshot{} }

func (noopSnapshot) Diff() []Handle { return nil }

type composite []Detector

type compositeSnapshot []Snapshot

// Composite merges the findings of several detectors.
func Composite(detectors ...Detector) Detector {
	return composite(detectors)
}

func (c composite) Capture() Snapshot {
	snapshots := make(compositeSnapshot, 0, len(c))
	for _, d := range c {
		snapshots = append(snapshots, d.Capture())
	}
	return snapshots
}

func (c compositeSnapshot) Diff() []Handle {
	var handles []Handle
	for _, s := range c {
		handles = append(handles, s.Diff()...)
	}
	return handles
}
