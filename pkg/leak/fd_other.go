//go:build !linux

package leak

// FileDescriptors is a no-op where the OS offers no descriptor listing.
func FileDescriptors() Detector {
	return Noop()
}
