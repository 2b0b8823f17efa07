//go:build linux

package leak

import (
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

const procFDDir = "/proc/self/fd"

// FileDescriptors reports descriptors opened since the snapshot, read from
// /proc/self/fd. Runtime-internal descriptors (epoll, eventfd) and the
// directory handle used for the listing itself are ignored.
func FileDescriptors() Detector {
	return fdDetector{dir: procFDDir}
}

type fdDetector struct {
	dir string
}

type fdSnapshot struct {
	dir    string
	before map[string]string
}

func (d fdDetector) Capture() Snapshot {
	return &fdSnapshot{dir: d.dir, before: openDescriptors(d.dir)}
}

func (s *fdSnapshot) Diff() []Handle {
	var handles []Handle
	for fd, target := range openDescriptors(s.dir) {
		if prev, ok := s.before[fd]; ok && prev == target {
			continue
		}
		if ignoredTarget(target) {
			continue
		}
		handles = append(handles, Handle{Kind: KindFile, ID: fd, Description: target})
	}

	sort.Slice(handles, func(i, j int) bool {
		a, _ := strconv.Atoi(handles[i].ID)
		b, _ := strconv.Atoi(handles[j].ID)
		return a < b
	})
	return handles
}

func openDescriptors(dir string) map[string]string {
	descriptors := make(map[string]string)

	entries, err := os.ReadDir(dir)
	if err != nil {
		return descriptors
	}
	for _, entry := range entries {
		target, err := os.Readlink(filepath.Join(dir, entry.Name()))
		if err != nil {
			// closed between listing and readlink
			continue
		}
		descriptors[entry.Name()] = target
	}
	return descriptors
}

func ignoredTarget(target string) bool {
	return strings.HasPrefix(target, "anon_inode:") || strings.HasPrefix(target, "/proc/")
}
