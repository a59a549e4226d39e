package ghri

import (
	"os"
	"sync"
)

// Registry is the process-lifetime set of filesystem paths that a crashed
// or interrupted install leaves behind. It is shared between the install
// pipeline (the producer) and the interrupt signal handler (the consumer),
// and is safe for concurrent use.
type Registry struct {
	mu    sync.Mutex
	paths []string
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Add registers path for cleanup. Callers that add the same path twice are
// expected to balance it with two Removes; Add itself does not dedupe.
func (r *Registry) Add(path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.paths = append(r.paths, path)
}

// Remove drops the first entry equal to path, if any.
func (r *Registry) Remove(path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, p := range r.paths {
		if p == path {
			r.paths = append(r.paths[:i], r.paths[i+1:]...)
			return
		}
	}
}

// Snapshot returns a copy of the currently registered paths, for tests and
// for the interrupt handler's cleanup sweep.
func (r *Registry) Snapshot() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.paths))
	copy(out, r.paths)
	return out
}

// CleanupAll best-effort recursively removes every registered path. Missing
// paths are not errors; failures are swallowed since this runs from a
// signal handler with nowhere to report to.
func (r *Registry) CleanupAll() {
	for _, p := range r.Snapshot() {
		_ = os.RemoveAll(p)
		r.Remove(p)
	}
}

// Acquire registers path and returns a release function. The intended use
// is:
//
//	release := reg.Acquire(tmpDir)
//	... do work that might fail ...
//	release() // only on the success path
//
// If the caller returns early on error without calling release, the path
// stays registered and is swept by the next CleanupAll — this is the
// "scoped acquisition" pattern of §4.2/§9: deliberately leaky on the
// abnormal path, not a defer.
func (r *Registry) Acquire(path string) (release func()) {
	r.Add(path)
	return func() { r.Remove(path) }
}
