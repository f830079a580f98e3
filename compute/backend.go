package compute

import (
	"errors"
	"sync"

	"github.com/mhr3/sedge/regex"
	"github.com/mhr3/sedge/text"
)

// Dispatch failure kinds.
var (
	// ErrBackendUnavailable marks a device that failed to initialise.
	// Callers recover by running the host matcher instead.
	ErrBackendUnavailable = errors.New("compute backend unavailable")
	// ErrTextTooLarge marks an input past MaxDeviceBuffer. Recoverable:
	// fall back to the host or split the input.
	ErrTextTooLarge = errors.New("text exceeds device buffer budget")
)

// PatternSpec describes one pattern to compile for the device: either a
// fixed string or an encoded NFA, never both.
type PatternSpec struct {
	Literal []byte
	Regex   *regex.Encoding
	Fold    bool
}

// Program is a pattern resident on a device, ready to dispatch.
type Program interface {
	// FindMatches scans buf and returns the collected result set.
	// Returns ErrTextTooLarge when buf exceeds the device budget.
	FindMatches(buf *text.Buffer, cfg Config) (*ResultSet, error)
}

// Backend is the narrow compute trait: bring-up, pattern upload, and
// teardown. One dispatch at a time; callers serialise.
type Backend interface {
	// Init brings the device up. Idempotent; an error means the backend
	// is unusable and the caller should fall back.
	Init() error
	// Compile uploads spec and returns a dispatchable program.
	Compile(spec PatternSpec) (Program, error)
	// Teardown releases the device context.
	Teardown()
}

// ResultSet is what one dispatch produced after the host post-pass.
// Written and Total differ when the result buffer saturated: Total is the
// true match count, Records holds the first Written of them. Callers that
// need every match must detect Total > Written and retry on the host.
type ResultSet struct {
	Records []text.Match
	Written uint32
	Total   uint32
}

// Saturated reports whether the dispatch hit MaxResults.
func (r *ResultSet) Saturated() bool { return r.Total > r.Written }

// The process-wide device context. Acquired lazily on first use, torn
// down by Shutdown at process exit.
var context struct {
	once    sync.Once
	backend Backend
	err     error
}

// factory builds the process backend; tests swap it to exercise the
// unavailable path.
var factory = func() Backend { return newWorkgroupBackend() }

// Acquire returns the shared device backend, initialising it on first
// call. A failed bring-up is sticky: every later Acquire reports
// ErrBackendUnavailable without retrying.
func Acquire() (Backend, error) {
	context.once.Do(func() {
		b := factory()
		if err := b.Init(); err != nil {
			context.err = errors.Join(ErrBackendUnavailable, err)
			return
		}
		context.backend = b
	})
	return context.backend, context.err
}

// Shutdown tears the shared context down. Safe to call without a prior
// Acquire.
func Shutdown() {
	if context.backend != nil {
		context.backend.Teardown()
	}
}
