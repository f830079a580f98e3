package regex

import (
	"errors"
	"fmt"
)

// Compile failure kinds. Errors returned by Compile wrap exactly one of
// these.
var (
	ErrUnbalancedGroup = errors.New("unbalanced group")
	ErrUnbalancedClass = errors.New("unbalanced character class")
	ErrInvalidRange    = errors.New("invalid range")
	// ErrStateLimit marks a pattern whose NFA would exceed 256 states.
	// The cap keeps the device encoding's per-thread working set fixed;
	// the host matcher shares it so both paths accept the same patterns.
	ErrStateLimit = errors.New("pattern exceeds state limit")
)

// CompileError reports what failed to compile and where.
type CompileError struct {
	Pattern string
	Pos     int
	Err     error
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("compile /%s/ at %d: %v", e.Pattern, e.Pos, e.Err)
}

func (e *CompileError) Unwrap() error { return e.Err }
