package applier

import (
	"errors"
	"fmt"
)

// ErrModuleNotInWhitelist is returned when a proposal targets a name
// absent from the writable-path whitelist.
var ErrModuleNotInWhitelist = errors.New("applier: target not in writable whitelist")

// PathTraversalError is returned when a resolved absolute write path
// fails the "contains evolvable" sanity check.
type PathTraversalError struct {
	Path string
}

func (e *PathTraversalError) Error() string {
	return fmt.Sprintf("applier: path_traversal_blocked(%s)", e.Path)
}

// WriteError wraps a filesystem write failure.
type WriteError struct {
	Path string
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("applier: write_failed(%s): %v", e.Path, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

// ReloadError wraps a failure to refresh the in-memory generation
// counter after a successful write.
type ReloadError struct {
	Err error
}

func (e *ReloadError) Error() string {
	return fmt.Sprintf("applier: reload_failed: %v", e.Err)
}

func (e *ReloadError) Unwrap() error { return e.Err }
