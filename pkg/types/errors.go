package types

import (
	"errors"
	"fmt"
	"strings"
)

// Registry errors. Callers test with errors.Is.
var (
	ErrNotFound           = errors.New("not found")
	ErrInvalidPath        = errors.New("invalid workspace path")
	ErrDuplicateWorkspace = errors.New("workspace already registered")
	ErrStoreBusy          = errors.New("store busy")
	ErrStoreCorrupt       = errors.New("store corrupt")
	ErrIO                 = errors.New("filesystem access failed")
	ErrUnsupported        = errors.New("operation not supported by backend")
	ErrNotWritable        = errors.New("no writable backend for profile")
	ErrLabelUnsupported   = errors.New("no source of the workspace accepts a label")
	ErrMalformedEntry     = errors.New("malformed entry skipped")
)

// SourceError ties a failure to one backend location.
type SourceError struct {
	Source Source
	Err    error
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Source, e.Err)
}

func (e *SourceError) Unwrap() error { return e.Err }

// ScanError lists the backends that could not be read during a list. The
// records from the remaining backends are still returned alongside it.
type ScanError struct {
	Failures []*SourceError
}

func (e *ScanError) Error() string {
	parts := make([]string, len(e.Failures))
	for i, f := range e.Failures {
		parts[i] = f.Error()
	}
	return "unreadable sources: " + strings.Join(parts, "; ")
}

func (e *ScanError) Unwrap() []error {
	errs := make([]error, len(e.Failures))
	for i, f := range e.Failures {
		errs[i] = f
	}
	return errs
}

// PartialDeleteFailure reports a delete that was applied to some of a
// record's sources but not all of them.
type PartialDeleteFailure struct {
	Succeeded []Source
	Failed    []*SourceError
}

func (e *PartialDeleteFailure) Error() string {
	parts := make([]string, len(e.Failed))
	for i, f := range e.Failed {
		parts[i] = f.Error()
	}
	return fmt.Sprintf("delete applied to %d of %d sources; failed: %s",
		len(e.Succeeded), len(e.Succeeded)+len(e.Failed), strings.Join(parts, "; "))
}

func (e *PartialDeleteFailure) Unwrap() []error {
	errs := make([]error, len(e.Failed))
	for i, f := range e.Failed {
		errs[i] = f
	}
	return errs
}
