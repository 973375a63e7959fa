package rcs

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidVersion       = errors.New("invalid version number")
	ErrInvalidBranchVersion = errors.New("invalid branch version number")
	ErrInvalidTrunkVersion  = errors.New("invalid trunk version number")
	ErrNodeNotFound         = errors.New("revision not found")
	ErrBranchNotFound       = errors.New("branch not found")
	ErrHeadAlreadySet       = errors.New("head revision already set")
	ErrUnsupportedRemoval   = errors.New("unsupported revision removal")
	ErrInvalidFileFormat    = errors.New("invalid archive format")
	// ErrCorruptTree means the revision tree violates its own ordering.
	// Archives returning it should not be used further.
	ErrCorruptTree = errors.New("corrupt revision tree")
)

// VersionError reports an unusable version number. Errors about branch or
// trunk numbers also match ErrInvalidVersion.
type VersionError struct {
	Input  string
	Reason string
	// Kind is ErrInvalidBranchVersion or ErrInvalidTrunkVersion, or nil.
	Kind error
}

func (e *VersionError) Error() string {
	msg := ErrInvalidVersion.Error()
	if e.Kind != nil {
		msg = e.Kind.Error()
	}
	if e.Reason == "" {
		return fmt.Sprintf("%s %q", msg, e.Input)
	}
	return fmt.Sprintf("%s %q: %s", msg, e.Input, e.Reason)
}

func (e *VersionError) Is(target error) bool {
	return target == ErrInvalidVersion || (e.Kind != nil && target == e.Kind)
}

// NotFoundError reports a version with no matching node. A missing branch
// also matches ErrNodeNotFound.
type NotFoundError struct {
	Version Version
	Branch  bool
}

func (e *NotFoundError) Error() string {
	if e.Branch {
		return fmt.Sprintf("branch %s not found", e.Version)
	}
	return fmt.Sprintf("revision %s not found", e.Version)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNodeNotFound || (e.Branch && target == ErrBranchNotFound)
}

// FormatError locates a problem in an archive file.
type FormatError struct {
	Name string
	Line int
	Msg  string
	Err  error
}

func (e *FormatError) Error() string {
	name := e.Name
	if name == "" {
		name = "archive"
	}
	if e.Line > 0 {
		return fmt.Sprintf("%s:%d: %s: %s", name, e.Line, ErrInvalidFileFormat, e.Msg)
	}
	return fmt.Sprintf("%s: %s: %s", name, ErrInvalidFileFormat, e.Msg)
}

func (e *FormatError) Is(target error) bool {
	return target == ErrInvalidFileFormat
}

func (e *FormatError) Unwrap() error {
	return e.Err
}
