package diff

import (
	"errors"
	"fmt"
)

var (
	// ErrDifferentiationFailed means an algorithm could not build an edit
	// path. It only happens on internal inconsistency.
	ErrDifferentiationFailed = errors.New("differentiation failed")
	// ErrPatchFailed means a delta did not match the sequence it was applied to.
	ErrPatchFailed = errors.New("patch verification failed")
	// ErrEmptyDelta is returned when both chunks of a delta are empty.
	ErrEmptyDelta = errors.New("delta with two empty chunks")
	// ErrInvalidScript is returned for malformed RCS delta scripts.
	ErrInvalidScript = errors.New("invalid delta script")
)

// PatchError describes a delta that did not fit its target.
type PatchError struct {
	Kind     Kind
	Position int
	Reason   string
}

func (e *PatchError) Error() string {
	if e.Kind == 0 {
		return "patch verification failed: " + e.Reason
	}
	return fmt.Sprintf("patch verification failed: %s at %d: %s", e.Kind, e.Position, e.Reason)
}

func (e *PatchError) Unwrap() error {
	return ErrPatchFailed
}

// ScriptError locates a problem in an RCS delta script.
type ScriptError struct {
	Line int
	Msg  string
}

func (e *ScriptError) Error() string {
	return fmt.Sprintf("invalid delta script: line %d: %s", e.Line, e.Msg)
}

func (e *ScriptError) Unwrap() error {
	return ErrInvalidScript
}
