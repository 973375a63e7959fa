package diff

import (
	"fmt"
	"slices"
)

// Kind is the variant of a Delta.
type Kind uint8

const (
	// Add inserts the revised elements; the original chunk is empty.
	Add Kind = iota + 1
	// Delete removes the original elements; the revised chunk is empty.
	Delete
	// Change replaces the original elements with the revised ones.
	Change
)

func (k Kind) String() string {
	switch k {
	case Add:
		return "add"
	case Delete:
		return "delete"
	case Change:
		return "change"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// KindOf selects the delta variant from the emptiness of its two chunks.
// It returns false when both are empty.
func KindOf(origEmpty, revEmpty bool) (Kind, bool) {
	switch {
	case origEmpty && revEmpty:
		return 0, false
	case origEmpty:
		return Add, true
	case revEmpty:
		return Delete, true
	default:
		return Change, true
	}
}

// Delta is a single edit between an original and a revised sequence.
type Delta[T comparable] struct {
	Original Chunk[T]
	Revised  Chunk[T]
	kind     Kind
}

// NewDelta builds the delta variant matching the two chunks.
func NewDelta[T comparable](orig, rev Chunk[T]) (Delta[T], error) {
	k, ok := KindOf(orig.Size() == 0, rev.Size() == 0)
	if !ok {
		return Delta[T]{}, ErrEmptyDelta
	}
	return Delta[T]{Original: orig, Revised: rev, kind: k}, nil
}

// Kind returns the delta variant.
func (d Delta[T]) Kind() Kind {
	return d.kind
}

// Verify checks that the delta can be applied to target.
func (d Delta[T]) Verify(target []T) error {
	switch d.kind {
	case Add:
		if d.Original.Position < 0 || d.Original.Position > len(target) {
			return &PatchError{Kind: d.kind, Position: d.Original.Position,
				Reason: fmt.Sprintf("insertion point beyond end of %d elements", len(target))}
		}
	case Delete, Change:
		if !d.Original.Verify(target) {
			return &PatchError{Kind: d.kind, Position: d.Original.Position,
				Reason: "original elements do not match"}
		}
	default:
		return &PatchError{Kind: d.kind, Position: d.Original.Position, Reason: "unknown delta kind"}
	}
	return nil
}

// ApplyTo applies the delta without verifying it and returns the edited
// sequence. target may be modified in place.
func (d Delta[T]) ApplyTo(target []T) []T {
	pos := d.Original.Position
	switch d.kind {
	case Add:
		return slices.Insert(target, pos, d.Revised.Elements...)
	case Delete:
		return slices.Delete(target, pos, pos+d.Original.Size())
	case Change:
		return slices.Replace(target, pos, pos+d.Original.Size(), d.Revised.Elements...)
	}
	return target
}

// Patch verifies the delta against target and then applies it.
func (d Delta[T]) Patch(target []T) ([]T, error) {
	if err := d.Verify(target); err != nil {
		return target, err
	}
	return d.ApplyTo(target), nil
}

// Inverse returns the delta that undoes d.
func (d Delta[T]) Inverse() Delta[T] {
	inv := Delta[T]{Original: d.Revised, Revised: d.Original}
	switch d.kind {
	case Add:
		inv.kind = Delete
	case Delete:
		inv.kind = Add
	default:
		inv.kind = d.kind
	}
	return inv
}

func (d Delta[T]) String() string {
	return fmt.Sprintf("%s[%d,%d -> %d,%d]", d.kind,
		d.Original.Position, d.Original.Size(), d.Revised.Position, d.Revised.Size())
}
