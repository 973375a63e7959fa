// Package diff computes and applies line-level edit scripts.
//
// A Revision is an ordered list of Deltas; each Delta pairs a Chunk of the
// original sequence with a Chunk of the revised one. Revisions can be
// rendered in the classic normal-diff form or as RCS delta scripts, and
// read back from RCS scripts.
package diff

import (
	"slices"
	"strconv"
)

// Chunk is a contiguous run of elements anchored at a 0-based position of
// the sequence it was taken from.
type Chunk[T comparable] struct {
	Position int
	Elements []T
}

// NewChunk copies count elements of seq starting at pos.
func NewChunk[T comparable](seq []T, pos, count int) Chunk[T] {
	return Chunk[T]{Position: pos, Elements: slices.Clone(seq[pos : pos+count])}
}

// Size returns the number of elements in the chunk.
func (c Chunk[T]) Size() int {
	return len(c.Elements)
}

// Last returns the index of the last element covered by the chunk.
// For an empty chunk this is Position-1.
func (c Chunk[T]) Last() int {
	return c.Position + c.Size() - 1
}

// Anchor is the position used by the normal-diff notation for empty chunks:
// the 1-based line after which something is inserted (0 = before the first).
func (c Chunk[T]) Anchor() int {
	return c.Position
}

// RCSFrom is the 1-based number of the first line in the chunk.
func (c Chunk[T]) RCSFrom() int {
	return c.Position + 1
}

// RCSTo is the 1-based number of the last line in the chunk.
func (c Chunk[T]) RCSTo() int {
	return c.Position + c.Size()
}

// RangeString renders the 1-based range as "N" or "N,M".
func (c Chunk[T]) RangeString() string {
	if c.Size() <= 1 {
		return strconv.Itoa(c.RCSFrom())
	}
	return strconv.Itoa(c.RCSFrom()) + "," + strconv.Itoa(c.RCSTo())
}

// Verify reports whether target holds exactly the chunk's elements at the
// chunk's position.
func (c Chunk[T]) Verify(target []T) bool {
	if c.Position < 0 || c.Position+c.Size() > len(target) {
		return false
	}
	return slices.Equal(target[c.Position:c.Position+c.Size()], c.Elements)
}
