package diff

import (
	"fmt"
	"slices"
	"strings"
)

// Revision is an ordered list of deltas transforming one sequence into
// another. Deltas are kept in ascending original position.
type Revision[T comparable] struct {
	deltas []Delta[T]
	// srcLen is the length of the original sequence, or -1 if unknown.
	srcLen int
}

// NewRevision returns an empty revision for a source of unknown length.
func NewRevision[T comparable]() *Revision[T] {
	return &Revision[T]{srcLen: -1}
}

// Add appends a delta.
func (r *Revision[T]) Add(d Delta[T]) {
	r.deltas = append(r.deltas, d)
}

// SetSourceSize records the length of the sequence the revision was
// computed against. Patch refuses targets of any other length.
func (r *Revision[T]) SetSourceSize(n int) {
	r.srcLen = n
}

// SourceSize returns the recorded source length, if any.
func (r *Revision[T]) SourceSize() (int, bool) {
	return r.srcLen, r.srcLen >= 0
}

// Size returns the number of deltas.
func (r *Revision[T]) Size() int {
	return len(r.deltas)
}

// Empty reports whether the revision has no deltas.
func (r *Revision[T]) Empty() bool {
	return len(r.deltas) == 0
}

// Delta returns the i-th delta.
func (r *Revision[T]) Delta(i int) Delta[T] {
	return r.deltas[i]
}

// Deltas returns a copy of the delta list.
func (r *Revision[T]) Deltas() []Delta[T] {
	return slices.Clone(r.deltas)
}

// Verify checks every delta against target without modifying it.
func (r *Revision[T]) Verify(target []T) error {
	if r.srcLen >= 0 && len(target) != r.srcLen {
		return &PatchError{Position: len(target),
			Reason: fmt.Sprintf("expected %d elements, found %d", r.srcLen, len(target))}
	}
	for _, d := range r.deltas {
		if err := d.Verify(target); err != nil {
			return err
		}
	}
	return nil
}

// ApplyTo applies the revision to target and returns the edited sequence.
// All deltas are verified first, so on error target is unchanged.
func (r *Revision[T]) ApplyTo(target []T) ([]T, error) {
	if err := r.Verify(target); err != nil {
		return target, err
	}
	for _, i := range r.applyOrder() {
		target = r.deltas[i].ApplyTo(target)
	}
	return target, nil
}

// Patch applies the revision to a copy of seq.
func (r *Revision[T]) Patch(seq []T) ([]T, error) {
	return r.ApplyTo(slices.Clone(seq))
}

// applyOrder lists delta indexes by descending original position, later
// deltas first among equal positions, so that each application leaves
// the positions of the remaining deltas untouched.
func (r *Revision[T]) applyOrder() []int {
	order := make([]int, len(r.deltas))
	for i := range order {
		order[i] = len(r.deltas) - 1 - i
	}
	slices.SortStableFunc(order, func(a, b int) int {
		return r.deltas[b].Original.Position - r.deltas[a].Original.Position
	})
	return order
}

// Inverse returns the revision mapping the revised sequence back to the
// original one.
func (r *Revision[T]) Inverse() *Revision[T] {
	inv := NewRevision[T]()
	n := r.srcLen
	for _, d := range r.deltas {
		inv.Add(d.Inverse())
		if n >= 0 {
			n += d.Revised.Size() - d.Original.Size()
		}
	}
	inv.srcLen = n
	return inv
}

// String renders the revision in normal-diff notation.
func (r *Revision[T]) String() string {
	var b strings.Builder
	for _, d := range r.deltas {
		switch d.kind {
		case Add:
			fmt.Fprintf(&b, "%da%s\n", d.Original.Anchor(), d.Revised.RangeString())
			writeLines(&b, "> ", d.Revised.Elements)
		case Delete:
			fmt.Fprintf(&b, "%sd%d\n", d.Original.RangeString(), d.Revised.Anchor())
			writeLines(&b, "< ", d.Original.Elements)
		case Change:
			fmt.Fprintf(&b, "%sc%s\n", d.Original.RangeString(), d.Revised.RangeString())
			writeLines(&b, "< ", d.Original.Elements)
			b.WriteString("---\n")
			writeLines(&b, "> ", d.Revised.Elements)
		}
	}
	return b.String()
}

// RCSString renders the revision as an RCS delta script, each line
// terminated by eol. Commands refer to lines of the original sequence.
func (r *Revision[T]) RCSString(eol string) string {
	var b strings.Builder
	for _, d := range r.deltas {
		switch d.kind {
		case Add:
			fmt.Fprintf(&b, "a%d %d%s", d.Original.Anchor(), d.Revised.Size(), eol)
		case Delete:
			fmt.Fprintf(&b, "d%d %d%s", d.Original.RCSFrom(), d.Original.Size(), eol)
			continue
		case Change:
			fmt.Fprintf(&b, "d%d %d%s", d.Original.RCSFrom(), d.Original.Size(), eol)
			fmt.Fprintf(&b, "a%d %d%s", d.Original.RCSTo(), d.Revised.Size(), eol)
		}
		for _, e := range d.Revised.Elements {
			fmt.Fprint(&b, e)
			b.WriteString(eol)
		}
	}
	return b.String()
}

func writeLines[T any](b *strings.Builder, prefix string, elems []T) {
	for _, e := range elems {
		b.WriteString(prefix)
		fmt.Fprint(b, e)
		b.WriteByte('\n')
	}
}
