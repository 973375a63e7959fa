package diff

import (
	"fmt"
	"slices"
)

// Track mirrors the positional edits of r onto tags, a slice parallel to
// the sequence r applies to. Elements inserted or replaced by r get tag;
// all others keep theirs. It is how annotated checkouts credit lines to
// the revision that introduced them.
func Track[T comparable, A any](r *Revision[T], tags []A, tag A) ([]A, error) {
	if n, ok := r.SourceSize(); ok && n != len(tags) {
		return nil, &PatchError{Position: len(tags),
			Reason: fmt.Sprintf("expected %d tags, found %d", n, len(tags))}
	}
	out := slices.Clone(tags)
	for _, i := range r.applyOrder() {
		d := r.deltas[i]
		pos, size := d.Original.Position, d.Original.Size()
		if pos < 0 || pos+size > len(out) {
			return nil, &PatchError{Kind: d.kind, Position: pos, Reason: "range beyond tagged sequence"}
		}
		fill := make([]A, d.Revised.Size())
		for k := range fill {
			fill[k] = tag
		}
		out = slices.Replace(out, pos, pos+size, fill...)
	}
	return out, nil
}
