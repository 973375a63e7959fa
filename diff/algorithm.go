package diff

import "fmt"

// Algorithm computes a Revision that turns original into revised.
type Algorithm[T comparable] interface {
	Diff(original, revised []T) (*Revision[T], error)
}

// Diff computes the revision between two sequences with the Myers algorithm.
func Diff[T comparable](original, revised []T) (*Revision[T], error) {
	return DiffWith(original, revised, Myers[T]{})
}

// DiffWith computes the revision between two sequences with alg.
func DiffWith[T comparable](original, revised []T, alg Algorithm[T]) (*Revision[T], error) {
	if len(original) == 0 && len(revised) == 0 {
		r := NewRevision[T]()
		r.SetSourceSize(0)
		return r, nil
	}
	r, err := alg.Diff(original, revised)
	if err != nil {
		return nil, err
	}
	r.SetSourceSize(len(original))
	return r, nil
}

// ByName returns the line algorithm registered under name.
func ByName(name string) (Algorithm[string], error) {
	switch name {
	case "", "myers":
		return Myers[string]{}, nil
	case "simple", "lcs":
		return Simple[string]{}, nil
	default:
		return nil, fmt.Errorf("unknown diff algorithm %q", name)
	}
}

// newRegionDelta builds the delta covering orig[i0:i1] and rev[j0:j1].
func newRegionDelta[T comparable](orig, rev []T, i0, i1, j0, j1 int) (Delta[T], error) {
	d, err := NewDelta(NewChunk(orig, i0, i1-i0), NewChunk(rev, j0, j1-j0))
	if err != nil {
		return d, fmt.Errorf("%w: empty region at %d,%d", ErrDifferentiationFailed, i0, j0)
	}
	return d, nil
}
