package diff

// Simple computes a longest-common-subsequence table and walks it. It needs
// O(N·M) time and memory and serves as a reference for Myers.
type Simple[T comparable] struct{}

// Diff implements Algorithm.
func (Simple[T]) Diff(original, revised []T) (*Revision[T], error) {
	n, m := len(original), len(revised)
	width := m + 1
	// lcs[i*width+j] is the LCS length of original[i:] and revised[j:].
	lcs := make([]int, (n+1)*width)
	for i := n - 1; i >= 0; i-- {
		for j := m - 1; j >= 0; j-- {
			switch {
			case original[i] == revised[j]:
				lcs[i*width+j] = lcs[(i+1)*width+j+1] + 1
			case lcs[(i+1)*width+j] >= lcs[i*width+j+1]:
				lcs[i*width+j] = lcs[(i+1)*width+j]
			default:
				lcs[i*width+j] = lcs[i*width+j+1]
			}
		}
	}

	r := NewRevision[T]()
	flush := func(i0, i1, j0, j1 int) error {
		if i0 == i1 && j0 == j1 {
			return nil
		}
		d, err := newRegionDelta(original, revised, i0, i1, j0, j1)
		if err != nil {
			return err
		}
		r.Add(d)
		return nil
	}

	i, j, i0, j0 := 0, 0, 0, 0
	for i < n && j < m {
		if original[i] == revised[j] {
			if err := flush(i0, i, j0, j); err != nil {
				return nil, err
			}
			i++
			j++
			i0, j0 = i, j
			continue
		}
		if lcs[(i+1)*width+j] >= lcs[i*width+j+1] {
			i++
		} else {
			j++
		}
	}
	if err := flush(i0, n, j0, m); err != nil {
		return nil, err
	}
	return r, nil
}
