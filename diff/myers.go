package diff

// Myers implements the greedy O(ND) shortest edit script search from
// "An O(ND) Difference Algorithm and Its Variations" (Myers, 1986).
type Myers[T comparable] struct{}

// pathNode is a point of the edit graph reached by the search. Snakes are
// diagonal runs of equal elements; every other node records the previous
// snake, so consecutive non-diagonal moves collapse into one region.
type pathNode struct {
	i, j  int
	snake bool
	prev  *pathNode
}

func newDiffNode(i, j int, prev *pathNode) *pathNode {
	if prev != nil {
		prev = prev.previousSnake()
	}
	return &pathNode{i: i, j: j, prev: prev}
}

// previousSnake returns the nearest snake at or before n, or n itself when
// it starts the path.
func (n *pathNode) previousSnake() *pathNode {
	if n.i < 0 || n.j < 0 {
		return nil
	}
	if !n.snake && n.prev != nil {
		return n.prev.previousSnake()
	}
	return n
}

// Diff implements Algorithm.
func (Myers[T]) Diff(original, revised []T) (*Revision[T], error) {
	path, err := buildPath(original, revised)
	if err != nil {
		return nil, err
	}
	return buildRevision(path, original, revised)
}

func buildPath[T comparable](orig, rev []T) (*pathNode, error) {
	n, m := len(orig), len(rev)
	limit := n + m + 1
	middle := limit
	diagonal := make([]*pathNode, 2*limit+1)
	diagonal[middle+1] = &pathNode{i: 0, j: -1, snake: true}

	for d := 0; d < limit; d++ {
		for k := -d; k <= d; k += 2 {
			kmiddle := middle + k
			kplus, kminus := kmiddle+1, kmiddle-1

			var i int
			var prev *pathNode
			if k == -d || (k != d && diagonal[kminus].i < diagonal[kplus].i) {
				i = diagonal[kplus].i
				prev = diagonal[kplus]
			} else {
				i = diagonal[kminus].i + 1
				prev = diagonal[kminus]
			}
			j := i - k

			node := newDiffNode(i, j, prev)
			for i < n && j < m && orig[i] == rev[j] {
				i++
				j++
			}
			if i > node.i {
				node = &pathNode{i: i, j: j, snake: true, prev: node}
			}
			diagonal[kmiddle] = node

			if i >= n && j >= m {
				return node, nil
			}
		}
	}
	return nil, ErrDifferentiationFailed
}

func buildRevision[T comparable](path *pathNode, orig, rev []T) (*Revision[T], error) {
	var deltas []Delta[T]
	if path.snake {
		path = path.prev
	}
	for path != nil && path.prev != nil && path.prev.j >= 0 {
		if path.snake {
			return nil, ErrDifferentiationFailed
		}
		i, j := path.i, path.j
		path = path.prev
		d, err := newRegionDelta(orig, rev, path.i, i, path.j, j)
		if err != nil {
			return nil, err
		}
		deltas = append(deltas, d)
		if path.snake {
			path = path.prev
		}
	}

	r := NewRevision[T]()
	for k := len(deltas) - 1; k >= 0; k-- {
		r.Add(deltas[k])
	}
	return r, nil
}
