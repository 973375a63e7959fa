package rcs

import (
	"fmt"
	"slices"

	"rcskit/diff"
)

// Path is the chain of nodes from the head to some revision. Applying
// each node's delta in order rebuilds the text of the last one.
type Path struct {
	arc *Archive
	ids []NodeID
	// target is the version walked to, with "latest branch" zeros replaced
	// by the branch actually taken.
	target Version
}

// Line is a text line credited to the revision that introduced it.
type Line struct {
	Text     string
	Revision Version
}

// Len returns the number of nodes on the path.
func (p *Path) Len() int {
	return len(p.ids)
}

// Nodes returns the nodes on the path, head first.
func (p *Path) Nodes() []*Node {
	out := make([]*Node, len(p.ids))
	for i, id := range p.ids {
		out[i] = p.arc.nodes[id]
	}
	return out
}

// Last returns the node the path leads to.
func (p *Path) Last() *Node {
	return p.arc.nodes[p.ids[len(p.ids)-1]]
}

// matches reports whether the path ends at the revision its target names:
// the exact revision for revision numbers, or a revision of the named
// line for branch designators.
func (p *Path) matches() bool {
	last := p.Last().Version
	if p.target.IsRevision() {
		return last.Equal(p.target)
	}
	return last.Base(p.target.Len()).Equal(p.target)
}

// Text rebuilds the text of the last node.
func (p *Path) Text() ([]string, error) {
	a := p.arc
	text := slices.Clone(a.nodes[p.ids[0]].text)
	for _, id := range p.ids[1:] {
		var err error
		if text, _, err = a.applyNode(id, text); err != nil {
			return nil, err
		}
	}
	return text, nil
}

// Patch rebuilds the text of the last node. With annotate set, every line
// is credited to the revision that introduced it; otherwise Revision is
// left zero.
func (p *Path) Patch(annotate bool) ([]Line, error) {
	if !annotate {
		text, err := p.Text()
		if err != nil {
			return nil, err
		}
		lines := make([]Line, len(text))
		for i, t := range text {
			lines[i].Text = t
		}
		return lines, nil
	}
	return p.annotate()
}

// annotate recovers the trunk history down to its root, then replays it
// forward so each delta credits the lines it inserts or replaces.
func (p *Path) annotate() ([]Line, error) {
	a := p.arc
	trunkEnd := 0
	for i, id := range p.ids {
		if a.nodes[id].kind == trunkNode {
			trunkEnd = i
		}
	}

	chain := slices.Clone(p.ids[:trunkEnd+1])
	for id := a.nodes[chain[len(chain)-1]].parent; id != noNode; id = a.nodes[id].parent {
		chain = append(chain, id)
		if len(chain) > len(a.nodes) {
			return nil, ErrCorruptTree
		}
	}

	// reverse[i] turns the text of chain[i-1] into the text of chain[i].
	text := slices.Clone(a.nodes[chain[0]].text)
	reverse := make([]*diff.Revision[string], len(chain))
	for i := 1; i < len(chain); i++ {
		var err error
		if text, reverse[i], err = a.applyNode(chain[i], text); err != nil {
			return nil, err
		}
	}

	root := a.nodes[chain[len(chain)-1]].Version
	tags := make([]Version, len(text))
	for i := range tags {
		tags[i] = root
	}

	for i := len(chain) - 1; i > trunkEnd; i-- {
		forward := reverse[i].Inverse()
		credit := a.nodes[chain[i-1]].Version
		var err error
		if tags, err = diff.Track(forward, tags, credit); err != nil {
			return nil, fmt.Errorf("annotate %s: %w", credit, err)
		}
		if text, err = forward.ApplyTo(text); err != nil {
			return nil, fmt.Errorf("annotate %s: %w", credit, err)
		}
	}

	for _, id := range p.ids[trunkEnd+1:] {
		var rev *diff.Revision[string]
		var err error
		if text, rev, err = a.applyNode(id, text); err != nil {
			return nil, err
		}
		if tags, err = diff.Track(rev, tags, a.nodes[id].Version); err != nil {
			return nil, fmt.Errorf("annotate %s: %w", a.nodes[id].Version, err)
		}
	}

	lines := make([]Line, len(text))
	for i := range text {
		lines[i] = Line{Text: text[i], Revision: tags[i]}
	}
	return lines, nil
}

// applyNode applies the delta stored on node id to text, the text of the
// node before it on a path.
func (a *Archive) applyNode(id NodeID, text []string) ([]string, *diff.Revision[string], error) {
	n := a.nodes[id]
	rev, err := diff.ParseScript(n.text, text)
	if err != nil {
		return nil, nil, &FormatError{Name: a.name, Msg: fmt.Sprintf("delta of %s", n.Version), Err: err}
	}
	out, err := rev.ApplyTo(text)
	if err != nil {
		return nil, nil, fmt.Errorf("revision %s: %w", n.Version, err)
	}
	return out, rev, nil
}

// pathTo walks from the head towards target. A soft walk stops quietly
// where a strict one reports the missing node or branch.
func (a *Archive) pathTo(target Version, soft bool) (*Path, error) {
	if a.head == noNode {
		return nil, &NotFoundError{Version: target}
	}
	p := &Path{arc: a, ids: []NodeID{a.head}, target: target}
	for cur := a.head; ; {
		next, t, err := a.nextInPathTo(cur, p.target, soft)
		if err != nil {
			return nil, err
		}
		if next == noNode {
			return p, nil
		}
		if int(next) >= len(a.nodes) || a.nodes[next] == nil || len(p.ids) > len(a.nodes) {
			return nil, ErrCorruptTree
		}
		p.target = t
		p.ids = append(p.ids, next)
		cur = next
	}
}

func (a *Archive) nextInPathTo(cur NodeID, target Version, soft bool) (NodeID, Version, error) {
	n := a.nodes[cur]
	if n.kind == trunkNode {
		bp := target.Base(2)
		if n.Version.Less(bp) {
			return a.miss(target, false, soft)
		}
		if n.Version.Base(bp.Len()).Greater(bp) {
			if n.parent == noNode {
				return a.miss(target, false, soft)
			}
			return n.parent, target, nil
		}
		if target.Len() > n.Version.Len() {
			return a.branchStep(n, target, soft)
		}
		return noNode, target, nil
	}

	bp := target.Base(n.Version.Len())
	if n.Version.Base(bp.Len()).Greater(bp) {
		// The branch starts above the requested revision.
		return a.miss(target, false, soft)
	}
	switch {
	case n.Version.Equal(target):
		return noNode, target, nil
	case n.Version.Less(bp):
		return n.child, target, nil
	case target.Len() <= n.Version.Len():
		if target.Len() < n.Version.Len() || bp.Last() == 0 {
			return n.child, target, nil
		}
		return noNode, target, nil
	default:
		return a.branchStep(n, target, soft)
	}
}

// branchStep enters the branch of n named by target. A zero branch number
// selects the most recent branch and is rewritten into the target.
func (a *Archive) branchStep(n *Node, target Version, soft bool) (NodeID, Version, error) {
	pos := n.Version.Len()
	num := target.At(pos)
	if num == 0 {
		num = n.latestBranch()
		if num != 0 {
			nums := target.Components()
			nums[pos] = num
			target = NewVersion(nums...)
		}
	}
	id, ok := n.branches[num]
	if !ok {
		return a.miss(target.Base(pos+1), true, soft)
	}
	return id, target, nil
}

func (a *Archive) miss(v Version, branch, soft bool) (NodeID, Version, error) {
	if soft {
		return noNode, v, nil
	}
	return noNode, v, &NotFoundError{Version: v, Branch: branch}
}
