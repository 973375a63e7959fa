package rcs

import (
	"sort"
	"time"
)

// NodeID addresses a node in an archive's arena.
type NodeID int

const noNode NodeID = -1

type nodeKind uint8

const (
	// trunkNode stores the reverse delta from its child (the next higher
	// trunk revision); its rcs "next" is its parent.
	trunkNode nodeKind = iota
	// branchNode stores the forward delta from its parent; its rcs "next"
	// is its child.
	branchNode
)

// DefaultState is the state given to new revisions.
const DefaultState = "Exp"

// Node is one revision of an archive.
type Node struct {
	Version Version
	Date    time.Time
	Author  string
	State   string
	Log     string
	Locker  string

	id   NodeID
	kind nodeKind
	// text is the full content for the head and a delta script otherwise.
	text     []string
	parent   NodeID
	child    NodeID
	branches map[int]NodeID
}

func newNode(v Version) *Node {
	kind := trunkNode
	if v.OnBranch() {
		kind = branchNode
	}
	return &Node{
		Version: v,
		State:   DefaultState,
		kind:    kind,
		parent:  noNode,
		child:   noNode,
	}
}

// IsTrunk reports whether n lies on the trunk.
func (n *Node) IsTrunk() bool {
	return n.kind == trunkNode
}

// rcsNext is the node whose text n's delta is applied to, in file order.
func (n *Node) rcsNext() NodeID {
	if n.kind == trunkNode {
		return n.parent
	}
	return n.child
}

// branchNumbers returns the numbers of n's branches in ascending order.
func (n *Node) branchNumbers() []int {
	nums := make([]int, 0, len(n.branches))
	for k := range n.branches {
		nums = append(nums, k)
	}
	sort.Ints(nums)
	return nums
}

// latestBranch returns the highest branch number, or 0 if n has none.
func (n *Node) latestBranch() int {
	nums := n.branchNumbers()
	if len(nums) == 0 {
		return 0
	}
	return nums[len(nums)-1]
}

// newBranchVersion returns the first revision of the next unused branch.
func (n *Node) newBranchVersion() Version {
	return n.Version.NewBranch(n.latestBranch() + 1).NewBranch(1)
}

func (n *Node) addBranch(num int, id NodeID) {
	if n.branches == nil {
		n.branches = make(map[int]NodeID)
	}
	n.branches[num] = id
}
