// Package rcs implements an RCS-style revision archive: a tree of text
// revisions stored as one full head text plus line deltas, with branches.
//
// An Archive is not safe for concurrent use; callers must serialize access.
package rcs

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"time"

	log "github.com/sirupsen/logrus"

	"rcskit/diff"
	"rcskit/rcs/keyword"
)

// Archive holds every revision of one text file.
type Archive struct {
	nodes []*Node
	index map[string]NodeID
	head  NodeID

	branch  Version
	users   []string
	symbols map[string]Version
	strict  bool
	comment string
	expand  string
	desc    string
	name    string

	formatter keyword.Formatter
	algorithm diff.Algorithm[string]
	author    string
	now       func() time.Time
}

// Option configures an Archive.
type Option func(*Archive)

// WithKeywordFormatter overrides the formatter chosen by the expansion mode.
func WithKeywordFormatter(f keyword.Formatter) Option {
	return func(a *Archive) { a.formatter = f }
}

// WithAlgorithm sets the diff algorithm used to compute new deltas.
func WithAlgorithm(alg diff.Algorithm[string]) Option {
	return func(a *Archive) { a.algorithm = alg }
}

// WithName sets the archive file name used for keyword expansion.
func WithName(name string) Option {
	return func(a *Archive) { a.name = name }
}

// WithAuthor sets the author recorded on new revisions.
func WithAuthor(author string) Option {
	return func(a *Archive) { a.author = author }
}

// WithExpand sets the keyword expansion mode of a new archive.
func WithExpand(mode string) Option {
	return func(a *Archive) { a.expand = mode }
}

// WithClock sets the clock used to date new revisions.
func WithClock(now func() time.Time) Option {
	return func(a *Archive) { a.now = now }
}

func newArchive(opts ...Option) *Archive {
	a := &Archive{
		index:     make(map[string]NodeID),
		head:      noNode,
		symbols:   make(map[string]Version),
		strict:    true,
		comment:   "# ",
		algorithm: diff.Myers[string]{},
		author:    defaultAuthor(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func defaultAuthor() string {
	if u := os.Getenv("USER"); u != "" {
		return u
	}
	return "unknown"
}

// New creates an archive whose only revision, 1.1, holds text.
func New(text []string, desc string, opts ...Option) (*Archive, error) {
	return NewAt(text, desc, "1.1", opts...)
}

// NewAt creates an archive whose only revision has the given trunk
// version. A single number n means n.1.
func NewAt(text []string, desc, version string, opts ...Option) (*Archive, error) {
	v, err := ParseVersion(version)
	if err != nil {
		return nil, err
	}
	if v.Len() == 1 {
		v = v.NewBranch(1)
	}
	if v.Len() != 2 || v.IsGhost() {
		return nil, &VersionError{Input: version, Reason: "initial revision must be on the trunk", Kind: ErrInvalidTrunkVersion}
	}
	a := newArchive(opts...)
	if !keyword.ValidMode(a.expand) {
		return nil, fmt.Errorf("unknown keyword expansion mode %q", a.expand)
	}
	a.desc = desc
	n := a.newRevisionNode(v, "Initial revision")
	n.text = a.resetKeywords(text)
	a.insert(n)
	a.head = n.id
	return a, nil
}

func (a *Archive) newRevisionNode(v Version, logMsg string) *Node {
	n := newNode(v)
	n.Date = a.now().UTC().Truncate(time.Second)
	n.Author = a.author
	n.Log = logMsg
	return n
}

// insert adds n to the arena and the version index.
func (a *Archive) insert(n *Node) {
	n.id = NodeID(len(a.nodes))
	a.nodes = append(a.nodes, n)
	a.index[n.Version.String()] = n.id
}

func (a *Archive) keywordFormatter() keyword.Formatter {
	if a.formatter != nil {
		return a.formatter
	}
	return keyword.ForMode(a.expand)
}

func (a *Archive) resetKeywords(text []string) []string {
	out := slices.Clone(text)
	f := a.keywordFormatter()
	if f == nil {
		return out
	}
	for i, l := range out {
		out[i] = f.Reset(l)
	}
	return out
}

// Head returns the version of the head revision.
func (a *Archive) Head() Version {
	if a.head == noNode {
		return Version{}
	}
	return a.nodes[a.head].Version
}

// Version turns a symbolic name or a dotted number into a version.
func (a *Archive) Version(s string) (Version, error) {
	if s == "" {
		return Version{}, &VersionError{Input: s, Reason: "empty version"}
	}
	if c := s[0]; c < '0' || c > '9' {
		v, ok := a.symbols[s]
		if !ok {
			return Version{}, &VersionError{Input: s, Reason: "unknown symbol"}
		}
		return v, nil
	}
	return ParseVersion(s)
}

// normalize drops the trailing zero of an even-length version, so "1.0"
// selects the latest revision of trunk 1.
func normalize(v Version) Version {
	if v.IsRevision() && v.Last() == 0 {
		return v.Base(v.Len() - 1)
	}
	return v
}

// Resolve maps a version or symbol to an existing revision. Partial
// versions select the latest matching revision: "1" the latest on trunk 1,
// "1.2.1" the tip of that branch, "1.2.0" the tip of the most recent
// branch at 1.2. ok is false when nothing matches.
func (a *Archive) Resolve(s string) (Version, bool, error) {
	v, err := a.Version(s)
	if err != nil {
		return Version{}, false, err
	}
	p, err := a.pathTo(normalize(v), true)
	if err != nil {
		return Version{}, false, err
	}
	if !p.matches() {
		return Version{}, false, nil
	}
	return p.Last().Version, true, nil
}

// Path returns the strict path to the revision v names.
func (a *Archive) Path(v Version) (*Path, error) {
	p, err := a.pathTo(normalize(v), false)
	if err != nil {
		return nil, err
	}
	if !p.matches() {
		return nil, &NotFoundError{Version: v}
	}
	return p, nil
}

func (a *Archive) pathFor(rev string) (*Path, error) {
	var v Version
	if rev == "" {
		v = a.CurrentVersion()
	} else {
		var err error
		if v, err = a.Version(rev); err != nil {
			return nil, err
		}
	}
	return a.Path(v)
}

// FindNode returns the node with exactly version v.
func (a *Archive) FindNode(v Version) (*Node, bool) {
	id, ok := a.index[v.String()]
	if !ok {
		return nil, false
	}
	return a.nodes[id], true
}

// CurrentVersion is the default target of checkouts and check-ins: the
// default branch if one is set, otherwise the head.
func (a *Archive) CurrentVersion() Version {
	if !a.branch.IsZero() {
		if v, ok, err := a.Resolve(a.branch.String()); err == nil && ok {
			return v
		}
	}
	return a.Head()
}

// Revision returns the stored text of rev, with keywords unexpanded. An
// empty rev selects CurrentVersion.
func (a *Archive) Revision(rev string) ([]string, error) {
	p, err := a.pathFor(rev)
	if err != nil {
		return nil, err
	}
	return p.Text()
}

// Annotate returns the text of rev with each line credited to the
// revision that introduced it.
func (a *Archive) Annotate(rev string) ([]Line, error) {
	p, err := a.pathFor(rev)
	if err != nil {
		return nil, err
	}
	return p.Patch(true)
}

// Checkout returns the text of rev with keywords expanded, and the
// revision it resolved to.
func (a *Archive) Checkout(rev string) ([]string, Version, error) {
	p, err := a.pathFor(rev)
	if err != nil {
		return nil, Version{}, err
	}
	text, err := p.Text()
	if err != nil {
		return nil, Version{}, err
	}
	n := p.Last()
	f := a.keywordFormatter()
	if f == nil {
		return text, n.Version, nil
	}
	info := keyword.Info{
		Source:   a.name,
		RCSFile:  filepath.Base(a.name),
		Revision: n.Version.String(),
		Date:     n.Date,
		Author:   n.Author,
		State:    n.State,
		Locker:   n.Locker,
	}
	for i, l := range text {
		text[i] = f.Update(l, info)
	}
	return text, n.Version, nil
}

// Commit adds text as the next revision of CurrentVersion's line.
func (a *Archive) Commit(text []string, logMsg string) (Version, bool, error) {
	return a.AddRevision(text, "", logMsg)
}

// AddRevision stores text as a new revision. rev may be a full version, a
// branch designator, a bare trunk number, a symbol, or empty for the
// default line. It returns false, and changes nothing, when text equals
// the revision it would follow.
func (a *Archive) AddRevision(text []string, rev, logMsg string) (Version, bool, error) {
	vernum, err := a.addTarget(rev)
	if err != nil {
		return Version{}, false, err
	}

	var path *Path
	if vernum.IsBranchDesignator() && vernum.Last() == 0 {
		// n.m.0 always opens a new branch at n.m.
		path, err = a.Path(vernum.Base(vernum.Len() - 1))
		if err != nil {
			return Version{}, false, err
		}
		vernum = path.Last().newBranchVersion()
	} else {
		vernum = normalize(vernum)
		if path, err = a.pathTo(vernum, true); err != nil {
			return Version{}, false, err
		}
		vernum = allocate(vernum, path.Last())
	}
	target := path.Last()
	if err := a.checkPlacement(vernum, target); err != nil {
		return Version{}, false, err
	}

	text = a.resetKeywords(text)
	headAdd := target.id == a.head && vernum.Len() == 2

	var (
		delta  *diff.Revision[string]
		base   []string
		script []string
	)
	if headAdd {
		base = target.text
		if delta, err = diff.DiffWith(text, base, a.algorithm); err != nil {
			return Version{}, false, err
		}
	} else {
		if base, err = path.Text(); err != nil {
			return Version{}, false, err
		}
		if delta, err = diff.DiffWith(base, text, a.algorithm); err != nil {
			return Version{}, false, err
		}
	}
	if delta.Empty() {
		log.WithField("archive", a.name).Debugf("no changes against %s", target.Version)
		return Version{}, false, nil
	}
	script = diff.Script(delta)

	n := a.newRevisionNode(vernum, logMsg)
	n.parent = target.id
	if headAdd {
		n.text = text
		a.insert(n)
		target.text = script
		target.child = n.id
		a.head = n.id
	} else {
		n.text = script
		a.insert(n)
		if vernum.Len() > target.Version.Len() {
			target.addBranch(vernum.At(target.Version.Len()), n.id)
		} else {
			target.child = n.id
		}
	}
	log.WithFields(log.Fields{"archive": a.name, "revision": vernum.String(), "deltas": delta.Size()}).Debug("added revision")
	return vernum, true, nil
}

func (a *Archive) addTarget(rev string) (Version, error) {
	if rev != "" {
		return a.Version(rev)
	}
	if !a.branch.IsZero() {
		return a.branch, nil
	}
	return a.Head().Next(), nil
}

// allocate picks the concrete version for a new revision requested as
// vernum, given the node the walk towards vernum stopped at.
func allocate(vernum Version, target *Node) Version {
	switch {
	case vernum.Len() < target.Version.Len():
		if vernum.Len() == 1 && vernum.At(0) > target.Version.At(0) {
			return vernum.NewBranch(1)
		}
		return target.Version.Next()
	case vernum.IsBranchDesignator():
		return vernum.NewBranch(1)
	default:
		return vernum
	}
}

// checkPlacement verifies that v can be linked after target.
func (a *Archive) checkPlacement(v Version, target *Node) error {
	if v.IsGhost() || !v.IsRevision() {
		return &VersionError{Input: v.String(), Reason: "not a revision number"}
	}
	if !v.Greater(target.Version) {
		return &VersionError{Input: v.String(), Reason: "must be higher than " + target.Version.String()}
	}
	if _, exists := a.index[v.String()]; exists {
		return &VersionError{Input: v.String(), Reason: "already exists"}
	}
	tl := target.Version.Len()
	switch {
	case v.Len() == 2:
		if target.id != a.head {
			return &VersionError{Input: v.String(), Reason: "trunk revisions can only follow the head " + a.Head().String(), Kind: ErrInvalidTrunkVersion}
		}
	case v.Len() == tl+2:
		if !v.Base(tl).Equal(target.Version) {
			return &VersionError{Input: v.String(), Reason: "no revision " + v.Base(tl).String() + " to branch from", Kind: ErrInvalidBranchVersion}
		}
	case v.Len() == tl:
		if !v.Base(tl-1).Equal(target.Version.Base(tl - 1)) {
			return &VersionError{Input: v.String(), Reason: "no branch " + v.Base(tl-1).String(), Kind: ErrInvalidBranchVersion}
		}
		if target.child != noNode {
			return &VersionError{Input: v.String(), Reason: "branch continues past " + target.Version.String(), Kind: ErrInvalidBranchVersion}
		}
	default:
		return &VersionError{Input: v.String(), Reason: "cannot follow " + target.Version.String(), Kind: ErrInvalidBranchVersion}
	}
	return nil
}

// Remove deletes revision rev and relinks its neighbours. Revisions that
// own branches, and the last remaining revision, cannot be removed.
func (a *Archive) Remove(rev string) error {
	v, err := a.Version(rev)
	if err != nil {
		return err
	}
	n, ok := a.FindNode(v)
	if !ok {
		return &NotFoundError{Version: v}
	}
	if len(a.index) == 1 {
		return fmt.Errorf("%w: %s is the only revision", ErrUnsupportedRemoval, v)
	}
	if len(n.branches) > 0 {
		return fmt.Errorf("%w: %s has branches", ErrUnsupportedRemoval, v)
	}

	// Compute everything that can fail before touching the tree.
	var apply func()
	parent, child := n.parent, n.child
	switch {
	case n.id == a.head:
		if parent == noNode {
			return fmt.Errorf("%w: head %s has no predecessor", ErrCorruptTree, v)
		}
		text, err := a.textOf(parent)
		if err != nil {
			return err
		}
		apply = func() {
			p := a.nodes[parent]
			p.text = text
			p.child = noNode
			a.head = parent
		}
	case n.kind == trunkNode && parent == noNode:
		apply = func() { a.nodes[child].parent = noNode }
	case n.kind == trunkNode:
		script, err := a.rediff(child, parent)
		if err != nil {
			return err
		}
		apply = func() {
			a.nodes[parent].text = script
			a.nodes[parent].child = child
			a.nodes[child].parent = parent
		}
	case parent == noNode:
		return fmt.Errorf("%w: branch revision %s has no parent", ErrCorruptTree, v)
	default:
		p := a.nodes[parent]
		first := p.Version.Len() < n.Version.Len()
		var num int
		if first {
			num = n.Version.At(p.Version.Len())
		}
		if child == noNode {
			apply = func() {
				if first {
					delete(p.branches, num)
				} else {
					p.child = noNode
				}
			}
			break
		}
		script, err := a.rediff(parent, child)
		if err != nil {
			return err
		}
		apply = func() {
			c := a.nodes[child]
			c.text = script
			c.parent = parent
			if first {
				p.branches[num] = child
			} else {
				p.child = child
			}
		}
	}

	apply()
	delete(a.index, v.String())
	a.nodes[n.id] = nil
	for name, sv := range a.symbols {
		if sv.Equal(v) {
			delete(a.symbols, name)
		}
	}
	if !a.branch.IsZero() && !a.hasBranch(a.branch) {
		a.branch = Version{}
	}
	log.WithFields(log.Fields{"archive": a.name, "revision": v.String()}).Debug("removed revision")
	return nil
}

// hasBranch reports whether any revision lives on branch b.
func (a *Archive) hasBranch(b Version) bool {
	for _, n := range a.nodes {
		if n != nil && n.Version.Len() == b.Len()+1 && n.Version.Base(b.Len()).Equal(b) {
			return true
		}
	}
	return false
}

// RemoveCurrent removes CurrentVersion.
func (a *Archive) RemoveCurrent() error {
	return a.Remove(a.CurrentVersion().String())
}

func (a *Archive) textOf(id NodeID) ([]string, error) {
	p, err := a.pathTo(a.nodes[id].Version, false)
	if err != nil {
		return nil, err
	}
	return p.Text()
}

// rediff returns the delta script turning the text of from into the text
// of to.
func (a *Archive) rediff(from, to NodeID) ([]string, error) {
	src, err := a.textOf(from)
	if err != nil {
		return nil, err
	}
	dst, err := a.textOf(to)
	if err != nil {
		return nil, err
	}
	r, err := diff.DiffWith(src, dst, a.algorithm)
	if err != nil {
		return nil, err
	}
	return diff.Script(r), nil
}

// Nodes returns every revision in version order.
func (a *Archive) Nodes() []*Node {
	out := make([]*Node, 0, len(a.index))
	for _, n := range a.nodes {
		if n != nil {
			out = append(out, n)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Version.Less(out[j].Version) })
	return out
}

// Branches returns the first revisions of the branches rooted at v.
func (a *Archive) Branches(v Version) []Version {
	n, ok := a.FindNode(v)
	if !ok {
		return nil
	}
	var out []Version
	for _, num := range n.branchNumbers() {
		out = append(out, a.nodes[n.branches[num]].Version)
	}
	return out
}

// ChangeLog returns the revisions from latest back to earliest, following
// predecessors. earliest must be an ancestor of latest.
func (a *Archive) ChangeLog(latest, earliest Version) ([]*Node, error) {
	n, ok := a.FindNode(latest)
	if !ok {
		return nil, &NotFoundError{Version: latest}
	}
	var out []*Node
	for {
		out = append(out, n)
		if n.Version.Equal(earliest) {
			return out, nil
		}
		if n.parent == noNode || len(out) > len(a.nodes) {
			return nil, &NotFoundError{Version: earliest}
		}
		n = a.nodes[n.parent]
	}
}

// Log returns the log message of rev.
func (a *Archive) Log(rev string) (string, error) {
	p, err := a.pathFor(rev)
	if err != nil {
		return "", err
	}
	return p.Last().Log, nil
}
