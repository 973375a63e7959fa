package rcs

import (
	"fmt"
	"regexp"
	"slices"
	"sort"

	"rcskit/rcs/keyword"
)

var symbolPattern = regexp.MustCompile(`^[A-Za-z_-][A-Za-z0-9_-]*$`)

// Lock is a revision reserved by a user.
type Lock struct {
	User    string
	Version Version
}

// Name returns the archive file name.
func (a *Archive) Name() string { return a.name }

// SetName sets the archive file name.
func (a *Archive) SetName(name string) { a.name = name }

// Desc returns the archive description.
func (a *Archive) Desc() string { return a.desc }

// SetDesc replaces the archive description.
func (a *Archive) SetDesc(desc string) { a.desc = desc }

// Comment returns the comment leader.
func (a *Archive) Comment() string { return a.comment }

// SetComment sets the comment leader.
func (a *Archive) SetComment(c string) { a.comment = c }

// Expand returns the keyword expansion mode; empty means kv.
func (a *Archive) Expand() string { return a.expand }

// SetExpand sets the keyword expansion mode.
func (a *Archive) SetExpand(mode string) error {
	if !keyword.ValidMode(mode) {
		return fmt.Errorf("unknown keyword expansion mode %q", mode)
	}
	a.expand = mode
	return nil
}

// Branch returns the default branch, or the zero version if unset.
func (a *Archive) Branch() Version { return a.branch }

// SetBranch sets the default branch used by Commit and checkouts without a
// revision. An empty string clears it.
func (a *Archive) SetBranch(rev string) error {
	if rev == "" {
		a.branch = Version{}
		return nil
	}
	v, err := a.Version(rev)
	if err != nil {
		return err
	}
	if !v.IsBranchDesignator() || v.Len() < 3 {
		return &VersionError{Input: rev, Reason: "not a branch", Kind: ErrInvalidBranchVersion}
	}
	a.branch = v
	return nil
}

// Users returns the access list.
func (a *Archive) Users() []string {
	return slices.Clone(a.users)
}

// AddUser adds name to the access list.
func (a *Archive) AddUser(name string) {
	if !slices.Contains(a.users, name) {
		a.users = append(a.users, name)
	}
}

// RemoveUser removes name from the access list.
func (a *Archive) RemoveUser(name string) {
	a.users = slices.DeleteFunc(a.users, func(u string) bool { return u == name })
}

// Symbols returns a copy of the symbol table.
func (a *Archive) Symbols() map[string]Version {
	out := make(map[string]Version, len(a.symbols))
	for k, v := range a.symbols {
		out[k] = v
	}
	return out
}

// AddSymbol binds name to rev, replacing any earlier binding. rev may be a
// revision or a branch designator.
func (a *Archive) AddSymbol(name, rev string) error {
	if !symbolPattern.MatchString(name) {
		return fmt.Errorf("invalid symbol name %q", name)
	}
	v, err := ParseVersion(rev)
	if err != nil {
		return err
	}
	a.symbols[name] = v
	return nil
}

// RemoveSymbol deletes name from the symbol table.
func (a *Archive) RemoveSymbol(name string) {
	delete(a.symbols, name)
}

// StrictLocking reports whether check-ins require a lock.
func (a *Archive) StrictLocking() bool { return a.strict }

// SetStrictLocking sets strict locking.
func (a *Archive) SetStrictLocking(strict bool) { a.strict = strict }

// Lock reserves revision rev for user.
func (a *Archive) Lock(rev, user string) (Version, error) {
	p, err := a.pathFor(rev)
	if err != nil {
		return Version{}, err
	}
	n := p.Last()
	if n.Locker != "" && n.Locker != user {
		return Version{}, fmt.Errorf("revision %s is locked by %s", n.Version, n.Locker)
	}
	n.Locker = user
	return n.Version, nil
}

// Unlock releases the lock on rev and returns the previous holder.
func (a *Archive) Unlock(rev string) (string, error) {
	p, err := a.pathFor(rev)
	if err != nil {
		return "", err
	}
	n := p.Last()
	prev := n.Locker
	n.Locker = ""
	return prev, nil
}

// Locks returns all held locks in version order.
func (a *Archive) Locks() []Lock {
	var out []Lock
	for _, n := range a.nodes {
		if n != nil && n.Locker != "" {
			out = append(out, Lock{User: n.Locker, Version: n.Version})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Version.Less(out[j].Version) })
	return out
}
