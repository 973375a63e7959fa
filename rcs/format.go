package rcs

import (
	"io"
	"sort"
	"strings"
)

// DateLayout is the layout of revision dates in archive files.
const DateLayout = "2006.01.02.15.04.05"

// WriteTo writes the archive in RCS file format.
func (a *Archive) WriteTo(w io.Writer) (int64, error) {
	n, err := io.WriteString(w, a.String())
	return int64(n), err
}

// String renders the archive in RCS file format.
func (a *Archive) String() string {
	var b strings.Builder

	b.WriteString("head\t" + a.Head().String() + ";\n")
	if !a.branch.IsZero() {
		b.WriteString("branch\t" + a.branch.String() + ";\n")
	}

	b.WriteString("access")
	for _, u := range a.users {
		b.WriteString("\n\t" + u)
	}
	b.WriteString(";\n")

	b.WriteString("symbols")
	names := make([]string, 0, len(a.symbols))
	for name := range a.symbols {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		b.WriteString("\n\t" + name + ":" + a.symbols[name].String())
	}
	b.WriteString(";\n")

	b.WriteString("locks")
	for _, l := range a.Locks() {
		b.WriteString("\n\t" + l.User + ":" + l.Version.String())
	}
	b.WriteString(";")
	if a.strict {
		b.WriteString(" strict;")
	}
	b.WriteString("\n")

	b.WriteString("comment\t" + quote(a.comment) + ";\n")
	if a.expand != "" {
		b.WriteString("expand\t" + quote(a.expand) + ";\n")
	}
	b.WriteString("\n")

	order := a.fileOrder()
	for _, id := range order {
		n := a.nodes[id]
		b.WriteString("\n" + n.Version.String() + "\n")
		b.WriteString("date\t" + n.Date.UTC().Format(DateLayout) + ";\tauthor " + n.Author + ";\tstate " + n.State + ";\n")
		b.WriteString("branches")
		for _, num := range n.branchNumbers() {
			b.WriteString("\n\t" + a.nodes[n.branches[num]].Version.String())
		}
		b.WriteString(";\n")
		b.WriteString("next\t")
		if next := n.rcsNext(); next != noNode {
			b.WriteString(a.nodes[next].Version.String())
		}
		b.WriteString(";\n")
	}

	b.WriteString("\n\ndesc\n" + quote(a.desc) + "\n")

	for _, id := range order {
		n := a.nodes[id]
		b.WriteString("\n\n" + n.Version.String() + "\n")
		b.WriteString("log\n" + quote(n.Log) + "\n")
		b.WriteString("text\n" + quote(joinLines(n.text)) + "\n")
	}
	return b.String()
}

// fileOrder lists nodes the way RCS files do: each node, then the
// branches that start at it, then its rcs next.
func (a *Archive) fileOrder() []NodeID {
	var out []NodeID
	var visit func(id NodeID)
	visit = func(id NodeID) {
		for id != noNode {
			n := a.nodes[id]
			out = append(out, id)
			for _, num := range n.branchNumbers() {
				visit(n.branches[num])
			}
			id = n.rcsNext()
		}
	}
	if a.head != noNode {
		visit(a.head)
	}
	return out
}

func quote(s string) string {
	return "@" + strings.ReplaceAll(s, "@", "@@") + "@"
}

func joinLines(lines []string) string {
	var b strings.Builder
	for _, l := range lines {
		b.WriteString(l)
		b.WriteByte('\n')
	}
	return b.String()
}

func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(strings.TrimSuffix(s, "\n"), "\n")
}
