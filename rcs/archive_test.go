package rcs

import (
	"errors"
	"slices"
	"strings"
	"testing"
	"time"
)

var testDate = time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

func testOptions() []Option {
	return []Option{
		WithAuthor("sam"),
		WithClock(func() time.Time { return testDate }),
		WithName("dir/file.txt,v"),
	}
}

func lines(s string) []string {
	return strings.Fields(s)
}

var treeTexts = map[string][]string{
	"1.1":     lines("a b c"),
	"1.2":     lines("a B c"),
	"1.3":     lines("a B c d"),
	"1.2.1.1": lines("x a B c"),
	"1.2.1.2": lines("x a B c y"),
	"1.2.2.1": lines("a B c z"),
}

func mustAdd(t *testing.T, a *Archive, text []string, rev, want string) {
	t.Helper()
	v, ok, err := a.AddRevision(text, rev, "log for "+want)
	if err != nil {
		t.Fatalf("AddRevision(%q): %v", rev, err)
	}
	if !ok {
		t.Fatalf("AddRevision(%q): no revision added", rev)
	}
	if v.String() != want {
		t.Fatalf("AddRevision(%q) = %s, want %s", rev, v, want)
	}
}

// buildTree creates trunk 1.1-1.3 with two branches at 1.2.
func buildTree(t *testing.T) *Archive {
	t.Helper()
	a, err := New(treeTexts["1.1"], "test file", testOptions()...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	mustAdd(t, a, treeTexts["1.2"], "", "1.2")
	mustAdd(t, a, treeTexts["1.3"], "", "1.3")
	mustAdd(t, a, treeTexts["1.2.1.1"], "1.2.1", "1.2.1.1")
	mustAdd(t, a, treeTexts["1.2.1.2"], "1.2.1", "1.2.1.2")
	mustAdd(t, a, treeTexts["1.2.2.1"], "1.2.0", "1.2.2.1")
	return a
}

func checkTexts(t *testing.T, a *Archive, want map[string][]string) {
	t.Helper()
	for rev, text := range want {
		got, err := a.Revision(rev)
		if err != nil {
			t.Errorf("Revision(%s): %v", rev, err)
			continue
		}
		if !slices.Equal(got, text) {
			t.Errorf("Revision(%s) = %q, want %q", rev, got, text)
		}
	}
}

func TestNewArchive(t *testing.T) {
	a, err := New(lines("one two"), "desc", testOptions()...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if a.Head().String() != "1.1" {
		t.Errorf("Head = %s, want 1.1", a.Head())
	}
	n, ok := a.FindNode(MustParseVersion("1.1"))
	if !ok {
		t.Fatal("1.1 not found")
	}
	if n.Author != "sam" || !n.Date.Equal(testDate) || n.State != DefaultState || n.Log != "Initial revision" {
		t.Errorf("unexpected node data: %+v", n)
	}
	checkTexts(t, a, map[string][]string{"1.1": lines("one two")})
}

func TestNewAt(t *testing.T) {
	a, err := NewAt(lines("x"), "", "3", testOptions()...)
	if err != nil {
		t.Fatalf("NewAt: %v", err)
	}
	if a.Head().String() != "3.1" {
		t.Errorf("Head = %s, want 3.1", a.Head())
	}
	for _, bad := range []string{"1.2.1.1", "1.2.1", "1.0"} {
		if _, err := NewAt(nil, "", bad); !errors.Is(err, ErrInvalidVersion) {
			t.Errorf("NewAt(%s): expected ErrInvalidVersion, got %v", bad, err)
		}
	}
}

func TestAddRevisionTree(t *testing.T) {
	a := buildTree(t)
	checkTexts(t, a, treeTexts)

	if a.Head().String() != "1.3" {
		t.Errorf("Head = %s, want 1.3", a.Head())
	}
	head, _ := a.FindNode(a.Head())
	if !slices.Equal(head.text, treeTexts["1.3"]) {
		t.Errorf("head should hold its full text, got %q", head.text)
	}
	n, _ := a.FindNode(MustParseVersion("1.1"))
	if want := []string{"d2 1", "a2 1", "b"}; !slices.Equal(n.text, want) {
		t.Errorf("1.1 delta = %q, want %q", n.text, want)
	}

	got := a.Branches(MustParseVersion("1.2"))
	if len(got) != 2 || got[0].String() != "1.2.1.1" || got[1].String() != "1.2.2.1" {
		t.Errorf("Branches(1.2) = %v", got)
	}
	if len(a.Nodes()) != 6 {
		t.Errorf("expected 6 nodes, got %d", len(a.Nodes()))
	}
}

func TestAddRevisionStoresReverseDelta(t *testing.T) {
	v1 := []string{"1", "2", "3", "4"}
	v2 := []string{"a0", "1", "a1", "a2", "a3", "4"}
	a, err := New(v1, "", testOptions()...)
	if err != nil {
		t.Fatal(err)
	}
	mustAdd(t, a, v2, "", "1.2")
	mustAdd(t, a, v1, "", "1.3")

	n, _ := a.FindNode(MustParseVersion("1.2"))
	want := []string{"a0 1", "a0", "d2 2", "a3 3", "a1", "a2", "a3"}
	if !slices.Equal(n.text, want) {
		t.Errorf("1.2 delta = %q, want %q", n.text, want)
	}
	checkTexts(t, a, map[string][]string{"1.1": v1, "1.2": v2, "1.3": v1})
}

func TestAddRevisionNoChange(t *testing.T) {
	a := buildTree(t)
	v, ok, err := a.AddRevision(treeTexts["1.3"], "", "nothing")
	if err != nil || ok || !v.IsZero() {
		t.Fatalf("AddRevision(same text) = %s, %v, %v", v, ok, err)
	}
	v, ok, err = a.AddRevision(treeTexts["1.2.1.2"], "1.2.1", "nothing")
	if err != nil || ok {
		t.Fatalf("AddRevision(same branch text) = %s, %v, %v", v, ok, err)
	}
	if len(a.Nodes()) != 6 || a.Head().String() != "1.3" {
		t.Error("archive changed by a no-op add")
	}
}

func TestAddRevisionNewTrunk(t *testing.T) {
	a := buildTree(t)
	mustAdd(t, a, lines("major two"), "2", "2.1")
	mustAdd(t, a, lines("major two again"), "", "2.2")
	mustAdd(t, a, lines("jump"), "2.7", "2.7")

	want := map[string][]string{"2.1": lines("major two"), "2.2": lines("major two again"), "2.7": lines("jump")}
	for k, v := range treeTexts {
		want[k] = v
	}
	checkTexts(t, a, want)
}

func TestAddRevisionExplicitBranchNumbers(t *testing.T) {
	a := buildTree(t)
	mustAdd(t, a, lines("eight two"), "1.2.8.2", "1.2.8.2")

	if _, _, err := a.AddRevision(lines("eight one"), "1.2.8.1", ""); !errors.Is(err, ErrInvalidVersion) {
		t.Errorf("adding below an existing branch revision: expected ErrInvalidVersion, got %v", err)
	}
	mustAdd(t, a, lines("eight four"), "1.2.8.4", "1.2.8.4")
	if _, _, err := a.AddRevision(lines("eight three"), "1.2.8.3", ""); !errors.Is(err, ErrInvalidVersion) {
		t.Errorf("adding inside a branch: expected ErrInvalidVersion, got %v", err)
	}

	checkTexts(t, a, map[string][]string{
		"1.2.8.2": lines("eight two"),
		"1.2.8.4": lines("eight four"),
		"1.2.8":   lines("eight four"),
	})
	if _, err := a.Revision("1.2.8.1"); !errors.Is(err, ErrNodeNotFound) {
		t.Errorf("Revision(1.2.8.1): expected ErrNodeNotFound, got %v", err)
	}
}

func TestAddRevisionRejects(t *testing.T) {
	a := buildTree(t)
	tests := []struct {
		rev  string
		want error
	}{
		{"1.2", ErrInvalidVersion},
		{"1.1", ErrInvalidVersion},
		{"1.3", ErrInvalidVersion},
		{"1.5.1", ErrInvalidBranchVersion},
		{"1.2.1.1", ErrInvalidVersion},
		{"nosuch", ErrInvalidVersion},
		{"1..2", ErrInvalidVersion},
	}
	for _, tt := range tests {
		_, _, err := a.AddRevision(lines("new text"), tt.rev, "")
		if !errors.Is(err, tt.want) {
			t.Errorf("AddRevision(%q): expected %v, got %v", tt.rev, tt.want, err)
		}
	}

	mustAdd(t, a, lines("two"), "2", "2.1")
	for _, rev := range []string{"1", "1.4"} {
		if _, _, err := a.AddRevision(lines("old trunk"), rev, ""); !errors.Is(err, ErrInvalidTrunkVersion) {
			t.Errorf("AddRevision(%q) below head: expected ErrInvalidTrunkVersion, got %v", rev, err)
		}
	}
	if len(a.Nodes()) != 7 {
		t.Errorf("rejected adds changed the archive: %d nodes", len(a.Nodes()))
	}
}

func TestResolve(t *testing.T) {
	a := buildTree(t)
	if err := a.AddSymbol("stable", "1.2.1"); err != nil {
		t.Fatal(err)
	}
	if err := a.AddSymbol("first", "1.1"); err != nil {
		t.Fatal(err)
	}
	tests := []struct {
		in   string
		want string // empty means no match
	}{
		{"1", "1.3"},
		{"1.", "1.3"},
		{"1.0", "1.3"},
		{"1.1", "1.1"},
		{"1.3", "1.3"},
		{"2", ""},
		{"1.4", ""},
		{"0.5", ""},
		{"1.2.1", "1.2.1.2"},
		{"1.2.1.1", "1.2.1.1"},
		{"1.2.1.5", ""},
		{"1.2.2", "1.2.2.1"},
		{"1.2.0", "1.2.2.1"},
		{"1.2.", "1.2.2.1"},
		{"1.2.3", ""},
		{"1.3.1", ""},
		{"1.1.0", ""},
		{"stable", "1.2.1.2"},
		{"first", "1.1"},
	}
	for _, tt := range tests {
		v, ok, err := a.Resolve(tt.in)
		if err != nil {
			t.Errorf("Resolve(%q): %v", tt.in, err)
			continue
		}
		if tt.want == "" {
			if ok {
				t.Errorf("Resolve(%q) = %s, want no match", tt.in, v)
			}
			continue
		}
		if !ok || v.String() != tt.want {
			t.Errorf("Resolve(%q) = %s (%v), want %s", tt.in, v, ok, tt.want)
		}
	}

	if _, _, err := a.Resolve("nosuch"); !errors.Is(err, ErrInvalidVersion) {
		t.Errorf("Resolve(unknown symbol): expected ErrInvalidVersion, got %v", err)
	}
}

func TestPathErrors(t *testing.T) {
	a := buildTree(t)

	_, err := a.Path(MustParseVersion("1.2.3"))
	if !errors.Is(err, ErrBranchNotFound) || !errors.Is(err, ErrNodeNotFound) {
		t.Errorf("Path(1.2.3): expected ErrBranchNotFound, got %v", err)
	}
	_, err = a.Path(MustParseVersion("1.9"))
	if !errors.Is(err, ErrNodeNotFound) || errors.Is(err, ErrBranchNotFound) {
		t.Errorf("Path(1.9): expected ErrNodeNotFound only, got %v", err)
	}
	if _, err := a.Revision("1.2.1.7"); !errors.Is(err, ErrNodeNotFound) {
		t.Errorf("Revision(1.2.1.7): expected ErrNodeNotFound, got %v", err)
	}

	p, err := a.Path(MustParseVersion("1.2.1.2"))
	if err != nil {
		t.Fatal(err)
	}
	var got []string
	for _, n := range p.Nodes() {
		got = append(got, n.Version.String())
	}
	if want := []string{"1.3", "1.2", "1.2.1.1", "1.2.1.2"}; !slices.Equal(got, want) {
		t.Errorf("path = %v, want %v", got, want)
	}
}

func TestAnnotate(t *testing.T) {
	a := buildTree(t)
	tests := []struct {
		rev  string
		want []string
	}{
		{"1.1", []string{"1.1", "1.1", "1.1"}},
		{"1.3", []string{"1.1", "1.2", "1.1", "1.3"}},
		{"1.2.1.2", []string{"1.2.1.1", "1.1", "1.2", "1.1", "1.2.1.2"}},
		{"1.2.2.1", []string{"1.1", "1.2", "1.1", "1.2.2.1"}},
	}
	for _, tt := range tests {
		got, err := a.Annotate(tt.rev)
		if err != nil {
			t.Errorf("Annotate(%s): %v", tt.rev, err)
			continue
		}
		if len(got) != len(tt.want) {
			t.Errorf("Annotate(%s): %d lines, want %d", tt.rev, len(got), len(tt.want))
			continue
		}
		for i, l := range got {
			if l.Text != treeTexts[tt.rev][i] || l.Revision.String() != tt.want[i] {
				t.Errorf("Annotate(%s)[%d] = %q by %s, want %q by %s", tt.rev, i, l.Text, l.Revision, treeTexts[tt.rev][i], tt.want[i])
			}
		}
	}
}

func TestRemove(t *testing.T) {
	tests := []struct {
		name    string
		rev     string
		head    string
		resolve map[string]string
	}{
		{"head", "1.3", "1.2", map[string]string{"1": "1.2", "1.3": ""}},
		{"trunk root", "1.1", "1.3", map[string]string{"1.1": ""}},
		{"branch tip", "1.2.1.2", "1.3", map[string]string{"1.2.1": "1.2.1.1"}},
		{"branch start", "1.2.1.1", "1.3", map[string]string{"1.2.1": "1.2.1.2", "1.2.1.1": ""}},
		{"only branch revision", "1.2.2.1", "1.3", map[string]string{"1.2.2": "", "1.2.0": "1.2.1.2"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := buildTree(t)
			if err := a.AddSymbol("doomed", tt.rev); err != nil {
				t.Fatal(err)
			}
			if err := a.Remove(tt.rev); err != nil {
				t.Fatalf("Remove(%s): %v", tt.rev, err)
			}
			if a.Head().String() != tt.head {
				t.Errorf("Head = %s, want %s", a.Head(), tt.head)
			}
			if _, ok := a.Symbols()["doomed"]; ok {
				t.Error("symbol naming the removed revision survived")
			}
			if _, ok := a.FindNode(MustParseVersion(tt.rev)); ok {
				t.Error("removed node still indexed")
			}
			if len(a.Nodes()) != 5 {
				t.Errorf("expected 5 nodes, got %d", len(a.Nodes()))
			}

			rest := make(map[string][]string)
			for k, v := range treeTexts {
				if k != tt.rev {
					rest[k] = v
				}
			}
			checkTexts(t, a, rest)

			for in, want := range tt.resolve {
				v, ok, err := a.Resolve(in)
				if err != nil {
					t.Errorf("Resolve(%s): %v", in, err)
					continue
				}
				if (want == "") == ok || (ok && v.String() != want) {
					t.Errorf("Resolve(%s) = %s (%v), want %q", in, v, ok, want)
				}
			}
		})
	}
}

func TestRemoveBranchTipAfterFirst(t *testing.T) {
	a, err := New(lines("a"), "", testOptions()...)
	if err != nil {
		t.Fatal(err)
	}
	mustAdd(t, a, lines("a b"), "1.1.1", "1.1.1.1")
	mustAdd(t, a, lines("a b c"), "1.1.1", "1.1.1.2")
	if err := a.Remove("1.1.1.2"); err != nil {
		t.Fatalf("Remove(1.1.1.2): %v", err)
	}
	if v, ok, err := a.Resolve("1.1.1"); err != nil || !ok || v.String() != "1.1.1.1" {
		t.Errorf("Resolve(1.1.1) = %s, %v, %v", v, ok, err)
	}
	checkTexts(t, a, map[string][]string{"1.1": lines("a"), "1.1.1.1": lines("a b")})
}

func TestPathBelowRemovedBranchStart(t *testing.T) {
	a := buildTree(t)
	if err := a.Remove("1.2.1.1"); err != nil {
		t.Fatal(err)
	}
	_, err := a.Path(MustParseVersion("1.2.1.1"))
	if !errors.Is(err, ErrNodeNotFound) || errors.Is(err, ErrCorruptTree) {
		t.Errorf("Path(1.2.1.1): expected ErrNodeNotFound, got %v", err)
	}
	checkTexts(t, a, map[string][]string{"1.2.1.2": treeTexts["1.2.1.2"]})
}

func TestRemoveBranchInterior(t *testing.T) {
	a := buildTree(t)
	mustAdd(t, a, lines("x a B c y w"), "1.2.1", "1.2.1.3")
	if err := a.Remove("1.2.1.2"); err != nil {
		t.Fatalf("Remove(1.2.1.2): %v", err)
	}

	want := make(map[string][]string)
	for k, v := range treeTexts {
		if k != "1.2.1.2" {
			want[k] = v
		}
	}
	want["1.2.1.3"] = lines("x a B c y w")
	checkTexts(t, a, want)

	if v, ok, err := a.Resolve("1.2.1"); err != nil || !ok || v.String() != "1.2.1.3" {
		t.Errorf("Resolve(1.2.1) = %s, %v, %v", v, ok, err)
	}
	if _, ok, _ := a.Resolve("1.2.1.2"); ok {
		t.Error("1.2.1.2 still resolves")
	}

	back, err := Parse(a.Name(), a.String())
	if err != nil {
		t.Fatalf("Parse after removal: %v", err)
	}
	checkTexts(t, back, want)
}

func TestRemoveClearsDefaultBranch(t *testing.T) {
	a := buildTree(t)
	if err := a.SetBranch("1.2.2"); err != nil {
		t.Fatal(err)
	}
	if err := a.Remove("1.2.2.1"); err != nil {
		t.Fatal(err)
	}
	if !a.Branch().IsZero() {
		t.Errorf("default branch %s survived removal of its last revision", a.Branch())
	}
	if strings.Contains(a.String(), "branch\t") {
		t.Error("archive still names a default branch")
	}

	if err := a.SetBranch("1.2.1"); err != nil {
		t.Fatal(err)
	}
	if err := a.Remove("1.2.1.2"); err != nil {
		t.Fatal(err)
	}
	if a.Branch().String() != "1.2.1" {
		t.Errorf("default branch changed to %q while it still has revisions", a.Branch())
	}
}

func TestRemoveTrunkInterior(t *testing.T) {
	a, err := New(treeTexts["1.1"], "", testOptions()...)
	if err != nil {
		t.Fatal(err)
	}
	mustAdd(t, a, treeTexts["1.2"], "", "1.2")
	mustAdd(t, a, treeTexts["1.3"], "", "1.3")

	if err := a.Remove("1.2"); err != nil {
		t.Fatalf("Remove(1.2): %v", err)
	}
	checkTexts(t, a, map[string][]string{"1.1": treeTexts["1.1"], "1.3": treeTexts["1.3"]})
	if _, ok, _ := a.Resolve("1.2"); ok {
		t.Error("1.2 still resolves")
	}
	log, err := a.ChangeLog(MustParseVersion("1.3"), MustParseVersion("1.1"))
	if err != nil || len(log) != 2 {
		t.Errorf("ChangeLog after removal = %v, %v", log, err)
	}
}

func TestRemoveRejects(t *testing.T) {
	a := buildTree(t)
	if err := a.Remove("1.2"); !errors.Is(err, ErrUnsupportedRemoval) {
		t.Errorf("Remove(node with branches): expected ErrUnsupportedRemoval, got %v", err)
	}
	if err := a.Remove("1.9"); !errors.Is(err, ErrNodeNotFound) {
		t.Errorf("Remove(missing): expected ErrNodeNotFound, got %v", err)
	}
	checkTexts(t, a, treeTexts)

	single, err := New(lines("only"), "", testOptions()...)
	if err != nil {
		t.Fatal(err)
	}
	if err := single.RemoveCurrent(); !errors.Is(err, ErrUnsupportedRemoval) {
		t.Errorf("Remove(only revision): expected ErrUnsupportedRemoval, got %v", err)
	}
}

func TestDefaultBranchCommit(t *testing.T) {
	a := buildTree(t)
	if err := a.SetBranch("1.2.1"); err != nil {
		t.Fatal(err)
	}
	if v := a.CurrentVersion(); v.String() != "1.2.1.2" {
		t.Errorf("CurrentVersion = %s, want 1.2.1.2", v)
	}
	v, ok, err := a.Commit(lines("x a B c y w"), "on branch")
	if err != nil || !ok || v.String() != "1.2.1.3" {
		t.Fatalf("Commit = %s, %v, %v", v, ok, err)
	}
	text, err := a.Revision("")
	if err != nil || !slices.Equal(text, lines("x a B c y w")) {
		t.Errorf("Revision(\"\") = %q, %v", text, err)
	}
	if msg, _ := a.Log(""); msg != "on branch" {
		t.Errorf("Log = %q", msg)
	}
	if err := a.SetBranch("1.2"); !errors.Is(err, ErrInvalidBranchVersion) {
		t.Errorf("SetBranch(1.2): expected ErrInvalidBranchVersion, got %v", err)
	}
}

func TestChangeLog(t *testing.T) {
	a := buildTree(t)
	nodes, err := a.ChangeLog(MustParseVersion("1.2.1.2"), MustParseVersion("1.1"))
	if err != nil {
		t.Fatal(err)
	}
	var got []string
	for _, n := range nodes {
		got = append(got, n.Version.String())
	}
	if want := []string{"1.2.1.2", "1.2.1.1", "1.2", "1.1"}; !slices.Equal(got, want) {
		t.Errorf("ChangeLog = %v, want %v", got, want)
	}
	if _, err := a.ChangeLog(MustParseVersion("1.3"), MustParseVersion("1.2.1.1")); !errors.Is(err, ErrNodeNotFound) {
		t.Errorf("ChangeLog(unrelated): expected ErrNodeNotFound, got %v", err)
	}
}

func TestCheckoutKeywords(t *testing.T) {
	a, err := New([]string{"$Id$", "body $Revision: old $"}, "", testOptions()...)
	if err != nil {
		t.Fatal(err)
	}
	text, v, err := a.Checkout("")
	if err != nil {
		t.Fatal(err)
	}
	if v.String() != "1.1" {
		t.Errorf("checked out %s", v)
	}
	want := []string{"$Id: file.txt,v 1.1 2024/01/02 03:04:05 sam Exp $", "body $Revision: 1.1 $"}
	if !slices.Equal(text, want) {
		t.Errorf("Checkout = %q, want %q", text, want)
	}

	if _, ok, err := a.AddRevision(text, "", "expanded"); err != nil || ok {
		t.Errorf("checking in expanded keywords should be a no-op: ok %v err %v", ok, err)
	}

	if err := a.SetExpand("o"); err != nil {
		t.Fatal(err)
	}
	text, _, err = a.Checkout("1.1")
	if err != nil {
		t.Fatal(err)
	}
	if text[0] != "$Id$" {
		t.Errorf("mode o expanded keywords: %q", text[0])
	}
	if err := a.SetExpand("zz"); err == nil {
		t.Error("SetExpand accepted an unknown mode")
	}
}

func TestWithExpand(t *testing.T) {
	a, err := New([]string{"$Id$"}, "", append(testOptions(), WithExpand("b"))...)
	if err != nil {
		t.Fatal(err)
	}
	text, _, err := a.Checkout("")
	if err != nil {
		t.Fatal(err)
	}
	if text[0] != "$Id$" {
		t.Errorf("mode b expanded keywords: %q", text[0])
	}
	back, err := Parse(a.Name(), a.String())
	if err != nil {
		t.Fatal(err)
	}
	if back.Expand() != "b" {
		t.Errorf("expand mode lost in round trip: %q", back.Expand())
	}

	if _, err := New([]string{"x"}, "", WithExpand("nope")); err == nil {
		t.Error("New accepted an unknown expansion mode")
	}
}

func TestLocks(t *testing.T) {
	a := buildTree(t)
	if _, err := a.Lock("1.2.1", "sam"); err != nil {
		t.Fatal(err)
	}
	if _, err := a.Lock("1.2.1.2", "bob"); err == nil {
		t.Error("second user locked a held revision")
	}
	locks := a.Locks()
	if len(locks) != 1 || locks[0].User != "sam" || locks[0].Version.String() != "1.2.1.2" {
		t.Errorf("Locks = %v", locks)
	}
	prev, err := a.Unlock("1.2.1.2")
	if err != nil || prev != "sam" {
		t.Errorf("Unlock = %q, %v", prev, err)
	}
	if len(a.Locks()) != 0 {
		t.Error("lock survived Unlock")
	}
}

func TestSymbolsAndUsers(t *testing.T) {
	a := buildTree(t)
	if err := a.AddSymbol("9bad", "1.1"); err == nil {
		t.Error("accepted symbol starting with a digit")
	}
	if err := a.AddSymbol("good", "1.x"); !errors.Is(err, ErrInvalidVersion) {
		t.Errorf("AddSymbol(bad version): %v", err)
	}
	a.AddUser("sam")
	a.AddUser("sam")
	a.AddUser("bob")
	a.RemoveUser("sam")
	if got := a.Users(); !slices.Equal(got, []string{"bob"}) {
		t.Errorf("Users = %v", got)
	}
}
