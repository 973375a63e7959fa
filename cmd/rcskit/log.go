package main

import (
	"fmt"
	"io"
	"slices"

	"github.com/spf13/cobra"

	"rcskit/rcs"
	"rcskit/rcs/keyword"
)

var (
	logRevision string
	logHeader   bool
)

var logCmd = &cobra.Command{
	Use:   "log FILE...",
	Short: "Show the history of archives",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runLog,
}

func runLog(cmd *cobra.Command, args []string) error {
	opts, err := archiveOptions()
	if err != nil {
		return err
	}
	r, closeRepo, err := openRepository()
	if err != nil {
		return err
	}
	defer closeRepo()

	out := cmd.OutOrStdout()
	for _, name := range args {
		a, err := r.Load(name, opts...)
		if err != nil {
			return err
		}
		nodes := a.Nodes()
		slices.Reverse(nodes)
		if logRevision != "" {
			v, ok, err := a.Resolve(logRevision)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("%s: no revision matches %s", name, logRevision)
			}
			n, _ := a.FindNode(v)
			nodes = []*rcs.Node{n}
		}
		printHeader(out, name, a, len(a.Nodes()), len(nodes))
		if !logHeader {
			for _, n := range nodes {
				printRevision(out, a, n)
			}
		}
		fmt.Fprintln(out, "=============================================================================")
	}
	return nil
}

func printHeader(w io.Writer, name string, a *rcs.Archive, total, selected int) {
	fmt.Fprintf(w, "\nRCS file: %s\n", a.Name())
	fmt.Fprintf(w, "Working file: %s\n", name)
	fmt.Fprintf(w, "head: %s\n", a.Head())
	if b := a.Branch(); !b.IsZero() {
		fmt.Fprintf(w, "branch: %s\n", b)
	}
	fmt.Fprint(w, "locks:")
	if a.StrictLocking() {
		fmt.Fprint(w, " strict")
	}
	fmt.Fprintln(w)
	for _, l := range a.Locks() {
		fmt.Fprintf(w, "\t%s: %s\n", l.User, l.Version)
	}
	fmt.Fprintln(w, "access list:")
	for _, u := range a.Users() {
		fmt.Fprintf(w, "\t%s\n", u)
	}
	fmt.Fprintln(w, "symbolic names:")
	syms := a.Symbols()
	names := make([]string, 0, len(syms))
	for s := range syms {
		names = append(names, s)
	}
	slices.Sort(names)
	for _, s := range names {
		fmt.Fprintf(w, "\t%s: %s\n", s, syms[s])
	}
	mode := a.Expand()
	if mode == "" {
		mode = "kv"
	}
	fmt.Fprintf(w, "keyword substitution: %s\n", mode)
	fmt.Fprintf(w, "total revisions: %d;\tselected revisions: %d\n", total, selected)
	fmt.Fprintf(w, "description:\n%s", a.Desc())
	if d := a.Desc(); d != "" && d[len(d)-1] != '\n' {
		fmt.Fprintln(w)
	}
}

func printRevision(w io.Writer, a *rcs.Archive, n *rcs.Node) {
	fmt.Fprintln(w, "----------------------------")
	fmt.Fprintf(w, "revision %s", n.Version)
	if n.Locker != "" {
		fmt.Fprintf(w, "\tlocked by: %s;", n.Locker)
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "date: %s;  author: %s;  state: %s;\n", n.Date.UTC().Format(keyword.DateLayout), n.Author, n.State)
	if branches := a.Branches(n.Version); len(branches) > 0 {
		fmt.Fprint(w, "branches:")
		for _, b := range branches {
			fmt.Fprintf(w, "  %s;", b.Base(b.Len()-1))
		}
		fmt.Fprintln(w)
	}
	fmt.Fprint(w, n.Log)
	if n.Log == "" || n.Log[len(n.Log)-1] != '\n' {
		fmt.Fprintln(w)
	}
}

func init() {
	logCmd.Flags().StringVarP(&logRevision, "revision", "r", "", "Show only this revision")
	logCmd.Flags().BoolVar(&logHeader, "header", false, "Show only the archive header")
}
