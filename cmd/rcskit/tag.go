package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var tagDelete bool

var tagCmd = &cobra.Command{
	Use:   "tag FILE NAME [REV]",
	Short: "Attach a symbolic name to a revision",
	Long: `Bind NAME to REV in the archive of FILE, replacing an earlier binding.
REV defaults to the current revision and may be a branch number.
With -d the name is removed instead.`,
	Args: cobra.RangeArgs(2, 3),
	RunE: runTag,
}

func runTag(cmd *cobra.Command, args []string) error {
	opts, err := archiveOptions()
	if err != nil {
		return err
	}
	r, closeRepo, err := openRepository()
	if err != nil {
		return err
	}
	defer closeRepo()

	name, sym := args[0], args[1]
	a, err := r.Load(name, opts...)
	if err != nil {
		return err
	}
	if tagDelete {
		if _, ok := a.Symbols()[sym]; !ok {
			return fmt.Errorf("%s: no symbol %s", name, sym)
		}
		a.RemoveSymbol(sym)
		return r.Save(name, a)
	}

	rev := a.CurrentVersion().String()
	if len(args) == 3 {
		v, err := a.Version(args[2])
		if err != nil {
			return err
		}
		if v.IsRevision() {
			if _, err := a.Path(v); err != nil {
				return fmt.Errorf("%s: %w", name, err)
			}
		}
		rev = v.String()
	}
	if err := a.AddSymbol(sym, rev); err != nil {
		return err
	}
	if err := r.Save(name, a); err != nil {
		return err
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "%s: %s -> %s\n", name, sym, rev)
	return nil
}

func init() {
	tagCmd.Flags().BoolVarP(&tagDelete, "delete", "d", false, "Remove the symbolic name")
}
