package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var outdateCmd = &cobra.Command{
	Use:   "outdate FILE REV",
	Short: "Remove a revision from an archive",
	Long: `Remove revision REV from the archive of FILE. Neighbouring revisions
keep their texts. Revisions that start branches cannot be removed, nor
can the last remaining revision.`,
	Args: cobra.ExactArgs(2),
	RunE: runOutdate,
}

func runOutdate(cmd *cobra.Command, args []string) error {
	opts, err := archiveOptions()
	if err != nil {
		return err
	}
	r, closeRepo, err := openRepository()
	if err != nil {
		return err
	}
	defer closeRepo()

	name := args[0]
	a, err := r.Load(name, opts...)
	if err != nil {
		return err
	}
	v, ok, err := a.Resolve(args[1])
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%s: no revision matches %s", name, args[1])
	}
	if err := a.Remove(v.String()); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	if err := r.Save(name, a); err != nil {
		return err
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "%s: deleting revision %s\ndone\n", name, v)
	return nil
}
