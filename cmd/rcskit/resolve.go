package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var resolveCmd = &cobra.Command{
	Use:   "resolve FILE REV...",
	Short: "Show which revision each REV selects",
	Args:  cobra.MinimumNArgs(2),
	RunE:  runResolve,
}

func runResolve(cmd *cobra.Command, args []string) error {
	opts, err := archiveOptions()
	if err != nil {
		return err
	}
	r, closeRepo, err := openRepository()
	if err != nil {
		return err
	}
	defer closeRepo()

	a, err := r.Load(args[0], opts...)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	missing := 0
	for _, rev := range args[1:] {
		v, ok, err := a.Resolve(rev)
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintf(out, "%s\t-\n", rev)
			missing++
			continue
		}
		fmt.Fprintf(out, "%s\t%s\n", rev, v)
	}
	if missing > 0 {
		return fmt.Errorf("%d of %d revisions not found", missing, len(args)-1)
	}
	return nil
}
