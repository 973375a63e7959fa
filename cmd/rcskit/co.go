package main

import (
	"bytes"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	coRevision string
	coPrint    bool
	coAnnotate bool
	coExpand   string
	coLock     bool
)

var coCmd = &cobra.Command{
	Use:   "co FILE...",
	Short: "Check out revisions of files",
	Long: `Check out a revision of each FILE from its archive, expanding keywords.

Without -r the default branch tip or the head is used. -r accepts full
revisions, branch numbers (latest revision on the branch), trunk numbers
and symbolic names.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runCo,
}

func runCo(cmd *cobra.Command, args []string) error {
	opts, err := archiveOptions()
	if err != nil {
		return err
	}
	r, closeRepo, err := openRepository()
	if err != nil {
		return err
	}
	defer closeRepo()

	out, status := cmd.OutOrStdout(), cmd.ErrOrStderr()
	for _, name := range args {
		a, err := r.Load(name, opts...)
		if err != nil {
			return err
		}
		if coExpand != "" {
			if err := a.SetExpand(coExpand); err != nil {
				return err
			}
		}
		if coLock {
			v, err := a.Lock(coRevision, cfg.Author)
			if err != nil {
				return fmt.Errorf("%s: %w", name, err)
			}
			if err := r.Save(name, a); err != nil {
				return err
			}
			fmt.Fprintf(status, "%s: revision %s locked\n", name, v)
		}

		if coAnnotate {
			lines, err := a.Annotate(coRevision)
			if err != nil {
				return fmt.Errorf("%s: %w", name, err)
			}
			for _, l := range lines {
				fmt.Fprintf(out, "%-12s %s\n", l.Revision, l.Text)
			}
			continue
		}

		text, v, err := a.Checkout(coRevision)
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		if coPrint {
			if err := writeText(out, text); err != nil {
				return err
			}
			continue
		}
		var buf bytes.Buffer
		if err := writeText(&buf, text); err != nil {
			return err
		}
		if err := os.WriteFile(name, buf.Bytes(), 0644); err != nil {
			return err
		}
		fmt.Fprintf(status, "%s%s  -->  %s\nrevision %s\ndone\n", name, cfg.Suffix, name, v)
	}
	return nil
}

func init() {
	coCmd.Flags().StringVarP(&coRevision, "revision", "r", "", "Revision, branch or symbol to check out")
	coCmd.Flags().BoolVarP(&coPrint, "print", "p", false, "Write the revision to standard output")
	coCmd.Flags().BoolVar(&coAnnotate, "annotate", false, "Print each line with the revision that introduced it")
	coCmd.Flags().StringVarP(&coExpand, "expand", "k", "", "Override the keyword expansion mode")
	coCmd.Flags().BoolVarP(&coLock, "lock", "l", false, "Lock the checked out revision")
}
