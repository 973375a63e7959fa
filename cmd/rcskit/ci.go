package main

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"rcskit/internal/expand"
	"rcskit/internal/repo"
	"rcskit/rcs"
)

const emptyLogMessage = "*** empty log message ***"

var (
	ciRevision string
	ciMessage  string
	ciDesc     string
	ciExpand   string
	ciUnlock   bool
)

var ciCmd = &cobra.Command{
	Use:   "ci FILE...",
	Short: "Check in files as new revisions",
	Long: `Check in each FILE as a new revision of its archive, creating the
archive if it does not exist yet. Files are processed concurrently.

Revision selection (-r):
  (none)     next revision on the default branch, or after the head
  1.5        exactly 1.5 (must follow the head)
  2          first revision of trunk 2 (2.1)
  1.2.1      next revision on branch 1.2.1
  1.2.0      a new branch at 1.2

New archives start at -r when it names a trunk revision, 1.1 otherwise.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runCi,
}

func runCi(cmd *cobra.Command, args []string) error {
	opts, err := archiveOptions()
	if err != nil {
		return err
	}
	rules, err := loadRules()
	if err != nil {
		return err
	}
	r, closeRepo, err := openRepository()
	if err != nil {
		return err
	}
	defer closeRepo()

	var names []string
	for _, a := range args {
		if !slices.Contains(names, a) {
			names = append(names, a)
		}
	}

	results := make([]string, len(names))
	g, ctx := errgroup.WithContext(cmd.Context())
	g.SetLimit(cfg.Workers)
	for i, name := range names {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			msg, err := checkIn(r, rules, name, opts)
			if err != nil {
				return fmt.Errorf("%s: %w", name, err)
			}
			results[i] = msg
			return nil
		})
	}
	err = g.Wait()

	out := cmd.ErrOrStderr()
	for _, msg := range results {
		if msg != "" {
			fmt.Fprint(out, msg)
		}
	}
	return err
}

func checkIn(r repo.Repository, rules *expand.Matcher, name string, opts []rcs.Option) (string, error) {
	text, err := readLines(name)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s%s  <--  %s\n", name, cfg.Suffix, name)

	a, err := r.Load(name, opts...)
	if errors.Is(err, repo.ErrNotFound) {
		mode := ciExpand
		if mode == "" {
			if m, ok := rules.ModeFor(name); ok {
				mode = m
			} else {
				mode = cfg.Expand
			}
		}
		start := "1.1"
		if v, err := rcs.ParseVersion(ciRevision); err == nil && v.IsTrunk() {
			start = ciRevision
		}
		a, err = rcs.NewAt(text, ciDesc, start, slices.Concat(opts, []rcs.Option{rcs.WithName(name + cfg.Suffix), rcs.WithExpand(mode)})...)
		if err != nil {
			return "", err
		}
		if err := r.Save(name, a); err != nil {
			return "", err
		}
		log.WithFields(log.Fields{"file": name, "expand": mode}).Debug("created archive")
		fmt.Fprintf(&b, "initial revision: %s\ndone\n", a.Head())
		return b.String(), nil
	}
	if err != nil {
		return "", err
	}

	msg := ciMessage
	if msg == "" {
		msg = emptyLogMessage
	}
	v, ok, err := a.AddRevision(text, ciRevision, msg)
	if err != nil {
		return "", err
	}
	if !ok {
		fmt.Fprintf(&b, "file is unchanged; reverting to previous revision %s\ndone\n", a.CurrentVersion())
		return b.String(), nil
	}
	if ciUnlock {
		for _, l := range a.Locks() {
			if l.User == cfg.Author {
				if _, err := a.Unlock(l.Version.String()); err != nil {
					return "", err
				}
			}
		}
	}
	if err := r.Save(name, a); err != nil {
		return "", err
	}
	fmt.Fprintf(&b, "new revision: %s\ndone\n", v)
	return b.String(), nil
}

func init() {
	ciCmd.Flags().StringVarP(&ciRevision, "revision", "r", "", "Revision or branch to check in as")
	ciCmd.Flags().StringVarP(&ciMessage, "message", "m", "", "Log message")
	ciCmd.Flags().StringVarP(&ciDesc, "desc", "t", "", "Description for new archives")
	ciCmd.Flags().StringVarP(&ciExpand, "expand", "k", "", "Keyword expansion mode for new archives")
	ciCmd.Flags().BoolVarP(&ciUnlock, "unlock", "u", false, "Release your locks after checking in")
}
