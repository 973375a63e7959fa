package main

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"rcskit/diff"
)

var (
	diffFormat    string
	diffContext   int
	diffAlgorithm string
)

var diffCmd = &cobra.Command{
	Use:   "diff FILE1 FILE2",
	Short: "Compare two files line by line",
	Long: `Compare two files line by line and print the differences.

The result is checked by applying it to FILE1 before it is printed.

Formats:
  normal   classic "2,3c2,3" notation (default)
  rcs      RCS delta script ("d2 2", "a3 2")
  unified  unified diff with -U lines of context
  words    normal notation with changed words marked [-old-]{+new+}`,
	Args: cobra.ExactArgs(2),
	RunE: runDiff,
}

func runDiff(cmd *cobra.Command, args []string) error {
	original, err := readLines(args[0])
	if err != nil {
		return err
	}
	revised, err := readLines(args[1])
	if err != nil {
		return err
	}

	name := diffAlgorithm
	if name == "" {
		name = cfg.Algorithm
	}
	alg, err := diff.ByName(name)
	if err != nil {
		return err
	}
	r, err := diff.DiffWith(original, revised, alg)
	if err != nil {
		return err
	}
	patched, err := r.Patch(original)
	if err != nil {
		return fmt.Errorf("verifying diff: %w", err)
	}
	if !slices.Equal(patched, revised) {
		return fmt.Errorf("verifying diff: patched %s does not match %s", args[0], args[1])
	}

	out := cmd.OutOrStdout()
	context := diffContext
	if !cmd.Flags().Changed("unified") {
		context = cfg.Context
	}
	switch diffFormat {
	case "", "normal":
		_, err = fmt.Fprint(out, r.String())
	case "rcs":
		err = writeText(out, diff.Script(r))
	case "unified":
		var b []byte
		if b, err = diff.Unified(args[0], args[1], original, r, context); err == nil {
			_, err = out.Write(b)
		}
	case "words":
		_, err = fmt.Fprint(out, diff.Words(r))
	default:
		return fmt.Errorf("unknown format %q (want normal, rcs, unified or words)", diffFormat)
	}
	return err
}

func init() {
	diffCmd.Flags().StringVarP(&diffFormat, "format", "f", "normal", "Output format: normal, rcs, unified or words")
	diffCmd.Flags().IntVarP(&diffContext, "unified", "U", diff.DefaultContext, "Lines of context in unified output")
	diffCmd.Flags().StringVar(&diffAlgorithm, "algorithm", "", "Diff algorithm: myers or simple (default from config)")
}
