// Package main provides the rcskit CLI.
package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"rcskit/diff"
	"rcskit/internal/config"
	"rcskit/internal/expand"
	"rcskit/internal/repo"
	"rcskit/internal/store"
	"rcskit/rcs"
)

// Version is the current rcskit CLI version
var Version = "0.3.0"

var (
	configPath string
	storePath  string
	debugFlag  bool

	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:     "rcskit",
	Short:   "rcskit - RCS-style revision archives for text files",
	Long:    `rcskit keeps the history of individual text files as RCS archives: one full head text plus line deltas, with branches, symbolic names and keyword expansion.`,
	Version: Version,

	PersistentPreRunE: setup,
	SilenceUsage:      true,
	SilenceErrors:     true,
}

// Command groups for organized help output
const (
	groupArchive = "archive"
	groupDiff    = "diff"
	groupStore   = "store"
)

func setup(cmd *cobra.Command, args []string) error {
	var err error
	if cfg, err = config.Load(configPath); err != nil {
		return err
	}
	if storePath != "" {
		cfg.Store = storePath
	}
	if debugFlag {
		cfg.Debug = true
	}

	log.SetOutput(cmd.ErrOrStderr())
	log.SetFormatter(&log.TextFormatter{DisableTimestamp: true})
	if cfg.Debug {
		log.SetLevel(log.DebugLevel)
	} else {
		log.SetLevel(log.WarnLevel)
	}
	log.WithFields(log.Fields{"store": cfg.Store, "algorithm": cfg.Algorithm}).Debug("configuration loaded")
	return nil
}

// openRepository returns the SQLite store when one is configured (--store,
// RCSKIT_STORE or the config file) and the ",v" files beside the working
// files otherwise. The returned func closes whatever was opened.
func openRepository() (repo.Repository, func(), error) {
	if cfg.Store == "" {
		return repo.NewFiles(".", cfg.Suffix), func() {}, nil
	}
	db, err := openStore()
	if err != nil {
		return nil, nil, err
	}
	return repo.NewStore(db, cfg.Author), func() { db.Close() }, nil
}

func openStore() (*store.DB, error) {
	return store.Open(cfg.StorePath(), store.WithBusyTimeout(cfg.LockTimeout))
}

// archiveOptions are the options every loaded or created archive gets.
func archiveOptions() ([]rcs.Option, error) {
	alg, err := diff.ByName(cfg.Algorithm)
	if err != nil {
		return nil, err
	}
	return []rcs.Option{
		rcs.WithAuthor(cfg.Author),
		rcs.WithAlgorithm(alg),
		rcs.WithClock(time.Now),
	}, nil
}

func loadRules() (*expand.Matcher, error) {
	return expand.LoadRulesOrEmpty(cfg.Rules)
}

func readLines(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return splitText(string(data)), nil
}

func splitText(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(strings.TrimSuffix(s, "\n"), "\n")
}

func writeText(w io.Writer, lines []string) error {
	for _, l := range lines {
		if _, err := io.WriteString(w, l+"\n"); err != nil {
			return err
		}
	}
	return nil
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to a YAML configuration file")
	rootCmd.PersistentFlags().StringVar(&storePath, "store", "", "Keep archives in this SQLite store instead of ,v files")
	rootCmd.PersistentFlags().BoolVar(&debugFlag, "debug", false, "Enable debug logging")

	rootCmd.AddGroup(
		&cobra.Group{ID: groupArchive, Title: "Archives:"},
		&cobra.Group{ID: groupDiff, Title: "Diff:"},
		&cobra.Group{ID: groupStore, Title: "Store:"},
	)

	for _, c := range []*cobra.Command{ciCmd, coCmd, logCmd, tagCmd, outdateCmd, resolveCmd} {
		c.GroupID = groupArchive
		rootCmd.AddCommand(c)
	}
	diffCmd.GroupID = groupDiff
	rootCmd.AddCommand(diffCmd)
	storeCmd.GroupID = groupStore
	rootCmd.AddCommand(storeCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
