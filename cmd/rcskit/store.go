package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"rcskit/internal/ignore"
	"rcskit/internal/repo"
	"rcskit/internal/util"
)

var historyLimit int

var storeCmd = &cobra.Command{
	Use:   "store",
	Short: "Manage the SQLite archive store",
	Long: `Manage the SQLite archive store named by --store, RCSKIT_STORE or the
"store" configuration setting (rcskit.db when none is set).`,
}

var storeListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored archives",
	Args:  cobra.NoArgs,
	RunE:  runStoreList,
}

var storeImportCmd = &cobra.Command{
	Use:   "import DIR",
	Short: "Copy every ,v archive under DIR into the store",
	Long: `Copy every ,v archive under DIR into the store. Paths matched by
DIR/.rcsignore and the metadata directories of other version control
systems are skipped.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runStoreImport,
}

var storeExportCmd = &cobra.Command{
	Use:   "export DIR",
	Short: "Write every stored archive as a ,v file under DIR",
	Args:  cobra.ExactArgs(1),
	RunE:  runStoreExport,
}

var storeHistoryCmd = &cobra.Command{
	Use:   "history NAME",
	Short: "Show the write history of a stored archive",
	Args:  cobra.ExactArgs(1),
	RunE:  runStoreHistory,
}

func runStoreList(cmd *cobra.Command, args []string) error {
	db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	infos, err := db.List()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	for _, info := range infos {
		fmt.Fprintf(out, "%-40s %-10s %8d  %s  %s\n",
			info.Name, info.Head, info.Size, util.ShortHex(info.Checksum, 12),
			time.UnixMilli(info.UpdatedAt).UTC().Format(time.RFC3339))
	}
	return nil
}

func runStoreImport(cmd *cobra.Command, args []string) error {
	db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	src := repo.NewFiles(args[0], cfg.Suffix)
	if src.Ignore, err = ignore.Load(args[0]); err != nil {
		return err
	}
	names, err := repo.Copy(repo.NewStore(db, cfg.Author), src)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "imported %d archives into %s\n", len(names), db.Path())
	return nil
}

func runStoreExport(cmd *cobra.Command, args []string) error {
	db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	names, err := repo.Copy(repo.NewFiles(args[0], cfg.Suffix), repo.NewStore(db, cfg.Author))
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "exported %d archives to %s\n", len(names), args[0])
	return nil
}

func runStoreHistory(cmd *cobra.Command, args []string) error {
	db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	entries, err := db.History(args[0], historyLimit)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	for _, e := range entries {
		fmt.Fprintf(out, "%s  %s  %-6s %-10s %s\n",
			util.ShortHex(e.ID, 12), time.UnixMilli(e.Time).UTC().Format(time.RFC3339),
			e.Action, e.Head, e.Actor)
	}
	return nil
}

func init() {
	storeHistoryCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "Number of entries to show (0 for all)")

	storeCmd.AddCommand(storeListCmd)
	storeCmd.AddCommand(storeImportCmd)
	storeCmd.AddCommand(storeExportCmd)
	storeCmd.AddCommand(storeHistoryCmd)
}
