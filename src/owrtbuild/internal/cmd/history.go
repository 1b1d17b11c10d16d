package cmd

import (
	"github.com/spf13/cobra"

	"github.com/openwrt-tools/owrtbuild/src/owrtbuild/internal/config"
	"github.com/openwrt-tools/owrtbuild/src/owrtbuild/internal/db"
	"github.com/openwrt-tools/owrtbuild/src/owrtbuild/internal/output"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recorded build runs",
	Long:  `Lists past build runs from the local history database, newest first.`,
	RunE:  runHistory,
}

func init() {
	historyCmd.Flags().IntP("limit", "n", 20, "Maximum number of runs to show")
}

func runHistory(cmd *cobra.Command, args []string) error {
	limit, _ := cmd.Flags().GetInt("limit")

	database, err := db.New(db.Config{Path: config.HistoryPath()})
	if err != nil {
		return err
	}
	defer database.Close()

	runs, err := db.NewBuildRunRepository(database).ListRecent(limit)
	if err != nil {
		return err
	}

	if getOutputFormat() == "json" {
		return output.PrintJSON(runs)
	}

	if len(runs) == 0 {
		output.PrintMessage("No build runs recorded.")
		return nil
	}

	output.PrintRuns(runs)
	return nil
}
