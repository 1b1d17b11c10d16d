package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/openwrt-tools/owrtbuild/src/owrtbuild/internal/output"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	RunE:  runVersion,
}

func runVersion(cmd *cobra.Command, args []string) error {
	if getOutputFormat() == "json" {
		return output.PrintJSON(VersionInfo.Map())
	}

	fmt.Println(VersionInfo.Full())
	return nil
}
