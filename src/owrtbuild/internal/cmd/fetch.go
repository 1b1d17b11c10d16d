package cmd

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/openwrt-tools/owrtbuild/src/common/cli"
	"github.com/openwrt-tools/owrtbuild/src/owrtbuild/internal/config"
	"github.com/openwrt-tools/owrtbuild/src/owrtbuild/internal/download"
	"github.com/openwrt-tools/owrtbuild/src/owrtbuild/internal/output"
	"github.com/openwrt-tools/owrtbuild/src/owrtbuild/internal/release"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Download the Image Builder archive",
	Long: `Downloads the Image Builder archive for the configured release into
the working directory. The download is skipped when the local copy already
matches the remote size and modification time.`,
	RunE: runFetch,
}

func init() {
	fetchCmd.Flags().StringP("target", "t", "", "Target/subtarget pair (e.g. rockchip/armv8)")
	fetchCmd.Flags().StringP("version", "v", "", "Release version or SNAPSHOT")
	fetchCmd.Flags().String("workdir", "", "Working directory for the download")
	fetchCmd.Flags().Bool("check", false, "Only check remote availability, do not download")
}

func runFetch(cmd *cobra.Command, args []string) error {
	for flag, key := range map[string]string{
		"target":  "target",
		"version": "version",
		"workdir": "workdir",
	} {
		if err := cli.BindFlag(cmd, flag, key); err != nil {
			return err
		}
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	url, err := release.ImageBuilderURL(cfg.Version, cfg.Target, cfg.Subtarget)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	check, _ := cmd.Flags().GetBool("check")
	if check {
		result, err := download.NewVerifier(nil).Verify(ctx, url)
		if err != nil {
			return err
		}

		if getOutputFormat() == "json" {
			return output.PrintJSON(map[string]interface{}{
				"url":            url,
				"exists":         result.Exists,
				"content_length": result.ContentLength,
				"last_modified":  result.LastModified,
				"etag":           result.ETag,
			})
		}

		rows := [][]string{{
			url,
			boolLabel(result.Exists, "yes", "no"),
			byteCount(result.ContentLength),
			output.Timestamp(result.LastModified),
		}}
		output.PrintTable([]string{"URL", "AVAILABLE", "SIZE", "LAST MODIFIED"}, rows)
		return nil
	}

	path, err := download.NewFetcher(nil).Fetch(ctx, url, cfg.WorkDir)
	if err != nil {
		return err
	}

	output.PrintMessage(path)
	return nil
}
