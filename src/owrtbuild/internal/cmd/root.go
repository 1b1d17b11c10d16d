// Package cmd implements the owrtbuild command tree.
package cmd

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/openwrt-tools/owrtbuild/src/common/cli"
	owrterrors "github.com/openwrt-tools/owrtbuild/src/common/errors"
	"github.com/openwrt-tools/owrtbuild/src/common/logs"
	"github.com/openwrt-tools/owrtbuild/src/common/version"
	"github.com/openwrt-tools/owrtbuild/src/owrtbuild/internal/build"
	"github.com/openwrt-tools/owrtbuild/src/owrtbuild/internal/config"
	"github.com/openwrt-tools/owrtbuild/src/owrtbuild/internal/download"
	"github.com/openwrt-tools/owrtbuild/src/owrtbuild/internal/output"
)

var (
	// VersionInfo holds version information - set at build time via ldflags
	VersionInfo = version.New()

	// Defaults file path
	cfgFile string

	// Output format (json or table)
	outputFormat string

	log *logs.Logger
)

// Linker variables - set via ldflags at build time
var (
	Version   = "dev"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "owrtbuild",
	Short: "OpenWrt Image Builder automation",
	Long: `owrtbuild automates the OpenWrt Image Builder workflow: it downloads
the Image Builder archive for a release, extracts it, applies local patches
and packages, builds the firmware image, and collects the results.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "version" {
			return nil
		}
		return initConfig()
	},
}

// Execute runs the root command. It exits with the status carried by the
// failing error, or 1 for untyped failures.
func Execute() {
	VersionInfo.Version = Version
	VersionInfo.BuildDate = BuildDate
	VersionInfo.GitCommit = GitCommit

	if err := rootCmd.Execute(); err != nil {
		output.PrintError(err)
		os.Exit(owrterrors.GetExitStatus(err))
	}
}

func init() {
	cli.RegisterConfigFlag(rootCmd, &cfgFile, "./image.json")

	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "table", "Output format: table, json")

	cli.RegisterLogFlags(rootCmd)

	config.SetDefaults()

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(buildCmd)
	rootCmd.AddCommand(fetchCmd)
	rootCmd.AddCommand(historyCmd)
}

func initConfig() error {
	opts := cli.DefaultConfigOptions(config.DefaultsFile, config.EnvPrefix)
	opts.ConfigFile = cfgFile

	if err := cli.InitConfig(opts); err != nil {
		return err
	}

	log = cli.InitLogger("owrtbuild")
	download.SetLogger(log)
	build.SetLogger(log)

	if file := viper.ConfigFileUsed(); file != "" {
		log.Debug("Loaded defaults file", "file", file)
	}

	return nil
}

// getOutputFormat returns the current output format
func getOutputFormat() string {
	return outputFormat
}
