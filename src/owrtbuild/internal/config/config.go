// Package config resolves the build configuration from layered sources:
// built-in defaults, a JSON defaults file, OWRTBUILD_-prefixed environment
// variables, and explicit command-line flags, in that order of precedence.
package config

import (
	"strings"

	"github.com/spf13/viper"

	owrterrors "github.com/openwrt-tools/owrtbuild/src/common/errors"
	"github.com/openwrt-tools/owrtbuild/src/common/paths"
	"github.com/openwrt-tools/owrtbuild/src/owrtbuild/internal/release"
)

// EnvPrefix is the marker for environment-provided configuration values
const EnvPrefix = "OWRTBUILD"

// DefaultsFile is the JSON file with default image arguments, looked up in
// the working directory unless overridden
const DefaultsFile = "image"

// BuildConfig holds the fully resolved inputs of a build run
type BuildConfig struct {
	// Profile selects the hardware device variant within the target family
	Profile string

	// Target and Subtarget identify the CPU architecture family and its
	// hardware-specific variant
	Target    string
	Subtarget string

	// Version is the release identifier or the SNAPSHOT sentinel
	Version string

	// Packages are the packages to include (or, with a "-" prefix, exclude)
	Packages []string

	// PatchesDir holds *.patch files applied to the Image Builder tree
	PatchesDir string

	// FilesDir holds extra files included in the rootfs partition
	FilesDir string

	// PackagesDir holds local *.ipk files installed into the image
	PackagesDir string

	// BinDir is the output directory receiving the built images
	BinDir string

	// WorkDir is where the Image Builder archive is downloaded and extracted
	WorkDir string
}

// SetDefaults registers the built-in defaults, the lowest layer of the
// configuration stack
func SetDefaults() {
	viper.SetDefault("target", "rockchip/armv8")
	viper.SetDefault("version", release.Snapshot)
	viper.SetDefault("patches_dir", "./patches")
	viper.SetDefault("files_dir", "./files")
	viper.SetDefault("packages_dir", "./packages")
	viper.SetDefault("bin_dir", ".")
	viper.SetDefault("workdir", ".")

	viper.SetDefault("history.enabled", true)
	viper.SetDefault("history.path", "~/.owrtbuild/owrtbuild.db")

	viper.SetDefault("storage.type", "")
	viper.SetDefault("storage.local.base_path", "~/.owrtbuild/artifacts")
	viper.SetDefault("storage.s3.region", "us-east-1")
	viper.SetDefault("storage.s3.use_path_style", true)
}

// Load resolves the build configuration from the current Viper state and
// validates it. Directory paths are expanded and made absolute so the
// pipeline can change working directories freely.
func Load() (*BuildConfig, error) {
	target, subtarget, err := release.SplitTarget(viper.GetString("target"))
	if err != nil {
		return nil, err
	}

	version := viper.GetString("version")
	if version != release.Snapshot {
		if _, err := release.Parse(version); err != nil {
			return nil, err
		}
	}

	cfg := &BuildConfig{
		Profile:     viper.GetString("profile"),
		Target:      target,
		Subtarget:   subtarget,
		Version:     version,
		Packages:    packageList(viper.Get("packages")),
		PatchesDir:  paths.Abs(viper.GetString("patches_dir")),
		FilesDir:    paths.Abs(viper.GetString("files_dir")),
		PackagesDir: paths.Abs(viper.GetString("packages_dir")),
		BinDir:      paths.Abs(viper.GetString("bin_dir")),
		WorkDir:     paths.Abs(viper.GetString("workdir")),
	}

	if cfg.WorkDir == "" {
		return nil, owrterrors.ErrInvalidConfig.WithMessage("workdir must not be empty")
	}

	return cfg, nil
}

// PackagesArg renders the package list as the space-delimited value the
// vendor build tool expects
func (c *BuildConfig) PackagesArg() string {
	return strings.Join(c.Packages, " ")
}

// TargetPair renders the combined target/subtarget identifier
func (c *BuildConfig) TargetPair() string {
	return c.Target + "/" + c.Subtarget
}

// packageList accepts the package set either as a space-delimited string
// (flags, environment) or as a sequence (JSON defaults file)
func packageList(raw interface{}) []string {
	switch v := raw.(type) {
	case nil:
		return nil
	case string:
		return strings.Fields(v)
	case []string:
		return v
	case []interface{}:
		var packages []string
		for _, item := range v {
			if s, ok := item.(string); ok {
				for _, field := range strings.Fields(s) {
					packages = append(packages, field)
				}
			}
		}
		return packages
	default:
		return nil
	}
}

// HistoryEnabled reports whether build runs should be recorded
func HistoryEnabled() bool {
	return viper.GetBool("history.enabled")
}

// HistoryPath returns the location of the build history database
func HistoryPath() string {
	return paths.Expand(viper.GetString("history.path"))
}
