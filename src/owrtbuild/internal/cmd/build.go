package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/openwrt-tools/owrtbuild/src/common/cli"
	"github.com/openwrt-tools/owrtbuild/src/owrtbuild/internal/build"
	"github.com/openwrt-tools/owrtbuild/src/owrtbuild/internal/config"
	"github.com/openwrt-tools/owrtbuild/src/owrtbuild/internal/db"
	"github.com/openwrt-tools/owrtbuild/src/owrtbuild/internal/download"
	"github.com/openwrt-tools/owrtbuild/src/owrtbuild/internal/output"
	"github.com/openwrt-tools/owrtbuild/src/owrtbuild/internal/storage"
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build a firmware image",
	Long: `Runs the full pipeline: downloads the Image Builder archive for the
configured release (skipping the download when the local copy is current),
extracts it, applies patches, copies local packages, invokes the vendor
build, and collects the resulting images into the output directory.`,
	RunE: runBuild,
}

func init() {
	buildCmd.Flags().StringP("profile", "p", "", "Device profile to build for")
	buildCmd.Flags().StringP("target", "t", "", "Target/subtarget pair (e.g. rockchip/armv8)")
	buildCmd.Flags().StringP("version", "v", "", "Release version or SNAPSHOT")
	buildCmd.Flags().String("packages", "", "Space-delimited packages to add (prefix with - to remove)")
	buildCmd.Flags().String("patches-dir", "", "Directory holding *.patch files")
	buildCmd.Flags().String("files-dir", "", "Directory with extra files for the rootfs")
	buildCmd.Flags().String("packages-dir", "", "Directory holding local *.ipk packages")
	buildCmd.Flags().String("bin-dir", "", "Output directory for built images")
	buildCmd.Flags().String("workdir", "", "Working directory for download and extraction")
	buildCmd.Flags().Bool("publish", false, "Publish collected images to the configured storage backend")
}

func runBuild(cmd *cobra.Command, args []string) error {
	// Bound here rather than in init: fetch shares some of these keys, and
	// viper only honors the most recent binding per key
	for flag, key := range map[string]string{
		"profile":      "profile",
		"target":       "target",
		"version":      "version",
		"packages":     "packages",
		"patches-dir":  "patches_dir",
		"files-dir":    "files_dir",
		"packages-dir": "packages_dir",
		"bin-dir":      "bin_dir",
		"workdir":      "workdir",
	} {
		if err := cli.BindFlag(cmd, flag, key); err != nil {
			return err
		}
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	publish, _ := cmd.Flags().GetBool("publish")

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var store storage.Backend
	if publish {
		store, err = openStorage(ctx)
		if err != nil {
			return err
		}
	}

	runID := uuid.New().String()
	log.Info("Build starting", "run_id", runID,
		"profile", cfg.Profile, "target", cfg.TargetPair(), "version", cfg.Version)

	repo, closeHistory := openHistory()
	defer closeHistory()

	if repo != nil {
		err := repo.Create(&db.BuildRun{
			ID:        runID,
			Profile:   cfg.Profile,
			Target:    cfg.Target,
			Subtarget: cfg.Subtarget,
			Version:   cfg.Version,
			Status:    db.RunStatusRunning,
			StartedAt: time.Now().UTC(),
		})
		if err != nil {
			log.Warn("Failed to record build run", "error", err)
			repo = nil
		}
	}

	sc := &build.StageContext{
		RunID:   runID,
		Config:  cfg,
		Runner:  build.NewHostRunner(os.Stdout),
		Storage: store,
	}

	pipeline := build.NewPipeline(build.DefaultStages(download.NewFetcher(nil), store)...)

	started := time.Now()
	if err := pipeline.Run(ctx, sc); err != nil {
		if repo != nil {
			if dbErr := repo.MarkFailed(runID, err.Error()); dbErr != nil {
				log.Warn("Failed to record build failure", "error", dbErr)
			}
		}
		return err
	}

	if repo != nil {
		if dbErr := repo.MarkCompleted(runID, len(sc.Artifacts)); dbErr != nil {
			log.Warn("Failed to record build completion", "error", dbErr)
		}
	}

	log.Info("Build complete", "run_id", runID,
		"images", len(sc.Artifacts), "duration", time.Since(started).Round(time.Second))

	for _, artifact := range sc.Artifacts {
		output.PrintMessage(filepath.Base(artifact))
	}

	return nil
}

// openHistory opens the build history repository when recording is enabled.
// History failures never abort a build, so errors only produce a warning.
func openHistory() (*db.BuildRunRepository, func()) {
	if !config.HistoryEnabled() {
		return nil, func() {}
	}

	database, err := db.New(db.Config{Path: config.HistoryPath()})
	if err != nil {
		log.Warn("Build history unavailable", "error", err)
		return nil, func() {}
	}

	return db.NewBuildRunRepository(database), func() { database.Close() }
}

// openStorage builds the publication backend from the storage configuration
func openStorage(ctx context.Context) (storage.Backend, error) {
	cfg := storage.Config{
		Type: viper.GetString("storage.type"),
		Local: storage.LocalConfig{
			BasePath: viper.GetString("storage.local.base_path"),
		},
		S3: storage.S3Config{
			Endpoint:        viper.GetString("storage.s3.endpoint"),
			Region:          viper.GetString("storage.s3.region"),
			Bucket:          viper.GetString("storage.s3.bucket"),
			AccessKeyID:     viper.GetString("storage.s3.access_key_id"),
			SecretAccessKey: viper.GetString("storage.s3.secret_access_key"),
			UsePathStyle:    viper.GetBool("storage.s3.use_path_style"),
		},
	}

	store, err := storage.New(cfg)
	if err != nil {
		return nil, err
	}

	if s3store, ok := store.(*storage.S3Backend); ok {
		if err := s3store.EnsureBucket(ctx); err != nil {
			return nil, fmt.Errorf("failed to prepare storage bucket: %w", err)
		}
	}

	log.Info("Publishing enabled", "backend", store.Type(), "location", store.Location())
	return store, nil
}
