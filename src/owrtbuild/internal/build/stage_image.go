package build

import (
	"context"
	"fmt"

	owrterrors "github.com/openwrt-tools/owrtbuild/src/common/errors"
	"github.com/openwrt-tools/owrtbuild/src/common/paths"
)

// ImageStage invokes the vendor's build command inside the extracted Image
// Builder tree. Image assembly itself is entirely the vendor tool's job.
type ImageStage struct{}

// NewImageStage creates a new image stage
func NewImageStage() *ImageStage {
	return &ImageStage{}
}

// Name returns the stage name
func (s *ImageStage) Name() string {
	return "image"
}

// Validate checks whether this stage can run
func (s *ImageStage) Validate(ctx context.Context, sc *StageContext) error {
	if sc.BuilderDir == "" {
		return fmt.Errorf("image builder not extracted - extract stage must run first")
	}
	if sc.Runner == nil {
		return fmt.Errorf("command runner not set")
	}
	if !sc.Runner.IsAvailable("make") {
		return fmt.Errorf("make not found on PATH")
	}
	return nil
}

// Execute builds the vendor command line and runs it to completion
func (s *ImageStage) Execute(ctx context.Context, sc *StageContext, progress ProgressFunc) error {
	cfg := sc.Config

	command := []string{"make", "image"}
	if cfg.Profile != "" {
		command = append(command, "PROFILE="+cfg.Profile)
	}
	if len(cfg.Packages) > 0 {
		command = append(command, "PACKAGES="+cfg.PackagesArg())
	}
	if paths.IsDir(cfg.FilesDir) {
		command = append(command, "FILES="+cfg.FilesDir)
	}

	progress(5, "Building image")
	log.Info("Building image", "profile", cfg.Profile, "packages", len(cfg.Packages))

	err := sc.Runner.Run(ctx, RunOpts{
		Command: command,
		WorkDir: sc.BuilderDir,
	})
	if err != nil {
		return owrterrors.ErrBuildFailed.
			WithMessage("vendor build command failed").WithCause(err)
	}

	progress(100, "Image built")
	return nil
}
