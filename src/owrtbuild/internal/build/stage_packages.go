package build

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	owrterrors "github.com/openwrt-tools/owrtbuild/src/common/errors"
)

// PackagesStage copies local *.ipk packages into the Image Builder's
// packages directory so they can be installed into the image.
type PackagesStage struct{}

// NewPackagesStage creates a new packages stage
func NewPackagesStage() *PackagesStage {
	return &PackagesStage{}
}

// Name returns the stage name
func (s *PackagesStage) Name() string {
	return "packages"
}

// Validate checks whether this stage can run
func (s *PackagesStage) Validate(ctx context.Context, sc *StageContext) error {
	if sc.BuilderDir == "" {
		return fmt.Errorf("image builder not extracted - extract stage must run first")
	}
	return nil
}

// Execute copies each local package, preserving its modification time
func (s *PackagesStage) Execute(ctx context.Context, sc *StageContext, progress ProgressFunc) error {
	packages, err := filepath.Glob(filepath.Join(sc.Config.PackagesDir, "*.ipk"))
	if err != nil {
		return owrterrors.ErrBuildFailed.
			WithMessagef("failed to list packages in %s", sc.Config.PackagesDir).WithCause(err)
	}
	sort.Strings(packages)

	if len(packages) == 0 {
		progress(100, "No local packages to copy")
		return nil
	}

	destDir := filepath.Join(sc.BuilderDir, "packages")
	if err := os.MkdirAll(destDir, 0755); err != nil {
		return owrterrors.ErrBuildFailed.
			WithMessagef("failed to create %s", destDir).WithCause(err)
	}

	for i, packageFile := range packages {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		name := filepath.Base(packageFile)
		progress((100*(i+1))/len(packages), fmt.Sprintf("Copying package: %s", name))
		log.Info("Copying package", "package", name)

		if _, err := copyFile(packageFile, destDir); err != nil {
			return owrterrors.ErrBuildFailed.
				WithMessagef("failed to copy package %s", name).WithCause(err)
		}
	}

	return nil
}
