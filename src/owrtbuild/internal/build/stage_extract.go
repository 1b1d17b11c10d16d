package build

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	owrterrors "github.com/openwrt-tools/owrtbuild/src/common/errors"
	"github.com/openwrt-tools/owrtbuild/src/common/paths"
	"github.com/openwrt-tools/owrtbuild/src/owrtbuild/internal/archive"
)

// ExtractStage unpacks the downloaded archive into the work directory. The
// archive carries a single top-level directory named after the archive minus
// its extension; a stale directory from an earlier run is removed first.
type ExtractStage struct{}

// NewExtractStage creates a new extract stage
func NewExtractStage() *ExtractStage {
	return &ExtractStage{}
}

// Name returns the stage name
func (s *ExtractStage) Name() string {
	return "extract"
}

// Validate checks whether this stage can run
func (s *ExtractStage) Validate(ctx context.Context, sc *StageContext) error {
	if sc.ArchivePath == "" {
		return fmt.Errorf("archive not downloaded - fetch stage must run first")
	}
	return nil
}

// Execute removes any stale extraction and unpacks the archive
func (s *ExtractStage) Execute(ctx context.Context, sc *StageContext, progress ProgressFunc) error {
	builderDir := filepath.Join(sc.Config.WorkDir, archive.StripSuffix(sc.ArchivePath))

	if paths.Exists(builderDir) {
		log.Info("Deleting stale directory", "dir", builderDir)
		if err := os.RemoveAll(builderDir); err != nil {
			return owrterrors.ErrExtractionFailed.
				WithMessagef("failed to remove stale directory %s", builderDir).WithCause(err)
		}
	}

	progress(10, fmt.Sprintf("Extracting %s", filepath.Base(sc.ArchivePath)))

	if err := archive.Extract(ctx, sc.ArchivePath, sc.Config.WorkDir); err != nil {
		return err
	}

	if !paths.IsDir(builderDir) {
		return owrterrors.ErrExtractionFailed.
			WithMessagef("archive did not produce expected directory %s", builderDir)
	}
	sc.BuilderDir = builderDir

	progress(100, "Image Builder extracted")
	return nil
}
