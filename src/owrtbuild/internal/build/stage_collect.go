package build

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	owrterrors "github.com/openwrt-tools/owrtbuild/src/common/errors"
)

// CollectStage scans the Image Builder's bin subtree recursively and copies
// every *.img* artifact into the configured output directory.
type CollectStage struct{}

// NewCollectStage creates a new collect stage
func NewCollectStage() *CollectStage {
	return &CollectStage{}
}

// Name returns the stage name
func (s *CollectStage) Name() string {
	return "collect"
}

// Validate checks whether this stage can run
func (s *CollectStage) Validate(ctx context.Context, sc *StageContext) error {
	if sc.BuilderDir == "" {
		return fmt.Errorf("image builder not extracted - extract stage must run first")
	}
	return nil
}

// Execute copies matching artifacts and records them in the stage context
func (s *CollectStage) Execute(ctx context.Context, sc *StageContext, progress ProgressFunc) error {
	if err := os.MkdirAll(sc.Config.BinDir, 0755); err != nil {
		return owrterrors.ErrBuildFailed.
			WithMessagef("failed to create output directory %s", sc.Config.BinDir).WithCause(err)
	}

	binRoot := filepath.Join(sc.BuilderDir, "bin")

	progress(10, "Collecting built images")

	err := filepath.WalkDir(binRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if d.IsDir() {
			return nil
		}
		if matched, _ := filepath.Match("*.img*", d.Name()); !matched {
			return nil
		}

		log.Info("Copying image", "image", d.Name())
		dest, err := copyFile(path, sc.Config.BinDir)
		if err != nil {
			return err
		}
		sc.Artifacts = append(sc.Artifacts, dest)
		return nil
	})
	if err != nil {
		if os.IsNotExist(err) {
			log.Warn("No bin directory produced by build", "dir", binRoot)
			progress(100, "No images found")
			return nil
		}
		return owrterrors.ErrBuildFailed.
			WithMessagef("failed to collect images from %s", binRoot).WithCause(err)
	}

	if len(sc.Artifacts) == 0 {
		log.Warn("Build produced no matching images", "dir", binRoot)
	}

	progress(100, fmt.Sprintf("Collected %d images", len(sc.Artifacts)))
	return nil
}
