package build

import (
	"context"
	"fmt"
	"os"
	urlpath "path"
	"path/filepath"

	owrterrors "github.com/openwrt-tools/owrtbuild/src/common/errors"
)

// PublishStage uploads the collected images to the configured storage
// backend under images/{version}/{target}/{subtarget}/{name}.
type PublishStage struct{}

// NewPublishStage creates a new publish stage
func NewPublishStage() *PublishStage {
	return &PublishStage{}
}

// Name returns the stage name
func (s *PublishStage) Name() string {
	return "publish"
}

// Validate checks whether this stage can run
func (s *PublishStage) Validate(ctx context.Context, sc *StageContext) error {
	if sc.Storage == nil {
		return fmt.Errorf("storage backend not configured")
	}
	return nil
}

// Execute uploads each collected artifact
func (s *PublishStage) Execute(ctx context.Context, sc *StageContext, progress ProgressFunc) error {
	if len(sc.Artifacts) == 0 {
		progress(100, "No images to publish")
		return nil
	}

	cfg := sc.Config
	for i, artifact := range sc.Artifacts {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		name := filepath.Base(artifact)
		key := urlpath.Join("images", cfg.Version, cfg.Target, cfg.Subtarget, name)

		progress((90*(i+1))/len(sc.Artifacts), fmt.Sprintf("Publishing: %s", name))

		file, err := os.Open(artifact)
		if err != nil {
			return owrterrors.ErrStorageUploadFailed.
				WithMessagef("failed to open artifact %s", artifact).WithCause(err)
		}

		stat, err := file.Stat()
		if err != nil {
			file.Close()
			return owrterrors.ErrStorageUploadFailed.
				WithMessagef("failed to stat artifact %s", artifact).WithCause(err)
		}

		err = sc.Storage.Upload(ctx, key, file, stat.Size(), "application/octet-stream")
		file.Close()
		if err != nil {
			return owrterrors.ErrStorageUploadFailed.
				WithMessagef("failed to publish %s", name).WithCause(err)
		}

		log.Info("Published image", "image", name, "key", key, "backend", sc.Storage.Type())
	}

	progress(100, fmt.Sprintf("Published %d images", len(sc.Artifacts)))
	return nil
}
