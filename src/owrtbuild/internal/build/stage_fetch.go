package build

import (
	"context"
	"fmt"

	"github.com/openwrt-tools/owrtbuild/src/owrtbuild/internal/download"
	"github.com/openwrt-tools/owrtbuild/src/owrtbuild/internal/release"
)

// FetchStage downloads the Image Builder archive for the configured version
// and target. The download is idempotent: an archive already on disk with
// matching size and modification time is not transferred again.
type FetchStage struct {
	fetcher *download.Fetcher
}

// NewFetchStage creates a new fetch stage
func NewFetchStage(fetcher *download.Fetcher) *FetchStage {
	if fetcher == nil {
		fetcher = download.NewFetcher(nil)
	}
	return &FetchStage{fetcher: fetcher}
}

// Name returns the stage name
func (s *FetchStage) Name() string {
	return "fetch"
}

// Validate checks whether this stage can run
func (s *FetchStage) Validate(ctx context.Context, sc *StageContext) error {
	if sc.Config == nil {
		return fmt.Errorf("build configuration not set")
	}
	return nil
}

// Execute resolves the archive URL and downloads it into the work directory
func (s *FetchStage) Execute(ctx context.Context, sc *StageContext, progress ProgressFunc) error {
	cfg := sc.Config

	url, err := release.ImageBuilderURL(cfg.Version, cfg.Target, cfg.Subtarget)
	if err != nil {
		return err
	}
	sc.ArchiveURL = url

	progress(10, fmt.Sprintf("Fetching Image Builder for %s %s", cfg.Version, cfg.TargetPair()))

	localPath, err := s.fetcher.Fetch(ctx, url, cfg.WorkDir)
	if err != nil {
		return err
	}
	sc.ArchivePath = localPath

	progress(100, "Image Builder archive ready")
	return nil
}
