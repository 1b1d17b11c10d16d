package build

import (
	"context"
	"fmt"
	"time"

	"github.com/openwrt-tools/owrtbuild/src/owrtbuild/internal/download"
	"github.com/openwrt-tools/owrtbuild/src/owrtbuild/internal/storage"
)

// Pipeline runs build stages strictly in order. The first failing stage
// aborts the run; partially downloaded, extracted or built state is left in
// place for inspection and for the next invocation to pick up.
type Pipeline struct {
	stages []Stage
}

// NewPipeline creates a pipeline over the given stages
func NewPipeline(stages ...Stage) *Pipeline {
	return &Pipeline{stages: stages}
}

// DefaultStages returns the full build pipeline: fetch, extract, patch,
// packages, image, collect, and publish when a storage backend is given.
func DefaultStages(fetcher *download.Fetcher, store storage.Backend) []Stage {
	stages := []Stage{
		NewFetchStage(fetcher),
		NewExtractStage(),
		NewPatchStage(),
		NewPackagesStage(),
		NewImageStage(),
		NewCollectStage(),
	}
	if store != nil {
		stages = append(stages, NewPublishStage())
	}
	return stages
}

// Run executes every stage in order against the shared context
func (p *Pipeline) Run(ctx context.Context, sc *StageContext) error {
	for _, stage := range p.stages {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		started := time.Now()
		log.Info("Stage starting", "run_id", sc.RunID, "stage", stage.Name())

		if err := stage.Validate(ctx, sc); err != nil {
			return fmt.Errorf("%s stage validation: %w", stage.Name(), err)
		}

		progress := func(percent int, message string) {
			log.Debug("Stage progress", "stage", stage.Name(), "percent", percent, "message", message)
		}

		if err := stage.Execute(ctx, sc, progress); err != nil {
			log.Error("Stage failed", "run_id", sc.RunID, "stage", stage.Name(), "error", err)
			return fmt.Errorf("%s stage: %w", stage.Name(), err)
		}

		log.Info("Stage complete", "run_id", sc.RunID, "stage", stage.Name(),
			"duration", time.Since(started).Round(time.Millisecond))
	}

	return nil
}
