package build

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"

	owrterrors "github.com/openwrt-tools/owrtbuild/src/common/errors"
)

// PatchStage applies every *.patch file from the patches directory to the
// extracted Image Builder tree, in lexical order. A missing patches
// directory simply yields no patches.
type PatchStage struct{}

// NewPatchStage creates a new patch stage
func NewPatchStage() *PatchStage {
	return &PatchStage{}
}

// Name returns the stage name
func (s *PatchStage) Name() string {
	return "patch"
}

// Validate checks whether this stage can run
func (s *PatchStage) Validate(ctx context.Context, sc *StageContext) error {
	if sc.BuilderDir == "" {
		return fmt.Errorf("image builder not extracted - extract stage must run first")
	}
	if sc.Runner == nil {
		return fmt.Errorf("command runner not set")
	}
	return nil
}

// Execute runs the patch tool once per patch file inside the builder tree
func (s *PatchStage) Execute(ctx context.Context, sc *StageContext, progress ProgressFunc) error {
	patches, err := filepath.Glob(filepath.Join(sc.Config.PatchesDir, "*.patch"))
	if err != nil {
		return owrterrors.ErrPatchFailed.
			WithMessagef("failed to list patches in %s", sc.Config.PatchesDir).WithCause(err)
	}
	sort.Strings(patches)

	if len(patches) == 0 {
		progress(100, "No patches to apply")
		return nil
	}

	for i, patchFile := range patches {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		name := filepath.Base(patchFile)
		progress((100*(i+1))/len(patches), fmt.Sprintf("Applying patch: %s", name))
		log.Info("Applying patch", "patch", name)

		err := sc.Runner.Run(ctx, RunOpts{
			Command: []string{"patch", "-p0", "-i", patchFile},
			WorkDir: sc.BuilderDir,
		})
		if err != nil {
			return owrterrors.ErrPatchFailed.
				WithMessagef("failed to apply patch %s", name).WithCause(err)
		}
	}

	return nil
}
