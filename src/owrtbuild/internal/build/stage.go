// Package build provides the sequential pipeline that turns a vendor Image
// Builder archive into flashable firmware images.
package build

import (
	"context"

	"github.com/openwrt-tools/owrtbuild/src/common/logs"
	"github.com/openwrt-tools/owrtbuild/src/owrtbuild/internal/config"
	"github.com/openwrt-tools/owrtbuild/src/owrtbuild/internal/storage"
)

var log = logs.NewDefault()

// SetLogger sets the logger for the build package
func SetLogger(l *logs.Logger) {
	if l != nil {
		log = l
	}
}

// Stage defines the interface for a single build pipeline stage
type Stage interface {
	// Name returns the stage name
	Name() string

	// Validate checks whether this stage can run given the current context
	Validate(ctx context.Context, sc *StageContext) error

	// Execute runs the stage, updating progress via the callback
	Execute(ctx context.Context, sc *StageContext, progress ProgressFunc) error
}

// ProgressFunc reports stage progress (0-100) with an optional message
type ProgressFunc func(percent int, message string)

// StageContext holds shared state passed through the pipeline. Stages run
// strictly in order; each one depends on the filesystem state and context
// fields left by its predecessors.
type StageContext struct {
	RunID   string
	Config  *config.BuildConfig
	Runner  Runner
	Storage storage.Backend // nil when artifact publication is disabled

	ArchiveURL  string   // Populated by fetch stage
	ArchivePath string   // Populated by fetch stage
	BuilderDir  string   // Populated by extract stage
	Artifacts   []string // Populated by collect stage
}
