package build

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	owrterrors "github.com/openwrt-tools/owrtbuild/src/common/errors"
	"github.com/openwrt-tools/owrtbuild/src/owrtbuild/internal/config"
)

// fakeRunner records every command instead of executing it
type fakeRunner struct {
	commands [][]string
	workDirs []string
	failOn   string // command whose argv contains this string fails
	missing  map[string]bool
}

func (r *fakeRunner) Run(ctx context.Context, opts RunOpts) error {
	r.commands = append(r.commands, opts.Command)
	r.workDirs = append(r.workDirs, opts.WorkDir)
	if r.failOn != "" {
		for _, arg := range opts.Command {
			if strings.Contains(arg, r.failOn) {
				return fmt.Errorf("simulated failure on %s", arg)
			}
		}
	}
	return nil
}

func (r *fakeRunner) IsAvailable(binary string) bool {
	return !r.missing[binary]
}

func noProgress(percent int, message string) {}

func testStageContext(t *testing.T, runner Runner) *StageContext {
	t.Helper()
	builderDir := t.TempDir()
	return &StageContext{
		RunID: "test-run",
		Config: &config.BuildConfig{
			Profile:     "bananapi_bpi-r3",
			Target:      "mediatek",
			Subtarget:   "filogic",
			Version:     "24.10.0",
			PatchesDir:  filepath.Join(t.TempDir(), "patches"),
			FilesDir:    filepath.Join(t.TempDir(), "files"),
			PackagesDir: filepath.Join(t.TempDir(), "packages"),
			BinDir:      t.TempDir(),
			WorkDir:     t.TempDir(),
		},
		Runner:     runner,
		BuilderDir: builderDir,
	}
}

// =============================================================================
// PatchStage Tests
// =============================================================================

func TestPatchStage_AppliesInLexicalOrder(t *testing.T) {
	runner := &fakeRunner{}
	sc := testStageContext(t, runner)

	if err := os.MkdirAll(sc.Config.PatchesDir, 0755); err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"20-later.patch", "10-first.patch", "notes.txt"} {
		if err := os.WriteFile(filepath.Join(sc.Config.PatchesDir, name), []byte("--- a\n+++ b\n"), 0644); err != nil {
			t.Fatal(err)
		}
	}

	stage := NewPatchStage()
	if err := stage.Execute(context.Background(), sc, noProgress); err != nil {
		t.Fatalf("Execute error: %v", err)
	}

	if len(runner.commands) != 2 {
		t.Fatalf("commands run = %d, want 2", len(runner.commands))
	}

	first := runner.commands[0]
	if first[0] != "patch" || first[1] != "-p0" || first[2] != "-i" {
		t.Errorf("unexpected argv: %v", first)
	}
	if filepath.Base(first[3]) != "10-first.patch" {
		t.Errorf("first patch = %s, want 10-first.patch", first[3])
	}
	if filepath.Base(runner.commands[1][3]) != "20-later.patch" {
		t.Errorf("second patch = %s, want 20-later.patch", runner.commands[1][3])
	}
	if runner.workDirs[0] != sc.BuilderDir {
		t.Errorf("workdir = %s, want builder dir", runner.workDirs[0])
	}
}

func TestPatchStage_NoPatchesDirIsFine(t *testing.T) {
	runner := &fakeRunner{}
	sc := testStageContext(t, runner)

	if err := NewPatchStage().Execute(context.Background(), sc, noProgress); err != nil {
		t.Fatalf("Execute error: %v", err)
	}
	if len(runner.commands) != 0 {
		t.Errorf("expected no commands, got %v", runner.commands)
	}
}

func TestPatchStage_FailureIsTyped(t *testing.T) {
	runner := &fakeRunner{failOn: "bad.patch"}
	sc := testStageContext(t, runner)

	if err := os.MkdirAll(sc.Config.PatchesDir, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(sc.Config.PatchesDir, "bad.patch"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	err := NewPatchStage().Execute(context.Background(), sc, noProgress)
	if !errors.Is(err, owrterrors.ErrPatchFailed) {
		t.Fatalf("expected ErrPatchFailed, got %v", err)
	}
}

func TestPatchStage_ValidateRequiresExtraction(t *testing.T) {
	sc := testStageContext(t, &fakeRunner{})
	sc.BuilderDir = ""
	if err := NewPatchStage().Validate(context.Background(), sc); err == nil {
		t.Error("expected validation error without builder dir")
	}
}

// =============================================================================
// ImageStage Tests
// =============================================================================

func TestImageStage_CommandLine(t *testing.T) {
	runner := &fakeRunner{}
	sc := testStageContext(t, runner)
	sc.Config.Packages = []string{"luci", "-ppp"}

	if err := os.MkdirAll(sc.Config.FilesDir, 0755); err != nil {
		t.Fatal(err)
	}

	if err := NewImageStage().Execute(context.Background(), sc, noProgress); err != nil {
		t.Fatalf("Execute error: %v", err)
	}

	if len(runner.commands) != 1 {
		t.Fatalf("commands run = %d, want 1", len(runner.commands))
	}

	got := runner.commands[0]
	want := []string{
		"make", "image",
		"PROFILE=bananapi_bpi-r3",
		"PACKAGES=luci -ppp",
		"FILES=" + sc.Config.FilesDir,
	}
	if len(got) != len(want) {
		t.Fatalf("argv = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("argv[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestImageStage_OmitsUnsetArguments(t *testing.T) {
	runner := &fakeRunner{}
	sc := testStageContext(t, runner)
	sc.Config.Profile = ""
	sc.Config.Packages = nil
	// FilesDir does not exist, so FILES= must be omitted

	if err := NewImageStage().Execute(context.Background(), sc, noProgress); err != nil {
		t.Fatalf("Execute error: %v", err)
	}

	got := runner.commands[0]
	if len(got) != 2 || got[0] != "make" || got[1] != "image" {
		t.Errorf("argv = %v, want [make image]", got)
	}
}

func TestImageStage_ValidateRequiresMake(t *testing.T) {
	runner := &fakeRunner{missing: map[string]bool{"make": true}}
	sc := testStageContext(t, runner)

	if err := NewImageStage().Validate(context.Background(), sc); err == nil {
		t.Error("expected validation error when make is missing")
	}
}

func TestImageStage_FailureIsTyped(t *testing.T) {
	runner := &fakeRunner{failOn: "image"}
	sc := testStageContext(t, runner)

	err := NewImageStage().Execute(context.Background(), sc, noProgress)
	if !errors.Is(err, owrterrors.ErrBuildFailed) {
		t.Fatalf("expected ErrBuildFailed, got %v", err)
	}
}

// =============================================================================
// PackagesStage Tests
// =============================================================================

func TestPackagesStage_CopiesPreservingModTime(t *testing.T) {
	sc := testStageContext(t, &fakeRunner{})

	if err := os.MkdirAll(sc.Config.PackagesDir, 0755); err != nil {
		t.Fatal(err)
	}
	src := filepath.Join(sc.Config.PackagesDir, "custom_1.0_aarch64.ipk")
	if err := os.WriteFile(src, []byte("package payload"), 0644); err != nil {
		t.Fatal(err)
	}
	stamp := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	if err := os.Chtimes(src, time.Now(), stamp); err != nil {
		t.Fatal(err)
	}

	if err := NewPackagesStage().Execute(context.Background(), sc, noProgress); err != nil {
		t.Fatalf("Execute error: %v", err)
	}

	dest := filepath.Join(sc.BuilderDir, "packages", "custom_1.0_aarch64.ipk")
	stat, err := os.Stat(dest)
	if err != nil {
		t.Fatalf("copied package missing: %v", err)
	}
	if !stat.ModTime().Equal(stamp) {
		t.Errorf("mtime = %v, want %v", stat.ModTime(), stamp)
	}

	got, _ := os.ReadFile(dest)
	if string(got) != "package payload" {
		t.Errorf("payload = %q", got)
	}
}

func TestPackagesStage_NoPackagesDirIsFine(t *testing.T) {
	sc := testStageContext(t, &fakeRunner{})

	if err := NewPackagesStage().Execute(context.Background(), sc, noProgress); err != nil {
		t.Fatalf("Execute error: %v", err)
	}
	if _, err := os.Stat(filepath.Join(sc.BuilderDir, "packages")); err == nil {
		t.Error("packages dir created despite nothing to copy")
	}
}

// =============================================================================
// CollectStage Tests
// =============================================================================

func TestCollectStage_CopiesMatchingImages(t *testing.T) {
	sc := testStageContext(t, &fakeRunner{})

	binDir := filepath.Join(sc.BuilderDir, "bin", "targets", "mediatek", "filogic")
	if err := os.MkdirAll(binDir, 0755); err != nil {
		t.Fatal(err)
	}
	files := map[string]bool{
		"openwrt-24.10.0-mediatek-filogic-sysupgrade.img.gz": true,
		"openwrt-24.10.0-mediatek-filogic-factory.img":       true,
		"openwrt-24.10.0-mediatek-filogic.manifest":          false,
		"sha256sums": false,
	}
	for name := range files {
		if err := os.WriteFile(filepath.Join(binDir, name), []byte(name), 0644); err != nil {
			t.Fatal(err)
		}
	}

	if err := NewCollectStage().Execute(context.Background(), sc, noProgress); err != nil {
		t.Fatalf("Execute error: %v", err)
	}

	if len(sc.Artifacts) != 2 {
		t.Fatalf("artifacts = %v, want 2 entries", sc.Artifacts)
	}
	for name, wantCopied := range files {
		_, err := os.Stat(filepath.Join(sc.Config.BinDir, name))
		copied := err == nil
		if copied != wantCopied {
			t.Errorf("%s copied = %v, want %v", name, copied, wantCopied)
		}
	}
}

func TestCollectStage_MissingBinDirIsFine(t *testing.T) {
	sc := testStageContext(t, &fakeRunner{})

	if err := NewCollectStage().Execute(context.Background(), sc, noProgress); err != nil {
		t.Fatalf("Execute error: %v", err)
	}
	if len(sc.Artifacts) != 0 {
		t.Errorf("artifacts = %v, want none", sc.Artifacts)
	}
}

// =============================================================================
// Pipeline Tests
// =============================================================================

type recordedStage struct {
	name     string
	order    *[]string
	validErr error
	execErr  error
}

func (s *recordedStage) Name() string { return s.name }

func (s *recordedStage) Validate(ctx context.Context, sc *StageContext) error {
	return s.validErr
}

func (s *recordedStage) Execute(ctx context.Context, sc *StageContext, progress ProgressFunc) error {
	*s.order = append(*s.order, s.name)
	return s.execErr
}

func TestPipeline_RunsStagesInOrder(t *testing.T) {
	var order []string
	pipeline := NewPipeline(
		&recordedStage{name: "one", order: &order},
		&recordedStage{name: "two", order: &order},
		&recordedStage{name: "three", order: &order},
	)

	sc := testStageContext(t, &fakeRunner{})
	if err := pipeline.Run(context.Background(), sc); err != nil {
		t.Fatalf("Run error: %v", err)
	}

	if strings.Join(order, ",") != "one,two,three" {
		t.Errorf("order = %v", order)
	}
}

func TestPipeline_StopsAtFirstFailure(t *testing.T) {
	var order []string
	boom := errors.New("boom")
	pipeline := NewPipeline(
		&recordedStage{name: "one", order: &order},
		&recordedStage{name: "two", order: &order, execErr: boom},
		&recordedStage{name: "three", order: &order},
	)

	sc := testStageContext(t, &fakeRunner{})
	err := pipeline.Run(context.Background(), sc)
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped stage error, got %v", err)
	}
	if !strings.Contains(err.Error(), "two stage") {
		t.Errorf("error should name the failing stage: %v", err)
	}
	if strings.Join(order, ",") != "one,two" {
		t.Errorf("order = %v, want stop after failure", order)
	}
}

func TestPipeline_ValidationFailureSkipsExecute(t *testing.T) {
	var order []string
	pipeline := NewPipeline(
		&recordedStage{name: "one", order: &order, validErr: errors.New("not ready")},
	)

	sc := testStageContext(t, &fakeRunner{})
	if err := pipeline.Run(context.Background(), sc); err == nil {
		t.Fatal("expected validation error")
	}
	if len(order) != 0 {
		t.Errorf("Execute ran despite failed validation: %v", order)
	}
}

func TestPipeline_HonorsCancellation(t *testing.T) {
	var order []string
	pipeline := NewPipeline(&recordedStage{name: "one", order: &order})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	sc := testStageContext(t, &fakeRunner{})
	if err := pipeline.Run(ctx, sc); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if len(order) != 0 {
		t.Errorf("stage ran after cancellation: %v", order)
	}
}

func TestDefaultStages(t *testing.T) {
	stages := DefaultStages(nil, nil)
	names := make([]string, len(stages))
	for i, s := range stages {
		names[i] = s.Name()
	}
	want := "fetch,extract,patch,packages,image,collect"
	if strings.Join(names, ",") != want {
		t.Errorf("stages = %v, want %s", names, want)
	}
}
