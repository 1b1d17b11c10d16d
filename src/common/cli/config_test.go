package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func resetViper(t *testing.T) {
	t.Helper()
	viper.Reset()
	t.Cleanup(viper.Reset)
}

func writeDefaultsFile(t *testing.T, dir string, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, "image.json"), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

// =============================================================================
// InitConfig Tests
// =============================================================================

func TestInitConfig_Precedence(t *testing.T) {
	resetViper(t)

	dir := t.TempDir()
	writeDefaultsFile(t, dir, `{"version": "23.05.0", "workdir": "/from-file", "target": "ath79/generic"}`)

	viper.SetDefault("version", "SNAPSHOT")
	viper.SetDefault("workdir", ".")
	viper.SetDefault("target", "rockchip/armv8")
	viper.SetDefault("bin_dir", "/default-bin")

	t.Setenv("OWRTBUILD_WORKDIR", "/from-env")

	opts := ConfigOptions{
		ConfigName:  "image",
		ConfigType:  "json",
		EnvPrefix:   "OWRTBUILD",
		SearchPaths: []string{dir},
	}
	if err := InitConfig(opts); err != nil {
		t.Fatalf("InitConfig error: %v", err)
	}

	// Defaults file overrides the built-in default
	if got := viper.GetString("version"); got != "23.05.0" {
		t.Errorf("version = %q, want file value 23.05.0", got)
	}

	// Environment overrides the defaults file
	if got := viper.GetString("workdir"); got != "/from-env" {
		t.Errorf("workdir = %q, want env value /from-env", got)
	}

	// Built-in default applies when no higher layer sets the key
	if got := viper.GetString("bin_dir"); got != "/default-bin" {
		t.Errorf("bin_dir = %q, want built-in default", got)
	}

	// An explicitly set flag overrides every other layer
	cmd := &cobra.Command{Use: "test"}
	cmd.Flags().String("target", "", "")
	if err := BindFlag(cmd, "target", "target"); err != nil {
		t.Fatalf("BindFlag error: %v", err)
	}
	if err := cmd.Flags().Set("target", "mediatek/filogic"); err != nil {
		t.Fatal(err)
	}
	if got := viper.GetString("target"); got != "mediatek/filogic" {
		t.Errorf("target = %q, want flag value mediatek/filogic", got)
	}
}

func TestInitConfig_MissingDefaultsFileIsFine(t *testing.T) {
	resetViper(t)

	viper.SetDefault("version", "SNAPSHOT")

	opts := ConfigOptions{
		ConfigName:  "image",
		ConfigType:  "json",
		EnvPrefix:   "OWRTBUILD",
		SearchPaths: []string{t.TempDir()},
	}
	if err := InitConfig(opts); err != nil {
		t.Fatalf("InitConfig error: %v", err)
	}

	if got := viper.GetString("version"); got != "SNAPSHOT" {
		t.Errorf("version = %q, want built-in default", got)
	}
}

func TestInitConfig_ExplicitFile(t *testing.T) {
	resetViper(t)

	dir := t.TempDir()
	path := filepath.Join(dir, "custom.json")
	if err := os.WriteFile(path, []byte(`{"profile": "from-custom"}`), 0644); err != nil {
		t.Fatal(err)
	}

	opts := ConfigOptions{
		ConfigFile: path,
		ConfigType: "json",
		EnvPrefix:  "OWRTBUILD",
	}
	if err := InitConfig(opts); err != nil {
		t.Fatalf("InitConfig error: %v", err)
	}

	if got := viper.GetString("profile"); got != "from-custom" {
		t.Errorf("profile = %q, want from-custom", got)
	}
}

func TestInitConfig_NestedKeyFromEnv(t *testing.T) {
	resetViper(t)

	viper.SetDefault("history.path", "~/.owrtbuild/owrtbuild.db")
	t.Setenv("OWRTBUILD_HISTORY_PATH", "/tmp/history.db")

	opts := ConfigOptions{
		ConfigName:  "image",
		ConfigType:  "json",
		EnvPrefix:   "OWRTBUILD",
		SearchPaths: []string{t.TempDir()},
	}
	if err := InitConfig(opts); err != nil {
		t.Fatalf("InitConfig error: %v", err)
	}

	if got := viper.GetString("history.path"); got != "/tmp/history.db" {
		t.Errorf("history.path = %q, want env value", got)
	}
}
