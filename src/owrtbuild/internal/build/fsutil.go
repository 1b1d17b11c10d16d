package build

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"
)

// copyFile copies src into the destination directory, preserving the file
// mode and modification time, and returns the destination path.
func copyFile(src, destDir string) (string, error) {
	info, err := os.Stat(src)
	if err != nil {
		return "", fmt.Errorf("failed to stat %s: %w", src, err)
	}

	in, err := os.Open(src)
	if err != nil {
		return "", fmt.Errorf("failed to open %s: %w", src, err)
	}
	defer in.Close()

	dest := filepath.Join(destDir, filepath.Base(src))
	out, err := os.OpenFile(dest, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return "", fmt.Errorf("failed to create %s: %w", dest, err)
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return "", fmt.Errorf("failed to copy %s: %w", src, err)
	}
	if err := out.Close(); err != nil {
		return "", fmt.Errorf("failed to close %s: %w", dest, err)
	}

	if err := os.Chtimes(dest, time.Now(), info.ModTime()); err != nil {
		return "", fmt.Errorf("failed to set modification time on %s: %w", dest, err)
	}

	return dest, nil
}
