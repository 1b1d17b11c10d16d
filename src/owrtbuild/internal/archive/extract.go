// Package archive extracts the compressed tar archives the vendor ships its
// Image Builder in.
package archive

import (
	"archive/tar"
	"compress/bzip2"
	"compress/gzip"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zstd"
	"github.com/ulikunitz/xz"

	owrterrors "github.com/openwrt-tools/owrtbuild/src/common/errors"
)

// knownSuffixes lists the archive suffixes the extractor understands, in
// match order (longest first so .tar never shadows the compressed forms)
var knownSuffixes = []string{".tar.zst", ".tar.xz", ".tar.gz", ".tar.bz2", ".tgz", ".txz", ".tbz2", ".tar"}

// StripSuffix returns the base name of path with its archive suffix removed.
// The extraction directory of an archive is named this way.
func StripSuffix(path string) string {
	name := filepath.Base(path)
	for _, suffix := range knownSuffixes {
		if strings.HasSuffix(name, suffix) {
			return strings.TrimSuffix(name, suffix)
		}
	}
	return name
}

// Extract unpacks a tar archive (optionally compressed) into destDir
func Extract(ctx context.Context, archivePath, destDir string) error {
	file, err := os.Open(archivePath)
	if err != nil {
		return owrterrors.ErrExtractionFailed.
			WithMessagef("failed to open archive %s", archivePath).WithCause(err)
	}
	defer file.Close()

	var reader io.Reader = file

	switch {
	case strings.HasSuffix(archivePath, ".tar.zst"):
		zstReader, err := zstd.NewReader(file)
		if err != nil {
			return owrterrors.ErrExtractionFailed.
				WithMessage("failed to create zstd reader").WithCause(err)
		}
		defer zstReader.Close()
		reader = zstReader

	case strings.HasSuffix(archivePath, ".tar.xz") || strings.HasSuffix(archivePath, ".txz"):
		xzReader, err := xz.NewReader(file)
		if err != nil {
			return owrterrors.ErrExtractionFailed.
				WithMessage("failed to create xz reader").WithCause(err)
		}
		reader = xzReader

	case strings.HasSuffix(archivePath, ".tar.gz") || strings.HasSuffix(archivePath, ".tgz"):
		gzReader, err := gzip.NewReader(file)
		if err != nil {
			return owrterrors.ErrExtractionFailed.
				WithMessage("failed to create gzip reader").WithCause(err)
		}
		defer gzReader.Close()
		reader = gzReader

	case strings.HasSuffix(archivePath, ".tar.bz2") || strings.HasSuffix(archivePath, ".tbz2"):
		reader = bzip2.NewReader(file)

	case strings.HasSuffix(archivePath, ".tar"):
		// Plain tar, no decompression needed

	default:
		return owrterrors.ErrUnsupportedArchive.
			WithMessagef("unsupported archive format: %s", archivePath)
	}

	return untar(ctx, reader, destDir)
}

// confined reports whether path stays below destDir after cleaning
func confined(destDir, path string) bool {
	return strings.HasPrefix(filepath.Clean(path), filepath.Clean(destDir)+string(os.PathSeparator))
}

// untar unpacks a tar stream into destDir, refusing entries that would
// escape it
func untar(ctx context.Context, reader io.Reader, destDir string) error {
	tarReader := tar.NewReader(reader)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		header, err := tarReader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return owrterrors.ErrExtractionFailed.
				WithMessage("failed to read tar header").WithCause(err)
		}

		target := filepath.Join(destDir, header.Name)

		// Prevent path traversal attacks
		if !confined(destDir, target) {
			return owrterrors.ErrExtractionFailed.
				WithMessagef("invalid tar path: %s", header.Name)
		}

		switch header.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, os.FileMode(header.Mode)); err != nil {
				return owrterrors.ErrExtractionFailed.
					WithMessagef("failed to create directory %s", target).WithCause(err)
			}

		case tar.TypeReg:
			if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
				return owrterrors.ErrExtractionFailed.
					WithMessagef("failed to create parent directory for %s", target).WithCause(err)
			}
			outFile, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, os.FileMode(header.Mode))
			if err != nil {
				return owrterrors.ErrExtractionFailed.
					WithMessagef("failed to create file %s", target).WithCause(err)
			}
			if _, err := io.Copy(outFile, tarReader); err != nil {
				outFile.Close()
				return owrterrors.ErrExtractionFailed.
					WithMessagef("failed to write file %s", target).WithCause(err)
			}
			outFile.Close()

		case tar.TypeSymlink:
			// Link targets must stay confined too; an absolute or escaping
			// linkname would alias paths outside the extraction directory
			if filepath.IsAbs(header.Linkname) ||
				!confined(destDir, filepath.Join(filepath.Dir(target), header.Linkname)) {
				return owrterrors.ErrExtractionFailed.
					WithMessagef("invalid link target: %s", header.Linkname)
			}
			if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
				return owrterrors.ErrExtractionFailed.
					WithMessagef("failed to create parent directory for %s", target).WithCause(err)
			}
			if err := os.Symlink(header.Linkname, target); err != nil {
				return owrterrors.ErrExtractionFailed.
					WithMessagef("failed to create symlink %s", target).WithCause(err)
			}

		case tar.TypeLink:
			linkSource := filepath.Join(destDir, header.Linkname)
			if filepath.IsAbs(header.Linkname) || !confined(destDir, linkSource) {
				return owrterrors.ErrExtractionFailed.
					WithMessagef("invalid link target: %s", header.Linkname)
			}
			if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
				return owrterrors.ErrExtractionFailed.
					WithMessagef("failed to create parent directory for %s", target).WithCause(err)
			}
			if err := os.Link(linkSource, target); err != nil {
				return owrterrors.ErrExtractionFailed.
					WithMessagef("failed to create hard link %s", target).WithCause(err)
			}
		}
	}

	return nil
}
