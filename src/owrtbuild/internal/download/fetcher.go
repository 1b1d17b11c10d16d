// Package download fetches remote files to the local filesystem, skipping
// transfers whose result is already present.
package download

import (
	"context"
	"io"
	"net/http"
	"os"
	urlpath "path"
	"path/filepath"
	"time"

	owrterrors "github.com/openwrt-tools/owrtbuild/src/common/errors"
	"github.com/openwrt-tools/owrtbuild/src/common/logs"
)

var log = logs.NewDefault()

// SetLogger sets the logger for the download package
func SetLogger(l *logs.Logger) {
	if l != nil {
		log = l
	}
}

const userAgent = "owrtbuild/1.0"

// fetchChunkSize is the read buffer used while streaming the response body
const fetchChunkSize = 8 * 1024

// Fetcher downloads files idempotently: a local file whose size and
// modification time already match the remote metadata is not transferred
// again. The remote Last-Modified timestamp is stamped onto the local file
// after a successful transfer, forming the idempotency key together with
// the byte size.
type Fetcher struct {
	httpClient *http.Client
}

// NewFetcher creates a new fetcher. A nil client gets a default with no
// timeout; archive downloads can legitimately take a long time and are
// bounded by the caller's context instead.
func NewFetcher(httpClient *http.Client) *Fetcher {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 0}
	}
	return &Fetcher{httpClient: httpClient}
}

// Fetch downloads url into destDir and returns the local file path, named
// after the final segment of the URL path. destDir and its parents are
// created when absent. When the existing local file already matches every
// metadatum the server reports, the transfer is skipped entirely; a response
// carrying no usable metadata always forces a full re-download.
func (f *Fetcher) Fetch(ctx context.Context, rawURL, destDir string) (string, error) {
	localPath := filepath.Join(destDir, urlpath.Base(rawURL))
	if err := os.MkdirAll(destDir, 0755); err != nil {
		return "", owrterrors.ErrDownloadFailed.
			WithMessagef("failed to create destination directory %s", destDir).WithCause(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", owrterrors.ErrDownloadFailed.
			WithMessagef("invalid download URL %q", rawURL).WithCause(err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return "", owrterrors.ErrDownloadFailed.
			WithMessagef("request to %s failed", rawURL).WithCause(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return "", owrterrors.ErrRemoteNotFound.WithMessagef("no such resource: %s", rawURL)
	}
	if resp.StatusCode != http.StatusOK {
		return "", owrterrors.ErrDownloadFailed.
			WithMessagef("unexpected status %d from %s", resp.StatusCode, rawURL)
	}

	size := resp.ContentLength // -1 when unknown

	var mtime time.Time // zero when unknown
	if lastMod := resp.Header.Get("Last-Modified"); lastMod != "" {
		if t, err := http.ParseTime(lastMod); err == nil {
			mtime = t
		}
	}

	if upToDate(localPath, size, mtime) {
		log.Info("Already downloaded", "file", filepath.Base(localPath))
		return localPath, nil
	}

	log.Info("Downloading", "file", filepath.Base(localPath), "size", size)

	received, err := f.streamToFile(ctx, resp.Body, localPath)
	if err != nil {
		return "", err
	}

	if size >= 0 && received < size {
		return "", owrterrors.ErrDownloadIncomplete.
			WithMessagef("download incomplete: got only %d out of %d bytes", received, size)
	}

	// Stamp the remote modification time only on a fully received payload,
	// so a partial file can never satisfy the idempotency check.
	if !mtime.IsZero() {
		if err := os.Chtimes(localPath, time.Now(), mtime); err != nil {
			return "", owrterrors.ErrDownloadFailed.
				WithMessagef("failed to set modification time on %s", localPath).WithCause(err)
		}
	}

	return localPath, nil
}

// upToDate reports whether the existing local file matches the remote
// metadata. Each unknown remote value disables its half of the check, but at
// least one known value must be present and every known value must agree.
func upToDate(localPath string, size int64, mtime time.Time) bool {
	stat, err := os.Stat(localPath)
	if err != nil {
		return false
	}

	checked := false
	if size >= 0 {
		checked = true
		if stat.Size() != size {
			return false
		}
	}
	if !mtime.IsZero() {
		checked = true
		if !stat.ModTime().Equal(mtime) {
			return false
		}
	}
	return checked
}

// streamToFile writes the response body to localPath in fixed-size chunks,
// returning the number of bytes received. A truncated body (early EOF on a
// sized response) is not an error here; the caller compares counts.
func (f *Fetcher) streamToFile(ctx context.Context, body io.Reader, localPath string) (int64, error) {
	file, err := os.Create(localPath)
	if err != nil {
		return 0, owrterrors.ErrDownloadFailed.
			WithMessagef("failed to create %s", localPath).WithCause(err)
	}
	defer file.Close()

	var received int64
	buf := make([]byte, fetchChunkSize)

	for {
		select {
		case <-ctx.Done():
			return received, owrterrors.ErrDownloadFailed.
				WithMessage("download canceled").WithCause(ctx.Err())
		default:
		}

		n, readErr := body.Read(buf)
		if n > 0 {
			if _, writeErr := file.Write(buf[:n]); writeErr != nil {
				return received, owrterrors.ErrDownloadFailed.
					WithMessagef("failed to write %s", localPath).WithCause(writeErr)
			}
			received += int64(n)
		}
		if readErr == io.EOF || readErr == io.ErrUnexpectedEOF {
			return received, nil
		}
		if readErr != nil {
			return received, owrterrors.ErrDownloadFailed.
				WithMessage("failed to read response body").WithCause(readErr)
		}
	}
}
