package download

import (
	"context"
	"net/http"
	"time"

	owrterrors "github.com/openwrt-tools/owrtbuild/src/common/errors"
)

// Verifier checks remote resources without transferring them
type Verifier struct {
	httpClient *http.Client
}

// VerificationResult contains the metadata learned from a verification check
type VerificationResult struct {
	Exists        bool
	ContentLength int64
	LastModified  time.Time
	ETag          string
}

// NewVerifier creates a new verifier with the given HTTP client
func NewVerifier(httpClient *http.Client) *Verifier {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Verifier{httpClient: httpClient}
}

// Verify issues a HEAD request for url and reports existence plus the
// metadata relevant to the idempotency check.
func (v *Verifier) Verify(ctx context.Context, url string) (*VerificationResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return nil, owrterrors.ErrDownloadFailed.
			WithMessagef("invalid URL %q", url).WithCause(err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := v.httpClient.Do(req)
	if err != nil {
		return nil, owrterrors.ErrDownloadFailed.
			WithMessagef("request to %s failed", url).WithCause(err)
	}
	defer resp.Body.Close()

	result := &VerificationResult{
		Exists: resp.StatusCode == http.StatusOK,
	}

	if result.Exists {
		result.ContentLength = resp.ContentLength
		result.ETag = resp.Header.Get("ETag")

		if lastMod := resp.Header.Get("Last-Modified"); lastMod != "" {
			if t, err := http.ParseTime(lastMod); err == nil {
				result.LastModified = t
			}
		}
	} else if resp.StatusCode != http.StatusNotFound {
		return nil, owrterrors.ErrDownloadFailed.
			WithMessagef("unexpected status %d from %s", resp.StatusCode, url)
	}

	return result, nil
}
