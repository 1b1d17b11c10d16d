package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"testing"
)

// =============================================================================
// Error Tests
// =============================================================================

func TestError_Message(t *testing.T) {
	err := New(DomainDownload, CodeIncomplete, ExitDownload, "Download incomplete")
	got := err.Error()
	if !strings.Contains(got, "download.incomplete") {
		t.Errorf("expected domain.code in message, got %q", got)
	}
	if !strings.Contains(got, "Download incomplete") {
		t.Errorf("expected message text, got %q", got)
	}
}

func TestError_WithCausePreservesIdentity(t *testing.T) {
	cause := fmt.Errorf("connection reset")
	err := ErrDownloadFailed.WithCause(cause)

	if !stderrors.Is(err, ErrDownloadFailed) {
		t.Error("wrapped error lost its identity")
	}
	if !stderrors.Is(err, cause) {
		t.Error("cause not reachable through Unwrap")
	}
	if !strings.Contains(err.Error(), "connection reset") {
		t.Errorf("cause missing from message: %q", err.Error())
	}
}

func TestError_WithMessagefPreservesIdentity(t *testing.T) {
	err := ErrDownloadIncomplete.WithMessagef("got only %d out of %d bytes", 500, 1000)

	if !stderrors.Is(err, ErrDownloadIncomplete) {
		t.Error("custom message changed error identity")
	}
	if !strings.Contains(err.Error(), "got only 500 out of 1000 bytes") {
		t.Errorf("formatted message missing: %q", err.Error())
	}
}

func TestError_SentinelsAreDistinct(t *testing.T) {
	if stderrors.Is(ErrDownloadFailed, ErrDownloadIncomplete) {
		t.Error("distinct sentinels must not match")
	}
	if stderrors.Is(ErrPatchFailed, ErrBuildFailed) {
		t.Error("distinct sentinels must not match")
	}
}

// =============================================================================
// GetExitStatus Tests
// =============================================================================

func TestGetExitStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{ErrInvalidTarget, ExitConfig},
		{ErrVersionUnparseable, ExitConfig},
		{ErrDownloadIncomplete, ExitDownload},
		{ErrRemoteNotFound, ExitDownload},
		{ErrUnsupportedArchive, ExitArchive},
		{ErrPatchFailed, ExitPatch},
		{ErrBuildFailed, ExitBuild},
		{ErrStorageUploadFailed, ExitStorage},
		{fmt.Errorf("plain error"), ExitFailure},
	}

	for _, tt := range tests {
		if got := GetExitStatus(tt.err); got != tt.want {
			t.Errorf("GetExitStatus(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

func TestGetExitStatus_Wrapped(t *testing.T) {
	err := fmt.Errorf("fetch stage: %w", ErrDownloadIncomplete.WithCause(fmt.Errorf("short read")))
	if got := GetExitStatus(err); got != ExitDownload {
		t.Errorf("GetExitStatus = %d, want %d", got, ExitDownload)
	}
}

// =============================================================================
// Accessor Tests
// =============================================================================

func TestGetCodeAndDomain(t *testing.T) {
	if GetCode(ErrDownloadIncomplete) != CodeIncomplete {
		t.Errorf("GetCode = %q", GetCode(ErrDownloadIncomplete))
	}
	if GetDomain(ErrDownloadIncomplete) != DomainDownload {
		t.Errorf("GetDomain = %q", GetDomain(ErrDownloadIncomplete))
	}
	if GetCode(fmt.Errorf("plain")) != "" {
		t.Error("expected empty code for plain error")
	}
}
