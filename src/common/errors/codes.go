package errors

// Common error codes used across domains
const (
	CodeInvalidRequest Code = "invalid_request"
	CodeParseError     Code = "parse_error"
	CodeNotFound       Code = "not_found"
	CodeIncomplete     Code = "incomplete"
	CodeCommandFailed  Code = "command_failed"
	CodeUnsupported    Code = "unsupported"
	CodeInternal       Code = "internal_error"
)

// Exit status values reported by the process on failure. Zero is reserved
// for full success.
const (
	ExitFailure  = 1
	ExitConfig   = 2
	ExitDownload = 3
	ExitArchive  = 4
	ExitPatch    = 5
	ExitBuild    = 6
	ExitStorage  = 7
)

// ============================================================================
// Configuration Errors
// ============================================================================

var (
	// ErrInvalidTarget is returned when the target is not a "target/subtarget" pair
	ErrInvalidTarget = New(DomainConfig, "invalid_target", ExitConfig,
		"Target must be a target/subtarget pair")

	// ErrInvalidConfig is returned when configuration values fail validation
	ErrInvalidConfig = New(DomainConfig, CodeInvalidRequest, ExitConfig,
		"Invalid configuration")
)

// ============================================================================
// Version Errors
// ============================================================================

var (
	// ErrVersionUnparseable is returned when a release version string does not
	// match the YY.MM.RELEASE[-rcN] pattern
	ErrVersionUnparseable = New(DomainVersion, CodeParseError, ExitConfig,
		"Unparseable version")
)

// ============================================================================
// Download Errors
// ============================================================================

var (
	// ErrDownloadFailed is returned when the HTTP transfer cannot be performed
	ErrDownloadFailed = New(DomainDownload, "transfer_failed", ExitDownload,
		"Download failed")

	// ErrDownloadIncomplete is returned when fewer bytes than the advertised
	// content length were received
	ErrDownloadIncomplete = New(DomainDownload, CodeIncomplete, ExitDownload,
		"Download incomplete")

	// ErrRemoteNotFound is returned when the remote resource does not exist
	ErrRemoteNotFound = New(DomainDownload, CodeNotFound, ExitDownload,
		"Remote resource not found")
)

// ============================================================================
// Archive Errors
// ============================================================================

var (
	// ErrUnsupportedArchive is returned for archive formats the extractor
	// does not handle
	ErrUnsupportedArchive = New(DomainArchive, CodeUnsupported, ExitArchive,
		"Unsupported archive format")

	// ErrExtractionFailed is returned when archive extraction fails
	ErrExtractionFailed = New(DomainArchive, "extraction_failed", ExitArchive,
		"Archive extraction failed")
)

// ============================================================================
// External Process Errors
// ============================================================================

var (
	// ErrPatchFailed is returned when the patch tool exits non-zero
	ErrPatchFailed = New(DomainPatch, CodeCommandFailed, ExitPatch,
		"Patch application failed")

	// ErrBuildFailed is returned when the vendor build command exits non-zero
	ErrBuildFailed = New(DomainBuild, CodeCommandFailed, ExitBuild,
		"Image build failed")
)

// ============================================================================
// Storage Errors
// ============================================================================

var (
	// ErrStorageUploadFailed is returned when artifact publication fails
	ErrStorageUploadFailed = New(DomainStorage, "upload_failed", ExitStorage,
		"Failed to upload artifact to storage")

	// ErrStorageUnavailable is returned when the storage backend is unreachable
	ErrStorageUnavailable = New(DomainStorage, "unavailable", ExitStorage,
		"Storage backend unavailable")
)

// ============================================================================
// Database Errors
// ============================================================================

var (
	// ErrDatabaseQuery is returned when a history database query fails
	ErrDatabaseQuery = New(DomainDatabase, "query_failed", ExitFailure,
		"Database query failed")
)

// ============================================================================
// Internal Errors
// ============================================================================

var (
	// ErrInternal is a generic internal error
	ErrInternal = New(DomainInternal, CodeInternal, ExitFailure,
		"Internal error")
)
