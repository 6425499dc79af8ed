package apperr

// Kind is a stable string identifier for a class of failure.
// Values are serialized across the IPC boundary, so they must never change
// once released.
type Kind string

// Provider errors cover failures talking to external AI model providers.
const (
	ProviderNotFound      Kind = "provider-not-found"
	ProviderAuthFailed    Kind = "provider-auth-failed"
	ProviderRateLimited   Kind = "provider-rate-limited"
	ProviderUnavailable   Kind = "provider-unavailable"
	ProviderInvalidConfig Kind = "provider-invalid-config"
	ProviderRequestFailed Kind = "provider-request-failed"
)

// Task errors cover the lifecycle of locally executed agent tasks.
const (
	TaskNotFound         Kind = "task-not-found"
	TaskFailed           Kind = "task-failed"
	TaskCancelled        Kind = "task-cancelled"
	TaskAlreadyRunning   Kind = "task-already-running"
	TaskValidationFailed Kind = "task-validation-failed"
)

// Git errors cover failures of local git operations.
const (
	GitNotInitialized  Kind = "git-not-initialized"
	GitOperationFailed Kind = "git-operation-failed"
	GitConflict        Kind = "git-conflict"
	GitRemoteError     Kind = "git-remote-error"
)

// File errors cover local filesystem access.
const (
	FileNotFound     Kind = "file-not-found"
	FileAccessDenied Kind = "file-access-denied"
	FileReadError    Kind = "file-read-error"
	FileWriteError   Kind = "file-write-error"
)

// Storage errors cover the local database.
const (
	StorageError               Kind = "storage-error"
	StorageConstraintViolation Kind = "storage-constraint-violation"
)

// General errors.
const (
	ValidationError Kind = "validation-error"
	InternalError   Kind = "internal-error"
	UnknownError    Kind = "unknown-error"
	NetworkError    Kind = "network-error"
	TimeoutError    Kind = "timeout-error"
)

// recoverableByDefault lists the kinds whose failures are transient by
// nature: waiting and calling again can plausibly succeed.
var recoverableByDefault = map[Kind]bool{
	ProviderRateLimited: true,
	ProviderUnavailable: true,
	NetworkError:        true,
	TimeoutError:        true,
}

// DefaultRecoverable reports whether errors of the given kind are considered
// recoverable unless explicitly overridden at construction.
func DefaultRecoverable(k Kind) bool {
	return recoverableByDefault[k]
}
