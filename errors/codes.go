package errors

// ErrorCode represents a machine-readable error code.
type ErrorCode string

// Failures talking to a collaborator. These may succeed if repeated, but the
// voice pipeline never repeats a step.
const (
	ErrCodeConnectionFailed ErrorCode = "CONNECTION_FAILED"
	ErrCodeTimeout          ErrorCode = "TIMEOUT"
	ErrCodeExternalService  ErrorCode = "EXTERNAL_SERVICE_ERROR"
)

// Input and data-shape errors.
const (
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"
	ErrCodeMissingField ErrorCode = "MISSING_FIELD"
	// ErrCodeMalformedResponse marks a collaborator body that could not be decoded.
	ErrCodeMalformedResponse ErrorCode = "MALFORMED_RESPONSE"
)

// Local failures.
const (
	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
	// ErrCodeStorage marks a working-file read, write or delete failure.
	ErrCodeStorage ErrorCode = "STORAGE_ERROR"
)

// IsRetryableCode reports whether code describes a transient collaborator failure.
func IsRetryableCode(code ErrorCode) bool {
	switch code {
	case ErrCodeConnectionFailed, ErrCodeTimeout, ErrCodeExternalService:
		return true
	}
	return false
}
