package graphql

import "fmt"

// ErrorCode enumerates the GraphQL-facing error variants (spec.md §7).
type ErrorCode string

const (
	ErrNotFound                  ErrorCode = "NOT_FOUND"
	ErrInternalError             ErrorCode = "INTERNAL_ERROR"
	ErrInvalidInt                ErrorCode = "INVALID_INT"
	ErrInvalidID                 ErrorCode = "INVALID_ID"
	ErrQueryConnectionFirstLast  ErrorCode = "QUERY_CONNECTION_FIRST_LAST"
	ErrFailedDatabaseQuery       ErrorCode = "FAILED_DATABASE_QUERY"
	ErrNoDatabasePool            ErrorCode = "NO_DATABASE_POOL"
	ErrNoServiceConfig           ErrorCode = "NO_SERVICE_CONFIG"
	ErrDurationOutOfRange        ErrorCode = "DURATION_OUT_OF_RANGE"
	ErrInvalidContractVersion    ErrorCode = "INVALID_CONTRACT_VERSION"
	ErrInvalidVersionedModuleSchema ErrorCode = "INVALID_VERSIONED_MODULE_SCHEMA"
)

// ApiError is the single error type every resolver returns instead of a
// plain error, carrying a stable code clients can switch on. It is a
// plain value (no shared-pointer cloning) so it can be copied freely
// across goroutines without aliasing concerns (see DESIGN.md).
type ApiError struct {
	Code    ErrorCode
	Message string
}

func (e ApiError) Error() string { return fmt.Sprintf("%s: %s", e.Code, e.Message) }

func notFound(what string) ApiError {
	return ApiError{Code: ErrNotFound, Message: what + " not found"}
}

func internalError(err error) ApiError {
	return ApiError{Code: ErrInternalError, Message: err.Error()}
}

func failedDatabaseQuery(err error) ApiError {
	return ApiError{Code: ErrFailedDatabaseQuery, Message: err.Error()}
}

func invalidConnectionArgs(msg string) ApiError {
	return ApiError{Code: ErrQueryConnectionFirstLast, Message: msg}
}
