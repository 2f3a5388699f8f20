package errors

import "strconv"

// Domain tags every error produced by this package
const Domain = "NTJsonStore"

// Store error codes
const (
	ErrUnknown ErrorCode = 0

	// Lifecycle errors
	ErrStoreNotOpen ErrorCode = 1
	ErrStoreClosing ErrorCode = 2

	// Query errors
	ErrInvalidQuery        ErrorCode = 3
	ErrInvalidSQLArgument  ErrorCode = 4
	ErrInvalidSQLResult    ErrorCode = 5
	ErrConstraintViolation ErrorCode = 6

	// Document errors
	ErrInvalidJSON        ErrorCode = 7
	ErrCollectionNotFound ErrorCode = 8

	// Configuration errors
	ErrInvalidConfig ErrorCode = 9

	// Storage engine errors
	ErrStorageEngineFailure ErrorCode = 1000
)

const unknownErrorMessage = "Unknown error"

var errorNames = map[ErrorCode]string{
	ErrUnknown:              "unknown",
	ErrStoreNotOpen:         "store_not_open",
	ErrStoreClosing:         "store_closing",
	ErrInvalidQuery:         "invalid_query",
	ErrInvalidSQLArgument:   "invalid_sql_argument",
	ErrInvalidSQLResult:     "invalid_sql_result",
	ErrConstraintViolation:  "constraint_violation",
	ErrInvalidJSON:          "invalid_json",
	ErrCollectionNotFound:   "collection_not_found",
	ErrInvalidConfig:        "invalid_configuration",
	ErrStorageEngineFailure: "storage_engine_failure",
}

// Default error messages
var errorMessages = map[ErrorCode]string{
	ErrUnknown:              unknownErrorMessage,
	ErrStoreNotOpen:         "Store is not open",
	ErrStoreClosing:         "Store is closing",
	ErrInvalidQuery:         "Invalid query",
	ErrInvalidSQLArgument:   "Invalid SQL argument",
	ErrInvalidSQLResult:     "Invalid SQL result",
	ErrConstraintViolation:  "Constraint violation",
	ErrInvalidJSON:          "Invalid JSON document",
	ErrCollectionNotFound:   "Collection not found",
	ErrInvalidConfig:        "Invalid configuration",
	ErrStorageEngineFailure: "Storage engine failure",
}

// GetErrorMessage returns the default message for a given error code
func GetErrorMessage(code ErrorCode) string {
	if msg, ok := errorMessages[code]; ok {
		return msg
	}

	return unknownErrorMessage
}

// Codes returns every code that has a default message, in no particular order
func Codes() []ErrorCode {
	codes := make([]ErrorCode, 0, len(errorMessages))
	for code := range errorMessages {
		codes = append(codes, code)
	}

	return codes
}

func (c ErrorCode) String() string {
	if name, ok := errorNames[c]; ok {
		return name
	}

	return "error_code(" + strconv.Itoa(int(c)) + ")"
}
