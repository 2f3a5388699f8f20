package sqlite

import "github.com/jblebrun/NTJsonStore/internal/errors"

const (
	// Configuration Errors
	ErrInvalidConfig = errors.ErrInvalidConfig

	// Lifecycle Errors
	ErrNotOpen = errors.ErrStoreNotOpen
	ErrClosing = errors.ErrStoreClosing

	// Result Errors
	ErrNoResult = errors.ErrInvalidSQLResult

	// Engine Errors
	ErrEngine = errors.ErrStorageEngineFailure
)

// Primary result codes used by this package
const (
	codeOK    = 0
	codeError = 1

	primaryCodeMask = 0xff

	// sqlite3_errmsg text for SQLITE_OK
	noErrorMessage = "not an error"
)
