package errors

// ErrorCode identifies an application level error kind
type ErrorCode int

// Error is the uniform store error. Values are immutable; the With* methods
// return modified copies.
type Error interface {
	error
	Domain() string
	Code() ErrorCode
	Message() string
	// UnderlyingCode returns the native driver result code, if the error
	// was built from a driver handle.
	UnderlyingCode() (int, bool)
	WithMessage(msg string) Error
	WithData(data any) Error
	GetData() any
	Unwrap() error
}

// DriverHandle exposes the status of the most recent operation on a native
// database connection.
type DriverHandle interface {
	ResultCode() int
	ResultMessage() string
}

// Factory defines methods for creating store errors. None of them fail.
type Factory interface {
	New(code ErrorCode) Error
	WithMessage(code ErrorCode, msg string) Error
	Newf(code ErrorCode, format string, args ...any) Error
	FromDriver(handle DriverHandle) Error
	Wrap(code ErrorCode, err error) Error
	WithData(code ErrorCode, data any) Error
}
