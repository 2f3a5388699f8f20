package errors

import (
	"errors"
	"fmt"
)

// Basic error check functions from standard library
var (
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
)

// storeError implements the Error interface
type storeError struct {
	code          ErrorCode
	message       string
	underlying    int
	hasUnderlying bool
	err           error
	data          any
}

func (e *storeError) Error() string {
	msg := fmt.Sprintf("%s(%s): %s", Domain, e.code, e.message)

	if e.hasUnderlying {
		msg = fmt.Sprintf("%s (sqlite %d)", msg, e.underlying)
	}

	if e.data != nil {
		return fmt.Sprintf("%s: %v", msg, e.data)
	}

	if e.err != nil {
		return fmt.Sprintf("%s: %v", msg, e.err)
	}

	return msg
}

func (*storeError) Domain() string {
	return Domain
}

func (e *storeError) Code() ErrorCode {
	return e.code
}

func (e *storeError) Message() string {
	return e.message
}

func (e *storeError) UnderlyingCode() (int, bool) {
	return e.underlying, e.hasUnderlying
}

func (e *storeError) WithMessage(msg string) Error {
	c := *e
	if msg != "" {
		c.message = msg
	}

	return &c
}

func (e *storeError) WithData(data any) Error {
	c := *e
	c.data = data

	return &c
}

func (e *storeError) GetData() any {
	return e.data
}

func (e *storeError) Unwrap() error {
	return e.err
}

type defaultFactory struct{}

func (*defaultFactory) New(code ErrorCode) Error {
	return &storeError{
		code:    code,
		message: GetErrorMessage(code),
	}
}

func (f *defaultFactory) WithMessage(code ErrorCode, msg string) Error {
	if msg == "" {
		return f.New(code)
	}

	return &storeError{
		code:    code,
		message: msg,
	}
}

func (f *defaultFactory) Newf(code ErrorCode, format string, args ...any) Error {
	msg, ok := render(format, args)
	if !ok {
		return f.New(code)
	}

	return &storeError{
		code:    code,
		message: msg,
	}
}

// FromDriver always reports ErrStorageEngineFailure, even when the handle
// says the last operation succeeded. Only call it after a failed operation.
func (f *defaultFactory) FromDriver(handle DriverHandle) Error {
	if handle == nil {
		return f.New(ErrStorageEngineFailure)
	}

	msg := handle.ResultMessage()
	if msg == "" {
		msg = GetErrorMessage(ErrStorageEngineFailure)
	}

	return &storeError{
		code:          ErrStorageEngineFailure,
		message:       msg,
		underlying:    handle.ResultCode(),
		hasUnderlying: true,
	}
}

func (*defaultFactory) Wrap(code ErrorCode, err error) Error {
	return &storeError{
		code:    code,
		message: GetErrorMessage(code),
		err:     err,
	}
}

func (*defaultFactory) WithData(code ErrorCode, data any) Error {
	return &storeError{
		code:    code,
		message: GetErrorMessage(code),
		data:    data,
	}
}

// New creates a Factory instance for error creation
func New() Factory {
	return &defaultFactory{}
}

// CodeOf returns the code of the first store error in err's chain
func CodeOf(err error) (ErrorCode, bool) {
	var e Error
	if !As(err, &e) {
		return ErrUnknown, false
	}

	return e.Code(), true
}

// HasCode reports whether any store error in err's chain carries code
func HasCode(err error, code ErrorCode) bool {
	for err != nil {
		if e, ok := err.(Error); ok && e.Code() == code {
			return true
		}
		err = Unwrap(err)
	}

	return false
}
