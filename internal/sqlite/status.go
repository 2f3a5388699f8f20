package sqlite

import (
	"fmt"
	"strings"

	"github.com/jblebrun/NTJsonStore/internal/errors"
	sqlite3 "github.com/mattn/go-sqlite3"
	modernc "modernc.org/sqlite"
)

// status is a snapshot of a driver result code and message
type status struct {
	code int
	msg  string
}

func (s status) ResultCode() int {
	return s.code
}

func (s status) ResultMessage() string {
	return s.msg
}

// StatusOf converts the error returned by a driver call into a driver
// handle. A nil error reports SQLITE_OK; errors that did not come from
// SQLite report the generic SQLITE_ERROR code.
func StatusOf(err error) errors.DriverHandle {
	return statusOf(err)
}

func statusOf(err error) status {
	if err == nil {
		return status{code: codeOK, msg: noErrorMessage}
	}

	var mattnErr sqlite3.Error
	if errors.As(err, &mattnErr) {
		return status{code: int(mattnErr.Code), msg: mattnErr.Error()}
	}

	// modernc reports extended result codes
	var moderncErr *modernc.Error
	if errors.As(err, &moderncErr) {
		return status{code: moderncErr.Code() & primaryCodeMask, msg: moderncMessage(moderncErr)}
	}

	return status{code: codeError, msg: err.Error()}
}

// moderncMessage recovers the sqlite3_errmsg text from a modernc error,
// which reads "<errstr>: <errmsg> (<code>)" with an optional busy suffix.
// The errstr texts never contain ": ".
func moderncMessage(e *modernc.Error) string {
	msg := strings.TrimSuffix(e.Error(), " (SQLITE_BUSY)")
	msg = strings.TrimSuffix(msg, fmt.Sprintf(" (%d)", e.Code()))

	if _, errmsg, ok := strings.Cut(msg, ": "); ok {
		return errmsg
	}

	return msg
}
