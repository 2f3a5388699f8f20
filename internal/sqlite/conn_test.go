package sqlite_test

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jblebrun/NTJsonStore/internal/errors"
	"github.com/jblebrun/NTJsonStore/internal/logger"
	"github.com/jblebrun/NTJsonStore/internal/sqlite"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const createDocsSQL = `CREATE TABLE docs (id TEXT PRIMARY KEY, body TEXT NOT NULL)`

func testLogger() logger.Logger {
	return logger.New(io.Discard, zerolog.DebugLevel)
}

func openMemory(t *testing.T, driver string) *sqlite.Conn {
	t.Helper()

	cfg := sqlite.DefaultConfig()
	cfg.Path = sqlite.MemoryPath
	cfg.Driver = driver

	conn, err := sqlite.Open(context.Background(), cfg, testLogger())
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	return conn
}

func TestDuplicateInsertReportsConstraint(t *testing.T) {
	for _, driver := range []string{sqlite.DriverMattn, sqlite.DriverModernc} {
		t.Run(driver, func(t *testing.T) {
			ctx := context.Background()
			conn := openMemory(t, driver)

			_, err := conn.Exec(ctx, createDocsSQL)
			require.NoError(t, err)
			_, err = conn.Exec(ctx, `INSERT INTO docs (id, body) VALUES (?, ?)`, "id-42", `{"a":1}`)
			require.NoError(t, err)
			assert.Equal(t, 0, conn.ResultCode())
			assert.Equal(t, "not an error", conn.ResultMessage())

			_, err = conn.Exec(ctx, `INSERT INTO docs (id, body) VALUES (?, ?)`, "id-42", `{"a":2}`)
			require.Error(t, err)

			assert.Equal(t, 19, conn.ResultCode())
			assert.Equal(t, "UNIQUE constraint failed: docs.id", conn.ResultMessage())

			var storeErr errors.Error
			require.True(t, errors.As(err, &storeErr))
			assert.Equal(t, errors.ErrStorageEngineFailure, storeErr.Code())
			assert.Equal(t, conn.ResultMessage(), storeErr.Message())

			underlying, ok := storeErr.UnderlyingCode()
			require.True(t, ok)
			assert.Equal(t, 19, underlying)

			assert.Equal(t, err, errors.New().FromDriver(conn))
		})
	}
}

func TestSyntaxError(t *testing.T) {
	for _, driver := range []string{sqlite.DriverMattn, sqlite.DriverModernc} {
		t.Run(driver, func(t *testing.T) {
			conn := openMemory(t, driver)

			_, err := conn.Exec(context.Background(), "SELEC 1")
			require.Error(t, err)

			assert.True(t, errors.HasCode(err, errors.ErrStorageEngineFailure))
			assert.Equal(t, 1, conn.ResultCode())
			assert.Equal(t, `near "SELEC": syntax error`, conn.ResultMessage())
		})
	}
}

// After a successful call the handle reports no error, yet FromDriver still
// builds a storage engine failure from it.
func TestFromDriverAfterSuccess(t *testing.T) {
	conn := openMemory(t, sqlite.DriverMattn)

	_, err := conn.Exec(context.Background(), "SELECT 1")
	require.NoError(t, err)

	storeErr := errors.New().FromDriver(conn)
	assert.Equal(t, errors.ErrStorageEngineFailure, storeErr.Code())
	assert.Equal(t, "not an error", storeErr.Message())
	underlying, ok := storeErr.UnderlyingCode()
	require.True(t, ok)
	assert.Equal(t, 0, underlying)
}

func TestQueryRow(t *testing.T) {
	ctx := context.Background()
	conn := openMemory(t, sqlite.DriverModernc)

	_, err := conn.Exec(ctx, createDocsSQL)
	require.NoError(t, err)
	_, err = conn.Exec(ctx, `INSERT INTO docs (id, body) VALUES ('a', '{"n":1}')`)
	require.NoError(t, err)

	var body string
	require.NoError(t, conn.QueryRow(ctx, `SELECT body FROM docs WHERE id = ?`, "a").Scan(&body))
	assert.Equal(t, `{"n":1}`, body)

	err = conn.QueryRow(ctx, `SELECT body FROM docs WHERE id = ?`, "missing").Scan(&body)
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrInvalidSQLResult))
	assert.Equal(t, 0, conn.ResultCode())

	err = conn.QueryRow(ctx, `SELECT nope FROM docs`).Scan(&body)
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrStorageEngineFailure))
	assert.Equal(t, 1, conn.ResultCode())
}

func waitDone(t *testing.T, done <-chan error) error {
	t.Helper()

	select {
	case err := <-done:
		return err
	case <-time.After(5 * time.Second):
		require.FailNow(t, "operation did not finish")
		return nil
	}
}

func TestQueryRowWithConcurrentExec(t *testing.T) {
	ctx := context.Background()
	conn := openMemory(t, sqlite.DriverMattn)

	_, err := conn.Exec(ctx, createDocsSQL)
	require.NoError(t, err)

	row := conn.QueryRow(ctx, `SELECT COUNT(*) FROM docs`)

	inserted := make(chan error, 1)
	go func() {
		_, err := conn.Exec(ctx, `INSERT INTO docs (id, body) VALUES ('a', '{}')`)
		inserted <- err
	}()

	scanned := make(chan error, 1)
	var n int
	go func() {
		scanned <- row.Scan(&n)
	}()

	require.NoError(t, waitDone(t, inserted))
	require.NoError(t, waitDone(t, scanned))
	assert.Contains(t, []int{0, 1}, n)
}

func TestCloseWithUnscannedRow(t *testing.T) {
	ctx := context.Background()
	conn := openMemory(t, sqlite.DriverMattn)

	row := conn.QueryRow(ctx, "SELECT 1")

	closed := make(chan error, 1)
	go func() {
		closed <- conn.Close()
	}()
	require.NoError(t, waitDone(t, closed))

	var n int
	err := row.Scan(&n)
	assert.True(t, errors.HasCode(err, errors.ErrStoreNotOpen))
}

func TestOpenCreatesDirectory(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "store.db")

	cfg := sqlite.DefaultConfig()
	cfg.Path = path

	conn, err := sqlite.Open(ctx, cfg, testLogger())
	require.NoError(t, err)

	_, err = os.Stat(path)
	require.NoError(t, err)

	exists, err := conn.TableExists(ctx, "docs")
	require.NoError(t, err)
	assert.False(t, exists)

	_, err = conn.Exec(ctx, createDocsSQL)
	require.NoError(t, err)

	exists, err = conn.TableExists(ctx, "docs")
	require.NoError(t, err)
	assert.True(t, exists)

	require.NoError(t, conn.Close())
}

func TestOpenInvalidConfig(t *testing.T) {
	tests := []struct {
		name string
		cfg  sqlite.Config
		msg  string
	}{
		{"empty path", sqlite.Config{Driver: sqlite.DriverMattn}, "database path is empty"},
		{"unknown driver", sqlite.Config{Path: "x.db", Driver: "postgres"}, `unsupported sqlite driver "postgres"`},
		{"negative timeout", sqlite.Config{Path: "x.db", Driver: sqlite.DriverMattn, BusyTimeout: -1}, "busy timeout must not be negative, got -1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := sqlite.Open(context.Background(), tt.cfg, testLogger())
			require.Error(t, err)

			var storeErr errors.Error
			require.True(t, errors.As(err, &storeErr))
			assert.Equal(t, errors.ErrInvalidConfig, storeErr.Code())
			assert.Equal(t, tt.msg, storeErr.Message())
		})
	}
}

func TestClosedConn(t *testing.T) {
	ctx := context.Background()
	conn := openMemory(t, sqlite.DriverMattn)

	require.NoError(t, conn.Close())
	require.NoError(t, conn.Close())

	_, err := conn.Exec(ctx, "SELECT 1")
	assert.True(t, errors.HasCode(err, errors.ErrStoreNotOpen))

	var n int
	err = conn.QueryRow(ctx, "SELECT 1").Scan(&n)
	assert.True(t, errors.HasCode(err, errors.ErrStoreNotOpen))
}

func TestNonSQLiteDriverError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	conn := sqlite.NewConn(db, testLogger())

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO docs")).
		WillReturnError(fmt.Errorf("connection reset by peer"))

	_, err = conn.Exec(context.Background(), "INSERT INTO docs (id, body) VALUES (?, ?)", "a", "{}")
	require.Error(t, err)

	assert.Equal(t, 1, conn.ResultCode())
	assert.Equal(t, "connection reset by peer", conn.ResultMessage())
	assert.True(t, errors.HasCode(err, errors.ErrStorageEngineFailure))

	mock.ExpectExec(regexp.QuoteMeta("PRAGMA wal_checkpoint(TRUNCATE)")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectClose()

	require.NoError(t, conn.Close())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCloseCombinesFailures(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	conn := sqlite.NewConn(db, testLogger())

	mock.ExpectExec(regexp.QuoteMeta("PRAGMA wal_checkpoint(TRUNCATE)")).
		WillReturnError(fmt.Errorf("database is locked"))
	mock.ExpectClose().WillReturnError(fmt.Errorf("close refused"))

	err = conn.Close()
	require.Error(t, err)

	assert.True(t, errors.HasCode(err, errors.ErrStoreClosing))
	assert.Contains(t, err.Error(), "checkpoint wal: database is locked")
	assert.Contains(t, err.Error(), "close database: close refused")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStatusOf(t *testing.T) {
	st := sqlite.StatusOf(nil)
	assert.Equal(t, 0, st.ResultCode())
	assert.Equal(t, "not an error", st.ResultMessage())

	st = sqlite.StatusOf(fmt.Errorf("boom"))
	assert.Equal(t, 1, st.ResultCode())
	assert.Equal(t, "boom", st.ResultMessage())
}
