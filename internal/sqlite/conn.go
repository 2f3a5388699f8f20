package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/hashicorp/go-multierror"
	"github.com/jblebrun/NTJsonStore/internal/errors"
	"github.com/jblebrun/NTJsonStore/internal/logger"
)

// Conn is a single SQLite connection that remembers the result of the most
// recent operation, the way sqlite3_errcode and sqlite3_errmsg do for a
// native handle. It implements errors.DriverHandle.
type Conn struct {
	db     *sql.DB
	logger logger.Logger
	mu     sync.Mutex
	code   int
	msg    string
	closed bool
}

var _ errors.DriverHandle = (*Conn)(nil)

// Open opens the database described by cfg and applies the connection pragmas
func Open(ctx context.Context, cfg Config, log logger.Logger) (*Conn, error) {
	errFactory := errors.New()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if !isMemory(cfg.Path) {
		if err := os.MkdirAll(filepath.Dir(cfg.Path), defaultDirPerm); err != nil {
			return nil, errFactory.WithData(ErrNotOpen, struct {
				Phase string
				Path  string
				Error string
			}{
				Phase: "create_directory",
				Path:  cfg.Path,
				Error: err.Error(),
			})
		}
	}

	db, err := sql.Open(cfg.Driver, cfg.Path)
	if err != nil {
		return nil, errFactory.WithData(ErrNotOpen, struct {
			Phase string
			Error string
		}{
			Phase: "open_database",
			Error: err.Error(),
		})
	}

	// One native handle, so the recorded status always belongs to it
	db.SetMaxOpenConns(1)

	conn := NewConn(db, log)
	if err := conn.init(ctx, cfg); err != nil {
		db.Close()
		return nil, err
	}

	log.Info().
		Str("path", cfg.Path).
		Str("driver", cfg.Driver).
		Msg("Store database opened")

	return conn, nil
}

// NewConn wraps an already opened database
func NewConn(db *sql.DB, log logger.Logger) *Conn {
	return &Conn{
		db:     db,
		logger: log,
		code:   codeOK,
		msg:    noErrorMessage,
	}
}

func (c *Conn) init(ctx context.Context, cfg Config) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA foreign_keys = ON",
		fmt.Sprintf("PRAGMA busy_timeout = %d", cfg.BusyTimeout),
	}

	for _, pragma := range pragmas {
		if _, err := c.Exec(ctx, pragma); err != nil {
			c.logger.Debug().Err(err).Str("sql", pragma).Msg("Failed to apply pragma")
			return err
		}
	}

	return c.do(func() error {
		return c.db.PingContext(ctx)
	})
}

// ResultCode returns the primary result code of the last operation
func (c *Conn) ResultCode() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.code
}

// ResultMessage returns the driver message of the last operation
func (c *Conn) ResultMessage() string {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.msg
}

// Exec executes a statement. A driver failure is returned as an
// ErrStorageEngineFailure carrying the SQLite result code.
func (c *Conn) Exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	var res sql.Result

	err := c.do(func() error {
		var err error
		res, err = c.db.ExecContext(ctx, query, args...)
		return err
	})
	if err != nil {
		return nil, err
	}

	return res, nil
}

// Row is the result of QueryRow. The query runs when Scan is called.
type Row struct {
	conn  *Conn
	ctx   context.Context
	query string
	args  []any
}

// QueryRow prepares a query expected to return at most one row
func (c *Conn) QueryRow(ctx context.Context, query string, args ...any) *Row {
	return &Row{
		conn:  c,
		ctx:   ctx,
		query: query,
		args:  args,
	}
}

// Scan runs the query and copies the row into dest. An empty result is
// reported as ErrInvalidSQLResult and is not a driver failure.
func (r *Row) Scan(dest ...any) error {
	return r.conn.do(func() error {
		return r.conn.db.QueryRowContext(r.ctx, r.query, r.args...).Scan(dest...)
	})
}

// TableExists checks if a table exists
func (c *Conn) TableExists(ctx context.Context, tableName string) (bool, error) {
	var exists bool
	err := c.QueryRow(ctx, `
        SELECT EXISTS (
            SELECT 1 FROM sqlite_master
            WHERE type='table' AND name=?
        )
    `, tableName).Scan(&exists)
	if err != nil {
		return false, err
	}

	return exists, nil
}

// Close checkpoints the WAL and closes the database. Closing twice is a no-op.
func (c *Conn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true

	var result *multierror.Error

	if _, err := c.db.Exec("PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		result = multierror.Append(result, fmt.Errorf("checkpoint wal: %w", err))
	}

	if err := c.db.Close(); err != nil {
		result = multierror.Append(result, fmt.Errorf("close database: %w", err))
	}

	if err := result.ErrorOrNil(); err != nil {
		c.logger.Debug().Err(err).Msg("Failed to close store database")
		return errors.New().Wrap(ErrClosing, err)
	}

	c.logger.Info().Msg("Store database closed")

	return nil
}

// do runs fn while holding the connection lock and records its driver status.
// fn must acquire and release the pooled connection itself.
func (c *Conn) do(fn func() error) error {
	errFactory := errors.New()

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return errFactory.New(ErrNotOpen)
	}

	err := fn()
	if errors.Is(err, sql.ErrNoRows) {
		c.code, c.msg = codeOK, noErrorMessage
		c.mu.Unlock()
		return errFactory.Wrap(ErrNoResult, err)
	}

	st := statusOf(err)
	c.code, c.msg = st.code, st.msg
	c.mu.Unlock()

	if err != nil {
		return errFactory.FromDriver(st)
	}

	return nil
}

func isMemory(path string) bool {
	return path == MemoryPath || strings.Contains(path, "mode=memory")
}
