package sqlite

import "github.com/jblebrun/NTJsonStore/internal/errors"

const (
	// DriverMattn is the cgo driver registered by github.com/mattn/go-sqlite3
	DriverMattn = "sqlite3"
	// DriverModernc is the pure Go driver registered by modernc.org/sqlite
	DriverModernc = "sqlite"

	// MemoryPath opens a private in-memory database
	MemoryPath = ":memory:"

	defaultDirPerm     = 0o755
	defaultDBPath      = "ntjsonstore.db"
	defaultBusyTimeout = 5000 // ms
)

type Config struct {
	Path        string
	Driver      string
	BusyTimeout int
}

func DefaultConfig() Config {
	return Config{
		Path:        defaultDBPath,
		Driver:      DriverMattn,
		BusyTimeout: defaultBusyTimeout,
	}
}

func (c Config) Validate() error {
	errFactory := errors.New()

	if c.Path == "" {
		return errFactory.WithMessage(ErrInvalidConfig, "database path is empty")
	}

	switch c.Driver {
	case DriverMattn, DriverModernc:
	default:
		return errFactory.Newf(ErrInvalidConfig, "unsupported sqlite driver %q", c.Driver)
	}

	if c.BusyTimeout < 0 {
		return errFactory.Newf(ErrInvalidConfig, "busy timeout must not be negative, got %d", c.BusyTimeout)
	}

	return nil
}
