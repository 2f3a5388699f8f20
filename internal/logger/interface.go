package logger

import (
	"io"

	"github.com/jblebrun/NTJsonStore/internal/errors"
	"github.com/rs/zerolog"
)

// Logger defines the interface for logging operations.
type Logger interface {
	Debug() *LogEvent
	Info() *LogEvent
	Warn() *LogEvent
	Error() *LogEvent
	ErrorWithCode(err errors.Error) *LogEvent
}

type packageLogger struct{}

// Default returns a Logger that writes through the package logger,
// following any later Init call.
func Default() Logger {
	return packageLogger{}
}

func (packageLogger) Debug() *LogEvent                         { return Debug() }
func (packageLogger) Info() *LogEvent                          { return Info() }
func (packageLogger) Warn() *LogEvent                          { return Warn() }
func (packageLogger) Error() *LogEvent                         { return Error() }
func (packageLogger) ErrorWithCode(err errors.Error) *LogEvent { return ErrorWithCode(err) }

type writerLogger struct {
	log zerolog.Logger
}

// New returns a Logger writing JSON records to w at the given minimum level.
func New(w io.Writer, level zerolog.Level) Logger {
	return &writerLogger{log: zerolog.New(w).Level(level).With().Timestamp().Logger()}
}

func (l *writerLogger) Debug() *LogEvent { return &LogEvent{l.log.Debug()} }
func (l *writerLogger) Info() *LogEvent  { return &LogEvent{l.log.Info()} }
func (l *writerLogger) Warn() *LogEvent  { return &LogEvent{l.log.Warn()} }
func (l *writerLogger) Error() *LogEvent { return &LogEvent{l.log.Error()} }

func (l *writerLogger) ErrorWithCode(err errors.Error) *LogEvent {
	return withCode(l.log.Error(), err)
}
