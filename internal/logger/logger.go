package logger

import (
	"io"
	"os"
	"syscall"
	"time"

	"github.com/jblebrun/NTJsonStore/internal/errors"
	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	log     = zerolog.New(os.Stdout).With().Timestamp().Logger()
	rotator *lumberjack.Logger
)

const (
	defaultMaxSize    = 10 // MB
	defaultMaxBackups = 3
	defaultMaxAge     = 28 // days
)

type LogEvent struct {
	*zerolog.Event
}

func (e *LogEvent) Msg(msg string) {
	e.Event.Msg(msg)
}

func (e *LogEvent) Send() {
	e.Event.Send()
}

// Options configures the package logger
type Options struct {
	Level     string
	File      string
	IsService bool
}

// Init initializes the package logger. Console output always goes to
// stdout; when File is set, JSON records are also written to a rotating file.
func Init(opts Options) error {
	level := zerolog.WarnLevel
	if opts.Level != "" {
		parsed, err := zerolog.ParseLevel(opts.Level)
		if err != nil {
			return errors.New().Newf(errors.ErrInvalidConfig, "invalid log level %q", opts.Level)
		}
		level = parsed
	}

	output := zerolog.ConsoleWriter{
		Out:        os.Stdout,
		TimeFormat: time.RFC3339,
	}

	if opts.IsService {
		output.TimeFormat = ""
		output.FormatTimestamp = func(_ interface{}) string {
			return ""
		}
	}

	var w io.Writer = output
	if opts.File != "" {
		rotator = &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    defaultMaxSize,
			MaxBackups: defaultMaxBackups,
			MaxAge:     defaultMaxAge,
			Compress:   true,
		}
		w = zerolog.MultiLevelWriter(output, rotator)
	}

	log = zerolog.New(w).Level(level).With().Timestamp().Logger()

	return nil
}

// Close flushes and closes the log file, if any
func Close() error {
	if rotator == nil {
		return nil
	}
	err := rotator.Close()
	rotator = nil

	return err
}

// IsService checks if the application is running as a service
func IsService() bool {
	if _, err := os.Stdin.Stat(); err != nil {
		return true
	}
	if os.Getenv("SERVICE_NAME") != "" || os.Getenv("INVOCATION_ID") != "" {
		return true
	}
	if os.Getppid() == 1 {
		return true
	}

	return syscall.Getpgrp() == syscall.Getpid()
}

// Debug logs a debug message
func Debug() *LogEvent {
	return &LogEvent{log.Debug()}
}

// Info logs an info message
func Info() *LogEvent {
	return &LogEvent{log.Info()}
}

// Warn logs a warning message
func Warn() *LogEvent {
	return &LogEvent{log.Warn()}
}

// Error logs an error message
func Error() *LogEvent {
	return &LogEvent{log.Error()}
}

// ErrorWithCode logs a store error with its code and driver status
func ErrorWithCode(err errors.Error) *LogEvent {
	return withCode(log.Error(), err)
}

// Fatal logs a fatal message and exits the program
func Fatal() *LogEvent {
	return &LogEvent{log.Fatal()}
}

// FatalWithCode logs a fatal store error and exits the program
func FatalWithCode(err errors.Error) *LogEvent {
	return withCode(log.Fatal(), err)
}

func withCode(e *zerolog.Event, err errors.Error) *LogEvent {
	e = e.Str("domain", err.Domain()).
		Str("error_code", err.Code().String()).
		Int("error_code_value", int(err.Code())).
		Str("error_message", err.Message()).
		AnErr("cause", err.Unwrap())

	if code, ok := err.UnderlyingCode(); ok {
		e = e.Int("underlying_code", code)
	}

	return &LogEvent{e}
}
