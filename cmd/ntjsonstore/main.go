package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/jblebrun/NTJsonStore/internal/config"
	"github.com/jblebrun/NTJsonStore/internal/errors"
	"github.com/jblebrun/NTJsonStore/internal/logger"
	"github.com/jblebrun/NTJsonStore/internal/sqlite"
	"github.com/spf13/pflag"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	cfg, err := config.Load(args)
	if err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return 0
		}
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		return 1
	}

	if err := logger.Init(logger.Options{
		Level:     cfg.LogLevel,
		File:      cfg.LogFile,
		IsService: logger.IsService(),
	}); err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		return 1
	}
	defer logger.Close()
	logger.Debug().Msg("Config loaded")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go handleSignals(ctx, cancel)

	conn, err := sqlite.Open(ctx, cfg.SQLite(), logger.Default())
	if err != nil {
		logError(err, "failed to open store")
		return 1
	}
	defer func() {
		if err := conn.Close(); err != nil {
			logError(err, "failed to close store")
		}
	}()

	if err := execAll(ctx, conn, cfg.Exec); err != nil {
		return 1
	}

	return 0
}

func execAll(ctx context.Context, conn *sqlite.Conn, statements []string) error {
	for i, stmt := range statements {
		select {
		case <-ctx.Done():
			logger.Warn().Int("statement", i+1).Msg("Interrupted before statement")
			return ctx.Err()
		default:
		}

		res, err := conn.Exec(ctx, stmt)
		if err != nil {
			var storeErr errors.Error
			if errors.As(err, &storeErr) {
				logger.ErrorWithCode(storeErr).
					Int("statement", i+1).
					Str("sql", stmt).
					Msg("Statement failed")
			}
			return err
		}

		rows, err := res.RowsAffected()
		if err != nil {
			rows = -1
		}
		logger.Info().
			Int("statement", i+1).
			Int64("rows_affected", rows).
			Msg("Statement executed")
	}

	return nil
}

func handleSignals(ctx context.Context, cancel context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigs)

	select {
	case <-sigs:
		logger.Info().Msg("Received termination signal.")
		cancel()
	case <-ctx.Done():
	}
}

func logError(err error, msg string) {
	var storeErr errors.Error
	if errors.As(err, &storeErr) {
		logger.ErrorWithCode(storeErr).Msg(msg)
		return
	}

	logger.Error().Err(err).Msg(msg)
}
