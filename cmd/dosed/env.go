package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/sandeepkv93/dosed/internal/config"
	"github.com/sandeepkv93/dosed/internal/service"
	"github.com/sandeepkv93/dosed/internal/storage"
)

// appEnv bundles what every subcommand needs. close releases the database
// and the log file.
type appEnv struct {
	cfg    *config.Config
	svc    *service.Service
	logger *slog.Logger
	close  func()
}

type logTarget int

const (
	logToStderr logTarget = iota
	logToFile
)

func openEnv(target logTarget) (*appEnv, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	logger, logCloser, err := newLogger(cfg, target)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
		_ = logCloser.Close()
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	repo, err := storage.OpenSQLite(cfg.DBPath)
	if err != nil {
		_ = logCloser.Close()
		return nil, err
	}
	logger.Debug("database opened", "path", cfg.DBPath)

	svc := service.New(repo,
		service.WithPolicy(cfg.Policy()),
		service.WithLogger(logger),
	)
	return &appEnv{
		cfg:    cfg,
		svc:    svc,
		logger: logger,
		close: func() {
			if err := repo.Close(); err != nil {
				logger.Warn("close database", "err", err)
			}
			_ = logCloser.Close()
		},
	}, nil
}

// newLogger writes JSON logs to stderr for one-shot commands and to
// log.file when the terminal belongs to the TUI.
func newLogger(cfg *config.Config, target logTarget) (*slog.Logger, io.Closer, error) {
	var (
		w      io.Writer = os.Stderr
		closer io.Closer = nopCloser{}
	)
	if target == logToFile && cfg.Log.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.Log.File), 0o755); err != nil {
			return nil, nil, fmt.Errorf("create log dir: %w", err)
		}
		f, err := os.OpenFile(cfg.Log.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		w, closer = f, f
	}
	logger := slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: cfg.ParseLogLevel(),
	}))
	return logger, closer, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
