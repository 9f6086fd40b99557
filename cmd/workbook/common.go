package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"

	"github.com/opencs408/workbook/internal/config"
	"github.com/opencs408/workbook/internal/fileutil"
	"github.com/opencs408/workbook/internal/hints"
	"github.com/opencs408/workbook/internal/store"
)

// loadConfig reads the config file, then applies the environment. Flags
// are merged by the caller.
func loadConfig(path string, env *Environment) (*config.Config, error) {
	cfg, _, err := config.Load(path)
	if err != nil {
		if errors.Is(err, config.ErrConfigNotFound) {
			return nil, withHint(err, hints.ForConfigNotFound(config.SearchPaths()))
		}
		return nil, err
	}
	cfg.ApplyEnv(env.Getenv)
	return cfg, nil
}

// session is the state shared by the commands touching the database.
type session struct {
	cfg    *config.Config
	logger *zap.Logger
	store  *store.Store
	closer io.Closer
}

// openSession loads the config, merges flags through apply, builds the
// logger and opens the store. mustExist refuses to create a new database.
func openSession(c *commonFlags, apply func(*config.Config), mustExist bool, env *Environment) (*session, error) {
	cfg, err := loadConfig(c.config, env)
	if err != nil {
		return nil, err
	}
	apply(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger, closer, err := env.NewLogger(cfg)
	if err != nil {
		return nil, fmt.Errorf("preparing logger: %w", err)
	}

	if mustExist && !fileutil.FileExists(cfg.Database.Path) {
		_ = closer.Close()
		return nil, withHint(fmt.Errorf("%w: %s", ErrDatabaseNotFound, cfg.Database.Path), hints.ForDatabase(cfg.Database.Path))
	}
	st, err := store.Open(cfg.Database.Path, store.WithLogger(logger), store.WithClock(env.Now))
	if err != nil {
		_ = closer.Close()
		return nil, withHint(err, hints.ForDatabase(cfg.Database.Path))
	}
	return &session{cfg: cfg, logger: logger, store: st, closer: closer}, nil
}

func (s *session) Close() {
	_ = s.store.Close()
	_ = s.logger.Sync()
	_ = s.closer.Close()
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
