package backend

import (
	"context"
	"fmt"
	"log/slog"

	"workcal/internal/storage"
	"workcal/internal/storage/memory"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *slog.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{logger: logger}
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	var (
		b   Backend
		err error
	)
	switch config.Type {
	case SQLiteBackend:
		b, err = f.createSQLiteBackend(config)
	case MemoryBackend:
		b, err = f.createMemoryBackend(config)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
	if err != nil {
		return nil, err
	}

	if err := b.Ping(ctx); err != nil {
		_ = b.Close()
		return nil, fmt.Errorf("%s backend not ready: %w", config.Type, err)
	}
	return &BackendResult{Backend: b, Cleanup: b.Close}, nil
}

func (f *DefaultFactory) createSQLiteBackend(config Config) (Backend, error) {
	repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
	}
	f.logger.Info("Initialized SQLite backend", "db_path", config.SQLiteDBPath)
	return repo, nil
}

func (f *DefaultFactory) createMemoryBackend(config Config) (Backend, error) {
	if config.SeedFile == "" {
		f.logger.Info("Initialized memory backend")
		return memory.New(), nil
	}
	st, err := memory.NewFromFile(config.SeedFile)
	if err != nil {
		return nil, fmt.Errorf("failed to seed memory backend: %w", err)
	}
	f.logger.Info("Initialized memory backend", "seed_file", config.SeedFile)
	return st, nil
}
