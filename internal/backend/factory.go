package backend

import (
	"context"
	"fmt"
	"log/slog"

	"kaslot/internal/adapters"
	"kaslot/internal/amqp"
	"kaslot/internal/services"
	"kaslot/internal/storage"
	"kaslot/internal/store/memory"
	"kaslot/internal/store/rest"
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
	return &DefaultFactory{
		logger: logger,
	}
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	switch config.Type {
	case APIBackend:
		return f.createAPIBackend(config)
	case SQLiteBackend:
		return f.createSQLiteBackend(ctx, config)
	case MemoryBackend:
		return f.createMemoryBackend(config)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

func (f *DefaultFactory) createAPIBackend(config Config) (*BackendResult, error) {
	client, err := rest.New(config.APIBaseURL, config.APITimeout)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize REST client: %w", err)
	}

	f.logger.Info("Initialized REST backend",
		"base_url", config.APIBaseURL,
		"timeout", config.APITimeout)

	return &BackendResult{Backend: client}, nil
}

func (f *DefaultFactory) createSQLiteBackend(ctx context.Context, config Config) (*BackendResult, error) {
	sqliteRepo, err := storage.NewSQLiteRepository(config.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
	}

	// AMQP is optional; without it changes are only stored locally.
	var publisher services.Publisher
	if config.AMQPURL != "" {
		client, err := amqp.NewClient(config.AMQPURL, config.AMQPExchange, config.AMQPQueue)
		if err != nil {
			f.logger.WarnContext(ctx, "Failed to initialize AMQP client, continuing without change notifications", "error", err)
		} else {
			publisher = client
			f.logger.InfoContext(ctx, "Initialized AMQP client",
				"exchange", config.AMQPExchange,
				"queue", config.AMQPQueue)
		}
	}

	ledger := services.NewLedgerService(sqliteRepo, publisher)
	adapter := adapters.NewSQLiteAdapter(sqliteRepo, ledger)

	f.logger.InfoContext(ctx, "Initialized SQLite backend",
		"db_path", config.SQLiteDBPath,
		"amqp_enabled", publisher != nil)

	return &BackendResult{
		Backend: adapter,
		Cleanup: ledger.Close,
	}, nil
}

func (f *DefaultFactory) createMemoryBackend(config Config) (*BackendResult, error) {
	st, err := memory.NewFromFile(config.MemorySeedFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load memory seed: %w", err)
	}

	f.logger.Info("Initialized memory backend", "seed_file", config.MemorySeedFile)

	return &BackendResult{Backend: st}, nil
}
