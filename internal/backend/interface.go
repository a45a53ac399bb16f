package backend

import (
	"context"
	"time"

	"kaslot/internal/store"
)

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// BackendResult contains the backend instance and optional cleanup function
type BackendResult struct {
	Backend store.Backend
	Cleanup CleanupFunc
}

// Factory creates backends based on configuration
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config holds configuration for backend creation
type Config struct {
	Type BackendType

	// Remote REST backend
	APIBaseURL string
	APITimeout time.Duration

	// SQLite specific
	SQLiteDBPath string
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Memory backend specific. An empty file starts an empty store.
	MemorySeedFile string
}

// BackendType represents the type of backend
type BackendType string

const (
	APIBackend    BackendType = "api"
	SQLiteBackend BackendType = "sqlite"
	MemoryBackend BackendType = "memory"
)

func (bt BackendType) String() string {
	return string(bt)
}

func (bt BackendType) IsValid() bool {
	switch bt {
	case APIBackend, SQLiteBackend, MemoryBackend:
		return true
	default:
		return false
	}
}
