package backend

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"kaslot/internal/config"
	"kaslot/internal/store"
)

func TestFromAppConfig(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *config.Config
		want    BackendType
		wantErr bool
	}{
		{"nil config", nil, "", true},
		{"api", &config.Config{DataBackend: "api", APIBaseURL: "http://localhost:5000/api", APITimeout: 7 * time.Second}, APIBackend, false},
		{"sqlite", &config.Config{DataBackend: "sqlite", SQLiteDBPath: "./data/kaslot.db"}, SQLiteBackend, false},
		{"memory", &config.Config{DataBackend: "memory"}, MemoryBackend, false},
		{"unknown", &config.Config{DataBackend: "sheets"}, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FromAppConfig(tt.cfg)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.Type != tt.want {
				t.Errorf("type = %s, want %s", got.Type, tt.want)
			}
			if err := got.Validate(); err != nil {
				t.Errorf("validate: %v", err)
			}
		})
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"api without url", Config{Type: APIBackend, APITimeout: time.Second}},
		{"api without timeout", Config{Type: APIBackend, APIBaseURL: "http://x"}},
		{"sqlite without path", Config{Type: SQLiteBackend}},
		{"invalid type", Config{Type: "nope"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.cfg.Validate(); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestCreateBackend(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	seed := filepath.Join(dir, "seed.json")
	if err := os.WriteFile(seed, []byte(`{"suppliers":[{"_id":"s1","name":"Dana","role":"Drums"}]}`), 0o600); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name          string
		cfg           Config
		wantSuppliers int
	}{
		{"memory with seed", Config{Type: MemoryBackend, MemorySeedFile: seed}, 1},
		{"memory without seed", Config{Type: MemoryBackend, MemorySeedFile: filepath.Join(dir, "missing.json")}, 0},
		{"sqlite", Config{Type: SQLiteBackend, SQLiteDBPath: filepath.Join(dir, "db", "kaslot.db")}, 0},
	}
	f := NewFactory(nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := f.CreateBackend(ctx, tt.cfg)
			if err != nil {
				t.Fatalf("create backend: %v", err)
			}
			if res.Cleanup != nil {
				defer res.Cleanup()
			}
			list, err := res.Backend.ListSuppliers(ctx)
			if err != nil {
				t.Fatalf("list suppliers: %v", err)
			}
			if len(list) != tt.wantSuppliers {
				t.Errorf("suppliers = %d, want %d", len(list), tt.wantSuppliers)
			}
			if _, ok := res.Backend.(store.Pinger); !ok {
				t.Errorf("backend should report readiness")
			}
		})
	}

	t.Run("api backend builds a client", func(t *testing.T) {
		res, err := f.CreateBackend(ctx, Config{Type: APIBackend, APIBaseURL: "http://localhost:5000/api", APITimeout: time.Second})
		if err != nil || res.Backend == nil {
			t.Fatalf("create api backend: %v", err)
		}
	})
}
