package storage

import (
	"context"
	"fmt"
	"strings"
)

type Backend string

const (
	BackendSQLite Backend = "sqlite"
	BackendRedis  Backend = "redis"
	BackendMemory Backend = "memory"
)

func (b Backend) IsValid() bool {
	switch b {
	case BackendSQLite, BackendRedis, BackendMemory:
		return true
	default:
		return false
	}
}

type Options struct {
	Backend     Backend
	SQLitePath  string
	RedisURL    string
	RedisPrefix string
}

func Open(ctx context.Context, opts Options) (KV, error) {
	switch opts.Backend {
	case BackendSQLite, "":
		if strings.TrimSpace(opts.SQLitePath) == "" {
			return nil, fmt.Errorf("%w: sqlite path is empty", ErrUnavailable)
		}
		return OpenSQLite(opts.SQLitePath)
	case BackendRedis:
		return OpenRedis(ctx, opts.RedisURL, opts.RedisPrefix)
	case BackendMemory:
		return NewMemoryKV(), nil
	default:
		return nil, fmt.Errorf("storage: unknown backend %q", opts.Backend)
	}
}
