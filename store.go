package backupq

import (
	"context"

	"github.com/UniQw/backupq/internal/kv"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

// Store is the key-value backend the queue and status are saved into.
// Save overwrites the whole value; Load returns ErrNotFound for unknown keys.
type Store interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, value []byte) error
}

// NewRedisStore persists into Redis string keys. The caller owns rdb.
func NewRedisStore(rdb redis.UniversalClient) Store {
	return kv.NewRedis(rdb)
}

// NewFileStore persists one file per key under dir.
func NewFileStore(dir string) (Store, error) {
	return kv.NewFile(dir)
}

// NewPostgresStore persists into the backupq_kv table, creating it if needed.
func NewPostgresStore(ctx context.Context, pool *pgxpool.Pool) (Store, error) {
	return kv.NewPostgres(ctx, pool)
}

// NewMemoryStore keeps values in process memory only.
func NewMemoryStore() Store {
	return kv.NewMemory()
}
