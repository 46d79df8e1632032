package repositories

import (
	"context"
	"crypto/sha1"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"

	intconfig "fleetledger/internal/config"
	"fleetledger/internal/domain"
)

// NamedLock serializes work across processes with MySQL GET_LOCK. The lock
// lives on one pinned connection and is released on that same connection.
type NamedLock struct {
	DB             *sql.DB
	TimeoutSeconds int
}

func (l NamedLock) db() *sql.DB {
	if l.DB != nil {
		return l.DB
	}
	return intconfig.DB
}

// Acquire blocks up to TimeoutSeconds for key. The returned func releases it.
func (l NamedLock) Acquire(ctx context.Context, key string) (func(), error) {
	if key == "" {
		return nil, errors.New("named lock: empty key")
	}
	db := l.db()
	if db == nil {
		return nil, errors.New("named lock: db not connected")
	}
	timeout := l.TimeoutSeconds
	if timeout <= 0 {
		timeout = 5
	}

	key = lockName(key)

	conn, err := db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("named lock: %w", err)
	}
	var got sql.NullInt64
	if err := conn.QueryRowContext(ctx, `SELECT GET_LOCK(?, ?)`, key, timeout).Scan(&got); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("named lock: %w", err)
	}
	if !got.Valid || got.Int64 != 1 {
		_ = conn.Close()
		return nil, domain.ConflictError{Resource: "import", Msg: "another import for this scope is running"}
	}

	return func() {
		_, _ = conn.ExecContext(context.Background(), `SELECT RELEASE_LOCK(?)`, key)
		_ = conn.Close()
	}, nil
}

// MySQL caps lock names at 64 characters.
const maxLockName = 64

func lockName(key string) string {
	if len(key) <= maxLockName {
		return key
	}
	sum := sha1.Sum([]byte(key))
	return "scope:" + hex.EncodeToString(sum[:])
}
