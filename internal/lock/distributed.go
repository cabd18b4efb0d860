// Package lock provides a Redis-backed distributed lock used to serialize
// governance edits to the same decision across replicas, and to guarantee a
// single active orchestrator leader falls back correctly if leader election
// itself is unavailable (standalone/lite deployments).
package lock

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrNotHeld is returned by Release/Extend when the lock was never acquired
// or has already expired.
var ErrNotHeld = errors.New("lock: not held")

// ErrAlreadyLocked is returned by Acquire when another holder owns the key.
var ErrAlreadyLocked = errors.New("lock: already held by another holder")

const releaseScript = `
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
else
	return 0
end
`

const extendScript = `
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("expire", KEYS[1], ARGV[2])
else
	return 0
end
`

// Config controls how a DecisionLock behaves.
type Config struct {
	TTL            time.Duration
	MaxRetries     int
	RetryInterval  time.Duration
	AcquireTimeout time.Duration
}

func (c Config) withDefaults() Config {
	if c.TTL <= 0 {
		c.TTL = 30 * time.Second
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = 3
	}
	if c.RetryInterval <= 0 {
		c.RetryInterval = 100 * time.Millisecond
	}
	if c.AcquireTimeout <= 0 {
		c.AcquireTimeout = 5 * time.Second
	}
	return c
}

// Manager hands out per-decision distributed locks backed by a Redis
// client. One Manager is shared across the process; each call to Lock
// produces an independent holder value, so concurrent callers never mistake
// each other's locks for their own.
type Manager struct {
	client *redis.Client
	cfg    Config
	logger *slog.Logger
}

// NewManager builds a lock Manager over an existing Redis client.
func NewManager(client *redis.Client, cfg Config, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{client: client, cfg: cfg.withDefaults(), logger: logger}
}

// DecisionLock is a held (or attempted) lock over one decision's governance
// edit path, keyed "org:decision" so the same decision ID in two
// organizations never collides.
type DecisionLock struct {
	mgr      *Manager
	key      string
	holder   string
	acquired bool
}

func decisionKey(orgID, decisionID string) string {
	return fmt.Sprintf("sentinel:lock:decision:%s:%s", orgID, decisionID)
}

// Lock attempts to acquire the edit lock for a decision, retrying up to
// cfg.MaxRetries times with a linear backoff. It returns ErrAlreadyLocked if
// every attempt finds the key held by someone else.
func (m *Manager) Lock(ctx context.Context, orgID, decisionID string) (*DecisionLock, error) {
	dl := &DecisionLock{mgr: m, key: decisionKey(orgID, decisionID), holder: generateHolder()}

	for attempt := 0; attempt <= m.cfg.MaxRetries; attempt++ {
		acquireCtx, cancel := context.WithTimeout(ctx, m.cfg.AcquireTimeout)
		ok, err := m.client.SetNX(acquireCtx, dl.key, dl.holder, m.cfg.TTL).Result()
		cancel()
		if err != nil {
			return nil, fmt.Errorf("lock: acquire %s: %w", dl.key, err)
		}
		if ok {
			dl.acquired = true
			m.logger.Debug("decision lock acquired", "key", dl.key, "attempt", attempt+1)
			return dl, nil
		}
		if attempt == m.cfg.MaxRetries {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(m.cfg.RetryInterval * time.Duration(attempt+1)):
		}
	}

	return nil, ErrAlreadyLocked
}

// Release drops the lock if this holder still owns it. Releasing a lock
// that expired or was never acquired is a no-op, not an error — the TTL is
// the authority, not the caller's bookkeeping.
func (l *DecisionLock) Release(ctx context.Context) error {
	if !l.acquired {
		return ErrNotHeld
	}
	releaseCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	res, err := l.mgr.client.Eval(releaseCtx, releaseScript, []string{l.key}, l.holder).Result()
	if err != nil {
		return fmt.Errorf("lock: release %s: %w", l.key, err)
	}
	l.acquired = false
	if n, ok := res.(int64); !ok || n != 1 {
		l.mgr.logger.Warn("decision lock release found no matching holder", "key", l.key)
	}
	return nil
}

// Extend pushes the lock's TTL out, used while a long governance workflow
// (e.g. waiting on a second reviewer) is still in flight.
func (l *DecisionLock) Extend(ctx context.Context, ttl time.Duration) error {
	if !l.acquired {
		return ErrNotHeld
	}
	extendCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	res, err := l.mgr.client.Eval(extendCtx, extendScript, []string{l.key}, l.holder, int(ttl.Seconds())).Result()
	if err != nil {
		return fmt.Errorf("lock: extend %s: %w", l.key, err)
	}
	if n, ok := res.(int64); !ok || n != 1 {
		return ErrNotHeld
	}
	return nil
}

func generateHolder() string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return fmt.Sprintf("holder_%d", time.Now().UnixNano())
	}
	return hex.EncodeToString(b)
}
