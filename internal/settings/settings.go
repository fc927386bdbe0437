// Package settings is the key-value blob store the moderation engine persists
// its permission table and block list through.
package settings

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"voiceguard/internal/config"
	"voiceguard/internal/storage"
)

const (
	KeyModerators = "moderator_user_config"
	KeyBlocked    = "blocked_user_ids"
)

const opTimeout = 5 * time.Second

// Store is a string KV. GetString reports a missing key as ok == false with
// a nil error; err is set only when the backend could not be read.
type Store interface {
	GetString(key string) (value string, ok bool, err error)
	SetString(key, value string) error
}

type Memory struct {
	mu     sync.RWMutex
	values map[string]string
}

func NewMemory() *Memory {
	return &Memory{values: make(map[string]string)}
}

func (m *Memory) GetString(key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	value, ok := m.values[key]
	return value, ok, nil
}

func (m *Memory) SetString(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

// SQL stores settings in the SQLite settings table.
type SQL struct {
	store *storage.Store
}

func NewSQL(store *storage.Store) *SQL {
	return &SQL{store: store}
}

func (s *SQL) GetString(key string) (string, bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()
	return s.store.GetSetting(ctx, key)
}

func (s *SQL) SetString(key, value string) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()
	return s.store.SetSetting(ctx, key, value)
}

// Open builds the backend selected in cfg. The returned close function is
// never nil.
func Open(ctx context.Context, cfg config.SettingsConfig, store *storage.Store) (Store, func(), error) {
	noop := func() {}
	switch cfg.Backend {
	case "memory":
		return NewMemory(), noop, nil
	case "buntdb":
		bunt, err := OpenBunt(cfg.BuntDBPath)
		if err != nil {
			return nil, noop, fmt.Errorf("open buntdb settings: %w", err)
		}
		return bunt, func() { _ = bunt.Close() }, nil
	case "postgres":
		pg, err := OpenPostgres(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, noop, fmt.Errorf("open postgres settings: %w", err)
		}
		return pg, pg.Close, nil
	default:
		if store == nil {
			return nil, noop, errors.New("sqlite settings backend needs a storage handle")
		}
		return NewSQL(store), noop, nil
	}
}
