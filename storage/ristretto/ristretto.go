// Package ristretto adapts dgraph-io/ristretto to the storage.Storage
// interface. Like bigcache, it is a volatile backend; additionally its
// admission policy may reject writes under memory pressure, which the
// fire-and-forget write-back contract tolerates.
package ristretto

import (
	"context"
	"errors"

	rc "github.com/dgraph-io/ristretto"

	st "github.com/satoshi-watanabe-0001/accountsync/storage"
)

type Storage struct {
	c *rc.Cache
}

var _ st.Storage = (*Storage)(nil)

type Config struct {
	NumCounters int64
	MaxCost     int64
	BufferItems int64
	Metrics     bool
}

func New(cfg Config) (*Storage, error) {
	if cfg.NumCounters <= 0 || cfg.MaxCost <= 0 || cfg.BufferItems <= 0 {
		return nil, errors.New("ristretto: invalid config")
	}
	c, err := rc.NewCache(&rc.Config{
		NumCounters: cfg.NumCounters,
		MaxCost:     cfg.MaxCost,
		BufferItems: cfg.BufferItems,
		Metrics:     cfg.Metrics,
	})
	if err != nil {
		return nil, err
	}
	return &Storage{c: c}, nil
}

func (s *Storage) Load(_ context.Context, key string) ([]byte, bool, error) {
	v, ok := s.c.Get(key)
	if !ok {
		return nil, false, nil
	}
	b, _ := v.([]byte)
	if b == nil {
		// self-heal: drop unexpected entry shape
		s.c.Del(key)
		return nil, false, nil
	}
	return b, true, nil
}

func (s *Storage) Store(_ context.Context, key string, value []byte) error {
	// cost by payload size; admission may reject, which is acceptable
	s.c.Set(key, value, int64(len(value)))
	return nil
}

func (s *Storage) Delete(_ context.Context, key string) error {
	s.c.Del(key)
	return nil
}

func (s *Storage) Close(context.Context) error {
	s.c.Wait()
	s.c.Close()
	return nil
}

// Wait blocks until buffered writes have been applied. Mostly useful in tests.
func (s *Storage) Wait() { s.c.Wait() }

// Metrics exposes ristretto metrics when enabled (not part of storage.Storage).
func (s *Storage) Metrics() *rc.Metrics { return s.c.Metrics }
