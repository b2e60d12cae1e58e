package sessionstore

import (
	"context"
	"time"
	"tipranks-client/internal/components/chrono"
	"tipranks-client/lib/platforms/tipranks"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

type memoryEntry struct {
	session   tipranks.Session
	expiresAt time.Time
}

// Memory keeps sessions in an LRU, it only lives as long as the process.
type Memory struct {
	cache *expirable.LRU[string, memoryEntry]
	time  chrono.API
}

func NewMemory(size int, clock chrono.API) Memory {
	if size <= 0 {
		size = 64
	}
	if clock == nil {
		clock = chrono.NewStandardImpl()
	}
	return Memory{
		// entries carry their own expiry, the lru ttl is disabled
		cache: expirable.NewLRU[string, memoryEntry](size, nil, 0),
		time:  clock,
	}
}

func (m Memory) Get(_ context.Context, key string) (tipranks.Session, bool, error) {
	entry, ok := m.cache.Get(key)
	if !ok {
		return tipranks.Session{}, false, nil
	}
	if !entry.expiresAt.IsZero() && !m.time.Now().Before(entry.expiresAt) {
		m.cache.Remove(key)
		return tipranks.Session{}, false, nil
	}
	return entry.session, true, nil
}

func (m Memory) Put(_ context.Context, key string, session tipranks.Session, ttl time.Duration) error {
	now := m.time.Now()
	ttl, ok := BoundTTL(now, session, ttl)
	if !ok {
		m.cache.Remove(key)
		return nil
	}
	m.cache.Add(key, memoryEntry{session: session, expiresAt: expiresAt(now, ttl)})
	return nil
}

func (m Memory) Delete(_ context.Context, key string) error {
	m.cache.Remove(key)
	return nil
}

func (m Memory) Close() error {
	m.cache.Purge()
	return nil
}
