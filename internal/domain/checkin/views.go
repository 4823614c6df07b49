package checkin

import (
	"log/slog"
	"sync"
	"time"
)

// Views tracks the live cache of each open view. Opening a view closes the
// cache it replaces, so lookups still in flight for the old view are dropped.
type Views struct {
	remote Remote
	logger *slog.Logger

	mu    sync.Mutex
	views map[string]*openView
}

type openView struct {
	cache    *Cache
	lastUsed time.Time
}

// NewViews creates a view registry whose caches toggle through remote.
func NewViews(remote Remote, logger *slog.Logger) *Views {
	return &Views{
		remote: remote,
		logger: logger,
		views:  make(map[string]*openView),
	}
}

// Open replaces the cache for key with a fresh one.
func (v *Views) Open(key string) *Cache {
	c := NewCache(v.remote, v.logger)
	v.mu.Lock()
	old := v.views[key]
	v.views[key] = &openView{cache: c, lastUsed: time.Now()}
	v.mu.Unlock()
	if old != nil {
		old.cache.Close()
	}
	return c
}

// Current returns the live cache for key, opening one if none exists.
func (v *Views) Current(key string) *Cache {
	v.mu.Lock()
	defer v.mu.Unlock()
	ov, ok := v.views[key]
	if !ok {
		ov = &openView{cache: NewCache(v.remote, v.logger)}
		v.views[key] = ov
	}
	ov.lastUsed = time.Now()
	return ov.cache
}

// Close discards the view for key.
func (v *Views) Close(key string) {
	v.mu.Lock()
	ov := v.views[key]
	delete(v.views, key)
	v.mu.Unlock()
	if ov != nil {
		ov.cache.Close()
	}
}

// EvictIdle closes every view last used before cutoff and returns how many
// were closed. Views of MCP sessions that ended without logging out are
// reclaimed this way.
func (v *Views) EvictIdle(cutoff time.Time) int {
	var idle []*Cache
	v.mu.Lock()
	for key, ov := range v.views {
		if ov.lastUsed.Before(cutoff) {
			idle = append(idle, ov.cache)
			delete(v.views, key)
		}
	}
	v.mu.Unlock()

	for _, c := range idle {
		c.Close()
	}
	if len(idle) > 0 && v.logger != nil {
		v.logger.Debug("evicted idle checkin views", "count", len(idle))
	}
	return len(idle)
}

// Len returns the number of open views.
func (v *Views) Len() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.views)
}
