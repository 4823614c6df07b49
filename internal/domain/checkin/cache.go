package checkin

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/rpggio/challengr/internal/domain/calendar"
	"golang.org/x/sync/errgroup"
)

// State is the synchronization state of one (activity, date) entry.
type State string

const (
	// StateUnknown means nothing is cached for the key.
	StateUnknown State = ""
	// StatePending means an optimistic flip awaits the remote call.
	StatePending State = "pending"
	// StateConfirmed means the cached value matches the remote service.
	StateConfirmed State = "confirmed"
	// StateRolledBack means a flip failed remotely and was reverted.
	StateRolledBack State = "rolled_back"
	// StateLoadFailed means the status lookup failed; the value reads as false.
	StateLoadFailed State = "load_failed"
)

// Key identifies a checkin: one activity on one date.
type Key struct {
	ActivityID string
	Date       calendar.Date
}

// LookupFunc fetches whether a checkin exists remotely.
type LookupFunc func(ctx context.Context, activityID string, date calendar.Date) (bool, error)

type entry struct {
	checked bool
	state   State
	gen     uint64
}

// Cache holds checkin state for the view that owns it. Every write carries
// a generation number so that late completions never overwrite newer values.
type Cache struct {
	remote Remote
	logger *slog.Logger

	mu      sync.Mutex
	entries map[Key]entry
	gen     uint64
	closed  bool
}

// NewCache creates an empty cache that toggles through remote.
func NewCache(remote Remote, logger *slog.Logger) *Cache {
	return &Cache{
		remote:  remote,
		logger:  logger,
		entries: make(map[Key]entry),
	}
}

// Get returns the cached value. Absent entries read as false.
func (c *Cache) Get(date calendar.Date, activityID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.entries[Key{activityID, date}].checked
}

// State returns the synchronization state of an entry.
func (c *Cache) State(date calendar.Date, activityID string) State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.entries[Key{activityID, date}].state
}

// Known reports whether the entry holds a value obtained from the remote
// service or from a toggle.
func (c *Cache) Known(date calendar.Date, activityID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[Key{activityID, date}]
	return ok && e.state != StateLoadFailed
}

// Set overwrites an entry with a value known to match the remote service.
func (c *Cache) Set(date calendar.Date, activityID string, checked bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.gen++
	c.entries[Key{activityID, date}] = entry{checked: checked, state: StateConfirmed, gen: c.gen}
}

// Day returns the cached values for date keyed by activity ID.
func (c *Cache) Day(date calendar.Date) map[string]bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string]bool)
	for k, e := range c.entries {
		if k.Date.Equal(date) {
			out[k.ActivityID] = e.checked
		}
	}
	return out
}

// Toggle flips an entry immediately, then creates or deletes the checkin
// remotely. On failure the entry reverts to its previous value and the error
// is returned; there is no retry. It returns the settled value.
func (c *Cache) Toggle(ctx context.Context, date calendar.Date, activityID string) (bool, error) {
	k := Key{activityID, date}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return false, ErrClosed
	}
	prev := c.entries[k]
	next := !prev.checked
	c.gen++
	gen := c.gen
	c.entries[k] = entry{checked: next, state: StatePending, gen: gen}
	c.mu.Unlock()

	var err error
	if next {
		err = c.remote.Create(ctx, activityID, date)
	} else {
		err = c.remote.Delete(ctx, activityID, date)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	live := !c.closed && c.entries[k].gen == gen
	if err != nil {
		if live {
			c.entries[k] = entry{checked: prev.checked, state: StateRolledBack, gen: gen}
		}
		if c.logger != nil {
			c.logger.Warn("checkin toggle rolled back", "activity_id", activityID, "date", date.String(), "error", err)
		}
		return prev.checked, fmt.Errorf("toggling checkin: %w", err)
	}
	if live {
		c.entries[k] = entry{checked: next, state: StateConfirmed, gen: gen}
	}
	return next, nil
}

// Load looks up every key concurrently, at most limit at a time (limit < 1
// means unbounded). A failed lookup is stored as not checked. Results that
// arrive after the cache is closed or ctx is done are dropped, as are results
// for keys written since Load began.
func (c *Cache) Load(ctx context.Context, keys []Key, limit int, lookup LookupFunc) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	start := c.gen
	c.mu.Unlock()

	var g errgroup.Group
	if limit > 0 {
		g.SetLimit(limit)
	}
	for _, k := range keys {
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			checked, err := lookup(ctx, k.ActivityID, k.Date)
			state := StateConfirmed
			if err != nil {
				if ctx.Err() != nil {
					return nil
				}
				checked, state = false, StateLoadFailed
				if c.logger != nil {
					c.logger.Warn("checkin lookup failed", "activity_id", k.ActivityID, "date", k.Date.String(), "error", err)
				}
			}
			c.store(ctx, k, checked, state, start)
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	return nil
}

func (c *Cache) store(ctx context.Context, k Key, checked bool, state State, start uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || ctx.Err() != nil {
		return
	}
	if cur, ok := c.entries[k]; ok && cur.gen > start {
		return
	}
	c.gen++
	c.entries[k] = entry{checked: checked, state: state, gen: c.gen}
}

// Close marks the cache as no longer live. Later writes are ignored.
func (c *Cache) Close() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
}

// Closed reports whether Close was called.
func (c *Cache) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}
