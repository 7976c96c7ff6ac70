// Package reaction keeps the per-post like state shared by every feed.
package reaction

import (
	"context"
	"fmt"
	"maps"
	"sync"

	"github.com/samber/lo"

	"github.com/pders01/corkboard/internal/debuglog"
)

// Backend is the remote side of the reaction state for one acting user.
type Backend interface {
	// LikeStates returns the state of every requested post the backend
	// knows about. Posts without likes may be left out.
	LikeStates(ctx context.Context, postIDs []string) (map[string]State, error)
	// SetLiked records the like relation. Calling it with the current value
	// is allowed and changes nothing.
	SetLiked(ctx context.Context, postID string, liked bool) error
}

// Cache is the process-wide source of truth for like counts and flags.
// Build one at startup and hand it to every feed service.
//
// Toggle calls for the same post must be serialized by the caller; the
// cache only guarantees that work on different posts does not interfere.
type Cache struct {
	backend Backend
	mu      sync.RWMutex
	states  map[string]State
	pending map[string]*pendingToggle
}

// pendingToggle is a Toggle waiting on the backend. base is the last state
// known from the backend and is what a failed toggle restores.
type pendingToggle struct {
	liked      bool
	base       State
	hadBase    bool
	optimistic State
}

func NewCache(backend Backend) *Cache {
	return &Cache{
		backend: backend,
		states:  make(map[string]State),
		pending: make(map[string]*pendingToggle),
	}
}

// FetchStates loads the state of exactly the given posts with a single
// backend call and merges it into the cache. The returned map is a copy of
// the whole cache, including entries that were not requested.
//
// A post with a toggle in flight keeps the toggle applied on top of the
// fetched state until the backend answers.
//
// On failure the cached view is still returned together with the error so
// callers can render what they have.
func (c *Cache) FetchStates(ctx context.Context, postIDs []string) (map[string]State, error) {
	ids := lo.Uniq(lo.Compact(postIDs))
	if len(ids) == 0 {
		return c.Snapshot(), nil
	}

	fetched, err := c.backend.LikeStates(ctx, ids)
	if err != nil {
		debuglog.WithFields(map[string]interface{}{"posts": len(ids)}).Warnf("fetching like states failed: %v", err)
		return c.Snapshot(), fmt.Errorf("fetching like states: %w", err)
	}

	c.mu.Lock()
	for _, id := range ids {
		st := fetched[id].clamped()
		if p, ok := c.pending[id]; ok {
			p.base, p.hadBase = st, true
			st = st.Toggled(p.liked)
			p.optimistic = st
		}
		c.states[id] = st
	}
	c.mu.Unlock()

	debuglog.Debugf("cached like states for %d posts", len(ids))
	return c.Snapshot(), nil
}

// Get returns the cached state for postID.
func (c *Cache) Get(postID string) (State, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	st, ok := c.states[postID]
	return st, ok
}

// Snapshot copies the current cache contents.
func (c *Cache) Snapshot() map[string]State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return maps.Clone(c.states)
}

// Toggle flips the like relation of the acting user on postID and returns
// the new flag. The cache is updated before the backend is called; if the
// call fails the last state known from the backend is restored and the
// error is returned.
func (c *Cache) Toggle(ctx context.Context, postID string, currentlyLiked bool) (bool, error) {
	newLiked := !currentlyLiked

	c.mu.Lock()
	previous, had := c.states[postID]
	p := &pendingToggle{
		liked:      newLiked,
		base:       previous,
		hadBase:    had,
		optimistic: Flip(previous, currentlyLiked),
	}
	c.states[postID] = p.optimistic
	c.pending[postID] = p
	c.mu.Unlock()

	err := c.backend.SetLiked(ctx, postID, newLiked)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pending[postID] == p {
		delete(c.pending, postID)
	}
	if err != nil {
		if current, ok := c.states[postID]; ok && current == p.optimistic {
			if p.hadBase {
				c.states[postID] = p.base
			} else {
				delete(c.states, postID)
			}
		}
		return currentlyLiked, fmt.Errorf("setting like on %s: %w", postID, err)
	}
	return newLiked, nil
}
