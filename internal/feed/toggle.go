package feed

import (
	"context"
	"fmt"

	"github.com/pders01/corkboard/internal/debuglog"
	"github.com/pders01/corkboard/internal/metrics"
	"github.com/pders01/corkboard/internal/reaction"
)

// ToggleLike flips the acting user's like on postID and returns the new
// flag. If the feed holds the post, only that entry's like fields change
// right away, without reordering. When the backend rejects the change the
// entry is put back as it was and the error is returned.
//
// Only one toggle per post may be in flight on a service; a second one
// fails with ErrTogglePending.
func (s *Service[R, V]) ToggleLike(ctx context.Context, postID string, currentlyLiked bool) (bool, error) {
	kind := string(s.kind.Kind)

	s.mu.Lock()
	if _, busy := s.pending[postID]; busy {
		s.mu.Unlock()
		s.metrics.ObserveToggle(kind, metrics.OutcomeRejected)
		return currentlyLiked, ErrTogglePending
	}
	s.pending[postID] = struct{}{}

	var previous, optimistic reaction.State
	edited := false
	if i := s.indexLocked(postID); i >= 0 {
		previous = s.state.Items[i].Reaction()
		optimistic = reaction.Flip(previous, currentlyLiked)
		s.replaceLocked(i, optimistic)
		edited = true
	}
	s.notifyLocked()
	s.mu.Unlock()

	liked, err := s.cache.Toggle(ctx, postID, currentlyLiked)

	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.pending, postID)

	// A fetch may have republished the entry while the backend call ran;
	// the cache holds the settled value either way.
	if !s.syncFromCacheLocked(postID) && err != nil && edited {
		s.rollbackLocked(postID, optimistic, previous)
	}

	if err != nil {
		s.notifyLocked()
		s.metrics.ObserveToggle(kind, metrics.OutcomeRolledBack)
		debuglog.WithFields(map[string]interface{}{"kind": kind, "post": postID}).Warnf("like toggle rolled back: %v", err)
		return liked, fmt.Errorf("toggling like: %w", err)
	}

	s.notifyLocked()
	s.metrics.ObserveToggle(kind, metrics.OutcomeOK)
	return liked, nil
}

// syncFromCacheLocked copies the cached state of postID into its entry and
// reports whether the cache had one.
func (s *Service[R, V]) syncFromCacheLocked(postID string) bool {
	st, ok := s.cache.Get(postID)
	if !ok {
		return false
	}
	if i := s.indexLocked(postID); i >= 0 && s.state.Items[i].Reaction() != st {
		s.replaceLocked(i, st)
	}
	return true
}

// rollbackLocked restores previous on postID's entry unless a fetch has
// replaced the entry with newer data in the meantime.
func (s *Service[R, V]) rollbackLocked(postID string, optimistic, previous reaction.State) {
	i := s.indexLocked(postID)
	if i < 0 {
		return
	}
	current := s.state.Items[i].Reaction()
	if restored := reaction.Compensate(current, optimistic, previous); restored != current {
		s.replaceLocked(i, restored)
	}
}
