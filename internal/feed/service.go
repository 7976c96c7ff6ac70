// Package feed runs one listing feed per kind: it queries the backend in
// feed order, enriches rows with like state, and publishes the result.
package feed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/samber/lo"

	"github.com/pders01/corkboard/internal/debuglog"
	"github.com/pders01/corkboard/internal/listing"
	"github.com/pders01/corkboard/internal/metrics"
	"github.com/pders01/corkboard/internal/reaction"
	"github.com/pders01/corkboard/internal/remote"
)

var (
	// ErrNotFound is returned by FetchSingle when the post does not exist.
	ErrNotFound = errors.New("post no longer exists")
	// ErrTogglePending is returned by ToggleLike while an earlier toggle for
	// the same post has not resolved.
	ErrTogglePending = errors.New("like toggle already in progress")
)

// DefaultOrder is the feed ordering: promoted posts first, then by
// engagement, then newest first.
var DefaultOrder = []remote.OrderTerm{
	remote.Asc("highlight_rank"),
	remote.Desc("hot_score"),
	remote.Desc("created_at"),
}

// Item is a normalized view model that a feed can hold.
type Item[V any] interface {
	PostID() string
	Reaction() reaction.State
	WithReaction(reaction.State) V
	Card() listing.Card
}

// Kind describes one feed: where its rows live and how to normalize them.
type Kind[R listing.Record, V Item[V]] struct {
	Kind       listing.Kind
	Collection string
	Normalize  func(R, reaction.State) V
}

type Phase int

const (
	PhaseIdle Phase = iota
	PhaseLoading
	PhaseReady
	PhaseFailed
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseLoading:
		return "loading"
	case PhaseReady:
		return "ready"
	case PhaseFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// State is a published snapshot of a feed. Items is shared between
// snapshots and must not be modified.
type State[V any] struct {
	Items     []V
	Loading   bool
	Err       string
	Phase     Phase
	UpdatedAt time.Time
}

// Service owns the feed state of one kind. All methods are safe for
// concurrent use.
type Service[R listing.Record, V Item[V]] struct {
	kind    Kind[R, V]
	store   remote.Store
	cache   *reaction.Cache
	metrics *metrics.Collector
	timeout time.Duration

	mu      sync.Mutex
	state   State[V]
	settled State[V] // phase and error of the last fetch that completed
	gen     uint64
	cancel  context.CancelFunc
	pending map[string]struct{}
	subs    map[int]chan struct{}
	nextSub int
}

func NewService[R listing.Record, V Item[V]](kind Kind[R, V], store remote.Store, cache *reaction.Cache) *Service[R, V] {
	if kind.Collection == "" {
		kind.Collection = kind.Kind.DefaultCollection()
	}
	return &Service[R, V]{
		kind:    kind,
		store:   store,
		cache:   cache,
		pending: make(map[string]struct{}),
		subs:    make(map[int]chan struct{}),
	}
}

// SetMetrics records fetch and toggle outcomes on m.
func (s *Service[R, V]) SetMetrics(m *metrics.Collector) {
	s.metrics = m
}

// SetTimeout bounds each fetch. Zero means no limit beyond the caller's
// context.
func (s *Service[R, V]) SetTimeout(d time.Duration) {
	s.timeout = d
}

func (s *Service[R, V]) Kind() listing.Kind { return s.kind.Kind }

func (s *Service[R, V]) Collection() string { return s.kind.Collection }

// State returns the current snapshot.
func (s *Service[R, V]) State() State[V] {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Subscribe returns a channel that receives a value after every state
// change. Notifications coalesce; read State for the current value. Call
// the returned function to unsubscribe, which closes the channel.
func (s *Service[R, V]) Subscribe() (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)

	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = ch
	s.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, id)
			close(ch)
			s.mu.Unlock()
		})
	}
}

func (s *Service[R, V]) notifyLocked() {
	for _, ch := range s.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

// Cancel aborts the fetch in flight, if any. The feed keeps its last
// settled state.
func (s *Service[R, V]) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
	}
}

// Fetch reloads the whole feed. Starting a fetch supersedes any fetch still
// in flight, whose result is then discarded. A cancelled or superseded
// fetch returns nil and leaves items and error as they were. Any other
// failure keeps the previous items, records the error message and returns
// the error.
func (s *Service[R, V]) Fetch(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	if s.timeout > 0 {
		var cancelTimeout context.CancelFunc
		ctx, cancelTimeout = context.WithTimeout(ctx, s.timeout)
		defer cancelTimeout()
	}

	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	s.gen++
	gen := s.gen
	s.cancel = cancel
	s.state.Loading = true
	s.state.Phase = PhaseLoading
	s.state.Err = ""
	s.notifyLocked()
	s.mu.Unlock()

	started := time.Now()
	items, err := s.load(ctx)
	kind := string(s.kind.Kind)

	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.gen {
		debuglog.Debugf("%s fetch #%d superseded, dropping result", kind, gen)
		s.metrics.ObserveFetch(kind, metrics.OutcomeCancelled, time.Since(started))
		return nil
	}
	s.cancel = nil

	if err != nil && isCancellation(ctx, err) {
		s.state.Loading = false
		s.state.Phase = s.settled.Phase
		s.state.Err = s.settled.Err
		s.notifyLocked()
		s.metrics.ObserveFetch(kind, metrics.OutcomeCancelled, time.Since(started))
		return nil
	}

	if err != nil {
		s.state.Loading = false
		s.state.Phase = PhaseFailed
		s.state.Err = describe(s.kind.Kind, err)
		s.settled = s.state
		s.notifyLocked()
		s.metrics.ObserveFetch(kind, metrics.OutcomeFailed, time.Since(started))
		debuglog.WithFields(map[string]interface{}{"kind": kind}).Warnf("fetch failed: %v", err)
		return fmt.Errorf("fetching %s feed: %w", kind, err)
	}

	s.state = State[V]{
		Items:     items,
		Phase:     PhaseReady,
		UpdatedAt: time.Now(),
	}
	// Toggles that started after the reactions were read are not in items.
	for postID := range s.pending {
		s.syncFromCacheLocked(postID)
	}
	s.settled = s.state
	s.notifyLocked()
	s.metrics.ObserveFetch(kind, metrics.OutcomeOK, time.Since(started))
	s.metrics.SetItems(kind, len(items))
	debuglog.Debugf("%s feed ready with %d items", kind, len(items))
	return nil
}

// load runs the query-enrich-normalize pipeline without touching state.
func (s *Service[R, V]) load(ctx context.Context) ([]V, error) {
	rows, err := s.store.Query(ctx, s.kind.Collection, DefaultOrder, nil)
	if err != nil {
		return nil, fmt.Errorf("querying %s: %w", s.kind.Collection, err)
	}

	records, err := decodeRows[R](rows)
	if err != nil {
		return nil, err
	}
	listing.SortRecords(records)

	ids := lo.Map(records, func(r R, _ int) string { return r.PostID() })
	states, err := s.reactions(ctx, ids)
	if err != nil {
		return nil, err
	}

	items := make([]V, len(records))
	for i, r := range records {
		items[i] = s.kind.Normalize(r, states[r.PostID()])
	}
	return items, nil
}

// reactions fetches like state for ids. Backend failures are logged and the
// cached view is used instead; only cancellation is returned.
func (s *Service[R, V]) reactions(ctx context.Context, ids []string) (map[string]reaction.State, error) {
	states, err := s.cache.FetchStates(ctx, ids)
	if err != nil {
		if isCancellation(ctx, err) {
			return nil, err
		}
		debuglog.WithFields(map[string]interface{}{"kind": string(s.kind.Kind)}).Warnf("using cached like states: %v", err)
	}
	return states, nil
}

// FetchSingle loads one post by id. It does not change the feed state.
// A missing post yields an error matching ErrNotFound.
func (s *Service[R, V]) FetchSingle(ctx context.Context, postID string) (V, error) {
	var zero V

	row, err := s.store.QueryOne(ctx, s.kind.Collection, remote.Filter{"id": postID})
	if err != nil {
		if errors.Is(err, remote.ErrNotFound) {
			return zero, fmt.Errorf("%w: %w", ErrNotFound, err)
		}
		return zero, fmt.Errorf("loading %s post %s: %w", s.kind.Kind, postID, err)
	}

	var record R
	if err := json.Unmarshal(row, &record); err != nil {
		return zero, fmt.Errorf("decoding %s post %s: %w", s.kind.Kind, postID, err)
	}

	states, err := s.reactions(ctx, []string{record.PostID()})
	if err != nil {
		return zero, err
	}
	return s.kind.Normalize(record, states[record.PostID()]), nil
}

// Pending reports whether a like toggle for postID is in flight.
func (s *Service[R, V]) Pending(postID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.pending[postID]
	return ok
}

func decodeRows[R any](rows []remote.Row) ([]R, error) {
	records := make([]R, len(rows))
	for i, row := range rows {
		if err := json.Unmarshal(row, &records[i]); err != nil {
			return nil, fmt.Errorf("decoding row %d: %w", i, err)
		}
	}
	return records, nil
}

// isCancellation separates an abandoned request from a real failure. A
// deadline is a failure.
func isCancellation(ctx context.Context, err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	return errors.Is(err, context.Canceled) || errors.Is(ctx.Err(), context.Canceled)
}

// describe turns a fetch error into the message shown above stale items.
func describe(kind listing.Kind, err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Sprintf("Loading %s timed out", kind.Title())
	default:
		return fmt.Sprintf("Couldn't load %s: %v", kind.Title(), err)
	}
}

// replaceLocked swaps the reaction of the item at i, copying the slice so
// earlier snapshots stay intact.
func (s *Service[R, V]) replaceLocked(i int, st reaction.State) {
	items := slices.Clone(s.state.Items)
	items[i] = items[i].WithReaction(st)
	s.state.Items = items
}

func (s *Service[R, V]) indexLocked(postID string) int {
	return slices.IndexFunc(s.state.Items, func(v V) bool { return v.PostID() == postID })
}
