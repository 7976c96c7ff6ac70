package feed

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/pders01/corkboard/internal/config"
	"github.com/pders01/corkboard/internal/debuglog"
	"github.com/pders01/corkboard/internal/listing"
	"github.com/pders01/corkboard/internal/metrics"
	"github.com/pders01/corkboard/internal/reaction"
	"github.com/pders01/corkboard/internal/remote"
)

const defaultMaxConcurrent = 5

// Hub holds one service per kind, all sharing one reaction cache.
type Hub struct {
	feeds         []Feed
	byKind        map[listing.Kind]Feed
	cache         *reaction.Cache
	maxConcurrent int

	Rent       *RentService
	Secondhand *SecondhandService
	Ride       *RideService
	Team       *TeamService
	Forum      *ForumService
}

// NewHub builds the five feeds. cfg may be nil, in which case every feed
// reads its default collection without a fetch timeout. m may be nil.
func NewHub(store remote.Store, cache *reaction.Cache, normalizer *listing.Normalizer, cfg *config.Config, m *metrics.Collector) *Hub {
	h := &Hub{
		byKind:        make(map[listing.Kind]Feed, len(listing.Kinds)),
		cache:         cache,
		maxConcurrent: defaultMaxConcurrent,
	}

	var feedCfg config.FeedConfig
	if cfg != nil {
		feedCfg = cfg.Feed
		if feedCfg.MaxConcurrent > 0 {
			h.maxConcurrent = feedCfg.MaxConcurrent
		}
	}

	h.Rent = NewService(withCollection(RentKind(normalizer), feedCfg), store, cache)
	h.Secondhand = NewService(withCollection(SecondhandKind(normalizer), feedCfg), store, cache)
	h.Ride = NewService(withCollection(RideKind(normalizer), feedCfg), store, cache)
	h.Team = NewService(withCollection(TeamKind(normalizer), feedCfg), store, cache)
	h.Forum = NewService(withCollection(ForumKind(normalizer), feedCfg), store, cache)

	configure(h.Rent, feedCfg, m)
	configure(h.Secondhand, feedCfg, m)
	configure(h.Ride, feedCfg, m)
	configure(h.Team, feedCfg, m)
	configure(h.Forum, feedCfg, m)

	h.feeds = []Feed{h.Rent, h.Secondhand, h.Ride, h.Team, h.Forum}
	for _, f := range h.feeds {
		h.byKind[f.Kind()] = f
	}
	return h
}

func withCollection[R listing.Record, V Item[V]](k Kind[R, V], cfg config.FeedConfig) Kind[R, V] {
	if name := cfg.Collections[string(k.Kind)]; name != "" {
		k.Collection = name
	}
	return k
}

func configure[R listing.Record, V Item[V]](s *Service[R, V], cfg config.FeedConfig, m *metrics.Collector) {
	s.SetTimeout(cfg.FetchTimeout)
	s.SetMetrics(m)
}

// Feeds returns every feed in display order.
func (h *Hub) Feeds() []Feed {
	return h.feeds
}

func (h *Hub) Get(kind listing.Kind) (Feed, error) {
	f, ok := h.byKind[kind]
	if !ok {
		return nil, fmt.Errorf("no feed for kind %q", kind)
	}
	return f, nil
}

// Cache returns the reaction cache shared by all feeds.
func (h *Hub) Cache() *reaction.Cache {
	return h.cache
}

// RefreshAll fetches every feed concurrently. Each feed settles on its
// own; the first failure is returned after all fetches finish.
func (h *Hub) RefreshAll(ctx context.Context) error {
	var g errgroup.Group
	g.SetLimit(h.maxConcurrent)

	for _, f := range h.feeds {
		g.Go(func() error {
			return f.Fetch(ctx)
		})
	}

	if err := g.Wait(); err != nil {
		debuglog.Warnf("refresh finished with errors: %v", err)
		return err
	}
	return nil
}

// Close cancels every fetch in flight.
func (h *Hub) Close() {
	for _, f := range h.feeds {
		f.Cancel()
	}
}
