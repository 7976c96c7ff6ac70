package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/pders01/corkboard/internal/config"
	"github.com/pders01/corkboard/internal/debuglog"
	"github.com/pders01/corkboard/internal/feed"
	"github.com/pders01/corkboard/internal/listing"
	"github.com/pders01/corkboard/internal/metrics"
	"github.com/pders01/corkboard/internal/reaction"
	"github.com/pders01/corkboard/internal/remote"
	"github.com/pders01/corkboard/internal/remote/postgrest"
	"github.com/pders01/corkboard/internal/storage"
	"github.com/pders01/corkboard/internal/validation"
)

// board is the wired application: backend, shared reaction cache and the
// five feeds.
type board struct {
	cfg   *config.Config
	hub   *feed.Hub
	store *storage.Store // nil unless the bolt driver is used
}

func openBoard(ctx context.Context, cfg *config.Config) (*board, error) {
	b := &board{cfg: cfg}

	var (
		rows      remote.Store
		reactions reaction.Backend
	)
	switch cfg.Backend.Driver {
	case config.DriverPostgREST:
		client, err := postgrest.FromConfig(cfg.Backend)
		if err != nil {
			return nil, err
		}
		rows, reactions = client, client.Reactions(cfg.Backend.UserID)

	case config.DriverBolt:
		store, err := openStore(cfg)
		if err != nil {
			return nil, err
		}
		b.store = store
		rows, reactions = store, store.Reactions(cfg.Backend.UserID)

	default:
		return nil, fmt.Errorf("%w: unknown driver %q", config.ErrInvalidBackend, cfg.Backend.Driver)
	}

	catalog, err := listing.NewCatalog()
	if err != nil {
		b.Close()
		return nil, err
	}

	m := metrics.New()
	b.hub = feed.NewHub(rows, reaction.NewCache(reactions), listing.NewNormalizer(catalog), cfg, m)

	if addr := cfg.Metrics.Listen; addr != "" {
		go func() {
			if err := m.Serve(ctx, addr); err != nil {
				debuglog.Errorf("metrics server on %s: %v", addr, err)
			}
		}()
	}

	debuglog.WithFields(map[string]interface{}{"driver": cfg.Backend.Driver, "user": cfg.Backend.UserID}).Infof("board opened")
	return b, nil
}

// openStore validates the bolt path. A path given with --db may live
// anywhere; a configured one must stay under the corkboard directories.
func openStore(cfg *config.Config) (*storage.Store, error) {
	validator := validation.NewPathValidator()
	if dbPath != "" || cfg.Backend.AllowLocal {
		validator = validation.NewPermissivePathValidator()
	}
	path, err := validator.DatabasePath(cfg.Backend.Path)
	if err != nil {
		return nil, err
	}
	return storage.NewStore(path)
}

// requireUser fails for operations that act as a user when none is set.
func (b *board) requireUser() error {
	if b.cfg.Backend.UserID == "" {
		return errors.New("backend.user_id is not set (config file or CORKBOARD_USER_ID)")
	}
	return nil
}

func (b *board) Close() {
	if b.hub != nil {
		b.hub.Close()
	}
	if b.store != nil {
		if err := b.store.Close(); err != nil {
			debuglog.Warnf("closing store: %v", err)
		}
	}
}
