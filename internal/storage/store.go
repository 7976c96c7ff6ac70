// Package storage is a bbolt-backed listing backend for local use and
// tests. It answers the same queries as the hosted backend.
package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/pders01/corkboard/internal/remote"
)

var (
	likesBucket       = []byte("post_likes")
	collectionsBucket = []byte("collections")
)

type Store struct {
	db *bolt.DB
}

func NewStore(dbPath string) (*Store, error) {
	db, err := bolt.Open(dbPath, 0o600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range [][]byte{likesBucket, collectionsBucket} {
			if _, createErr := tx.CreateBucketIfNotExists(bucket); createErr != nil {
				return createErr
			}
		}
		return nil
	})

	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating buckets: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Put stores rows in collection, replacing rows with the same id.
func (s *Store) Put(collection string, rows ...remote.Row) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b, err := tx.Bucket(collectionsBucket).CreateBucketIfNotExists([]byte(collection))
		if err != nil {
			return fmt.Errorf("creating collection %s: %w", collection, err)
		}
		for i, row := range rows {
			id, err := idOf(row)
			if err != nil {
				return fmt.Errorf("row %d of %s: %w", i, collection, err)
			}
			if err := b.Put([]byte(id), row); err != nil {
				return err
			}
		}
		return nil
	})
}

// Delete removes one row. Deleting a missing row is not an error.
func (s *Store) Delete(collection, id string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(collectionsBucket).Bucket([]byte(collection))
		if b == nil {
			return nil
		}
		return b.Delete([]byte(id))
	})
}

// Collections lists the collections that hold rows.
func (s *Store) Collections() ([]string, error) {
	var names []string
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(collectionsBucket).ForEachBucket(func(k []byte) error {
			names = append(names, string(k))
			return nil
		})
	})
	return names, err
}

// Query returns the rows of collection that match filter, sorted by order.
// Missing or null sort fields go last in either direction. An unknown
// collection yields no rows.
func (s *Store) Query(ctx context.Context, collection string, order []remote.OrderTerm, filter remote.Filter) ([]remote.Row, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var matched []decodedRow
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(collectionsBucket).Bucket([]byte(collection))
		if b == nil {
			return nil
		}
		return b.ForEach(func(_ []byte, v []byte) error {
			row, err := decodeRow(v)
			if err != nil {
				return err
			}
			if row.matches(filter) {
				matched = append(matched, row)
			}
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", collection, err)
	}

	sort.SliceStable(matched, func(i, j int) bool {
		return less(matched[i], matched[j], order)
	})

	rows := make([]remote.Row, len(matched))
	for i, r := range matched {
		rows[i] = r.raw
	}
	return rows, nil
}

// QueryOne returns the single row matching filter, or remote.ErrNotFound.
func (s *Store) QueryOne(ctx context.Context, collection string, filter remote.Filter) (remote.Row, error) {
	if id, ok := filter["id"]; ok && len(filter) == 1 {
		return s.get(ctx, collection, id)
	}

	rows, err := s.Query(ctx, collection, nil, filter)
	if err != nil {
		return nil, err
	}
	switch len(rows) {
	case 0:
		return nil, remote.ErrNotFound
	case 1:
		return rows[0], nil
	default:
		return nil, fmt.Errorf("%d rows match %v in %s, expected one", len(rows), filter, collection)
	}
}

func (s *Store) get(ctx context.Context, collection, id string) (remote.Row, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var row remote.Row
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(collectionsBucket).Bucket([]byte(collection))
		if b == nil {
			return remote.ErrNotFound
		}
		v := b.Get([]byte(id))
		if v == nil {
			return remote.ErrNotFound
		}
		row = bytes.Clone(v)
		return nil
	})
	return row, err
}

// Import loads a Seed document.
func (s *Store) Import(r io.Reader) (ImportStats, error) {
	stats := ImportStats{Rows: make(map[string]int)}

	var seed Seed
	if err := json.NewDecoder(r).Decode(&seed); err != nil {
		return stats, fmt.Errorf("decoding seed: %w", err)
	}

	for collection, rows := range seed.Collections {
		converted := make([]remote.Row, len(rows))
		for i, row := range rows {
			converted[i] = remote.Row(row)
		}
		if err := s.Put(collection, converted...); err != nil {
			return stats, err
		}
		stats.Rows[collection] = len(rows)
	}

	for _, like := range seed.Likes {
		if like.PostID == "" || like.UserID == "" {
			return stats, errors.New("seed like needs post_id and user_id")
		}
		if err := s.Reactions(like.UserID).SetLiked(context.Background(), like.PostID, true); err != nil {
			return stats, err
		}
		stats.Likes++
	}

	return stats, nil
}

type decodedRow struct {
	raw    remote.Row
	fields map[string]any
}

func decodeRow(v []byte) (decodedRow, error) {
	row := decodedRow{raw: bytes.Clone(v)}
	dec := json.NewDecoder(bytes.NewReader(v))
	dec.UseNumber()
	if err := dec.Decode(&row.fields); err != nil {
		return row, fmt.Errorf("decoding row: %w", err)
	}
	return row, nil
}

func (r decodedRow) matches(filter remote.Filter) bool {
	for field, want := range filter {
		got, ok := r.fields[field]
		if !ok || got == nil || scalarString(got) != want {
			return false
		}
	}
	return true
}

func less(a, b decodedRow, order []remote.OrderTerm) bool {
	for _, term := range order {
		av, bv := a.fields[term.Field], b.fields[term.Field]
		switch {
		case av == nil && bv == nil:
			continue
		case av == nil:
			return false
		case bv == nil:
			return true
		}
		c := compare(av, bv)
		if c == 0 {
			continue
		}
		if term.Descending {
			return c > 0
		}
		return c < 0
	}
	return false
}

// compare orders two JSON scalars. Numbers compare numerically, strings
// that parse as timestamps compare as times, anything else as text.
func compare(a, b any) int {
	if an, ok := a.(json.Number); ok {
		if bn, ok := b.(json.Number); ok {
			af, _ := an.Float64()
			bf, _ := bn.Float64()
			switch {
			case af < bf:
				return -1
			case af > bf:
				return 1
			}
			return 0
		}
	}
	if as, ok := a.(string); ok {
		if bs, ok := b.(string); ok {
			at, aerr := time.Parse(time.RFC3339Nano, as)
			bt, berr := time.Parse(time.RFC3339Nano, bs)
			if aerr == nil && berr == nil {
				return at.Compare(bt)
			}
		}
	}
	return strings.Compare(scalarString(a), scalarString(b))
}

func scalarString(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case json.Number:
		return x.String()
	case bool:
		return strconv.FormatBool(x)
	default:
		out, _ := json.Marshal(x)
		return string(out)
	}
}

func idOf(row remote.Row) (string, error) {
	var key rowKey
	if err := json.Unmarshal(row, &key); err != nil {
		return "", fmt.Errorf("decoding id: %w", err)
	}
	if len(key.ID) == 0 || string(key.ID) == "null" {
		return "", errors.New("row has no id")
	}
	var id string
	if err := json.Unmarshal(key.ID, &id); err == nil {
		return id, nil
	}
	// Numeric ids are stored by their literal text.
	return string(key.ID), nil
}
