package storage

import (
	"bytes"
	"context"
	"fmt"

	bolt "go.etcd.io/bbolt"

	"github.com/pders01/corkboard/internal/reaction"
)

// Reactions is the like relation of one user, stored in the likes bucket
// under "<post>\x00<user>" keys.
type Reactions struct {
	store  *Store
	userID string
}

// Reactions returns the reaction backend acting as userID.
func (s *Store) Reactions(userID string) *Reactions {
	return &Reactions{store: s, userID: userID}
}

func likeKey(postID, userID string) []byte {
	return []byte(postID + "\x00" + userID)
}

func (r *Reactions) LikeStates(ctx context.Context, postIDs []string) (map[string]reaction.State, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	states := make(map[string]reaction.State, len(postIDs))
	err := r.store.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(likesBucket).Cursor()
		for _, postID := range postIDs {
			prefix := []byte(postID + "\x00")
			var st reaction.State
			for k, _ := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, _ = c.Next() {
				st.LikeCount++
				if string(k[len(prefix):]) == r.userID {
					st.IsLiked = true
				}
			}
			if st.LikeCount > 0 {
				states[postID] = st
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("reading likes: %w", err)
	}
	return states, nil
}

func (r *Reactions) SetLiked(ctx context.Context, postID string, liked bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return r.store.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(likesBucket)
		key := likeKey(postID, r.userID)
		if liked {
			return b.Put(key, []byte{1})
		}
		return b.Delete(key)
	})
}
