package postgrest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/pders01/corkboard/internal/reaction"
)

const (
	likesTable     = "post_likes"
	likeStatesCall = "rpc/like_states"
)

// Reactions is the like relation of one user on the server.
type Reactions struct {
	client *Client
	userID string
}

// Reactions returns the reaction backend acting as userID.
func (c *Client) Reactions(userID string) *Reactions {
	return &Reactions{client: c, userID: userID}
}

type likeStateRow struct {
	PostID    string `json:"post_id"`
	LikeCount int    `json:"like_count"`
	IsLiked   bool   `json:"is_liked"`
}

// LikeStates calls the like_states function once for all postIDs.
func (r *Reactions) LikeStates(ctx context.Context, postIDs []string) (map[string]reaction.State, error) {
	states := make(map[string]reaction.State, len(postIDs))
	if len(postIDs) == 0 {
		return states, nil
	}

	body, err := r.client.do(ctx, request{
		method: http.MethodPost,
		path:   likeStatesCall,
		body:   map[string]any{"post_ids": postIDs, "user_id": r.userID},
		accept: mediaJSON,
	})
	if err != nil {
		return nil, err
	}

	var rows []likeStateRow
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("decoding like states: %w", err)
	}
	for _, row := range rows {
		states[row.PostID] = reaction.State{LikeCount: row.LikeCount, IsLiked: row.IsLiked}
	}
	return states, nil
}

// SetLiked inserts or deletes the (post, user) like row. Both directions
// succeed when the row is already in the requested state.
func (r *Reactions) SetLiked(ctx context.Context, postID string, liked bool) error {
	var req request
	if liked {
		req = request{
			method: http.MethodPost,
			path:   likesTable,
			body:   map[string]string{"post_id": postID, "user_id": r.userID},
			accept: mediaJSON,
			prefer: "resolution=ignore-duplicates,return=minimal",
		}
	} else {
		req = request{
			method: http.MethodDelete,
			path:   likesTable,
			query:  url.Values{"post_id": {"eq." + postID}, "user_id": {"eq." + r.userID}},
			accept: mediaJSON,
			prefer: "return=minimal",
		}
	}

	if _, err := r.client.do(ctx, req); err != nil {
		return fmt.Errorf("setting like: %w", err)
	}
	return nil
}
