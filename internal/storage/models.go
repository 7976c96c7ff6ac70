package storage

import (
	"encoding/json"
)

// Seed is the document accepted by Import: rows per collection plus like
// relations.
//
//	{
//	  "collections": {"forum_posts_feed": [{"id": "f1", ...}]},
//	  "likes": [{"post_id": "f1", "user_id": "u1"}]
//	}
type Seed struct {
	Collections map[string][]json.RawMessage `json:"collections"`
	Likes       []Like                       `json:"likes"`
}

type Like struct {
	PostID string `json:"post_id"`
	UserID string `json:"user_id"`
}

// ImportStats reports what Import wrote.
type ImportStats struct {
	Rows  map[string]int
	Likes int
}

// rowKey is the part of a row the store needs to index it.
type rowKey struct {
	ID json.RawMessage `json:"id"`
}
