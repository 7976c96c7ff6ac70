package postgrest

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/cenkalti/backoff/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pders01/corkboard/internal/config"
	"github.com/pders01/corkboard/internal/reaction"
	"github.com/pders01/corkboard/internal/remote"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, opts ...Option) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	opts = append([]Option{
		WithHTTPClient(server.Client()),
		WithBackoff(func() backoff.BackOff { return &backoff.ZeroBackOff{} }),
	}, opts...)
	return New(server.URL+"/", "anon-key", opts...)
}

func TestQuery(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/rest/v1/forum_posts_feed", r.URL.Path)
		assert.Equal(t, "anon-key", r.Header.Get("apikey"))
		assert.Equal(t, "Bearer anon-key", r.Header.Get("Authorization"))
		assert.Equal(t, mediaJSON, r.Header.Get("Accept"))
		assert.Contains(t, r.Header.Get("User-Agent"), "corkboard")

		q := r.URL.Query()
		assert.Equal(t, "*", q.Get("select"))
		assert.Equal(t, "highlight_rank.asc.nullslast,hot_score.desc.nullslast", q.Get("order"))
		assert.Equal(t, "eq.general", q.Get("category"))

		w.Header().Set("Content-Type", mediaJSON)
		_, _ = w.Write([]byte(`[{"id":"p1"},{"id":"p2"}]`))
	})

	rows, err := client.Query(context.Background(), "forum_posts_feed",
		[]remote.OrderTerm{remote.Asc("highlight_rank"), remote.Desc("hot_score")},
		remote.Filter{"category": "general"})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.JSONEq(t, `{"id":"p2"}`, string(rows[1]))
}

func TestQueryRetriesTemporaryErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
	}{
		{"server error", http.StatusServiceUnavailable},
		{"rate limited", http.StatusTooManyRequests},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls atomic.Int32
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				if calls.Add(1) == 1 {
					w.WriteHeader(tt.status)
					return
				}
				_, _ = w.Write([]byte(`[]`))
			})

			rows, err := client.Query(context.Background(), "rent_posts_feed", nil, nil)
			require.NoError(t, err)
			assert.Empty(t, rows)
			assert.EqualValues(t, 2, calls.Load())
		})
	}
}

func TestQueryGivesUpAfterMaxRetries(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}, WithMaxRetries(2))

	_, err := client.Query(context.Background(), "rent_posts_feed", nil, nil)
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadGateway, apiErr.StatusCode)
	assert.EqualValues(t, 3, calls.Load())
}

func TestQueryClientErrorIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"code":"42703","message":"column rent_posts_feed.bogus does not exist","details":null,"hint":null}`))
	})

	_, err := client.Query(context.Background(), "rent_posts_feed", []remote.OrderTerm{remote.Asc("bogus")}, nil)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "42703", apiErr.Code)
	assert.False(t, apiErr.Temporary())
	assert.Contains(t, err.Error(), "bogus does not exist")
	assert.EqualValues(t, 1, calls.Load())
}

func TestQueryCancelled(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.Query(ctx, "rent_posts_feed", nil, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled), "got %v", err)
	assert.Zero(t, calls.Load())
}

func TestQueryOne(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, mediaObject, r.Header.Get("Accept"))
		if r.URL.Query().Get("id") == "eq.p1" {
			_, _ = w.Write([]byte(`{"id":"p1","title":"Desk"}`))
			return
		}
		w.WriteHeader(http.StatusNotAcceptable)
		_, _ = w.Write([]byte(`{"code":"PGRST116","message":"JSON object requested, multiple (or no) rows returned","details":"The result contains 0 rows","hint":null}`))
	})

	row, err := client.QueryOne(context.Background(), "secondhand_posts_feed", remote.Filter{"id": "p1"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"p1","title":"Desk"}`, string(row))

	_, err = client.QueryOne(context.Background(), "secondhand_posts_feed", remote.Filter{"id": "missing"})
	assert.ErrorIs(t, err, remote.ErrNotFound)
}

func TestQueryOneMultipleRowsIsNotNotFound(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotAcceptable)
		_, _ = w.Write([]byte(`{"code":"PGRST116","message":"JSON object requested, multiple (or no) rows returned","details":"The result contains 2 rows","hint":null}`))
	})

	_, err := client.QueryOne(context.Background(), "team_posts_feed", remote.Filter{"category": "sports"})
	require.Error(t, err)
	assert.NotErrorIs(t, err, remote.ErrNotFound)
}

func TestLikeStates(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/rest/v1/rpc/like_states", r.URL.Path)
		assert.Equal(t, mediaJSON, r.Header.Get("Content-Type"))

		var body struct {
			PostIDs []string `json:"post_ids"`
			UserID  string   `json:"user_id"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, []string{"p1", "p2"}, body.PostIDs)
		assert.Equal(t, "u1", body.UserID)

		_, _ = w.Write([]byte(`[{"post_id":"p1","like_count":4,"is_liked":true}]`))
	})

	states, err := client.Reactions("u1").LikeStates(context.Background(), []string{"p1", "p2"})
	require.NoError(t, err)
	assert.Equal(t, map[string]reaction.State{"p1": {LikeCount: 4, IsLiked: true}}, states)
}

func TestLikeStatesEmptySkipsRequest(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected request to %s", r.URL.Path)
	})

	states, err := client.Reactions("u1").LikeStates(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, states)
}

func TestSetLiked(t *testing.T) {
	var got []string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/rest/v1/post_likes", r.URL.Path)
		switch r.Method {
		case http.MethodPost:
			assert.Contains(t, r.Header.Get("Prefer"), "resolution=ignore-duplicates")
			body, _ := io.ReadAll(r.Body)
			assert.JSONEq(t, `{"post_id":"p1","user_id":"u1"}`, string(body))
		case http.MethodDelete:
			assert.Equal(t, "eq.p1", r.URL.Query().Get("post_id"))
			assert.Equal(t, "eq.u1", r.URL.Query().Get("user_id"))
		}
		got = append(got, r.Method)
		w.WriteHeader(http.StatusCreated)
	})

	reactions := client.Reactions("u1")
	require.NoError(t, reactions.SetLiked(context.Background(), "p1", true))
	require.NoError(t, reactions.SetLiked(context.Background(), "p1", false))
	assert.Equal(t, []string{http.MethodPost, http.MethodDelete}, got)
}

func TestSetLikedThroughCache(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/rest/v1/post_likes" {
			w.WriteHeader(http.StatusForbidden)
			_, _ = w.Write([]byte(`{"code":"42501","message":"permission denied for table post_likes"}`))
			return
		}
		_, _ = w.Write([]byte(`[{"post_id":"p1","like_count":2,"is_liked":false}]`))
	})

	cache := reaction.NewCache(client.Reactions("u1"))
	_, err := cache.FetchStates(context.Background(), []string{"p1"})
	require.NoError(t, err)

	_, err = cache.Toggle(context.Background(), "p1", false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "permission denied")

	st, _ := cache.Get("p1")
	assert.Equal(t, reaction.State{LikeCount: 2}, st)
}

func TestAPIErrorPlainBody(t *testing.T) {
	e := newAPIError(&http.Response{StatusCode: http.StatusInternalServerError}, []byte("upstream exploded\n"))
	assert.Equal(t, "HTTP 500: upstream exploded", e.Error())
	assert.True(t, e.Temporary())

	e = newAPIError(&http.Response{StatusCode: http.StatusNotFound}, nil)
	assert.Equal(t, "HTTP 404: Not Found", e.Error())
}

func TestFromConfig(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.BackendConfig
		wantURL string
		wantErr bool
	}{
		{
			name:    "public host",
			cfg:     config.BackendConfig{URL: "abcd.supabase.co/", MaxRetries: 1},
			wantURL: "https://abcd.supabase.co",
		},
		{
			name:    "local host rejected",
			cfg:     config.BackendConfig{URL: "http://localhost:54321"},
			wantErr: true,
		},
		{
			name:    "local host allowed",
			cfg:     config.BackendConfig{URL: "http://localhost:54321", AllowLocal: true},
			wantURL: "http://localhost:54321",
		},
		{
			name:    "empty",
			cfg:     config.BackendConfig{},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := FromConfig(tt.cfg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantURL, client.baseURL)
			assert.Equal(t, tt.cfg.MaxRetries, client.maxRetries)
		})
	}
}
