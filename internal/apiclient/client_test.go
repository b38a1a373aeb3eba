package apiclient_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"zoskagram/internal/apiclient"
	"zoskagram/internal/optimistic"
)

// likeServer mimics the like endpoints for a single signed-in user.
type likeServer struct {
	mu     sync.Mutex
	liked  map[string]bool
	counts map[string]int
	fail   bool
}

func newLikeServer(t *testing.T) (*likeServer, *httptest.Server) {
	t.Helper()
	s := &likeServer{liked: map[string]bool{}, counts: map[string]int{}}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/likes", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok" {
			writeJSON(w, http.StatusUnauthorized, map[string]any{"error": map[string]string{"code": "UNAUTHORIZED", "message": "no"}})
			return
		}
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.fail {
			writeJSON(w, http.StatusInternalServerError, map[string]any{"error": map[string]string{"code": "INTERNAL_ERROR", "message": "boom"}})
			return
		}
		var req struct {
			PostID string `json:"postId"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		s.liked[req.PostID] = !s.liked[req.PostID]
		if s.liked[req.PostID] {
			s.counts[req.PostID]++
		} else {
			s.counts[req.PostID]--
		}
		writeJSON(w, http.StatusOK, map[string]bool{"liked": s.liked[req.PostID]})
	})
	mux.HandleFunc("POST /api/likes/batch", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			PostIDs []string `json:"postIds"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		s.mu.Lock()
		defer s.mu.Unlock()
		liked := []string{}
		counts := map[string]int{}
		for _, id := range req.PostIDs {
			if s.liked[id] {
				liked = append(liked, id)
			}
			counts[id] = s.counts[id]
		}
		writeJSON(w, http.StatusOK, map[string]any{"liked": liked, "counts": counts})
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return s, srv
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestClient_LoadAndToggle(t *testing.T) {
	server, srv := newLikeServer(t)
	server.liked["p1"] = true
	server.counts["p1"] = 3
	server.counts["p2"] = 7

	c := apiclient.New(srv.URL, "tok", nil)
	ctx := context.Background()

	require.NoError(t, c.LoadLikes(ctx, []string{"p1", "p2"}))
	s, _ := c.Likes.State("p1")
	assert.Equal(t, optimistic.State{Active: true, Count: 3}, s)

	s, err := c.ToggleLike(ctx, "p2")
	require.NoError(t, err)
	assert.Equal(t, optimistic.State{Active: true, Count: 8}, s)

	s, err = c.ToggleLike(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, optimistic.State{Active: false, Count: 2}, s)
}

func TestClient_RollsBackOnServerError(t *testing.T) {
	server, srv := newLikeServer(t)
	server.counts["p1"] = 1
	c := apiclient.New(srv.URL, "tok", nil)
	ctx := context.Background()
	require.NoError(t, c.LoadLikes(ctx, []string{"p1"}))

	server.fail = true
	s, err := c.ToggleLike(ctx, "p1")
	var apiErr *apiclient.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusInternalServerError, apiErr.Status)
	assert.Equal(t, "INTERNAL_ERROR", apiErr.Code)
	assert.Equal(t, optimistic.State{Active: false, Count: 1}, s)
}

func TestClient_AdoptsServerState(t *testing.T) {
	server, srv := newLikeServer(t)
	c := apiclient.New(srv.URL, "tok", nil)
	ctx := context.Background()
	require.NoError(t, c.LoadLikes(ctx, []string{"p1"}))

	// Liked from another device after the page loaded
	server.liked["p1"] = true
	server.counts["p1"] = 1

	s, err := c.ToggleLike(ctx, "p1")
	require.NoError(t, err)
	assert.False(t, s.Active)
	assert.Equal(t, 0, s.Count)
}

func TestClient_Unauthorized(t *testing.T) {
	_, srv := newLikeServer(t)
	c := apiclient.New(srv.URL, "", nil)

	s, err := c.ToggleLike(context.Background(), "p1")
	var apiErr *apiclient.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
	assert.Equal(t, optimistic.State{}, s)
}

func TestClient_LoadNothing(t *testing.T) {
	c := apiclient.New("http://127.0.0.1:0", "tok", nil)
	assert.NoError(t, c.LoadLikes(context.Background(), nil))
}
