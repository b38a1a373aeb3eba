// Package apiclient talks to the toggle endpoints and keeps an optimistic
// view of the signed-in user's likes, saves, follows and comment likes.
package apiclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"zoskagram/internal/model"
	"zoskagram/internal/optimistic"
)

const defaultTimeout = 10 * time.Second

// Error is a non-2xx reply decoded from the error envelope.
type Error struct {
	Status  int
	Code    string
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("api error %d %s: %s", e.Status, e.Code, e.Message)
}

// relation describes the endpoint and JSON field names of one toggle.
type relation struct {
	path     string
	idField  string
	idsField string
	key      string
}

var (
	likeRelation        = relation{path: "/api/likes", idField: "postId", idsField: "postIds", key: "liked"}
	saveRelation        = relation{path: "/api/saves", idField: "postId", idsField: "postIds", key: "saved"}
	followRelation      = relation{path: "/api/follows", idField: "followingId", idsField: "userIds", key: "following"}
	commentLikeRelation = relation{path: "/api/comments/likes", idField: "commentId", idsField: "commentIds", key: "liked"}
)

type Client struct {
	http *resty.Client

	Likes        *optimistic.Cache
	Saves        *optimistic.Cache
	Follows      *optimistic.Cache
	CommentLikes *optimistic.Cache
}

// New creates a client for baseURL authenticating with a session token.
// A nil httpClient gets one with a 10 second timeout.
func New(baseURL, token string, httpClient *http.Client) *Client {
	var rc *resty.Client
	if httpClient != nil {
		rc = resty.NewWithClient(httpClient)
	} else {
		rc = resty.New().SetTimeout(defaultTimeout)
	}
	rc.SetBaseURL(strings.TrimRight(baseURL, "/"))
	rc.SetHeader("Accept", "application/json")
	if token != "" {
		rc.SetAuthToken(token)
	}

	return &Client{
		http:         rc,
		Likes:        optimistic.New(),
		Saves:        optimistic.New(),
		Follows:      optimistic.New(),
		CommentLikes: optimistic.New(),
	}
}

func (c *Client) ToggleLike(ctx context.Context, postID string) (optimistic.State, error) {
	return c.toggle(ctx, c.Likes, likeRelation, postID)
}

func (c *Client) ToggleSave(ctx context.Context, postID string) (optimistic.State, error) {
	return c.toggle(ctx, c.Saves, saveRelation, postID)
}

func (c *Client) ToggleFollow(ctx context.Context, userID string) (optimistic.State, error) {
	return c.toggle(ctx, c.Follows, followRelation, userID)
}

func (c *Client) ToggleCommentLike(ctx context.Context, commentID string) (optimistic.State, error) {
	return c.toggle(ctx, c.CommentLikes, commentLikeRelation, commentID)
}

// LoadLikes fills the like cache for a page of posts in one request.
func (c *Client) LoadLikes(ctx context.Context, postIDs []string) error {
	return c.load(ctx, c.Likes, likeRelation, postIDs)
}

func (c *Client) LoadSaves(ctx context.Context, postIDs []string) error {
	return c.load(ctx, c.Saves, saveRelation, postIDs)
}

func (c *Client) LoadFollows(ctx context.Context, userIDs []string) error {
	return c.load(ctx, c.Follows, followRelation, userIDs)
}

// toggle flips the cached state, calls the server and reconciles. The
// returned state is what the cache shows afterwards, also on error.
func (c *Client) toggle(ctx context.Context, cache *optimistic.Cache, rel relation, id string) (optimistic.State, error) {
	pending := cache.Begin(id)

	var resp map[string]bool
	err := c.post(ctx, rel.path, map[string]string{rel.idField: id}, &resp)
	active := resp[rel.key]
	cache.Resolve(pending, active, err)

	state, _ := cache.State(id)
	if err != nil {
		return state, fmt.Errorf("toggle %s %s: %w", rel.key, id, err)
	}
	return state, nil
}

func (c *Client) load(ctx context.Context, cache *optimistic.Cache, rel relation, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	var resp map[string]json.RawMessage
	if err := c.post(ctx, rel.path+"/batch", map[string][]string{rel.idsField: ids}, &resp); err != nil {
		return fmt.Errorf("load %s: %w", rel.key, err)
	}

	var activeIDs []string
	if err := json.Unmarshal(resp[rel.key], &activeIDs); err != nil {
		return fmt.Errorf("decode %s ids: %w", rel.key, err)
	}
	var counts map[string]int
	if err := json.Unmarshal(resp["counts"], &counts); err != nil {
		return fmt.Errorf("decode %s counts: %w", rel.key, err)
	}

	cache.Load(model.NewIDSet(activeIDs...), counts)
	return nil
}

// errorEnvelope is the body of every non-2xx reply.
type errorEnvelope struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	var envelope errorEnvelope
	req := c.http.R().
		SetContext(ctx).
		SetBody(body).
		SetError(&envelope)
	if out != nil {
		req.SetResult(out)
	}

	resp, err := req.Post(path)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	if resp.IsError() {
		return &Error{Status: resp.StatusCode(), Code: envelope.Error.Code, Message: envelope.Error.Message}
	}
	return nil
}
