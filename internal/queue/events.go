package queue

import (
	"encoding/json"
	"fmt"
	"time"
)

// Event types for the posts stream
const (
	EventPostCreated = "post_created"
	EventPostDeleted = "post_deleted"
)

// Stream names
const (
	StreamPosts = "stream:posts"
)

// Consumer group name for feed workers
const (
	ConsumerGroupFeed = "feed_workers"
)

// PostEvent is published after a post is committed or removed. The worker
// applies it to the global feed cache.
type PostEvent struct {
	Type      string `json:"type"`      // EventPostCreated, EventPostDeleted
	Timestamp int64  `json:"timestamp"` // Unix seconds when the event occurred

	PostID   string `json:"post_id"`
	AuthorID string `json:"author_id"`
	// Score is the post's feed score (created_at in unix micros).
	Score int64 `json:"score,omitempty"`
}

// NewPostCreatedEvent creates an event for a new post.
func NewPostCreatedEvent(postID, authorID string, createdAt time.Time) PostEvent {
	return PostEvent{
		Type:      EventPostCreated,
		Timestamp: time.Now().Unix(),
		PostID:    postID,
		AuthorID:  authorID,
		Score:     createdAt.UnixMicro(),
	}
}

// NewPostDeletedEvent creates an event for a deleted post.
func NewPostDeletedEvent(postID, authorID string) PostEvent {
	return PostEvent{
		Type:      EventPostDeleted,
		Timestamp: time.Now().Unix(),
		PostID:    postID,
		AuthorID:  authorID,
	}
}

// ToMap converts the event to a map for Redis XADD.
// Redis Streams store field-value pairs, so we serialize to JSON in a "data" field.
func (e PostEvent) ToMap() (map[string]interface{}, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("marshal event: %w", err)
	}
	return map[string]interface{}{
		"type": e.Type,
		"data": string(data),
	}, nil
}

// ParsePostEvent parses a PostEvent from Redis stream message values.
func ParsePostEvent(values map[string]interface{}) (PostEvent, error) {
	data, ok := values["data"].(string)
	if !ok {
		return PostEvent{}, fmt.Errorf("missing or invalid 'data' field")
	}

	var event PostEvent
	if err := json.Unmarshal([]byte(data), &event); err != nil {
		return PostEvent{}, fmt.Errorf("unmarshal event: %w", err)
	}
	if event.PostID == "" {
		return PostEvent{}, fmt.Errorf("event without post id")
	}
	return event, nil
}
