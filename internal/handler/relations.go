package handler

import (
	"net/http"

	"go.uber.org/zap"

	"zoskagram/internal/httputil"
	"zoskagram/internal/model"
	"zoskagram/internal/service"
	"zoskagram/internal/transport/http/middleware"
)

// NewLikeHandler serves /api/likes.
func NewLikeHandler(likes *service.LikeService, log *zap.Logger) *ToggleHandler {
	return &ToggleHandler{
		key:         "liked",
		idParam:     "postId",
		bodyID:      func(r model.ToggleRequest) string { return r.PostID },
		bodyIDs:     func(r model.BatchRequest) []string { return r.PostIDs },
		toggle:      likes.Toggle,
		status:      likes.IsLiked,
		count:       likes.Count,
		batchStatus: likes.LikedSet,
		batchCount:  likes.Counts,
		log:         log.Named("likes"),
	}
}

// NewCommentLikeHandler serves /api/comments/likes.
func NewCommentLikeHandler(comments *service.CommentService, log *zap.Logger) *ToggleHandler {
	return &ToggleHandler{
		key:         "liked",
		idParam:     "commentId",
		bodyID:      func(r model.ToggleRequest) string { return r.CommentID },
		bodyIDs:     func(r model.BatchRequest) []string { return r.CommentIDs },
		toggle:      comments.ToggleLike,
		status:      comments.IsLiked,
		count:       comments.LikeCount,
		batchStatus: comments.LikedSet,
		batchCount:  comments.LikeCounts,
		log:         log.Named("comment_likes"),
	}
}

// NewFollowHandler serves /api/follows. Counts are follower counts.
func NewFollowHandler(follows *service.FollowService, log *zap.Logger) *ToggleHandler {
	return &ToggleHandler{
		key:         "following",
		idParam:     "userId",
		bodyID:      func(r model.ToggleRequest) string { return r.FollowingID },
		bodyIDs:     func(r model.BatchRequest) []string { return r.UserIDs },
		toggle:      follows.Toggle,
		status:      follows.IsFollowing,
		count:       follows.FollowerCount,
		batchStatus: follows.FollowingSet,
		batchCount:  follows.FollowerCounts,
		log:         log.Named("follows"),
	}
}

// SaveHandler serves /api/saves and the caller's saved-post list.
type SaveHandler struct {
	*ToggleHandler
	saves *service.SaveService
}

func NewSaveHandler(saves *service.SaveService, log *zap.Logger) *SaveHandler {
	return &SaveHandler{
		ToggleHandler: &ToggleHandler{
			key:         "saved",
			idParam:     "postId",
			bodyID:      func(r model.ToggleRequest) string { return r.PostID },
			bodyIDs:     func(r model.BatchRequest) []string { return r.PostIDs },
			toggle:      saves.Toggle,
			status:      saves.IsSaved,
			count:       saves.Count,
			batchStatus: saves.SavedSet,
			batchCount:  saves.Counts,
			log:         log.Named("saves"),
		},
		saves: saves,
	}
}

// ListSaved handles GET /api/saves/posts
func (h *SaveHandler) ListSaved(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	posts, err := h.saves.ListSaved(r.Context(), userID)
	if err != nil {
		httputil.WriteServiceError(w, h.log, err, "Failed to fetch saved posts")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"posts": posts})
}
