package handler

import (
	"net/http"
	"strings"

	"go.uber.org/zap"

	"zoskagram/internal/httputil"
	"zoskagram/internal/model"
	"zoskagram/internal/service"
	"zoskagram/internal/transport/http/middleware"
)

type CommentHandler struct {
	commentService *service.CommentService
	log            *zap.Logger
}

func NewCommentHandler(commentService *service.CommentService, log *zap.Logger) *CommentHandler {
	return &CommentHandler{
		commentService: commentService,
		log:            log.Named("comments"),
	}
}

// Create handles POST /api/comments
func (h *CommentHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	var req model.CreateCommentRequest
	if !httputil.DecodeJSON(w, r, &req, maxJSONBody) {
		return
	}

	comment, err := h.commentService.Create(r.Context(), userID, req)
	if err != nil {
		httputil.WriteServiceError(w, h.log, err, "Failed to create comment")
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, comment)
}

// List handles GET /api/comments?postId=
// Guests see comments without their own like state.
func (h *CommentHandler) List(w http.ResponseWriter, r *http.Request) {
	postID := strings.TrimSpace(r.URL.Query().Get("postId"))
	if postID == "" {
		httputil.WriteBadRequest(w, model.ErrTargetRequired.Error())
		return
	}
	viewerID, _ := middleware.GetUserIDFromContext(r.Context())

	comments, err := h.commentService.List(r.Context(), postID, viewerID)
	if err != nil {
		httputil.WriteServiceError(w, h.log, err, "Failed to fetch comments")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]any{"comments": comments})
}

// Delete handles DELETE /api/comments?id=
func (h *CommentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	commentID := strings.TrimSpace(r.URL.Query().Get("id"))
	if commentID == "" {
		httputil.WriteBadRequest(w, "Comment id is required")
		return
	}

	if err := h.commentService.Delete(r.Context(), commentID, userID); err != nil {
		httputil.WriteServiceError(w, h.log, err, "Failed to delete comment")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
