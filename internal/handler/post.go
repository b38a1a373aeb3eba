package handler

import (
	"errors"
	"mime"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"zoskagram/internal/httputil"
	"zoskagram/internal/model"
	"zoskagram/internal/service"
	"zoskagram/internal/transport/http/middleware"
)

type PostHandler struct {
	postService *service.PostService
	feedService *service.FeedService
	log         *zap.Logger
}

func NewPostHandler(postService *service.PostService, feedService *service.FeedService, log *zap.Logger) *PostHandler {
	return &PostHandler{
		postService: postService,
		feedService: feedService,
		log:         log.Named("posts"),
	}
}

// Feed handles GET /api/posts
// Returns the global timeline, newest first. Guests get counts only.
func (h *PostHandler) Feed(w http.ResponseWriter, r *http.Request) {
	viewerID, _ := middleware.GetUserIDFromContext(r.Context())

	limit, ok := httputil.QueryInt(r, "limit", model.DefaultPageSize)
	if !ok || limit <= 0 {
		httputil.WriteBadRequest(w, "Invalid limit parameter")
		return
	}

	feed, err := h.feedService.GetFeed(r.Context(), viewerID, httputil.OptionalQuery(r, "cursor"), limit)
	if err != nil {
		httputil.WriteServiceError(w, h.log, err, "Failed to fetch feed")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, feed)
}

// Create handles POST /api/posts
// Accepts either multipart form data (image, caption) or JSON with an
// already uploaded image URL.
func (h *PostHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		h.createFromUpload(w, r, userID)
		return
	}

	var req model.CreatePostRequest
	if !httputil.DecodeJSON(w, r, &req, maxJSONBody) {
		return
	}

	post, err := h.postService.Create(r.Context(), userID, req)
	if err != nil {
		httputil.WriteServiceError(w, h.log, err, "Failed to create post")
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, post)
}

func (h *PostHandler) createFromUpload(w http.ResponseWriter, r *http.Request, userID string) {
	maxFormSize := int64(model.MaxPostImageSize) + 1024*1024 // allow form overhead
	r.Body = http.MaxBytesReader(w, r.Body, maxFormSize)
	if err := r.ParseMultipartForm(maxFormSize); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			httputil.WriteError(w, http.StatusRequestEntityTooLarge, model.CodeFileTooLarge, "Image exceeds 10MB limit")
			return
		}
		httputil.WriteBadRequest(w, "Invalid form data")
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		httputil.WriteBadRequest(w, model.ErrImageRequired.Error())
		return
	}
	defer file.Close()

	var caption *string
	if c := r.FormValue("caption"); c != "" {
		caption = &c
	}

	post, err := h.postService.CreateWithImage(r.Context(), userID, file, header.Size, header.Header.Get("Content-Type"), caption)
	if err != nil {
		httputil.WriteServiceError(w, h.log, err, "Failed to create post")
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, post)
}

// Get handles GET /api/posts/{id}
func (h *PostHandler) Get(w http.ResponseWriter, r *http.Request) {
	viewerID, _ := middleware.GetUserIDFromContext(r.Context())

	post, err := h.postService.Get(r.Context(), chi.URLParam(r, "id"), viewerID)
	if err != nil {
		httputil.WriteServiceError(w, h.log, err, "Failed to get post")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, post)
}

// Delete handles DELETE /api/posts/{id}
// Only the owner can delete a post.
func (h *PostHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	if err := h.postService.Delete(r.Context(), chi.URLParam(r, "id"), userID); err != nil {
		httputil.WriteServiceError(w, h.log, err, "Failed to delete post")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ListByUser handles GET /api/users/{id}/posts
// Returns a page of the user's posts for the profile grid.
func (h *PostHandler) ListByUser(w http.ResponseWriter, r *http.Request) {
	limit, ok := httputil.QueryInt(r, "limit", model.DefaultPageSize)
	if !ok || limit <= 0 {
		httputil.WriteBadRequest(w, "Invalid limit parameter")
		return
	}

	posts, err := h.postService.ListByUser(r.Context(), chi.URLParam(r, "id"), httputil.OptionalQuery(r, "cursor"), limit)
	if err != nil {
		httputil.WriteServiceError(w, h.log, err, "Failed to get user posts")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, posts)
}
