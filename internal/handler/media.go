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

type MediaHandler struct {
	mediaService *service.MediaService // nil when storage is not configured
	log          *zap.Logger
}

func NewMediaHandler(mediaService *service.MediaService, log *zap.Logger) *MediaHandler {
	return &MediaHandler{mediaService: mediaService, log: log.Named("media")}
}

// PresignPostUpload handles POST /api/media/presign
// Returns a presigned URL for uploading a post image directly to R2.
func (h *MediaHandler) PresignPostUpload(w http.ResponseWriter, r *http.Request) {
	if _, ok := middleware.GetUserIDFromContext(r.Context()); !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}
	if h.mediaService == nil {
		httputil.WriteServiceError(w, h.log, model.ErrMediaDisabled, "")
		return
	}

	var req model.PresignPostUploadRequest
	if !httputil.DecodeJSON(w, r, &req, maxJSONBody) {
		return
	}
	req.ContentType = strings.TrimSpace(req.ContentType)
	if req.ContentType == "" {
		httputil.WriteBadRequest(w, "contentType is required")
		return
	}

	res, err := h.mediaService.PresignPostUpload(r.Context(), req)
	if err != nil {
		httputil.WriteServiceError(w, h.log, err, "Failed to create upload URL")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, res)
}
