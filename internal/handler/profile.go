package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"zoskagram/internal/httputil"
	"zoskagram/internal/model"
	"zoskagram/internal/service"
	"zoskagram/internal/transport/http/middleware"
)

type ProfileHandler struct {
	profileService *service.ProfileService
	log            *zap.Logger
}

func NewProfileHandler(profileService *service.ProfileService, log *zap.Logger) *ProfileHandler {
	return &ProfileHandler{profileService: profileService, log: log.Named("profiles")}
}

// Get handles GET /api/profile/{id}
func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	viewerID, _ := middleware.GetUserIDFromContext(r.Context())

	view, err := h.profileService.Get(r.Context(), chi.URLParam(r, "id"), viewerID)
	if err != nil {
		httputil.WriteServiceError(w, h.log, err, "Failed to get profile")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, view)
}

// Update handles PUT /api/profile/{id}
// Only the owner may edit a profile.
func (h *ProfileHandler) Update(w http.ResponseWriter, r *http.Request) {
	actorID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	var req model.UpdateProfileRequest
	if !httputil.DecodeJSON(w, r, &req, maxJSONBody) {
		return
	}

	profile, err := h.profileService.Update(r.Context(), chi.URLParam(r, "id"), actorID, req)
	if err != nil {
		httputil.WriteServiceError(w, h.log, err, "Failed to update profile")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, profile)
}

// Search handles GET /api/profiles?q=
func (h *ProfileHandler) Search(w http.ResponseWriter, r *http.Request) {
	results, err := h.profileService.Search(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		httputil.WriteServiceError(w, h.log, err, "Failed to search profiles")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]any{"profiles": results})
}
