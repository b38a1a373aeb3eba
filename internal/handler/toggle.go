package handler

import (
	"context"
	"net/http"
	"slices"
	"strings"

	"go.uber.org/zap"

	"zoskagram/internal/httputil"
	"zoskagram/internal/model"
	"zoskagram/internal/transport/http/middleware"
)

const maxJSONBody = 1 << 20

// ToggleHandler serves the three endpoints every relation has:
//
//	POST /api/<relation>        {"<idField>": "..."}  -> {"<key>": bool}
//	GET  /api/<relation>?<idParam>=...                -> {"<key>": bool, "count": n}
//	POST /api/<relation>/batch  {"<idsField>": [...]} -> {"<key>": [...], "counts": {...}}
type ToggleHandler struct {
	key     string
	idParam string
	bodyID  func(model.ToggleRequest) string
	bodyIDs func(model.BatchRequest) []string

	toggle      func(ctx context.Context, actorID, targetID string) (bool, error)
	status      func(ctx context.Context, actorID, targetID string) bool
	count       func(ctx context.Context, targetID string) int
	batchStatus func(ctx context.Context, actorID string, targetIDs []string) model.IDSet
	batchCount  func(ctx context.Context, targetIDs []string) map[string]int

	log *zap.Logger
}

// Toggle flips the caller's edge to the target.
func (h *ToggleHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	actorID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	var req model.ToggleRequest
	if !httputil.DecodeJSON(w, r, &req, maxJSONBody) {
		return
	}
	targetID := strings.TrimSpace(h.bodyID(req))
	if targetID == "" {
		httputil.WriteBadRequest(w, model.ErrTargetRequired.Error())
		return
	}

	active, err := h.toggle(r.Context(), actorID, targetID)
	if err != nil {
		httputil.WriteServiceError(w, h.log, err, "Failed to toggle "+h.key)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]bool{h.key: active})
}

// Status reports whether the caller has the edge, plus the target's count.
func (h *ToggleHandler) Status(w http.ResponseWriter, r *http.Request) {
	actorID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	targetID := strings.TrimSpace(r.URL.Query().Get(h.idParam))
	if targetID == "" {
		httputil.WriteBadRequest(w, model.ErrTargetRequired.Error())
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		h.key:   h.status(r.Context(), actorID, targetID),
		"count": h.count(r.Context(), targetID),
	})
}

// Batch answers status and counts for many targets in two queries. Guests
// get counts and an empty status list.
func (h *ToggleHandler) Batch(w http.ResponseWriter, r *http.Request) {
	actorID, _ := middleware.GetUserIDFromContext(r.Context())

	var req model.BatchRequest
	if !httputil.DecodeJSON(w, r, &req, maxJSONBody) {
		return
	}
	ids := h.bodyIDs(req)
	if len(ids) == 0 {
		httputil.WriteBadRequest(w, model.ErrTargetRequired.Error())
		return
	}
	if len(ids) > model.MaxBatchSize {
		httputil.WriteBadRequest(w, model.ErrBatchTooLarge.Error())
		return
	}

	active := h.batchStatus(r.Context(), actorID, ids).Slice()
	slices.Sort(active)
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		h.key:    active,
		"counts": h.batchCount(r.Context(), ids),
	})
}
