package handler

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"zoskagram/internal/config"
	"zoskagram/internal/httputil"
	"zoskagram/internal/model"
	"zoskagram/internal/service"
	"zoskagram/internal/transport/http/middleware"
)

// AuthHandler groups the OAuth login endpoints and /api/me.
type AuthHandler struct {
	authService    *service.AuthService
	profileService *service.ProfileService
	config         *config.Config
	log            *zap.Logger
}

func NewAuthHandler(authService *service.AuthService, profileService *service.ProfileService, cfg *config.Config, log *zap.Logger) *AuthHandler {
	return &AuthHandler{
		authService:    authService,
		profileService: profileService,
		config:         cfg,
		log:            log.Named("auth"),
	}
}

// Login handles GET /auth/{provider}/login
// Redirects to the provider's consent page.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	url, err := h.authService.LoginURL(r.Context(), chi.URLParam(r, "provider"))
	if err != nil {
		httputil.WriteServiceError(w, h.log, err, "Failed to start login")
		return
	}
	http.Redirect(w, r, url, http.StatusFound)
}

// Callback handles GET /auth/{provider}/callback
// Sets the session cookie and sends browsers back to the frontend. Clients
// that ask for JSON get the token in the body instead.
func (h *AuthHandler) Callback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if errCode := q.Get("error"); errCode != "" {
		httputil.WriteUnauthorized(w, "Login was cancelled: "+errCode)
		return
	}

	user, token, err := h.authService.Callback(r.Context(), chi.URLParam(r, "provider"), q.Get("state"), q.Get("code"))
	if err != nil {
		httputil.WriteServiceError(w, h.log, err, "Failed to complete login")
		return
	}

	maxAge := int(h.authService.MaxAge().Seconds())
	h.setSessionCookie(w, token, maxAge)

	if strings.Contains(r.Header.Get("Accept"), "application/json") {
		httputil.WriteJSON(w, http.StatusOK, model.LoginResponse{User: user, Token: token, ExpiresIn: maxAge})
		return
	}
	http.Redirect(w, r, h.config.FrontendURL, http.StatusFound)
}

// Logout handles POST /auth/logout
// Sessions are stateless tokens, so logging out clears the cookie.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.setSessionCookie(w, "", -1)
	w.WriteHeader(http.StatusNoContent)
}

// Me handles GET /api/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	view, err := h.profileService.Get(r.Context(), userID, userID)
	if err != nil {
		httputil.WriteServiceError(w, h.log, err, "Failed to get current user")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, view)
}

func (h *AuthHandler) setSessionCookie(w http.ResponseWriter, value string, maxAge int) {
	http.SetCookie(w, &http.Cookie{
		Name:     model.SessionCookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   h.config.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}
