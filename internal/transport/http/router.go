package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"zoskagram/internal/handler"
	"zoskagram/internal/httputil"
	authmw "zoskagram/internal/transport/http/middleware"
)

const requestTimeout = 30 * time.Second

// RouterConfig holds the dependencies needed to create routes
type RouterConfig struct {
	AuthHandler        *handler.AuthHandler
	LikeHandler        *handler.ToggleHandler
	CommentLikeHandler *handler.ToggleHandler
	FollowHandler      *handler.ToggleHandler
	SaveHandler        *handler.SaveHandler
	CommentHandler     *handler.CommentHandler
	PostHandler        *handler.PostHandler
	ProfileHandler     *handler.ProfileHandler
	MediaHandler       *handler.MediaHandler
	Tokens             authmw.TokenValidator
	AllowedOrigins     []string
	Logger             *zap.Logger
}

// NewRouter creates and configures a new Chi router with all route groups
func NewRouter(cfg RouterConfig) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(authmw.RequestLogger(cfg.Logger))
	r.Use(middleware.Recoverer)
	r.Use(authmw.Metrics)
	r.Use(cors.New(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	}).Handler)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())

	requireAuth := authmw.AuthMiddleware(cfg.Tokens)
	optionalAuth := authmw.OptionalAuthMiddleware(cfg.Tokens)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(requestTimeout))

		r.Route("/auth", func(r chi.Router) {
			r.Get("/{provider}/login", cfg.AuthHandler.Login)
			r.Get("/{provider}/callback", cfg.AuthHandler.Callback)
			r.Post("/logout", cfg.AuthHandler.Logout)
		})

		r.Route("/api", func(r chi.Router) {
			// Readable by guests; the viewer's own state is filled in when signed in
			r.Group(func(r chi.Router) {
				r.Use(optionalAuth)

				r.Post("/likes/batch", cfg.LikeHandler.Batch)
				r.Post("/comments/likes/batch", cfg.CommentLikeHandler.Batch)
				r.Post("/follows/batch", cfg.FollowHandler.Batch)
				r.Post("/saves/batch", cfg.SaveHandler.Batch)

				r.Get("/comments", cfg.CommentHandler.List)
				r.Get("/posts", cfg.PostHandler.Feed)
				r.Get("/posts/{id}", cfg.PostHandler.Get)
				r.Get("/users/{id}/posts", cfg.PostHandler.ListByUser)
				r.Get("/profile/{id}", cfg.ProfileHandler.Get)
				r.Get("/profiles", cfg.ProfileHandler.Search)
			})

			r.Group(func(r chi.Router) {
				r.Use(requireAuth)

				r.Get("/me", cfg.AuthHandler.Me)

				r.Post("/likes", cfg.LikeHandler.Toggle)
				r.Get("/likes", cfg.LikeHandler.Status)
				r.Post("/comments/likes", cfg.CommentLikeHandler.Toggle)
				r.Get("/comments/likes", cfg.CommentLikeHandler.Status)
				r.Post("/follows", cfg.FollowHandler.Toggle)
				r.Get("/follows", cfg.FollowHandler.Status)
				r.Post("/saves", cfg.SaveHandler.Toggle)
				r.Get("/saves", cfg.SaveHandler.Status)
				r.Get("/saves/posts", cfg.SaveHandler.ListSaved)

				r.Post("/comments", cfg.CommentHandler.Create)
				r.Delete("/comments", cfg.CommentHandler.Delete)

				r.Post("/posts", cfg.PostHandler.Create)
				r.Delete("/posts/{id}", cfg.PostHandler.Delete)

				r.Post("/media/presign", cfg.MediaHandler.PresignPostUpload)
				r.Put("/profile/{id}", cfg.ProfileHandler.Update)
			})
		})
	})

	return r
}
