package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"zoskagram/internal/cache"
	"zoskagram/internal/handler"
	"zoskagram/internal/model"
	"zoskagram/internal/queue"
	"zoskagram/internal/service"
	transport "zoskagram/internal/transport/http"
	"zoskagram/internal/worker"
)

var withWorker bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return runServe(ctx)
	},
}

func init() {
	serveCmd.Flags().BoolVar(&withWorker, "with-worker", false, "Also run the feed worker in this process")
}

func runServe(ctx context.Context) error {
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.connectRedis(ctx, "zoskagram-server"); err != nil {
		return err
	}

	r := a.repos()
	t := a.togglers(r)

	feedCache := cache.NewFeedCache(a.redis.Client, a.log)
	publisher := queue.NewPublisher(a.redis.Client, a.log)
	states := cache.NewStateStore(a.redis.Client)

	feedService := service.NewFeedService(feedCache, r.posts, r.users, t.likes, t.saves, a.log)
	if err := feedService.Warm(ctx); err != nil {
		// The feed falls back to the database until the worker fills the cache
		a.log.Warn("Failed to warm feed cache", zap.Error(err))
	}

	likeService := service.NewLikeService(t.likes)
	followService := service.NewFollowService(t.follows)
	saveService := service.NewSaveService(t.saves, r.posts, feedService)
	commentService := service.NewCommentService(r.comments, r.posts, r.users, t.commentLikes, a.log)
	profileService := service.NewProfileService(a.db, r.users, r.profiles, r.posts, followService, a.log)
	authService := service.NewAuthService(a.cfg, r.users, profileService, states, a.log)

	var (
		mediaService *service.MediaService
		images       service.ImageStore
	)
	mediaService, err = service.NewMediaService(ctx, a.cfg, a.log)
	switch {
	case err == nil:
		images = mediaService
	case errors.Is(err, model.ErrMediaDisabled):
		a.log.Info("Object storage not configured, image uploads disabled")
	default:
		return err
	}
	postService := service.NewPostService(r.posts, r.users, feedService, images, publisher, a.log)

	router := transport.NewRouter(transport.RouterConfig{
		AuthHandler:        handler.NewAuthHandler(authService, profileService, a.cfg, a.log),
		LikeHandler:        handler.NewLikeHandler(likeService, a.log),
		CommentLikeHandler: handler.NewCommentLikeHandler(commentService, a.log),
		FollowHandler:      handler.NewFollowHandler(followService, a.log),
		SaveHandler:        handler.NewSaveHandler(saveService, a.log),
		CommentHandler:     handler.NewCommentHandler(commentService, a.log),
		PostHandler:        handler.NewPostHandler(postService, feedService, a.log),
		ProfileHandler:     handler.NewProfileHandler(profileService, a.log),
		MediaHandler:       handler.NewMediaHandler(mediaService, a.log),
		Tokens:             authService,
		AllowedOrigins:     a.cfg.AllowedOrigins(),
		Logger:             a.log,
	})

	if withWorker {
		manager := newWorkerManager(a, r, feedCache)
		if err := manager.Start(ctx); err != nil {
			return err
		}
		defer manager.Stop()
	}

	server := transport.NewServer(":"+a.cfg.ServerPort, router, a.log)
	return server.Run(ctx)
}

func newWorkerManager(a *app, r repos, feedCache cache.FeedCache) *worker.Manager {
	cfg := worker.DefaultManagerConfig()
	cfg.WorkerCount = a.cfg.WorkerCount
	return worker.NewManager(
		queue.NewConsumer(a.redis.Client, a.log),
		worker.NewHandler(feedCache, r.posts, a.log),
		cfg,
		a.log,
	)
}
