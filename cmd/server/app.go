package main

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"zoskagram/internal/config"
	"zoskagram/internal/database"
	"zoskagram/internal/logger"
	"zoskagram/internal/model"
	"zoskagram/internal/redis"
	"zoskagram/internal/repository"
	"zoskagram/internal/service"
)

// app holds what every subcommand opens: config, logger and the store.
// Redis is opened only by the commands that need it.
type app struct {
	cfg   *config.Config
	log   *zap.Logger
	db    *sqlx.DB
	redis *redis.Client
}

func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.LoadConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	log := logger.New(cfg.LogLevel, cfg.LogFile)

	db, err := database.Connect(ctx, cfg, log)
	if err != nil {
		_ = log.Sync()
		return nil, err
	}

	return &app{cfg: cfg, log: log, db: db}, nil
}

// connectRedis opens Redis and fails fast when it is unreachable.
func (a *app) connectRedis(ctx context.Context, name string) error {
	client, err := redis.Connect(ctx, a.cfg.RedisURL, name, a.log)
	if err != nil {
		return err
	}
	a.redis = client
	return nil
}

func (a *app) Close() {
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.log.Warn("Failed to close Redis", zap.Error(err))
		}
	}
	if err := a.db.Close(); err != nil {
		a.log.Warn("Failed to close database", zap.Error(err))
	}
	_ = a.log.Sync()
}

// repos are shared by the server, the worker and the seeder.
type repos struct {
	users    repository.UserRepository
	profiles repository.ProfileRepository
	posts    repository.PostRepository
	comments repository.CommentRepository
}

func (a *app) repos() repos {
	return repos{
		users:    repository.NewUserRepository(a.db),
		profiles: repository.NewProfileRepository(a.db),
		posts:    repository.NewPostRepository(a.db),
		comments: repository.NewCommentRepository(a.db),
	}
}

// togglers is one Toggler per relation.
type togglers struct {
	likes, commentLikes, follows, saves *service.Toggler
}

func (a *app) togglers(r repos) togglers {
	newToggler := func(rel model.Relation) *service.Toggler {
		return service.NewToggler(a.db, repository.NewEdgeRepository(a.db, rel), r.users, r.profiles, a.log)
	}
	return togglers{
		likes:        newToggler(model.RelationPostLike),
		commentLikes: newToggler(model.RelationCommentLike),
		follows:      newToggler(model.RelationFollow),
		saves:        newToggler(model.RelationSave),
	}
}
