package service

import (
	"context"
	"io"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"zoskagram/internal/model"
	"zoskagram/internal/queue"
	"zoskagram/internal/repository"
)

// ImageStore is the part of MediaService posts need.
type ImageStore interface {
	UploadPostImage(ctx context.Context, r io.Reader, size int64, contentType string) (*model.UploadResult, error)
	DeleteObject(ctx context.Context, key string) error
}

type PostService struct {
	postRepo  repository.PostRepository
	userRepo  repository.UserRepository
	feed      *FeedService
	images    ImageStore      // nil when object storage is not configured
	publisher queue.Publisher // nil disables feed events
	log       *zap.Logger
}

func NewPostService(
	postRepo repository.PostRepository,
	userRepo repository.UserRepository,
	feed *FeedService,
	images ImageStore,
	publisher queue.Publisher,
	log *zap.Logger,
) *PostService {
	return &PostService{
		postRepo:  postRepo,
		userRepo:  userRepo,
		feed:      feed,
		images:    images,
		publisher: publisher,
		log:       log.Named("posts"),
	}
}

// Create creates a post from an image that is already stored and publishes
// an event so the feed cache picks it up.
func (s *PostService) Create(ctx context.Context, userID string, req model.CreatePostRequest) (*model.FeedPost, error) {
	if userID == "" {
		return nil, model.ErrUnauthorized
	}
	if strings.TrimSpace(req.ImageURL) == "" {
		return nil, model.ErrImageRequired
	}
	caption := normalizeCaption(req.Caption)
	if caption != nil && utf8.RuneCountInString(*caption) > model.MaxCaptionLength {
		return nil, model.ErrCaptionTooLong
	}

	post := &model.Post{
		UserID:   userID,
		ImageURL: strings.TrimSpace(req.ImageURL),
		ImageKey: req.ImageKey,
		Caption:  caption,
	}
	if err := s.postRepo.Create(ctx, post); err != nil {
		if isDomainError(err) {
			return nil, err
		}
		return nil, model.Failed("create post", err)
	}

	s.publish(ctx, queue.NewPostCreatedEvent(post.ID, userID, post.CreatedAt))

	enriched := s.feed.Enrich(ctx, userID, []model.Post{*post})
	return &enriched[0], nil
}

// CreateWithImage uploads the image and creates the post. The uploaded
// object is removed again if the post cannot be created.
func (s *PostService) CreateWithImage(ctx context.Context, userID string, image io.Reader, size int64, contentType string, caption *string) (*model.FeedPost, error) {
	if userID == "" {
		return nil, model.ErrUnauthorized
	}
	if s.images == nil {
		return nil, model.ErrMediaDisabled
	}
	caption = normalizeCaption(caption)
	if caption != nil && utf8.RuneCountInString(*caption) > model.MaxCaptionLength {
		return nil, model.ErrCaptionTooLong
	}

	upload, err := s.images.UploadPostImage(ctx, image, size, contentType)
	if err != nil {
		return nil, err
	}

	post, err := s.Create(ctx, userID, model.CreatePostRequest{
		ImageURL: upload.URL,
		ImageKey: &upload.Key,
		Caption:  caption,
	})
	if err != nil {
		if delErr := s.images.DeleteObject(ctx, upload.Key); delErr != nil {
			s.log.Warn("Failed to remove orphaned upload", zap.String("key", upload.Key), zap.Error(delErr))
		}
		return nil, err
	}
	return post, nil
}

// Get returns a single post enriched for viewerID.
func (s *PostService) Get(ctx context.Context, postID, viewerID string) (*model.FeedPost, error) {
	if postID == "" {
		return nil, model.ErrTargetRequired
	}
	post, err := s.postRepo.GetByID(ctx, postID)
	if err != nil {
		if isDomainError(err) {
			return nil, err
		}
		return nil, model.Failed("get post", err)
	}
	enriched := s.feed.Enrich(ctx, viewerID, []model.Post{*post})
	return &enriched[0], nil
}

// Delete removes a post owned by userID together with its likes, saves and
// comments. Removing the stored image is best-effort.
func (s *PostService) Delete(ctx context.Context, postID, userID string) error {
	if userID == "" {
		return model.ErrUnauthorized
	}
	post, err := s.postRepo.Delete(ctx, postID, userID)
	if err != nil {
		if isDomainError(err) {
			return err
		}
		return model.Failed("delete post", err)
	}

	if post.ImageKey != nil && s.images != nil {
		if err := s.images.DeleteObject(ctx, *post.ImageKey); err != nil {
			s.log.Warn("Failed to delete post image", zap.String("post_id", postID), zap.Error(err))
		}
	}

	s.publish(ctx, queue.NewPostDeletedEvent(postID, userID))
	return nil
}

// ListByUser pages through a user's posts, newest first.
func (s *PostService) ListByUser(ctx context.Context, userID string, cursor *string, limit int) (*model.PostListResponse, error) {
	if _, err := s.userRepo.GetByID(ctx, userID); err != nil {
		if isDomainError(err) {
			return nil, err
		}
		return nil, model.Failed("get user", err)
	}

	posts, next, err := s.postRepo.ListByUser(ctx, userID, cursor, clampLimit(limit))
	if err != nil {
		if isDomainError(err) {
			return nil, err
		}
		return nil, model.Failed("list user posts", err)
	}

	return &model.PostListResponse{
		Posts:      posts,
		NextCursor: next,
		HasMore:    next != nil,
	}, nil
}

// publish sends a feed event after the write committed. Failure is logged;
// the cache is rebuilt from the database when it expires.
func (s *PostService) publish(ctx context.Context, event queue.PostEvent) {
	if s.publisher == nil {
		return
	}
	msgID, err := s.publisher.Publish(ctx, queue.StreamPosts, event)
	if err != nil {
		s.log.Warn("Failed to publish event",
			zap.String("type", event.Type), zap.String("post_id", event.PostID), zap.Error(err))
		return
	}
	s.log.Debug("Published event",
		zap.String("type", event.Type), zap.String("post_id", event.PostID), zap.String("msg_id", msgID))
}

func normalizeCaption(caption *string) *string {
	if caption == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*caption)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
