package service

import (
	"context"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"zoskagram/internal/model"
	"zoskagram/internal/repository"
)

type CommentService struct {
	commentRepo repository.CommentRepository
	postRepo    repository.PostRepository
	userRepo    repository.UserRepository
	likes       *Toggler
	log         *zap.Logger
}

func NewCommentService(
	commentRepo repository.CommentRepository,
	postRepo repository.PostRepository,
	userRepo repository.UserRepository,
	likes *Toggler,
	log *zap.Logger,
) *CommentService {
	return &CommentService{
		commentRepo: commentRepo,
		postRepo:    postRepo,
		userRepo:    userRepo,
		likes:       likes,
		log:         log.Named("comments"),
	}
}

// Create adds a comment to a post.
func (s *CommentService) Create(ctx context.Context, userID string, req model.CreateCommentRequest) (*model.Comment, error) {
	if userID == "" {
		return nil, model.ErrUnauthorized
	}
	if req.PostID == "" {
		return nil, model.ErrTargetRequired
	}
	content := strings.TrimSpace(req.Content)
	if content == "" {
		return nil, model.ErrContentRequired
	}
	if utf8.RuneCountInString(content) > model.MaxCommentLength {
		return nil, model.ErrContentTooLong
	}

	exists, err := s.postRepo.Exists(ctx, req.PostID)
	if err != nil {
		return nil, model.Failed("check post exists", err)
	}
	if !exists {
		return nil, model.ErrPostNotFound
	}

	comment := &model.Comment{PostID: req.PostID, UserID: userID, Content: content}
	if err := s.commentRepo.Create(ctx, comment); err != nil {
		if isDomainError(err) {
			return nil, err
		}
		return nil, model.Failed("create comment", err)
	}

	// Author info is best-effort
	authors, err := s.userRepo.GetSummaries(ctx, []string{userID})
	if err != nil {
		s.log.Warn("Failed to load comment author", zap.String("user_id", userID), zap.Error(err))
	} else if author, ok := authors[userID]; ok {
		comment.Author = &author
	}

	s.log.Debug("Comment created", zap.String("post_id", req.PostID), zap.String("comment_id", comment.ID))
	return comment, nil
}

// List returns a post's comments newest first. IsLiked is filled in for
// the viewer with one batch query.
func (s *CommentService) List(ctx context.Context, postID, viewerID string) ([]model.Comment, error) {
	if postID == "" {
		return nil, model.ErrTargetRequired
	}
	comments, err := s.commentRepo.ListByPost(ctx, postID)
	if err != nil {
		return nil, model.Failed("list comments", err)
	}

	if viewerID != "" && len(comments) > 0 {
		ids := make([]string, len(comments))
		for i, c := range comments {
			ids[i] = c.ID
		}
		liked := s.likes.BatchStatus(ctx, viewerID, ids)
		for i := range comments {
			comments[i].IsLiked = liked.Has(comments[i].ID)
		}
	}
	return comments, nil
}

// Delete removes a comment. Only its author may delete it.
func (s *CommentService) Delete(ctx context.Context, commentID, userID string) error {
	if userID == "" {
		return model.ErrUnauthorized
	}
	if commentID == "" {
		return model.ErrTargetRequired
	}
	if err := s.commentRepo.Delete(ctx, commentID, userID); err != nil {
		if isDomainError(err) {
			return err
		}
		return model.Failed("delete comment", err)
	}
	return nil
}

// ToggleLike likes or unlikes a comment.
func (s *CommentService) ToggleLike(ctx context.Context, userID, commentID string) (bool, error) {
	return s.likes.Toggle(ctx, userID, commentID)
}

func (s *CommentService) IsLiked(ctx context.Context, userID, commentID string) bool {
	return s.likes.Status(ctx, userID, commentID)
}

func (s *CommentService) LikeCount(ctx context.Context, commentID string) int {
	return s.likes.Count(ctx, commentID)
}

func (s *CommentService) LikedSet(ctx context.Context, userID string, commentIDs []string) model.IDSet {
	return s.likes.BatchStatus(ctx, userID, commentIDs)
}

func (s *CommentService) LikeCounts(ctx context.Context, commentIDs []string) map[string]int {
	return s.likes.BatchCount(ctx, commentIDs)
}
