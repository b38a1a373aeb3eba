package service

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"zoskagram/internal/model"
	"zoskagram/internal/repository"
)

const profileSearchLimit = 20

type ProfileService struct {
	db          *sqlx.DB
	userRepo    repository.UserRepository
	profileRepo repository.ProfileRepository
	postRepo    repository.PostRepository
	follows     *FollowService
	log         *zap.Logger
}

func NewProfileService(
	db *sqlx.DB,
	userRepo repository.UserRepository,
	profileRepo repository.ProfileRepository,
	postRepo repository.PostRepository,
	follows *FollowService,
	log *zap.Logger,
) *ProfileService {
	return &ProfileService{
		db:          db,
		userRepo:    userRepo,
		profileRepo: profileRepo,
		postRepo:    postRepo,
		follows:     follows,
		log:         log.Named("profiles"),
	}
}

// Ensure returns the user's profile, creating an empty one if needed.
func (s *ProfileService) Ensure(ctx context.Context, userID string) (*model.Profile, error) {
	profile, err := s.profileRepo.Ensure(ctx, s.db, userID)
	if err != nil {
		if isDomainError(err) {
			return nil, err
		}
		return nil, model.Failed("ensure profile", err)
	}
	return profile, nil
}

// Get builds the profile page for userID as seen by viewerID (empty for
// guests). The profile row is created on first visit.
func (s *ProfileService) Get(ctx context.Context, userID, viewerID string) (*model.ProfileView, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if isDomainError(err) {
			return nil, err
		}
		return nil, model.Failed("get user", err)
	}

	profile, err := s.Ensure(ctx, userID)
	if err != nil {
		return nil, err
	}

	view := &model.ProfileView{
		User:    *user,
		Profile: *profile,
		Posts:   []model.Post{},
	}
	// Viewers never see someone else's email
	if viewerID != userID {
		view.User.Email = nil
	}

	// Counts and the post grid degrade to zero values
	counts, err := s.profileRepo.Counts(ctx, userID)
	if err != nil {
		s.log.Warn("Failed to load profile counts", zap.String("user_id", userID), zap.Error(err))
	} else {
		view.FollowerCount = counts.Followers
		view.FollowingCount = counts.Following
		view.PostCount = counts.Posts
	}

	posts, _, err := s.postRepo.ListByUser(ctx, userID, nil, model.MaxPageSize)
	if err != nil {
		s.log.Warn("Failed to load profile posts", zap.String("user_id", userID), zap.Error(err))
	} else {
		view.Posts = posts
	}

	if viewerID != "" && viewerID != userID {
		view.IsFollowing = s.follows.IsFollowing(ctx, viewerID, userID)
	}
	return view, nil
}

// Update edits a profile. Only the owner may edit it. Name lives on the user
// row; both rows change in one transaction.
func (s *ProfileService) Update(ctx context.Context, userID, actorID string, req model.UpdateProfileRequest) (*model.Profile, error) {
	if actorID == "" {
		return nil, model.ErrUnauthorized
	}
	if actorID != userID {
		return nil, model.ErrNotProfileOwner
	}
	if err := validateProfileUpdate(&req); err != nil {
		return nil, err
	}

	profile, err := s.update(ctx, userID, req)
	if err != nil {
		if isDomainError(err) {
			return nil, err
		}
		return nil, model.Failed("update profile", err)
	}
	return profile, nil
}

func (s *ProfileService) update(ctx context.Context, userID string, req model.UpdateProfileRequest) (*model.Profile, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	profile, err := s.profileRepo.Ensure(ctx, tx, userID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		if err := s.userRepo.UpdateName(ctx, tx, userID, req.Name); err != nil {
			return nil, err
		}
	}
	if req.Bio != nil {
		profile.Bio = emptyToNil(*req.Bio)
	}
	if req.Location != nil {
		profile.Location = emptyToNil(*req.Location)
	}
	if req.Interests != nil {
		profile.Interests = req.Interests
	}

	if err := s.profileRepo.Update(ctx, tx, profile); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}

	s.log.Info("Profile updated", zap.String("user_id", userID))
	return profile, nil
}

// Search finds profiles by name or interest.
func (s *ProfileService) Search(ctx context.Context, term string) ([]model.ProfileSearchResult, error) {
	results, err := s.profileRepo.Search(ctx, term, profileSearchLimit)
	if err != nil {
		return nil, model.Failed("search profiles", err)
	}
	return results, nil
}

// validateProfileUpdate trims the fields in place and checks their lengths.
// Interests are deduplicated case-insensitively, keeping the first spelling.
func validateProfileUpdate(req *model.UpdateProfileRequest) error {
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return model.ErrNameRequired
		}
		if utf8.RuneCountInString(name) > model.MaxNameLength {
			return model.ErrNameTooLong
		}
		req.Name = &name
	}
	if req.Bio != nil {
		bio := strings.TrimSpace(*req.Bio)
		if utf8.RuneCountInString(bio) > model.MaxBioLength {
			return model.ErrBioTooLong
		}
		req.Bio = &bio
	}
	if req.Location != nil {
		loc := strings.TrimSpace(*req.Location)
		if utf8.RuneCountInString(loc) > model.MaxLocationLength {
			return model.ErrLocationTooLong
		}
		req.Location = &loc
	}
	if req.Interests != nil {
		seen := make(map[string]struct{}, len(req.Interests))
		interests := make([]string, 0, len(req.Interests))
		for _, in := range req.Interests {
			in = strings.TrimSpace(in)
			key := strings.ToLower(in)
			if in == "" {
				continue
			}
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			interests = append(interests, in)
		}
		if len(interests) > model.MaxInterests {
			return model.ErrTooManyInterests
		}
		req.Interests = interests
	}
	return nil
}

func emptyToNil(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
