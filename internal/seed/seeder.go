package seed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"go.uber.org/zap"

	"zoskagram/internal/model"
	"zoskagram/internal/service"
)

// ProviderSeed marks accounts created by the seeder, so seeding twice finds
// the same users instead of creating new ones.
const ProviderSeed = "seed"

// File is the seed document.
type File struct {
	Users []User `json:"users"`
}

type User struct {
	Key       string   `json:"key"`
	Name      string   `json:"name"`
	Email     string   `json:"email"`
	Image     string   `json:"image"`
	Bio       *string  `json:"bio"`
	Location  *string  `json:"location"`
	Interests []string `json:"interests"`
	Posts     []Post   `json:"posts"`
	Follows   []string `json:"follows"` // keys of other seed users
}

type Post struct {
	ImageURL string  `json:"imageUrl"`
	Caption  *string `json:"caption"`
}

// Result counts what a run created.
type Result struct {
	Users   int
	Posts   int
	Follows int
}

// Parse decodes a seed document and checks that every follow refers to a
// user in the same document.
func Parse(r io.Reader) (*File, error) {
	var f File
	if err := json.NewDecoder(r).Decode(&f); err != nil {
		return nil, fmt.Errorf("decode seed file: %w", err)
	}

	keys := make(map[string]bool, len(f.Users))
	for _, u := range f.Users {
		if u.Key == "" {
			return nil, fmt.Errorf("seed user %q has no key", u.Name)
		}
		if keys[u.Key] {
			return nil, fmt.Errorf("duplicate seed user key %q", u.Key)
		}
		keys[u.Key] = true
	}
	for _, u := range f.Users {
		for _, k := range u.Follows {
			if !keys[k] {
				return nil, fmt.Errorf("seed user %q follows unknown key %q", u.Key, k)
			}
		}
	}
	return &f, nil
}

// Users is the part of the user store the seeder needs.
type Users interface {
	UpsertOAuth(ctx context.Context, ident model.OAuthIdentity) (*model.User, error)
}

// Seeder loads seed documents through the same services the API uses.
type Seeder struct {
	users    Users
	profiles *service.ProfileService
	posts    *service.PostService
	follows  *service.FollowService
	log      *zap.Logger
}

func NewSeeder(users Users, profiles *service.ProfileService, posts *service.PostService, follows *service.FollowService, log *zap.Logger) *Seeder {
	return &Seeder{
		users:    users,
		profiles: profiles,
		posts:    posts,
		follows:  follows,
		log:      log.Named("seed"),
	}
}

// Apply is safe to repeat: users are matched by key, posts are only added
// to users that have none, and existing follows are left in place.
func (s *Seeder) Apply(ctx context.Context, f *File) (*Result, error) {
	res := &Result{}
	ids := make(map[string]string, len(f.Users))

	for _, u := range f.Users {
		user, err := s.users.UpsertOAuth(ctx, model.OAuthIdentity{
			Provider:          ProviderSeed,
			ProviderAccountID: u.Key,
			Name:              u.Name,
			Email:             u.Email,
			Image:             u.Image,
		})
		if err != nil {
			return res, fmt.Errorf("create user %s: %w", u.Key, err)
		}
		ids[u.Key] = user.ID
		res.Users++

		if _, err := s.profiles.Update(ctx, user.ID, user.ID, model.UpdateProfileRequest{
			Bio:       u.Bio,
			Location:  u.Location,
			Interests: u.Interests,
		}); err != nil {
			return res, fmt.Errorf("update profile %s: %w", u.Key, err)
		}

		existing, err := s.posts.ListByUser(ctx, user.ID, nil, 1)
		if err != nil {
			return res, fmt.Errorf("list posts %s: %w", u.Key, err)
		}
		if len(existing.Posts) > 0 {
			continue
		}
		for _, p := range u.Posts {
			if _, err := s.posts.Create(ctx, user.ID, model.CreatePostRequest{ImageURL: p.ImageURL, Caption: p.Caption}); err != nil {
				return res, fmt.Errorf("create post for %s: %w", u.Key, err)
			}
			res.Posts++
		}
	}

	for _, u := range f.Users {
		for _, k := range u.Follows {
			followerID, followingID := ids[u.Key], ids[k]
			if s.follows.IsFollowing(ctx, followerID, followingID) {
				continue
			}
			if _, err := s.follows.Toggle(ctx, followerID, followingID); err != nil {
				return res, fmt.Errorf("follow %s -> %s: %w", u.Key, k, err)
			}
			res.Follows++
		}
	}

	s.log.Info("Seed applied",
		zap.Int("users", res.Users),
		zap.Int("posts", res.Posts),
		zap.Int("follows", res.Follows),
	)
	return res, nil
}
