package model

import (
	"fmt"
	"time"
)

// User represents an account created through an OAuth provider.
type User struct {
	ID        string    `db:"id" json:"id"`
	Name      *string   `db:"name" json:"name"`
	Email     *string   `db:"email" json:"email,omitempty"`
	Image     *string   `db:"image" json:"image"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// UserSummary is the author/owner block embedded in posts and comments.
type UserSummary struct {
	ID    string  `db:"id" json:"id"`
	Name  *string `db:"name" json:"name"`
	Image *string `db:"image" json:"image"`
}

// Summary returns the public subset of the user.
func (u *User) Summary() UserSummary {
	return UserSummary{ID: u.ID, Name: u.Name, Image: u.Image}
}

// OAuthIdentity is what a provider tells us about the signed-in person.
type OAuthIdentity struct {
	Provider          string
	ProviderAccountID string
	Name              string
	Email             string
	Image             string
}

// Profile is the per-user record that follow edges hang off. It is created
// lazily the first time it is needed.
type Profile struct {
	ID        string    `db:"id" json:"id"`
	UserID    string    `db:"user_id" json:"userId"`
	Bio       *string   `db:"bio" json:"bio"`
	Location  *string   `db:"location" json:"location"`
	AvatarURL *string   `db:"avatar_url" json:"avatarUrl"`
	Interests Interests `db:"interests" json:"interests"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// ProfileView is the response for GET /api/profile/{id}.
type ProfileView struct {
	User           User    `json:"user"`
	Profile        Profile `json:"profile"`
	FollowerCount  int     `json:"followerCount"`
	FollowingCount int     `json:"followingCount"`
	PostCount      int     `json:"postCount"`
	IsFollowing    bool    `json:"isFollowing"`
	Posts          []Post  `json:"posts"`
}

// ProfileSearchResult is one hit of GET /api/profiles.
type ProfileSearchResult struct {
	Profile
	User UserSummary `json:"user"`
}

// UpdateProfileRequest is the body of PUT /api/profile/{id}.
type UpdateProfileRequest struct {
	Name      *string  `json:"name"`
	Bio       *string  `json:"bio"`
	Location  *string  `json:"location"`
	Interests []string `json:"interests"`
}

const (
	MaxNameLength     = 100
	MaxBioLength      = 500
	MaxLocationLength = 100
	MaxInterests      = 20
)

// ProfileCounts are the numbers shown on a profile header.
type ProfileCounts struct {
	Followers int `db:"followers" json:"followers"`
	Following int `db:"following" json:"following"`
	Posts     int `db:"posts" json:"posts"`
}

var (
	ErrNameRequired     = fmt.Errorf("%w: name cannot be empty", ErrInvalidOperation)
	ErrNameTooLong      = fmt.Errorf("%w: name too long", ErrInvalidOperation)
	ErrBioTooLong       = fmt.Errorf("%w: bio too long", ErrInvalidOperation)
	ErrLocationTooLong  = fmt.Errorf("%w: location too long", ErrInvalidOperation)
	ErrTooManyInterests = fmt.Errorf("%w: too many interests", ErrInvalidOperation)
)
