package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"
	"golang.org/x/oauth2/google"

	"zoskagram/internal/cache"
	"zoskagram/internal/config"
	"zoskagram/internal/model"
	"zoskagram/internal/repository"
)

// OAuthProvider is one configured identity provider.
type OAuthProvider struct {
	Config      *oauth2.Config
	UserInfoURL string
	// Identity maps the provider's userinfo document to an identity.
	Identity func(info map[string]any) (model.OAuthIdentity, error)
}

// AuthService runs the OAuth login flow and issues session tokens.
type AuthService struct {
	providers map[string]*OAuthProvider
	users     repository.UserRepository
	profiles  *ProfileService
	states    cache.StateStore
	secret    []byte
	maxAge    time.Duration
	log       *zap.Logger
}

func NewAuthService(
	cfg *config.Config,
	users repository.UserRepository,
	profiles *ProfileService,
	states cache.StateStore,
	log *zap.Logger,
) *AuthService {
	s := &AuthService{
		providers: make(map[string]*OAuthProvider),
		users:     users,
		profiles:  profiles,
		states:    states,
		secret:    []byte(cfg.JWTSecret),
		maxAge:    time.Duration(cfg.SessionMaxAge) * time.Second,
		log:       log.Named("auth"),
	}

	redirect := func(provider string) string {
		return cfg.OAuthRedirectBaseURL + "/auth/" + provider + "/callback"
	}
	if cfg.GoogleClientID != "" {
		s.SetProvider(model.ProviderGoogle, &OAuthProvider{
			Config: &oauth2.Config{
				ClientID:     cfg.GoogleClientID,
				ClientSecret: cfg.GoogleClientSecret,
				RedirectURL:  redirect(model.ProviderGoogle),
				Scopes:       []string{"openid", "email", "profile"},
				Endpoint:     google.Endpoint,
			},
			UserInfoURL: "https://openidconnect.googleapis.com/v1/userinfo",
			Identity:    googleIdentity,
		})
	}
	if cfg.GitHubClientID != "" {
		s.SetProvider(model.ProviderGitHub, &OAuthProvider{
			Config: &oauth2.Config{
				ClientID:     cfg.GitHubClientID,
				ClientSecret: cfg.GitHubClientSecret,
				RedirectURL:  redirect(model.ProviderGitHub),
				Scopes:       []string{"read:user", "user:email"},
				Endpoint:     github.Endpoint,
			},
			UserInfoURL: "https://api.github.com/user",
			Identity:    githubIdentity,
		})
	}
	return s
}

// SetProvider registers or replaces a provider.
func (s *AuthService) SetProvider(name string, p *OAuthProvider) {
	s.providers[name] = p
}

// LoginURL returns the provider's consent URL with a fresh single-use state.
func (s *AuthService) LoginURL(ctx context.Context, provider string) (string, error) {
	p, ok := s.providers[provider]
	if !ok {
		return "", model.ErrUnknownProvider
	}

	state := uuid.NewString()
	if err := s.states.Save(ctx, state, provider, model.OAuthStateTTLSecs*time.Second); err != nil {
		return "", model.Failed("save oauth state", err)
	}
	return p.Config.AuthCodeURL(state), nil
}

// Callback completes the login: it redeems the state, exchanges the code,
// links the provider account to a user and returns a session token.
func (s *AuthService) Callback(ctx context.Context, provider, state, code string) (*model.User, string, error) {
	p, ok := s.providers[provider]
	if !ok {
		return nil, "", model.ErrUnknownProvider
	}
	if state == "" || code == "" {
		return nil, "", model.ErrInvalidState
	}

	issuedFor, err := s.states.Consume(ctx, state)
	if errors.Is(err, cache.ErrStateNotFound) {
		return nil, "", model.ErrInvalidState
	}
	if err != nil {
		return nil, "", model.Failed("consume oauth state", err)
	}
	if issuedFor != provider {
		return nil, "", model.ErrInvalidState
	}

	token, err := p.Config.Exchange(ctx, code)
	if err != nil {
		s.log.Warn("OAuth code exchange failed", zap.String("provider", provider), zap.Error(err))
		return nil, "", fmt.Errorf("%w: code exchange failed", model.ErrUnauthorized)
	}

	ident, err := s.fetchIdentity(ctx, p, token)
	if err != nil {
		return nil, "", model.Failed("fetch user info", err)
	}
	ident.Provider = provider

	user, err := s.users.UpsertOAuth(ctx, ident)
	if err != nil {
		return nil, "", model.Failed("upsert user", err)
	}
	if _, err := s.profiles.Ensure(ctx, user.ID); err != nil {
		return nil, "", err
	}

	session, err := s.IssueToken(user.ID)
	if err != nil {
		return nil, "", model.Failed("issue session token", err)
	}

	s.log.Info("User signed in", zap.String("user_id", user.ID), zap.String("provider", provider))
	return user, session, nil
}

func (s *AuthService) fetchIdentity(ctx context.Context, p *OAuthProvider, token *oauth2.Token) (model.OAuthIdentity, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.UserInfoURL, nil)
	if err != nil {
		return model.OAuthIdentity{}, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.Config.Client(ctx, token).Do(req)
	if err != nil {
		return model.OAuthIdentity{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return model.OAuthIdentity{}, fmt.Errorf("userinfo returned %d: %s", resp.StatusCode, body)
	}

	var info map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return model.OAuthIdentity{}, fmt.Errorf("decode userinfo: %w", err)
	}
	return p.Identity(info)
}

// MaxAge is how long issued session tokens stay valid.
func (s *AuthService) MaxAge() time.Duration {
	return s.maxAge
}

// IssueToken signs an HS256 session token for userID.
func (s *AuthService) IssueToken(userID string) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.maxAge)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// ValidateToken verifies a session token and returns the user id in it.
func (s *AuthService) ValidateToken(tokenString string) (string, error) {
	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(tokenString, &claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", model.ErrTokenExpired
		}
		return "", model.ErrTokenInvalid
	}
	if claims.Subject == "" {
		return "", model.ErrTokenInvalid
	}
	return claims.Subject, nil
}

func googleIdentity(info map[string]any) (model.OAuthIdentity, error) {
	sub := stringField(info, "sub")
	if sub == "" {
		return model.OAuthIdentity{}, errors.New("google userinfo has no sub")
	}
	return model.OAuthIdentity{
		ProviderAccountID: sub,
		Name:              stringField(info, "name"),
		Email:             stringField(info, "email"),
		Image:             stringField(info, "picture"),
	}, nil
}

func githubIdentity(info map[string]any) (model.OAuthIdentity, error) {
	// GitHub ids are JSON numbers
	var id string
	switch v := info["id"].(type) {
	case float64:
		id = strconv.FormatInt(int64(v), 10)
	case string:
		id = v
	}
	if id == "" {
		return model.OAuthIdentity{}, errors.New("github user has no id")
	}
	name := stringField(info, "name")
	if name == "" {
		name = stringField(info, "login")
	}
	return model.OAuthIdentity{
		ProviderAccountID: id,
		Name:              name,
		Email:             stringField(info, "email"),
		Image:             stringField(info, "avatar_url"),
	}, nil
}

func stringField(info map[string]any, key string) string {
	s, _ := info[key].(string)
	return s
}
