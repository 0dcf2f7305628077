package services

import (
	"context"
	"fmt"

	"github.com/disgoorg/quest-bot/questbot/config"
	"github.com/disgoorg/quest-bot/questbot/database/models"
	"github.com/disgoorg/quest-bot/questbot/database/repositories"
	lru "github.com/hashicorp/golang-lru"
)

// UserService resolves Discord identities to stored users. Users are never deleted,
// so cached entries only go stale on a username change.
type UserService struct {
	store Store
	cache *lru.Cache
}

func NewUserService(store Store) (*UserService, error) {
	cache, err := lru.New(config.UserCacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create user cache: %w", err)
	}
	return &UserService{store: store, cache: cache}, nil
}

// GetOrCreate returns the user for discordID, creating it on first sight.
// A non-empty username that differs from the stored one is saved.
func (s *UserService) GetOrCreate(ctx context.Context, discordID, username string, isAdmin bool) (*models.User, error) {
	if v, ok := s.cache.Get(discordID); ok {
		user := v.(*models.User)
		if username == "" || user.Username == username {
			return user, nil
		}
	}

	r := s.store.Repos()
	user, err := r.Users.GetByDiscordID(ctx, discordID)
	if err == nil && (username == "" || user.Username == username) && user.IsAdmin == isAdmin {
		s.cache.Add(discordID, user)
		return user, nil
	}
	if err != nil && !repositories.IsNotFound(err) {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	if user == nil {
		user = &models.User{DiscordID: discordID}
	}
	if username != "" {
		user.Username = username
	}
	user.IsAdmin = isAdmin
	if err = r.Users.Upsert(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to save user: %w", err)
	}

	s.cache.Add(discordID, user)
	return user, nil
}

// Get returns a known user without creating one.
func (s *UserService) Get(ctx context.Context, discordID string) (*models.User, error) {
	if v, ok := s.cache.Get(discordID); ok {
		return v.(*models.User), nil
	}
	user, err := s.store.Repos().Users.GetByDiscordID(ctx, discordID)
	if err != nil {
		if repositories.IsNotFound(err) {
			return nil, fmt.Errorf("user %s: %w", discordID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	s.cache.Add(discordID, user)
	return user, nil
}

// Seed makes sure both configured identities exist.
func (s *UserService) Seed(ctx context.Context, adminID, participantID string) error {
	if _, err := s.GetOrCreate(ctx, adminID, "", true); err != nil {
		return fmt.Errorf("failed to seed admin: %w", err)
	}
	if _, err := s.GetOrCreate(ctx, participantID, "", false); err != nil {
		return fmt.Errorf("failed to seed participant: %w", err)
	}
	return nil
}
