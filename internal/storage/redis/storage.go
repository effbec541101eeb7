package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/athenaeum/moirai/internal/model"
	"github.com/athenaeum/moirai/internal/storage"
)

// Storage is a Redis-backed implementation of the storage interface
type Storage struct {
	client *redis.Client
	cfg    Config
}

// New creates a new Redis storage instance
func New(cfg Config) (*Storage, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns

	client := redis.NewClient(opts)

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &Storage{
		client: client,
		cfg:    cfg,
	}, nil
}

// NewWithClient creates a Redis storage with an existing client (for testing)
func NewWithClient(client *redis.Client, cfg Config) *Storage {
	return &Storage{
		client: client,
		cfg:    cfg,
	}
}

// Close closes the Redis connection
func (s *Storage) Close() error {
	return s.client.Close()
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// User operations

func (s *Storage) SaveUser(ctx context.Context, user *model.User) error {
	data, err := json.Marshal(user)
	if err != nil {
		return err
	}

	// Apply TTL only for guest accounts
	var ttl time.Duration
	if user.IsGuest {
		ttl = s.cfg.GuestUserTTL
	}

	return s.client.Set(ctx, userKey(user.ID), data, ttl).Err()
}

func (s *Storage) GetUser(ctx context.Context, id model.UserID) (*model.User, error) {
	data, err := s.client.Get(ctx, userKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrUserNotFound
		}
		return nil, err
	}

	var user model.User
	if err := json.Unmarshal(data, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *Storage) DeleteUser(ctx context.Context, id model.UserID) error {
	return s.client.Del(ctx, userKey(id)).Err()
}

// Registered user operations

func (s *Storage) SaveRegisteredUser(ctx context.Context, ru *model.RegisteredUser) error {
	data, err := json.Marshal(ru)
	if err != nil {
		return err
	}

	// Use pipeline for atomic save + index update
	pipe := s.client.Pipeline()
	pipe.Set(ctx, registeredUserKey(ru.UserID), data, 0) // No TTL
	pipe.Set(ctx, emailIndexKey(ru.Email), string(ru.UserID), 0)
	_, err = pipe.Exec(ctx)
	return err
}

func (s *Storage) GetRegisteredUser(ctx context.Context, userID model.UserID) (*model.RegisteredUser, error) {
	data, err := s.client.Get(ctx, registeredUserKey(userID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrUserNotFound
		}
		return nil, err
	}

	var ru model.RegisteredUser
	if err := json.Unmarshal(data, &ru); err != nil {
		return nil, err
	}
	return &ru, nil
}

func (s *Storage) GetRegisteredUserByEmail(ctx context.Context, email string) (*model.RegisteredUser, error) {
	// Look up user ID from email index
	userIDStr, err := s.client.Get(ctx, emailIndexKey(email)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrUserNotFound
		}
		return nil, err
	}

	return s.GetRegisteredUser(ctx, model.UserID(userIDStr))
}

// Provider identity operations

func (s *Storage) SaveProviderLink(ctx context.Context, provider, subject string, userID model.UserID) error {
	return s.client.Set(ctx, providerIndexKey(provider, subject), string(userID), 0).Err()
}

func (s *Storage) GetUserIDByProvider(ctx context.Context, provider, subject string) (model.UserID, error) {
	userIDStr, err := s.client.Get(ctx, providerIndexKey(provider, subject)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", model.ErrUserNotFound
		}
		return "", err
	}
	return model.UserID(userIDStr), nil
}

// Profile operations

func (s *Storage) SaveProfile(ctx context.Context, profile *model.Profile) error {
	data, err := json.Marshal(profile)
	if err != nil {
		return err
	}

	// Profiles are never expired; stats outlive guest sessions only when
	// the account itself persists
	return s.client.Set(ctx, profileKey(profile.UserID), data, 0).Err()
}

func (s *Storage) GetProfile(ctx context.Context, userID model.UserID) (*model.Profile, error) {
	data, err := s.client.Get(ctx, profileKey(userID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrProfileNotFound
		}
		return nil, err
	}

	var profile model.Profile
	if err := json.Unmarshal(data, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

func (s *Storage) DeleteProfile(ctx context.Context, userID model.UserID) error {
	return s.client.Del(ctx, profileKey(userID)).Err()
}
