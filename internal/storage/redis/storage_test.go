package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"

	"github.com/athenaeum/moirai/internal/model"
)

type StorageSuite struct {
	suite.Suite
	mini    *miniredis.Miniredis
	storage *Storage
	ctx     context.Context
}

func TestStorageSuite(t *testing.T) {
	suite.Run(t, new(StorageSuite))
}

func (s *StorageSuite) SetupTest() {
	s.mini = miniredis.RunT(s.T())

	client := redis.NewClient(&redis.Options{
		Addr: s.mini.Addr(),
	})

	cfg := DefaultConfig()
	cfg.GuestUserTTL = time.Hour

	s.storage = NewWithClient(client, cfg)
	s.ctx = context.Background()
}

func (s *StorageSuite) TearDownTest() {
	if s.storage != nil {
		_ = s.storage.Close()
	}
	if s.mini != nil {
		s.mini.Close()
	}
}

// User tests

func (s *StorageSuite) TestSaveAndGetUser() {
	user := &model.User{
		ID:          "user-1",
		DisplayName: "Alice",
		IsGuest:     false,
		CreatedAt:   time.Now().UTC(),
	}

	s.Require().NoError(s.storage.SaveUser(s.ctx, user))

	got, err := s.storage.GetUser(s.ctx, "user-1")
	s.Require().NoError(err)
	s.Equal(user.ID, got.ID)
	s.Equal("Alice", got.DisplayName)
}

func (s *StorageSuite) TestGetMissingUser() {
	_, err := s.storage.GetUser(s.ctx, "nope")
	s.ErrorIs(err, model.ErrUserNotFound)
}

func (s *StorageSuite) TestGuestUserExpires() {
	user := &model.User{ID: "guest-1", DisplayName: "Guest", IsGuest: true}
	s.Require().NoError(s.storage.SaveUser(s.ctx, user))

	s.mini.FastForward(2 * time.Hour)

	_, err := s.storage.GetUser(s.ctx, "guest-1")
	s.ErrorIs(err, model.ErrUserNotFound)
}

func (s *StorageSuite) TestRegisteredUserDoesNotExpire() {
	user := &model.User{ID: "user-1", DisplayName: "Alice", IsGuest: false}
	s.Require().NoError(s.storage.SaveUser(s.ctx, user))

	s.mini.FastForward(48 * time.Hour)

	_, err := s.storage.GetUser(s.ctx, "user-1")
	s.NoError(err)
}

// Registered user tests

func (s *StorageSuite) TestRegisteredUserEmailIndex() {
	ru := &model.RegisteredUser{
		UserID:       "user-1",
		Email:        "alice@example.com",
		PasswordHash: "hash",
		CreatedAt:    time.Now().UTC(),
	}
	s.Require().NoError(s.storage.SaveRegisteredUser(s.ctx, ru))

	got, err := s.storage.GetRegisteredUserByEmail(s.ctx, "alice@example.com")
	s.Require().NoError(err)
	s.Equal(model.UserID("user-1"), got.UserID)

	_, err = s.storage.GetRegisteredUserByEmail(s.ctx, "bob@example.com")
	s.ErrorIs(err, model.ErrUserNotFound)
}

// Provider identity tests

func (s *StorageSuite) TestProviderLink() {
	s.Require().NoError(s.storage.SaveProviderLink(s.ctx, "google", "sub-123", "user-1"))

	id, err := s.storage.GetUserIDByProvider(s.ctx, "google", "sub-123")
	s.Require().NoError(err)
	s.Equal(model.UserID("user-1"), id)

	_, err = s.storage.GetUserIDByProvider(s.ctx, "github", "sub-123")
	s.ErrorIs(err, model.ErrUserNotFound)
}

// Profile tests

func (s *StorageSuite) TestSaveAndGetProfile() {
	profile := model.NewProfile("user-1", "alice", time.Now().UTC())
	profile.CurrentScore = 30
	profile.HighestScore = 70

	s.Require().NoError(s.storage.SaveProfile(s.ctx, profile))

	got, err := s.storage.GetProfile(s.ctx, "user-1")
	s.Require().NoError(err)
	s.Equal(30, got.CurrentScore)
	s.Equal(70, got.HighestScore)
	s.Equal(1, got.DifficultyTier)
}

func (s *StorageSuite) TestGetMissingProfile() {
	_, err := s.storage.GetProfile(s.ctx, "nope")
	s.ErrorIs(err, model.ErrProfileNotFound)
}

func (s *StorageSuite) TestDeleteProfile() {
	profile := model.NewProfile("user-1", "alice", time.Now().UTC())
	s.Require().NoError(s.storage.SaveProfile(s.ctx, profile))
	s.Require().NoError(s.storage.DeleteProfile(s.ctx, "user-1"))

	_, err := s.storage.GetProfile(s.ctx, "user-1")
	s.ErrorIs(err, model.ErrProfileNotFound)
}
