package memory

import (
	"context"
	"sync"

	"github.com/athenaeum/moirai/internal/model"
	"github.com/athenaeum/moirai/internal/storage"
)

// Storage is an in-memory implementation of the storage interface
type Storage struct {
	mu sync.RWMutex

	users           map[model.UserID]*model.User
	registeredUsers map[model.UserID]*model.RegisteredUser
	emailIndex      map[string]model.UserID
	providerIndex   map[providerKey]model.UserID
	profiles        map[model.UserID]*model.Profile
}

type providerKey struct {
	provider string
	subject  string
}

// New creates a new in-memory storage instance
func New() *Storage {
	return &Storage{
		users:           make(map[model.UserID]*model.User),
		registeredUsers: make(map[model.UserID]*model.RegisteredUser),
		emailIndex:      make(map[string]model.UserID),
		providerIndex:   make(map[providerKey]model.UserID),
		profiles:        make(map[model.UserID]*model.Profile),
	}
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// User operations

func (s *Storage) SaveUser(ctx context.Context, user *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[user.ID] = user
	return nil
}

func (s *Storage) GetUser(ctx context.Context, id model.UserID) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, ok := s.users[id]
	if !ok {
		return nil, model.ErrUserNotFound
	}
	return user, nil
}

func (s *Storage) DeleteUser(ctx context.Context, id model.UserID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.users, id)
	return nil
}

// Registered user operations

func (s *Storage) SaveRegisteredUser(ctx context.Context, ru *model.RegisteredUser) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.registeredUsers[ru.UserID] = ru
	s.emailIndex[ru.Email] = ru.UserID
	return nil
}

func (s *Storage) GetRegisteredUser(ctx context.Context, userID model.UserID) (*model.RegisteredUser, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ru, ok := s.registeredUsers[userID]
	if !ok {
		return nil, model.ErrUserNotFound
	}
	return ru, nil
}

func (s *Storage) GetRegisteredUserByEmail(ctx context.Context, email string) (*model.RegisteredUser, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	userID, ok := s.emailIndex[email]
	if !ok {
		return nil, model.ErrUserNotFound
	}
	ru, ok := s.registeredUsers[userID]
	if !ok {
		return nil, model.ErrUserNotFound
	}
	return ru, nil
}

// Provider identity operations

func (s *Storage) SaveProviderLink(ctx context.Context, provider, subject string, userID model.UserID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.providerIndex[providerKey{provider, subject}] = userID
	return nil
}

func (s *Storage) GetUserIDByProvider(ctx context.Context, provider, subject string) (model.UserID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	userID, ok := s.providerIndex[providerKey{provider, subject}]
	if !ok {
		return "", model.ErrUserNotFound
	}
	return userID, nil
}

// Profile operations

func (s *Storage) SaveProfile(ctx context.Context, profile *model.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *profile
	s.profiles[profile.UserID] = &copied
	return nil
}

func (s *Storage) GetProfile(ctx context.Context, userID model.UserID) (*model.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	profile, ok := s.profiles[userID]
	if !ok {
		return nil, model.ErrProfileNotFound
	}
	copied := *profile
	return &copied, nil
}

func (s *Storage) DeleteProfile(ctx context.Context, userID model.UserID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.profiles, userID)
	return nil
}
