package storage

import (
	"context"

	"github.com/athenaeum/moirai/internal/model"
)

// Storage defines the interface for data persistence
type Storage interface {
	// User operations
	SaveUser(ctx context.Context, user *model.User) error
	GetUser(ctx context.Context, id model.UserID) (*model.User, error)
	DeleteUser(ctx context.Context, id model.UserID) error

	// Registered user operations
	SaveRegisteredUser(ctx context.Context, ru *model.RegisteredUser) error
	GetRegisteredUser(ctx context.Context, userID model.UserID) (*model.RegisteredUser, error)
	GetRegisteredUserByEmail(ctx context.Context, email string) (*model.RegisteredUser, error)

	// Provider identity operations (external identity provider sign-ins)
	SaveProviderLink(ctx context.Context, provider, subject string, userID model.UserID) error
	GetUserIDByProvider(ctx context.Context, provider, subject string) (model.UserID, error)

	// Profile operations
	SaveProfile(ctx context.Context, profile *model.Profile) error
	GetProfile(ctx context.Context, userID model.UserID) (*model.Profile, error)
	DeleteProfile(ctx context.Context, userID model.UserID) error
}
