package redis

import (
	"fmt"

	"github.com/athenaeum/moirai/internal/model"
)

// Key prefix for all game-related data
const keyPrefix = "moirai"

// Key generation functions for each entity type

// userKey returns the Redis key for a User
func userKey(id model.UserID) string {
	return fmt.Sprintf("%s:user:%s", keyPrefix, id)
}

// registeredUserKey returns the Redis key for a RegisteredUser
func registeredUserKey(userID model.UserID) string {
	return fmt.Sprintf("%s:registered_user:%s", keyPrefix, userID)
}

// emailIndexKey returns the Redis key for the email -> user_id index
func emailIndexKey(email string) string {
	return fmt.Sprintf("%s:idx:email:%s", keyPrefix, email)
}

// providerIndexKey returns the Redis key for the provider identity -> user_id index
func providerIndexKey(provider, subject string) string {
	return fmt.Sprintf("%s:idx:provider:%s:%s", keyPrefix, provider, subject)
}

// profileKey returns the Redis key for a Profile
func profileKey(userID model.UserID) string {
	return fmt.Sprintf("%s:profile:%s", keyPrefix, userID)
}
