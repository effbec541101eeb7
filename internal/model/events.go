package model

import "time"

// EventType identifies the type of event
type EventType string

const (
	// Auth events
	EventSignedIn  EventType = "signed_in"
	EventSignedOut EventType = "signed_out"

	// Profile events
	EventProfileUpdated EventType = "profile_updated"
	EventTierPromoted   EventType = "tier_promoted"
)

// Event is the base structure for all events
type Event struct {
	Type      EventType
	Timestamp time.Time
	UserID    UserID
	Payload   any // Type-specific data
}

// ProfileUpdatedPayload carries the profile snapshot after a stats write
type ProfileUpdatedPayload struct {
	Profile Profile
}

// TierPromotedPayload carries the tier reached by a five-streak
type TierPromotedPayload struct {
	NewTier int
}
