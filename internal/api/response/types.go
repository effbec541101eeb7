package response

import (
	"time"

	"github.com/athenaeum/moirai/internal/model"
	"github.com/athenaeum/moirai/internal/services/auth"
)

// User represents a user in API responses
type User struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	IsGuest     bool   `json:"is_guest"`
	Provider    string `json:"provider,omitempty"`
}

// UserFromModel converts a model.User to a response User
func UserFromModel(u *model.User) User {
	return User{
		ID:          string(u.ID),
		DisplayName: u.DisplayName,
		IsGuest:     u.IsGuest,
		Provider:    u.Provider,
	}
}

// AuthResponse is the response for authentication endpoints
type AuthResponse struct {
	User         User   `json:"user"`
	SessionToken string `json:"session_token"`
}

// AuthResponseFromSession creates an AuthResponse from a session
func AuthResponseFromSession(s *auth.Session) AuthResponse {
	return AuthResponse{
		User:         UserFromModel(&s.User),
		SessionToken: s.Token,
	}
}

// Fragment is the response for fragment generation. The secret axiom is
// deliberately absent: the caller already chose it and the reveal must
// not leak to anyone sniffing the response of another player.
type Fragment struct {
	FragmentText   string `json:"fragmentText"`
	RevelationText string `json:"revelationText"`
}

// FragmentFromModel converts a model.Fragment
func FragmentFromModel(f *model.Fragment) Fragment {
	return Fragment{
		FragmentText:   f.Text,
		RevelationText: f.RevelationText,
	}
}

// TierPromotion is the body of a tier_promoted SSE event
type TierPromotion struct {
	NewTier int `json:"newTier"`
}

// Profile represents a user's game statistics in API responses.
// Field names match the document schema the web client persists.
type Profile struct {
	UserID            string    `json:"user_id"`
	Username          string    `json:"username"`
	CurrentScore      int       `json:"currentScore"`
	HighestScore      int       `json:"highestScore"`
	CurrentStreak     int       `json:"currentStreak"`
	HighestStreak     int       `json:"highestStreak"`
	DifficultyTier    int       `json:"difficultyTier"`
	TotalRoundsPlayed int       `json:"totalRoundsPlayed"`
	CreatedAt         time.Time `json:"createdAt"`
	UpdatedAt         time.Time `json:"updatedAt"`
}

// ProfileFromModel converts a model.Profile
func ProfileFromModel(p *model.Profile) Profile {
	return Profile{
		UserID:            string(p.UserID),
		Username:          p.Username,
		CurrentScore:      p.CurrentScore,
		HighestScore:      p.HighestScore,
		CurrentStreak:     p.CurrentStreak,
		HighestStreak:     p.HighestStreak,
		DifficultyTier:    p.DifficultyTier,
		TotalRoundsPlayed: p.TotalRoundsPlayed,
		CreatedAt:         p.CreatedAt,
		UpdatedAt:         p.UpdatedAt,
	}
}
