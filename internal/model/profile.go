package model

import "time"

// Game constants
const (
	// PointsPerCorrect is the score awarded for a correct classification
	PointsPerCorrect = 10

	// StreakPromotionInterval is the streak length that advances the difficulty tier
	StreakPromotionInterval = 5

	// AttemptsPerRound is the number of fragment attempts in one round window
	AttemptsPerRound = 5
)

// Profile holds a user's persistent game statistics
type Profile struct {
	UserID            UserID
	Username          string
	CurrentScore      int
	HighestScore      int // never below CurrentScore after an update
	CurrentStreak     int
	HighestStreak     int // never below CurrentStreak after an update
	DifficultyTier    int // >= 1, never decreases
	TotalRoundsPlayed int // never decreases
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// NewProfile creates a profile with all counters at their floor values
func NewProfile(userID UserID, username string, now time.Time) *Profile {
	return &Profile{
		UserID:         userID,
		Username:       username,
		DifficultyTier: 1,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// RecordCorrect applies a correct classification to the stats.
// Returns true when the streak crosses a promotion boundary and the
// difficulty tier was advanced.
func (p *Profile) RecordCorrect() bool {
	p.CurrentScore += PointsPerCorrect
	p.CurrentStreak++
	if p.CurrentStreak > p.HighestStreak {
		p.HighestStreak = p.CurrentStreak
	}
	if p.CurrentScore > p.HighestScore {
		p.HighestScore = p.CurrentScore
	}
	if p.CurrentStreak%StreakPromotionInterval == 0 {
		p.DifficultyTier++
		return true
	}
	return false
}

// RecordIncorrect applies an incorrect classification: the streak resets,
// the score is unchanged
func (p *Profile) RecordIncorrect() {
	p.CurrentStreak = 0
}

// ResetSession zeroes the per-session counters. High-water marks, the
// difficulty tier and the rounds-played total persist across sessions.
func (p *Profile) ResetSession() {
	p.CurrentScore = 0
	p.CurrentStreak = 0
}
