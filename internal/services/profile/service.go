package profile

import (
	"context"
	"log/slog"

	"github.com/athenaeum/moirai/internal/dependencies/clock"
	"github.com/athenaeum/moirai/internal/model"
	"github.com/athenaeum/moirai/internal/storage"
)

// Service is the profile store adapter: document-style get/create/update
// over the storage backend, plus real-time change notification through
// the hub. Writes are last-writer-wins; there are no transactions.
type Service struct {
	storage storage.Storage
	clock   clock.Clock
	logger  *slog.Logger
	hub     *Hub
}

// New creates a new profile Service
func New(storage storage.Storage, clk clock.Clock, logger *slog.Logger) *Service {
	return &Service{
		storage: storage,
		clock:   clk,
		logger:  logger.With(slog.String("component", "profile")),
		hub:     NewHub(logger),
	}
}

// Get retrieves a user's profile
func (s *Service) Get(ctx context.Context, userID model.UserID) (*model.Profile, error) {
	return s.storage.GetProfile(ctx, userID)
}

// Create initializes a profile with all counters at their floor values.
// An existing profile is left untouched.
func (s *Service) Create(ctx context.Context, userID model.UserID, username string) (*model.Profile, error) {
	existing, err := s.storage.GetProfile(ctx, userID)
	if err == nil {
		return existing, nil
	}

	profile := model.NewProfile(userID, username, s.clock.Now())
	if err := s.storage.SaveProfile(ctx, profile); err != nil {
		return nil, err
	}

	s.logger.Info("profile created", slog.String("user_id", string(userID)))
	return profile, nil
}

// PutStats writes the full stats object for a user, enforcing the store's
// invariants against the previously persisted document: high-water marks
// never regress below their running values, and the difficulty tier and
// rounds-played total are monotonically non-decreasing.
func (s *Service) PutStats(ctx context.Context, incoming *model.Profile) (*model.Profile, error) {
	stored, err := s.storage.GetProfile(ctx, incoming.UserID)
	if err != nil {
		return nil, err
	}

	updated := *incoming
	updated.CreatedAt = stored.CreatedAt
	updated.UpdatedAt = s.clock.Now()

	if updated.HighestScore < updated.CurrentScore {
		updated.HighestScore = updated.CurrentScore
	}
	if updated.HighestScore < stored.HighestScore {
		updated.HighestScore = stored.HighestScore
	}
	if updated.HighestStreak < updated.CurrentStreak {
		updated.HighestStreak = updated.CurrentStreak
	}
	if updated.HighestStreak < stored.HighestStreak {
		updated.HighestStreak = stored.HighestStreak
	}
	if updated.DifficultyTier < stored.DifficultyTier {
		updated.DifficultyTier = stored.DifficultyTier
	}
	if updated.TotalRoundsPlayed < stored.TotalRoundsPlayed {
		updated.TotalRoundsPlayed = stored.TotalRoundsPlayed
	}

	if err := s.storage.SaveProfile(ctx, &updated); err != nil {
		s.logger.Error("failed to save profile",
			slog.String("user_id", string(updated.UserID)),
			slog.String("error", err.Error()),
		)
		return nil, err
	}

	s.hub.Publish(model.Event{
		Type:      model.EventProfileUpdated,
		Timestamp: updated.UpdatedAt,
		UserID:    updated.UserID,
		Payload:   model.ProfileUpdatedPayload{Profile: updated},
	})
	if updated.DifficultyTier > stored.DifficultyTier {
		s.hub.Publish(model.Event{
			Type:      model.EventTierPromoted,
			Timestamp: updated.UpdatedAt,
			UserID:    updated.UserID,
			Payload:   model.TierPromotedPayload{NewTier: updated.DifficultyTier},
		})
	}
	return &updated, nil
}

// Subscribe registers for a user's profile events (stats snapshots and
// tier promotions). The cancel func closes the channel; call it when the
// session ends.
func (s *Service) Subscribe(userID model.UserID) (<-chan model.Event, func()) {
	return s.hub.Subscribe(userID)
}
