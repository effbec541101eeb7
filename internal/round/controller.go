package round

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/athenaeum/moirai/internal/dependencies/random"
	"github.com/athenaeum/moirai/internal/model"
)

// State is the phase of the round lifecycle
type State string

const (
	StateLoading   State = "loading"        // waiting for the profile
	StateReady     State = "ready_to_start" // profile loaded, no fragment yet
	StatePlaying   State = "playing"        // fragment shown, awaiting classification
	StateRevealing State = "revealing"      // classification made, revelation shown
	StateError     State = "error"          // fragment fetch failed
)

// FragmentSource produces a fragment for a chosen axiom and difficulty tier
type FragmentSource interface {
	Generate(ctx context.Context, axiom model.Axiom, tier int) (*model.Fragment, error)
}

// ProfileStore is the slice of the profile store the controller needs
type ProfileStore interface {
	Get(ctx context.Context, userID model.UserID) (*model.Profile, error)
	Create(ctx context.Context, userID model.UserID, username string) (*model.Profile, error)
	PutStats(ctx context.Context, profile *model.Profile) error
}

// SessionGateway terminates the authenticated session on sign-out
type SessionGateway interface {
	SignOut(ctx context.Context) error
}

// NotificationKind classifies controller notifications
type NotificationKind string

const (
	NotificationPromotion NotificationKind = "promotion"
	NotificationError     NotificationKind = "error"
)

// Notification is an out-of-band message for the player
type Notification struct {
	Kind    NotificationKind
	Message string
	Tier    int // set for promotions
}

// Outcome is the result of one classification
type Outcome struct {
	Correct    bool
	TrueAxiom  model.Axiom
	Revelation string
	Profile    model.Profile // stats after the classification
}

// Controller sequences the round lifecycle and applies the scoring,
// streak and difficulty rules on each classification. It is not safe for
// concurrent use: callers drive it from a single event loop.
type Controller struct {
	fragments FragmentSource
	profiles  ProfileStore
	sessions  SessionGateway
	random    random.Random
	logger    *slog.Logger

	state    State
	profile  *model.Profile
	fragment *model.Fragment

	// attempts is the position within the 5-attempt round window
	attempts int

	notifications chan Notification
}

// NewController creates a controller in the loading state
func NewController(
	fragments FragmentSource,
	profiles ProfileStore,
	sessions SessionGateway,
	random random.Random,
	logger *slog.Logger,
) *Controller {
	return &Controller{
		fragments:     fragments,
		profiles:      profiles,
		sessions:      sessions,
		random:        random,
		logger:        logger.With(slog.String("component", "round")),
		state:         StateLoading,
		notifications: make(chan Notification, 16),
	}
}

// State returns the current lifecycle state
func (c *Controller) State() State {
	return c.state
}

// Profile returns the loaded profile, or nil before Load
func (c *Controller) Profile() *model.Profile {
	return c.profile
}

// Fragment returns the current fragment, or nil outside a round
func (c *Controller) Fragment() *model.Fragment {
	return c.fragment
}

// Notifications exposes promotions and error notices
func (c *Controller) Notifications() <-chan Notification {
	return c.notifications
}

// Load fetches the user's profile, creating one with all counters at
// their floor values when it does not exist yet. Per-session counters
// are reset so every login starts score and streak at zero.
func (c *Controller) Load(ctx context.Context, userID model.UserID, username string) error {
	c.state = StateLoading

	prof, err := c.profiles.Get(ctx, userID)
	if errors.Is(err, model.ErrProfileNotFound) {
		prof, err = c.profiles.Create(ctx, userID, username)
	}
	if err != nil {
		c.state = StateError
		return fmt.Errorf("could not load progress: %w", err)
	}

	prof.ResetSession()
	c.profile = prof
	c.fragment = nil
	c.attempts = 0
	c.state = StateReady
	return nil
}

// StartRound clears the prior fragment, advances the round bookkeeping,
// picks a secret axiom uniformly at random and fetches a new fragment.
func (c *Controller) StartRound(ctx context.Context) error {
	switch c.state {
	case StateReady, StateRevealing, StateError:
	case StateLoading:
		return model.ErrProfileNotReady
	default:
		return model.ErrRoundInProgress
	}

	c.fragment = nil

	// A fresh 5-attempt window marks a new round for aggregate stats
	if c.attempts == 0 {
		c.profile.TotalRoundsPlayed++
	}
	c.attempts = (c.attempts + 1) % model.AttemptsPerRound

	axiom := model.Axioms[c.random.Intn(len(model.Axioms))]

	fragment, err := c.fragments.Generate(ctx, axiom, c.profile.DifficultyTier)
	if err != nil {
		c.logger.Error("fragment fetch failed",
			slog.String("error", err.Error()),
		)
		// Fall back to a classifiable-but-inert fragment so the reveal
		// flow still works after the error is dismissed
		c.fragment = &model.Fragment{
			SecretAxiom:    model.AxiomFate,
			RevelationText: "The Weaver could not be reached. The threads default to Fate.",
		}
		c.state = StateError
		c.notify(Notification{Kind: NotificationError, Message: err.Error()})
		return err
	}

	c.fragment = fragment
	c.state = StatePlaying
	return nil
}

// Classify applies the player's choice. It is a no-op outside the
// playing state. The stats write is write-behind: the transition to
// revealing has already happened, so persistence failures are logged
// and swallowed.
func (c *Controller) Classify(ctx context.Context, choice model.Axiom) *Outcome {
	if c.state != StatePlaying || c.fragment == nil {
		return nil
	}

	c.state = StateRevealing

	correct := choice == c.fragment.SecretAxiom
	if correct {
		if promoted := c.profile.RecordCorrect(); promoted {
			c.notify(Notification{
				Kind:    NotificationPromotion,
				Tier:    c.profile.DifficultyTier,
				Message: fmt.Sprintf("Your streak has advanced you to difficulty tier %d", c.profile.DifficultyTier),
			})
		}
	} else {
		c.profile.RecordIncorrect()
	}

	if err := c.profiles.PutStats(ctx, c.profile); err != nil {
		c.logger.Error("failed to persist stats after classification",
			slog.String("user_id", string(c.profile.UserID)),
			slog.String("error", err.Error()),
		)
	}

	return &Outcome{
		Correct:    correct,
		TrueAxiom:  c.fragment.SecretAxiom,
		Revelation: c.fragment.RevelationText,
		Profile:    *c.profile,
	}
}

// SignOut zeroes the per-session counters, persists that final state,
// and only then asks the gateway to end the session. The persist-first
// ordering guarantees the next login starts both counters at zero even
// if an earlier classification write raced with sign-out.
func (c *Controller) SignOut(ctx context.Context) error {
	if c.profile != nil {
		c.profile.ResetSession()
		if err := c.profiles.PutStats(ctx, c.profile); err != nil {
			c.logger.Error("failed to persist final state on sign-out",
				slog.String("user_id", string(c.profile.UserID)),
				slog.String("error", err.Error()),
			)
		}
	}

	err := c.sessions.SignOut(ctx)

	c.profile = nil
	c.fragment = nil
	c.attempts = 0
	c.state = StateLoading
	return err
}

// notify publishes a notification without blocking
func (c *Controller) notify(n Notification) {
	select {
	case c.notifications <- n:
	default:
		c.logger.Warn("notification dropped - buffer full",
			slog.String("kind", string(n.Kind)),
		)
	}
}
