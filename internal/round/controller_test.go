package round

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/athenaeum/moirai/internal/dependencies/mocks"
	"github.com/athenaeum/moirai/internal/model"
	"github.com/athenaeum/moirai/internal/testutil"
)

// stubFragments returns canned fragments keyed off the requested axiom
type stubFragments struct {
	err   error
	calls int
	tiers []int
}

func (f *stubFragments) Generate(ctx context.Context, axiom model.Axiom, tier int) (*model.Fragment, error) {
	f.calls++
	f.tiers = append(f.tiers, tier)
	if f.err != nil {
		return nil, f.err
	}
	return &model.Fragment{
		ID:             "frag-1",
		Text:           "The bridge gave way the moment she stepped back.",
		SecretAxiom:    axiom,
		RevelationText: "The collapse was written long before her hesitation.",
	}, nil
}

// stubProfiles is an in-memory ProfileStore recording call order
type stubProfiles struct {
	profiles map[model.UserID]*model.Profile
	putErr   error
	getErr   error
	log      *[]string
}

func newStubProfiles(log *[]string) *stubProfiles {
	return &stubProfiles{
		profiles: make(map[model.UserID]*model.Profile),
		log:      log,
	}
}

func (p *stubProfiles) Get(ctx context.Context, userID model.UserID) (*model.Profile, error) {
	if p.getErr != nil {
		return nil, p.getErr
	}
	prof, ok := p.profiles[userID]
	if !ok {
		return nil, model.ErrProfileNotFound
	}
	copied := *prof
	return &copied, nil
}

func (p *stubProfiles) Create(ctx context.Context, userID model.UserID, username string) (*model.Profile, error) {
	prof := model.NewProfile(userID, username, testTime())
	p.profiles[userID] = prof
	copied := *prof
	return &copied, nil
}

func (p *stubProfiles) PutStats(ctx context.Context, profile *model.Profile) error {
	*p.log = append(*p.log, "put_stats")
	if p.putErr != nil {
		return p.putErr
	}
	copied := *profile
	p.profiles[profile.UserID] = &copied
	return nil
}

// stubSessions records sign-out ordering
type stubSessions struct {
	log *[]string
}

func (s *stubSessions) SignOut(ctx context.Context) error {
	*s.log = append(*s.log, "sign_out")
	return nil
}

func testTime() time.Time {
	return time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
}

type ControllerSuite struct {
	suite.Suite
	fragments  *stubFragments
	profiles   *stubProfiles
	sessions   *stubSessions
	random     *mocks.MockRandom
	controller *Controller
	calls      []string
	ctx        context.Context
}

func TestControllerSuite(t *testing.T) {
	suite.Run(t, new(ControllerSuite))
}

func (s *ControllerSuite) SetupTest() {
	s.calls = nil
	s.fragments = &stubFragments{}
	s.profiles = newStubProfiles(&s.calls)
	s.sessions = &stubSessions{log: &s.calls}
	s.random = mocks.NewMockRandom()
	s.controller = NewController(s.fragments, s.profiles, s.sessions, s.random, testutil.NopLogger())
	s.ctx = context.Background()
}

func (s *ControllerSuite) load() {
	s.Require().NoError(s.controller.Load(s.ctx, "user-1", "alice"))
}

func (s *ControllerSuite) drainNotifications() []Notification {
	var out []Notification
	for {
		select {
		case n := <-s.controller.Notifications():
			out = append(out, n)
		default:
			return out
		}
	}
}

// Load tests

func (s *ControllerSuite) TestInitialStateIsLoading() {
	s.Equal(StateLoading, s.controller.State())
}

func (s *ControllerSuite) TestLoadCreatesMissingProfile() {
	s.load()

	s.Equal(StateReady, s.controller.State())
	prof := s.controller.Profile()
	s.Require().NotNil(prof)
	s.Equal(1, prof.DifficultyTier)
	s.Equal(0, prof.CurrentScore)
}

func (s *ControllerSuite) TestLoadResetsSessionCounters() {
	existing := model.NewProfile("user-1", "alice", testTime())
	existing.CurrentScore = 70
	existing.CurrentStreak = 3
	existing.HighestScore = 120
	existing.HighestStreak = 8
	existing.DifficultyTier = 2
	s.profiles.profiles["user-1"] = existing

	s.load()

	prof := s.controller.Profile()
	s.Equal(0, prof.CurrentScore)
	s.Equal(0, prof.CurrentStreak)
	s.Equal(120, prof.HighestScore, "high-water marks persist across sessions")
	s.Equal(8, prof.HighestStreak)
	s.Equal(2, prof.DifficultyTier)
}

func (s *ControllerSuite) TestLoadFailureEntersErrorState() {
	s.profiles.getErr = errors.New("store offline")

	err := s.controller.Load(s.ctx, "user-1", "alice")
	s.ErrorContains(err, "could not load progress")
	s.Equal(StateError, s.controller.State())
}

// StartRound tests

func (s *ControllerSuite) TestStartRoundEntersPlaying() {
	s.load()
	s.random.QueueIntn(1) // Choice

	s.Require().NoError(s.controller.StartRound(s.ctx))

	s.Equal(StatePlaying, s.controller.State())
	frag := s.controller.Fragment()
	s.Require().NotNil(frag)
	s.Equal(model.AxiomChoice, frag.SecretAxiom)
	s.NotEmpty(frag.Text)
}

func (s *ControllerSuite) TestStartRoundUsesProfileTier() {
	existing := model.NewProfile("user-1", "alice", testTime())
	existing.DifficultyTier = 4
	s.profiles.profiles["user-1"] = existing

	s.load()
	s.Require().NoError(s.controller.StartRound(s.ctx))

	s.Equal([]int{4}, s.fragments.tiers)
}

func (s *ControllerSuite) TestStartRoundBeforeLoadFails() {
	err := s.controller.StartRound(s.ctx)
	s.ErrorIs(err, model.ErrProfileNotReady)
}

func (s *ControllerSuite) TestStartRoundWhilePlayingFails() {
	s.load()
	s.Require().NoError(s.controller.StartRound(s.ctx))

	err := s.controller.StartRound(s.ctx)
	s.ErrorIs(err, model.ErrRoundInProgress)
	s.Equal(1, s.fragments.calls)
}

func (s *ControllerSuite) TestStartRoundFailureFallsBackToFate() {
	s.load()
	s.fragments.err = errors.New("relay unreachable")

	err := s.controller.StartRound(s.ctx)
	s.Error(err)
	s.Equal(StateError, s.controller.State())

	frag := s.controller.Fragment()
	s.Require().NotNil(frag)
	s.Equal(model.AxiomFate, frag.SecretAxiom)
	s.Empty(frag.Text)
	s.NotEmpty(frag.RevelationText)

	notes := s.drainNotifications()
	s.Require().Len(notes, 1)
	s.Equal(NotificationError, notes[0].Kind)
	s.Contains(notes[0].Message, "relay unreachable")
}

func (s *ControllerSuite) TestNextFragmentRecoversFromError() {
	s.load()
	s.fragments.err = errors.New("relay unreachable")
	_ = s.controller.StartRound(s.ctx)
	s.Equal(StateError, s.controller.State())

	s.fragments.err = nil
	s.Require().NoError(s.controller.StartRound(s.ctx))
	s.Equal(StatePlaying, s.controller.State())
}

func (s *ControllerSuite) TestTotalRoundsPlayedIncrementsPerFiveAttempts() {
	s.load()

	for i := 0; i < 12; i++ {
		s.Require().NoError(s.controller.StartRound(s.ctx))
		// Classification outcome must not affect round bookkeeping
		if i%2 == 0 {
			s.controller.Classify(s.ctx, model.AxiomFate)
		} else {
			s.controller.Classify(s.ctx, model.AxiomChance)
		}
	}

	// 12 attempts = windows starting at attempts 1, 6 and 11
	s.Equal(3, s.controller.Profile().TotalRoundsPlayed)
}

// Classify tests

func (s *ControllerSuite) TestCorrectClassificationAtPromotionBoundary() {
	existing := model.NewProfile("user-1", "alice", testTime())
	s.profiles.profiles["user-1"] = existing
	s.load()

	prof := s.controller.Profile()
	prof.CurrentStreak = 4
	prof.CurrentScore = 40
	prof.HighestStreak = 4
	prof.HighestScore = 40

	s.random.QueueIntn(0) // Fate
	s.Require().NoError(s.controller.StartRound(s.ctx))

	outcome := s.controller.Classify(s.ctx, model.AxiomFate)
	s.Require().NotNil(outcome)

	s.True(outcome.Correct)
	s.Equal(StateRevealing, s.controller.State())
	s.Equal(50, outcome.Profile.CurrentScore)
	s.Equal(5, outcome.Profile.CurrentStreak)
	s.Equal(2, outcome.Profile.DifficultyTier)
	s.Equal(50, outcome.Profile.HighestScore)
	s.Equal(5, outcome.Profile.HighestStreak)

	notes := s.drainNotifications()
	s.Require().Len(notes, 1)
	s.Equal(NotificationPromotion, notes[0].Kind)
	s.Equal(2, notes[0].Tier)
}

func (s *ControllerSuite) TestIncorrectClassificationResetsStreak() {
	s.load()
	prof := s.controller.Profile()
	prof.CurrentStreak = 4
	prof.CurrentScore = 40
	prof.HighestStreak = 4
	prof.HighestScore = 40

	s.random.QueueIntn(0) // Fate
	s.Require().NoError(s.controller.StartRound(s.ctx))

	outcome := s.controller.Classify(s.ctx, model.AxiomChance)
	s.Require().NotNil(outcome)

	s.False(outcome.Correct)
	s.Equal(model.AxiomFate, outcome.TrueAxiom)
	s.Equal(40, outcome.Profile.CurrentScore, "score unchanged on a miss")
	s.Equal(0, outcome.Profile.CurrentStreak)
	s.Equal(1, outcome.Profile.DifficultyTier)
	s.Empty(s.drainNotifications())
}

func (s *ControllerSuite) TestClassifyOutsidePlayingIsNoOp() {
	s.load()
	s.Nil(s.controller.Classify(s.ctx, model.AxiomFate))

	s.Require().NoError(s.controller.StartRound(s.ctx))
	first := s.controller.Classify(s.ctx, model.AxiomFate)
	s.NotNil(first)

	// Second classification of the same fragment is ignored
	s.Nil(s.controller.Classify(s.ctx, model.AxiomChance))
}

func (s *ControllerSuite) TestClassifyPersistsStats() {
	s.load()
	s.Require().NoError(s.controller.StartRound(s.ctx))
	s.controller.Classify(s.ctx, model.AxiomFate)

	s.Contains(s.calls, "put_stats")
}

func (s *ControllerSuite) TestClassifyPersistFailureDoesNotBlockReveal() {
	s.load()
	s.profiles.putErr = errors.New("store offline")

	s.Require().NoError(s.controller.StartRound(s.ctx))
	outcome := s.controller.Classify(s.ctx, model.AxiomFate)

	s.Require().NotNil(outcome, "reveal proceeds even when the write fails")
	s.Equal(StateRevealing, s.controller.State())
}

func (s *ControllerSuite) TestInvariantsHoldAcrossClassifications() {
	s.load()

	choices := []model.Axiom{
		model.AxiomFate, model.AxiomChance, model.AxiomFate,
		model.AxiomChoice, model.AxiomFate, model.AxiomFate,
		model.AxiomChance, model.AxiomChoice, model.AxiomFate,
	}
	for _, choice := range choices {
		s.Require().NoError(s.controller.StartRound(s.ctx))
		s.controller.Classify(s.ctx, choice)

		prof := s.controller.Profile()
		s.GreaterOrEqual(prof.HighestScore, prof.CurrentScore)
		s.GreaterOrEqual(prof.HighestStreak, prof.CurrentStreak)
		s.GreaterOrEqual(prof.DifficultyTier, 1)
	}
}

// SignOut tests

func (s *ControllerSuite) TestSignOutPersistsZeroedCountersBeforeSessionEnd() {
	s.load()
	s.Require().NoError(s.controller.StartRound(s.ctx))
	s.controller.Classify(s.ctx, s.controller.Fragment().SecretAxiom)

	s.calls = nil
	s.Require().NoError(s.controller.SignOut(s.ctx))

	s.Equal([]string{"put_stats", "sign_out"}, s.calls)

	stored := s.profiles.profiles["user-1"]
	s.Equal(0, stored.CurrentScore)
	s.Equal(0, stored.CurrentStreak)
	s.Equal(StateLoading, s.controller.State())
}

func (s *ControllerSuite) TestSignOutStillEndsSessionWhenPersistFails() {
	s.load()
	s.profiles.putErr = errors.New("store offline")

	s.calls = nil
	s.Require().NoError(s.controller.SignOut(s.ctx))
	s.Equal([]string{"put_stats", "sign_out"}, s.calls)
}
