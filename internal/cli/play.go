package cli

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/athenaeum/moirai/internal/dependencies/clock"
	"github.com/athenaeum/moirai/internal/dependencies/random"
	"github.com/athenaeum/moirai/internal/fetch"
	"github.com/athenaeum/moirai/internal/model"
	"github.com/athenaeum/moirai/internal/round"
)

func newPlayCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "play",
		Short: "Play classification rounds interactively",
		Long: `Run the round loop in the terminal: each round presents a narrative
fragment whose hidden causal force you classify as Fate, Choice or
Chance. Correct answers score points and build a streak; every fifth
consecutive correct answer raises the difficulty tier.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cfg.Token == "" {
				return errors.New("not signed in; run 'moirai auth guest --name <name>' first")
			}
			return runPlay(cmd.Context())
		},
	}
}

func runPlay(ctx context.Context) error {
	logLevel := slog.LevelError
	if cfg.Verbose {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))

	// Who am I
	var user User
	if err := client.Get("/api/v1/users/me", &user); err != nil {
		return err
	}

	rnd := random.New()
	fetcher := fetch.New(&http.Client{}, fetch.DefaultPolicy(), clock.New(), rnd, logger)

	controller := round.NewController(
		&apiFragmentSource{fetcher: fetcher},
		&apiProfileStore{},
		&apiSessionGateway{},
		rnd,
		logger,
	)

	if err := controller.Load(ctx, model.UserID(user.ID), user.DisplayName); err != nil {
		return err
	}

	prof := controller.Profile()
	fmt.Printf("Welcome, %s. Difficulty tier %d, best score %d.\n",
		prof.Username, prof.DifficultyTier, prof.HighestScore)
	fmt.Println("Classify each fragment: (1) Fate  (2) Choice  (3) Chance  (q) quit")

	reader := bufio.NewReader(os.Stdin)

	for {
		fmt.Println()
		if err := controller.StartRound(ctx); err != nil {
			drainNotifications(controller)
			fmt.Println("The Weaver could not be reached; the threads default to Fate.")
		} else {
			fmt.Println(controller.Fragment().Text)
		}

		choice, quit := promptChoice(reader)
		if quit {
			break
		}

		outcome := controller.Classify(ctx, choice)
		if outcome == nil {
			continue
		}

		if outcome.Correct {
			fmt.Printf("Correct - it was %s.\n", outcome.TrueAxiom)
		} else {
			fmt.Printf("Wrong - it was %s.\n", outcome.TrueAxiom)
		}
		fmt.Println(outcome.Revelation)
		fmt.Printf("Score %d | Streak %d | Tier %d\n",
			outcome.Profile.CurrentScore, outcome.Profile.CurrentStreak, outcome.Profile.DifficultyTier)

		drainNotifications(controller)
	}

	if err := controller.SignOut(ctx); err != nil {
		return err
	}
	if err := cfg.ClearToken(); err != nil {
		return fmt.Errorf("failed to clear token: %w", err)
	}
	fmt.Println("Signed out. The threads rest.")
	return nil
}

// promptChoice reads one classification from stdin
func promptChoice(reader *bufio.Reader) (model.Axiom, bool) {
	for {
		fmt.Print("> ")
		line, err := reader.ReadString('\n')
		if err != nil {
			return "", true
		}

		switch strings.ToLower(strings.TrimSpace(line)) {
		case "1", "fate":
			return model.AxiomFate, false
		case "2", "choice":
			return model.AxiomChoice, false
		case "3", "chance":
			return model.AxiomChance, false
		case "q", "quit", "exit":
			return "", true
		default:
			fmt.Println("Enter 1, 2, 3 or q")
		}
	}
}

func drainNotifications(controller *round.Controller) {
	for {
		select {
		case n := <-controller.Notifications():
			switch n.Kind {
			case round.NotificationPromotion:
				fmt.Printf("*** %s ***\n", n.Message)
			default:
				fmt.Fprintf(os.Stderr, "Error: %s\n", n.Message)
			}
		default:
			return
		}
	}
}

// apiFragmentSource fetches fragments over the API with retry/backoff
type apiFragmentSource struct {
	fetcher *fetch.Client
}

func (s *apiFragmentSource) Generate(ctx context.Context, axiom model.Axiom, tier int) (*model.Fragment, error) {
	body, err := json.Marshal(map[string]any{
		"secretTag":      string(axiom),
		"difficultyTier": tier,
	})
	if err != nil {
		return nil, err
	}

	resp, err := s.fetcher.Do(ctx, func() (*http.Request, error) {
		req, err := http.NewRequest(http.MethodPost, client.BaseURL()+"/api/v1/fragments", bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+client.Token())
		return req, nil
	})
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode >= 400 {
		var errResp ErrorResponse
		if err := json.Unmarshal(respBody, &errResp); err == nil && errResp.Error.Code != "" {
			return nil, fmt.Errorf("%s", errResp.Error.String())
		}
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(respBody))
	}

	var frag Fragment
	if err := json.Unmarshal(respBody, &frag); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	return &model.Fragment{
		Text:           frag.FragmentText,
		SecretAxiom:    axiom,
		RevelationText: frag.RevelationText,
	}, nil
}

// apiProfileStore reads and writes the profile over the API
type apiProfileStore struct{}

func (s *apiProfileStore) Get(ctx context.Context, userID model.UserID) (*model.Profile, error) {
	var p Profile
	if err := client.Get("/api/v1/profile", &p); err != nil {
		return nil, err
	}
	return profileToModel(&p), nil
}

// Create is a no-op distinct from Get only in intent: the server creates
// missing profiles on first fetch.
func (s *apiProfileStore) Create(ctx context.Context, userID model.UserID, username string) (*model.Profile, error) {
	return s.Get(ctx, userID)
}

func (s *apiProfileStore) PutStats(ctx context.Context, profile *model.Profile) error {
	body := map[string]any{
		"username":          profile.Username,
		"currentScore":      profile.CurrentScore,
		"highestScore":      profile.HighestScore,
		"currentStreak":     profile.CurrentStreak,
		"highestStreak":     profile.HighestStreak,
		"difficultyTier":    profile.DifficultyTier,
		"totalRoundsPlayed": profile.TotalRoundsPlayed,
	}
	return client.Put("/api/v1/profile", body, nil)
}

func profileToModel(p *Profile) *model.Profile {
	return &model.Profile{
		UserID:            model.UserID(p.UserID),
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

// apiSessionGateway terminates the server-side session
type apiSessionGateway struct{}

func (g *apiSessionGateway) SignOut(ctx context.Context) error {
	return client.Post("/api/v1/auth/logout", nil, nil)
}
