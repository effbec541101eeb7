package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// Output handles formatting output based on the configured format
type Output struct {
	format string
}

// NewOutput creates a new Output formatter
func NewOutput(format string) *Output {
	return &Output{format: format}
}

// Print outputs data in the configured format
func (o *Output) Print(data any) {
	if o.format == "json" {
		o.printJSON(data)
	} else {
		o.printText(data)
	}
}

// PrintError outputs an error
func (o *Output) PrintError(err error) {
	if o.format == "json" {
		errData := map[string]any{
			"error": map[string]string{
				"message": err.Error(),
			},
		}
		data, _ := json.Marshal(errData)
		fmt.Fprintln(os.Stderr, string(data))
	} else {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
	}
}

// PrintMessage outputs a simple message
func (o *Output) PrintMessage(msg string) {
	if o.format == "json" {
		data, _ := json.Marshal(map[string]string{"message": msg})
		fmt.Println(string(data))
	} else {
		fmt.Println(msg)
	}
}

func (o *Output) printJSON(data any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func (o *Output) printText(data any) {
	switch v := data.(type) {
	case User:
		o.printUser(v)
	case AuthResult:
		o.printAuthResult(v)
	case Profile:
		o.printProfile(v)
	case Fragment:
		o.printFragment(v)
	case HealthResult:
		o.printHealthResult(v)
	default:
		// Fallback to JSON for unknown types
		o.printJSON(data)
	}
}

// User response type (matches API)
type User struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	IsGuest     bool   `json:"is_guest"`
	Provider    string `json:"provider,omitempty"`
}

// AuthResult combines user and token
type AuthResult struct {
	User         User   `json:"user"`
	SessionToken string `json:"session_token"`
}

// Profile response type
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

// Fragment response type
type Fragment struct {
	FragmentText   string `json:"fragmentText"`
	RevelationText string `json:"revelationText"`
}

// HealthResult response type
type HealthResult struct {
	Status string `json:"status"`
}

func (o *Output) printUser(u User) {
	guestStr := "no"
	if u.IsGuest {
		guestStr = "yes"
	}
	fmt.Printf("User: %s (%s)\n", u.DisplayName, u.ID)
	fmt.Printf("Guest: %s\n", guestStr)
	if u.Provider != "" {
		fmt.Printf("Provider: %s\n", u.Provider)
	}
}

func (o *Output) printAuthResult(a AuthResult) {
	o.printUser(a.User)
	fmt.Printf("Token: %s\n", a.SessionToken)
}

func (o *Output) printProfile(p Profile) {
	fmt.Printf("Profile: %s\n", p.Username)
	fmt.Printf("Score: %d (best %d)\n", p.CurrentScore, p.HighestScore)
	fmt.Printf("Streak: %d (best %d)\n", p.CurrentStreak, p.HighestStreak)
	fmt.Printf("Difficulty Tier: %d\n", p.DifficultyTier)
	fmt.Printf("Rounds Played: %d\n", p.TotalRoundsPlayed)
}

func (o *Output) printFragment(f Fragment) {
	fmt.Println(f.FragmentText)
}

func (o *Output) printHealthResult(h HealthResult) {
	fmt.Printf("Status: %s\n", h.Status)
}
