package factory

import (
	"context"
	"encoding/json"
	"time"

	"github.com/athenaeum/moirai/internal/dependencies/mocks"
	"github.com/athenaeum/moirai/internal/model"
	"github.com/athenaeum/moirai/internal/services/auth"
	"github.com/athenaeum/moirai/internal/storage/memory"
	"github.com/athenaeum/moirai/internal/testutil"
)

// TestApp extends App with test-specific helpers
type TestApp struct {
	*App

	// Mocks for test control
	MockClock    *mocks.MockClock
	MockRandom   *mocks.MockRandom
	MockProvider *ScriptedProvider
}

// NewTestApp creates an App configured for testing with mocked dependencies
func NewTestApp() *TestApp {
	store := memory.New()
	mockClock := mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	mockRandom := mocks.NewMockRandom()
	mockProvider := NewScriptedProvider()

	app := newWithDependencies(store, mockClock, mockRandom, mockProvider, auth.DefaultConfig(), testutil.NopLogger())

	return &TestApp{
		App:          app,
		MockClock:    mockClock,
		MockRandom:   mockRandom,
		MockProvider: mockProvider,
	}
}

// ScriptedProvider is an ai.Provider returning scripted completions
type ScriptedProvider struct {
	// Responses is a queue of raw completions to return
	Responses []string
	index     int

	// Err, when set, is returned from every call
	Err error
}

// NewScriptedProvider creates a provider with no scripted responses.
// With nothing queued it returns a well-formed fragment document.
func NewScriptedProvider() *ScriptedProvider {
	return &ScriptedProvider{}
}

// Complete returns the next scripted response
func (p *ScriptedProvider) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	if p.Err != nil {
		return "", p.Err
	}
	if p.index >= len(p.Responses) {
		return defaultCompletion(), nil
	}
	resp := p.Responses[p.index]
	p.index++
	return resp, nil
}

// Queue adds raw completions to the response queue
func (p *ScriptedProvider) Queue(responses ...string) {
	p.Responses = append(p.Responses, responses...)
}

func defaultCompletion() string {
	doc := map[string]string{
		"fragmentText":   "The ferry left three minutes early, and with it her last reason to stay.",
		"revelationText": "The departure board had shown the change all morning; nobody chose to look.",
	}
	b, _ := json.Marshal(doc)
	return string(b)
}

// SeedProfile writes a profile directly to storage for test setup
func (t *TestApp) SeedProfile(ctx context.Context, prof *model.Profile) error {
	return t.Storage.SaveProfile(ctx, prof)
}
