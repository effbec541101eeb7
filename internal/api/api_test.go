package api_test

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/athenaeum/moirai/internal/api"
	"github.com/athenaeum/moirai/internal/api/apierr"
	"github.com/athenaeum/moirai/internal/api/response"
	"github.com/athenaeum/moirai/internal/factory"
)

// testServer creates a test server with all dependencies
type testServer struct {
	handler http.Handler
	app     *factory.TestApp
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	app := factory.NewTestApp()

	router := api.NewRouter(api.RouterConfig{
		Logger:         logger,
		AuthService:    app.AuthService,
		RelayService:   app.RelayService,
		ProfileService: app.ProfileService,
	})

	return &testServer{
		handler: router,
		app:     app,
	}
}

func (ts *testServer) request(method, path string, body any, token string) *httptest.ResponseRecorder {
	var reqBody *bytes.Buffer
	if body != nil {
		b, _ := json.Marshal(body)
		reqBody = bytes.NewBuffer(b)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req := httptest.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	return rec
}

// signInGuest creates a guest session and returns its token
func (ts *testServer) signInGuest(t *testing.T, displayName string) string {
	t.Helper()

	rec := ts.request(http.MethodPost, "/api/v1/auth/guest", map[string]string{
		"display_name": displayName,
	}, "")
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp response.AuthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp.SessionToken
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) apierr.APIError {
	t.Helper()
	var resp apierr.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp.Error
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.request(http.MethodGet, "/api/v1/health", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestGuestSignIn(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.request(http.MethodPost, "/api/v1/auth/guest", map[string]string{
		"display_name": "Wanderer",
	}, "")
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp response.AuthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.User.IsGuest)
	assert.Equal(t, "Wanderer", resp.User.DisplayName)
	assert.NotEmpty(t, resp.SessionToken)
}

func TestGuestSignInRequiresDisplayName(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.request(http.MethodPost, "/api/v1/auth/guest", map[string]string{}, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, apierr.CodeInvalidRequest, decodeError(t, rec).Code)
}

func TestRegisterAndLogin(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.request(http.MethodPost, "/api/v1/auth/register", map[string]string{
		"email":        "alice@example.com",
		"password":     "secret123",
		"display_name": "Alice",
	}, "")
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = ts.request(http.MethodPost, "/api/v1/auth/login", map[string]string{
		"email":    "alice@example.com",
		"password": "secret123",
	}, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp response.AuthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp.User.IsGuest)
}

func TestLoginWrongPassword(t *testing.T) {
	ts := newTestServer(t)

	ts.request(http.MethodPost, "/api/v1/auth/register", map[string]string{
		"email":        "alice@example.com",
		"password":     "secret123",
		"display_name": "Alice",
	}, "")

	rec := ts.request(http.MethodPost, "/api/v1/auth/login", map[string]string{
		"email":    "alice@example.com",
		"password": "wrong",
	}, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, apierr.CodeInvalidCredentials, decodeError(t, rec).Code)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	ts := newTestServer(t)

	body := map[string]string{
		"email":        "alice@example.com",
		"password":     "secret123",
		"display_name": "Alice",
	}
	rec := ts.request(http.MethodPost, "/api/v1/auth/register", body, "")
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = ts.request(http.MethodPost, "/api/v1/auth/register", body, "")
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, apierr.CodeEmailExists, decodeError(t, rec).Code)
}

func TestProviderSignIn(t *testing.T) {
	ts := newTestServer(t)

	body := map[string]string{
		"provider":     "google",
		"subject":      "sub-123",
		"display_name": "Alice",
	}
	rec := ts.request(http.MethodPost, "/api/v1/auth/provider", body, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var first response.AuthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &first))
	assert.Equal(t, "google", first.User.Provider)

	// Second sign-in resolves to the same account
	rec = ts.request(http.MethodPost, "/api/v1/auth/provider", body, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var second response.AuthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &second))
	assert.Equal(t, first.User.ID, second.User.ID)
}

func TestGetMe(t *testing.T) {
	ts := newTestServer(t)
	token := ts.signInGuest(t, "Wanderer")

	rec := ts.request(http.MethodGet, "/api/v1/users/me", nil, token)
	require.Equal(t, http.StatusOK, rec.Code)

	var user response.User
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &user))
	assert.Equal(t, "Wanderer", user.DisplayName)
}

func TestLogoutInvalidatesSession(t *testing.T) {
	ts := newTestServer(t)
	token := ts.signInGuest(t, "Wanderer")

	rec := ts.request(http.MethodPost, "/api/v1/auth/logout", nil, token)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = ts.request(http.MethodGet, "/api/v1/users/me", nil, token)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestGenerateFragment(t *testing.T) {
	ts := newTestServer(t)
	token := ts.signInGuest(t, "Wanderer")

	rec := ts.request(http.MethodPost, "/api/v1/fragments", map[string]any{
		"secretTag":      "Fate",
		"difficultyTier": 1,
	}, token)
	require.Equal(t, http.StatusOK, rec.Code)

	var frag response.Fragment
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &frag))
	assert.NotEmpty(t, frag.FragmentText)
	assert.NotEmpty(t, frag.RevelationText)
}

func TestGenerateFragmentWireContract(t *testing.T) {
	ts := newTestServer(t)
	token := ts.signInGuest(t, "Wanderer")

	// Both routes answer with exactly {fragmentText, revelationText}
	for _, path := range []string{"/api/v1/fragments", "/api/generate-fragment"} {
		rec := ts.request(http.MethodPost, path, map[string]any{
			"secretTag":      "Fate",
			"difficultyTier": 1,
		}, token)
		require.Equal(t, http.StatusOK, rec.Code)

		var body map[string]json.RawMessage
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Contains(t, body, "fragmentText", path)
		assert.Contains(t, body, "revelationText", path)
		assert.Len(t, body, 2, path)
	}
}

func TestGenerateFragmentLegacyRoute(t *testing.T) {
	ts := newTestServer(t)

	// The legacy route needs no session
	rec := ts.request(http.MethodPost, "/api/generate-fragment", map[string]any{
		"secretTag":      "Chance",
		"difficultyTier": 3,
	}, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var frag response.Fragment
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &frag))
	assert.NotEmpty(t, frag.FragmentText)
}

func TestGenerateFragmentRequiresAuth(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.request(http.MethodPost, "/api/v1/fragments", map[string]any{
		"secretTag":      "Fate",
		"difficultyTier": 1,
	}, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestGenerateFragmentValidation(t *testing.T) {
	ts := newTestServer(t)
	token := ts.signInGuest(t, "Wanderer")

	tests := []struct {
		name     string
		body     map[string]any
		wantCode string
	}{
		{"missing secretTag", map[string]any{"difficultyTier": 1}, apierr.CodeInvalidRequest},
		{"missing difficultyTier", map[string]any{"secretTag": "Fate"}, apierr.CodeInvalidRequest},
		{"unknown axiom", map[string]any{"secretTag": "Destiny", "difficultyTier": 1}, apierr.CodeUnknownAxiom},
		{"zero tier", map[string]any{"secretTag": "Fate", "difficultyTier": 0}, apierr.CodeInvalidDifficulty},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := ts.request(http.MethodPost, "/api/v1/fragments", tt.body, token)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, tt.wantCode, decodeError(t, rec).Code)
		})
	}
}

func TestGenerateFragmentUpstreamFailure(t *testing.T) {
	ts := newTestServer(t)
	token := ts.signInGuest(t, "Wanderer")
	ts.app.MockProvider.Err = errors.New("model offline")

	rec := ts.request(http.MethodPost, "/api/v1/fragments", map[string]any{
		"secretTag":      "Fate",
		"difficultyTier": 1,
	}, token)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	apiErr := decodeError(t, rec)
	assert.Equal(t, apierr.CodeGenerationFailed, apiErr.Code)
	assert.Contains(t, apiErr.Message, "model offline", "the upstream cause travels with the error")
}

func TestGenerateFragmentMalformedUpstream(t *testing.T) {
	ts := newTestServer(t)
	token := ts.signInGuest(t, "Wanderer")
	ts.app.MockProvider.Queue("this is not a json document")

	rec := ts.request(http.MethodPost, "/api/v1/fragments", map[string]any{
		"secretTag":      "Fate",
		"difficultyTier": 1,
	}, token)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, apierr.CodeMalformedAIResponse, decodeError(t, rec).Code)
}

func TestGetProfileCreatesOnFirstFetch(t *testing.T) {
	ts := newTestServer(t)
	token := ts.signInGuest(t, "Wanderer")

	rec := ts.request(http.MethodGet, "/api/v1/profile", nil, token)
	require.Equal(t, http.StatusOK, rec.Code)

	var prof response.Profile
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &prof))
	assert.Equal(t, "Wanderer", prof.Username)
	assert.Equal(t, 0, prof.CurrentScore)
	assert.Equal(t, 1, prof.DifficultyTier)
}

func TestPutProfile(t *testing.T) {
	ts := newTestServer(t)
	token := ts.signInGuest(t, "Wanderer")

	// Create the profile first
	rec := ts.request(http.MethodGet, "/api/v1/profile", nil, token)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = ts.request(http.MethodPut, "/api/v1/profile", map[string]any{
		"username":          "Wanderer",
		"currentScore":      50,
		"highestScore":      50,
		"currentStreak":     5,
		"highestStreak":     5,
		"difficultyTier":    2,
		"totalRoundsPlayed": 1,
	}, token)
	require.Equal(t, http.StatusOK, rec.Code)

	var prof response.Profile
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &prof))
	assert.Equal(t, 50, prof.CurrentScore)
	assert.Equal(t, 2, prof.DifficultyTier)
}

func TestPutProfileClampsInvariants(t *testing.T) {
	ts := newTestServer(t)
	token := ts.signInGuest(t, "Wanderer")

	rec := ts.request(http.MethodGet, "/api/v1/profile", nil, token)
	require.Equal(t, http.StatusOK, rec.Code)

	// A write claiming a high score below the current score gets clamped
	rec = ts.request(http.MethodPut, "/api/v1/profile", map[string]any{
		"username":          "Wanderer",
		"currentScore":      80,
		"highestScore":      10,
		"currentStreak":     3,
		"highestStreak":     1,
		"difficultyTier":    1,
		"totalRoundsPlayed": 2,
	}, token)
	require.Equal(t, http.StatusOK, rec.Code)

	var prof response.Profile
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &prof))
	assert.Equal(t, 80, prof.HighestScore)
	assert.Equal(t, 3, prof.HighestStreak)
}

func TestPutProfileRejectsBadTier(t *testing.T) {
	ts := newTestServer(t)
	token := ts.signInGuest(t, "Wanderer")

	rec := ts.request(http.MethodPut, "/api/v1/profile", map[string]any{
		"username":       "Wanderer",
		"difficultyTier": 0,
	}, token)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, apierr.CodeInvalidDifficulty, decodeError(t, rec).Code)
}

func TestCORSPreflight(t *testing.T) {
	ts := newTestServer(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/auth/guest", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)

	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)

	assert.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestUnknownRouteIs404(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.request(http.MethodGet, fmt.Sprintf("/api/v1/%s", "nope"), nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestProfileEventsStream(t *testing.T) {
	ts := newTestServer(t)
	token := ts.signInGuest(t, "Wanderer")

	// Ensure the profile exists before subscribing
	rec := ts.request(http.MethodGet, "/api/v1/profile", nil, token)
	require.Equal(t, http.StatusOK, rec.Code)

	srv := httptest.NewServer(ts.handler)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		srv.URL+"/api/v1/profile/events?session="+token, nil)
	require.NoError(t, err)

	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	// A tier-raising write pushes profile_updated then tier_promoted
	rec = ts.request(http.MethodPut, "/api/v1/profile", map[string]any{
		"username":       "Wanderer",
		"currentScore":   50,
		"currentStreak":  5,
		"difficultyTier": 2,
	}, token)
	require.Equal(t, http.StatusOK, rec.Code)

	var names []string
	var datas []string
	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() && len(datas) < 2 {
		line := scanner.Text()
		if strings.HasPrefix(line, "event: ") {
			names = append(names, strings.TrimPrefix(line, "event: "))
		}
		if strings.HasPrefix(line, "data: ") {
			datas = append(datas, strings.TrimPrefix(line, "data: "))
		}
	}

	require.Equal(t, []string{"profile_updated", "tier_promoted"}, names)
	require.Len(t, datas, 2)

	var prof response.Profile
	require.NoError(t, json.Unmarshal([]byte(datas[0]), &prof))
	assert.Equal(t, 50, prof.CurrentScore)

	var promo response.TierPromotion
	require.NoError(t, json.Unmarshal([]byte(datas[1]), &promo))
	assert.Equal(t, 2, promo.NewTier)
}
