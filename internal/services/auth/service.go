package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/athenaeum/moirai/internal/dependencies/clock"
	"github.com/athenaeum/moirai/internal/model"
	"github.com/athenaeum/moirai/internal/storage"
)

// Errors
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidSession     = errors.New("invalid or expired session")
	ErrInvalidToken       = errors.New("invalid or expired sign-in token")
	ErrEmailExists        = errors.New("email already registered")
)

// Session represents an authenticated session
type Session struct {
	Token     string
	UserID    model.UserID
	User      model.User
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Service is the auth gateway: account creation, the sign-in surface
// (anonymous, password, custom token, external provider), session
// lifecycle and auth-state change events.
type Service struct {
	storage storage.Storage
	clock   clock.Clock
	logger  *slog.Logger

	mu           sync.RWMutex
	sessions     map[string]*Session
	signInTokens map[string]tokenGrant

	events chan model.Event

	sessionDuration time.Duration
	tokenDuration   time.Duration
}

// tokenGrant is a pre-issued one-time sign-in token
type tokenGrant struct {
	userID    model.UserID
	expiresAt time.Time
}

// Config holds configuration for the auth service
type Config struct {
	SessionDuration time.Duration
	TokenDuration   time.Duration
}

// DefaultConfig returns default auth configuration
func DefaultConfig() Config {
	return Config{
		SessionDuration: 24 * time.Hour,
		TokenDuration:   10 * time.Minute,
	}
}

// New creates a new auth Service
func New(storage storage.Storage, clock clock.Clock, cfg Config, logger *slog.Logger) *Service {
	if cfg.SessionDuration == 0 {
		cfg.SessionDuration = DefaultConfig().SessionDuration
	}
	if cfg.TokenDuration == 0 {
		cfg.TokenDuration = DefaultConfig().TokenDuration
	}
	return &Service{
		storage:         storage,
		clock:           clock,
		logger:          logger.With(slog.String("component", "auth")),
		sessions:        make(map[string]*Session),
		signInTokens:    make(map[string]tokenGrant),
		events:          make(chan model.Event, 64),
		sessionDuration: cfg.SessionDuration,
		tokenDuration:   cfg.TokenDuration,
	}
}

// Events exposes auth state changes (sign-in/sign-out) as a stream
func (s *Service) Events() <-chan model.Event {
	return s.events
}

// CreateGuest signs in anonymously: a throwaway account and session
func (s *Service) CreateGuest(ctx context.Context, displayName string) (*Session, error) {
	userID := model.UserID(s.generateID("u_"))
	now := s.clock.Now()

	user := &model.User{
		ID:          userID,
		DisplayName: displayName,
		IsGuest:     true,
		CreatedAt:   now,
	}

	if err := s.storage.SaveUser(ctx, user); err != nil {
		return nil, err
	}

	return s.createSession(user)
}

// Register creates an email/password account and signs it in
func (s *Service) Register(ctx context.Context, email, password, displayName string) (*Session, error) {
	// Check if email is taken
	_, err := s.storage.GetRegisteredUserByEmail(ctx, email)
	if err == nil {
		return nil, ErrEmailExists
	}
	if !errors.Is(err, model.ErrUserNotFound) {
		return nil, err
	}

	// Hash password
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	userID := model.UserID(s.generateID("u_"))
	now := s.clock.Now()

	user := &model.User{
		ID:          userID,
		DisplayName: displayName,
		IsGuest:     false,
		CreatedAt:   now,
	}

	registeredUser := &model.RegisteredUser{
		UserID:       userID,
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.storage.SaveUser(ctx, user); err != nil {
		return nil, err
	}

	if err := s.storage.SaveRegisteredUser(ctx, registeredUser); err != nil {
		return nil, err
	}

	return s.createSession(user)
}

// Login signs in with email and password
func (s *Service) Login(ctx context.Context, email, password string) (*Session, error) {
	ru, err := s.storage.GetRegisteredUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(ru.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	user, err := s.storage.GetUser(ctx, ru.UserID)
	if err != nil {
		return nil, err
	}

	return s.createSession(user)
}

// IssueToken pre-issues a one-time sign-in token for a user
func (s *Service) IssueToken(ctx context.Context, userID model.UserID) (string, error) {
	if _, err := s.storage.GetUser(ctx, userID); err != nil {
		return "", err
	}

	token := s.generateID("tok_")

	s.mu.Lock()
	s.signInTokens[token] = tokenGrant{
		userID:    userID,
		expiresAt: s.clock.Now().Add(s.tokenDuration),
	}
	s.mu.Unlock()

	return token, nil
}

// LoginWithToken signs in with a pre-issued one-time token
func (s *Service) LoginWithToken(ctx context.Context, token string) (*Session, error) {
	s.mu.Lock()
	grant, ok := s.signInTokens[token]
	if ok {
		delete(s.signInTokens, token) // single use
	}
	s.mu.Unlock()

	if !ok || s.clock.Now().After(grant.expiresAt) {
		return nil, ErrInvalidToken
	}

	user, err := s.storage.GetUser(ctx, grant.userID)
	if err != nil {
		return nil, err
	}

	return s.createSession(user)
}

// LoginWithProvider signs in via an external identity provider assertion,
// creating the linked account on first sign-in
func (s *Service) LoginWithProvider(ctx context.Context, provider, subject, displayName string) (*Session, error) {
	userID, err := s.storage.GetUserIDByProvider(ctx, provider, subject)
	if err == nil {
		user, err := s.storage.GetUser(ctx, userID)
		if err != nil {
			return nil, err
		}
		return s.createSession(user)
	}
	if !errors.Is(err, model.ErrUserNotFound) {
		return nil, err
	}

	// First sign-in through this provider
	userID = model.UserID(s.generateID("u_"))
	now := s.clock.Now()

	user := &model.User{
		ID:          userID,
		DisplayName: displayName,
		IsGuest:     false,
		Provider:    provider,
		CreatedAt:   now,
	}

	if err := s.storage.SaveUser(ctx, user); err != nil {
		return nil, err
	}
	if err := s.storage.SaveProviderLink(ctx, provider, subject, userID); err != nil {
		return nil, err
	}

	return s.createSession(user)
}

// ValidateSession checks if a session token is valid and returns the session
func (s *Service) ValidateSession(token string) (*Session, error) {
	s.mu.RLock()
	session, ok := s.sessions[token]
	s.mu.RUnlock()

	if !ok {
		return nil, ErrInvalidSession
	}

	if s.clock.Now().After(session.ExpiresAt) {
		s.mu.Lock()
		delete(s.sessions, token)
		s.mu.Unlock()
		return nil, ErrInvalidSession
	}

	return session, nil
}

// InvalidateSession signs out: removes the session and emits a
// signed_out event
func (s *Service) InvalidateSession(token string) {
	s.mu.Lock()
	session, ok := s.sessions[token]
	delete(s.sessions, token)
	s.mu.Unlock()

	if ok {
		s.emit(model.EventSignedOut, session.UserID)
	}
}

// GetUser returns the user for a session token
func (s *Service) GetUser(token string) (*model.User, error) {
	session, err := s.ValidateSession(token)
	if err != nil {
		return nil, err
	}
	return &session.User, nil
}

// createSession creates a new session for a user and emits a signed_in event
func (s *Service) createSession(user *model.User) (*Session, error) {
	token := s.generateID("sess_")
	now := s.clock.Now()

	session := &Session{
		Token:     token,
		UserID:    user.ID,
		User:      *user,
		CreatedAt: now,
		ExpiresAt: now.Add(s.sessionDuration),
	}

	s.mu.Lock()
	s.sessions[token] = session
	s.mu.Unlock()

	s.emit(model.EventSignedIn, user.ID)
	return session, nil
}

// emit publishes an auth state change without blocking
func (s *Service) emit(eventType model.EventType, userID model.UserID) {
	event := model.Event{
		Type:      eventType,
		Timestamp: s.clock.Now(),
		UserID:    userID,
	}
	select {
	case s.events <- event:
	default:
		s.logger.Warn("auth event dropped - buffer full",
			slog.String("type", string(eventType)),
		)
	}
}

// generateID generates a random ID with a prefix
func (s *Service) generateID(prefix string) string {
	b := make([]byte, 16)
	_, _ = rand.Read(b)
	return prefix + base64.RawURLEncoding.EncodeToString(b)
}

// CleanExpiredSessions removes expired sessions and tokens (call periodically)
func (s *Service) CleanExpiredSessions() {
	now := s.clock.Now()
	s.mu.Lock()
	defer s.mu.Unlock()

	for token, session := range s.sessions {
		if now.After(session.ExpiresAt) {
			delete(s.sessions, token)
		}
	}
	for token, grant := range s.signInTokens {
		if now.After(grant.expiresAt) {
			delete(s.signInTokens, token)
		}
	}
}
