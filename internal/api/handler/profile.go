package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/athenaeum/moirai/internal/api/middleware"
	"github.com/athenaeum/moirai/internal/api/request"
	"github.com/athenaeum/moirai/internal/api/response"
	"github.com/athenaeum/moirai/internal/model"
	"github.com/athenaeum/moirai/internal/services/profile"
)

// ProfileHandler handles profile endpoints
type ProfileHandler struct {
	profileService *profile.Service
}

// NewProfileHandler creates a new profile handler
func NewProfileHandler(profileService *profile.Service) *ProfileHandler {
	return &ProfileHandler{
		profileService: profileService,
	}
}

// Get handles GET /api/v1/profile. A missing profile is created on the
// spot with all counters at their floor values, so a first sign-in needs
// no separate provisioning call.
func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	user := middleware.MustGetUser(r.Context())

	prof, err := h.profileService.Get(r.Context(), user.ID)
	if errors.Is(err, model.ErrProfileNotFound) {
		prof, err = h.profileService.Create(r.Context(), user.ID, user.DisplayName)
	}
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.ProfileFromModel(prof))
}

// Put handles PUT /api/v1/profile: a full stats write in the
// last-writer-wins style. The store clamps the incoming document against
// its invariants, and the clamped result is what the response carries.
func (h *ProfileHandler) Put(w http.ResponseWriter, r *http.Request) {
	user := middleware.MustGetUser(r.Context())

	var req request.UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewInvalidRequestError("invalid request body"))
		return
	}

	if req.DifficultyTier < 1 {
		WriteError(w, model.ErrInvalidDifficulty)
		return
	}
	if req.CurrentScore < 0 || req.CurrentStreak < 0 {
		WriteError(w, NewInvalidRequestError("scores and streaks cannot be negative"))
		return
	}

	incoming := &model.Profile{
		UserID:            user.ID,
		Username:          req.Username,
		CurrentScore:      req.CurrentScore,
		HighestScore:      req.HighestScore,
		CurrentStreak:     req.CurrentStreak,
		HighestStreak:     req.HighestStreak,
		DifficultyTier:    req.DifficultyTier,
		TotalRoundsPlayed: req.TotalRoundsPlayed,
	}
	if incoming.Username == "" {
		incoming.Username = user.DisplayName
	}

	updated, err := h.profileService.PutStats(r.Context(), incoming)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.ProfileFromModel(updated))
}
