package handler

import (
	"encoding/json"
	"net/http"

	"github.com/athenaeum/moirai/internal/api/request"
	"github.com/athenaeum/moirai/internal/api/response"
	"github.com/athenaeum/moirai/internal/model"
	"github.com/athenaeum/moirai/internal/services/relay"
)

// FragmentHandler handles fragment generation endpoints
type FragmentHandler struct {
	relayService *relay.Service
}

// NewFragmentHandler creates a new fragment handler
func NewFragmentHandler(relayService *relay.Service) *FragmentHandler {
	return &FragmentHandler{
		relayService: relayService,
	}
}

// Generate handles POST /api/v1/fragments and the legacy
// POST /api/generate-fragment route. Both speak the same body.
func (h *FragmentHandler) Generate(w http.ResponseWriter, r *http.Request) {
	var req request.GenerateFragmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewInvalidRequestError("invalid request body"))
		return
	}

	// Absent fields are distinct from invalid ones: both are 400s, but
	// the messages differ so the client can tell which it sent
	if req.SecretTag == nil {
		WriteError(w, NewInvalidRequestError("secretTag is required"))
		return
	}
	if req.DifficultyTier == nil {
		WriteError(w, NewInvalidRequestError("difficultyTier is required"))
		return
	}

	axiom, err := model.ParseAxiom(*req.SecretTag)
	if err != nil {
		WriteError(w, err)
		return
	}

	fragment, err := h.relayService.Generate(r.Context(), axiom, *req.DifficultyTier)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.FragmentFromModel(fragment))
}
