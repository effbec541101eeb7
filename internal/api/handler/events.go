package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/athenaeum/moirai/internal/api/middleware"
	"github.com/athenaeum/moirai/internal/api/response"
	"github.com/athenaeum/moirai/internal/model"
	"github.com/athenaeum/moirai/internal/services/profile"
)

// keepaliveInterval is how often an SSE comment is sent to hold the
// connection open through proxies
const keepaliveInterval = 15 * time.Second

// EventsHandler streams profile change snapshots over SSE
type EventsHandler struct {
	profileService *profile.Service
	logger         *slog.Logger
}

// NewEventsHandler creates a new events handler
func NewEventsHandler(profileService *profile.Service, logger *slog.Logger) *EventsHandler {
	return &EventsHandler{
		profileService: profileService,
		logger:         logger.With(slog.String("component", "events")),
	}
}

// Stream handles GET /api/v1/profile/events. Each stats write to the
// authenticated user's profile is pushed as a profile_updated event
// carrying the full snapshot, mirroring a document-listener subscription;
// a difficulty tier increase additionally pushes a tier_promoted event.
func (h *EventsHandler) Stream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		WriteError(w, NewInternalError())
		return
	}

	user := middleware.MustGetUser(r.Context())

	updates, cancel := h.profileService.Subscribe(user.ID)
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	h.logger.Debug("sse stream opened", slog.String("user_id", string(user.ID)))

	keepalive := time.NewTicker(keepaliveInterval)
	defer keepalive.Stop()

	for {
		select {
		case <-r.Context().Done():
			h.logger.Debug("sse stream closed by client", slog.String("user_id", string(user.ID)))
			return
		case event, open := <-updates:
			if !open {
				return
			}
			if err := h.writeEvent(w, flusher, event); err != nil {
				h.logger.Warn("sse write failed", slog.String("error", err.Error()))
				return
			}
		case <-keepalive.C:
			if err := response.SSEComment(w, flusher, "keepalive"); err != nil {
				return
			}
		}
	}
}

// writeEvent translates a profile event into its SSE frame
func (h *EventsHandler) writeEvent(w http.ResponseWriter, flusher http.Flusher, event model.Event) error {
	switch payload := event.Payload.(type) {
	case model.ProfileUpdatedPayload:
		return response.SSEEvent(w, flusher, string(event.Type), response.ProfileFromModel(&payload.Profile))
	case model.TierPromotedPayload:
		return response.SSEEvent(w, flusher, string(event.Type), response.TierPromotion{NewTier: payload.NewTier})
	default:
		h.logger.Warn("unrecognized profile event", slog.String("type", string(event.Type)))
		return nil
	}
}
