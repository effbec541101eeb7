package relay

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/athenaeum/moirai/internal/ai"
	"github.com/athenaeum/moirai/internal/model"
)

// Service generates fragments by relaying templated prompts to the
// hosted model. It is stateless: the only side effect is the outbound
// model call.
type Service struct {
	provider ai.Provider
	logger   *slog.Logger
}

// New creates a new relay Service
func New(provider ai.Provider, logger *slog.Logger) *Service {
	return &Service{
		provider: provider,
		logger:   logger.With(slog.String("component", "relay")),
	}
}

// generation is the schema the model is constrained to
type generation struct {
	FragmentText   string `json:"fragmentText"`
	RevelationText string `json:"revelationText"`
}

// Generate produces a fragment whose hidden causal force is axiom, with
// narrative subtlety scaled to the difficulty tier
func (s *Service) Generate(ctx context.Context, axiom model.Axiom, tier int) (*model.Fragment, error) {
	if !axiom.Valid() {
		return nil, model.ErrUnknownAxiom
	}
	if tier < 1 {
		return nil, model.ErrInvalidDifficulty
	}

	raw, err := s.provider.Complete(ctx, systemPrompt(tier), userPrompt(axiom))
	if err != nil {
		s.logger.Error("model call failed",
			slog.String("axiom", string(axiom)),
			slog.Int("tier", tier),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("%w: %s", model.ErrGenerationFailed, err.Error())
	}

	gen, ok := s.extract(raw)
	if !ok || gen.FragmentText == "" || gen.RevelationText == "" {
		return nil, model.ErrMalformedResponse
	}

	fragment := &model.Fragment{
		ID:             uuid.NewString(),
		Text:           gen.FragmentText,
		SecretAxiom:    axiom,
		RevelationText: gen.RevelationText,
	}

	s.logger.Info("fragment generated",
		slog.String("fragment_id", fragment.ID),
		slog.Int("tier", tier),
	)

	return fragment, nil
}

// extract parses the model's raw text. Even under schema-constrained mode
// the output is untrusted: only the substring between the first '{' and
// the last '}' is parsed, tolerating incidental wrapping text.
func (s *Service) extract(raw string) (generation, bool) {
	var gen generation

	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start == -1 || end == -1 || end < start {
		s.logger.Warn("model output contained no JSON object")
		return gen, false
	}

	if err := json.Unmarshal([]byte(raw[start:end+1]), &gen); err != nil {
		s.logger.Warn("model output failed to parse",
			slog.String("error", err.Error()),
		)
		return gen, false
	}

	return gen, true
}
