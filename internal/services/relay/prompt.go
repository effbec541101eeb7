package relay

import (
	"fmt"

	"github.com/athenaeum/moirai/internal/model"
)

// systemPrompt renders the Fragment Weaver instructions for a difficulty
// tier. Higher tiers demand subtler narrative deception.
func systemPrompt(tier int) string {
	subtlety := ""
	if tier >= 2 {
		subtlety = "The narrative deception must be subtle. The false axiom should be strongly suggested, but the true axiom must only be revealed by a single, nuanced detail."
	}
	if tier >= 5 {
		subtlety = "The deception must be highly complex. The false axiom should dominate the narrative flow, requiring the reader to identify a latent, non-obvious clue to find the true, underlying axiom."
	}

	return fmt.Sprintf(`You are the Fragment Weaver of the Athenaeum of Moirai. Your task is to generate a short, emotionally driven story fragment (around 4-6 sentences) based on a SECRET_TAG.
The story must strongly suggest one of the other two Axioms (narrative deception), but the final outcome must be clearly defined by the SECRET_TAG.
The possible Axioms are: Fate (inevitable predetermination), Choice (a critical, preventable decision), or Chance (random, unpreventable external occurrence).

Current Difficulty Tier: %d. %s

After generating the story, generate a separate, short revelation text that justifies why the SECRET_TAG is the definitive causal force, explaining the narrative deception.

Format your entire response as a single JSON object with the required fields "fragmentText" and "revelationText". Do not include any text outside the JSON object.`, tier, subtlety)
}

// userPrompt asks for a fragment bound to a specific axiom
func userPrompt(axiom model.Axiom) string {
	return fmt.Sprintf("Generate a Fragment where the true underlying Axiom is: %s", axiom)
}
