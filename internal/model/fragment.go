package model

// Fragment is one generated narrative snippet and its hidden causal force.
// It lives for a single round: created at round start, consumed at
// classification, discarded when the next round begins.
type Fragment struct {
	ID             string
	Text           string // narrative shown to the user
	SecretAxiom    Axiom  // the true causal force, not derivable from Text
	RevelationText string // justification disclosed after classification
}
