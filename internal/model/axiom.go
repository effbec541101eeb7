package model

// Axiom is a causal force that can underlie a fragment
type Axiom string

const (
	AxiomFate   Axiom = "Fate"   // inevitable predetermination
	AxiomChoice Axiom = "Choice" // a critical, preventable decision
	AxiomChance Axiom = "Chance" // random, unpreventable external occurrence
)

// Axioms lists all causal forces in a stable order
var Axioms = []Axiom{AxiomFate, AxiomChoice, AxiomChance}

// Valid reports whether a is one of the known axioms
func (a Axiom) Valid() bool {
	switch a {
	case AxiomFate, AxiomChoice, AxiomChance:
		return true
	}
	return false
}

// ParseAxiom converts a string to an Axiom
func ParseAxiom(s string) (Axiom, error) {
	a := Axiom(s)
	if !a.Valid() {
		return "", ErrUnknownAxiom
	}
	return a, nil
}
