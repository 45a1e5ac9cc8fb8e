package models

// MatchOutcome tags how a catalog search resolved.
type MatchOutcome string

const (
	// MatchOutcomeExact means plans satisfied every stated constraint.
	MatchOutcomeExact MatchOutcome = "exact"
	// MatchOutcomeClose means nothing satisfied every constraint but the
	// destination still had nearby alternatives.
	MatchOutcomeClose MatchOutcome = "close"
	// MatchOutcomeNone means the destination had nothing usable at all.
	MatchOutcomeNone MatchOutcome = "none"
)

// MatchResult is the outcome of resolving an intent against the catalog.
// It is built through one of the constructors and not mutated afterwards,
// so a populated plan list always agrees with its outcome tag.
type MatchResult struct {
	outcome MatchOutcome
	plans   []Plan
}

// ExactMatch wraps plans that satisfied every stated constraint.
func ExactMatch(plans []Plan) MatchResult {
	return MatchResult{outcome: MatchOutcomeExact, plans: plans}
}

// CloseMatch wraps fallback plans for a destination with no exact fit.
func CloseMatch(plans []Plan) MatchResult {
	return MatchResult{outcome: MatchOutcomeClose, plans: plans}
}

// NoMatch is the empty outcome.
func NoMatch() MatchResult {
	return MatchResult{outcome: MatchOutcomeNone}
}

// Outcome returns the result tag.
func (r MatchResult) Outcome() MatchOutcome {
	return r.outcome
}

// Plans returns the matched rows. Empty for MatchOutcomeNone.
func (r MatchResult) Plans() []Plan {
	return r.plans
}
