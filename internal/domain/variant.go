package domain

import "fmt"

// Progression decides how the next question is picked.
type Progression string

const (
	ProgressionRandom     Progression = "random"
	ProgressionSequential Progression = "sequential"
)

// Scoring decides what a wrong answer costs.
type Scoring string

const (
	// ScoringReward only ever adds points.
	ScoringReward Scoring = "reward"
	// ScoringPenalty subtracts a point per wrong answer; the score may go negative.
	ScoringPenalty Scoring = "penalty"
	// ScoringSuddenDeath ends the game on the first wrong answer.
	ScoringSuddenDeath Scoring = "sudden-death"
)

// Variant is one complete set of quiz rules.
type Variant struct {
	Name        string      `json:"name"`
	Progression Progression `json:"progression"`
	Scoring     Scoring     `json:"scoring"`
	// AutoAdvance moves to the next question after every answer. Variants
	// without it are navigated manually with previous/next.
	AutoAdvance bool `json:"autoAdvance"`
	// SingleAnswer rejects a second answer to a question that is still on
	// screen. Without it every tap re-scores the current flag.
	SingleAnswer bool `json:"singleAnswer"`
}

// Terminal reports whether a wrong answer ends the game.
func (v Variant) Terminal() bool {
	return v.Scoring == ScoringSuddenDeath
}

var (
	VariantClassic = Variant{
		Name:        "classic",
		Progression: ProgressionRandom,
		Scoring:     ScoringPenalty,
	}
	VariantEndless = Variant{
		Name:        "endless",
		Progression: ProgressionRandom,
		Scoring:     ScoringPenalty,
		AutoAdvance: true,
	}
	VariantSequential = Variant{
		Name:         "sequential",
		Progression:  ProgressionSequential,
		Scoring:      ScoringReward,
		SingleAnswer: true,
	}
	VariantSuddenDeath = Variant{
		Name:        "sudden-death",
		Progression: ProgressionRandom,
		Scoring:     ScoringSuddenDeath,
		AutoAdvance: true,
	}
)

// DefaultVariant is used when no variant is requested.
var DefaultVariant = VariantSuddenDeath

// Variants lists the presets in menu order.
func Variants() []Variant {
	return []Variant{VariantSuddenDeath, VariantClassic, VariantEndless, VariantSequential}
}

// ParseVariant resolves a preset by name. An empty name yields DefaultVariant.
func ParseVariant(name string) (Variant, error) {
	if name == "" {
		return DefaultVariant, nil
	}
	for _, v := range Variants() {
		if v.Name == name {
			return v, nil
		}
	}
	return Variant{}, fmt.Errorf("%w: %q", ErrUnknownVariant, name)
}
