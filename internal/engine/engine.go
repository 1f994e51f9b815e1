// Package engine implements the flag quiz state machine. An Engine is not safe
// for concurrent use; callers that share one across goroutines serialise access.
package engine

import (
	"math/rand"
	"time"

	"flag-quiz-service/internal/domain"
)

// Rand is the randomness the engine draws from. *rand.Rand satisfies it.
type Rand interface {
	Intn(n int) int
	Shuffle(n int, swap func(i, j int))
}

// NewRand returns a source seeded with seed, or with the clock when seed is 0.
func NewRand(seed int64) *rand.Rand {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return rand.New(rand.NewSource(seed))
}

// Engine owns the catalog and the state of a single game.
type Engine struct {
	catalog domain.Catalog
	variant domain.Variant
	rnd     Rand
	state   domain.QuizState
}

// New validates the catalog and starts a game in the Playing state.
func New(catalog domain.Catalog, variant domain.Variant, rnd Rand) (*Engine, error) {
	if err := catalog.Validate(); err != nil {
		return nil, err
	}
	if rnd == nil {
		rnd = NewRand(0)
	}
	e := &Engine{
		catalog: catalog.Clone(),
		variant: variant,
		rnd:     rnd,
	}
	e.reset()
	return e, nil
}

// Variant returns the rules the engine plays by.
func (e *Engine) Variant() domain.Variant {
	return e.variant
}

// Catalog returns a copy of the question bank.
func (e *Engine) Catalog() domain.Catalog {
	return e.catalog.Clone()
}

// Correct returns the country name for the current flag.
func (e *Engine) Correct() string {
	return e.catalog[e.state.CurrentIndex].Country
}

// NewQuestion prepares a fresh question. Random variants draw a new index,
// skipping the current one when excludeCurrent is set; sequential variants
// keep the index and only regenerate the options.
func (e *Engine) NewQuestion(excludeCurrent bool) {
	if e.variant.Progression == domain.ProgressionRandom {
		e.state.CurrentIndex = e.randomIndex(excludeCurrent)
	}
	e.prepare()
}

// SubmitAnswer records option as the answer to the current question.
func (e *Engine) SubmitAnswer(option string) (domain.Outcome, error) {
	if e.state.Status == domain.StatusGameOver {
		return "", domain.ErrGameOver
	}
	if e.variant.SingleAnswer && e.state.SelectedAnswer != nil {
		return "", domain.ErrAlreadyAnswered
	}

	entry := e.catalog[e.state.CurrentIndex]
	selected := option
	e.state.SelectedAnswer = &selected
	e.state.Answered++

	outcome := domain.OutcomeIncorrect
	if option == entry.Country {
		outcome = domain.OutcomeCorrect
		e.state.Score++
	} else {
		switch e.variant.Scoring {
		case domain.ScoringPenalty:
			e.state.Score--
		case domain.ScoringSuddenDeath:
			e.state.Status = domain.StatusGameOver
		}
	}
	e.state.LastAnswer = &domain.AnswerFeedback{
		ImageRef: entry.ImageRef,
		Selected: option,
		Correct:  entry.Country,
		Outcome:  outcome,
	}

	if e.variant.AutoAdvance && e.state.Status == domain.StatusPlaying {
		e.advance()
	}
	return outcome, nil
}

// GoToPrevious steps back one flag, wrapping to the end of the catalog.
func (e *Engine) GoToPrevious() error {
	return e.navigate(-1)
}

// GoToNext steps forward one flag, wrapping to the start of the catalog.
func (e *Engine) GoToNext() error {
	return e.navigate(1)
}

// Restart resets a terminal game to a fresh Playing state.
func (e *Engine) Restart() error {
	if !e.variant.Terminal() {
		return domain.ErrUnsupported
	}
	e.reset()
	return nil
}

// State returns a copy of the current state.
func (e *Engine) State() domain.QuizState {
	state := e.state
	state.Options = append([]string(nil), e.state.Options...)
	if e.state.SelectedAnswer != nil {
		selected := *e.state.SelectedAnswer
		state.SelectedAnswer = &selected
	}
	if e.state.LastAnswer != nil {
		last := *e.state.LastAnswer
		state.LastAnswer = &last
	}
	return state
}

// Snapshot returns the read model a front end renders.
func (e *Engine) Snapshot() domain.Snapshot {
	state := e.State()
	return domain.Snapshot{
		Variant:     e.variant.Name,
		ImageRef:    e.catalog[state.CurrentIndex].ImageRef,
		Prompt:      domain.Prompt,
		Options:     state.Options,
		Selected:    state.SelectedAnswer,
		Score:       state.Score,
		Answered:    state.Answered,
		Status:      state.Status,
		LastAnswer:  state.LastAnswer,
		CanNavigate: !e.variant.AutoAdvance,
		CanRestart:  e.variant.Terminal(),
	}
}

func (e *Engine) navigate(step int) error {
	if e.variant.AutoAdvance {
		return domain.ErrUnsupported
	}
	n := len(e.catalog)
	e.state.CurrentIndex = (e.state.CurrentIndex + step + n) % n
	e.state.LastAnswer = nil
	e.prepare()
	return nil
}

func (e *Engine) advance() {
	if e.variant.Progression == domain.ProgressionSequential {
		e.state.CurrentIndex = (e.state.CurrentIndex + 1) % len(e.catalog)
		e.prepare()
		return
	}
	e.NewQuestion(false)
}

func (e *Engine) reset() {
	e.state = domain.QuizState{Status: domain.StatusPlaying}
	if e.variant.Progression == domain.ProgressionRandom {
		e.state.CurrentIndex = e.rnd.Intn(len(e.catalog))
	}
	e.prepare()
}

func (e *Engine) prepare() {
	e.state.Options = buildOptions(e.catalog, e.state.CurrentIndex, e.rnd)
	e.state.SelectedAnswer = nil
}

func (e *Engine) randomIndex(excludeCurrent bool) int {
	n := len(e.catalog)
	if !excludeCurrent || n == 1 {
		return e.rnd.Intn(n)
	}
	// draw from the n-1 other positions
	idx := e.rnd.Intn(n - 1)
	if idx >= e.state.CurrentIndex {
		idx++
	}
	return idx
}
