package domain

import (
	"fmt"
	"time"
)

// Outcome is the result of a single answer.
type Outcome string

const (
	OutcomeCorrect   Outcome = "correct"
	OutcomeIncorrect Outcome = "incorrect"
)

// Status is the engine's state machine position.
type Status string

const (
	StatusPlaying  Status = "playing"
	StatusGameOver Status = "game_over"
)

// AnswerFeedback describes the most recent answer, kept after the engine
// moves on so a front end can still announce it.
type AnswerFeedback struct {
	ImageRef string  `json:"imageRef"`
	Selected string  `json:"selected"`
	Correct  string  `json:"correct"`
	Outcome  Outcome `json:"outcome"`
}

// QuizState is the mutable state of one game.
type QuizState struct {
	CurrentIndex   int
	Options        []string
	SelectedAnswer *string
	Score          int
	Answered       int
	Status         Status
	LastAnswer     *AnswerFeedback
}

// Snapshot is what a front end renders after every event.
type Snapshot struct {
	GameID      string          `json:"gameId,omitempty"`
	Variant     string          `json:"variant"`
	ImageRef    string          `json:"imageRef"`
	Prompt      string          `json:"prompt"`
	Options     []string        `json:"options"`
	Selected    *string         `json:"selected,omitempty"`
	Score       int             `json:"score"`
	Answered    int             `json:"answered"`
	Status      Status          `json:"status"`
	LastAnswer  *AnswerFeedback `json:"lastAnswer,omitempty"`
	CanNavigate bool            `json:"canNavigate"`
	CanRestart  bool            `json:"canRestart"`
}

// AnswerResult pairs an outcome with the state that follows it.
type AnswerResult struct {
	Outcome  Outcome  `json:"outcome"`
	Snapshot Snapshot `json:"snapshot"`
}

// Feedback is the short message announced after an answer.
func (r AnswerResult) Feedback() string {
	if r.Outcome == OutcomeCorrect {
		return "Correct!"
	}
	correct := ""
	if r.Snapshot.LastAnswer != nil {
		correct = r.Snapshot.LastAnswer.Correct
	}
	return fmt.Sprintf("Incorrect. The correct answer is %s.", correct)
}

// Player tracks the best score a player reached across games.
type Player struct {
	PlayerID    string
	DisplayName string
	BestScore   int
	LastUpdated time.Time
}

// ScoreboardEntry is a snapshot-friendly view of a player.
type ScoreboardEntry struct {
	PlayerID    string `json:"playerId"`
	DisplayName string `json:"displayName"`
	BestScore   int    `json:"bestScore"`
}

// Scoreboard is the ordered list of best scores.
type Scoreboard struct {
	Entries   []ScoreboardEntry `json:"entries"`
	UpdatedAt time.Time         `json:"updatedAt"`
}
