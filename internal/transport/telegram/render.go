package telegram

import (
	"fmt"
	"strings"

	"flag-quiz-service/internal/domain"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// QuestionText renders the prompt, score and, after a wrong sudden-death
// answer, the game over notice.
func QuestionText(snap domain.Snapshot) string {
	if snap.Status == domain.StatusGameOver {
		return fmt.Sprintf("Game over! Final score: %d (%d answered)", snap.Score, snap.Answered)
	}
	var sb strings.Builder
	sb.WriteString(snap.Prompt)
	fmt.Fprintf(&sb, "\nYour score: %d", snap.Score)
	if snap.Selected != nil {
		fmt.Fprintf(&sb, "\nYour answer: %s", *snap.Selected)
	}
	return sb.String()
}

// QuestionKeyboard builds one button per option plus the controls the
// variant allows. Option buttons carry the country name.
func QuestionKeyboard(snap domain.Snapshot) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	if snap.Status == domain.StatusPlaying {
		for i, option := range snap.Options {
			label := option
			if snap.Selected != nil && *snap.Selected == option {
				label = "» " + option
			}
			rows = append(rows, tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData(label, optionData(i, option)),
			))
		}
	}

	var controls []tgbotapi.InlineKeyboardButton
	if snap.CanNavigate {
		controls = append(controls,
			tgbotapi.NewInlineKeyboardButtonData("Previous", cbPrevious),
			tgbotapi.NewInlineKeyboardButtonData("Next", cbNext),
		)
	}
	if snap.CanRestart && snap.Status == domain.StatusGameOver {
		controls = append(controls, tgbotapi.NewInlineKeyboardButtonData("Restart", cbRestart))
	}
	controls = append(controls, tgbotapi.NewInlineKeyboardButtonData("Back to Menu", cbMenu))
	rows = append(rows, controls)

	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

// ScoreboardText lists at most limit players.
func ScoreboardText(board domain.Scoreboard, limit int) string {
	if len(board.Entries) == 0 {
		return "No scores yet."
	}
	var sb strings.Builder
	sb.WriteString("Best scores:")
	for i, entry := range board.Entries {
		if i == limit {
			break
		}
		fmt.Fprintf(&sb, "\n%d. %s - %d", i+1, entry.DisplayName, entry.BestScore)
	}
	return sb.String()
}

func optionData(index int, option string) string {
	data := cbOptionPref + option
	if len(data) > maxCallbackData {
		return fmt.Sprintf("%s%d", cbIndexPref, index)
	}
	return data
}
