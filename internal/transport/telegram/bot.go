// Package telegram plays the flag quiz through a Telegram bot: one game per
// chat, options as inline buttons.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"flag-quiz-service/internal/app"
	"flag-quiz-service/internal/domain"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// API is the subset of *tgbotapi.BotAPI the bot uses.
type API interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
}

// GameService is the part of app.GameService the bot drives.
type GameService interface {
	Start(ctx context.Context, req app.StartRequest) (domain.Snapshot, error)
	Snapshot(ctx context.Context, gameID string) (domain.Snapshot, error)
	Answer(ctx context.Context, gameID, option string) (domain.AnswerResult, error)
	Previous(ctx context.Context, gameID string) (domain.Snapshot, error)
	Next(ctx context.Context, gameID string) (domain.Snapshot, error)
	Restart(ctx context.Context, gameID string) (domain.Snapshot, error)
	End(ctx context.Context, gameID string)
	Scoreboard(ctx context.Context) domain.Scoreboard
}

const (
	cbStart      = "start_quiz"
	cbMenu       = "back_to_menu"
	cbPrevious   = "prev"
	cbNext       = "next"
	cbRestart    = "restart"
	cbScoreboard = "scoreboard"
	cbOptionPref = "opt:"
	cbIndexPref  = "opt#"

	// Telegram rejects callback data longer than this.
	maxCallbackData = 64
)

type Bot struct {
	api       API
	service   GameService
	logger    *zap.Logger
	variant   string
	assetsDir string

	mu sync.Mutex
	// questions holds the message id of the newest question per chat; only
	// its buttons answer the running game.
	questions map[int64]int
}

func NewBot(api API, service GameService, logger *zap.Logger, variant, assetsDir string) *Bot {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Bot{
		api:       api,
		service:   service,
		logger:    logger,
		variant:   variant,
		assetsDir: assetsDir,
		questions: make(map[int64]int),
	}
}

// Run consumes updates until ctx is cancelled.
func (b *Bot) Run(ctx context.Context) error {
	b.logger.Info("telegram bot started")
	defer b.logger.Info("telegram bot stopped")

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := b.api.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			b.HandleUpdate(ctx, update)
		}
	}
}

// HandleUpdate dispatches a single update.
func (b *Bot) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	if update.CallbackQuery != nil {
		b.handleCallback(ctx, update.CallbackQuery)
		return
	}
	if update.Message == nil {
		return
	}

	chatID := update.Message.Chat.ID
	switch update.Message.Command() {
	case "start", "menu":
		b.sendMenu(chatID)
	case "quiz":
		b.startQuiz(ctx, chatID, update.Message.From)
	case "scoreboard":
		b.sendScoreboard(ctx, chatID)
	default:
		b.sendText(chatID, "Unknown command. Use /quiz to play.")
	}
}

func (b *Bot) handleCallback(ctx context.Context, callback *tgbotapi.CallbackQuery) {
	if _, err := b.api.Request(tgbotapi.NewCallback(callback.ID, "")); err != nil {
		b.logger.Warn("answer callback", zap.Error(err))
	}
	if callback.Message == nil {
		return
	}
	chatID := callback.Message.Chat.ID
	gameID := gameIDFor(chatID)
	data := callback.Data

	switch {
	case data == cbStart:
		b.startQuiz(ctx, chatID, callback.From)
	case data == cbMenu:
		b.service.End(ctx, gameID)
		b.forgetQuestion(chatID)
		b.sendMenu(chatID)
	case data == cbScoreboard:
		b.sendScoreboard(ctx, chatID)
	case data == cbPrevious:
		b.respond(chatID)(b.service.Previous(ctx, gameID))
	case data == cbNext:
		b.respond(chatID)(b.service.Next(ctx, gameID))
	case data == cbRestart:
		b.respond(chatID)(b.service.Restart(ctx, gameID))
	case strings.HasPrefix(data, cbOptionPref), strings.HasPrefix(data, cbIndexPref):
		b.handleAnswer(ctx, chatID, callback.Message.MessageID, data)
	default:
		b.sendText(chatID, "Unknown action")
	}
}

func (b *Bot) startQuiz(ctx context.Context, chatID int64, from *tgbotapi.User) {
	playerID := strconv.FormatInt(chatID, 10)
	name := playerID
	if from != nil {
		playerID = strconv.FormatInt(from.ID, 10)
		name = displayName(from)
	}

	gameID := gameIDFor(chatID)
	b.service.End(ctx, gameID)
	b.forgetQuestion(chatID)
	snap, err := b.service.Start(ctx, app.StartRequest{
		GameID:      gameID,
		PlayerID:    playerID,
		DisplayName: name,
		Variant:     b.variant,
	})
	if err != nil {
		b.logger.Error("start quiz", zap.Int64("chat_id", chatID), zap.Error(err))
		b.sendText(chatID, "Could not start the quiz, try again later.")
		return
	}
	b.sendQuestion(chatID, snap)
}

func (b *Bot) handleAnswer(ctx context.Context, chatID int64, messageID int, data string) {
	if !b.isCurrentQuestion(chatID, messageID) {
		b.sendText(chatID, "That question has moved on. Answer the latest one.")
		return
	}
	gameID := gameIDFor(chatID)
	snap, err := b.service.Snapshot(ctx, gameID)
	if err != nil {
		if errors.Is(err, domain.ErrGameNotFound) {
			b.forgetQuestion(chatID)
		}
		b.sendError(chatID, err)
		return
	}
	option, ok := optionFromCallback(snap, data)
	if !ok {
		b.sendText(chatID, "That option is no longer on the board.")
		return
	}

	result, err := b.service.Answer(ctx, gameID, option)
	if err != nil {
		b.sendError(chatID, err)
		return
	}
	b.sendText(chatID, result.Feedback())
	b.sendQuestion(chatID, result.Snapshot)
}

// optionFromCallback resolves button data to an option of the current
// question. Names are matched as sent; the index form is only produced for
// names too long for callback data.
func optionFromCallback(snap domain.Snapshot, data string) (string, bool) {
	if name, ok := strings.CutPrefix(data, cbOptionPref); ok {
		for _, option := range snap.Options {
			if option == name {
				return option, true
			}
		}
		return "", false
	}
	idx, err := strconv.Atoi(strings.TrimPrefix(data, cbIndexPref))
	if err != nil || idx < 0 || idx >= len(snap.Options) {
		return "", false
	}
	return snap.Options[idx], true
}

func (b *Bot) isCurrentQuestion(chatID int64, messageID int) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	current, ok := b.questions[chatID]
	return ok && current == messageID
}

func (b *Bot) rememberQuestion(chatID int64, messageID int) {
	b.mu.Lock()
	b.questions[chatID] = messageID
	b.mu.Unlock()
}

func (b *Bot) forgetQuestion(chatID int64) {
	b.mu.Lock()
	delete(b.questions, chatID)
	b.mu.Unlock()
}

func (b *Bot) respond(chatID int64) func(domain.Snapshot, error) {
	return func(snap domain.Snapshot, err error) {
		if err != nil {
			b.sendError(chatID, err)
			return
		}
		b.sendQuestion(chatID, snap)
	}
}

func (b *Bot) sendQuestion(chatID int64, snap domain.Snapshot) {
	caption := QuestionText(snap)
	keyboard := QuestionKeyboard(snap)

	if path, ok := b.imagePath(snap.ImageRef); ok {
		photo := tgbotapi.NewPhoto(chatID, tgbotapi.FilePath(path))
		photo.Caption = caption
		photo.ReplyMarkup = keyboard
		sent, err := b.api.Send(photo)
		if err == nil {
			b.rememberQuestion(chatID, sent.MessageID)
			return
		}
		b.logger.Warn("send flag photo", zap.String("image", path), zap.Error(err))
	}

	msg := tgbotapi.NewMessage(chatID, caption)
	msg.ReplyMarkup = keyboard
	sent, err := b.api.Send(msg)
	if err != nil {
		b.logger.Warn("send question", zap.Int64("chat_id", chatID), zap.Error(err))
		return
	}
	b.rememberQuestion(chatID, sent.MessageID)
}

func (b *Bot) sendMenu(chatID int64) {
	msg := tgbotapi.NewMessage(chatID, "Welcome to Flag Quiz!")
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Start Quiz", cbStart),
			tgbotapi.NewInlineKeyboardButtonData("Scoreboard", cbScoreboard),
		),
	)
	if _, err := b.api.Send(msg); err != nil {
		b.logger.Warn("send menu", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}

func (b *Bot) sendScoreboard(ctx context.Context, chatID int64) {
	b.sendText(chatID, ScoreboardText(b.service.Scoreboard(ctx), 10))
}

func (b *Bot) sendError(chatID int64, err error) {
	switch {
	case errors.Is(err, domain.ErrGameNotFound):
		b.sendText(chatID, "No quiz running. Use /quiz to start one.")
	case errors.Is(err, domain.ErrGameOver):
		b.sendText(chatID, "Game over. Press Restart to play again.")
	case errors.Is(err, domain.ErrAlreadyAnswered):
		b.sendText(chatID, "You already answered this flag. Move on with Next.")
	case errors.Is(err, domain.ErrUnsupported):
		b.sendText(chatID, "That action is not available in this game mode.")
	default:
		b.logger.Error("quiz action", zap.Int64("chat_id", chatID), zap.Error(err))
		b.sendText(chatID, "Something went wrong.")
	}
}

func (b *Bot) sendText(chatID int64, text string) {
	if _, err := b.api.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		b.logger.Warn("send message", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}

func (b *Bot) imagePath(imageRef string) (string, bool) {
	if b.assetsDir == "" || imageRef == "" {
		return "", false
	}
	path := filepath.Join(b.assetsDir, filepath.Base(imageRef))
	if _, err := os.Stat(path); err != nil {
		return "", false
	}
	return path, true
}

func gameIDFor(chatID int64) string {
	return fmt.Sprintf("tg-%d", chatID)
}

func displayName(u *tgbotapi.User) string {
	if u.UserName != "" {
		return u.UserName
	}
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		return strconv.FormatInt(u.ID, 10)
	}
	return name
}
