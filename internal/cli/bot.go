package cli

import (
	"context"
	"errors"
	"os/signal"
	"syscall"
	"time"

	"flag-quiz-service/internal/app"
	"flag-quiz-service/internal/config"
	"flag-quiz-service/internal/telemetry"
	"flag-quiz-service/internal/transport/telegram"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// NewBotCmd runs only the Telegram front end.
func NewBotCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "bot",
		Short: "Run the Telegram bot",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			cfg, err := config.LoadOptional(*configPath)
			if err != nil {
				return err
			}
			logger, err := telemetry.NewLogger(cfg.Env)
			if err != nil {
				return err
			}
			defer logger.Sync()

			rt, err := buildService(ctx, cfg, logger, nil)
			if err != nil {
				return err
			}
			defer rt.Close()
			go rt.reapIdle(ctx, time.Minute)

			err = runBot(ctx, cfg, rt.service, logger)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}
}

func runBot(ctx context.Context, cfg config.Config, service *app.GameService, logger *zap.Logger) error {
	if cfg.Telegram.Token == "" {
		return errors.New("telegram token not configured (set TELEGRAM_BOT_TOKEN)")
	}
	api, err := tgbotapi.NewBotAPI(cfg.Telegram.Token)
	if err != nil {
		return err
	}
	logger.Info("authorized on telegram", zap.String("account", api.Self.UserName))

	commands := tgbotapi.NewSetMyCommands(
		tgbotapi.BotCommand{Command: "start", Description: "Open the menu"},
		tgbotapi.BotCommand{Command: "quiz", Description: "Start a new flag quiz"},
		tgbotapi.BotCommand{Command: "scoreboard", Description: "Show best scores"},
	)
	if _, err := api.Request(commands); err != nil {
		logger.Warn("set bot commands", zap.Error(err))
	}

	bot := telegram.NewBot(api, service, logger, cfg.Game.Variant, cfg.Telegram.AssetsDir)
	return bot.Run(ctx)
}
