package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"flag-quiz-service/internal/app"
	"flag-quiz-service/internal/config"
	"flag-quiz-service/internal/domain"
	"flag-quiz-service/internal/telemetry"
	"github.com/spf13/cobra"
)

// NewPlayCmd plays one game on the terminal.
func NewPlayCmd(configPath *string) *cobra.Command {
	var variant, name string
	cmd := &cobra.Command{
		Use:   "play",
		Short: "Play the flag quiz in the terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadOptional(*configPath)
			if err != nil {
				return err
			}
			if variant != "" {
				cfg.Game.Variant = variant
			}
			logger, err := telemetry.NewQuietLogger()
			if err != nil {
				return err
			}
			defer logger.Sync()

			rt, err := buildService(cmd.Context(), cfg, logger, nil)
			if err != nil {
				return err
			}
			defer rt.Close()
			return playGame(cmd.Context(), rt.service, name, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVar(&variant, "variant", "", "rules: sudden-death, classic, endless or sequential")
	cmd.Flags().StringVar(&name, "name", "player", "name shown on the scoreboard")
	return cmd
}

func playGame(ctx context.Context, service *app.GameService, name string, in io.Reader, out io.Writer) error {
	snap, err := service.Start(ctx, app.StartRequest{PlayerID: "terminal:" + name, DisplayName: name})
	if err != nil {
		return err
	}
	gameID := snap.GameID
	defer service.End(ctx, gameID)

	fmt.Fprintf(out, "Welcome to Flag Quiz! (%s)\n", snap.Variant)
	printSnapshot(out, snap)

	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		input := strings.ToLower(strings.TrimSpace(scanner.Text()))
		switch input {
		case "":
			continue
		case "q", "quit":
			fmt.Fprintf(out, "Final score: %d\n", snap.Score)
			return nil
		case "s", "scoreboard":
			for i, entry := range service.Scoreboard(ctx).Entries {
				fmt.Fprintf(out, "%d. %s %d\n", i+1, entry.DisplayName, entry.BestScore)
			}
			continue
		}

		next, err := playTurn(ctx, service, gameID, snap, input, out)
		if err != nil {
			if !isRuleError(err) {
				return err
			}
			fmt.Fprintf(out, "! %v\n", err)
			continue
		}
		snap = next
		printSnapshot(out, snap)
	}
	return scanner.Err()
}

func playTurn(ctx context.Context, service *app.GameService, gameID string, snap domain.Snapshot, input string, out io.Writer) (domain.Snapshot, error) {
	switch input {
	case "p", "prev", "previous":
		return service.Previous(ctx, gameID)
	case "n", "next":
		return service.Next(ctx, gameID)
	case "r", "restart":
		return service.Restart(ctx, gameID)
	}

	choice, err := strconv.Atoi(input)
	if err != nil || choice < 1 || choice > len(snap.Options) {
		return snap, fmt.Errorf("%w: pick 1-%d, p, n, r, s or q", errBadInput, len(snap.Options))
	}
	result, err := service.Answer(ctx, gameID, snap.Options[choice-1])
	if err != nil {
		return snap, err
	}
	fmt.Fprintln(out, result.Feedback())
	return result.Snapshot, nil
}

var errBadInput = errors.New("unrecognised input")

func isRuleError(err error) bool {
	return errors.Is(err, errBadInput) ||
		errors.Is(err, domain.ErrGameOver) ||
		errors.Is(err, domain.ErrAlreadyAnswered) ||
		errors.Is(err, domain.ErrUnsupported)
}

func printSnapshot(out io.Writer, snap domain.Snapshot) {
	if snap.Status == domain.StatusGameOver {
		fmt.Fprintf(out, "Game over! Score: %d after %d answers. (r)estart or (q)uit\n", snap.Score, snap.Answered)
		return
	}
	fmt.Fprintf(out, "\n[%s] %s\n", snap.ImageRef, snap.Prompt)
	fmt.Fprintf(out, "Your score: %d\n", snap.Score)
	for i, option := range snap.Options {
		marker := " "
		if snap.Selected != nil && *snap.Selected == option {
			marker = "*"
		}
		fmt.Fprintf(out, "%s %d) %s\n", marker, i+1, option)
	}
	controls := "(s)coreboard (q)uit"
	if snap.CanNavigate {
		controls = "(p)revious (n)ext " + controls
	}
	fmt.Fprintln(out, controls)
}
