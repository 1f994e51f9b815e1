package telemetry

import (
	"testing"

	"flag-quiz-service/internal/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetricsRecordGameEvents(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.GameStarted("sudden-death")
	m.AnswerSubmitted("sudden-death", domain.OutcomeCorrect)
	m.AnswerSubmitted("sudden-death", domain.OutcomeIncorrect)
	m.GameOver("sudden-death", 1)

	if got := testutil.ToFloat64(m.gamesStarted.WithLabelValues("sudden-death")); got != 1 {
		t.Fatalf("expected 1 game started, got %v", got)
	}
	if got := testutil.ToFloat64(m.answers.WithLabelValues("sudden-death", "correct")); got != 1 {
		t.Fatalf("expected 1 correct answer, got %v", got)
	}
	if got := testutil.ToFloat64(m.gamesOver.WithLabelValues("sudden-death")); got != 1 {
		t.Fatalf("expected 1 game over, got %v", got)
	}
	if got := testutil.ToFloat64(m.activeGames.WithLabelValues("sudden-death")); got != 1 {
		t.Fatalf("expected 1 active game, got %v", got)
	}

	m.GameEnded("sudden-death")
	if got := testutil.ToFloat64(m.activeGames.WithLabelValues("sudden-death")); got != 0 {
		t.Fatalf("expected no active games, got %v", got)
	}
}

func TestNewLogger(t *testing.T) {
	for _, env := range []string{"production", "development"} {
		logger, err := NewLogger(env)
		if err != nil {
			t.Fatalf("%s logger: %v", env, err)
		}
		_ = logger.Sync()
	}
}
