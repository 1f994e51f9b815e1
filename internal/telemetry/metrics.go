package telemetry

import (
	"flag-quiz-service/internal/domain"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics records game events as Prometheus series. It implements app.Recorder.
type Metrics struct {
	gamesStarted *prometheus.CounterVec
	activeGames  *prometheus.GaugeVec
	answers      *prometheus.CounterVec
	gamesOver    *prometheus.CounterVec
	finalScores  *prometheus.HistogramVec
}

// NewMetrics registers the quiz collectors on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		gamesStarted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "flagquiz_games_started_total",
			Help: "Games started, by variant",
		}, []string{"variant"}),
		activeGames: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "flagquiz_active_games",
			Help: "Games currently running, by variant",
		}, []string{"variant"}),
		answers: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "flagquiz_answers_total",
			Help: "Answers submitted, by variant and outcome",
		}, []string{"variant", "outcome"}),
		gamesOver: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "flagquiz_games_over_total",
			Help: "Games ended by a wrong answer, by variant",
		}, []string{"variant"}),
		finalScores: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "flagquiz_final_score",
			Help:    "Score reached when a game ended by a wrong answer",
			Buckets: prometheus.LinearBuckets(0, 2, 10),
		}, []string{"variant"}),
	}
	reg.MustRegister(m.gamesStarted, m.activeGames, m.answers, m.gamesOver, m.finalScores)
	return m
}

func (m *Metrics) GameStarted(variant string) {
	m.gamesStarted.WithLabelValues(variant).Inc()
	m.activeGames.WithLabelValues(variant).Inc()
}

func (m *Metrics) AnswerSubmitted(variant string, outcome domain.Outcome) {
	m.answers.WithLabelValues(variant, string(outcome)).Inc()
}

func (m *Metrics) GameOver(variant string, score int) {
	m.gamesOver.WithLabelValues(variant).Inc()
	m.finalScores.WithLabelValues(variant).Observe(float64(score))
}

func (m *Metrics) GameEnded(variant string) {
	m.activeGames.WithLabelValues(variant).Dec()
}
