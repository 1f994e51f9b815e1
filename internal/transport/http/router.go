package http

import (
	"encoding/json"
	"net/http"

	"flag-quiz-service/internal/app"
	"flag-quiz-service/internal/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter wires the websocket endpoint, the scoreboard and operational routes.
func NewRouter(service *app.GameService, ws *WSHandler, gatherer prometheus.Gatherer) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("/ws", ws.ServeWS)
	mux.HandleFunc("/scoreboard", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, service.Scoreboard(r.Context()))
	})
	mux.HandleFunc("/variants", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, domain.Variants())
	})
	if gatherer != nil {
		mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}
	return mux
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
