package metrics

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RoundsOpened = promauto.NewCounter(prometheus.CounterOpts{
		Name: "prediction_rounds_opened_total",
		Help: "Rounds opened.",
	})
	PredictionsPlaced = promauto.NewCounter(prometheus.CounterOpts{
		Name: "prediction_bets_placed_total",
		Help: "Predictions placed across all rounds.",
	})
	RoundsSettled = promauto.NewCounter(prometheus.CounterOpts{
		Name: "prediction_rounds_settled_total",
		Help: "Rounds settled.",
	})
	ClaimsPaid = promauto.NewCounter(prometheus.CounterOpts{
		Name: "prediction_claims_paid_total",
		Help: "Claims paid out (refunds included).",
	})
	OperationErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "prediction_operation_errors_total",
		Help: "Engine operation failures by error kind.",
	}, []string{"kind"})
)

type HealthFunc func(ctx context.Context) error

// StartServer runs a lightweight HTTP server for /metrics and /healthz on
// its own port, detached from the public API.
func StartServer(addr string, healthFn HealthFunc) *http.Server {
	mux := http.NewServeMux()

	mux.Handle("/metrics", promhttp.Handler())

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 500*time.Millisecond)
		defer cancel()

		if healthFn != nil {
			if err := healthFn(ctx); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				_, _ = w.Write([]byte(fmt.Sprintf("unhealthy: %v", err)))
				return
			}
		}

		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	srv := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	go func() {
		_ = srv.ListenAndServe()
	}()

	return srv
}
