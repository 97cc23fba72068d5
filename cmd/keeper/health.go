package main

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/felixgeelhaar/autopay/internal/app"
	"github.com/felixgeelhaar/autopay/internal/keeper"
	"github.com/felixgeelhaar/autopay/pkg/config"
	"github.com/felixgeelhaar/autopay/pkg/observability"
)

type healthServer struct {
	http   *http.Server
	cfg    *config.Config
	c      *app.Container
	keeper *keeper.Keeper
	logger *slog.Logger
}

type sweepStatus struct {
	Ledger    string `json:"ledger"`
	Executed  int    `json:"executed"`
	Fulfilled int    `json:"fulfilled"`
	Missed    uint32 `json:"missed"`
	At        uint64 `json:"at"`
	Error     string `json:"error,omitempty"`
}

type liveness struct {
	Status          string        `json:"status"`
	Sweeps          []sweepStatus `json:"sweeps"`
	OutboxRunning   bool          `json:"outbox_running"`
	Published       uint64        `json:"published"`
	Failed          uint64        `json:"failed"`
	Dead            uint64        `json:"dead"`
	Retrying        int           `json:"retrying"`
	LastProcessedAt *time.Time    `json:"last_processed_at,omitempty"`
	LastError       string        `json:"last_error,omitempty"`
	MissedAlerts    int           `json:"missed_alerts"`
}

func newHealthServer(cfg *config.Config, c *app.Container, k *keeper.Keeper, logger *slog.Logger) *healthServer {
	s := &healthServer{cfg: cfg, c: c, keeper: k, logger: logger}
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.live)
	mux.HandleFunc("/readyz", s.ready)
	s.http = &http.Server{
		Addr:              cfg.KeeperHealthAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// serve blocks until ctx is done, then shuts the listener down.
func (s *healthServer) serve(ctx context.Context) {
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.http.Shutdown(shutdownCtx); err != nil {
			s.logger.Warn("health server shutdown", "error", err)
		}
	}()

	s.logger.Info("health server listening", "addr", s.http.Addr)
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		s.logger.Error("health server", "error", err)
	}
}

func (s *healthServer) live(w http.ResponseWriter, r *http.Request) {
	stats := s.c.OutboxProcessor.GetStats()
	body := liveness{
		Status:          "ok",
		Sweeps:          make([]sweepStatus, 0),
		OutboxRunning:   stats.IsRunning,
		Published:       stats.PublishedCount,
		Failed:          stats.FailedCount,
		Dead:            stats.DeadCount,
		LastProcessedAt: stats.LastProcessedAt,
		LastError:       stats.LastError,
		MissedAlerts:    len(s.c.MissedAlerter.Alerts()),
	}
	for _, report := range s.keeper.LastReports() {
		st := sweepStatus{
			Ledger:    report.Ledger,
			Executed:  report.Executed,
			Fulfilled: report.Fulfilled,
			Missed:    report.Missed,
			At:        report.At,
		}
		if report.Err != nil {
			st.Error = report.Err.Error()
		}
		body.Sweeps = append(body.Sweeps, st)
	}
	retrying, err := s.c.OutboxRepo.GetFailed(r.Context(), s.cfg.OutboxMaxRetries, s.cfg.OutboxBatchSize)
	if err != nil {
		s.logger.Warn("count retrying events", "error", err)
	}
	body.Retrying = len(retrying)
	writeJSON(w, http.StatusOK, body)
}

func (s *healthServer) ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	health := s.c.Health.GetOverallHealth(ctx)
	code := http.StatusOK
	if health.Status == observability.HealthStatusUnhealthy {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, health)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
