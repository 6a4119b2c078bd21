// Package httpapi serves read-only leaderboards and the evaluation transform over HTTP.
package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/park285/eval-trainer-bot/internal/adapter/trainerpresenter"
	"github.com/park285/eval-trainer-bot/internal/domain"
	"github.com/park285/eval-trainer-bot/internal/evaluation"
	"github.com/park285/eval-trainer-bot/internal/leaderboard"
	"github.com/park285/eval-trainer-bot/pkg/trainerdto"
)

// Leaderboards is the read side the API needs from the trainer service.
type Leaderboards interface {
	Leaderboard(ctx context.Context, tc domain.TimeControl, limit int) ([]domain.LeaderboardEntry, error)
	SurvivalLeaderboard(ctx context.Context, tc domain.TimeControl, limit int) ([]domain.LeaderboardEntry, error)
}

type handler struct {
	boards Leaderboards
	logger *zap.Logger
}

func NewRouter(boards Leaderboards, logger *zap.Logger) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &handler{boards: boards, logger: logger}

	r := mux.NewRouter()
	r.Use(h.logRequests)
	r.HandleFunc("/health", h.health).Methods(http.MethodGet)

	api := r.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/leaderboard/{tc}", h.leaderboard(leaderboard.KindRating)).Methods(http.MethodGet)
	api.HandleFunc("/survival-leaderboard/{tc}", h.leaderboard(leaderboard.KindSurvival)).Methods(http.MethodGet)
	api.HandleFunc("/transform", h.transform).Methods(http.MethodGet)

	c := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type"},
	})
	return c.Handler(r)
}

// NewServer wraps the router with the timeouts used in production.
func NewServer(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}

func (h *handler) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *handler) leaderboard(kind leaderboard.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tc, err := domain.ParseTimeControl(mux.Vars(r)["tc"])
		if err != nil {
			writeError(w, http.StatusBadRequest, "bad_time_control", err.Error())
			return
		}
		limit := intQueryParam(r, "limit", 0)

		var entries []domain.LeaderboardEntry
		if kind == leaderboard.KindSurvival {
			entries, err = h.boards.SurvivalLeaderboard(r.Context(), tc, limit)
		} else {
			entries, err = h.boards.Leaderboard(r.Context(), tc, limit)
		}
		if err != nil {
			h.logger.Warn("leaderboard_query_failed", zap.String("kind", string(kind)), zap.Int("tc", int(tc)), zap.Error(err))
			writeJSON(w, http.StatusInternalServerError, trainerdto.DomainError{Code: "store_unavailable", Message: "leaderboard unavailable", Retryable: true})
			return
		}
		writeJSON(w, http.StatusOK, trainerpresenter.ToDTOLeaderboard(string(kind), tc, entries))
	}
}

func (h *handler) transform(w http.ResponseWriter, r *http.Request) {
	raw := strings.TrimSpace(r.URL.Query().Get("eval"))
	eval, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_eval", "eval must be a number of pawns")
		return
	}
	side := evaluation.SideToMove(r.URL.Query().Get("fen"))
	p := evaluation.ToProbability(eval, side)
	writeJSON(w, http.StatusOK, trainerdto.Transform{
		Eval:        eval,
		Side:        side.String(),
		Probability: p,
		RoundTrip:   evaluation.ToEval(p, side),
		Verdict:     string(evaluation.Explain(eval)),
	})
}

func (h *handler) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)
		h.logger.Debug("http_request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", sw.status),
			zap.Duration("elapsed", time.Since(start)),
		)
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func intQueryParam(r *http.Request, key string, fallback int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return fallback
	}
	return n
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, trainerdto.DomainError{Code: code, Message: msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

