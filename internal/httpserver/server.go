// internal/httpserver/server.go
//
// HTTP API over the parsed-record store.
// Responsibilities:
//   - Router + middleware (JSON, CORS, timeouts, panic recovery, request IDs).
//   - Public endpoints: "/", "/health", "/metrics".
//   - Read endpoints: GET /api/games, /api/records, /api/leaderboard,
//     /api/chart (PNG).
//   - Admin endpoint: POST /api/refresh triggers an incremental collection
//     pass; gated by a signed admin token (see auth.go).

package httpserver

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/puzzletrack/internal/chart"
	"github.com/robalobadob/puzzletrack/internal/collector"
	"github.com/robalobadob/puzzletrack/internal/parse"
	"github.com/robalobadob/puzzletrack/internal/store"
)

const (
	readTimeout    = 30 * time.Second
	refreshTimeout = 10 * time.Minute
)

// Refresher triggers an incremental collection pass. Implemented by
// *collector.Collector; nil disables the refresh endpoint.
type Refresher interface {
	Update(ctx context.Context) (collector.Stats, error)
}

// Server bundles router, record store, and the optional refresher.
type Server struct {
	r         *chi.Mux
	store     *store.Store
	refresher Refresher
	jwtSecret string
}

// New constructs a Server, installs middleware, and registers routes.
func New(st *store.Store, refresher Refresher, jwtSecret string) *Server {
	s := &Server{r: chi.NewRouter(), store: st, refresher: refresher, jwtSecret: jwtSecret}

	// --- middleware ---
	s.r.Use(chimw.RequestID)
	s.r.Use(chimw.RealIP)
	s.r.Use(chimw.Recoverer)
	s.r.Use(jsonContentType)
	s.r.Use(corsFromEnv)

	// Read endpoints answer from the local database and get a tight timeout.
	s.r.Group(func(r chi.Router) {
		r.Use(chimw.Timeout(readTimeout))

		// --- diagnostics ---
		r.Get("/", func(w http.ResponseWriter, req *http.Request) {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{"service":"puzzletrack","endpoints":["/health","/metrics","/api/games","/api/records","/api/leaderboard","/api/chart","POST /api/refresh"]}`))
		})
		r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{"ok":true}`))
		})
		r.Handle("/metrics", promhttp.Handler())

		// --- API ---
		r.Get("/api/games", s.handleGames)
		r.Get("/api/records", s.handleRecords)
		r.Get("/api/leaderboard", s.handleLeaderboard)
		r.Get("/api/chart", s.handleChart)
	})

	// Refresh walks the Discord channel, which on a large backlog can take
	// far longer than a read, so it carries its own timeout.
	s.r.With(chimw.Timeout(refreshTimeout), s.requireAdmin()).Post("/api/refresh", s.handleRefresh)

	// JSON 404 for easier debugging
	s.r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"not_found","path":"`+r.URL.Path+`"}`, http.StatusNotFound)
	})

	return s
}

// Start begins serving HTTP on addr.
func (s *Server) Start(addr string) error { return http.ListenAndServe(addr, s.r) }

// Router exposes the internal router (useful for tests).
func (s *Server) Router() chi.Router { return s.r }

// ----------------------------- middleware ----------------------------------

// jsonContentType sets a default JSON Content-Type header on all responses.
// Handlers that emit something else (PNG, metrics text) override it.
func jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		next.ServeHTTP(w, r)
	})
}

// ------------------------------- handlers ----------------------------------

// handleGames lists the supported puzzle identifiers.
func (s *Server) handleGames(w http.ResponseWriter, r *http.Request) {
	_ = json.NewEncoder(w).Encode(parse.Games())
}

// recordRes is the JSON shape of one stored record. Value is omitted (not
// zeroed) when no numeric score exists.
type recordRes struct {
	MessageID string `json:"messageId"`
	Timestamp string `json:"timestamp"`
	Date      string `json:"date"`
	Author    string `json:"author"`
	Game      string `json:"game"`
	Score     string `json:"score,omitempty"`
	Value     *int   `json:"value,omitempty"`
	Number    string `json:"number,omitempty"`
	Message   string `json:"message"`
}

// handleRecords returns stored records, optionally filtered by game/author.
func (s *Server) handleRecords(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))

	rows, err := s.store.Query(r.Context(), q.Get("game"), q.Get("author"), limit)
	if err != nil {
		log.Error().Err(err).Msg("query records")
		http.Error(w, `{"error":"db_error"}`, http.StatusInternalServerError)
		return
	}

	out := make([]recordRes, len(rows))
	for i, row := range rows {
		out[i] = recordRes{
			MessageID: row.MessageID,
			Timestamp: row.Timestamp.UTC().Format(time.RFC3339),
			Date:      row.Date,
			Author:    row.Author,
			Game:      string(row.Game),
			Score:     row.Score,
			Number:    row.Number,
			Message:   row.Message,
		}
		if row.HasValue {
			v := row.Value
			out[i].Value = &v
		}
	}
	_ = json.NewEncoder(w).Encode(out)
}

// handleLeaderboard aggregates one game's scores, optionally for one date.
func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	game := q.Get("game")
	if game == "" {
		http.Error(w, `{"error":"game_required"}`, http.StatusBadRequest)
		return
	}
	limit, _ := strconv.Atoi(q.Get("limit"))

	lb, err := s.store.Leaderboard(r.Context(), game, q.Get("date"), limit)
	if err != nil {
		log.Error().Err(err).Str("game", game).Msg("query leaderboard")
		http.Error(w, `{"error":"db_error"}`, http.StatusInternalServerError)
		return
	}
	if lb == nil {
		lb = []store.LBRow{}
	}
	_ = json.NewEncoder(w).Encode(lb)
}

// handleChart renders an author's score history for a game as PNG.
func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	game, author := q.Get("game"), q.Get("author")
	if game == "" || author == "" {
		http.Error(w, `{"error":"game_and_author_required"}`, http.StatusBadRequest)
		return
	}

	points, err := s.store.Series(r.Context(), game, author)
	if err != nil {
		log.Error().Err(err).Msg("query series")
		http.Error(w, `{"error":"db_error"}`, http.StatusInternalServerError)
		return
	}
	png, err := chart.ScoreHistory(points, author+" / "+game)
	if err != nil {
		log.Error().Err(err).Msg("render chart")
		http.Error(w, `{"error":"chart_failed"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	_, _ = w.Write(png)
}

// handleRefresh runs an incremental collection pass.
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if s.refresher == nil {
		http.Error(w, `{"error":"refresh_disabled"}`, http.StatusServiceUnavailable)
		return
	}
	stats, err := s.refresher.Update(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("refresh")
		http.Error(w, `{"error":"refresh_failed"}`, http.StatusBadGateway)
		return
	}
	_ = json.NewEncoder(w).Encode(map[string]any{
		"runId":    stats.RunID,
		"fetched":  stats.Fetched,
		"inserted": stats.Inserted,
	})
}
