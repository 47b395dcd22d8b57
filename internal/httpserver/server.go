// internal/httpserver/server.go
//
// HTTP server wiring for the country guessing game.
// Responsibilities:
//   - Router + middleware (JSON, CORS, timeouts, panic recovery, request IDs,
//     request logging, player identity).
//   - Public endpoints: "/", "/health", "/countries", "/tiers", "/player".
//   - Round endpoints: mounted under /round (routes_round.go).
//   - Practice session endpoints: mounted under /session (routes_session.go).
//
// Notes:
//   - CORS is origin-aware and credentials-enabled (so cookies work).
//   - Every request carries a player id (see player.go); rounds and sessions
//     are only visible to the player that created them.
//   - Handlers never hold game state between requests: they load, mutate and
//     save through store.Update, which serializes writes per id.

package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/geoguess/internal/countries"
	"github.com/robalobadob/geoguess/internal/game"
	"github.com/robalobadob/geoguess/internal/store"
	"github.com/robalobadob/geoguess/internal/telemetry"
)

// Options configures a Server.
type Options struct {
	Table         *countries.Table
	Rounds        store.Store[game.Round]
	Sessions      store.Store[game.Session]
	DailySalt     string
	JWTSecret     string
	ClientOrigin  string
	SecureCookies bool             // Secure + SameSite=None cookies (production)
	Now           func() time.Time // defaults to time.Now
}

// Server bundles router, country table and state stores.
type Server struct {
	r        *chi.Mux
	table    *countries.Table
	rounds   store.Store[game.Round]
	sessions store.Store[game.Session]
	opts     Options
}

var tracer = telemetry.Tracer("httpserver")

// New constructs a Server, installs middleware, and registers routes.
func New(opts Options) *Server {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Table == nil {
		opts.Table = countries.Default()
	}
	if opts.Rounds == nil {
		opts.Rounds = store.NewMemoryStore[game.Round]()
	}
	if opts.Sessions == nil {
		opts.Sessions = store.NewMemoryStore[game.Session]()
	}
	s := &Server{
		r:        chi.NewRouter(),
		table:    opts.Table,
		rounds:   opts.Rounds,
		sessions: opts.Sessions,
		opts:     opts,
	}

	// --- middleware ---
	s.r.Use(chimw.RequestID)                 // add X-Request-ID
	s.r.Use(chimw.RealIP)                    // set RemoteAddr from X-Forwarded-For etc.
	s.r.Use(requestLogger)                   // one zerolog line per request
	s.r.Use(chimw.Recoverer)                 // recover from panics
	s.r.Use(chimw.Timeout(10 * time.Second)) // bound handler time
	s.r.Use(jsonContentType)                 // default JSON responses
	s.r.Use(corsFor(opts.ClientOrigin))      // credentials-friendly CORS
	s.r.Use(s.withPlayer)                    // anonymous player identity

	// --- diagnostics ---
	s.r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"service":"geoguess","endpoints":["/health","/countries","/tiers","POST /round/new","POST /session/new"]}`))
	})
	s.r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"ok":true}`))
	})

	s.r.Get("/countries", s.handleCountries)
	s.r.Get("/tiers", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, game.Tiers)
	})
	s.r.Get("/player", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"id": playerID(r)})
	})

	s.mountRounds(s.r)
	s.mountSessions(s.r)

	// JSON 404 for easier debugging
	s.r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "not_found", r.URL.Path)
	})

	return s
}

// Handler exposes the router for an http.Server.
func (s *Server) Handler() http.Handler { return s.r }

// Router exposes the internal router (useful for tests).
func (s *Server) Router() chi.Router { return s.r }

// ----------------------------- middleware ----------------------------------

// jsonContentType sets a default JSON Content-Type header on all responses.
func jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		next.ServeHTTP(w, r)
	})
}

// corsFor enables credentialed CORS for a single origin.
func corsFor(origin string) func(http.Handler) http.Handler {
	if origin == "" {
		origin = "http://localhost:5173"
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Vary", "Origin")
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// requestLogger logs method, path, status and latency for every request.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		log.Debug().
			Str("reqId", chimw.GetReqID(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("took", time.Since(start)).
			Msg("request")
	})
}

// ------------------------------ countries ----------------------------------

// handleCountries serves autocomplete suggestions: GET /countries?q=ger&limit=8.
// Without q it lists the whole table.
func (s *Server) handleCountries(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeJSON(w, http.StatusOK, s.table.All())
		return
	}
	limit := 8
	if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && v > 0 && v <= 50 {
		limit = v
	}
	out := s.table.Suggest(q, limit)
	if out == nil {
		out = []countries.Country{}
	}
	writeJSON(w, http.StatusOK, out)
}

// ------------------------------- helpers -----------------------------------

// guessReq is the payload for guess endpoints. Code wins when both are set;
// front ends send it when the player picked a suggestion.
type guessReq struct {
	Name string `json:"name"`
	Code string `json:"code"`
}

func (g guessReq) submit(tbl *countries.Table, round interface {
	SubmitName(*countries.Table, string) (game.Guess, error)
	SubmitCode(*countries.Table, string) (game.Guess, error)
}) (game.Guess, error) {
	if g.Code != "" {
		return round.SubmitCode(tbl, g.Code)
	}
	return round.SubmitName(tbl, g.Name)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warn().Err(err).Msg("encode response")
	}
}

type errorRes struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, errorRes{Error: code, Message: msg})
}

// writeGameError maps store and game errors onto HTTP responses.
// None of these errors change state, so every one is safe to retry.
func writeGameError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", "")
	case errors.Is(err, game.ErrNotFound):
		writeError(w, http.StatusUnprocessableEntity, "unknown_country", err.Error())
	case errors.Is(err, game.ErrDuplicateGuess):
		writeError(w, http.StatusConflict, "duplicate_guess", err.Error())
	case errors.Is(err, game.ErrSessionComplete):
		writeError(w, http.StatusConflict, "session_complete", err.Error())
	case errors.Is(err, game.ErrInvalidOperation):
		writeError(w, http.StatusConflict, "invalid_operation", err.Error())
	default:
		log.Error().Err(err).Msg("request failed")
		writeError(w, http.StatusInternalServerError, "internal", "")
	}
}
