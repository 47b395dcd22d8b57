// internal/httpserver/routes_session.go
//
// HTTP routes for practice sessions.
//   - POST /session/new               → create a session ({"rounds": N}) and start round 1
//   - GET  /session/{id}              → session snapshot
//   - POST /session/{id}/next         → start the next round
//   - POST /session/{id}/guess        → guess in the current round
//   - POST /session/{id}/skip         → skip the current round
//   - GET  /session/{id}/report.xlsx  → spreadsheet of finished rounds

package httpserver

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"

	"github.com/robalobadob/geoguess/internal/game"
	"github.com/robalobadob/geoguess/internal/report"
)

const defaultSessionRounds = 5

// mountSessions registers all /session routes.
func (s *Server) mountSessions(r chi.Router) {
	r.Route("/session", func(r chi.Router) {
		r.Post("/new", s.handleNewSession)
		r.Get("/{id}", s.handleGetSession)
		r.Post("/{id}/next", s.handleSessionNext)
		r.Post("/{id}/guess", s.handleSessionGuess)
		r.Post("/{id}/skip", s.handleSessionSkip)
		r.Get("/{id}/report.xlsx", s.handleSessionReport)
	})
}

type newSessionReq struct {
	Rounds int `json:"rounds"`
}

type sessionGuessRes struct {
	Guess   game.GuessView   `json:"guess"`
	Session game.SessionView `json:"session"`
}

// handleNewSession creates a session and starts its first round.
func (s *Server) handleNewSession(w http.ResponseWriter, r *http.Request) {
	var req newSessionReq
	// An empty body means all defaults.
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "bad_json", err.Error())
		return
	}
	if req.Rounds == 0 {
		req.Rounds = defaultSessionRounds
	}
	sess, err := game.NewSession(req.Rounds)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_rounds", err.Error())
		return
	}

	ctx, span := tracer.Start(r.Context(), "session.new")
	defer span.End()
	span.SetAttributes(attribute.String("session.id", sess.ID), attribute.Int("session.rounds", sess.Total))

	if _, err := sess.Next(s.table, nil); err != nil {
		writeGameError(w, err)
		return
	}
	if err := s.sessions.Create(ctx, playerID(r), sess.ID, sess); err != nil {
		log.Error().Err(err).Str("sessionId", sess.ID).Msg("save session")
		writeError(w, http.StatusInternalServerError, "save_failed", "")
		return
	}
	writeJSON(w, http.StatusCreated, sess.Snapshot())
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessions.Get(r.Context(), playerID(r), chi.URLParam(r, "id"))
	if err != nil {
		writeGameError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sess.Snapshot())
}

// handleSessionNext starts the next round once the current one is over.
func (s *Server) handleSessionNext(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracer.Start(r.Context(), "session.next")
	defer span.End()

	sess, err := s.sessions.Update(ctx, playerID(r), chi.URLParam(r, "id"), func(sess *game.Session) error {
		_, err := sess.Next(s.table, nil)
		return err
	})
	if err != nil {
		span.RecordError(err)
		writeGameError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sess.Snapshot())
}

func (s *Server) handleSessionGuess(w http.ResponseWriter, r *http.Request) {
	var req guessReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json", err.Error())
		return
	}

	ctx, span := tracer.Start(r.Context(), "session.guess")
	defer span.End()

	var g game.Guess
	sess, err := s.sessions.Update(ctx, playerID(r), chi.URLParam(r, "id"), func(sess *game.Session) error {
		var err error
		g, err = req.submit(s.table, sess)
		return err
	})
	if err != nil {
		span.RecordError(err)
		writeGameError(w, err)
		return
	}
	span.SetAttributes(attribute.String("guess.tier", string(g.Tier)), attribute.Float64("guess.distance_km", g.Distance))
	writeJSON(w, http.StatusOK, sessionGuessRes{Guess: g.View(), Session: sess.Snapshot()})
}

func (s *Server) handleSessionSkip(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessions.Update(r.Context(), playerID(r), chi.URLParam(r, "id"), func(sess *game.Session) error {
		return sess.Skip()
	})
	if err != nil {
		writeGameError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sess.Snapshot())
}

// handleSessionReport streams the session as an .xlsx download.
func (s *Server) handleSessionReport(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessions.Get(r.Context(), playerID(r), chi.URLParam(r, "id"))
	if err != nil {
		writeGameError(w, err)
		return
	}
	var buf bytes.Buffer
	if err := report.WriteSession(&buf, sess.Snapshot()); err != nil {
		log.Error().Err(err).Str("sessionId", sess.ID).Msg("write report")
		writeError(w, http.StatusInternalServerError, "report_failed", "")
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="session-`+sess.ID+`.xlsx"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	_, _ = buf.WriteTo(w)
}
