// internal/httpserver/routes_round.go
//
// HTTP routes for single rounds.
//   - POST /round/new          → start a round ({"mode":"random"|"daily"|"practice"})
//   - GET  /round/{id}         → round snapshot
//   - POST /round/{id}/guess   → submit a guess ({"name"} or {"code"})
//   - POST /round/{id}/skip    → give up (practice rounds only)
//
// Daily rounds get a deterministic id per player and UTC day, so asking for
// a new daily round again returns the one already in progress.

package httpserver

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"

	"github.com/robalobadob/geoguess/internal/daily"
	"github.com/robalobadob/geoguess/internal/game"
	"github.com/robalobadob/geoguess/internal/store"
)

// dailyNamespace seeds the name-based UUIDs of daily rounds.
var dailyNamespace = uuid.MustParse("6f1c2a4e-9d3b-5e7a-8c21-4b0f3e5d7a91")

// mountRounds registers all /round routes.
func (s *Server) mountRounds(r chi.Router) {
	r.Route("/round", func(r chi.Router) {
		r.Post("/new", s.handleNewRound)
		r.Get("/{id}", s.handleGetRound)
		r.Post("/{id}/guess", s.handleRoundGuess)
		r.Post("/{id}/skip", s.handleRoundSkip)
	})
}

type newRoundReq struct {
	Mode game.Mode `json:"mode"` // defaults to random
}

// roundRes is a round snapshot; Date is set for daily rounds.
type roundRes struct {
	game.RoundView
	Date string `json:"date,omitempty"`
}

type roundGuessRes struct {
	Guess game.GuessView `json:"guess"`
	Round game.RoundView `json:"round"`
}

// handleNewRound starts a round and stores it under the caller's player id.
func (s *Server) handleNewRound(w http.ResponseWriter, r *http.Request) {
	var req newRoundReq
	// An empty body means all defaults.
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "bad_json", err.Error())
		return
	}
	if req.Mode == "" {
		req.Mode = game.ModeRandom
	}

	ctx, span := tracer.Start(r.Context(), "round.new")
	defer span.End()
	span.SetAttributes(attribute.String("round.mode", string(req.Mode)))

	player := playerID(r)
	now := s.opts.Now()
	rd := game.NewRound()

	var policy game.Policy
	switch req.Mode {
	case game.ModeRandom:
		policy = game.RandomPolicy{}
	case game.ModePractice:
		policy = game.PracticePolicy{}
	case game.ModeDaily:
		date := daily.DateKey(now)
		rd.ID = uuid.NewSHA1(dailyNamespace, []byte(player+"|"+date)).String()
		if existing, err := s.rounds.Get(ctx, player, rd.ID); err == nil {
			writeJSON(w, http.StatusOK, roundRes{RoundView: existing.Snapshot(), Date: date})
			return
		} else if !errors.Is(err, store.ErrNotFound) {
			writeGameError(w, err)
			return
		}
		policy = game.DailyPolicy{Date: now, Salt: s.opts.DailySalt}
	default:
		writeError(w, http.StatusBadRequest, "bad_mode", "mode must be random, daily or practice")
		return
	}

	if err := rd.Start(s.table, policy); err != nil {
		writeGameError(w, err)
		return
	}
	// A daily round created meanwhile by a concurrent request is returned as is.
	if err := s.rounds.Create(ctx, player, rd.ID, rd); errors.Is(err, store.ErrExists) && rd.Mode == game.ModeDaily {
		existing, err := s.rounds.Get(ctx, player, rd.ID)
		if err != nil {
			writeGameError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, roundRes{RoundView: existing.Snapshot(), Date: daily.DateKey(now)})
		return
	} else if err != nil {
		log.Error().Err(err).Str("roundId", rd.ID).Msg("save round")
		writeError(w, http.StatusInternalServerError, "save_failed", "")
		return
	}
	span.SetAttributes(attribute.String("round.id", rd.ID))

	res := roundRes{RoundView: rd.Snapshot()}
	if rd.Mode == game.ModeDaily {
		res.Date = daily.DateKey(now)
	}
	writeJSON(w, http.StatusCreated, res)
}

// handleGetRound returns the snapshot of one of the caller's rounds.
func (s *Server) handleGetRound(w http.ResponseWriter, r *http.Request) {
	rd, err := s.rounds.Get(r.Context(), playerID(r), chi.URLParam(r, "id"))
	if err != nil {
		writeGameError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, roundRes{RoundView: rd.Snapshot()})
}

// handleRoundGuess resolves, scores and records a guess.
// Rejected guesses (unknown, duplicate, finished round) leave the round as it was.
func (s *Server) handleRoundGuess(w http.ResponseWriter, r *http.Request) {
	var req guessReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json", err.Error())
		return
	}

	id := chi.URLParam(r, "id")
	ctx, span := tracer.Start(r.Context(), "round.guess")
	defer span.End()
	span.SetAttributes(attribute.String("round.id", id))

	var g game.Guess
	rd, err := s.rounds.Update(ctx, playerID(r), id, func(rd *game.Round) error {
		var err error
		g, err = req.submit(s.table, rd)
		return err
	})
	if err != nil {
		span.RecordError(err)
		writeGameError(w, err)
		return
	}
	span.SetAttributes(
		attribute.String("guess.tier", string(g.Tier)),
		attribute.Float64("guess.distance_km", g.Distance),
		attribute.String("round.status", string(rd.Status)),
	)
	if rd.Finished() {
		log.Info().Str("roundId", rd.ID).Str("mode", string(rd.Mode)).Int("guesses", len(rd.Guesses)).Msg("round won")
	}
	writeJSON(w, http.StatusOK, roundGuessRes{Guess: g.View(), Round: rd.Snapshot()})
}

// handleRoundSkip ends a practice round as lost.
func (s *Server) handleRoundSkip(w http.ResponseWriter, r *http.Request) {
	rd, err := s.rounds.Update(r.Context(), playerID(r), chi.URLParam(r, "id"), func(rd *game.Round) error {
		return rd.Skip()
	})
	if err != nil {
		writeGameError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, roundRes{RoundView: rd.Snapshot()})
}
