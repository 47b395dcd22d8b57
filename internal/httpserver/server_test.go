package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"github.com/robalobadob/geoguess/internal/countries"
	"github.com/robalobadob/geoguess/internal/game"
	"github.com/robalobadob/geoguess/internal/store"
)

var testNow = time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

// pick is a Policy that always chooses code.
type pick string

func (p pick) Mode() game.Mode { return game.ModeRandom }

func (p pick) Pick(tbl *countries.Table) (countries.Country, error) {
	c, _ := tbl.ByCode(string(p))
	return c, nil
}

type client struct {
	t     *testing.T
	s     *Server
	token string
}

func newServer(t *testing.T, tbl *countries.Table) *Server {
	t.Helper()
	if tbl == nil {
		var err error
		if tbl, err = countries.Embedded(); err != nil {
			t.Fatal(err)
		}
	}
	return New(Options{
		Table:     tbl,
		DailySalt: "test-salt",
		JWTSecret: "test-secret",
		Now:       func() time.Time { return testNow },
	})
}

// player returns a client authenticated as a fresh player.
func player(t *testing.T, s *Server) (*client, string) {
	t.Helper()
	id := uuid.NewString()
	tok, _, err := s.signPlayer(id)
	if err != nil {
		t.Fatal(err)
	}
	return &client{t: t, s: s, token: tok}, id
}

func (c *client) do(method, path string, body any) *httptest.ResponseRecorder {
	c.t.Helper()
	var rd *bytes.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		rd = bytes.NewReader(b)
	} else {
		rd = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set("Authorization", "Bearer "+c.token)
	rec := httptest.NewRecorder()
	c.s.Handler().ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return v
}

// seedRound stores a round targeting code for player and returns its id.
func seedRound(t *testing.T, s *Server, player, code string) string {
	t.Helper()
	rd := game.NewRound()
	if err := rd.Start(s.table, pick(code)); err != nil {
		t.Fatal(err)
	}
	if err := s.rounds.Save(context.Background(), player, rd.ID, rd); err != nil {
		t.Fatal(err)
	}
	return rd.ID
}

func TestHealthAndPlayerCookie(t *testing.T) {
	s := newServer(t, nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"ok":true`) {
		t.Fatalf("GET /health = %d %s", rec.Code, rec.Body)
	}
	var tok string
	for _, c := range rec.Result().Cookies() {
		if c.Name == playerCookieName {
			tok = c.Value
		}
	}
	if s.parsePlayer(tok) == "" {
		t.Fatalf("anonymous request did not get a valid player cookie")
	}

	c, id := player(t, s)
	got := decode[map[string]string](t, c.do(http.MethodGet, "/player", nil))
	if got["id"] != id {
		t.Errorf("GET /player id = %q, want %q", got["id"], id)
	}
	if s.parsePlayer("not-a-token") != "" {
		t.Errorf("parsePlayer accepted garbage")
	}
}

func TestRoundGuessFlow(t *testing.T) {
	s := newServer(t, nil)
	c, pid := player(t, s)
	id := seedRound(t, s, pid, "FR")

	rec := c.do(http.MethodPost, "/round/"+id+"/guess", guessReq{Name: "Germany"})
	if rec.Code != http.StatusOK {
		t.Fatalf("guess Germany = %d %s", rec.Code, rec.Body)
	}
	res := decode[roundGuessRes](t, rec)
	if res.Guess.Code != "DE" || res.Guess.Tier == game.TierCorrect || res.Guess.Direction == "" {
		t.Errorf("guess = %+v", res.Guess)
	}
	if res.Round.Status != game.StatusInProgress || res.Round.Target != nil {
		t.Errorf("round after miss = %+v", res.Round)
	}

	rec = c.do(http.MethodPost, "/round/"+id+"/guess", guessReq{Code: "fr"})
	res = decode[roundGuessRes](t, rec)
	if rec.Code != http.StatusOK || res.Guess.Tier != game.TierCorrect || res.Guess.DistanceKm != 0 {
		t.Fatalf("guess FR = %d %+v", rec.Code, res.Guess)
	}
	if !res.Round.Won || res.Round.GuessCount != 2 || res.Round.Target == nil || res.Round.Target.Code != "FR" {
		t.Errorf("round after win = %+v", res.Round)
	}
	if res.Round.Guesses[0].Code != "FR" {
		t.Errorf("latest guess not first: %+v", res.Round.Guesses)
	}

	rec = c.do(http.MethodPost, "/round/"+id+"/guess", guessReq{Name: "Spain"})
	if rec.Code != http.StatusConflict {
		t.Errorf("guess after win = %d, want 409", rec.Code)
	}
}

func TestRoundRejectedGuessesKeepState(t *testing.T) {
	s := newServer(t, nil)
	c, pid := player(t, s)
	id := seedRound(t, s, pid, "JP")

	c.do(http.MethodPost, "/round/"+id+"/guess", guessReq{Name: "Chile"})

	tests := []struct {
		body guessReq
		code int
		err  string
	}{
		{guessReq{Name: "Atlantis"}, http.StatusUnprocessableEntity, "unknown_country"},
		{guessReq{Name: "  chile "}, http.StatusConflict, "duplicate_guess"},
		{guessReq{Code: "CL"}, http.StatusConflict, "duplicate_guess"},
	}
	for _, tt := range tests {
		rec := c.do(http.MethodPost, "/round/"+id+"/guess", tt.body)
		if rec.Code != tt.code || decode[errorRes](t, rec).Error != tt.err {
			t.Errorf("guess %+v = %d %s, want %d %s", tt.body, rec.Code, rec.Body, tt.code, tt.err)
		}
	}

	v := decode[roundRes](t, c.do(http.MethodGet, "/round/"+id, nil))
	if v.GuessCount != 1 || v.Status != game.StatusInProgress {
		t.Errorf("round after rejected guesses = %+v", v.RoundView)
	}

	req := httptest.NewRequest(http.MethodPost, "/round/"+id+"/guess", strings.NewReader("{"))
	req.Header.Set("Authorization", "Bearer "+c.token)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("malformed body = %d, want 400", rec.Code)
	}
}

func TestRoundsArePrivate(t *testing.T) {
	s := newServer(t, nil)
	_, alice := player(t, s)
	bob, _ := player(t, s)
	id := seedRound(t, s, alice, "FR")

	if rec := bob.do(http.MethodGet, "/round/"+id, nil); rec.Code != http.StatusNotFound {
		t.Errorf("foreign GET = %d, want 404", rec.Code)
	}
	if rec := bob.do(http.MethodPost, "/round/"+id+"/guess", guessReq{Code: "FR"}); rec.Code != http.StatusNotFound {
		t.Errorf("foreign guess = %d, want 404", rec.Code)
	}
}

func TestNewRoundModes(t *testing.T) {
	s := newServer(t, nil)
	c, pid := player(t, s)

	rec := c.do(http.MethodPost, "/round/new", nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("POST /round/new = %d %s", rec.Code, rec.Body)
	}
	v := decode[roundRes](t, rec)
	if v.Mode != game.ModeRandom || v.Status != game.StatusInProgress || v.Target != nil || v.Date != "" {
		t.Errorf("random round = %+v", v)
	}
	if rec := c.do(http.MethodPost, "/round/"+v.ID+"/skip", nil); rec.Code != http.StatusConflict {
		t.Errorf("skip random round = %d, want 409", rec.Code)
	}

	p := decode[roundRes](t, c.do(http.MethodPost, "/round/new", newRoundReq{Mode: game.ModePractice}))
	rec = c.do(http.MethodPost, "/round/"+p.ID+"/skip", nil)
	skipped := decode[roundRes](t, rec)
	if rec.Code != http.StatusOK || skipped.Status != game.StatusLost || skipped.Target == nil {
		t.Errorf("skip practice round = %d %+v", rec.Code, skipped)
	}

	if rec := c.do(http.MethodPost, "/round/new", map[string]string{"mode": "weekly"}); rec.Code != http.StatusBadRequest {
		t.Errorf("unknown mode = %d, want 400", rec.Code)
	}

	d1 := decode[roundRes](t, c.do(http.MethodPost, "/round/new", newRoundReq{Mode: game.ModeDaily}))
	rec = c.do(http.MethodPost, "/round/new", newRoundReq{Mode: game.ModeDaily})
	d2 := decode[roundRes](t, rec)
	if rec.Code != http.StatusOK || d1.ID != d2.ID || d1.Date != "2026-03-14" {
		t.Errorf("daily rounds = %+v / %d %+v, want the same id twice", d1, rec.Code, d2)
	}

	other, oid := player(t, s)
	d3 := decode[roundRes](t, other.do(http.MethodPost, "/round/new", newRoundReq{Mode: game.ModeDaily}))
	if d3.ID == d1.ID {
		t.Errorf("two players share daily round id %s", d1.ID)
	}
	r1, _ := s.rounds.Get(context.Background(), pid, d1.ID)
	r3, _ := s.rounds.Get(context.Background(), oid, d3.ID)
	if r1 == nil || r3 == nil || r1.Target.Code != r3.Target.Code {
		t.Errorf("daily targets differ between players")
	}
}

func TestSessionFlow(t *testing.T) {
	tbl, err := countries.New([]countries.Country{{Name: "France", Code: "FR", Latitude: 46.2, Longitude: 2.2}})
	if err != nil {
		t.Fatal(err)
	}
	s := newServer(t, tbl)
	c, _ := player(t, s)

	for _, n := range []int{-1, game.MaxSessionRounds + 1} {
		if rec := c.do(http.MethodPost, "/session/new", newSessionReq{Rounds: n}); rec.Code != http.StatusBadRequest {
			t.Errorf("session with %d rounds = %d, want 400", n, rec.Code)
		}
	}

	rec := c.do(http.MethodPost, "/session/new", newSessionReq{Rounds: 2})
	if rec.Code != http.StatusCreated {
		t.Fatalf("POST /session/new = %d %s", rec.Code, rec.Body)
	}
	v := decode[game.SessionView](t, rec)
	if v.RoundNumber != 1 || v.Total != 2 || v.Current == nil || v.Current.Mode != game.ModePractice {
		t.Fatalf("new session = %+v", v)
	}
	base := "/session/" + v.ID

	if rec := c.do(http.MethodPost, base+"/next", nil); rec.Code != http.StatusConflict {
		t.Errorf("next during live round = %d, want 409", rec.Code)
	}

	gr := decode[sessionGuessRes](t, c.do(http.MethodPost, base+"/guess", guessReq{Name: "france"}))
	if gr.Guess.Tier != game.TierCorrect || gr.Session.Wins != 1 {
		t.Errorf("session guess = %+v", gr)
	}

	v = decode[game.SessionView](t, c.do(http.MethodPost, base+"/next", nil))
	if v.RoundNumber != 2 || v.Current.Status != game.StatusInProgress {
		t.Errorf("second round = %+v", v)
	}
	v = decode[game.SessionView](t, c.do(http.MethodPost, base+"/skip", nil))
	if !v.Complete || v.Wins != 1 || v.AverageGuesses != 1 || len(v.Results) != 2 {
		t.Errorf("finished session = %+v", v)
	}
	if rec := c.do(http.MethodPost, base+"/next", nil); rec.Code != http.StatusConflict || decode[errorRes](t, rec).Error != "session_complete" {
		t.Errorf("next on complete session = %d %s", rec.Code, rec.Body)
	}

	rec = c.do(http.MethodGet, base+"/report.xlsx", nil)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Header().Get("Content-Type"), "spreadsheetml") {
		t.Fatalf("report = %d %q", rec.Code, rec.Header().Get("Content-Type"))
	}
	f, err := excelize.OpenReader(rec.Body)
	if err != nil {
		t.Fatalf("open report: %v", err)
	}
	defer f.Close()
	if got, _ := f.GetCellValue("Rounds", "B2"); got != "France" {
		t.Errorf("report B2 = %q, want France", got)
	}

	other, _ := player(t, s)
	if rec := other.do(http.MethodGet, base, nil); rec.Code != http.StatusNotFound {
		t.Errorf("foreign session GET = %d, want 404", rec.Code)
	}
}

func TestCountriesAndTiers(t *testing.T) {
	s := newServer(t, nil)
	c, _ := player(t, s)

	got := decode[[]countries.Country](t, c.do(http.MethodGet, "/countries?q=ger&limit=3", nil))
	if len(got) == 0 || len(got) > 3 || got[0].Code != "DE" {
		t.Errorf("GET /countries?q=ger = %+v", got)
	}
	if got := decode[[]countries.Country](t, c.do(http.MethodGet, "/countries?q=zzz", nil)); len(got) != 0 {
		t.Errorf("GET /countries?q=zzz = %+v, want []", got)
	}
	if all := decode[[]countries.Country](t, c.do(http.MethodGet, "/countries", nil)); len(all) != s.table.Len() {
		t.Errorf("GET /countries returned %d, want %d", len(all), s.table.Len())
	}

	tiers := decode[[]game.TierInfo](t, c.do(http.MethodGet, "/tiers", nil))
	if len(tiers) != len(game.Tiers) || tiers[0].Tier != game.TierCorrect {
		t.Errorf("GET /tiers = %+v", tiers)
	}

	if rec := c.do(http.MethodGet, "/nope", nil); rec.Code != http.StatusNotFound {
		t.Errorf("GET /nope = %d, want 404", rec.Code)
	}
}

// gatedStore holds the first Get until release is closed.
type gatedStore struct {
	store.Store[game.Round]
	calls   atomic.Int32
	entered chan struct{}
	release chan struct{}
}

func (g *gatedStore) Get(ctx context.Context, owner, id string) (*game.Round, error) {
	rd, err := g.Store.Get(ctx, owner, id)
	if g.calls.Add(1) == 1 {
		close(g.entered)
		<-g.release
	}
	return rd, err
}

func TestConcurrentDailyRequestsKeepGuesses(t *testing.T) {
	tbl, err := countries.Embedded()
	if err != nil {
		t.Fatal(err)
	}
	gs := &gatedStore{
		Store:   store.NewMemoryStore[game.Round](),
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
	s := New(Options{
		Table:     tbl,
		Rounds:    gs,
		DailySalt: "test-salt",
		JWTSecret: "test-secret",
		Now:       func() time.Time { return testNow },
	})
	c, pid := player(t, s)

	stale := make(chan *httptest.ResponseRecorder, 1)
	go func() { stale <- c.do(http.MethodPost, "/round/new", newRoundReq{Mode: game.ModeDaily}) }()
	<-gs.entered

	rec := c.do(http.MethodPost, "/round/new", newRoundReq{Mode: game.ModeDaily})
	if rec.Code != http.StatusCreated {
		t.Fatalf("daily round = %d %s", rec.Code, rec.Body)
	}
	id := decode[roundRes](t, rec).ID
	rd, err := gs.Store.Get(context.Background(), pid, id)
	if err != nil {
		t.Fatal(err)
	}
	var guessed int
	for _, code := range []string{"CL", "PE", "JP", "FR"} {
		if code == rd.Target.Code || guessed == 3 {
			continue
		}
		if rec := c.do(http.MethodPost, "/round/"+id+"/guess", guessReq{Code: code}); rec.Code != http.StatusOK {
			t.Fatalf("guess %s = %d %s", code, rec.Code, rec.Body)
		}
		guessed++
	}

	close(gs.release)
	var late *httptest.ResponseRecorder
	select {
	case late = <-stale:
	case <-time.After(5 * time.Second):
		t.Fatal("held daily request never finished")
	}
	v := decode[roundRes](t, late)
	if late.Code != http.StatusOK || v.ID != id || v.GuessCount != guessed {
		t.Errorf("held daily request = %d id=%s guesses=%d, want 200 id=%s guesses=%d", late.Code, v.ID, v.GuessCount, id, guessed)
	}
	stored, err := gs.Store.Get(context.Background(), pid, id)
	if err != nil || len(stored.Guesses) != guessed || stored.Status != game.StatusInProgress {
		t.Errorf("stored daily round after both requests: %+v, %v; want %d guesses", stored, err, guessed)
	}
}
