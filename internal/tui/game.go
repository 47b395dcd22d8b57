package tui

import (
	"context"
	"errors"
	"fmt"
	mrand "math/rand/v2"
	"time"

	"github.com/gdamore/tcell/v2"
	"go.opentelemetry.io/otel/attribute"

	"github.com/robalobadob/geoguess/internal/countries"
	"github.com/robalobadob/geoguess/internal/game"
	"github.com/robalobadob/geoguess/internal/telemetry"
)

const (
	maxSuggestions = 5
	helpLine       = "Enter guess   Tab complete   Ctrl-S skip   Ctrl-N next round   Esc quit"
)

// Options configures a terminal game.
type Options struct {
	Table     *countries.Table
	Mode      game.Mode // random, daily or practice
	Rounds    int       // practice session length
	DailySalt string
	Now       func() time.Time
	Rand      *mrand.Rand // nil uses the global source
}

// Game is one terminal play-through: a single round, or a practice session.
type Game struct {
	screen   *Screen
	renderer *Renderer
	opts     Options

	round   *game.Round
	session *game.Session

	input       []rune
	suggestions []countries.Country
	selected    int
	status      string
	statusErr   bool
	running     bool
}

// New prepares a game on screen and starts its first round.
func New(screen *Screen, opts Options) (*Game, error) {
	if opts.Table == nil {
		opts.Table = countries.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Mode == "" {
		opts.Mode = game.ModeRandom
	}
	g := &Game{
		screen:   screen,
		renderer: NewRenderer(screen),
		opts:     opts,
		running:  true,
	}
	switch opts.Mode {
	case game.ModePractice:
		s, err := game.NewSession(opts.Rounds)
		if err != nil {
			return nil, err
		}
		g.session = s
	case game.ModeRandom, game.ModeDaily:
	default:
		return nil, fmt.Errorf("unknown mode %q", opts.Mode)
	}
	if err := g.next(); err != nil {
		return nil, err
	}
	return g, nil
}

// Run draws and handles input until the player quits.
func (g *Game) Run(ctx context.Context) error {
	tracer := telemetry.Tracer("tui")
	ctx, span := tracer.Start(ctx, "tui.play")
	span.SetAttributes(attribute.String("game.mode", string(g.opts.Mode)))
	defer span.End()
	defer g.screen.Close()

	for g.running {
		g.renderer.Render(g.frame())
		switch ev := g.screen.PollEvent().(type) {
		case *tcell.EventKey:
			g.handleKey(ctx, ev)
		case *tcell.EventResize:
			g.screen.Sync()
		case nil:
			g.running = false
		}
	}
	if g.session != nil {
		span.SetAttributes(attribute.Int("session.wins", g.session.Wins()))
	}
	return nil
}

// handleKey applies one key press.
func (g *Game) handleKey(ctx context.Context, ev *tcell.EventKey) {
	switch ev.Key() {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		g.running = false
	case tcell.KeyEnter:
		g.submit(ctx)
	case tcell.KeyTab:
		g.complete()
	case tcell.KeyBackspace, tcell.KeyBackspace2:
		if n := len(g.input); n > 0 {
			g.input = g.input[:n-1]
			g.refreshSuggestions()
		}
	case tcell.KeyCtrlU:
		g.input = g.input[:0]
		g.refreshSuggestions()
	case tcell.KeyCtrlS:
		g.skip()
	case tcell.KeyCtrlN:
		if err := g.next(); err != nil {
			g.fail(err)
		}
	case tcell.KeyRune:
		if !g.round.Finished() {
			g.input = append(g.input, ev.Rune())
			g.refreshSuggestions()
		}
	}
}

// next starts a new round: the session's next one, or a fresh standalone round.
// Random rounds can be abandoned mid-way since they have no skip; a daily
// round must be finished first.
func (g *Game) next() error {
	if g.opts.Mode == game.ModeDaily && g.round != nil && !g.round.Finished() {
		return fmt.Errorf("%w: finish today's round first", game.ErrInvalidOperation)
	}
	g.clearInput()
	if g.session != nil {
		r, err := g.session.Next(g.opts.Table, g.opts.Rand)
		if err != nil {
			return err
		}
		g.round = r
		g.setStatus(fmt.Sprintf("Round %d of %d", len(g.session.Results)+1, g.session.Total))
		return nil
	}

	var p game.Policy = game.RandomPolicy{Rand: g.opts.Rand}
	if g.opts.Mode == game.ModeDaily {
		p = game.DailyPolicy{Date: g.opts.Now(), Salt: g.opts.DailySalt}
	}
	r := game.NewRound()
	if err := r.Start(g.opts.Table, p); err != nil {
		return err
	}
	g.round = r
	g.setStatus("New round started")
	return nil
}

func (g *Game) submit(ctx context.Context) {
	name := string(g.input)
	if name == "" {
		return
	}
	_, span := telemetry.Tracer("tui").Start(ctx, "tui.guess")
	defer span.End()

	var (
		guess game.Guess
		err   error
	)
	if g.session != nil {
		guess, err = g.session.SubmitName(g.opts.Table, name)
	} else {
		guess, err = g.round.SubmitName(g.opts.Table, name)
	}
	if err != nil {
		span.RecordError(err)
		g.fail(err)
		return
	}
	span.SetAttributes(attribute.String("guess.tier", string(guess.Tier)))
	g.clearInput()

	info := guess.Tier.Info()
	switch {
	case g.round.Won() && g.session != nil && g.session.Complete():
		g.setStatus(fmt.Sprintf("%s Session over: %d of %d won.", info.Message, g.session.Wins(), g.session.Total))
	case g.round.Won():
		g.setStatus(info.Message + " Ctrl-N for the next round.")
	default:
		g.setStatus(fmt.Sprintf("%s: %s", guess.Country.Name, info.Message))
	}
}

func (g *Game) skip() {
	var err error
	if g.session != nil {
		err = g.session.Skip()
	} else {
		err = g.round.Skip()
	}
	if err != nil {
		g.fail(err)
		return
	}
	g.clearInput()
	g.setStatus("Skipped. The answer was " + g.round.Target.Name + ".")
}

// complete fills the input from the suggestion list, cycling on repeat.
func (g *Game) complete() {
	if len(g.suggestions) == 0 {
		return
	}
	if string(g.input) == g.suggestions[g.selected].Name {
		g.selected = (g.selected + 1) % len(g.suggestions)
	}
	g.input = []rune(g.suggestions[g.selected].Name)
}

func (g *Game) refreshSuggestions() {
	g.selected = 0
	g.suggestions = g.opts.Table.Suggest(string(g.input), maxSuggestions)
}

func (g *Game) clearInput() {
	g.input = g.input[:0]
	g.suggestions = nil
	g.selected = 0
}

func (g *Game) setStatus(msg string) {
	g.status, g.statusErr = msg, false
}

// fail shows err in the status line.
func (g *Game) fail(err error) {
	switch {
	case errors.Is(err, game.ErrNotFound):
		g.status = "Unknown country: " + string(g.input)
	case errors.Is(err, game.ErrDuplicateGuess):
		g.status = "Already guessed " + string(g.input)
	case errors.Is(err, game.ErrSessionComplete):
		g.status = fmt.Sprintf("Session over: %d of %d won, %.1f guesses per win.", g.session.Wins(), g.session.Total, g.session.AverageGuesses())
	default:
		g.status = err.Error()
	}
	g.statusErr = true
}

// frame snapshots the state for the renderer.
func (g *Game) frame() frame {
	f := frame{
		title:     "GeoGuess (" + string(g.opts.Mode) + ")",
		round:     g.round.Snapshot(),
		input:     string(g.input),
		selected:  g.selected,
		status:    g.status,
		statusErr: g.statusErr,
		help:      helpLine,
	}
	if g.opts.Mode == game.ModeDaily {
		f.title += " " + g.opts.Now().UTC().Format("2006-01-02")
	}
	if g.session != nil {
		v := g.session.Snapshot()
		f.session = &v
	}
	for _, c := range g.suggestions {
		f.suggestions = append(f.suggestions, c.Name)
	}
	return f
}
