// Package main is the terminal entry point for GeoGuess.
package main

import (
	"context"
	"flag"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/geoguess/internal/config"
	"github.com/robalobadob/geoguess/internal/countries"
	"github.com/robalobadob/geoguess/internal/game"
	"github.com/robalobadob/geoguess/internal/telemetry"
	"github.com/robalobadob/geoguess/internal/tui"
)

func main() {
	mode := flag.String("mode", "random", "round mode: random, daily or practice")
	rounds := flag.Int("rounds", 5, "rounds in a practice session")
	flag.Parse()

	cfg := config.Load()
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}

	if err := countries.Init(); err != nil {
		log.Fatal().Err(err).Str("file", cfg.CountriesFile).Msg("failed to load country table")
	}

	ctx := context.Background()
	shutdown, err := telemetry.Setup(ctx, cfg.OTLPEndpoint)
	if err != nil {
		log.Warn().Err(err).Msg("telemetry setup failed, playing without tracing")
	} else {
		defer func() {
			if err := shutdown(ctx); err != nil {
				log.Warn().Err(err).Msg("telemetry shutdown")
			}
		}()
	}

	screen, err := tui.NewScreen()
	if err != nil {
		log.Fatal().Err(err).Msg("open terminal")
	}
	g, err := tui.New(screen, tui.Options{
		Table:     countries.Default(),
		Mode:      game.Mode(*mode),
		Rounds:    *rounds,
		DailySalt: cfg.DailySalt,
	})
	if err != nil {
		screen.Close()
		log.Fatal().Err(err).Msg("start game")
	}
	if err := g.Run(ctx); err != nil {
		log.Fatal().Err(err).Msg("game error")
	}
}
