package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/geoguess/internal/config"
	"github.com/robalobadob/geoguess/internal/countries"
	"github.com/robalobadob/geoguess/internal/game"
	"github.com/robalobadob/geoguess/internal/httpserver"
	"github.com/robalobadob/geoguess/internal/store"
	"github.com/robalobadob/geoguess/internal/telemetry"
)

const pruneEvery = time.Hour

func main() {
	cfg := config.Load()
	if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}
	if cfg.LogPretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := countries.Init(); err != nil {
		log.Fatal().Err(err).Str("file", cfg.CountriesFile).Msg("failed to load country table")
	}
	table := countries.Default()
	log.Info().Int("countries", table.Len()).Msg("country table loaded")

	shutdownTracing, err := telemetry.Setup(ctx, cfg.OTLPEndpoint)
	if err != nil {
		log.Fatal().Err(err).Msg("tracing setup")
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTracing(sctx)
	}()

	var (
		rounds   store.Store[game.Round]
		sessions store.Store[game.Session]
	)
	switch cfg.Store {
	case "sqlite":
		db, err := store.OpenDB(cfg.DBPath)
		if err != nil {
			log.Fatal().Err(err).Str("path", cfg.DBPath).Msg("open database")
		}
		defer db.Close()
		rounds = store.NewSQLStore[game.Round](db, "round")
		sessions = store.NewSQLStore[game.Session](db, "session")
	case "memory", "":
		rounds = store.NewMemoryStore[game.Round]()
		sessions = store.NewMemoryStore[game.Session]()
	default:
		log.Fatal().Str("store", cfg.Store).Msg("STORE must be memory or sqlite")
	}
	go janitor(ctx, cfg.StateTTL, rounds, sessions)

	srv := httpserver.New(httpserver.Options{
		Table:         table,
		Rounds:        rounds,
		Sessions:      sessions,
		DailySalt:     cfg.DailySalt,
		JWTSecret:     cfg.JWTSecret,
		ClientOrigin:  cfg.ClientOrigin,
		SecureCookies: cfg.Production,
	})
	hs := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := hs.Shutdown(sctx); err != nil {
			log.Warn().Err(err).Msg("shutdown")
		}
	}()

	log.Info().Str("port", cfg.Port).Str("store", cfg.Store).Msg("starting geoguess server")
	if err := hs.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("server exited")
	}
	log.Info().Msg("server stopped")
}

// janitor drops rounds and sessions idle for longer than ttl.
func janitor(ctx context.Context, ttl time.Duration, rounds store.Store[game.Round], sessions store.Store[game.Session]) {
	t := time.NewTicker(pruneEvery)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			before := time.Now().Add(-ttl)
			nr, err := rounds.Prune(ctx, before)
			if err != nil {
				log.Warn().Err(err).Msg("prune rounds")
			}
			ns, err := sessions.Prune(ctx, before)
			if err != nil {
				log.Warn().Err(err).Msg("prune sessions")
			}
			if nr+ns > 0 {
				log.Info().Int("rounds", nr).Int("sessions", ns).Msg("pruned idle state")
			}
		}
	}
}
