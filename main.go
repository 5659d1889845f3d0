package main

import (
	"context"
	"math/rand"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/mossline/wordrush/internal/config"
	"github.com/mossline/wordrush/internal/hint"
	"github.com/mossline/wordrush/internal/httpserver"
	"github.com/mossline/wordrush/internal/powerup"
	"github.com/mossline/wordrush/internal/run"
	"github.com/mossline/wordrush/internal/semantic"
	"github.com/mossline/wordrush/internal/theme"
	"github.com/mossline/wordrush/internal/words"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}

	bank, err := words.New(cfg.WordsFile)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load word list")
	}
	ranker := semantic.New(bank.Vocabulary())

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	powerups, err := powerup.NewCatalog(rng)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load powerup catalog")
	}
	themes, err := theme.NewCatalog(rng)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load theme catalog")
	}

	var oracle hint.Oracle = hint.Local{}
	if cfg.GeminiAPIKey != "" {
		gem, err := hint.NewGemini(context.Background(), cfg.GeminiAPIKey)
		if err != nil {
			log.Warn().Err(err).Msg("gemini unavailable, using local hints")
		} else {
			defer gem.Close()
			oracle = gem
		}
	}

	engine := run.NewEngine(
		run.NewStore(), bank, ranker, powerups, themes, oracle,
		run.WithHintTimeout(time.Duration(cfg.HintTimeoutMS)*time.Millisecond),
	)

	srv := httpserver.New(engine, themes, bank, cfg.ClientOrigin)
	total, _ := bank.Stats()
	log.Info().Str("port", cfg.Port).Int("words", total).Msg("starting wordrush server")
	if err := srv.Start(":" + cfg.Port); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
}
