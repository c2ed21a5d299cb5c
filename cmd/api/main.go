package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/smarterfit/smarterfit/internal/apiclient"
	"github.com/smarterfit/smarterfit/internal/auth"
	"github.com/smarterfit/smarterfit/internal/cep"
	"github.com/smarterfit/smarterfit/internal/config"
	internalhttp "github.com/smarterfit/smarterfit/internal/http"
)

func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("bff encerrado com erro")
	}
}

func run() error {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if err := cfg.RequireBFF(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if level, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(level)
	}

	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("redis parse: %w", err)
	}
	redisClient := redis.NewClient(redisOpts)
	defer redisClient.Close()

	api, err := apiclient.New(apiclient.Config{
		BaseURL:        cfg.APIBaseURL,
		Timeout:        cfg.APITimeout,
		CircuitBreaker: cfg.CircuitBreaker,
		DedupGET:       cfg.DedupGET,
		Logger:         log.With().Str("component", "apiclient").Logger(),
	})
	if err != nil {
		return fmt.Errorf("apiclient: %w", err)
	}

	cepClient := cep.New(cep.Config{
		BaseURL: cfg.CEPBaseURL,
		Cache:   cep.NewRedisCache(redisClient),
		Logger:  log.With().Str("component", "cep").Logger(),
	})

	handler, err := internalhttp.NewRouter(internalhttp.Deps{
		Config:   cfg,
		API:      api,
		Redis:    redisClient,
		Sessions: internalhttp.RedisSessions(redisClient),
		Signer:   auth.NewSessionSigner(cfg.SessionSecret, cfg.SessionTTL),
		CEP:      cepClient,
		Logger:   log.With().Str("component", "http").Logger(),
	})
	if err != nil {
		return fmt.Errorf("router: %w", err)
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("api", cfg.APIBaseURL).Msgf("BFF ouvindo em :%d", cfg.Port)
		errCh <- srv.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info().Str("signal", sig.String()).Msg("encerrando...")
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
