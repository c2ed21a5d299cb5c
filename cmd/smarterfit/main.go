package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/smarterfit/smarterfit/internal/apiclient"
	"github.com/smarterfit/smarterfit/internal/cep"
	"github.com/smarterfit/smarterfit/internal/config"
	"github.com/smarterfit/smarterfit/internal/flow"
	"github.com/smarterfit/smarterfit/internal/session"
)

// app agrupa o que os subcomandos compartilham.
type app struct {
	cfg      *config.Config
	store    *session.Store
	api      *apiclient.Client
	cep      *cep.Client
	notifier flow.Notifier
	logger   zerolog.Logger
}

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("configuração inválida")
	}
	if level, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(level)
	}

	// ctrl-C cancela a operação em andamento, inclusive o chat em streaming
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("falha ao iniciar")
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	commands := map[string]func(context.Context, []string) error{
		"login":    a.runLogin,
		"logout":   a.runLogout,
		"whoami":   a.runWhoami,
		"planos":   a.runPlans,
		"turmas":   a.runTurmas,
		"turma":    a.runTurma,
		"presenca": a.runPresence,
		"ranking":  a.runRanking,
		"cep":      a.runCEP,
		"chat":     a.runChat,
	}
	run, ok := commands[cmd]
	if !ok {
		usage()
		os.Exit(1)
	}
	if err := run(ctx, args); err != nil {
		if apiclient.IsUnauthorized(err) {
			log.Fatal().Msg("sessão expirada, rode smarterfit login")
		}
		log.Fatal().Err(err).Str("comando", cmd).Msg(apiclient.MessageFromError(err, "falha"))
	}
}

func newApp(cfg *config.Config) (*app, error) {
	logger := log.With().Str("component", "cli").Logger()
	store := session.NewStore(session.NewFileBackend(cfg.SessionFile), session.Options{
		TTL:         cfg.SessionTTL,
		PresenceTTL: cfg.PresenceTTL,
	})

	api, err := apiclient.New(apiclient.Config{
		BaseURL:        cfg.APIBaseURL,
		Timeout:        cfg.APITimeout,
		Tokens:         store,
		CircuitBreaker: cfg.CircuitBreaker,
		DedupGET:       cfg.DedupGET,
		Logger:         log.With().Str("component", "apiclient").Logger(),
		OnUnauthorized: func(ctx context.Context) {
			if err := store.Clear(context.WithoutCancel(ctx)); err != nil {
				logger.Warn().Err(err).Msg("falha ao limpar sessão")
			}
		},
	})
	if err != nil {
		return nil, err
	}

	cepCfg := cep.Config{BaseURL: cfg.CEPBaseURL, Logger: log.With().Str("component", "cep").Logger()}
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("redis parse: %w", err)
		}
		cepCfg.Cache = cep.NewRedisCache(redis.NewClient(opts))
	}

	return &app{
		cfg:      cfg,
		store:    store,
		api:      api,
		cep:      cep.New(cepCfg),
		notifier: flow.LogNotifier{Logger: logger},
		logger:   logger,
	}, nil
}

func usage() {
	fmt.Fprintln(os.Stderr, "smarterfit CLI")
	fmt.Fprintln(os.Stderr, "uso:")
	fmt.Fprintln(os.Stderr, "  smarterfit login --email user@academia.com [--password segredo]   (ou SMARTERFIT_PASSWORD)")
	fmt.Fprintln(os.Stderr, "  smarterfit logout | whoami")
	fmt.Fprintln(os.Stderr, "  smarterfit planos [--nome Mensal]")
	fmt.Fprintln(os.Stderr, "  smarterfit turmas [--modalidade Yoga] [--minhas]")
	fmt.Fprintln(os.Stderr, "  smarterfit turma <id> [--selecionar] [--dias 14]")
	fmt.Fprintln(os.Stderr, "  smarterfit presenca [--watch 30s]")
	fmt.Fprintln(os.Stderr, "  smarterfit ranking <grupoId>")
	fmt.Fprintln(os.Stderr, "  smarterfit cep 01001-000")
	fmt.Fprintln(os.Stderr, "  smarterfit chat \"monte um treino de pernas\"")
}

func printJSON(v any) {
	output, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(output))
}
