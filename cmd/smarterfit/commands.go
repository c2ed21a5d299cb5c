package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/smarterfit/smarterfit/internal/ai"
	"github.com/smarterfit/smarterfit/internal/billing"
	"github.com/smarterfit/smarterfit/internal/checkin"
	"github.com/smarterfit/smarterfit/internal/classgroup"
	"github.com/smarterfit/smarterfit/internal/flow"
	"github.com/smarterfit/smarterfit/internal/schema"
	"github.com/smarterfit/smarterfit/internal/session"
	"github.com/smarterfit/smarterfit/internal/traininggroup"
	"github.com/smarterfit/smarterfit/internal/useraccess"
)

func newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	return fs
}

// positional separa o primeiro argumento obrigatório das flags que vêm depois.
func positional(args []string, what string) (string, []string, error) {
	if len(args) == 0 || strings.HasPrefix(args[0], "-") {
		return "", nil, fmt.Errorf("%s obrigatório", what)
	}
	return args[0], args[1:], nil
}

func (a *app) runLogin(ctx context.Context, args []string) error {
	fs := newFlagSet("login")
	email := fs.String("email", "", "e-mail da conta")
	password := fs.String("password", os.Getenv("SMARTERFIT_PASSWORD"), "senha")
	if err := fs.Parse(args); err != nil {
		return err
	}

	users := useraccess.NewService(a.api)
	var loggedIn *useraccess.User
	form := flow.NewForm(flow.FormConfig[useraccess.LoginRequest]{
		Notifier:       a.notifier,
		SuccessMessage: "login realizado",
		ErrorFallback:  "não foi possível entrar",
		Submit: func(ctx context.Context, req useraccess.LoginRequest) error {
			resp, err := users.Login(ctx, req)
			if err != nil {
				return err
			}
			if err := a.store.Login(ctx, resp.Token, resp.User); err != nil {
				return err
			}
			user := resp.User
			if user == nil {
				userID, err := a.store.UserID(ctx)
				if err != nil {
					return err
				}
				fetched, err := users.GetUser(ctx, userID)
				if err != nil {
					return err
				}
				if err := a.store.SetUser(ctx, fetched); err != nil {
					return err
				}
				user = &fetched
			}
			loggedIn = user
			return nil
		},
	})

	form.Open()
	if err := form.Set(func(v *useraccess.LoginRequest) {
		v.Email = strings.TrimSpace(*email)
		v.Password = *password
	}); err != nil {
		return err
	}
	if err := form.Submit(ctx); err != nil {
		return err
	}
	fmt.Printf("olá, %s\n", loggedIn.DisplayName())
	return nil
}

func (a *app) runLogout(ctx context.Context, _ []string) error {
	if err := a.store.Clear(ctx); err != nil {
		return err
	}
	a.notifier.Notify(flow.Toast{Kind: flow.ToastSuccess, Message: "sessão encerrada"})
	return nil
}

func (a *app) runWhoami(ctx context.Context, _ []string) error {
	user, err := a.store.User(ctx)
	if errors.Is(err, session.ErrNoSession) {
		userID, idErr := a.store.UserID(ctx)
		if idErr != nil {
			return fmt.Errorf("nenhuma sessão ativa: %w", idErr)
		}
		fetched, err := useraccess.NewService(a.api).GetUser(ctx, userID)
		if err != nil {
			return err
		}
		if err := a.store.SetUser(ctx, fetched); err != nil {
			return err
		}
		user = &fetched
	} else if err != nil {
		return err
	}
	printJSON(user)
	return nil
}

func (a *app) runPlans(ctx context.Context, args []string) error {
	fs := newFlagSet("planos")
	name := fs.String("nome", "", "filtra pelo nome")
	if err := fs.Parse(args); err != nil {
		return err
	}
	filter := billing.PlanFilter{Name: strings.TrimSpace(*name)}
	if err := schema.Validate(filter); err != nil {
		return err
	}
	plans, err := billing.NewService(a.api).SearchPlans(ctx, filter)
	if err != nil {
		return err
	}
	if len(plans.Content) == 0 {
		fmt.Println("nenhum plano encontrado")
		return nil
	}
	for _, p := range plans.Content {
		fmt.Printf("%s  %-24s R$ %8.2f  %3d dias\n", p.ID, p.Name, p.Price, p.DurationDays)
	}
	return nil
}

func (a *app) runTurmas(ctx context.Context, args []string) error {
	fs := newFlagSet("turmas")
	modality := fs.String("modalidade", "", "filtra pela modalidade")
	mine := fs.Bool("minhas", false, "somente turmas do usuário logado")
	if err := fs.Parse(args); err != nil {
		return err
	}

	svc := classgroup.NewService(a.api)
	var turmas []classgroup.Turma
	if *mine {
		userID, err := a.store.UserID(ctx)
		if err != nil {
			return err
		}
		if turmas, err = svc.ByUser(ctx, userID); err != nil {
			return err
		}
	} else {
		filter := classgroup.TurmaFilter{Modality: strings.TrimSpace(*modality), OnlyOpen: true}
		if err := schema.Validate(filter); err != nil {
			return err
		}
		page, err := svc.Search(ctx, filter)
		if err != nil {
			return err
		}
		turmas = page.Content
	}

	selected, _ := a.store.SelectedTurma(ctx)
	for _, t := range turmas {
		mark := " "
		if t.ID == selected {
			mark = "*"
		}
		fmt.Printf("%s %s  %-24s %-12s vagas %d/%d\n", mark, t.ID, t.Title, t.Modality, t.Vacancies(), t.Capacity)
	}
	return nil
}

func (a *app) runTurma(ctx context.Context, args []string) error {
	id, rest, err := positional(args, "id da turma")
	if err != nil {
		return err
	}
	fs := newFlagSet("turma")
	selectIt := fs.Bool("selecionar", false, "usa a turma como padrão do check-in")
	days := fs.Int("dias", 14, "dias de prévia das aulas")
	if err := fs.Parse(rest); err != nil {
		return err
	}

	turma, err := classgroup.NewService(a.api).Get(ctx, id)
	if err != nil {
		return err
	}
	if *selectIt {
		if err := a.store.SelectTurma(ctx, turma.ID); err != nil {
			return err
		}
		a.notifier.Notify(flow.Toast{Kind: flow.ToastSuccess, Message: "turma selecionada: " + turma.Title})
	}

	now := time.Now()
	sessions, err := classgroup.PreviewSessions(turma, now, now.AddDate(0, 0, *days))
	if err != nil {
		return err
	}
	fmt.Printf("%s (%s) vagas %d/%d\n", turma.Title, turma.Modality, turma.Vacancies(), turma.Capacity)
	for _, s := range sessions {
		fmt.Printf("  %s %s–%s\n", s.Date, s.StartTime, s.EndTime)
	}
	return nil
}

func (a *app) runPresence(ctx context.Context, args []string) error {
	fs := newFlagSet("presenca")
	watch := fs.Duration("watch", 0, "atualiza periodicamente (ex.: 30s)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	svc := checkin.NewService(a.api)
	latest := flow.NewLatest()
	var tracker flow.Tracker[session.PresenceSnapshot]

	refresh := func() error {
		snap, err := tracker.Run(ctx, func(ctx context.Context) (session.PresenceSnapshot, error) {
			return flow.RunLatest(ctx, latest, "presenca", func(ctx context.Context) (session.PresenceSnapshot, error) {
				return a.store.CachedPresence(ctx, svc.Presence)
			})
		})
		if errors.Is(err, flow.ErrStale) {
			return nil
		}
		if err != nil && snap.FetchedAt.IsZero() {
			return err
		}
		if err != nil {
			a.logger.Warn().Err(err).Msg("exibindo presença desatualizada")
		}
		occ := snap.Presence.Occupancy()
		fmt.Printf("%s  %d/%d  %d%% (%s)\n", snap.FetchedAt.Local().Format("15:04:05"),
			snap.Presence.TotalMembers, snap.Presence.Capacity, occ.Percent, occ.Band)
		return nil
	}

	if err := refresh(); err != nil || *watch <= 0 {
		return err
	}
	ticker := time.NewTicker(*watch)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := refresh(); err != nil {
				a.notifier.Notify(flow.Toast{Kind: flow.ToastError, Message: err.Error()})
			}
		}
	}
}

func (a *app) runRanking(ctx context.Context, args []string) error {
	groupID, _, err := positional(args, "id do grupo")
	if err != nil {
		return err
	}
	members, err := traininggroup.NewService(a.api).Ranking(ctx, groupID)
	if err != nil {
		return err
	}
	if len(members) == 0 {
		fmt.Println("grupo sem pontuação")
		return nil
	}
	for _, m := range traininggroup.Rank(members) {
		fmt.Printf("%4s  %-24s %5d pts\n", m.Label, m.Name, m.Points)
	}
	return nil
}

func (a *app) runCEP(ctx context.Context, args []string) error {
	raw, _, err := positional(args, "CEP")
	if err != nil {
		return err
	}
	addr, err := a.cep.Lookup(ctx, raw)
	if err != nil {
		return err
	}
	printJSON(addr)
	return nil
}

func (a *app) runChat(ctx context.Context, args []string) error {
	message := strings.TrimSpace(strings.Join(args, " "))
	userID, err := a.store.UserID(ctx)
	if err != nil {
		return err
	}
	req := ai.ChatRequest{UserID: userID, Message: message}
	if err := schema.Validate(req); err != nil {
		return err
	}

	_, err = ai.NewService(a.api).Chat(ctx, req, func(chunk string) error {
		_, err := fmt.Fprint(os.Stdout, chunk)
		return err
	})
	fmt.Println()
	if errors.Is(err, context.Canceled) {
		a.notifier.Notify(flow.Toast{Kind: flow.ToastError, Message: "resposta interrompida"})
		return nil
	}
	return err
}
