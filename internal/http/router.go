package http

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/smarterfit/smarterfit/internal/apiclient"
	"github.com/smarterfit/smarterfit/internal/auth"
	"github.com/smarterfit/smarterfit/internal/cep"
	"github.com/smarterfit/smarterfit/internal/config"
	httpmiddleware "github.com/smarterfit/smarterfit/internal/http/middleware"
	"github.com/smarterfit/smarterfit/internal/session"
)

// BackendFactory abre o armazenamento de uma sessão do navegador.
type BackendFactory func(sessionID string) session.Backend

// RedisSessions guarda cada sessão sob o prefixo do seu id.
func RedisSessions(client *redis.Client) BackendFactory {
	return func(sessionID string) session.Backend {
		return session.NewRedisBackend(client, sessionID)
	}
}

// Deps reúne o que o BFF precisa para montar as rotas.
type Deps struct {
	Config   *config.Config
	API      *apiclient.Client
	Redis    *redis.Client
	Sessions BackendFactory
	Signer   *auth.SessionSigner
	CEP      *cep.Client
	Logger   zerolog.Logger
	Now      func() time.Time
}

type Handler struct {
	cfg           *config.Config
	api           *apiclient.Client
	redis         *redis.Client
	sessions      BackendFactory
	signer        *auth.SessionSigner
	cep           *cep.Client
	logger        zerolog.Logger
	now           func() time.Time
	publicLimiter *httpmiddleware.RateLimiter
	authLimiter   *httpmiddleware.RateLimiter
	devCookies    bool
}

// NewRouter devolve roteador configurado.
func NewRouter(deps Deps) (http.Handler, error) {
	if deps.Config == nil || deps.API == nil || deps.Sessions == nil || deps.Signer == nil {
		return nil, errors.New("http: config, api, sessões e assinador são obrigatórios")
	}
	cfg := deps.Config

	devCookies := false
	for _, origin := range cfg.AllowOrigins {
		if strings.Contains(origin, "localhost") {
			devCookies = true
			break
		}
	}

	now := deps.Now
	if now == nil {
		now = time.Now
	}
	cepClient := deps.CEP
	if cepClient == nil {
		cepClient = cep.New(cep.Config{BaseURL: cfg.CEPBaseURL, Logger: deps.Logger})
	}

	h := &Handler{
		cfg:           cfg,
		api:           deps.API,
		redis:         deps.Redis,
		sessions:      deps.Sessions,
		signer:        deps.Signer,
		cep:           cepClient,
		logger:        deps.Logger,
		now:           now,
		publicLimiter: httpmiddleware.NewRateLimiter(cfg.RateLimitPublic.RequestsPerSecond, cfg.RateLimitPublic.Burst),
		authLimiter:   httpmiddleware.NewRateLimiter(cfg.RateLimitAuth.RequestsPerSecond, cfg.RateLimitAuth.Burst),
		devCookies:    devCookies,
	}

	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(httpmiddleware.Logging(deps.Logger))
	r.Use(httpmiddleware.Recover(deps.Logger))
	r.Use(httpmiddleware.CORS(cfg.AllowOrigins))
	r.Use(httpmiddleware.Session(deps.Signer))

	r.Group(func(public chi.Router) {
		public.Use(httpmiddleware.IPRateLimit(h.publicLimiter))

		public.Get("/health", h.Health)
		public.Get("/ready", h.Ready)

		public.Route("/auth", func(a chi.Router) {
			a.Post("/login", h.Login)
			a.Post("/logout", h.Logout)
			a.Post("/registro", h.Register)
		})

		public.Get("/planos", h.ListPlans)
		public.Get("/cep/{cep}", h.LookupCEP)
	})

	r.Group(func(private chi.Router) {
		private.Use(httpmiddleware.RequireSession)
		private.Use(httpmiddleware.SessionRateLimit(h.authLimiter))
		private.Use(h.loadUser)

		private.Get("/me", h.Me)

		private.Get("/assinatura/ativa", h.ActiveSubscription)
		private.Post("/assinaturas", h.Subscribe)
		private.Get("/pagamentos", h.ListPayments)
		private.With(httpmiddleware.RequireRoles("ADMIN", "PROPRIETARIO")).Post("/pagamentos", h.CreatePayment)

		private.Route("/turmas", func(t chi.Router) {
			t.Get("/", h.ListTurmas)
			t.Put("/selecionada", h.SelectTurma)
			t.Get("/{id}", h.GetTurma)
			t.Get("/{id}/previa", h.PreviewTurma)
		})

		private.Post("/checkin", h.CheckIn)
		private.Get("/presenca", h.Presence)

		private.Get("/grupos/{id}/podio", h.Podium)
		private.Get("/grupos/{id}/ranking", h.Ranking)

		private.Get("/desafios/trilhas/{id}", h.Trail)
		private.Patch("/desafios/passos/{id}", h.ToggleStep)

		private.Post("/ia/chat", h.Chat)
		private.Post("/ia/plano-treino", h.WorkoutPlan)
	})

	return r, nil
}

// Health responde status simples.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Ready valida a conexão com o Redis das sessões.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	if h.redis == nil {
		WriteJSON(w, http.StatusOK, map[string]bool{"ready": true})
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.redis.Ping(ctx).Err(); err != nil {
		WriteError(w, http.StatusServiceUnavailable, "INTERNAL", "dependências indisponíveis", map[string]any{
			"redis": err.Error(),
		})
		return
	}
	WriteJSON(w, http.StatusOK, map[string]bool{"ready": true})
}

// sessionScope liga a sessão do navegador ao cliente do backend.
type sessionScope struct {
	store *session.Store
	api   *apiclient.Client
}

func (h *Handler) storeFor(sessionID string) *session.Store {
	return session.NewStore(h.sessions(sessionID), session.Options{
		TTL:         h.cfg.SessionTTL,
		PresenceTTL: h.cfg.PresenceTTL,
	})
}

// scope devolve a sessão da requisição; um 401 do backend limpa a sessão.
func (h *Handler) scope(r *http.Request) sessionScope {
	store := h.storeFor(httpmiddleware.GetSessionID(r.Context()))
	api := h.api.WithSession(store, func(ctx context.Context) {
		if err := store.Clear(context.WithoutCancel(ctx)); err != nil {
			h.logger.Warn().Err(err).Msg("falha ao limpar sessão")
		}
	})
	return sessionScope{store: store, api: api}
}

// loadUser exige token válido na sessão e injeta os papéis do usuário.
func (h *Handler) loadUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		store := h.scope(r).store
		ctx := r.Context()

		loggedIn, err := store.LoggedIn(ctx)
		if err != nil {
			h.writeServiceError(w, r, err)
			return
		}
		if !loggedIn {
			_ = store.Clear(ctx)
			WriteError(w, http.StatusUnauthorized, "AUTH", "sessão expirada, faça login novamente", nil)
			return
		}

		var roles []string
		if user, err := store.User(ctx); err == nil {
			roles = user.Roles
		}
		next.ServeHTTP(w, r.WithContext(httpmiddleware.WithRoles(ctx, roles)))
	})
}
