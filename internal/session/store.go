package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/smarterfit/smarterfit/internal/auth"
	"github.com/smarterfit/smarterfit/internal/checkin"
	"github.com/smarterfit/smarterfit/internal/useraccess"
)

// Chaves persistidas da sessão.
const (
	KeyToken                 = "token"
	KeyUserID                = "userId"
	KeyUser                  = "user"
	KeySelectedTurma         = "selectedTurmaId"
	KeyPresenceSnapshot      = "lastPresenceSnapshot"
	KeyAvatar                = "userAvatar"
	KeyHasActiveSubscription = "hasActiveSubscription"
)

var allKeys = []string{
	KeyToken, KeyUserID, KeyUser, KeySelectedTurma,
	KeyPresenceSnapshot, KeyAvatar, KeyHasActiveSubscription,
}

var (
	ErrNoSession    = errors.New("sessão: nenhum usuário autenticado")
	ErrTokenExpired = errors.New("sessão: token expirado")
)

const (
	defaultTTL         = 12 * time.Hour
	defaultPresenceTTL = 5 * time.Minute
)

// Options ajusta a expiração da sessão e a janela de validade do retrato de presença.
type Options struct {
	TTL         time.Duration
	PresenceTTL time.Duration
}

// Store é a sessão tipada sobre um Backend. Escritas concorrentes seguem last-write-wins.
type Store struct {
	backend     Backend
	ttl         time.Duration
	presenceTTL time.Duration
	now         func() time.Time
}

func NewStore(backend Backend, opts Options) *Store {
	if opts.TTL <= 0 {
		opts.TTL = defaultTTL
	}
	if opts.PresenceTTL <= 0 {
		opts.PresenceTTL = defaultPresenceTTL
	}
	return &Store{backend: backend, ttl: opts.TTL, presenceTTL: opts.PresenceTTL, now: time.Now}
}

type envelope struct {
	Value     json.RawMessage `json:"value"`
	ExpiresAt *time.Time      `json:"expiresAt,omitempty"`
}

func (s *Store) put(ctx context.Context, key string, value any, expires time.Time) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("sessão: serializar %s: %w", key, err)
	}
	env := envelope{Value: raw}
	var ttl time.Duration
	if !expires.IsZero() {
		exp := expires.UTC()
		env.ExpiresAt = &exp
		ttl = expires.Sub(s.now())
		if ttl <= 0 {
			return s.backend.Delete(ctx, key)
		}
	}
	data, err := json.Marshal(env)
	if err != nil {
		return err
	}
	return s.backend.Set(ctx, key, data, ttl)
}

// get devolve false quando a chave não existe ou expirou.
func (s *Store) get(ctx context.Context, key string, out any) (bool, error) {
	data, ok, err := s.backend.Get(ctx, key)
	if err != nil || !ok {
		return false, err
	}
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return false, fmt.Errorf("sessão: valor inválido em %s: %w", key, err)
	}
	if env.ExpiresAt != nil && !s.now().Before(*env.ExpiresAt) {
		_ = s.backend.Delete(ctx, key)
		return false, nil
	}
	if err := json.Unmarshal(env.Value, out); err != nil {
		return false, fmt.Errorf("sessão: valor inválido em %s: %w", key, err)
	}
	return true, nil
}

// Login grava token, usuário e id. A expiração é a menor entre o exp do token e o TTL da sessão.
// Tokens opacos (não JWT) ficam valendo pelo TTL.
func (s *Store) Login(ctx context.Context, token string, user *useraccess.User) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return errors.New("sessão: token vazio")
	}

	now := s.now()
	expires := now.Add(s.ttl)
	userID := ""
	if claims, err := auth.ParseBackendToken(token); err == nil {
		if exp := claims.Expiry(); !exp.IsZero() {
			if !now.Before(exp) {
				return ErrTokenExpired
			}
			if exp.Before(expires) {
				expires = exp
			}
		}
		userID = claims.UserSubject()
	}
	if user != nil && user.ID != "" {
		userID = user.ID
	}

	if err := s.put(ctx, KeyToken, token, expires); err != nil {
		return err
	}
	if userID != "" {
		if err := s.put(ctx, KeyUserID, userID, expires); err != nil {
			return err
		}
	}
	if user != nil {
		if err := s.put(ctx, KeyUser, user, expires); err != nil {
			return err
		}
	}
	return nil
}

// Token implementa apiclient.TokenSource; sem sessão devolve vazio.
func (s *Store) Token(ctx context.Context) (string, error) {
	var token string
	if _, err := s.get(ctx, KeyToken, &token); err != nil {
		return "", err
	}
	return token, nil
}

// LoggedIn indica se há token válido.
func (s *Store) LoggedIn(ctx context.Context) (bool, error) {
	token, err := s.Token(ctx)
	return token != "", err
}

func (s *Store) UserID(ctx context.Context) (string, error) {
	var id string
	ok, err := s.get(ctx, KeyUserID, &id)
	if err != nil {
		return "", err
	}
	if !ok || id == "" {
		return "", ErrNoSession
	}
	return id, nil
}

func (s *Store) User(ctx context.Context) (*useraccess.User, error) {
	var u useraccess.User
	ok, err := s.get(ctx, KeyUser, &u)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNoSession
	}
	return &u, nil
}

// SetUser atualiza o perfil em cache mantendo a expiração do token.
func (s *Store) SetUser(ctx context.Context, user useraccess.User) error {
	expires, err := s.tokenExpiry(ctx)
	if err != nil {
		return err
	}
	return s.put(ctx, KeyUser, user, expires)
}

func (s *Store) tokenExpiry(ctx context.Context) (time.Time, error) {
	data, ok, err := s.backend.Get(ctx, KeyToken)
	if err != nil {
		return time.Time{}, err
	}
	if !ok {
		return time.Time{}, ErrNoSession
	}
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return time.Time{}, fmt.Errorf("sessão: valor inválido em %s: %w", KeyToken, err)
	}
	if env.ExpiresAt == nil {
		return s.now().Add(s.ttl), nil
	}
	if !s.now().Before(*env.ExpiresAt) {
		return time.Time{}, ErrNoSession
	}
	return *env.ExpiresAt, nil
}

func (s *Store) SelectTurma(ctx context.Context, turmaID string) error {
	return s.put(ctx, KeySelectedTurma, turmaID, s.now().Add(s.ttl))
}

// SelectedTurma devolve vazio quando nenhuma turma foi escolhida.
func (s *Store) SelectedTurma(ctx context.Context) (string, error) {
	var id string
	_, err := s.get(ctx, KeySelectedTurma, &id)
	return id, err
}

// PresenceSnapshot é o último retrato de presença com o instante da busca.
type PresenceSnapshot struct {
	Presence  checkin.Presence `json:"presence"`
	FetchedAt time.Time        `json:"fetchedAt"`
}

func (s *Store) SavePresence(ctx context.Context, p checkin.Presence) (PresenceSnapshot, error) {
	snap := PresenceSnapshot{Presence: p, FetchedAt: s.now().UTC()}
	return snap, s.put(ctx, KeyPresenceSnapshot, snap, s.now().Add(s.ttl))
}

// Presence devolve o último retrato e se ele ainda está dentro da janela de validade.
func (s *Store) Presence(ctx context.Context) (PresenceSnapshot, bool, error) {
	var snap PresenceSnapshot
	ok, err := s.get(ctx, KeyPresenceSnapshot, &snap)
	if err != nil || !ok {
		return PresenceSnapshot{}, false, err
	}
	return snap, s.now().Sub(snap.FetchedAt) < s.presenceTTL, nil
}

// CachedPresence usa o retrato salvo enquanto válido e busca um novo quando vencido.
// Se a busca falhar e existir retrato antigo, ele é devolvido junto com o erro.
func (s *Store) CachedPresence(ctx context.Context, fetch func(context.Context) (checkin.Presence, error)) (PresenceSnapshot, error) {
	snap, fresh, err := s.Presence(ctx)
	if err != nil {
		return PresenceSnapshot{}, err
	}
	if fresh {
		return snap, nil
	}
	p, fetchErr := fetch(ctx)
	if fetchErr != nil {
		return snap, fetchErr
	}
	return s.SavePresence(ctx, p)
}

// SetAvatar guarda a imagem do usuário como data URL.
func (s *Store) SetAvatar(ctx context.Context, dataURL string) error {
	if dataURL != "" && !strings.HasPrefix(dataURL, "data:image/") {
		return errors.New("sessão: avatar deve ser data URL de imagem")
	}
	return s.put(ctx, KeyAvatar, dataURL, s.now().Add(s.ttl))
}

func (s *Store) Avatar(ctx context.Context) (string, error) {
	var v string
	_, err := s.get(ctx, KeyAvatar, &v)
	return v, err
}

func (s *Store) SetActiveSubscription(ctx context.Context, active bool) error {
	return s.put(ctx, KeyHasActiveSubscription, active, s.now().Add(s.ttl))
}

func (s *Store) HasActiveSubscription(ctx context.Context) (bool, error) {
	var v bool
	_, err := s.get(ctx, KeyHasActiveSubscription, &v)
	return v, err
}

// Clear remove todas as chaves; equivale ao logout.
func (s *Store) Clear(ctx context.Context) error {
	return s.backend.Delete(ctx, allKeys...)
}
