package session

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/smarterfit/smarterfit/internal/checkin"
	"github.com/smarterfit/smarterfit/internal/useraccess"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time          { return c.t }
func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestStore(b Backend, c *clock) *Store {
	s := NewStore(b, Options{TTL: 12 * time.Hour, PresenceTTL: 5 * time.Minute})
	s.now = c.now
	if m, ok := b.(*MemoryBackend); ok {
		m.now = c.now
	}
	return s
}

func signedToken(t *testing.T, subject string, exp time.Time) string {
	t.Helper()
	claims := jwt.RegisteredClaims{Subject: subject, ExpiresAt: jwt.NewNumericDate(exp)}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("backend"))
	if err != nil {
		t.Fatal(err)
	}
	return token
}

func backends(t *testing.T) map[string]Backend {
	return map[string]Backend{
		"memory": NewMemoryBackend(),
		"file":   NewFileBackend(filepath.Join(t.TempDir(), "sessao.json")),
	}
}

func TestStoreLifecycle(t *testing.T) {
	for name, b := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			c := &clock{t: time.Date(2026, 10, 15, 8, 0, 0, 0, time.UTC)}
			s := newTestStore(b, c)

			if token, err := s.Token(ctx); err != nil || token != "" {
				t.Fatalf("sessão vazia: %q %v", token, err)
			}
			if _, err := s.UserID(ctx); !errors.Is(err, ErrNoSession) {
				t.Fatalf("esperava ErrNoSession, recebeu %v", err)
			}

			token := signedToken(t, "u1", c.t.Add(time.Hour))
			user := &useraccess.User{ID: "u1", Email: "user@test.com", Roles: []string{"ALUNO"}}
			if err := s.Login(ctx, token, user); err != nil {
				t.Fatalf("login: %v", err)
			}
			if got, _ := s.Token(ctx); got != token {
				t.Fatal("token não persistido")
			}
			if id, err := s.UserID(ctx); err != nil || id != "u1" {
				t.Fatalf("userId: %q %v", id, err)
			}
			if u, err := s.User(ctx); err != nil || u.Email != "user@test.com" {
				t.Fatalf("user: %+v %v", u, err)
			}

			if err := s.SelectTurma(ctx, "t1"); err != nil {
				t.Fatal(err)
			}
			if err := s.SetActiveSubscription(ctx, true); err != nil {
				t.Fatal(err)
			}
			if err := s.SetAvatar(ctx, "data:image/png;base64,AAAA"); err != nil {
				t.Fatal(err)
			}
			if err := s.SetAvatar(ctx, "https://example.com/a.png"); err == nil {
				t.Fatal("avatar fora de data URL aceito")
			}

			// o token expira antes do TTL da sessão
			c.advance(61 * time.Minute)
			if got, _ := s.Token(ctx); got != "" {
				t.Fatal("token expirado ainda visível")
			}
			if turma, _ := s.SelectedTurma(ctx); turma != "t1" {
				t.Fatalf("turma selecionada perdida: %q", turma)
			}

			if err := s.Clear(ctx); err != nil {
				t.Fatal(err)
			}
			if turma, _ := s.SelectedTurma(ctx); turma != "" {
				t.Fatal("Clear não removeu a turma")
			}
			if active, _ := s.HasActiveSubscription(ctx); active {
				t.Fatal("Clear não removeu a assinatura")
			}
			if avatar, _ := s.Avatar(ctx); avatar != "" {
				t.Fatal("Clear não removeu o avatar")
			}
		})
	}
}

func TestLoginRejectsExpiredToken(t *testing.T) {
	c := &clock{t: time.Date(2026, 10, 15, 8, 0, 0, 0, time.UTC)}
	s := newTestStore(NewMemoryBackend(), c)
	err := s.Login(context.Background(), signedToken(t, "u1", c.t.Add(-time.Second)), nil)
	if !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("esperava ErrTokenExpired, recebeu %v", err)
	}
}

func TestLoginOpaqueTokenUsesTTL(t *testing.T) {
	ctx := context.Background()
	c := &clock{t: time.Date(2026, 10, 15, 8, 0, 0, 0, time.UTC)}
	s := newTestStore(NewMemoryBackend(), c)
	if err := s.Login(ctx, "opaco", &useraccess.User{ID: "u9"}); err != nil {
		t.Fatal(err)
	}
	c.advance(11 * time.Hour)
	if got, _ := s.Token(ctx); got != "opaco" {
		t.Fatal("token opaco expirou cedo")
	}
	c.advance(2 * time.Hour)
	if got, _ := s.Token(ctx); got != "" {
		t.Fatal("token opaco além do TTL")
	}
}

func TestPresenceStaleness(t *testing.T) {
	ctx := context.Background()
	c := &clock{t: time.Date(2026, 10, 15, 8, 0, 0, 0, time.UTC)}
	s := newTestStore(NewMemoryBackend(), c)

	calls := 0
	fetch := func(context.Context) (checkin.Presence, error) {
		calls++
		return checkin.Presence{TotalMembers: 10 + calls, Capacity: 20}, nil
	}

	snap, err := s.CachedPresence(ctx, fetch)
	if err != nil || snap.Presence.TotalMembers != 11 {
		t.Fatalf("primeira busca: %+v %v", snap, err)
	}
	c.advance(4*time.Minute + 59*time.Second)
	snap, _ = s.CachedPresence(ctx, fetch)
	if calls != 1 || snap.Presence.TotalMembers != 11 {
		t.Fatalf("retrato válido rebuscado: calls=%d", calls)
	}

	c.advance(time.Second)
	if _, fresh, _ := s.Presence(ctx); fresh {
		t.Fatal("retrato com 5 minutos ainda válido")
	}
	snap, _ = s.CachedPresence(ctx, fetch)
	if calls != 2 || snap.Presence.TotalMembers != 12 {
		t.Fatalf("retrato vencido não rebuscado: calls=%d", calls)
	}

	c.advance(10 * time.Minute)
	boom := errors.New("fora do ar")
	snap, err = s.CachedPresence(ctx, func(context.Context) (checkin.Presence, error) { return checkin.Presence{}, boom })
	if !errors.Is(err, boom) || snap.Presence.TotalMembers != 12 {
		t.Fatalf("falha deveria devolver retrato antigo: %+v %v", snap, err)
	}
}

func TestFileBackendPersistsAcrossInstances(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "sessao.json")
	c := &clock{t: time.Date(2026, 10, 15, 8, 0, 0, 0, time.UTC)}

	if err := newTestStore(NewFileBackend(path), c).SelectTurma(ctx, "t42"); err != nil {
		t.Fatal(err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Fatalf("permissão %v", info.Mode().Perm())
	}
	if got, _ := newTestStore(NewFileBackend(path), c).SelectedTurma(ctx); got != "t42" {
		t.Fatalf("turma não recuperada: %q", got)
	}
}

func TestFileBackendCorrupted(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sessao.json")
	if err := os.WriteFile(path, []byte("{quebrado"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, _, err := NewFileBackend(path).Get(context.Background(), KeyToken); err == nil {
		t.Fatal("arquivo corrompido aceito")
	}
}

func TestRedisBackend(t *testing.T) {
	url := os.Getenv("REDIS_URL")
	if url == "" {
		t.Skip("REDIS_URL não definido")
	}
	opts, err := redis.ParseURL(url)
	if err != nil {
		t.Fatal(err)
	}
	client := redis.NewClient(opts)
	defer client.Close()

	ctx := context.Background()
	s := NewStore(NewRedisBackend(client, uuid.NewString()), Options{})
	defer s.Clear(ctx)

	if err := s.Login(ctx, "opaco", &useraccess.User{ID: "u1"}); err != nil {
		t.Fatal(err)
	}
	if id, err := s.UserID(ctx); err != nil || id != "u1" {
		t.Fatalf("userId: %q %v", id, err)
	}
	if err := s.Clear(ctx); err != nil {
		t.Fatal(err)
	}
	if got, _ := s.Token(ctx); got != "" {
		t.Fatal("token após Clear")
	}
}
