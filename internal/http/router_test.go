package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"github.com/smarterfit/smarterfit/internal/apiclient"
	"github.com/smarterfit/smarterfit/internal/auth"
	"github.com/smarterfit/smarterfit/internal/cep"
	"github.com/smarterfit/smarterfit/internal/config"
	httpmiddleware "github.com/smarterfit/smarterfit/internal/http/middleware"
	"github.com/smarterfit/smarterfit/internal/session"
)

const (
	memberID = "0b6c2f8e-5b4d-4c39-9a55-3f7d2a1e9c11"
	staffID  = "7d1e6a3c-2f4b-4e8a-9c5d-1a2b3c4d5e6f"
	turmaID  = "3f9a1c2e-8b7d-4e6f-a5c4-b3a2918f7e6d"
	planID   = "9c8b7a6f-5e4d-4c3b-8a29-18f7e6d5c4b3"
)

// quinta-feira
var testNow = time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC)

// fakeBackend imita a API da academia: login emite JWT e as demais rotas exigem Bearer.
type fakeBackend struct {
	mu             sync.Mutex
	unauthorized   bool
	noSubscription bool
	chats          []string
	bodies         map[string][]byte
}

// record guarda o corpo recebido por "MÉTODO caminho".
func (f *fakeBackend) record(r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	r.Body = io.NopCloser(bytes.NewReader(body))
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.bodies == nil {
		f.bodies = map[string][]byte{}
	}
	f.bodies[r.Method+" "+r.URL.Path] = body
}

func (f *fakeBackend) received(key string) ([]byte, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	body, ok := f.bodies[key]
	return body, ok
}

func (f *fakeBackend) decodeBody(t *testing.T, key string, dst any) {
	t.Helper()
	body, ok := f.received(key)
	if !ok {
		t.Fatalf("backend não recebeu %s", key)
	}
	if err := json.Unmarshal(body, dst); err != nil {
		t.Fatalf("corpo de %s inválido: %v (%s)", key, err, body)
	}
}

func turmaFixture() map[string]any {
	return map[string]any{
		"id":          turmaID,
		"title":       "Funcional",
		"capacity":    20,
		"modality":    "FUNCIONAL",
		"startDate":   "2026-10-01",
		"endDate":     "2026-12-31",
		"autoSession": true,
		"schedules": []map[string]any{
			{"dayOfWeek": 4, "startTime": "18:00", "endTime": "19:00"},
			{"dayOfWeek": 1, "startTime": "07:00", "endTime": "08:00"},
		},
		"members": []map[string]any{
			{"id": memberID, "email": "user@test.com"},
			{"id": staffID, "email": "staff@test.com"},
		},
	}
}

func subscriptionFixture() map[string]any {
	return map[string]any{
		"id":        "s1",
		"status":    "ATIVA",
		"startedAt": "2026-10-01T00:00:00Z",
		"plan":      map[string]any{"id": planID, "name": "Mensal", "price": 99.9, "durationDays": 30},
	}
}

func (f *fakeBackend) handler(t *testing.T) http.Handler {
	r := chi.NewRouter()
	r.Post("/auth/login", func(w http.ResponseWriter, r *http.Request) {
		var req struct{ Email, Password string }
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req.Password != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"message":"credenciais inválidas"}`))
			return
		}
		id, roles := memberID, []string{"ALUNO"}
		if strings.HasPrefix(req.Email, "staff") {
			id, roles = staffID, []string{"ADMIN"}
		}
		token := backendJWT(t, id, roles)
		writeBackendJSON(w, map[string]any{
			"token":  token,
			"userId": id,
			"user":   map[string]any{"id": id, "email": req.Email, "roles": roles},
		})
	})
	r.Post("/auth/registro", func(w http.ResponseWriter, r *http.Request) {
		f.record(r)
		w.WriteHeader(http.StatusCreated)
		writeBackendJSON(w, map[string]any{"id": memberID, "email": "nova@test.com", "roles": []string{"ALUNO"}})
	})
	r.Group(func(r chi.Router) {
		r.Use(f.requireBearer)
		r.Get("/checkin/presenca", func(w http.ResponseWriter, r *http.Request) {
			writeBackendJSON(w, map[string]any{"totalMembers": 18, "capacity": 20})
		})
		r.Get("/turma", func(w http.ResponseWriter, r *http.Request) {
			writeBackendJSON(w, map[string]any{"content": []any{}, "page": 0, "size": 20})
		})
		r.Get("/turma/{id}", func(w http.ResponseWriter, r *http.Request) {
			if chi.URLParam(r, "id") != turmaID {
				w.WriteHeader(http.StatusNotFound)
				_, _ = w.Write([]byte(`{"message":"turma não encontrada"}`))
				return
			}
			writeBackendJSON(w, turmaFixture())
		})
		r.Post("/checkin", func(w http.ResponseWriter, r *http.Request) {
			f.record(r)
			w.WriteHeader(http.StatusCreated)
			writeBackendJSON(w, map[string]any{"id": "c1", "userId": memberID, "turmaId": turmaID, "createdAt": "2026-10-15T09:00:00Z"})
		})
		r.Get("/assinaturas/usuario/{userId}/ativa", func(w http.ResponseWriter, r *http.Request) {
			f.mu.Lock()
			none := f.noSubscription
			f.mu.Unlock()
			if none || chi.URLParam(r, "userId") != memberID {
				w.WriteHeader(http.StatusNotFound)
				_, _ = w.Write([]byte(`{"message":"nenhuma assinatura ativa"}`))
				return
			}
			writeBackendJSON(w, subscriptionFixture())
		})
		r.Post("/assinaturas", func(w http.ResponseWriter, r *http.Request) {
			f.record(r)
			w.WriteHeader(http.StatusCreated)
			writeBackendJSON(w, subscriptionFixture())
		})
		r.Get("/desafio/trilhas/{id}", func(w http.ResponseWriter, r *http.Request) {
			writeBackendJSON(w, map[string]any{
				"id":        chi.URLParam(r, "id"),
				"userId":    memberID,
				"startDate": "2026-10-14",
				"days": []map[string]any{
					{"id": "d1", "dayNumber": 1, "date": "2026-10-14", "completed": true},
					{"id": "d2", "dayNumber": 2, "date": "2026-10-15", "steps": []map[string]any{
						{"id": "st1", "title": "Prancha", "completed": false},
						{"id": "st2", "title": "Alongar", "completed": true},
					}},
					{"id": "d3", "dayNumber": 3, "date": "2026-10-16"},
					{"id": "d4", "dayNumber": 4, "date": "2026-10-17"},
				},
			})
		})
		r.Patch("/desafio/passos/{id}/{action}", func(w http.ResponseWriter, r *http.Request) {
			f.record(r)
			writeBackendJSON(w, map[string]any{"id": chi.URLParam(r, "id"), "completed": chi.URLParam(r, "action") == "concluir"})
		})
		r.Post("/ia/plano-treino", func(w http.ResponseWriter, r *http.Request) {
			f.record(r)
			writeBackendJSON(w, map[string]any{
				"id":        "p1",
				"userId":    memberID,
				"name":      "Força 3x",
				"goal":      "FORCA",
				"exercises": []map[string]any{{"name": "Supino", "sets": 4, "reps": 8, "restSeconds": 90}},
			})
		})
		r.Post("/pagamentos", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusCreated)
			writeBackendJSON(w, map[string]any{"id": "p1", "amount": 99.9, "method": "PIX", "status": "PAGO"})
		})
		r.Get("/grupos-treino/{id}/ranking", func(w http.ResponseWriter, r *http.Request) {
			writeBackendJSON(w, []map[string]any{
				{"userId": "a", "name": "Ana", "points": 50},
				{"userId": "b", "name": "Bruno", "points": 100},
				{"userId": "c", "name": "Carla", "points": 50},
			})
		})
		r.Post("/ia/chat", func(w http.ResponseWriter, r *http.Request) {
			var req struct {
				UserID  string `json:"userId"`
				Message string `json:"message"`
			}
			_ = json.NewDecoder(r.Body).Decode(&req)
			f.mu.Lock()
			f.chats = append(f.chats, req.UserID+":"+req.Message)
			f.mu.Unlock()
			w.Header().Set("Content-Type", "text/event-stream")
			fmt.Fprint(w, "data: Bom treino\n\ndata: {\"delta\":\", Ana!\"}\n\ndata: Série A:\ndata: - agachamento\n\ndata: [DONE]\n\n")
		})
	})
	r.Get("/ws/{cep}/json/", func(w http.ResponseWriter, r *http.Request) {
		if chi.URLParam(r, "cep") != "01001000" {
			writeBackendJSON(w, map[string]any{"erro": true})
			return
		}
		writeBackendJSON(w, map[string]any{"cep": "01001-000", "logradouro": "Praça da Sé", "bairro": "Sé", "localidade": "São Paulo", "uf": "SP"})
	})
	return r
}

func (f *fakeBackend) requireBearer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		expired := f.unauthorized
		f.mu.Unlock()
		if expired || !strings.HasPrefix(r.Header.Get("Authorization"), "Bearer ") {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"message":"token expirado"}`))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func backendJWT(t *testing.T, userID string, roles []string) string {
	t.Helper()
	claims := auth.Claims{
		Roles: roles,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("chave-do-backend"))
	if err != nil {
		t.Fatal(err)
	}
	return token
}

func writeBackendJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

type testEnv struct {
	router   http.Handler
	backend  *fakeBackend
	signer   *auth.SessionSigner
	mu       sync.Mutex
	sessions map[string]*session.MemoryBackend
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{
		backend:  &fakeBackend{},
		signer:   auth.NewSessionSigner(strings.Repeat("s", 32), time.Hour),
		sessions: map[string]*session.MemoryBackend{},
	}
	srv := httptest.NewServer(env.backend.handler(t))
	t.Cleanup(srv.Close)

	cfg := &config.Config{
		SessionTTL:      time.Hour,
		PresenceTTL:     5 * time.Minute,
		AllowOrigins:    []string{"http://localhost:5173"},
		RateLimitPublic: config.RateLimitConfig{RequestsPerSecond: 1000, Burst: 1000},
		RateLimitAuth:   config.RateLimitConfig{RequestsPerSecond: 1000, Burst: 1000},
	}
	api, err := apiclient.New(apiclient.Config{BaseURL: srv.URL, Timeout: 5 * time.Second})
	if err != nil {
		t.Fatal(err)
	}

	router, err := NewRouter(Deps{
		Config:   cfg,
		API:      api,
		Sessions: env.sessionBackend,
		Signer:   env.signer,
		CEP:      cep.New(cep.Config{BaseURL: srv.URL}),
		Logger:   zerolog.Nop(),
		Now:      func() time.Time { return testNow },
	})
	if err != nil {
		t.Fatal(err)
	}
	env.router = router
	return env
}

func (e *testEnv) sessionBackend(id string) session.Backend {
	e.mu.Lock()
	defer e.mu.Unlock()
	b, ok := e.sessions[id]
	if !ok {
		b = session.NewMemoryBackend()
		e.sessions[id] = b
	}
	return b
}

// store abre a sessão do cookie para conferir o que os handlers gravaram.
func (e *testEnv) store(t *testing.T, cookie *http.Cookie) *session.Store {
	t.Helper()
	id, err := e.signer.Verify(cookie.Value)
	if err != nil {
		t.Fatalf("cookie inválido: %v", err)
	}
	return session.NewStore(e.sessionBackend(id), session.Options{TTL: time.Hour})
}

func (e *testEnv) do(t *testing.T, method, path string, body any, cookie *http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, _ := json.Marshal(body)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) login(t *testing.T, email string) *http.Cookie {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/auth/login", map[string]string{"email": email, "password": "secret"}, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("login: %d %s", rec.Code, rec.Body.String())
	}
	for _, c := range rec.Result().Cookies() {
		if c.Name == httpmiddleware.SessionCookie {
			if !c.HttpOnly {
				t.Fatal("cookie de sessão sem HttpOnly")
			}
			return c
		}
	}
	t.Fatal("cookie de sessão ausente")
	return nil
}

func decodeData(t *testing.T, rec *httptest.ResponseRecorder, dst any) {
	t.Helper()
	var env struct {
		Data  json.RawMessage `json:"data"`
		Error *ErrorBody      `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("envelope inválido: %v (%s)", err, rec.Body.String())
	}
	if dst != nil {
		if err := json.Unmarshal(env.Data, dst); err != nil {
			t.Fatalf("data inválido: %v", err)
		}
	}
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var env ErrorEnvelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil || env.Error == nil {
		t.Fatalf("envelope de erro inválido: %s", rec.Body.String())
	}
	return env.Error.Code
}

func TestLoginAndMe(t *testing.T) {
	env := newTestEnv(t)

	if rec := env.do(t, http.MethodGet, "/me", nil, nil); rec.Code != http.StatusUnauthorized {
		t.Fatalf("sem sessão: esperava 401, recebeu %d", rec.Code)
	}

	cookie := env.login(t, "user@test.com")
	rec := env.do(t, http.MethodGet, "/me", nil, cookie)
	if rec.Code != http.StatusOK {
		t.Fatalf("me: %d %s", rec.Code, rec.Body.String())
	}
	var user struct {
		ID    string   `json:"id"`
		Email string   `json:"email"`
		Roles []string `json:"roles"`
	}
	decodeData(t, rec, &user)
	if user.ID != memberID || user.Email != "user@test.com" {
		t.Fatalf("usuário inesperado: %+v", user)
	}

	if rec := env.do(t, http.MethodPost, "/auth/logout", nil, cookie); rec.Code != http.StatusNoContent {
		t.Fatalf("logout: %d", rec.Code)
	}
	if rec := env.do(t, http.MethodGet, "/me", nil, cookie); rec.Code != http.StatusUnauthorized {
		t.Fatalf("após logout: esperava 401, recebeu %d", rec.Code)
	}
}

func TestLoginErrors(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/auth/login", map[string]string{"email": "nao-e-email", "password": "x"}, nil)
	if rec.Code != http.StatusBadRequest || errorCode(t, rec) != "VALIDATION" {
		t.Fatalf("email inválido: %d %s", rec.Code, rec.Body.String())
	}

	rec = env.do(t, http.MethodPost, "/auth/login", map[string]string{"email": "user@test.com", "password": "errada"}, nil)
	if rec.Code != http.StatusUnauthorized || errorCode(t, rec) != "AUTH" {
		t.Fatalf("senha errada: %d %s", rec.Code, rec.Body.String())
	}
}

func TestPresenceOccupancy(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.login(t, "user@test.com")

	rec := env.do(t, http.MethodGet, "/presenca", nil, cookie)
	if rec.Code != http.StatusOK {
		t.Fatalf("presença: %d %s", rec.Code, rec.Body.String())
	}
	var view struct {
		TotalMembers int `json:"totalMembers"`
		Occupancy    struct {
			Percent int    `json:"percent"`
			Band    string `json:"band"`
		} `json:"occupancy"`
		Stale bool `json:"stale"`
	}
	decodeData(t, rec, &view)
	if view.Occupancy.Percent != 90 || view.Occupancy.Band != "yellow" || view.Stale {
		t.Fatalf("ocupação inesperada: %+v", view)
	}
}

func TestBackendUnauthorizedClearsSession(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.login(t, "user@test.com")

	env.backend.mu.Lock()
	env.backend.unauthorized = true
	env.backend.mu.Unlock()

	rec := env.do(t, http.MethodGet, "/turmas", nil, cookie)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("esperava 401, recebeu %d %s", rec.Code, rec.Body.String())
	}

	env.backend.mu.Lock()
	env.backend.unauthorized = false
	env.backend.mu.Unlock()

	if rec := env.do(t, http.MethodGet, "/me", nil, cookie); rec.Code != http.StatusUnauthorized {
		t.Fatalf("sessão não foi limpa: %d", rec.Code)
	}
}

func TestPaymentsRequireStaff(t *testing.T) {
	env := newTestEnv(t)
	payment := map[string]any{
		"subscriptionId": turmaID,
		"amount":         99.9,
		"method":         "PIX",
		"expiresAt":      "2026-11-01",
	}

	member := env.login(t, "user@test.com")
	rec := env.do(t, http.MethodPost, "/pagamentos", payment, member)
	if rec.Code != http.StatusForbidden || errorCode(t, rec) != "FORBIDDEN" {
		t.Fatalf("aluno: %d %s", rec.Code, rec.Body.String())
	}

	staff := env.login(t, "staff@test.com")
	rec = env.do(t, http.MethodPost, "/pagamentos", payment, staff)
	if rec.Code != http.StatusCreated {
		t.Fatalf("equipe: %d %s", rec.Code, rec.Body.String())
	}
}

func TestPodium(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.login(t, "user@test.com")

	rec := env.do(t, http.MethodGet, "/grupos/g1/podio", nil, cookie)
	if rec.Code != http.StatusOK {
		t.Fatalf("pódio: %d %s", rec.Code, rec.Body.String())
	}
	var slots []podiumSlot
	decodeData(t, rec, &slots)
	if len(slots) != 3 || slots[0].Member == nil || slots[0].Member.Name != "Bruno" {
		t.Fatalf("pódio inesperado: %+v", slots)
	}
	if slots[2].Member == nil || slots[2].Member.Name != "Carla" {
		t.Fatalf("empate em pontos deveria ordenar por nome: %+v", slots[2])
	}
	if slots[0].Height != 100 || slots[1].Height != 50 || slots[2].Height != 50 {
		t.Fatalf("barras inesperadas: %+v", slots)
	}
	if slots[1].Label != "2º" {
		t.Fatalf("rótulo %q", slots[1].Label)
	}
}

func TestChatStreamsSSE(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.login(t, "user@test.com")

	rec := env.do(t, http.MethodPost, "/ia/chat", map[string]string{"message": " Oi "}, cookie)
	if rec.Code != http.StatusOK {
		t.Fatalf("chat: %d %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("content-type %q", ct)
	}
	want := "data: Bom treino\n\ndata: , Ana!\n\ndata: Série A:\ndata: - agachamento\n\ndata: [DONE]\n\n"
	if rec.Body.String() != want {
		t.Fatalf("corpo SSE %q", rec.Body.String())
	}
	env.backend.mu.Lock()
	chats := env.backend.chats
	env.backend.mu.Unlock()
	if len(chats) != 1 || chats[0] != memberID+":Oi" {
		t.Fatalf("mensagem enviada ao backend: %v", chats)
	}

	rec = env.do(t, http.MethodPost, "/ia/chat", map[string]string{"message": ""}, cookie)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("mensagem vazia: %d", rec.Code)
	}
}

func TestLookupCEP(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/cep/01001-000", nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("cep: %d %s", rec.Code, rec.Body.String())
	}
	var addr cep.Address
	decodeData(t, rec, &addr)
	if addr.City != "São Paulo" || addr.State != "SP" {
		t.Fatalf("endereço %+v", addr)
	}

	if rec := env.do(t, http.MethodGet, "/cep/123", nil, nil); rec.Code != http.StatusBadRequest {
		t.Fatalf("cep inválido: %d", rec.Code)
	}
	if rec := env.do(t, http.MethodGet, "/cep/99999999", nil, nil); rec.Code != http.StatusNotFound {
		t.Fatalf("cep inexistente: %d", rec.Code)
	}
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)
	for _, path := range []string{"/health", "/ready"} {
		if rec := env.do(t, http.MethodGet, path, nil, nil); rec.Code != http.StatusOK {
			t.Fatalf("%s: %d", path, rec.Code)
		}
	}
}

func TestTurmaDetailAndSelection(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.login(t, "user@test.com")

	type view struct {
		ID          string `json:"id"`
		Vacancies   int    `json:"vacancies"`
		Selected    bool   `json:"selected"`
		NextSession *struct {
			Date      string `json:"date"`
			StartTime string `json:"startTime"`
		} `json:"nextSession"`
	}

	rec := env.do(t, http.MethodGet, "/turmas/"+turmaID, nil, cookie)
	if rec.Code != http.StatusOK {
		t.Fatalf("turma: %d %s", rec.Code, rec.Body.String())
	}
	var before view
	decodeData(t, rec, &before)
	if before.Vacancies != 18 || before.Selected {
		t.Fatalf("turma inesperada: %+v", before)
	}
	if before.NextSession == nil || before.NextSession.Date != "2026-10-15" || before.NextSession.StartTime != "18:00" {
		t.Fatalf("próxima aula inesperada: %+v", before.NextSession)
	}

	tests := []struct {
		name   string
		body   any
		status int
		code   string
	}{
		{name: "id inválido", body: map[string]string{"turmaId": "abc"}, status: http.StatusBadRequest, code: "VALIDATION"},
		{name: "turma inexistente", body: map[string]string{"turmaId": planID}, status: http.StatusNotFound, code: "NOT_FOUND"},
		{name: "selecionada", body: map[string]string{"turmaId": turmaID}, status: http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(t, http.MethodPut, "/turmas/selecionada", tt.body, cookie)
			if rec.Code != tt.status {
				t.Fatalf("esperava %d, recebeu %d %s", tt.status, rec.Code, rec.Body.String())
			}
			if tt.code != "" && errorCode(t, rec) != tt.code {
				t.Fatalf("código %s", errorCode(t, rec))
			}
		})
	}

	if selected, err := env.store(t, cookie).SelectedTurma(context.Background()); err != nil || selected != turmaID {
		t.Fatalf("turma selecionada na sessão: %q %v", selected, err)
	}
	var after view
	decodeData(t, env.do(t, http.MethodGet, "/turmas/"+turmaID, nil, cookie), &after)
	if !after.Selected {
		t.Fatal("turma não aparece como selecionada")
	}
}

func TestTurmaPreview(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.login(t, "user@test.com")

	tests := []struct {
		name        string
		query       string
		count       int
		first, last string
	}{
		{name: "padrão de 14 dias", query: "", count: 5, first: "2026-10-15", last: "2026-10-29"},
		{name: "intervalo informado", query: "?de=2026-10-19&ate=2026-10-22", count: 2, first: "2026-10-19", last: "2026-10-22"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(t, http.MethodGet, "/turmas/"+turmaID+"/previa"+tt.query, nil, cookie)
			if rec.Code != http.StatusOK {
				t.Fatalf("prévia: %d %s", rec.Code, rec.Body.String())
			}
			var sessions []struct {
				Date   string `json:"date"`
				Status string `json:"status"`
			}
			decodeData(t, rec, &sessions)
			if len(sessions) != tt.count {
				t.Fatalf("esperava %d aulas, recebeu %+v", tt.count, sessions)
			}
			if sessions[0].Date != tt.first || sessions[len(sessions)-1].Date != tt.last || sessions[0].Status != "AGENDADA" {
				t.Fatalf("aulas inesperadas: %+v", sessions)
			}
		})
	}

	rec := env.do(t, http.MethodGet, "/turmas/"+turmaID+"/previa?de=2026-10-22&ate=2026-10-19", nil, cookie)
	if rec.Code != http.StatusBadRequest || errorCode(t, rec) != "VALIDATION" {
		t.Fatalf("intervalo invertido: %d %s", rec.Code, rec.Body.String())
	}
}

func TestCheckInFallsBackToSelectedTurma(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.login(t, "user@test.com")

	if rec := env.do(t, http.MethodPut, "/turmas/selecionada", map[string]string{"turmaId": turmaID}, cookie); rec.Code != http.StatusOK {
		t.Fatalf("selecionar: %d %s", rec.Code, rec.Body.String())
	}

	type sent struct {
		UserID    string `json:"userId"`
		TurmaID   string `json:"turmaId"`
		SessionID string `json:"sessionId"`
	}
	tests := []struct {
		name string
		body any
		want sent
	}{
		{name: "sem corpo usa a selecionada", body: nil, want: sent{UserID: memberID, TurmaID: turmaID}},
		{name: "turma e aula explícitas", body: map[string]string{"turmaId": planID, "sessionId": staffID}, want: sent{UserID: memberID, TurmaID: planID, SessionID: staffID}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(t, http.MethodPost, "/checkin", tt.body, cookie)
			if rec.Code != http.StatusCreated {
				t.Fatalf("check-in: %d %s", rec.Code, rec.Body.String())
			}
			var got sent
			env.backend.decodeBody(t, "POST /checkin", &got)
			if got != tt.want {
				t.Fatalf("backend recebeu %+v, esperava %+v", got, tt.want)
			}
		})
	}

	rec := env.do(t, http.MethodPost, "/checkin", map[string]string{"sessionId": "x"}, cookie)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("aula inválida: %d", rec.Code)
	}
}

func TestActiveSubscription(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.login(t, "user@test.com")
	ctx := context.Background()

	rec := env.do(t, http.MethodGet, "/assinatura/ativa", nil, cookie)
	if rec.Code != http.StatusOK {
		t.Fatalf("assinatura: %d %s", rec.Code, rec.Body.String())
	}
	var sub *struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	decodeData(t, rec, &sub)
	if sub == nil || sub.ID != "s1" {
		t.Fatalf("assinatura inesperada: %+v", sub)
	}
	if active, err := env.store(t, cookie).HasActiveSubscription(ctx); err != nil || !active {
		t.Fatalf("marca de assinatura: %v %v", active, err)
	}

	env.backend.mu.Lock()
	env.backend.noSubscription = true
	env.backend.mu.Unlock()

	rec = env.do(t, http.MethodGet, "/assinatura/ativa", nil, cookie)
	if rec.Code != http.StatusOK {
		t.Fatalf("sem assinatura: %d %s", rec.Code, rec.Body.String())
	}
	sub = nil
	decodeData(t, rec, &sub)
	if sub != nil {
		t.Fatalf("esperava null, recebeu %+v", sub)
	}
	if active, err := env.store(t, cookie).HasActiveSubscription(ctx); err != nil || active {
		t.Fatalf("marca de assinatura deveria ser false: %v %v", active, err)
	}
}

func TestSubscribe(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.login(t, "user@test.com")

	type sent struct {
		UserID    string `json:"userId"`
		PlanID    string `json:"planId"`
		StartDate string `json:"startDate"`
	}
	tests := []struct {
		name string
		body map[string]string
		want sent
	}{
		{name: "começa hoje", body: map[string]string{"planId": planID}, want: sent{UserID: memberID, PlanID: planID, StartDate: "2026-10-15"}},
		{name: "data informada", body: map[string]string{"planId": planID, "startDate": "2026-11-01"}, want: sent{UserID: memberID, PlanID: planID, StartDate: "2026-11-01"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(t, http.MethodPost, "/assinaturas", tt.body, cookie)
			if rec.Code != http.StatusCreated {
				t.Fatalf("assinar: %d %s", rec.Code, rec.Body.String())
			}
			var got sent
			env.backend.decodeBody(t, "POST /assinaturas", &got)
			if got != tt.want {
				t.Fatalf("backend recebeu %+v, esperava %+v", got, tt.want)
			}
		})
	}

	if active, err := env.store(t, cookie).HasActiveSubscription(context.Background()); err != nil || !active {
		t.Fatalf("marca de assinatura: %v %v", active, err)
	}
	if rec := env.do(t, http.MethodPost, "/assinaturas", map[string]string{}, cookie); rec.Code != http.StatusBadRequest {
		t.Fatalf("sem plano: %d", rec.Code)
	}
}

func TestChallengeTrailAndSteps(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.login(t, "user@test.com")

	rec := env.do(t, http.MethodGet, "/desafios/trilhas/tr1", nil, cookie)
	if rec.Code != http.StatusOK {
		t.Fatalf("trilha: %d %s", rec.Code, rec.Body.String())
	}
	var trail struct {
		ID       string  `json:"id"`
		Progress float64 `json:"progress"`
		Today    *struct {
			ID        string `json:"id"`
			DayNumber int    `json:"dayNumber"`
		} `json:"today"`
	}
	decodeData(t, rec, &trail)
	if trail.ID != "tr1" || trail.Progress != 0.25 {
		t.Fatalf("trilha inesperada: %+v", trail)
	}
	if trail.Today == nil || trail.Today.ID != "d2" || trail.Today.DayNumber != 2 {
		t.Fatalf("dia corrente inesperado: %+v", trail.Today)
	}

	tests := []struct {
		name      string
		body      any
		status    int
		route     string
		completed bool
	}{
		{name: "concluir", body: map[string]any{"completed": true}, status: http.StatusOK, route: "PATCH /desafio/passos/st1/concluir", completed: true},
		{name: "reabrir", body: map[string]any{"completed": false}, status: http.StatusOK, route: "PATCH /desafio/passos/st1/reabrir"},
		{name: "sem estado", body: map[string]any{}, status: http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(t, http.MethodPatch, "/desafios/passos/st1", tt.body, cookie)
			if rec.Code != tt.status {
				t.Fatalf("esperava %d, recebeu %d %s", tt.status, rec.Code, rec.Body.String())
			}
			if tt.route == "" {
				return
			}
			if _, ok := env.backend.received(tt.route); !ok {
				t.Fatalf("backend não recebeu %s", tt.route)
			}
			var step struct {
				ID        string `json:"id"`
				Completed bool   `json:"completed"`
			}
			decodeData(t, rec, &step)
			if step.ID != "st1" || step.Completed != tt.completed {
				t.Fatalf("passo inesperado: %+v", step)
			}
		})
	}
}

func TestWorkoutPlan(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.login(t, "user@test.com")

	rec := env.do(t, http.MethodPost, "/ia/plano-treino", map[string]any{"goal": "FORCA", "level": "INICIANTE", "daysPerWeek": 9}, cookie)
	if rec.Code != http.StatusBadRequest || errorCode(t, rec) != "VALIDATION" {
		t.Fatalf("9 dias por semana: %d %s", rec.Code, rec.Body.String())
	}
	if _, ok := env.backend.received("POST /ia/plano-treino"); ok {
		t.Fatal("payload inválido chegou ao backend")
	}

	rec = env.do(t, http.MethodPost, "/ia/plano-treino", map[string]any{"goal": "FORCA", "level": "INICIANTE", "daysPerWeek": 3, "restrictions": " joelho "}, cookie)
	if rec.Code != http.StatusOK {
		t.Fatalf("plano: %d %s", rec.Code, rec.Body.String())
	}
	var plan struct {
		Name      string `json:"name"`
		Exercises []any  `json:"exercises"`
	}
	decodeData(t, rec, &plan)
	if plan.Name != "Força 3x" || len(plan.Exercises) != 1 {
		t.Fatalf("plano inesperado: %+v", plan)
	}
	var sent struct {
		UserID       string `json:"userId"`
		DaysPerWeek  int    `json:"daysPerWeek"`
		Restrictions string `json:"restrictions"`
	}
	env.backend.decodeBody(t, "POST /ia/plano-treino", &sent)
	if sent.UserID != memberID || sent.DaysPerWeek != 3 || sent.Restrictions != "joelho" {
		t.Fatalf("backend recebeu %+v", sent)
	}
}

func TestRegister(t *testing.T) {
	env := newTestEnv(t)
	payload := func(confirm string) map[string]any {
		return map[string]any{
			"email":           "nova@test.com",
			"password":        "segredo123",
			"confirmPassword": confirm,
			"profile": map[string]any{
				"fullName":  "Nova Aluna",
				"cpf":       "529.982.247-25",
				"phone":     "(11) 98765-4321",
				"birthDate": "1990-05-20",
				"gender":    "FEMININO",
				"address": map[string]any{
					"cep":          "01001-000",
					"street":       "Praça da Sé",
					"number":       "100",
					"neighborhood": "Sé",
					"city":         "São Paulo",
					"state":        "SP",
				},
			},
		}
	}

	rec := env.do(t, http.MethodPost, "/auth/registro", payload("outra-senha"), nil)
	if rec.Code != http.StatusBadRequest || errorCode(t, rec) != "VALIDATION" {
		t.Fatalf("confirmação divergente: %d %s", rec.Code, rec.Body.String())
	}
	if _, ok := env.backend.received("POST /auth/registro"); ok {
		t.Fatal("cadastro inválido chegou ao backend")
	}

	rec = env.do(t, http.MethodPost, "/auth/registro", payload("segredo123"), nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("cadastro: %d %s", rec.Code, rec.Body.String())
	}
	var sent struct {
		Password        string  `json:"password"`
		ConfirmPassword *string `json:"confirmPassword"`
		Profile         struct {
			CPF     string `json:"cpf"`
			Phone   string `json:"phone"`
			Address struct {
				CEP string `json:"cep"`
			} `json:"address"`
		} `json:"profile"`
	}
	env.backend.decodeBody(t, "POST /auth/registro", &sent)
	if sent.ConfirmPassword != nil {
		t.Fatal("confirmação de senha enviada ao backend")
	}
	if sent.Password != "segredo123" || sent.Profile.CPF != "52998224725" || sent.Profile.Phone != "11987654321" || sent.Profile.Address.CEP != "01001000" {
		t.Fatalf("backend recebeu %+v", sent)
	}
}

func TestRanking(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.login(t, "user@test.com")

	rec := env.do(t, http.MethodGet, "/grupos/g1/ranking", nil, cookie)
	if rec.Code != http.StatusOK {
		t.Fatalf("ranking: %d %s", rec.Code, rec.Body.String())
	}
	var ranked []struct {
		Name     string `json:"name"`
		Position int    `json:"position"`
		Label    string `json:"label"`
	}
	decodeData(t, rec, &ranked)
	want := []struct {
		name     string
		position int
		label    string
	}{{"Bruno", 1, "1º"}, {"Ana", 2, "2º"}, {"Carla", 2, "2º"}}
	if len(ranked) != len(want) {
		t.Fatalf("ranking inesperado: %+v", ranked)
	}
	for i, w := range want {
		if ranked[i].Name != w.name || ranked[i].Position != w.position || ranked[i].Label != w.label {
			t.Fatalf("posição %d: %+v", i, ranked[i])
		}
	}
}
