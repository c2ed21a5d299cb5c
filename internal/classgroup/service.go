package classgroup

import (
	"context"
	"net/http"
	"net/url"

	"github.com/smarterfit/smarterfit/internal/apiclient"
)

// Service traduz operações de turmas, horários e aulas.
type Service struct {
	api apiclient.Requester
}

func NewService(api apiclient.Requester) *Service {
	return &Service{api: api}
}

func (s *Service) Search(ctx context.Context, f TurmaFilter) (apiclient.Page[Turma], error) {
	return apiclient.Call[apiclient.Page[Turma]](ctx, s.api, apiclient.Request{Method: http.MethodGet, Path: "/turma", Params: f.params()})
}

func (s *Service) Get(ctx context.Context, turmaID string) (Turma, error) {
	return apiclient.Call[Turma](ctx, s.api, apiclient.Request{Method: http.MethodGet, Path: turmaPath(turmaID)})
}

func (s *Service) Create(ctx context.Context, req TurmaRequest) (Turma, error) {
	return apiclient.Call[Turma](ctx, s.api, apiclient.Request{Method: http.MethodPost, Path: "/turma", Data: req})
}

func (s *Service) Update(ctx context.Context, turmaID string, req TurmaRequest) (Turma, error) {
	return apiclient.Call[Turma](ctx, s.api, apiclient.Request{Method: http.MethodPut, Path: turmaPath(turmaID), Data: req})
}

func (s *Service) Delete(ctx context.Context, turmaID string) error {
	return s.api.Do(ctx, apiclient.Request{Method: http.MethodDelete, Path: turmaPath(turmaID)}, nil)
}

func (s *Service) AddSchedule(ctx context.Context, turmaID string, req ScheduleRequest) (Schedule, error) {
	return apiclient.Call[Schedule](ctx, s.api, apiclient.Request{Method: http.MethodPost, Path: turmaPath(turmaID) + "/horarios", Data: req})
}

func (s *Service) RemoveSchedule(ctx context.Context, turmaID, scheduleID string) error {
	return s.api.Do(ctx, apiclient.Request{Method: http.MethodDelete, Path: turmaPath(turmaID) + "/horarios/" + url.PathEscape(scheduleID)}, nil)
}

func (s *Service) Sessions(ctx context.Context, turmaID string, r SessionRange) ([]Session, error) {
	return apiclient.Call[[]Session](ctx, s.api, apiclient.Request{Method: http.MethodGet, Path: turmaPath(turmaID) + "/aulas", Params: r.params()})
}

func (s *Service) CreateSession(ctx context.Context, turmaID string, req SessionRequest) (Session, error) {
	return apiclient.Call[Session](ctx, s.api, apiclient.Request{Method: http.MethodPost, Path: turmaPath(turmaID) + "/aulas", Data: req})
}

func (s *Service) UpdateSessionStatus(ctx context.Context, sessionID string, req SessionStatusRequest) (Session, error) {
	return apiclient.Call[Session](ctx, s.api, apiclient.Request{Method: http.MethodPatch, Path: "/turma/aulas/" + url.PathEscape(sessionID) + "/status", Data: req})
}

func (s *Service) AddMember(ctx context.Context, turmaID, userID string) error {
	return s.api.Do(ctx, apiclient.Request{Method: http.MethodPost, Path: turmaPath(turmaID) + "/membros/" + url.PathEscape(userID)}, nil)
}

func (s *Service) RemoveMember(ctx context.Context, turmaID, userID string) error {
	return s.api.Do(ctx, apiclient.Request{Method: http.MethodDelete, Path: turmaPath(turmaID) + "/membros/" + url.PathEscape(userID)}, nil)
}

func (s *Service) ByUser(ctx context.Context, userID string) ([]Turma, error) {
	return apiclient.Call[[]Turma](ctx, s.api, apiclient.Request{Method: http.MethodGet, Path: "/turma/usuario/" + url.PathEscape(userID)})
}

func turmaPath(id string) string { return "/turma/" + url.PathEscape(id) }
