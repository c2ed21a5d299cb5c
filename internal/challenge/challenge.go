package challenge

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/smarterfit/smarterfit/internal/apiclient"
)

// Quest define um desafio recorrente; a Trail é a sequência de dias gerada para um aluno.
type Quest struct {
	ID           string   `json:"id"`
	Title        string   `json:"title"`
	Description  string   `json:"description"`
	Recurrence   string   `json:"recurrence"`
	DurationDays int      `json:"durationDays"`
	Points       int      `json:"points"`
	Steps        []string `json:"steps,omitempty"`
}

type Trail struct {
	ID        string `json:"id"`
	QuestID   string `json:"questId"`
	UserID    string `json:"userId"`
	StartDate string `json:"startDate"`
	Days      []Day  `json:"days"`
}

// Progress devolve a fração de dias concluídos, entre 0 e 1.
func (t Trail) Progress() float64 {
	if len(t.Days) == 0 {
		return 0
	}
	done := 0
	for _, d := range t.Days {
		if d.Done() {
			done++
		}
	}
	return float64(done) / float64(len(t.Days))
}

// Today devolve o dia da trilha correspondente à data, se existir.
func (t Trail) Today(now time.Time) (Day, bool) {
	date := now.Format("2006-01-02")
	for _, d := range t.Days {
		if d.Date == date {
			return d, true
		}
	}
	return Day{}, false
}

type Day struct {
	ID        string `json:"id"`
	TrailID   string `json:"trailId"`
	DayNumber int    `json:"dayNumber"`
	Date      string `json:"date"`
	Completed bool   `json:"completed"`
	Steps     []Step `json:"steps"`
}

// Done considera o dia concluído quando marcado pelo backend ou quando todos os passos foram feitos.
func (d Day) Done() bool {
	if d.Completed {
		return true
	}
	if len(d.Steps) == 0 {
		return false
	}
	for _, s := range d.Steps {
		if !s.Completed {
			return false
		}
	}
	return true
}

type Step struct {
	ID          string     `json:"id"`
	DayID       string     `json:"dayId"`
	Title       string     `json:"title"`
	Completed   bool       `json:"completed"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
}

type QuestRequest struct {
	Title        string   `json:"title" validate:"required,min=3,max=80"`
	Description  string   `json:"description" validate:"max=500"`
	Recurrence   string   `json:"recurrence" validate:"required,oneof=DIARIA SEMANAL"`
	DurationDays int      `json:"durationDays" validate:"gte=1,lte=365"`
	Points       int      `json:"points" validate:"gte=0"`
	Steps        []string `json:"steps" validate:"min=1,max=20,dive,required,max=120"`
}

type TrailRequest struct {
	UserID    string `json:"userId" validate:"required,uuid"`
	StartDate string `json:"startDate" validate:"required,date"`
}

// Service cobre missões, trilhas, dias e passos.
type Service struct {
	api apiclient.Requester
}

func NewService(api apiclient.Requester) *Service {
	return &Service{api: api}
}

func (s *Service) Quests(ctx context.Context) ([]Quest, error) {
	return apiclient.Call[[]Quest](ctx, s.api, apiclient.Request{Method: http.MethodGet, Path: "/desafio/missoes"})
}

func (s *Service) Quest(ctx context.Context, questID string) (Quest, error) {
	return apiclient.Call[Quest](ctx, s.api, apiclient.Request{Method: http.MethodGet, Path: questPath(questID)})
}

func (s *Service) CreateQuest(ctx context.Context, req QuestRequest) (Quest, error) {
	return apiclient.Call[Quest](ctx, s.api, apiclient.Request{Method: http.MethodPost, Path: "/desafio/missoes", Data: req})
}

func (s *Service) DeleteQuest(ctx context.Context, questID string) error {
	return s.api.Do(ctx, apiclient.Request{Method: http.MethodDelete, Path: questPath(questID)}, nil)
}

// StartTrail pede ao backend para gerar a trilha de dias da missão.
func (s *Service) StartTrail(ctx context.Context, questID string, req TrailRequest) (Trail, error) {
	return apiclient.Call[Trail](ctx, s.api, apiclient.Request{Method: http.MethodPost, Path: questPath(questID) + "/trilhas", Data: req})
}

func (s *Service) Trail(ctx context.Context, trailID string) (Trail, error) {
	return apiclient.Call[Trail](ctx, s.api, apiclient.Request{Method: http.MethodGet, Path: trailPath(trailID)})
}

func (s *Service) TrailsByUser(ctx context.Context, userID string) ([]Trail, error) {
	return apiclient.Call[[]Trail](ctx, s.api, apiclient.Request{Method: http.MethodGet, Path: "/desafio/trilhas/usuario/" + url.PathEscape(userID)})
}

func (s *Service) Days(ctx context.Context, trailID string) ([]Day, error) {
	return apiclient.Call[[]Day](ctx, s.api, apiclient.Request{Method: http.MethodGet, Path: trailPath(trailID) + "/dias"})
}

func (s *Service) Day(ctx context.Context, dayID string) (Day, error) {
	return apiclient.Call[Day](ctx, s.api, apiclient.Request{Method: http.MethodGet, Path: "/desafio/dias/" + url.PathEscape(dayID)})
}

func (s *Service) CompleteStep(ctx context.Context, stepID string) (Step, error) {
	return apiclient.Call[Step](ctx, s.api, apiclient.Request{Method: http.MethodPatch, Path: stepPath(stepID) + "/concluir"})
}

func (s *Service) ReopenStep(ctx context.Context, stepID string) (Step, error) {
	return apiclient.Call[Step](ctx, s.api, apiclient.Request{Method: http.MethodPatch, Path: stepPath(stepID) + "/reabrir"})
}

// ToggleStep conclui ou reabre conforme o estado desejado.
func (s *Service) ToggleStep(ctx context.Context, stepID string, completed bool) (Step, error) {
	if completed {
		return s.CompleteStep(ctx, stepID)
	}
	return s.ReopenStep(ctx, stepID)
}

func questPath(id string) string { return "/desafio/missoes/" + url.PathEscape(id) }
func trailPath(id string) string { return "/desafio/trilhas/" + url.PathEscape(id) }
func stepPath(id string) string  { return "/desafio/passos/" + url.PathEscape(id) }
