package checkin

import (
	"context"
	"math"
	"net/http"
	"net/url"
	"time"

	"github.com/smarterfit/smarterfit/internal/apiclient"
	"github.com/smarterfit/smarterfit/internal/schema"
)

type CheckIn struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	TurmaID   string    `json:"turmaId,omitempty"`
	SessionID string    `json:"sessionId,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// Presence é o retrato de ocupação da academia.
type Presence struct {
	TotalMembers int       `json:"totalMembers"`
	Capacity     int       `json:"capacity"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Occupancy deriva a barra de ocupação do retrato.
func (p Presence) Occupancy() Occupancy {
	return ComputeOccupancy(p.TotalMembers, p.Capacity)
}

type Request struct {
	UserID    string `json:"userId" validate:"required,uuid"`
	TurmaID   string `json:"turmaId,omitempty" validate:"omitempty,uuid"`
	SessionID string `json:"sessionId,omitempty" validate:"omitempty,uuid"`
}

type HistoryRange struct {
	From string `validate:"omitempty,date"`
	To   string `validate:"omitempty,date"`
}

func (r HistoryRange) Check() []schema.FieldError {
	return schema.DateRange("From", r.From, "To", r.To)
}

// Service cobre check-ins e o painel de presença.
type Service struct {
	api apiclient.Requester
}

func NewService(api apiclient.Requester) *Service {
	return &Service{api: api}
}

func (s *Service) CheckIn(ctx context.Context, req Request) (CheckIn, error) {
	return apiclient.Call[CheckIn](ctx, s.api, apiclient.Request{Method: http.MethodPost, Path: "/checkin", Data: req})
}

func (s *Service) History(ctx context.Context, userID string, r HistoryRange) ([]CheckIn, error) {
	return apiclient.Call[[]CheckIn](ctx, s.api, apiclient.Request{
		Method: http.MethodGet,
		Path:   "/checkin/usuario/" + url.PathEscape(userID),
		Params: apiclient.Params{"de": r.From, "ate": r.To},
	})
}

func (s *Service) BySession(ctx context.Context, sessionID string) ([]CheckIn, error) {
	return apiclient.Call[[]CheckIn](ctx, s.api, apiclient.Request{Method: http.MethodGet, Path: "/checkin/aula/" + url.PathEscape(sessionID)})
}

func (s *Service) Presence(ctx context.Context) (Presence, error) {
	return apiclient.Call[Presence](ctx, s.api, apiclient.Request{Method: http.MethodGet, Path: "/checkin/presenca"})
}

// Band é a faixa de cor da barra de ocupação.
type Band string

const (
	BandGreen  Band = "green"
	BandYellow Band = "yellow"
	BandRed    Band = "red"
)

// Limites das faixas, em pontos percentuais inteiros.
const (
	YellowFrom = 75
	RedAbove   = 90
)

type Occupancy struct {
	Percent int  `json:"percent"`
	Band    Band `json:"band"`
}

// ComputeOccupancy arredonda total/capacidade para o percentual inteiro mais próximo.
// Verde abaixo de 75%, amarelo de 75% a 90% inclusive, vermelho acima de 90%.
// A barra pode passar de 100% quando a academia está acima da lotação.
func ComputeOccupancy(totalMembers, capacity int) Occupancy {
	if capacity <= 0 || totalMembers <= 0 {
		return Occupancy{Percent: 0, Band: BandGreen}
	}
	pct := int(math.Round(float64(totalMembers) * 100 / float64(capacity)))
	band := BandGreen
	switch {
	case pct > RedAbove:
		band = BandRed
	case pct >= YellowFrom:
		band = BandYellow
	}
	return Occupancy{Percent: pct, Band: band}
}
