package traininggroup

import (
	"context"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/smarterfit/smarterfit/internal/apiclient"
	"github.com/smarterfit/smarterfit/internal/schema"
)

type GroupType string

const (
	TypePublic  GroupType = "PUBLICO"
	TypePrivate GroupType = "PRIVADO"
)

type Group struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	Description string        `json:"description,omitempty"`
	Type        GroupType     `json:"type"`
	StartDate   string        `json:"startDate"`
	EndDate     string        `json:"endDate"`
	Members     []GroupMember `json:"members"`
}

type GroupMember struct {
	UserID    string `json:"userId"`
	Name      string `json:"name"`
	AvatarURL string `json:"avatarUrl,omitempty"`
	Points    int    `json:"points"`
}

type GroupRequest struct {
	Name        string    `json:"name" validate:"required,min=3,max=80"`
	Description string    `json:"description,omitempty" validate:"max=500"`
	Type        GroupType `json:"type" validate:"required,oneof=PUBLICO PRIVADO"`
	StartDate   string    `json:"startDate" validate:"required,date"`
	EndDate     string    `json:"endDate" validate:"required,date"`
}

func (r GroupRequest) Check() []schema.FieldError {
	return schema.DateRange("startDate", r.StartDate, "endDate", r.EndDate)
}

type MemberRequest struct {
	UserID string `json:"userId" validate:"required,uuid"`
}

type PointsRequest struct {
	UserID string `json:"userId" validate:"required,uuid"`
	Points int    `json:"points" validate:"required,gte=-1000,lte=1000"`
	Reason string `json:"reason,omitempty" validate:"max=120"`
}

type GroupFilter struct {
	Name string    `validate:"omitempty,max=80"`
	Type GroupType `validate:"omitempty,oneof=PUBLICO PRIVADO"`
	apiclient.Pagination
}

func (f GroupFilter) params() apiclient.Params {
	return f.Pagination.Apply(apiclient.Params{"nome": f.Name, "tipo": string(f.Type)})
}

type Service struct {
	api apiclient.Requester
}

func NewService(api apiclient.Requester) *Service {
	return &Service{api: api}
}

func (s *Service) Search(ctx context.Context, f GroupFilter) (apiclient.Page[Group], error) {
	return apiclient.Call[apiclient.Page[Group]](ctx, s.api, apiclient.Request{Method: http.MethodGet, Path: "/grupos-treino", Params: f.params()})
}

func (s *Service) Get(ctx context.Context, groupID string) (Group, error) {
	return apiclient.Call[Group](ctx, s.api, apiclient.Request{Method: http.MethodGet, Path: groupPath(groupID)})
}

func (s *Service) Create(ctx context.Context, req GroupRequest) (Group, error) {
	return apiclient.Call[Group](ctx, s.api, apiclient.Request{Method: http.MethodPost, Path: "/grupos-treino", Data: req})
}

func (s *Service) Update(ctx context.Context, groupID string, req GroupRequest) (Group, error) {
	return apiclient.Call[Group](ctx, s.api, apiclient.Request{Method: http.MethodPut, Path: groupPath(groupID), Data: req})
}

func (s *Service) Delete(ctx context.Context, groupID string) error {
	return s.api.Do(ctx, apiclient.Request{Method: http.MethodDelete, Path: groupPath(groupID)}, nil)
}

func (s *Service) AddMember(ctx context.Context, groupID string, req MemberRequest) (Group, error) {
	return apiclient.Call[Group](ctx, s.api, apiclient.Request{Method: http.MethodPost, Path: groupPath(groupID) + "/membros", Data: req})
}

func (s *Service) RemoveMember(ctx context.Context, groupID, userID string) error {
	return s.api.Do(ctx, apiclient.Request{Method: http.MethodDelete, Path: groupPath(groupID) + "/membros/" + url.PathEscape(userID)}, nil)
}

// Ranking devolve os membros com pontuação; a ordenação é feita no cliente por Rank.
func (s *Service) Ranking(ctx context.Context, groupID string) ([]GroupMember, error) {
	return apiclient.Call[[]GroupMember](ctx, s.api, apiclient.Request{Method: http.MethodGet, Path: groupPath(groupID) + "/ranking"})
}

func (s *Service) AddPoints(ctx context.Context, groupID string, req PointsRequest) (GroupMember, error) {
	return apiclient.Call[GroupMember](ctx, s.api, apiclient.Request{Method: http.MethodPost, Path: groupPath(groupID) + "/pontos", Data: req})
}

func groupPath(id string) string { return "/grupos-treino/" + url.PathEscape(id) }

// sorted copia e ordena por pontos desc, empate por nome.
func sorted(members []GroupMember) []GroupMember {
	out := append([]GroupMember(nil), members...)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Points != out[j].Points {
			return out[i].Points > out[j].Points
		}
		return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name)
	})
	return out
}

// Podium devolve 1º, 2º e 3º lugares; posições sem membro ficam nil.
func Podium(members []GroupMember) [3]*GroupMember {
	var podium [3]*GroupMember
	ranked := sorted(members)
	for i := 0; i < len(podium) && i < len(ranked); i++ {
		m := ranked[i]
		podium[i] = &m
	}
	return podium
}

// PodiumBars calcula a altura de cada barra proporcional aos pontos do líder.
// Posições vazias e pontuações não positivas ficam com altura zero.
func PodiumBars(podium [3]*GroupMember, maxHeight int) [3]int {
	var bars [3]int
	top := 0
	for _, m := range podium {
		if m != nil && m.Points > top {
			top = m.Points
		}
	}
	if top == 0 || maxHeight <= 0 {
		return bars
	}
	for i, m := range podium {
		if m == nil || m.Points <= 0 {
			continue
		}
		bars[i] = m.Points * maxHeight / top
	}
	return bars
}

// Ordinal formata a posição como "1º", "2º"...
func Ordinal(n int) string {
	return strconv.Itoa(n) + "º"
}

type RankedMember struct {
	GroupMember
	Position int    `json:"position"`
	Label    string `json:"label"`
}

// Rank ordena os membros e atribui posições; empates em pontos dividem a posição (1, 1, 3).
func Rank(members []GroupMember) []RankedMember {
	ranked := sorted(members)
	out := make([]RankedMember, len(ranked))
	for i, m := range ranked {
		pos := i + 1
		if i > 0 && m.Points == ranked[i-1].Points {
			pos = out[i-1].Position
		}
		out[i] = RankedMember{GroupMember: m, Position: pos, Label: Ordinal(pos)}
	}
	return out
}
