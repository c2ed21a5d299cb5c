package training

import (
	"context"
	"math"
	"net/http"
	"net/url"
	"time"

	"github.com/smarterfit/smarterfit/internal/apiclient"
)

type Plan struct {
	ID        string     `json:"id"`
	UserID    string     `json:"userId"`
	Name      string     `json:"name"`
	Goal      string     `json:"goal"`
	Exercises []Exercise `json:"exercises"`
	CreatedAt time.Time  `json:"createdAt"`
}

type Exercise struct {
	Name        string   `json:"name" validate:"required,max=80"`
	Sets        int      `json:"sets" validate:"gte=1,lte=20"`
	Reps        int      `json:"reps" validate:"gte=1,lte=100"`
	LoadKg      *float64 `json:"loadKg,omitempty" validate:"omitempty,gte=0,lte=1000"`
	RestSeconds int      `json:"restSeconds" validate:"gte=0,lte=600"`
}

// Volume soma séries × repetições × carga; exercícios sem carga não contam.
func (p Plan) Volume() float64 {
	total := 0.0
	for _, e := range p.Exercises {
		if e.LoadKg != nil {
			total += float64(e.Sets*e.Reps) * *e.LoadKg
		}
	}
	return total
}

type BodyMetric struct {
	ID             string    `json:"id"`
	UserID         string    `json:"userId"`
	WeightKg       float64   `json:"weightKg"`
	HeightCm       float64   `json:"heightCm"`
	BodyFatPercent *float64  `json:"bodyFatPercent,omitempty"`
	RecordedAt     time.Time `json:"recordedAt"`
}

// BMI devolve o IMC com uma casa decimal; zero quando a altura é desconhecida.
func (m BodyMetric) BMI() float64 {
	if m.HeightCm <= 0 {
		return 0
	}
	h := m.HeightCm / 100
	return math.Round(m.WeightKg/(h*h)*10) / 10
}

type PlanRequest struct {
	UserID    string     `json:"userId" validate:"required,uuid"`
	Name      string     `json:"name" validate:"required,min=3,max=80"`
	Goal      string     `json:"goal" validate:"required,oneof=HIPERTROFIA EMAGRECIMENTO CONDICIONAMENTO FORCA MOBILIDADE"`
	Exercises []Exercise `json:"exercises" validate:"min=1,max=30,dive"`
}

type MetricRequest struct {
	UserID         string   `json:"userId" validate:"required,uuid"`
	WeightKg       float64  `json:"weightKg" validate:"gt=0,lte=500"`
	HeightCm       float64  `json:"heightCm" validate:"gt=0,lte=260"`
	BodyFatPercent *float64 `json:"bodyFatPercent,omitempty" validate:"omitempty,gte=0,lte=80"`
	RecordedAt     string   `json:"recordedAt,omitempty" validate:"omitempty,date"`
}

type Service struct {
	api apiclient.Requester
}

func NewService(api apiclient.Requester) *Service {
	return &Service{api: api}
}

func (s *Service) PlansByUser(ctx context.Context, userID string) ([]Plan, error) {
	return apiclient.Call[[]Plan](ctx, s.api, apiclient.Request{Method: http.MethodGet, Path: "/treinos/usuario/" + url.PathEscape(userID)})
}

func (s *Service) Plan(ctx context.Context, planID string) (Plan, error) {
	return apiclient.Call[Plan](ctx, s.api, apiclient.Request{Method: http.MethodGet, Path: planPath(planID)})
}

func (s *Service) CreatePlan(ctx context.Context, req PlanRequest) (Plan, error) {
	return apiclient.Call[Plan](ctx, s.api, apiclient.Request{Method: http.MethodPost, Path: "/treinos", Data: req})
}

func (s *Service) UpdatePlan(ctx context.Context, planID string, req PlanRequest) (Plan, error) {
	return apiclient.Call[Plan](ctx, s.api, apiclient.Request{Method: http.MethodPut, Path: planPath(planID), Data: req})
}

func (s *Service) DeletePlan(ctx context.Context, planID string) error {
	return s.api.Do(ctx, apiclient.Request{Method: http.MethodDelete, Path: planPath(planID)}, nil)
}

func (s *Service) RecordMetric(ctx context.Context, req MetricRequest) (BodyMetric, error) {
	return apiclient.Call[BodyMetric](ctx, s.api, apiclient.Request{Method: http.MethodPost, Path: "/metricas", Data: req})
}

func (s *Service) Metrics(ctx context.Context, userID string) ([]BodyMetric, error) {
	return apiclient.Call[[]BodyMetric](ctx, s.api, apiclient.Request{Method: http.MethodGet, Path: "/metricas/usuario/" + url.PathEscape(userID)})
}

func planPath(id string) string { return "/treinos/" + url.PathEscape(id) }
