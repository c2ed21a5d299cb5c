package billing

import (
	"context"
	"net/http"
	"net/url"

	"github.com/smarterfit/smarterfit/internal/apiclient"
)

// Service cobre planos, assinaturas e pagamentos.
type Service struct {
	api apiclient.Requester
}

func NewService(api apiclient.Requester) *Service {
	return &Service{api: api}
}

func (s *Service) SearchPlans(ctx context.Context, f PlanFilter) (apiclient.Page[Plan], error) {
	return apiclient.Call[apiclient.Page[Plan]](ctx, s.api, apiclient.Request{Method: http.MethodGet, Path: "/planos", Params: f.params()})
}

func (s *Service) GetPlan(ctx context.Context, planID string) (Plan, error) {
	return apiclient.Call[Plan](ctx, s.api, apiclient.Request{Method: http.MethodGet, Path: planPath(planID)})
}

func (s *Service) CreatePlan(ctx context.Context, req PlanRequest) (Plan, error) {
	return apiclient.Call[Plan](ctx, s.api, apiclient.Request{Method: http.MethodPost, Path: "/planos", Data: req})
}

func (s *Service) UpdatePlan(ctx context.Context, planID string, req PlanRequest) (Plan, error) {
	return apiclient.Call[Plan](ctx, s.api, apiclient.Request{Method: http.MethodPut, Path: planPath(planID), Data: req})
}

// DeletePlan faz exclusão lógica; o plano volta com RestorePlan.
func (s *Service) DeletePlan(ctx context.Context, planID string) error {
	return s.api.Do(ctx, apiclient.Request{Method: http.MethodDelete, Path: planPath(planID)}, nil)
}

func (s *Service) RestorePlan(ctx context.Context, planID string) (Plan, error) {
	return apiclient.Call[Plan](ctx, s.api, apiclient.Request{Method: http.MethodPatch, Path: planPath(planID) + "/restaurar"})
}

func (s *Service) SearchSubscriptions(ctx context.Context, f SubscriptionFilter) (apiclient.Page[Subscription], error) {
	return apiclient.Call[apiclient.Page[Subscription]](ctx, s.api, apiclient.Request{Method: http.MethodGet, Path: "/assinaturas", Params: f.params()})
}

func (s *Service) GetSubscription(ctx context.Context, subscriptionID string) (Subscription, error) {
	return apiclient.Call[Subscription](ctx, s.api, apiclient.Request{Method: http.MethodGet, Path: subscriptionPath(subscriptionID)})
}

// ActiveSubscription devolve a assinatura ativa do usuário; 404 quando não há.
func (s *Service) ActiveSubscription(ctx context.Context, userID string) (Subscription, error) {
	return apiclient.Call[Subscription](ctx, s.api, apiclient.Request{Method: http.MethodGet, Path: "/assinaturas/usuario/" + url.PathEscape(userID) + "/ativa"})
}

func (s *Service) CreateSubscription(ctx context.Context, req SubscriptionRequest) (Subscription, error) {
	return apiclient.Call[Subscription](ctx, s.api, apiclient.Request{Method: http.MethodPost, Path: "/assinaturas", Data: req})
}

func (s *Service) RenewSubscription(ctx context.Context, subscriptionID string) (Subscription, error) {
	return apiclient.Call[Subscription](ctx, s.api, apiclient.Request{Method: http.MethodPatch, Path: subscriptionPath(subscriptionID) + "/renovar"})
}

func (s *Service) CancelSubscription(ctx context.Context, subscriptionID string, req CancelSubscriptionRequest) (Subscription, error) {
	return apiclient.Call[Subscription](ctx, s.api, apiclient.Request{Method: http.MethodPatch, Path: subscriptionPath(subscriptionID) + "/cancelar", Data: req})
}

func (s *Service) SearchPayments(ctx context.Context, f PaymentFilter) (apiclient.Page[Payment], error) {
	return apiclient.Call[apiclient.Page[Payment]](ctx, s.api, apiclient.Request{Method: http.MethodGet, Path: "/pagamentos", Params: f.params()})
}

func (s *Service) GetPayment(ctx context.Context, paymentID string) (Payment, error) {
	return apiclient.Call[Payment](ctx, s.api, apiclient.Request{Method: http.MethodGet, Path: "/pagamentos/" + url.PathEscape(paymentID)})
}

func (s *Service) PaymentsBySubscription(ctx context.Context, subscriptionID string) ([]Payment, error) {
	return apiclient.Call[[]Payment](ctx, s.api, apiclient.Request{Method: http.MethodGet, Path: "/pagamentos/assinatura/" + url.PathEscape(subscriptionID)})
}

func (s *Service) CreatePayment(ctx context.Context, req PaymentRequest) (Payment, error) {
	return apiclient.Call[Payment](ctx, s.api, apiclient.Request{Method: http.MethodPost, Path: "/pagamentos", Data: req})
}

func (s *Service) CancelPayment(ctx context.Context, paymentID string) (Payment, error) {
	return apiclient.Call[Payment](ctx, s.api, apiclient.Request{Method: http.MethodPatch, Path: "/pagamentos/" + url.PathEscape(paymentID) + "/cancelar"})
}

func planPath(id string) string         { return "/planos/" + url.PathEscape(id) }
func subscriptionPath(id string) string { return "/assinaturas/" + url.PathEscape(id) }
