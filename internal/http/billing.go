package http

import (
	"net/http"
	"strings"

	"github.com/smarterfit/smarterfit/internal/apiclient"
	"github.com/smarterfit/smarterfit/internal/billing"
	"github.com/smarterfit/smarterfit/internal/schema"
)

// ListPlans lista os planos vigentes para a página de assinatura.
func (h *Handler) ListPlans(w http.ResponseWriter, r *http.Request) {
	page, err := pagination(r)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	filter := billing.PlanFilter{Name: strings.TrimSpace(r.URL.Query().Get("nome")), Pagination: page}
	if !validate(w, filter) {
		return
	}

	plans, err := billing.NewService(h.api).SearchPlans(r.Context(), filter)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, plans)
}

// ActiveSubscription devolve a assinatura ativa ou null e atualiza a marca da sessão.
func (h *Handler) ActiveSubscription(w http.ResponseWriter, r *http.Request) {
	sc := h.scope(r)
	ctx := r.Context()

	userID, err := sc.store.UserID(ctx)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	sub, err := billing.NewService(sc.api).ActiveSubscription(ctx, userID)
	if apiclient.IsNotFound(err) {
		if err := sc.store.SetActiveSubscription(ctx, false); err != nil {
			h.writeServiceError(w, r, err)
			return
		}
		WriteJSON(w, http.StatusOK, nil)
		return
	}
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	if err := sc.store.SetActiveSubscription(ctx, sub.Active(h.now())); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, sub)
}

type subscribePayload struct {
	PlanID    string `json:"planId"`
	StartDate string `json:"startDate,omitempty"`
}

// Subscribe assina um plano em nome do usuário da sessão; sem data começa hoje.
func (h *Handler) Subscribe(w http.ResponseWriter, r *http.Request) {
	var payload subscribePayload
	if !decode(w, r, &payload) {
		return
	}
	sc := h.scope(r)
	ctx := r.Context()

	userID, err := sc.store.UserID(ctx)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	req := billing.SubscriptionRequest{UserID: userID, PlanID: payload.PlanID, StartDate: payload.StartDate}
	if req.StartDate == "" {
		req.StartDate = schema.FormatDate(h.now())
	}
	if !validate(w, req) {
		return
	}

	sub, err := billing.NewService(sc.api).CreateSubscription(ctx, req)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	if err := sc.store.SetActiveSubscription(ctx, sub.Active(h.now())); err != nil {
		h.logger.Warn().Err(err).Msg("falha ao marcar assinatura na sessão")
	}
	WriteJSON(w, http.StatusCreated, sub)
}

// ListPayments filtra pagamentos por status, método e período.
func (h *Handler) ListPayments(w http.ResponseWriter, r *http.Request) {
	page, err := pagination(r)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	q := r.URL.Query()
	filter := billing.PaymentFilter{
		Status:     q.Get("status"),
		Method:     q.Get("metodo"),
		From:       q.Get("de"),
		To:         q.Get("ate"),
		Pagination: page,
	}
	if !validate(w, filter) {
		return
	}

	payments, err := billing.NewService(h.scope(r).api).SearchPayments(r.Context(), filter)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, payments)
}

// CreatePayment registra um pagamento; restrito à equipe pela rota.
func (h *Handler) CreatePayment(w http.ResponseWriter, r *http.Request) {
	var req billing.PaymentRequest
	if !decode(w, r, &req) || !validate(w, req) {
		return
	}
	payment, err := billing.NewService(h.scope(r).api).CreatePayment(r.Context(), req)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusCreated, payment)
}
