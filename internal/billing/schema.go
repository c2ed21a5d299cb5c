package billing

import (
	"github.com/smarterfit/smarterfit/internal/apiclient"
	"github.com/smarterfit/smarterfit/internal/schema"
)

type PlanRequest struct {
	Name         string  `json:"name" validate:"required,min=3,max=80"`
	Price        float64 `json:"price" validate:"gte=0"`
	DurationDays int     `json:"durationDays" validate:"gte=1,lte=730"`
	MaxUsers     int     `json:"maxUsers" validate:"gte=1"`
	MaxClasses   int     `json:"maxClasses" validate:"gte=0"`
}

type PlanFilter struct {
	Name           string `validate:"omitempty,max=80"`
	IncludeDeleted bool
	apiclient.Pagination
}

func (f PlanFilter) params() apiclient.Params {
	p := apiclient.Params{"nome": f.Name}
	if f.IncludeDeleted {
		p["incluirExcluidos"] = "true"
	}
	return f.Pagination.Apply(p)
}

type SubscriptionRequest struct {
	UserID    string `json:"userId" validate:"required,uuid"`
	PlanID    string `json:"planId" validate:"required,uuid"`
	StartDate string `json:"startDate" validate:"required,date"`
}

type SubscriptionFilter struct {
	Status string `validate:"omitempty,oneof=ATIVA PENDENTE CANCELADA EXPIRADA SUSPENSA"`
	UserID string `validate:"omitempty,uuid"`
	apiclient.Pagination
}

func (f SubscriptionFilter) params() apiclient.Params {
	return f.Pagination.Apply(apiclient.Params{"status": f.Status, "usuarioId": f.UserID})
}

type CancelSubscriptionRequest struct {
	Reason string `json:"reason,omitempty" validate:"max=255"`
}

type PaymentRequest struct {
	SubscriptionID string        `json:"subscriptionId" validate:"required,uuid"`
	Amount         float64       `json:"amount" validate:"gt=0"`
	Method         PaymentMethod `json:"method" validate:"required,oneof=PIX CARTAO_CREDITO CARTAO_DEBITO BOLETO DINHEIRO"`
	ExpiresAt      string        `json:"expiresAt" validate:"required,date"`
	PaidAt         string        `json:"paidAt,omitempty" validate:"omitempty,date"`
}

type PaymentFilter struct {
	Status string `validate:"omitempty,oneof=PENDENTE PAGO CANCELADO ESTORNADO VENCIDO"`
	Method string `validate:"omitempty,oneof=PIX CARTAO_CREDITO CARTAO_DEBITO BOLETO DINHEIRO"`
	From   string `validate:"omitempty,date"`
	To     string `validate:"omitempty,date"`
	apiclient.Pagination
}

// Check valida o intervalo de datas do filtro.
func (f PaymentFilter) Check() []schema.FieldError {
	return schema.DateRange("From", f.From, "To", f.To)
}

func (f PaymentFilter) params() apiclient.Params {
	return f.Pagination.Apply(apiclient.Params{
		"status": f.Status,
		"metodo": f.Method,
		"de":     f.From,
		"ate":    f.To,
	})
}
