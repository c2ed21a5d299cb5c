package billing

import (
	"time"

	"github.com/smarterfit/smarterfit/internal/useraccess"
)

// SubscriptionStatus enumera o ciclo de vida de uma assinatura.
type SubscriptionStatus string

const (
	SubscriptionActive    SubscriptionStatus = "ATIVA"
	SubscriptionPending   SubscriptionStatus = "PENDENTE"
	SubscriptionCancelled SubscriptionStatus = "CANCELADA"
	SubscriptionExpired   SubscriptionStatus = "EXPIRADA"
	SubscriptionSuspended SubscriptionStatus = "SUSPENSA"
)

type PaymentMethod string

const (
	MethodPix    PaymentMethod = "PIX"
	MethodCredit PaymentMethod = "CARTAO_CREDITO"
	MethodDebit  PaymentMethod = "CARTAO_DEBITO"
	MethodBoleto PaymentMethod = "BOLETO"
	MethodCash   PaymentMethod = "DINHEIRO"
)

type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "PENDENTE"
	PaymentPaid      PaymentStatus = "PAGO"
	PaymentCancelled PaymentStatus = "CANCELADO"
	PaymentRefunded  PaymentStatus = "ESTORNADO"
	PaymentOverdue   PaymentStatus = "VENCIDO"
)

type Plan struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	Price        float64    `json:"price"`
	DurationDays int        `json:"durationDays"`
	MaxUsers     int        `json:"maxUsers"`
	MaxClasses   int        `json:"maxClasses"`
	DeletedAt    *time.Time `json:"deletedAt,omitempty"`
}

// Deleted informa se o plano foi removido logicamente.
func (p Plan) Deleted() bool {
	return p.DeletedAt != nil
}

type Subscription struct {
	ID               string             `json:"id"`
	Owner            useraccess.User    `json:"owner"`
	Plan             Plan               `json:"plan"`
	StartedAt        time.Time          `json:"startedAt"`
	RenewedAt        *time.Time         `json:"renewedAt,omitempty"`
	EndedAt          *time.Time         `json:"endedAt,omitempty"`
	Status           SubscriptionStatus `json:"status"`
	AvailableMembers int                `json:"availableMembers"`
	AvailableClasses int                `json:"availableClasses"`
}

// Active considera status e data de término.
func (s Subscription) Active(now time.Time) bool {
	if s.Status != SubscriptionActive {
		return false
	}
	return s.EndedAt == nil || now.Before(*s.EndedAt)
}

type Payment struct {
	ID           string        `json:"id"`
	Amount       float64       `json:"amount"`
	PaidAt       *time.Time    `json:"paidAt,omitempty"`
	ExpiresAt    time.Time     `json:"expiresAt"`
	Method       PaymentMethod `json:"method"`
	Status       PaymentStatus `json:"status"`
	Subscription *Subscription `json:"subscription,omitempty"`
}

// Overdue indica pagamento pendente com vencimento ultrapassado.
func (p Payment) Overdue(now time.Time) bool {
	if p.Status == PaymentOverdue {
		return true
	}
	return p.Status == PaymentPending && now.After(p.ExpiresAt)
}
