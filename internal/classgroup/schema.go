package classgroup

import (
	"strconv"

	"github.com/smarterfit/smarterfit/internal/apiclient"
	"github.com/smarterfit/smarterfit/internal/schema"
)

type TurmaRequest struct {
	Title       string            `json:"title" validate:"required,min=3,max=80"`
	Description string            `json:"description" validate:"max=500"`
	Capacity    int               `json:"capacity" validate:"gte=1,lte=500"`
	Modality    string            `json:"modality" validate:"required,max=60"`
	StartDate   string            `json:"startDate" validate:"required,date"`
	EndDate     string            `json:"endDate" validate:"required,date"`
	AutoSession bool              `json:"autoSession"`
	Schedules   []ScheduleRequest `json:"schedules" validate:"dive"`
}

func (r TurmaRequest) Check() []schema.FieldError {
	errs := schema.DateRange("startDate", r.StartDate, "endDate", r.EndDate)
	for i, s := range r.Schedules {
		for _, fe := range s.Check() {
			fe.Field = "schedules[" + strconv.Itoa(i) + "]." + fe.Field
			errs = append(errs, fe)
		}
	}
	return errs
}

type ScheduleRequest struct {
	DayOfWeek int    `json:"dayOfWeek" validate:"gte=0,lte=6"`
	StartTime string `json:"startTime" validate:"required,hhmm"`
	EndTime   string `json:"endTime" validate:"required,hhmm"`
}

func (r ScheduleRequest) Check() []schema.FieldError {
	return schema.TimeRange("startTime", r.StartTime, "endTime", r.EndTime)
}

type SessionRequest struct {
	Date      string `json:"date" validate:"required,date"`
	StartTime string `json:"startTime" validate:"required,hhmm"`
	EndTime   string `json:"endTime" validate:"required,hhmm"`
}

func (r SessionRequest) Check() []schema.FieldError {
	return schema.TimeRange("startTime", r.StartTime, "endTime", r.EndTime)
}

type SessionStatusRequest struct {
	Status SessionStatus `json:"status" validate:"required,oneof=AGENDADA REALIZADA CANCELADA"`
}

type TurmaFilter struct {
	Modality string `validate:"omitempty,max=60"`
	Title    string `validate:"omitempty,max=80"`
	OnlyOpen bool
	apiclient.Pagination
}

func (f TurmaFilter) params() apiclient.Params {
	p := apiclient.Params{"modalidade": f.Modality, "titulo": f.Title}
	if f.OnlyOpen {
		p["ativa"] = "true"
	}
	return f.Pagination.Apply(p)
}

// SessionRange limita a listagem de aulas por data.
type SessionRange struct {
	From string `validate:"omitempty,date"`
	To   string `validate:"omitempty,date"`
}

func (r SessionRange) Check() []schema.FieldError {
	return schema.DateRange("From", r.From, "To", r.To)
}

func (r SessionRange) params() apiclient.Params {
	return apiclient.Params{"de": r.From, "ate": r.To}
}
