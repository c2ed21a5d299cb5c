package classgroup

import "github.com/smarterfit/smarterfit/internal/useraccess"

type SessionStatus string

const (
	SessionScheduled SessionStatus = "AGENDADA"
	SessionDone      SessionStatus = "REALIZADA"
	SessionCancelled SessionStatus = "CANCELADA"
)

// Turma é um grupo de alunos com horários semanais e aulas concretas.
type Turma struct {
	ID          string            `json:"id"`
	Title       string            `json:"title"`
	Description string            `json:"description"`
	Capacity    int               `json:"capacity"`
	Modality    string            `json:"modality"`
	StartDate   string            `json:"startDate"`
	EndDate     string            `json:"endDate"`
	AutoSession bool              `json:"autoSession"`
	Schedules   []Schedule        `json:"schedules"`
	Sessions    []Session         `json:"sessions,omitempty"`
	Members     []useraccess.User `json:"members,omitempty"`
}

// Vacancies devolve vagas restantes, nunca negativo.
func (t Turma) Vacancies() int {
	if left := t.Capacity - len(t.Members); left > 0 {
		return left
	}
	return 0
}

// Schedule é um horário semanal recorrente. DayOfWeek segue time.Weekday (0 = domingo).
type Schedule struct {
	ID        string `json:"id"`
	DayOfWeek int    `json:"dayOfWeek"`
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
}

// Session é uma ocorrência datada de aula.
type Session struct {
	ID        string        `json:"id,omitempty"`
	TurmaID   string        `json:"turmaId"`
	Date      string        `json:"date"`
	StartTime string        `json:"startTime"`
	EndTime   string        `json:"endTime"`
	Status    SessionStatus `json:"status"`
}
