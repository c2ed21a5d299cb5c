package classgroup

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/teambition/rrule-go"

	"github.com/smarterfit/smarterfit/internal/schema"
)

// maxPreview limita a prévia em intervalos longos. O corte vale para a lista já
// ordenada, então cada horário contribui com até maxPreview aulas antes dela.
const maxPreview = 366

var weekdays = []rrule.Weekday{rrule.SU, rrule.MO, rrule.TU, rrule.WE, rrule.TH, rrule.FR, rrule.SA}

// ScheduleRule monta a regra RFC 5545 semanal de um horário, a partir da data de início da turma.
func ScheduleRule(s Schedule, start time.Time, until time.Time) (*rrule.RRule, error) {
	if s.DayOfWeek < 0 || s.DayOfWeek > 6 {
		return nil, fmt.Errorf("classgroup: dia da semana inválido: %d", s.DayOfWeek)
	}
	hour, minute, err := parseHHMM(s.StartTime)
	if err != nil {
		return nil, err
	}
	dtstart := time.Date(start.Year(), start.Month(), start.Day(), hour, minute, 0, 0, start.Location())
	return rrule.NewRRule(rrule.ROption{
		Freq:      rrule.WEEKLY,
		Byweekday: []rrule.Weekday{weekdays[s.DayOfWeek]},
		Dtstart:   dtstart,
		Until:     until,
	})
}

// PreviewSessions projeta as aulas concretas dos horários semanais entre from e until
// (inclusive), limitado ao período da turma. Aulas já existentes na mesma data e horário
// não são repetidas. O resultado sai ordenado por data e horário.
func PreviewSessions(t Turma, from, until time.Time) ([]Session, error) {
	loc := from.Location()
	start, err := time.ParseInLocation(schema.DateLayout, t.StartDate, loc)
	if err != nil {
		return nil, fmt.Errorf("classgroup: data de início inválida: %w", err)
	}
	end, err := time.ParseInLocation(schema.DateLayout, t.EndDate, loc)
	if err != nil {
		return nil, fmt.Errorf("classgroup: data de término inválida: %w", err)
	}
	end = end.Add(24*time.Hour - time.Second)

	if from.Before(start) {
		from = start
	}
	if until.After(end) {
		until = end
	}
	if until.Before(from) {
		return nil, nil
	}

	existing := make(map[string]struct{}, len(t.Sessions))
	for _, s := range t.Sessions {
		existing[s.Date+" "+s.StartTime] = struct{}{}
	}

	var out []Session
	for _, sch := range t.Schedules {
		rule, err := ScheduleRule(sch, start, until)
		if err != nil {
			return nil, err
		}
		taken := 0
		for _, occ := range rule.Between(from, until, true) {
			if taken >= maxPreview {
				break
			}
			date := occ.Format(schema.DateLayout)
			if _, ok := existing[date+" "+sch.StartTime]; ok {
				continue
			}
			out = append(out, Session{
				TurmaID:   t.ID,
				Date:      date,
				StartTime: sch.StartTime,
				EndTime:   sch.EndTime,
				Status:    SessionScheduled,
			})
			taken++
		}
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date < out[j].Date
		}
		return out[i].StartTime < out[j].StartTime
	})
	if len(out) > maxPreview {
		out = out[:maxPreview]
	}
	return out, nil
}

// NextSession devolve a próxima aula a partir de now, ou false se não houver.
func NextSession(t Turma, now time.Time) (Session, bool, error) {
	sessions, err := PreviewSessions(t, now, now.AddDate(0, 0, 7))
	if err != nil {
		return Session{}, false, err
	}
	today := now.Format(schema.DateLayout)
	clock := now.Format("15:04")
	for _, s := range sessions {
		if s.Date == today && s.StartTime < clock {
			continue
		}
		return s, true, nil
	}
	return Session{}, false, nil
}

func parseHHMM(v string) (int, int, error) {
	parts := strings.SplitN(strings.TrimSpace(v), ":", 2)
	if len(parts) != 2 {
		return 0, 0, errors.New("classgroup: horário deve estar no formato HH:MM")
	}
	h, err1 := strconv.Atoi(parts[0])
	m, err2 := strconv.Atoi(parts[1])
	if err1 != nil || err2 != nil || h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, 0, fmt.Errorf("classgroup: horário inválido: %s", v)
	}
	return h, m, nil
}
