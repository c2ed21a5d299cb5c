package http

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/smarterfit/smarterfit/internal/classgroup"
	"github.com/smarterfit/smarterfit/internal/schema"
)

const defaultPreviewDays = 14

type turmaView struct {
	classgroup.Turma
	Vacancies   int                 `json:"vacancies"`
	NextSession *classgroup.Session `json:"nextSession"`
	Selected    bool                `json:"selected"`
}

// ListTurmas lista as turmas abertas; com minhas=true só as do usuário da sessão.
func (h *Handler) ListTurmas(w http.ResponseWriter, r *http.Request) {
	sc := h.scope(r)
	ctx := r.Context()
	q := r.URL.Query()
	svc := classgroup.NewService(sc.api)

	if q.Get("minhas") == "true" {
		userID, err := sc.store.UserID(ctx)
		if err != nil {
			h.writeServiceError(w, r, err)
			return
		}
		turmas, err := svc.ByUser(ctx, userID)
		if err != nil {
			h.writeServiceError(w, r, err)
			return
		}
		WriteJSON(w, http.StatusOK, turmas)
		return
	}

	page, err := pagination(r)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	filter := classgroup.TurmaFilter{
		Modality:   strings.TrimSpace(q.Get("modalidade")),
		Title:      strings.TrimSpace(q.Get("titulo")),
		OnlyOpen:   q.Get("abertas") != "false",
		Pagination: page,
	}
	if !validate(w, filter) {
		return
	}
	turmas, err := svc.Search(ctx, filter)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, turmas)
}

// GetTurma devolve a turma com vagas e a próxima aula calculada pelos horários.
func (h *Handler) GetTurma(w http.ResponseWriter, r *http.Request) {
	sc := h.scope(r)
	ctx := r.Context()

	turma, err := classgroup.NewService(sc.api).Get(ctx, chi.URLParam(r, "id"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	view := turmaView{Turma: turma, Vacancies: turma.Vacancies()}

	next, ok, err := classgroup.NextSession(turma, h.now())
	if err != nil {
		h.logger.Warn().Err(err).Str("turma_id", turma.ID).Msg("horários da turma inválidos")
	} else if ok {
		view.NextSession = &next
	}
	if selected, err := sc.store.SelectedTurma(ctx); err == nil {
		view.Selected = selected == turma.ID
	}
	WriteJSON(w, http.StatusOK, view)
}

type selectTurmaPayload struct {
	TurmaID string `json:"turmaId" validate:"required,uuid"`
}

// SelectTurma guarda na sessão a turma usada por padrão no check-in.
func (h *Handler) SelectTurma(w http.ResponseWriter, r *http.Request) {
	var payload selectTurmaPayload
	if !decode(w, r, &payload) || !validate(w, payload) {
		return
	}
	sc := h.scope(r)
	ctx := r.Context()

	turma, err := classgroup.NewService(sc.api).Get(ctx, payload.TurmaID)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	if err := sc.store.SelectTurma(ctx, turma.ID); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, turmaView{Turma: turma, Vacancies: turma.Vacancies(), Selected: true})
}

// PreviewTurma projeta as aulas dos horários semanais; padrão de hoje a 14 dias.
func (h *Handler) PreviewTurma(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	rng := classgroup.SessionRange{From: q.Get("de"), To: q.Get("ate")}
	if !validate(w, rng) {
		return
	}

	now := h.now()
	loc := now.Location()
	from := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)
	if rng.From != "" {
		from, _ = time.ParseInLocation(schema.DateLayout, rng.From, loc)
	}
	until := from.AddDate(0, 0, defaultPreviewDays)
	if rng.To != "" {
		until, _ = time.ParseInLocation(schema.DateLayout, rng.To, loc)
	}
	until = until.Add(24*time.Hour - time.Second)

	turma, err := classgroup.NewService(h.scope(r).api).Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	sessions, err := classgroup.PreviewSessions(turma, from, until)
	if err != nil {
		WriteError(w, http.StatusUnprocessableEntity, "VALIDATION", err.Error(), nil)
		return
	}
	WriteJSON(w, http.StatusOK, sessions)
}
