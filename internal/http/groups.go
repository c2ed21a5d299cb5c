package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/smarterfit/smarterfit/internal/challenge"
	"github.com/smarterfit/smarterfit/internal/traininggroup"
)

const podiumHeight = 100

type podiumSlot struct {
	Position int                        `json:"position"`
	Label    string                     `json:"label"`
	Height   int                        `json:"height"`
	Member   *traininggroup.GroupMember `json:"member"`
}

// Podium devolve os três primeiros com a altura das barras proporcional aos pontos.
func (h *Handler) Podium(w http.ResponseWriter, r *http.Request) {
	members, err := traininggroup.NewService(h.scope(r).api).Ranking(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	podium := traininggroup.Podium(members)
	bars := traininggroup.PodiumBars(podium, podiumHeight)

	slots := make([]podiumSlot, len(podium))
	for i := range podium {
		slots[i] = podiumSlot{
			Position: i + 1,
			Label:    traininggroup.Ordinal(i + 1),
			Height:   bars[i],
			Member:   podium[i],
		}
	}
	WriteJSON(w, http.StatusOK, slots)
}

// Ranking devolve a classificação completa com posições compartilhadas em empates.
func (h *Handler) Ranking(w http.ResponseWriter, r *http.Request) {
	members, err := traininggroup.NewService(h.scope(r).api).Ranking(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, traininggroup.Rank(members))
}

type trailView struct {
	challenge.Trail
	Progress float64        `json:"progress"`
	Today    *challenge.Day `json:"today"`
}

// Trail devolve a trilha com o progresso e o dia corrente.
func (h *Handler) Trail(w http.ResponseWriter, r *http.Request) {
	trail, err := challenge.NewService(h.scope(r).api).Trail(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	view := trailView{Trail: trail, Progress: trail.Progress()}
	if day, ok := trail.Today(h.now()); ok {
		view.Today = &day
	}
	WriteJSON(w, http.StatusOK, view)
}

type toggleStepPayload struct {
	Completed *bool `json:"completed" validate:"required"`
}

// ToggleStep conclui ou reabre um passo do desafio.
func (h *Handler) ToggleStep(w http.ResponseWriter, r *http.Request) {
	var payload toggleStepPayload
	if !decode(w, r, &payload) || !validate(w, payload) {
		return
	}
	step, err := challenge.NewService(h.scope(r).api).ToggleStep(r.Context(), chi.URLParam(r, "id"), *payload.Completed)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, step)
}
