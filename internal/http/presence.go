package http

import (
	"net/http"
	"time"

	"github.com/smarterfit/smarterfit/internal/apiclient"
	"github.com/smarterfit/smarterfit/internal/checkin"
)

type checkInPayload struct {
	TurmaID   string `json:"turmaId,omitempty"`
	SessionID string `json:"sessionId,omitempty"`
}

// CheckIn registra a entrada do usuário; sem turma usa a selecionada na sessão.
func (h *Handler) CheckIn(w http.ResponseWriter, r *http.Request) {
	var payload checkInPayload
	if r.ContentLength != 0 && !decode(w, r, &payload) {
		return
	}
	sc := h.scope(r)
	ctx := r.Context()

	userID, err := sc.store.UserID(ctx)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	req := checkin.Request{UserID: userID, TurmaID: payload.TurmaID, SessionID: payload.SessionID}
	if req.TurmaID == "" {
		if req.TurmaID, err = sc.store.SelectedTurma(ctx); err != nil {
			h.writeServiceError(w, r, err)
			return
		}
	}
	if !validate(w, req) {
		return
	}

	ci, err := checkin.NewService(sc.api).CheckIn(ctx, req)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusCreated, ci)
}

type presenceView struct {
	checkin.Presence
	Occupancy checkin.Occupancy `json:"occupancy"`
	FetchedAt time.Time         `json:"fetchedAt"`
	Stale     bool              `json:"stale"`
}

// Presence devolve a ocupação com cache de sessão; se o backend falhar e houver
// retrato antigo, ele é servido marcado como desatualizado.
func (h *Handler) Presence(w http.ResponseWriter, r *http.Request) {
	sc := h.scope(r)
	svc := checkin.NewService(sc.api)

	snap, err := sc.store.CachedPresence(r.Context(), svc.Presence)
	stale := false
	if err != nil {
		if snap.FetchedAt.IsZero() || apiclient.IsUnauthorized(err) {
			h.writeServiceError(w, r, err)
			return
		}
		h.logger.Warn().Err(err).Time("fetched_at", snap.FetchedAt).Msg("presença desatualizada servida do cache")
		stale = true
	}

	WriteJSON(w, http.StatusOK, presenceView{
		Presence:  snap.Presence,
		Occupancy: snap.Presence.Occupancy(),
		FetchedAt: snap.FetchedAt,
		Stale:     stale,
	})
}
