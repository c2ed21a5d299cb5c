package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/smarterfit/smarterfit/internal/ai"
)

type chatPayload struct {
	ConversationID string           `json:"conversationId,omitempty"`
	Message        string           `json:"message"`
	History        []ai.ChatMessage `json:"history,omitempty"`
}

// Chat repassa a resposta do assistente ao navegador como SSE, trecho a trecho.
// Falhas antes do primeiro trecho saem no envelope JSON; depois viram "event: error".
func (h *Handler) Chat(w http.ResponseWriter, r *http.Request) {
	var payload chatPayload
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
	req := ai.ChatRequest{
		UserID:         userID,
		ConversationID: payload.ConversationID,
		Message:        strings.TrimSpace(payload.Message),
		History:        payload.History,
	}
	if !validate(w, req) {
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		WriteError(w, http.StatusInternalServerError, "INTERNAL", "streaming não suportado", nil)
		return
	}

	started := false
	_, err = ai.NewService(sc.api).Chat(ctx, req, func(chunk string) error {
		if !started {
			w.Header().Set("Content-Type", "text/event-stream")
			w.Header().Set("Cache-Control", "no-cache")
			w.Header().Set("X-Accel-Buffering", "no")
			w.WriteHeader(http.StatusOK)
			started = true
		}
		if err := writeSSE(w, "", chunk); err != nil {
			return err
		}
		flusher.Flush()
		return nil
	})

	switch {
	case err != nil && !started:
		h.writeServiceError(w, r, err)
	case err != nil:
		if ctx.Err() != nil {
			return
		}
		h.logger.Warn().Err(err).Msg("stream do assistente interrompido")
		msg, _ := json.Marshal(map[string]string{"message": "a resposta do assistente foi interrompida"})
		_ = writeSSE(w, "error", string(msg))
		flusher.Flush()
	default:
		if !started {
			w.Header().Set("Content-Type", "text/event-stream")
			w.WriteHeader(http.StatusOK)
		}
		_ = writeSSE(w, "", "[DONE]")
		flusher.Flush()
	}
}

// writeSSE quebra o texto em várias linhas data: para preservar as quebras.
func writeSSE(w http.ResponseWriter, event, data string) error {
	var b strings.Builder
	if event != "" {
		fmt.Fprintf(&b, "event: %s\n", event)
	}
	for _, line := range strings.Split(data, "\n") {
		fmt.Fprintf(&b, "data: %s\n", line)
	}
	b.WriteString("\n")
	_, err := w.Write([]byte(b.String()))
	return err
}

type workoutPayload struct {
	Goal         string `json:"goal"`
	Level        string `json:"level"`
	DaysPerWeek  int    `json:"daysPerWeek"`
	Restrictions string `json:"restrictions,omitempty"`
}

// WorkoutPlan pede ao assistente um plano de treino para o usuário da sessão.
func (h *Handler) WorkoutPlan(w http.ResponseWriter, r *http.Request) {
	var payload workoutPayload
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
	req := ai.WorkoutPlanRequest{
		UserID:       userID,
		Goal:         payload.Goal,
		Level:        payload.Level,
		DaysPerWeek:  payload.DaysPerWeek,
		Restrictions: strings.TrimSpace(payload.Restrictions),
	}
	if !validate(w, req) {
		return
	}

	plan, err := ai.NewService(sc.api).WorkoutPlan(ctx, req)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, plan)
}
