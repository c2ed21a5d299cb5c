package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// LookupCEP preenche o endereço do cadastro a partir do CEP.
func (h *Handler) LookupCEP(w http.ResponseWriter, r *http.Request) {
	addr, err := h.cep.Lookup(r.Context(), chi.URLParam(r, "cep"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, addr)
}
