package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/smarterfit/smarterfit/internal/apiclient"
	"github.com/smarterfit/smarterfit/internal/cep"
	"github.com/smarterfit/smarterfit/internal/schema"
	"github.com/smarterfit/smarterfit/internal/session"
)

// SuccessEnvelope padroniza respostas com dados.
type SuccessEnvelope struct {
	Data  any `json:"data"`
	Error any `json:"error"`
}

// ErrorEnvelope padroniza respostas de erro.
type ErrorEnvelope struct {
	Data  any        `json:"data"`
	Error *ErrorBody `json:"error"`
}

// ErrorBody descreve falhas normalizadas.
type ErrorBody struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// WriteJSON escreve envelope de sucesso.
func WriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(SuccessEnvelope{Data: data, Error: nil})
}

// WriteError escreve envelope de erro e mantém formato consistente.
func WriteError(w http.ResponseWriter, status int, code, message string, details interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(ErrorEnvelope{
		Data:  nil,
		Error: &ErrorBody{Code: code, Message: message, Details: details},
	})
}

// writeServiceError traduz erros de validação, sessão e backend para o envelope.
func (h *Handler) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *schema.ValidationError
	var apiErr *apiclient.APIError

	switch {
	case errors.As(err, &verr):
		WriteError(w, http.StatusBadRequest, "VALIDATION", verr.UserMessage(), verr.Fields)
	case errors.Is(err, session.ErrNoSession), errors.Is(err, session.ErrTokenExpired):
		WriteError(w, http.StatusUnauthorized, "AUTH", "sessão expirada, faça login novamente", nil)
	case errors.Is(err, cep.ErrInvalidCEP):
		WriteError(w, http.StatusBadRequest, "VALIDATION", "CEP inválido", nil)
	case errors.Is(err, cep.ErrNotFound):
		WriteError(w, http.StatusNotFound, "NOT_FOUND", "CEP não encontrado", nil)
	case apiclient.IsCircuitOpen(err):
		WriteError(w, http.StatusServiceUnavailable, "UNAVAILABLE", apiclient.MessageFromError(err, ""), nil)
	case errors.As(err, &apiErr):
		// o 401 já limpou a sessão pelo hook do cliente
		WriteError(w, apiErr.Status, codeForStatus(apiErr.Status), apiErr.Message, nil)
	case errors.Is(err, context.Canceled):
		h.logger.Debug().Str("path", r.URL.Path).Msg("requisição cancelada pelo cliente")
	default:
		h.logger.Error().Err(err).Str("path", r.URL.Path).Msg("falha ao chamar backend")
		WriteError(w, http.StatusBadGateway, "UPSTREAM", apiclient.MessageFromError(err, "falha ao contatar o servidor"), nil)
	}
}

func codeForStatus(status int) string {
	switch status {
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return "VALIDATION"
	case http.StatusUnauthorized:
		return "AUTH"
	case http.StatusForbidden:
		return "FORBIDDEN"
	case http.StatusNotFound:
		return "NOT_FOUND"
	case http.StatusConflict:
		return "CONFLICT"
	case http.StatusTooManyRequests:
		return "RATE_LIMIT"
	}
	if status >= 500 {
		return "UPSTREAM"
	}
	return "ERROR"
}

// decode lê o corpo JSON e valida; responde 400 e devolve false em caso de falha.
func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(io.LimitReader(r.Body, 1<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "JSON inválido", nil)
		return false
	}
	return true
}

// validate roda o schema e responde 400 com a lista de campos.
func validate(w http.ResponseWriter, payload any) bool {
	err := schema.Validate(payload)
	if err == nil {
		return true
	}
	var verr *schema.ValidationError
	if errors.As(err, &verr) {
		WriteError(w, http.StatusBadRequest, "VALIDATION", verr.UserMessage(), verr.Fields)
		return false
	}
	WriteError(w, http.StatusBadRequest, "VALIDATION", err.Error(), nil)
	return false
}

// pagination lê page e size da query; valores inválidos viram erro de validação.
func pagination(r *http.Request) (apiclient.Pagination, error) {
	var p apiclient.Pagination
	q := r.URL.Query()
	for _, f := range []struct {
		name string
		dst  *int
	}{{"page", &p.Page}, {"size", &p.Size}} {
		raw := q.Get(f.name)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			return p, &schema.ValidationError{Fields: []schema.FieldError{{Field: f.name, Message: f.name + " deve ser numérico"}}}
		}
		*f.dst = n
	}
	return p, nil
}
