package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// APIError representa uma resposta não-2xx do backend.
type APIError struct {
	Status  int
	Message string
	Body    []byte
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api: status %d: %s", e.Status, e.Message)
}

func newAPIError(status int, body []byte) *APIError {
	return &APIError{Status: status, Message: extractMessage(status, body), Body: body}
}

// extractMessage segue a ordem: message, error.message, error (string), texto do status.
func extractMessage(status int, body []byte) string {
	var payload struct {
		Message string          `json:"message"`
		Error   json.RawMessage `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		if msg := strings.TrimSpace(payload.Message); msg != "" {
			return msg
		}
		if len(payload.Error) > 0 {
			var nested struct {
				Message string `json:"message"`
			}
			if json.Unmarshal(payload.Error, &nested) == nil && strings.TrimSpace(nested.Message) != "" {
				return strings.TrimSpace(nested.Message)
			}
			var plain string
			if json.Unmarshal(payload.Error, &plain) == nil && strings.TrimSpace(plain) != "" {
				return strings.TrimSpace(plain)
			}
		}
	}
	if text := http.StatusText(status); text != "" {
		return text
	}
	return "erro desconhecido"
}

// IsUnauthorized informa se a sessão expirou ou o token foi recusado.
func IsUnauthorized(err error) bool {
	return StatusOf(err) == http.StatusUnauthorized
}

// IsNotFound informa se o recurso não existe no backend.
func IsNotFound(err error) bool {
	return StatusOf(err) == http.StatusNotFound
}

// StatusOf devolve o status HTTP do erro, ou 0 quando não veio do backend.
func StatusOf(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

// userMessager é implementado por erros que já carregam texto para o usuário.
type userMessager interface {
	UserMessage() string
}

// MessageFromError extrai o texto exibido no toast.
func MessageFromError(err error, fallback string) string {
	if err == nil {
		return fallback
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) && strings.TrimSpace(apiErr.Message) != "" {
		return apiErr.Message
	}
	var um userMessager
	if errors.As(err, &um) {
		if msg := strings.TrimSpace(um.UserMessage()); msg != "" {
			return msg
		}
	}
	if errors.Is(err, context.Canceled) {
		return "requisição cancelada"
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "tempo de resposta esgotado"
	}
	if IsCircuitOpen(err) {
		return ErrCircuitOpen.Error()
	}
	if msg := strings.TrimSpace(err.Error()); msg != "" {
		return msg
	}
	return fallback
}
