package ai

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/smarterfit/smarterfit/internal/apiclient"
	"github.com/smarterfit/smarterfit/internal/training"
)

const doneMarker = "[DONE]"

// Streamer abre respostas em streaming; implementado por *apiclient.Client.
type Streamer interface {
	apiclient.Requester
	Stream(ctx context.Context, req apiclient.Request) (io.ReadCloser, error)
}

type ChatMessage struct {
	Role    string `json:"role" validate:"required,oneof=user assistant system"`
	Content string `json:"content" validate:"required,max=4000"`
}

type ChatRequest struct {
	UserID         string        `json:"userId" validate:"required,uuid"`
	ConversationID string        `json:"conversationId,omitempty" validate:"omitempty,uuid"`
	Message        string        `json:"message" validate:"required,min=1,max=4000"`
	History        []ChatMessage `json:"history,omitempty" validate:"max=50,dive"`
}

type WorkoutPlanRequest struct {
	UserID       string `json:"userId" validate:"required,uuid"`
	Goal         string `json:"goal" validate:"required,oneof=HIPERTROFIA EMAGRECIMENTO CONDICIONAMENTO FORCA MOBILIDADE"`
	Level        string `json:"level" validate:"required,oneof=INICIANTE INTERMEDIARIO AVANCADO"`
	DaysPerWeek  int    `json:"daysPerWeek" validate:"gte=1,lte=7"`
	Restrictions string `json:"restrictions,omitempty" validate:"max=500"`
}

type Conversation struct {
	ID        string        `json:"id"`
	UserID    string        `json:"userId"`
	Title     string        `json:"title"`
	Messages  []ChatMessage `json:"messages"`
	UpdatedAt time.Time     `json:"updatedAt"`
}

type Service struct {
	api Streamer
}

func NewService(api Streamer) *Service {
	return &Service{api: api}
}

// Chat envia a mensagem e entrega cada trecho da resposta a onChunk conforme chega.
// Cancelar ctx interrompe a leitura e devolve o texto parcial com ctx.Err().
// Um erro de onChunk também interrompe a leitura e é devolvido.
func (s *Service) Chat(ctx context.Context, req ChatRequest, onChunk func(string) error) (string, error) {
	body, err := s.api.Stream(ctx, apiclient.Request{Method: http.MethodPost, Path: "/ia/chat", Data: req})
	if err != nil {
		return "", err
	}
	defer body.Close()
	return ReadStream(ctx, body, onChunk)
}

func (s *Service) WorkoutPlan(ctx context.Context, req WorkoutPlanRequest) (training.Plan, error) {
	return apiclient.Call[training.Plan](ctx, s.api, apiclient.Request{Method: http.MethodPost, Path: "/ia/plano-treino", Data: req})
}

func (s *Service) Conversations(ctx context.Context, userID string) ([]Conversation, error) {
	return apiclient.Call[[]Conversation](ctx, s.api, apiclient.Request{Method: http.MethodGet, Path: "/ia/conversas/usuario/" + url.PathEscape(userID)})
}

// ReadStream consome o corpo como SSE. As linhas "data:" de um evento são unidas
// com "\n" e entregues como um trecho quando o evento termina na linha em branco
// (ou no fim do corpo). "data: [DONE]" encerra. Linhas de evento e comentários são
// ignoradas e qualquer outra linha não vazia é texto bruto com a quebra de linha.
func ReadStream(ctx context.Context, r io.Reader, onChunk func(string) error) (string, error) {
	var out strings.Builder
	var event []string

	emit := func(chunk string) error {
		if chunk == "" {
			return nil
		}
		out.WriteString(chunk)
		if onChunk != nil {
			return onChunk(chunk)
		}
		return nil
	}
	flush := func() error {
		if len(event) == 0 {
			return nil
		}
		data := strings.Join(event, "\n")
		event = event[:0]
		return emit(decodeData(data))
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return out.String(), err
		}
		line := strings.TrimRight(scanner.Text(), "\r")
		switch kind, value := classify(line); kind {
		case lineData:
			if strings.TrimSpace(value) == doneMarker {
				return out.String(), flush()
			}
			event = append(event, value)
		case lineBlank:
			if err := flush(); err != nil {
				return out.String(), err
			}
		case lineRaw:
			if err := flush(); err != nil {
				return out.String(), err
			}
			if err := emit(value + "\n"); err != nil {
				return out.String(), err
			}
		}
	}
	if err := ctx.Err(); err != nil {
		return out.String(), err
	}
	if err := scanner.Err(); err != nil && !errors.Is(err, io.EOF) {
		return out.String(), err
	}
	return out.String(), flush()
}

type lineKind int

const (
	lineBlank lineKind = iota
	lineMeta
	lineData
	lineRaw
)

func classify(line string) (lineKind, string) {
	switch {
	case strings.TrimSpace(line) == "":
		return lineBlank, ""
	case strings.HasPrefix(line, ":"), strings.HasPrefix(line, "event:"), strings.HasPrefix(line, "id:"), strings.HasPrefix(line, "retry:"):
		return lineMeta, ""
	case strings.HasPrefix(line, "data:"):
		return lineData, strings.TrimPrefix(strings.TrimPrefix(line, "data:"), " ")
	}
	return lineRaw, line
}

// decodeData aceita texto puro ou JSON com content/delta.
func decodeData(data string) string {
	if !strings.HasPrefix(strings.TrimSpace(data), "{") {
		return data
	}
	var payload struct {
		Content *string `json:"content"`
		Delta   *string `json:"delta"`
	}
	if err := json.Unmarshal([]byte(data), &payload); err != nil {
		return data
	}
	switch {
	case payload.Content != nil:
		return *payload.Content
	case payload.Delta != nil:
		return *payload.Delta
	}
	return data
}
