// Package apitest oferece um Requester em memória para testar serviços.
package apitest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/smarterfit/smarterfit/internal/apiclient"
)

// Recorder grava as requisições recebidas e responde com payloads pré-definidos.
// As respostas passam por JSON para exercitar a decodificação real.
type Recorder struct {
	mu        sync.Mutex
	Requests  []apiclient.Request
	responses map[string]any
	errors    map[string]error
}

func NewRecorder() *Recorder {
	return &Recorder{responses: map[string]any{}, errors: map[string]error{}}
}

// Respond define o payload devolvido para "METHOD /rota".
func (r *Recorder) Respond(method, path string, payload any) *Recorder {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.responses[method+" "+path] = payload
	return r
}

// Fail faz a rota devolver um APIError com status e mensagem.
func (r *Recorder) Fail(method, path string, status int, message string) *Recorder {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errors[method+" "+path] = &apiclient.APIError{Status: status, Message: message}
	return r
}

func (r *Recorder) Do(ctx context.Context, req apiclient.Request, out any) error {
	r.mu.Lock()
	r.Requests = append(r.Requests, req)
	key := req.Method + " " + req.Path
	err := r.errors[key]
	payload, ok := r.responses[key]
	r.mu.Unlock()

	if err != nil {
		return err
	}
	if !ok || out == nil {
		return nil
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, out)
}

// Last devolve a última requisição gravada.
func (r *Recorder) Last() apiclient.Request {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.Requests) == 0 {
		return apiclient.Request{}
	}
	return r.Requests[len(r.Requests)-1]
}

// Count devolve quantas requisições foram gravadas.
func (r *Recorder) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.Requests)
}

// BodyJSON serializa o corpo da requisição para comparação em testes.
func BodyJSON(req apiclient.Request) string {
	if req.Data == nil {
		return ""
	}
	data, err := json.Marshal(req.Data)
	if err != nil {
		return fmt.Sprintf("erro: %v", err)
	}
	return string(data)
}

// Expect descreve uma chamada esperada ao gateway.
type Expect struct {
	Method string
	Path   string
	Query  string
	Body   string
}

// Check compara a requisição gravada com a esperada e devolve a divergência.
func Check(req apiclient.Request, want Expect) error {
	if want.Method == "" {
		want.Method = http.MethodGet
	}
	if req.Method != want.Method {
		return fmt.Errorf("método: esperado %s, recebido %s", want.Method, req.Method)
	}
	if req.Path != want.Path {
		return fmt.Errorf("rota: esperada %s, recebida %s", want.Path, req.Path)
	}
	if q := req.Params.Encode(); q != want.Query {
		return fmt.Errorf("query: esperada %q, recebida %q", want.Query, q)
	}
	if body := BodyJSON(req); body != want.Body {
		return fmt.Errorf("corpo: esperado %s, recebido %s", want.Body, body)
	}
	return nil
}
