package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"
	"golang.org/x/sync/singleflight"
)

const defaultTimeout = 15 * time.Second

// Request descreve uma chamada ao backend: verbo, rota relativa, corpo e query.
type Request struct {
	Method string
	Path   string
	Data   any
	Params Params
}

// Params representa a query string; valores vazios são omitidos.
type Params map[string]string

// Encode serializa parâmetros em ordem estável.
func (p Params) Encode() string {
	if len(p) == 0 {
		return ""
	}
	keys := make([]string, 0, len(p))
	for k, v := range p {
		if strings.TrimSpace(v) == "" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	q := url.Values{}
	for _, k := range keys {
		q.Set(k, p[k])
	}
	return q.Encode()
}

// Requester é o ponto único por onde passam todas as chamadas dos serviços.
type Requester interface {
	Do(ctx context.Context, req Request, out any) error
}

// TokenSource fornece o token de acesso da sessão atual.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// Config descreve como montar o cliente do backend.
type Config struct {
	BaseURL        string
	Timeout        time.Duration
	HTTPClient     *http.Client
	Tokens         TokenSource
	OnUnauthorized func(ctx context.Context)
	CircuitBreaker bool
	DedupGET       bool
	Logger         zerolog.Logger
}

// Client encapsula chamadas à API SmarterFit.
type Client struct {
	httpClient     *http.Client
	baseURL        string
	tokens         TokenSource
	onUnauthorized func(ctx context.Context)
	breaker        *gobreaker.CircuitBreaker
	group          *singleflight.Group
	logger         zerolog.Logger
}

// New cria um novo cliente a partir da configuração.
func New(cfg Config) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, errors.New("apiclient: base url obrigatória")
	}
	if _, err := url.Parse(base); err != nil {
		return nil, fmt.Errorf("apiclient: base url inválida: %w", err)
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	c := &Client{
		httpClient:     httpClient,
		baseURL:        base,
		tokens:         cfg.Tokens,
		onUnauthorized: cfg.OnUnauthorized,
		logger:         cfg.Logger,
	}
	if cfg.CircuitBreaker {
		c.breaker = newBreaker("smarterfit-api", c.logger)
	}
	if cfg.DedupGET {
		c.group = &singleflight.Group{}
	}
	return c, nil
}

// WithSession devolve uma cópia do cliente ligada a outra sessão.
// Transporte, breaker e deduplicação continuam compartilhados.
func (c *Client) WithSession(tokens TokenSource, onUnauthorized func(ctx context.Context)) *Client {
	clone := *c
	clone.tokens = tokens
	clone.onUnauthorized = onUnauthorized
	return &clone
}

// Do executa a requisição e decodifica o corpo JSON em out (quando não nil).
func (c *Client) Do(ctx context.Context, req Request, out any) error {
	token, err := c.token(ctx)
	if err != nil {
		return err
	}

	endpoint, err := c.endpoint(req)
	if err != nil {
		return err
	}

	var body []byte
	if c.group != nil && strings.EqualFold(req.Method, http.MethodGet) {
		body, err = c.dedup(ctx, req.Method, endpoint, token)
	} else {
		body, err = c.execute(ctx, req.Method, endpoint, token, req.Data)
	}
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized && c.onUnauthorized != nil {
			c.onUnauthorized(ctx)
		}
		return err
	}

	if out == nil || len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("apiclient: resposta inválida de %s %s: %w", req.Method, req.Path, err)
	}
	return nil
}

// Stream abre a requisição e devolve o corpo sem ler, para respostas em streaming.
// O chamador fecha o corpo; cancelar ctx interrompe a leitura. O Timeout do
// cliente não se aplica ao corpo, só o ctx.
func (c *Client) Stream(ctx context.Context, req Request) (io.ReadCloser, error) {
	token, err := c.token(ctx)
	if err != nil {
		return nil, err
	}
	endpoint, err := c.endpoint(req)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	resp, err := c.openStream(ctx, req.Method, endpoint, token, req.Data)

	event := c.logger.Debug().Str("method", req.Method).Str("endpoint", endpoint).Bool("stream", true).Dur("duration", time.Since(start))
	if err != nil {
		event.Err(err).Msg("api_request")
		return nil, err
	}
	event.Int("status", resp.StatusCode).Msg("api_request")

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer resp.Body.Close()
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		apiErr := newAPIError(resp.StatusCode, payload)
		if apiErr.Status == http.StatusUnauthorized && c.onUnauthorized != nil {
			c.onUnauthorized(ctx)
		}
		return nil, apiErr
	}
	return resp.Body, nil
}

// openStream passa pelo breaker só a abertura; falhas no meio do corpo não contam.
func (c *Client) openStream(ctx context.Context, method, endpoint, token string, data any) (*http.Response, error) {
	exec := func() (*http.Response, error) {
		req, err := c.newRequest(ctx, method, endpoint, token, data)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "text/event-stream, application/x-ndjson, text/plain")
		client := *c.httpClient
		client.Timeout = 0
		return client.Do(req)
	}

	if c.breaker == nil {
		return exec()
	}

	out, err := c.breaker.Execute(func() (interface{}, error) {
		resp, err := exec()
		if err != nil {
			return nil, err
		}
		if resp.StatusCode >= 500 {
			return resp, errServerStatus
		}
		return resp, nil
	})
	if resp, ok := out.(*http.Response); ok && resp != nil {
		return resp, nil
	}
	return nil, err
}

func (c *Client) token(ctx context.Context) (string, error) {
	if c.tokens == nil {
		return "", nil
	}
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return "", fmt.Errorf("apiclient: token: %w", err)
	}
	return token, nil
}

func (c *Client) endpoint(req Request) (string, error) {
	if strings.TrimSpace(req.Method) == "" {
		return "", errors.New("apiclient: método obrigatório")
	}
	path := strings.TrimSpace(req.Path)
	if path == "" {
		return "", errors.New("apiclient: rota obrigatória")
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	endpoint := c.baseURL + path
	if q := req.Params.Encode(); q != "" {
		endpoint += "?" + q
	}
	return endpoint, nil
}

func (c *Client) dedup(ctx context.Context, method, endpoint, token string) ([]byte, error) {
	key := method + " " + endpoint + " " + token
	ch := c.group.DoChan(key, func() (any, error) {
		// a chamada compartilhada não herda o cancelamento de quem chegou primeiro
		return c.execute(context.WithoutCancel(ctx), method, endpoint, token, nil)
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]byte), nil
	}
}

type response struct {
	status int
	body   []byte
}

var errServerStatus = errors.New("apiclient: erro do servidor")

func (c *Client) execute(ctx context.Context, method, endpoint, token string, data any) ([]byte, error) {
	start := time.Now()
	resp, err := c.roundTrip(ctx, method, endpoint, token, data)

	event := c.logger.Debug().Str("method", method).Str("endpoint", endpoint).Dur("duration", time.Since(start))
	if err != nil {
		event.Err(err).Msg("api_request")
		return nil, err
	}
	event.Int("status", resp.status).Msg("api_request")

	if resp.status < 200 || resp.status >= 300 {
		return nil, newAPIError(resp.status, resp.body)
	}
	return resp.body, nil
}

func (c *Client) roundTrip(ctx context.Context, method, endpoint, token string, data any) (*response, error) {
	exec := func() (*response, error) {
		req, err := c.newRequest(ctx, method, endpoint, token, data)
		if err != nil {
			return nil, err
		}
		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		payload, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, err
		}
		return &response{status: resp.StatusCode, body: payload}, nil
	}

	if c.breaker == nil {
		return exec()
	}

	out, err := c.breaker.Execute(func() (interface{}, error) {
		r, err := exec()
		if err != nil {
			return nil, err
		}
		if r.status >= 500 {
			return r, errServerStatus
		}
		return r, nil
	})
	if r, ok := out.(*response); ok && r != nil {
		return r, nil
	}
	return nil, err
}

func (c *Client) newRequest(ctx context.Context, method, endpoint, token string, data any) (*http.Request, error) {
	var reader io.Reader
	if data != nil {
		payload, err := json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("apiclient: corpo inválido: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, strings.ToUpper(method), endpoint, reader)
	if err != nil {
		return nil, err
	}
	if data != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req, nil
}

// Call executa a requisição e devolve a resposta tipada.
func Call[T any](ctx context.Context, r Requester, req Request) (T, error) {
	var out T
	if err := r.Do(ctx, req, &out); err != nil {
		return out, err
	}
	return out, nil
}
