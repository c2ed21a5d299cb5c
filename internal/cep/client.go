// Package cep consulta endereços pelo CEP para o preenchimento automático de cadastro.
package cep

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/smarterfit/smarterfit/internal/schema"
)

const (
	defaultBaseURL = "https://viacep.com.br"
	cacheTTL       = 24 * time.Hour
)

var (
	ErrInvalidCEP = errors.New("cep: formato inválido")
	ErrNotFound   = errors.New("cep: não encontrado")
)

// Address é o endereço devolvido pela consulta, já com os nomes usados no perfil.
type Address struct {
	CEP          string `json:"cep"`
	Street       string `json:"street"`
	Complement   string `json:"complement,omitempty"`
	Neighborhood string `json:"neighborhood"`
	City         string `json:"city"`
	State        string `json:"state"`
}

// Cache guarda consultas já resolvidas.
type Cache interface {
	Get(ctx context.Context, cep string) (Address, bool, error)
	Set(ctx context.Context, cep string, addr Address) error
}

// Config descreve o serviço de CEP.
type Config struct {
	BaseURL    string
	HTTPClient *http.Client
	Cache      Cache
	Logger     zerolog.Logger
}

// Client encapsula chamadas ao ViaCEP.
type Client struct {
	httpClient *http.Client
	baseURL    string
	cache      Cache
	logger     zerolog.Logger
}

// New cria um novo cliente; sem BaseURL usa o ViaCEP público.
func New(cfg Config) *Client {
	base := strings.TrimSpace(cfg.BaseURL)
	if base == "" {
		base = defaultBaseURL
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(base, "/"),
		cache:      cfg.Cache,
		logger:     cfg.Logger,
	}
}

// Lookup valida o CEP antes de consultar; falhas de cache não impedem a consulta.
func (c *Client) Lookup(ctx context.Context, raw string) (Address, error) {
	if !schema.ValidCEP(raw) {
		return Address{}, ErrInvalidCEP
	}
	digits := schema.Digits(raw)

	if c.cache != nil {
		addr, ok, err := c.cache.Get(ctx, digits)
		if err != nil {
			c.logger.Warn().Err(err).Str("cep", digits).Msg("cep_cache_get")
		} else if ok {
			return addr, nil
		}
	}

	addr, err := c.fetch(ctx, digits)
	if err != nil {
		return Address{}, err
	}

	if c.cache != nil {
		if err := c.cache.Set(ctx, digits, addr); err != nil {
			c.logger.Warn().Err(err).Str("cep", digits).Msg("cep_cache_set")
		}
	}
	return addr, nil
}

func (c *Client) fetch(ctx context.Context, digits string) (Address, error) {
	endpoint := fmt.Sprintf("%s/ws/%s/json/", c.baseURL, digits)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return Address{}, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Address{}, fmt.Errorf("cep: consulta: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusBadRequest:
		return Address{}, ErrInvalidCEP
	case resp.StatusCode == http.StatusNotFound:
		return Address{}, ErrNotFound
	case resp.StatusCode != http.StatusOK:
		return Address{}, fmt.Errorf("cep: status %d", resp.StatusCode)
	}

	var payload struct {
		CEP         string `json:"cep"`
		Logradouro  string `json:"logradouro"`
		Complemento string `json:"complemento"`
		Bairro      string `json:"bairro"`
		Localidade  string `json:"localidade"`
		UF          string `json:"uf"`
		Erro        any    `json:"erro"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return Address{}, fmt.Errorf("cep: resposta inválida: %w", err)
	}
	if notFound(payload.Erro) {
		return Address{}, ErrNotFound
	}

	return Address{
		CEP:          schema.Digits(payload.CEP),
		Street:       payload.Logradouro,
		Complement:   payload.Complemento,
		Neighborhood: payload.Bairro,
		City:         payload.Localidade,
		State:        payload.UF,
	}, nil
}

// notFound trata "erro": true e "erro": "true", formas que o ViaCEP já usou.
func notFound(v any) bool {
	switch e := v.(type) {
	case bool:
		return e
	case string:
		return strings.EqualFold(e, "true")
	}
	return false
}

// RedisCache guarda endereços por 24h sob o prefixo "cep:".
type RedisCache struct {
	client *redis.Client
}

func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{client: client}
}

func (r *RedisCache) Get(ctx context.Context, cep string) (Address, bool, error) {
	data, err := r.client.Get(ctx, "cep:"+cep).Bytes()
	if errors.Is(err, redis.Nil) {
		return Address{}, false, nil
	}
	if err != nil {
		return Address{}, false, err
	}
	var addr Address
	if err := json.Unmarshal(data, &addr); err != nil {
		return Address{}, false, err
	}
	return addr, true, nil
}

func (r *RedisCache) Set(ctx context.Context, cep string, addr Address) error {
	data, err := json.Marshal(addr)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, "cep:"+cep, data, cacheTTL).Err()
}
