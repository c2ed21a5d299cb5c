package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config centraliza a configuração carregada do ambiente.
type Config struct {
	Port            int
	APIBaseURL      string
	APITimeout      time.Duration
	RedisURL        string
	SessionSecret   string
	SessionTTL      time.Duration
	PresenceTTL     time.Duration
	SessionFile     string
	CEPBaseURL      string
	AllowOrigins    []string
	RateLimitPublic RateLimitConfig
	RateLimitAuth   RateLimitConfig
	CircuitBreaker  bool
	DedupGET        bool
	LogLevel        string
}

// RateLimitConfig representa limites simples para throttling.
type RateLimitConfig struct {
	RequestsPerSecond float64
	Burst             int
}

// Load carrega variáveis de ambiente e aplica defaults seguros.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}

	portStr := getEnv("PORT", "8080")
	port, err := strconv.Atoi(portStr)
	if err != nil || port <= 0 {
		return nil, errors.New("PORT inválida")
	}
	cfg.Port = port

	cfg.APIBaseURL = strings.TrimRight(strings.TrimSpace(getEnv("API_BASE_URL", "")), "/")
	if cfg.APIBaseURL == "" {
		return nil, errors.New("API_BASE_URL obrigatório")
	}

	timeout, err := parseDurationEnv("API_TIMEOUT", 15*time.Second)
	if err != nil {
		return nil, err
	}
	cfg.APITimeout = timeout

	cfg.RedisURL = strings.TrimSpace(getEnv("REDIS_URL", ""))
	cfg.SessionSecret = getEnv("SESSION_SECRET", "")

	sessionTTL, err := parseDurationEnv("SESSION_TTL", 12*time.Hour)
	if err != nil {
		return nil, err
	}
	cfg.SessionTTL = sessionTTL

	presenceTTL, err := parseDurationEnv("PRESENCE_TTL", 5*time.Minute)
	if err != nil {
		return nil, err
	}
	cfg.PresenceTTL = presenceTTL

	cfg.SessionFile = strings.TrimSpace(getEnv("SESSION_FILE", defaultSessionFile()))
	cfg.CEPBaseURL = strings.TrimSpace(getEnv("CEP_BASE_URL", "https://viacep.com.br"))

	allowOrigins := strings.Split(getEnv("ALLOW_ORIGINS", ""), ",")
	cfg.AllowOrigins = nil
	for _, origin := range allowOrigins {
		origin = strings.TrimSpace(origin)
		if origin != "" {
			cfg.AllowOrigins = append(cfg.AllowOrigins, origin)
		}
	}

	cfg.RateLimitPublic = RateLimitConfig{RequestsPerSecond: 10, Burst: 20}
	cfg.RateLimitAuth = RateLimitConfig{RequestsPerSecond: 10, Burst: 40}

	cfg.CircuitBreaker = parseBoolEnv("CIRCUIT_BREAKER_ENABLED", false)
	cfg.DedupGET = parseBoolEnv("DEDUP_GET", true)
	cfg.LogLevel = strings.ToLower(strings.TrimSpace(getEnv("LOG_LEVEL", "info")))

	return cfg, nil
}

// RequireBFF valida o que só o BFF precisa: Redis e segredo do cookie de sessão.
func (c *Config) RequireBFF() error {
	if c.RedisURL == "" {
		return errors.New("REDIS_URL obrigatório")
	}
	if len(c.SessionSecret) < 32 {
		return errors.New("SESSION_SECRET obrigatório (mínimo 32 caracteres)")
	}
	return nil
}

func defaultSessionFile() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return ".smarterfit-session.json"
	}
	return home + string(os.PathSeparator) + ".smarterfit-session.json"
}

func getEnv(key, def string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return def
}

func parseDurationEnv(key string, def time.Duration) (time.Duration, error) {
	val := getEnv(key, "")
	if val == "" {
		return def, nil
	}
	dur, err := time.ParseDuration(val)
	if err != nil {
		return 0, errors.New(key + " inválido")
	}
	return dur, nil
}

func parseBoolEnv(key string, def bool) bool {
	val := strings.TrimSpace(getEnv(key, ""))
	if val == "" {
		return def
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return def
	}
	return b
}
