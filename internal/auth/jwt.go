package auth

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ErrInvalidToken indica cookie de sessão adulterado, expirado ou mal formado.
var ErrInvalidToken = errors.New("token inválido")

// Claims representa o que o cliente lê do token emitido pelo backend.
type Claims struct {
	Roles  []string `json:"roles"`
	UserID string   `json:"userId,omitempty"`
	jwt.RegisteredClaims
}

// UserSubject devolve o usuário do token, preferindo o claim userId.
func (c *Claims) UserSubject() string {
	if strings.TrimSpace(c.UserID) != "" {
		return c.UserID
	}
	return c.RegisteredClaims.Subject
}

// Expiry devolve a expiração do token ou zero quando ausente.
func (c *Claims) Expiry() time.Time {
	if c.ExpiresAt == nil {
		return time.Time{}
	}
	return c.ExpiresAt.Time
}

// ParseBackendToken decodifica o token do backend sem verificar assinatura.
// O segredo pertence ao backend; aqui só interessam expiração e sujeito.
func ParseBackendToken(token string) (*Claims, error) {
	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, err
	}
	return claims, nil
}

// SessionSigner assina o cookie de sessão do BFF, que carrega apenas o id da sessão.
type SessionSigner struct {
	secret []byte
	ttl    time.Duration
}

// NewSessionSigner cria o assinador com segredo e TTL configurados.
func NewSessionSigner(secret string, ttl time.Duration) *SessionSigner {
	return &SessionSigner{secret: []byte(secret), ttl: ttl}
}

// Issue cria uma nova sessão e devolve o id e o token HS256 que o representa.
func (s *SessionSigner) Issue() (string, string, error) {
	now := time.Now().UTC()
	sessionID := uuid.NewString()

	claims := jwt.RegisteredClaims{
		Subject:   sessionID,
		Audience:  jwt.ClaimStrings{"smarterfit-bff"},
		ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		IssuedAt:  jwt.NewNumericDate(now),
		ID:        uuid.NewString(),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", "", err
	}
	return sessionID, signed, nil
}

// Verify valida assinatura e expiração e devolve o id da sessão.
func (s *SessionSigner) Verify(tokenString string) (string, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithAudience("smarterfit-bff"),
		jwt.WithExpirationRequired(),
	)

	claims := &jwt.RegisteredClaims{}
	token, err := parser.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return "", ErrInvalidToken
	}
	if _, err := uuid.Parse(claims.Subject); err != nil {
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}

// TTL é a duração de cada sessão emitida.
func (s *SessionSigner) TTL() time.Duration {
	return s.ttl
}
