package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/smarterfit/smarterfit/internal/auth"
)

// SessionCookie guarda o token assinado que identifica a sessão do navegador.
const SessionCookie = "sf_session"

type contextKey string

const (
	ContextKeySession contextKey = "session"
	ContextKeyRoles   contextKey = "roles"
)

// Session resolve o id da sessão a partir do cookie ou do header Bearer.
// Token ausente ou inválido segue sem sessão; rotas protegidas usam RequireSession.
func Session(signer *auth.SessionSigner) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := sessionToken(r)
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}
			sessionID, err := signer.Verify(token)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithSessionID(r.Context(), sessionID)))
		})
	}
}

func sessionToken(r *http.Request) string {
	if c, err := r.Cookie(SessionCookie); err == nil && c.Value != "" {
		return c.Value
	}
	parts := strings.SplitN(r.Header.Get("Authorization"), " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		return strings.TrimSpace(parts[1])
	}
	return ""
}

// RequireSession barra requisições sem sessão válida.
func RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if GetSessionID(r.Context()) == "" {
			writeError(w, http.StatusUnauthorized, "AUTH", "sessão ausente ou expirada")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// WithSessionID injeta o id da sessão no contexto.
func WithSessionID(ctx context.Context, sessionID string) context.Context {
	return context.WithValue(ctx, ContextKeySession, sessionID)
}

// GetSessionID recupera o id da sessão do contexto.
func GetSessionID(ctx context.Context) string {
	val, _ := ctx.Value(ContextKeySession).(string)
	return val
}

// WithRoles injeta os papéis do usuário logado.
func WithRoles(ctx context.Context, roles []string) context.Context {
	return context.WithValue(ctx, ContextKeyRoles, roles)
}

// GetRoles recupera papéis do contexto.
func GetRoles(ctx context.Context) []string {
	val, _ := ctx.Value(ContextKeyRoles).([]string)
	return val
}

// RequireRoles garante que o usuário possua pelo menos um dos papéis informados.
func RequireRoles(requiredRoles ...string) func(http.Handler) http.Handler {
	normalized := make([]string, 0, len(requiredRoles))
	for _, role := range requiredRoles {
		role = strings.ToUpper(strings.TrimSpace(role))
		if role != "" {
			normalized = append(normalized, role)
		}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for _, role := range GetRoles(r.Context()) {
				roleUpper := strings.ToUpper(strings.TrimSpace(role))
				for _, required := range normalized {
					if roleUpper == required {
						next.ServeHTTP(w, r)
						return
					}
				}
			}
			writeError(w, http.StatusForbidden, "FORBIDDEN", "acesso restrito à equipe da academia")
		})
	}
}
