package http

import (
	"errors"
	"net/http"
	"time"

	httpmiddleware "github.com/smarterfit/smarterfit/internal/http/middleware"
	"github.com/smarterfit/smarterfit/internal/session"
	"github.com/smarterfit/smarterfit/internal/useraccess"
)

type loginResponse struct {
	User         *useraccess.User `json:"user"`
	SessionToken string           `json:"sessionToken"`
}

// Login autentica no backend e abre uma sessão do navegador guardada no Redis.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req useraccess.LoginRequest
	if !decode(w, r, &req) || !validate(w, req) {
		return
	}
	ctx := r.Context()

	sessionID, token, err := h.signer.Issue()
	if err != nil {
		h.logger.Error().Err(err).Msg("falha ao emitir sessão")
		WriteError(w, http.StatusInternalServerError, "INTERNAL", "erro interno", nil)
		return
	}
	store := h.storeFor(sessionID)
	users := useraccess.NewService(h.api.WithSession(store, nil))

	resp, err := users.Login(ctx, req)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	if err := store.Login(ctx, resp.Token, resp.User); err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	user := resp.User
	if user == nil {
		userID, err := store.UserID(ctx)
		if err != nil {
			h.writeServiceError(w, r, err)
			return
		}
		fetched, err := users.GetUser(ctx, userID)
		if err != nil {
			_ = store.Clear(ctx)
			h.writeServiceError(w, r, err)
			return
		}
		if err := store.SetUser(ctx, fetched); err != nil {
			h.writeServiceError(w, r, err)
			return
		}
		user = &fetched
	}

	h.setSessionCookie(w, token, h.now().Add(h.signer.TTL()))
	h.logger.Info().Str("user_id", user.ID).Msg("login realizado")
	WriteJSON(w, http.StatusOK, loginResponse{User: user, SessionToken: token})
}

// Logout limpa a sessão mesmo quando ela já expirou.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if sessionID := httpmiddleware.GetSessionID(r.Context()); sessionID != "" {
		if err := h.storeFor(sessionID).Clear(r.Context()); err != nil {
			h.writeServiceError(w, r, err)
			return
		}
	}
	h.setSessionCookie(w, "", time.Unix(0, 0))
	w.WriteHeader(http.StatusNoContent)
}

type registerPayload struct {
	useraccess.RegisterRequest
	ConfirmPassword string `json:"confirmPassword"`
}

// Register cria a conta; a confirmação de senha é conferida aqui e não segue ao backend.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var payload registerPayload
	if !decode(w, r, &payload) {
		return
	}
	req := payload.RegisterRequest
	req.ConfirmPassword = payload.ConfirmPassword
	req.Profile = req.Profile.Normalize()
	if req.Profile.Address != nil {
		addr := req.Profile.Address.Normalize()
		req.Profile.Address = &addr
	}
	if !validate(w, req) {
		return
	}

	user, err := useraccess.NewService(h.api).Register(r.Context(), req)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusCreated, user)
}

// Me devolve o usuário da sessão, buscando no backend quando ainda não está guardado.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	sc := h.scope(r)
	ctx := r.Context()

	user, err := sc.store.User(ctx)
	if err != nil && !errors.Is(err, session.ErrNoSession) {
		h.writeServiceError(w, r, err)
		return
	}
	if user == nil {
		userID, err := sc.store.UserID(ctx)
		if err != nil {
			h.writeServiceError(w, r, err)
			return
		}
		fetched, err := useraccess.NewService(sc.api).GetUser(ctx, userID)
		if err != nil {
			h.writeServiceError(w, r, err)
			return
		}
		if err := sc.store.SetUser(ctx, fetched); err != nil {
			h.writeServiceError(w, r, err)
			return
		}
		user = &fetched
	}
	WriteJSON(w, http.StatusOK, user)
}

func (h *Handler) setSessionCookie(w http.ResponseWriter, token string, expires time.Time) {
	cookie := &http.Cookie{
		Name:     httpmiddleware.SessionCookie,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   !h.devCookies,
		SameSite: http.SameSiteLaxMode,
	}
	if token == "" {
		cookie.MaxAge = -1
	}
	http.SetCookie(w, cookie)
}
