package useraccess

import (
	"context"
	"net/http"
	"net/url"

	"github.com/smarterfit/smarterfit/internal/apiclient"
)

// Service traduz operações de autenticação, usuários e perfis em chamadas ao backend.
type Service struct {
	api apiclient.Requester
}

func NewService(api apiclient.Requester) *Service {
	return &Service{api: api}
}

func (s *Service) Login(ctx context.Context, req LoginRequest) (LoginResponse, error) {
	return apiclient.Call[LoginResponse](ctx, s.api, apiclient.Request{Method: http.MethodPost, Path: "/auth/login", Data: req})
}

func (s *Service) Register(ctx context.Context, req RegisterRequest) (User, error) {
	req.Profile = req.Profile.Normalize()
	return apiclient.Call[User](ctx, s.api, apiclient.Request{Method: http.MethodPost, Path: "/auth/registro", Data: req})
}

func (s *Service) RecoverPassword(ctx context.Context, req PasswordRecoveryRequest) error {
	return s.api.Do(ctx, apiclient.Request{Method: http.MethodPost, Path: "/auth/recuperar-senha", Data: req}, nil)
}

func (s *Service) GetUser(ctx context.Context, userID string) (User, error) {
	return apiclient.Call[User](ctx, s.api, apiclient.Request{Method: http.MethodGet, Path: "/usuarios/" + url.PathEscape(userID)})
}

func (s *Service) ListUsers(ctx context.Context, f UserFilter) (apiclient.Page[User], error) {
	return apiclient.Call[apiclient.Page[User]](ctx, s.api, apiclient.Request{Method: http.MethodGet, Path: "/usuarios", Params: f.params()})
}

func (s *Service) ChangePassword(ctx context.Context, userID string, req ChangePasswordRequest) error {
	return s.api.Do(ctx, apiclient.Request{Method: http.MethodPut, Path: "/usuarios/" + url.PathEscape(userID) + "/senha", Data: req}, nil)
}

func (s *Service) DeleteUser(ctx context.Context, userID string) error {
	return s.api.Do(ctx, apiclient.Request{Method: http.MethodDelete, Path: "/usuarios/" + url.PathEscape(userID)}, nil)
}

func (s *Service) GetProfile(ctx context.Context, profileID string) (Profile, error) {
	return apiclient.Call[Profile](ctx, s.api, apiclient.Request{Method: http.MethodGet, Path: "/perfis/" + url.PathEscape(profileID)})
}

func (s *Service) UpdateProfile(ctx context.Context, profileID string, req ProfileRequest) (Profile, error) {
	return apiclient.Call[Profile](ctx, s.api, apiclient.Request{Method: http.MethodPut, Path: "/perfis/" + url.PathEscape(profileID), Data: req.Normalize()})
}

func (s *Service) UpdateAddress(ctx context.Context, profileID string, req AddressRequest) (Address, error) {
	return apiclient.Call[Address](ctx, s.api, apiclient.Request{Method: http.MethodPut, Path: "/perfis/" + url.PathEscape(profileID) + "/endereco", Data: req.Normalize()})
}
