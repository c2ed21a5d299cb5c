package useraccess

import (
	"github.com/smarterfit/smarterfit/internal/apiclient"
	"github.com/smarterfit/smarterfit/internal/schema"
)

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=1"`
}

// RegisterRequest cria usuário e perfil numa única chamada.
type RegisterRequest struct {
	Email           string         `json:"email" validate:"required,email,max=120"`
	Password        string         `json:"password" validate:"required,min=8,max=64"`
	ConfirmPassword string         `json:"-" validate:"required,eqfield=Password"`
	Profile         ProfileRequest `json:"profile"`
}

type ProfileRequest struct {
	FullName  string          `json:"fullName" validate:"required,min=3,max=120"`
	CPF       string          `json:"cpf" validate:"required,cpf"`
	Phone     string          `json:"phone" validate:"required,phone_br"`
	BirthDate string          `json:"birthDate" validate:"required,date"`
	Gender    string          `json:"gender" validate:"required,oneof=MASCULINO FEMININO OUTRO NAO_INFORMADO"`
	Address   *AddressRequest `json:"address,omitempty" validate:"omitempty"`
}

// Normalize deixa CPF e telefone só com dígitos, como o backend espera.
func (p ProfileRequest) Normalize() ProfileRequest {
	p.CPF = schema.Digits(p.CPF)
	p.Phone = schema.Digits(p.Phone)
	if p.Address != nil {
		a := p.Address.Normalize()
		p.Address = &a
	}
	return p
}

type AddressRequest struct {
	CEP          string `json:"cep" validate:"required,cep"`
	Street       string `json:"street" validate:"required,max=150"`
	Number       string `json:"number" validate:"required,max=10"`
	Complement   string `json:"complement,omitempty" validate:"max=80"`
	Neighborhood string `json:"neighborhood" validate:"required,max=80"`
	City         string `json:"city" validate:"required,max=80"`
	State        string `json:"state" validate:"required,len=2"`
}

func (a AddressRequest) Normalize() AddressRequest {
	a.CEP = schema.Digits(a.CEP)
	return a
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=8,max=64,nefield=CurrentPassword"`
}

type PasswordRecoveryRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// UserFilter filtra a listagem administrativa de usuários.
type UserFilter struct {
	Email string `validate:"omitempty,max=120"`
	Role  string `validate:"omitempty,oneof=ADMIN PROPRIETARIO INSTRUTOR ALUNO"`
	apiclient.Pagination
}

func (f UserFilter) params() apiclient.Params {
	return f.Pagination.Apply(apiclient.Params{"email": f.Email, "role": f.Role})
}
