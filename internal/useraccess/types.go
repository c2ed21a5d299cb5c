package useraccess

import "strings"

// Papéis conhecidos do backend.
const (
	RoleAdmin      = "ADMIN"
	RoleOwner      = "PROPRIETARIO"
	RoleInstructor = "INSTRUTOR"
	RoleMember     = "ALUNO"
)

// User espelha a resposta de usuário do backend.
type User struct {
	ID      string   `json:"id"`
	Email   string   `json:"email"`
	Roles   []string `json:"roles"`
	Profile *Profile `json:"profile,omitempty"`
}

// HasRole compara ignorando caixa.
func (u User) HasRole(role string) bool {
	for _, r := range u.Roles {
		if strings.EqualFold(strings.TrimSpace(r), role) {
			return true
		}
	}
	return false
}

// DisplayName devolve o nome do perfil ou o e-mail.
func (u User) DisplayName() string {
	if u.Profile != nil && strings.TrimSpace(u.Profile.FullName) != "" {
		return u.Profile.FullName
	}
	return u.Email
}

type Profile struct {
	ID        string   `json:"id"`
	FullName  string   `json:"fullName"`
	CPF       string   `json:"cpf"`
	Phone     string   `json:"phone"`
	BirthDate string   `json:"birthDate"`
	Gender    string   `json:"gender"`
	Address   *Address `json:"address,omitempty"`
}

type Address struct {
	CEP          string `json:"cep"`
	Street       string `json:"street"`
	Number       string `json:"number"`
	Complement   string `json:"complement,omitempty"`
	Neighborhood string `json:"neighborhood"`
	City         string `json:"city"`
	State        string `json:"state"`
}

// LoginResponse traz o token de acesso e o usuário autenticado.
type LoginResponse struct {
	Token  string `json:"token"`
	UserID string `json:"userId"`
	User   *User  `json:"user,omitempty"`
}
