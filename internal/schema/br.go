package schema

import (
	"errors"
	"net/mail"
	"strings"
)

// Digits mantém apenas os dígitos (CPF, CEP e telefone seguem só com números).
func Digits(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// ValidCPF confere tamanho e dígitos verificadores. Aceita com ou sem máscara.
func ValidCPF(cpf string) bool {
	d := Digits(cpf)
	if len(d) != 11 {
		return false
	}
	allSame := true
	for i := 1; i < 11; i++ {
		if d[i] != d[0] {
			allSame = false
			break
		}
	}
	if allSame {
		return false
	}
	for _, n := range []int{9, 10} {
		sum := 0
		for i := 0; i < n; i++ {
			sum += int(d[i]-'0') * (n + 1 - i)
		}
		check := (sum * 10) % 11
		if check == 10 {
			check = 0
		}
		if check != int(d[n]-'0') {
			return false
		}
	}
	return true
}

// ValidCEP aceita 8 dígitos, com hífen opcional (00000-000).
func ValidCEP(cep string) bool {
	cep = strings.TrimSpace(cep)
	if len(cep) == 9 && cep[5] == '-' {
		cep = cep[:5] + cep[6:]
	}
	return len(cep) == 8 && Digits(cep) == cep
}

// ValidPhone aceita DDD + número, fixo (10) ou celular (11).
func ValidPhone(phone string) bool {
	d := Digits(phone)
	return len(d) == 10 || len(d) == 11
}

// ValidateEmail retorna erro para e-mails inválidos.
func ValidateEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return errors.New("email obrigatório")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return errors.New("email inválido")
	}
	return nil
}
