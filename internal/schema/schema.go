// Package schema valida payloads de requisição antes do envio ao backend.
// A validação é consultiva: o backend continua sendo a autoridade.
package schema

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
)

// DateLayout é o formato de data trafegado com o backend.
const DateLayout = "2006-01-02"

var (
	once     sync.Once
	validate *validator.Validate

	hhmmPattern = regexp.MustCompile(`^([01][0-9]|2[0-3]):[0-5][0-9]$`)
)

// FieldError descreve uma falha de validação em um campo.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError agrega as falhas de um payload.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return "validação: " + strings.Join(parts, "; ")
}

// UserMessage devolve a primeira falha, usada como texto de toast.
func (e *ValidationError) UserMessage() string {
	if len(e.Fields) == 0 {
		return "dados inválidos"
	}
	return e.Fields[0].Message
}

// Validator devolve a instância compartilhada com as regras customizadas registradas.
func Validator() *validator.Validate {
	once.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name == "" {
				return fld.Name
			}
			return name
		})
		mustRegister(v, "cpf", func(fl validator.FieldLevel) bool { return ValidCPF(fl.Field().String()) })
		mustRegister(v, "cep", func(fl validator.FieldLevel) bool { return ValidCEP(fl.Field().String()) })
		mustRegister(v, "phone_br", func(fl validator.FieldLevel) bool { return ValidPhone(fl.Field().String()) })
		mustRegister(v, "date", func(fl validator.FieldLevel) bool {
			_, err := time.Parse(DateLayout, fl.Field().String())
			return err == nil
		})
		mustRegister(v, "hhmm", func(fl validator.FieldLevel) bool { return hhmmPattern.MatchString(fl.Field().String()) })
		validate = v
	})
	return validate
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("schema: registrar %s: %v", tag, err))
	}
}

// checker é implementado por payloads com regras entre campos (ex.: intervalos de datas).
type checker interface {
	Check() []FieldError
}

// Validate aplica as tags validate e as regras entre campos. Devolve *ValidationError
// com ao menos uma falha quando o payload é inválido.
func Validate(payload any) error {
	var fields []FieldError

	if err := Validator().Struct(payload); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return err
		}
		for _, fe := range verrs {
			fields = append(fields, FieldError{Field: fieldPath(fe), Message: message(fe)})
		}
	}

	if c, ok := payload.(checker); ok {
		fields = append(fields, c.Check()...)
	}

	if len(fields) == 0 {
		return nil
	}
	return &ValidationError{Fields: fields}
}

// fieldPath remove o nome do struct raiz do namespace.
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if idx := strings.Index(ns, "."); idx >= 0 {
		return ns[idx+1:]
	}
	return fe.Field()
}

func message(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required", "required_if", "required_without":
		return field + " obrigatório"
	case "email":
		return "email inválido"
	case "uuid", "uuid4":
		return field + " deve ser um UUID válido"
	case "min":
		if isText(fe) {
			return fmt.Sprintf("%s deve ter pelo menos %s caracteres", field, fe.Param())
		}
		if isList(fe) {
			return fmt.Sprintf("%s deve ter pelo menos %s itens", field, fe.Param())
		}
		return fmt.Sprintf("%s deve ser no mínimo %s", field, fe.Param())
	case "max":
		if isText(fe) {
			return fmt.Sprintf("%s deve ter no máximo %s caracteres", field, fe.Param())
		}
		if isList(fe) {
			return fmt.Sprintf("%s deve ter no máximo %s itens", field, fe.Param())
		}
		return fmt.Sprintf("%s deve ser no máximo %s", field, fe.Param())
	case "gte":
		return fmt.Sprintf("%s deve ser maior ou igual a %s", field, fe.Param())
	case "gt":
		return fmt.Sprintf("%s deve ser maior que %s", field, fe.Param())
	case "lte":
		return fmt.Sprintf("%s deve ser menor ou igual a %s", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s deve ser um de: %s", field, strings.ReplaceAll(fe.Param(), " ", ", "))
	case "cpf":
		return "CPF inválido"
	case "cep":
		return "CEP inválido"
	case "phone_br":
		return "telefone inválido"
	case "date":
		return field + " deve estar no formato AAAA-MM-DD"
	case "datetime":
		return field + " deve ser uma data/hora válida"
	case "hhmm":
		return field + " deve estar no formato HH:MM"
	case "len":
		return fmt.Sprintf("%s deve ter %s caracteres", field, fe.Param())
	case "eqfield":
		return field + " não confere"
	}
	return field + " inválido"
}

func isText(fe validator.FieldError) bool {
	return fe.Kind() == reflect.String
}

func isList(fe validator.FieldError) bool {
	k := fe.Kind()
	return k == reflect.Slice || k == reflect.Array || k == reflect.Map
}

// DateRange verifica se start <= end (datas AAAA-MM-DD). Campos vazios ou mal formados
// ficam a cargo das tags.
func DateRange(startField, start, endField, end string) []FieldError {
	s, err1 := time.Parse(DateLayout, start)
	e, err2 := time.Parse(DateLayout, end)
	if err1 != nil || err2 != nil {
		return nil
	}
	if e.Before(s) {
		return []FieldError{{Field: endField, Message: endField + " deve ser igual ou posterior a " + startField}}
	}
	return nil
}

// TimeRange verifica se start < end (horários HH:MM).
func TimeRange(startField, start, endField, end string) []FieldError {
	if !hhmmPattern.MatchString(start) || !hhmmPattern.MatchString(end) {
		return nil
	}
	if end <= start {
		return []FieldError{{Field: endField, Message: endField + " deve ser posterior a " + startField}}
	}
	return nil
}

// FormatDate converte para o formato trafegado com o backend.
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(DateLayout)
}
