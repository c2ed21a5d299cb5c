package flow

import (
	"context"
	"errors"
	"sync"

	"github.com/smarterfit/smarterfit/internal/apiclient"
	"github.com/smarterfit/smarterfit/internal/schema"
)

var (
	ErrFormClosed = errors.New("flow: formulário fechado")
	ErrSubmitting = errors.New("flow: envio em andamento")
)

// FormState segue idle → editing → submitting → (idle | editing).
type FormState int

const (
	FormIdle FormState = iota
	FormEditing
	FormSubmitting
)

func (s FormState) String() string {
	switch s {
	case FormEditing:
		return "editing"
	case FormSubmitting:
		return "submitting"
	}
	return "idle"
}

type FormConfig[T any] struct {
	Initial        T
	Submit         func(ctx context.Context, values T) error
	Notifier       Notifier
	SuccessMessage string
	ErrorFallback  string
	// OnSuccess roda depois do fechamento, normalmente para recarregar a lista do pai.
	OnSuccess func()
}

// Form controla um diálogo de cadastro ou edição.
type Form[T any] struct {
	mu     sync.Mutex
	cfg    FormConfig[T]
	state  FormState
	values T
}

func NewForm[T any](cfg FormConfig[T]) *Form[T] {
	if cfg.ErrorFallback == "" {
		cfg.ErrorFallback = "não foi possível salvar"
	}
	return &Form[T]{cfg: cfg, values: cfg.Initial}
}

// Open abre o diálogo preservando valores já digitados.
func (f *Form[T]) Open() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state == FormIdle {
		f.state = FormEditing
	}
}

// Close fecha e descarta as alterações.
func (f *Form[T]) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state == FormSubmitting {
		return
	}
	f.state = FormIdle
	f.values = f.cfg.Initial
}

// Set altera os valores em edição.
func (f *Form[T]) Set(edit func(*T)) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	switch f.state {
	case FormIdle:
		return ErrFormClosed
	case FormSubmitting:
		return ErrSubmitting
	}
	edit(&f.values)
	return nil
}

func (f *Form[T]) Values() T {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.values
}

func (f *Form[T]) State() FormState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Submit valida e envia. Em sucesso limpa, fecha e avisa; em falha mantém os
// valores, continua aberto e mostra a mensagem do erro.
func (f *Form[T]) Submit(ctx context.Context) error {
	f.mu.Lock()
	switch f.state {
	case FormIdle:
		f.mu.Unlock()
		return ErrFormClosed
	case FormSubmitting:
		f.mu.Unlock()
		return ErrSubmitting
	}
	values := f.values
	if err := schema.Validate(values); err != nil {
		f.mu.Unlock()
		f.notify(ToastError, apiclient.MessageFromError(err, f.cfg.ErrorFallback))
		return err
	}
	f.state = FormSubmitting
	f.mu.Unlock()

	err := f.cfg.Submit(ctx, values)

	f.mu.Lock()
	if err != nil {
		f.state = FormEditing
		f.mu.Unlock()
		f.notify(ToastError, apiclient.MessageFromError(err, f.cfg.ErrorFallback))
		return err
	}
	f.state = FormIdle
	f.values = f.cfg.Initial
	f.mu.Unlock()

	if f.cfg.SuccessMessage != "" {
		f.notify(ToastSuccess, f.cfg.SuccessMessage)
	}
	if f.cfg.OnSuccess != nil {
		f.cfg.OnSuccess()
	}
	return nil
}

func (f *Form[T]) notify(kind ToastKind, msg string) {
	if f.cfg.Notifier != nil {
		f.cfg.Notifier.Notify(Toast{Kind: kind, Message: msg})
	}
}
