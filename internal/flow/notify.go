package flow

import (
	"sync"

	"github.com/rs/zerolog"
)

type ToastKind string

const (
	ToastSuccess ToastKind = "success"
	ToastError   ToastKind = "error"
)

type Toast struct {
	Kind    ToastKind
	Message string
}

// Notifier recebe os avisos exibidos ao usuário.
type Notifier interface {
	Notify(Toast)
}

// LogNotifier escreve os avisos no log; usado pela CLI.
type LogNotifier struct {
	Logger zerolog.Logger
}

func (n LogNotifier) Notify(t Toast) {
	event := n.Logger.Info()
	if t.Kind == ToastError {
		event = n.Logger.Error()
	}
	event.Str("toast", string(t.Kind)).Msg(t.Message)
}

// Recorder acumula os avisos em memória.
type Recorder struct {
	mu     sync.Mutex
	toasts []Toast
}

func (r *Recorder) Notify(t Toast) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.toasts = append(r.toasts, t)
}

func (r *Recorder) Toasts() []Toast {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Toast(nil), r.toasts...)
}

// Last devolve o aviso mais recente.
func (r *Recorder) Last() (Toast, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.toasts) == 0 {
		return Toast{}, false
	}
	return r.toasts[len(r.toasts)-1], true
}
