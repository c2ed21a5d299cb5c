// Package flow reúne os estados de tela compartilhados pelo BFF e pela CLI:
// carregamento de dados, cancelamento da busca mais recente e formulários com toast.
package flow

import (
	"context"
	"sync"
)

// Status é o ciclo de uma busca: idle → loading → success | error.
type Status int

const (
	Idle Status = iota
	Loading
	Success
	Failed
)

func (s Status) String() string {
	switch s {
	case Loading:
		return "loading"
	case Success:
		return "success"
	case Failed:
		return "error"
	}
	return "idle"
}

// Tracker guarda o resultado da última execução. Cada Run substitui o valor anterior,
// então recarregar uma lista nunca acumula itens.
type Tracker[T any] struct {
	mu     sync.RWMutex
	status Status
	value  T
	err    error
}

// Run executa fn marcando loading; em erro mantém o último valor e registra a falha.
func (t *Tracker[T]) Run(ctx context.Context, fn func(context.Context) (T, error)) (T, error) {
	t.mu.Lock()
	t.status = Loading
	t.err = nil
	t.mu.Unlock()

	value, err := fn(ctx)

	t.mu.Lock()
	defer t.mu.Unlock()
	if err != nil {
		t.status = Failed
		t.err = err
		return value, err
	}
	t.status = Success
	t.value = value
	return value, nil
}

func (t *Tracker[T]) Status() Status {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.status
}

// Value devolve o último valor carregado com sucesso.
func (t *Tracker[T]) Value() T {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.value
}

func (t *Tracker[T]) Err() error {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.err
}

// Reset volta ao estado inicial.
func (t *Tracker[T]) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	var zero T
	t.status = Idle
	t.value = zero
	t.err = nil
}
