package flow

import (
	"context"
	"errors"
	"sync"
)

// ErrStale indica que uma busca mais nova para a mesma chave substituiu esta.
var ErrStale = errors.New("flow: resposta descartada por uma busca mais recente")

// Latest mantém só a busca mais recente por chave: iniciar outra cancela a anterior.
type Latest struct {
	mu      sync.Mutex
	seq     uint64
	running map[string]latestEntry
}

type latestEntry struct {
	seq    uint64
	cancel context.CancelFunc
}

func NewLatest() *Latest {
	return &Latest{running: make(map[string]latestEntry)}
}

func (l *Latest) begin(ctx context.Context, key string) (context.Context, uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if prev, ok := l.running[key]; ok {
		prev.cancel()
	}
	l.seq++
	runCtx, cancel := context.WithCancel(ctx)
	l.running[key] = latestEntry{seq: l.seq, cancel: cancel}
	return runCtx, l.seq
}

// end libera a chave e informa se a execução ainda era a mais recente.
func (l *Latest) end(key string, seq uint64) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	cur, ok := l.running[key]
	if !ok || cur.seq != seq {
		return false
	}
	cur.cancel()
	delete(l.running, key)
	return true
}

// Cancel interrompe a busca em andamento para a chave, se houver.
func (l *Latest) Cancel(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if cur, ok := l.running[key]; ok {
		cur.cancel()
		delete(l.running, key)
	}
}

// RunLatest executa fn sob a chave; se outra execução começar antes do fim,
// o resultado desta é descartado com ErrStale.
func RunLatest[T any](ctx context.Context, l *Latest, key string, fn func(context.Context) (T, error)) (T, error) {
	runCtx, seq := l.begin(ctx, key)
	value, err := fn(runCtx)
	if !l.end(key, seq) {
		var zero T
		return zero, ErrStale
	}
	return value, err
}
