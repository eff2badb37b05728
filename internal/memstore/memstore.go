// Package memstore dá aos ledgers em memória uma transação no formato das de
// banco: Begin pega o lock do store, cada mutação registra um passo de undo e
// o lock é liberado por Commit ou Rollback. Só uma transação por store fica
// aberta por vez, então verificar e debitar dentro dela nunca se intercala
// com outra.
package memstore

import (
	"context"
	"sync"

	"github.com/pkg/errors"
)

// ErrTxDone é retornado ao reusar uma transação já finalizada
var ErrTxDone = errors.New("transaction already committed or rolled back")

// Store é o lock compartilhado pelos maps de um ledger
type Store struct {
	mu sync.Mutex
}

func New() *Store {
	return &Store{}
}

// Begin bloqueia até o store ficar livre. Contexto já encerrado é recusado
// antes de pegar o lock.
func (s *Store) Begin(ctx context.Context) (*Tx, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(err, "begin transaction")
	}
	s.mu.Lock()
	return &Tx{store: s}, nil
}

// View executa fn com o lock do store, para leitura
func (s *Store) View(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn()
}

// Tx é uma transação aberta. Não deve ser usada por várias goroutines.
type Tx struct {
	store *Store
	undo  []func()
	done  bool
}

// OnRollback registra fn para rodar se a transação for desfeita. Os passos
// rodam na ordem inversa do registro.
func (tx *Tx) OnRollback(fn func()) {
	tx.undo = append(tx.undo, fn)
}

// Active indica se a transação ainda pode ser usada
func (tx *Tx) Active() bool {
	return !tx.done
}

func (tx *Tx) Commit() error {
	if tx.done {
		return ErrTxDone
	}
	tx.done = true
	tx.undo = nil
	tx.store.mu.Unlock()
	return nil
}

func (tx *Tx) Rollback() error {
	if tx.done {
		return ErrTxDone
	}
	for i := len(tx.undo) - 1; i >= 0; i-- {
		tx.undo[i]()
	}
	tx.done = true
	tx.undo = nil
	tx.store.mu.Unlock()
	return nil
}

// Unwrap retorna a transação do store por trás de tx. Falha quando tx é de
// outro tipo ou já foi finalizada.
func Unwrap(tx interface{}) (*Tx, error) {
	memTx, ok := tx.(*Tx)
	if !ok {
		return nil, errors.Errorf("unexpected transaction type %T", tx)
	}
	if memTx.done {
		return nil, ErrTxDone
	}
	return memTx, nil
}
