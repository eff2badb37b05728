package memstore

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTx_RollbackRunsUndoInReverse(t *testing.T) {
	store := New()
	tx, err := store.Begin(context.Background())
	require.NoError(t, err)

	var order []int
	tx.OnRollback(func() { order = append(order, 1) })
	tx.OnRollback(func() { order = append(order, 2) })

	require.NoError(t, tx.Rollback())
	assert.Equal(t, []int{2, 1}, order)
	assert.False(t, tx.Active())
	assert.ErrorIs(t, tx.Rollback(), ErrTxDone)
	assert.ErrorIs(t, tx.Commit(), ErrTxDone)
}

func TestTx_CommitDiscardsUndoAndReleasesLock(t *testing.T) {
	store := New()
	tx, err := store.Begin(context.Background())
	require.NoError(t, err)

	called := false
	tx.OnRollback(func() { called = true })
	require.NoError(t, tx.Commit())

	// Rollback adiado depois do Commit não desfaz nada
	assert.ErrorIs(t, tx.Rollback(), ErrTxDone)
	assert.False(t, called)

	next, err := store.Begin(context.Background())
	require.NoError(t, err)
	require.NoError(t, next.Commit())
}

func TestStore_BeginRejectsCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New().Begin(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestStore_SerializesTransactions(t *testing.T) {
	store := New()
	counter := 0

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tx, err := store.Begin(context.Background())
			if err != nil {
				return
			}
			current := counter
			counter = current + 1
			_ = tx.Commit()
		}()
	}
	wg.Wait()

	var got int
	store.View(func() { got = counter })
	assert.Equal(t, 50, got)
}

func TestUnwrap(t *testing.T) {
	store := New()
	tx, err := store.Begin(context.Background())
	require.NoError(t, err)

	got, err := Unwrap(tx)
	require.NoError(t, err)
	assert.Same(t, tx, got)

	require.NoError(t, tx.Commit())
	_, err = Unwrap(tx)
	assert.ErrorIs(t, err, ErrTxDone)

	_, err = Unwrap("not a tx")
	assert.Error(t, err)
}
