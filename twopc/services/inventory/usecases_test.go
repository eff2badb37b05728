package main

import (
	"context"
	"sync"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSeededUseCase(stock map[string]int) (*InventoryUseCase, *MemoryInventoryRepository) {
	repository := NewMemoryInventoryRepository()
	repository.Seed(stock)
	return NewInventoryUseCase(repository), repository
}

func TestReserve_DebitsStockAndCommitKeepsIt(t *testing.T) {
	// Arrange
	ctx := context.Background()
	uc, _ := newSeededUseCase(map[string]int{"sku1": 10})

	// Act
	reservation, err := uc.Reserve(ctx, ReserveRequest{ProductID: "sku1", Quantity: 2})

	// Assert
	require.NoError(t, err)
	assert.NotEmpty(t, reservation.ReservationID)
	assert.Equal(t, ReservationStatusHeld, reservation.Status)

	view, err := uc.GetStock(ctx, "sku1")
	require.NoError(t, err)
	assert.Equal(t, 8, view.Available)
	assert.Equal(t, 2, view.Held)

	ack, err := uc.Commit(ctx, reservation.ReservationID)
	require.NoError(t, err)
	assert.Equal(t, AckCommitted, ack.Status)

	view, err = uc.GetStock(ctx, "sku1")
	require.NoError(t, err)
	assert.Equal(t, 8, view.Available)
	assert.Equal(t, 0, view.Held)
}

func TestReserve_RequestingEverythingAvailableFails(t *testing.T) {
	ctx := context.Background()
	uc, _ := newSeededUseCase(map[string]int{"sku1": 10})

	reservation, err := uc.Reserve(ctx, ReserveRequest{ProductID: "sku1", Quantity: 10})

	assert.Nil(t, reservation)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInsufficientStock))
	assert.Contains(t, err.Error(), "not enough quantity of item sku1 (current qty: 10)")

	view, err := uc.GetStock(ctx, "sku1")
	require.NoError(t, err)
	assert.Equal(t, 10, view.Available)
}

func TestReserve_UnknownProductHasNoStock(t *testing.T) {
	uc, _ := newSeededUseCase(nil)

	_, err := uc.Reserve(context.Background(), ReserveRequest{ProductID: "ghost", Quantity: 1})

	assert.True(t, errors.Is(err, ErrInsufficientStock))
}

func TestReserve_InvalidQuantity(t *testing.T) {
	uc, _ := newSeededUseCase(map[string]int{"sku1": 10})

	for _, quantity := range []int{0, -3} {
		_, err := uc.Reserve(context.Background(), ReserveRequest{ProductID: "sku1", Quantity: quantity})
		assert.ErrorIs(t, err, ErrInvalidQuantity)
	}
}

func TestRollback_RestoresExactQuantity(t *testing.T) {
	ctx := context.Background()
	uc, _ := newSeededUseCase(map[string]int{"sku1": 10})

	reservation, err := uc.Reserve(ctx, ReserveRequest{ProductID: "sku1", Quantity: 3})
	require.NoError(t, err)

	ack, err := uc.Rollback(ctx, reservation.ReservationID)
	require.NoError(t, err)
	assert.Equal(t, AckRolledBack, ack.Status)

	view, err := uc.GetStock(ctx, "sku1")
	require.NoError(t, err)
	assert.Equal(t, 10, view.Available)
	assert.Equal(t, 0, view.Held)
}

func TestCommitAndRollback_AreIdempotent(t *testing.T) {
	ctx := context.Background()
	uc, _ := newSeededUseCase(map[string]int{"sku1": 10})

	committed, err := uc.Reserve(ctx, ReserveRequest{ProductID: "sku1", Quantity: 2})
	require.NoError(t, err)
	rolledBack, err := uc.Reserve(ctx, ReserveRequest{ProductID: "sku1", Quantity: 3})
	require.NoError(t, err)

	_, err = uc.Commit(ctx, committed.ReservationID)
	require.NoError(t, err)
	_, err = uc.Rollback(ctx, rolledBack.ReservationID)
	require.NoError(t, err)

	// segunda chamada não altera o estoque
	ack, err := uc.Commit(ctx, committed.ReservationID)
	require.NoError(t, err)
	assert.Equal(t, AckIgnored, ack.Status)

	ack, err = uc.Rollback(ctx, rolledBack.ReservationID)
	require.NoError(t, err)
	assert.Equal(t, AckIgnored, ack.Status)

	// rollback depois de commit também é ignorado
	ack, err = uc.Rollback(ctx, committed.ReservationID)
	require.NoError(t, err)
	assert.Equal(t, AckIgnored, ack.Status)

	view, err := uc.GetStock(ctx, "sku1")
	require.NoError(t, err)
	assert.Equal(t, 8, view.Available)
}

func TestCommit_UnknownReservationIsIgnored(t *testing.T) {
	uc, _ := newSeededUseCase(nil)

	ack, err := uc.Commit(context.Background(), "does-not-exist")

	require.NoError(t, err)
	assert.Equal(t, AckIgnored, ack.Status)
	assert.Equal(t, "Reservation does-not-exist not registered. Command ignored!", ack.Message)
}

func TestRefill_AddsStock(t *testing.T) {
	uc, _ := newSeededUseCase(map[string]int{"sku1": 1})

	view, err := uc.Refill(context.Background(), RefillRequest{ProductID: "sku1", Quantity: 4})

	require.NoError(t, err)
	assert.Equal(t, 5, view.Available)

	_, err = uc.Refill(context.Background(), RefillRequest{ProductID: "sku1", Quantity: 0})
	assert.ErrorIs(t, err, ErrInvalidQuantity)
}

func TestReserve_ConcurrentReservationsNeverOversell(t *testing.T) {
	ctx := context.Background()
	uc, _ := newSeededUseCase(map[string]int{"sku1": 10})

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := uc.Reserve(ctx, ReserveRequest{ProductID: "sku1", Quantity: 1}); err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	// available > quantity: a última unidade nunca é reservada
	assert.Equal(t, 9, succeeded)
	view, err := uc.GetStock(ctx, "sku1")
	require.NoError(t, err)
	assert.Equal(t, 1, view.Available)
	assert.Equal(t, 9, view.Held)
}

func TestRepository_RollbackUndoesUncommittedChanges(t *testing.T) {
	ctx := context.Background()
	repository := NewMemoryInventoryRepository()
	repository.Seed(map[string]int{"sku1": 10})

	tx, err := repository.BeginTx(ctx)
	require.NoError(t, err)
	require.NoError(t, repository.TryReserveStock(ctx, tx, &Reservation{ReservationID: "r1", ProductID: "sku1", Quantity: 4}))
	_, err = repository.AddStock(ctx, tx, "sku2", 7)
	require.NoError(t, err)
	require.NoError(t, tx.Rollback())

	view, err := repository.GetStock(ctx, "sku1")
	require.NoError(t, err)
	assert.Equal(t, 10, view.Available)
	assert.Equal(t, 0, view.Held)

	view, err = repository.GetStock(ctx, "sku2")
	require.NoError(t, err)
	assert.Equal(t, 0, view.Available)
}
